package cancel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_RegisterAndUnregister(t *testing.T) {
	m := NewManager()

	ctx, done := m.Register(context.Background(), 123, 456, 7, "r")
	require.NotNil(t, ctx)
	assert.True(t, m.IsActive(123, 456))

	info := m.GetActiveRequest(123, 456)
	require.NotNil(t, info)
	assert.Equal(t, ActiveRequestInfo{ChatID: 123, MessageID: 456, OwnerID: 7, Command: "r"}, *info)

	done()

	assert.False(t, m.IsActive(123, 456))
	assert.Nil(t, m.GetActiveRequest(123, 456))
	assert.Error(t, ctx.Err())
	assert.False(t, CancelledByUser(ctx))
}

func TestManager_Cancel(t *testing.T) {
	tests := []struct {
		name      string
		requester int64
		force     bool
		want      bool
	}{
		{"owner", 7, false, true},
		{"stranger", 8, false, false},
		{"admin", 8, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewManager()
			ctx, done := m.Register(context.Background(), 1, 2, 7, "r")
			defer done()

			assert.Equal(t, tt.want, m.Cancel(1, 2, tt.requester, tt.force))
			if !tt.want {
				assert.NoError(t, ctx.Err())
				return
			}

			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
				t.Fatal("expected context to be cancelled")
			}
			assert.ErrorIs(t, ctx.Err(), context.Canceled)
			assert.True(t, CancelledByUser(ctx))
		})
	}
}

func TestManager_CancelNotFound(t *testing.T) {
	m := NewManager()
	assert.False(t, m.Cancel(123, 999, 1, true))
}

func TestManager_ParentCancellationPropagates(t *testing.T) {
	m := NewManager()
	parent, cancel := context.WithCancel(context.Background())
	ctx, done := m.Register(parent, 1, 1, 1, "sm")
	defer done()

	cancel()
	<-ctx.Done()
	assert.False(t, CancelledByUser(ctx))
}

func TestManager_Count(t *testing.T) {
	m := NewManager()
	_, done1 := m.Register(context.Background(), 1, 1, 1, "r")
	_, done2 := m.Register(context.Background(), 1, 2, 1, "r")
	assert.Equal(t, 2, m.Count())
	done1()
	done2()
	assert.Equal(t, 0, m.Count())
}
