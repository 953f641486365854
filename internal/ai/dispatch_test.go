package ai

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mosS-Green/plugins/internal/logger"
)

func answerResponse(text string) *Response {
	return &Response{Candidates: []Candidate{{Parts: []Part{TextPart(text)}, FinishReason: "STOP"}}}
}

func callResponse(calls ...Part) *Response {
	return &Response{Candidates: []Candidate{{Parts: calls}}}
}

// scripted returns responses in order and records the history seen by each call.
func scripted(seen *[][]Turn, responses ...*Response) func(context.Context, []Turn, ModelConfig, []ToolDescriptor) (*Response, error) {
	var n atomic.Int32
	return func(_ context.Context, turns []Turn, _ ModelConfig, _ []ToolDescriptor) (*Response, error) {
		i := int(n.Add(1)) - 1
		if seen != nil {
			*seen = append(*seen, append([]Turn(nil), turns...))
		}
		if i >= len(responses) {
			return responses[len(responses)-1], nil
		}
		return responses[i], nil
	}
}

func newTestLoop(t *testing.T, gen Generator, tools ...ToolDescriptor) (*ToolDispatchLoop, *logger.TestLogger) {
	t.Helper()
	l := logger.NewTestLogger()
	reg := NewToolRegistry(l)
	for _, tool := range tools {
		require.NoError(t, reg.Register(tool))
	}
	reg.Seal()
	loop := NewToolDispatchLoop(NewModelInvoker(gen, reg, l), reg, DispatchOptions{
		MaxTurns:    3,
		ToolTimeout: time.Second,
	}, l)
	return loop, l
}

func testConfig(tools ...string) ModelConfig {
	return ModelConfig{Model: "gemini-flash-latest", EnabledTools: tools}
}

func TestToolDispatchLoop_DirectAnswer(t *testing.T) {
	gen := NewMockGenerator(t)
	gen.EXPECT().Generate(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(answerResponse("hello"), nil).Once()
	loop, _ := newTestLoop(t, gen)

	res, err := loop.Run(context.Background(), Conversation{{Role: RoleUser, Parts: []Part{TextPart("hi")}}}, testConfig(), Caller{})

	require.NoError(t, err)
	assert.Equal(t, OutcomeAnswer, res.Answer.Kind)
	assert.Equal(t, 1, res.Invocations)
	assert.Equal(t, 0, res.ToolRounds)
	assert.Len(t, res.History, 1)
}

func TestToolDispatchLoop_ToolRoundTrip(t *testing.T) {
	var seen [][]Turn
	gen := NewMockGenerator(t)
	gen.EXPECT().Generate(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(scripted(&seen,
			callResponse(CallPart("get_ytm_link", map[string]any{"song_name": "numb"})),
			answerResponse("here you go"),
		)).Times(2)

	var gotArgs map[string]any
	loop, _ := newTestLoop(t, gen, ToolDescriptor{
		Name: "get_ytm_link",
		Handler: func(_ context.Context, args map[string]any) (string, error) {
			gotArgs = args
			return "https://music.youtube.com/watch?v=abc", nil
		},
	})

	res, err := loop.Run(context.Background(), Conversation{{Role: RoleUser, Parts: []Part{TextPart("play numb")}}}, testConfig("get_ytm_link"), Caller{UserID: 7})

	require.NoError(t, err)
	assert.Equal(t, 2, res.Invocations)
	assert.Equal(t, 1, res.ToolRounds)
	assert.Equal(t, "numb", gotArgs["song_name"])

	require.Len(t, seen, 2)
	second := Conversation(seen[1])
	require.Len(t, second, 3)
	assert.Equal(t, RoleModel, second[1].Role)
	assert.Equal(t, RoleTool, second[2].Role)
	assert.Equal(t, "https://music.youtube.com/watch?v=abc", second[2].Parts[0].Result.Result)
	assert.NoError(t, second.Validate())
}

func TestToolDispatchLoop_ToolFailuresBecomeResults(t *testing.T) {
	var seen [][]Turn
	gen := NewMockGenerator(t)
	gen.EXPECT().Generate(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(scripted(&seen,
			callResponse(
				CallPart("broken", nil),
				CallPart("nope", nil),
				CallPart("panicky", nil),
				CallPart("ok", nil),
			),
			answerResponse("done"),
		)).Times(2)

	loop, l := newTestLoop(t, gen,
		ToolDescriptor{Name: "broken", Handler: func(context.Context, map[string]any) (string, error) {
			return "", errors.New("boom")
		}},
		ToolDescriptor{Name: "panicky", Handler: func(context.Context, map[string]any) (string, error) {
			panic("kaput")
		}},
		ToolDescriptor{Name: "ok", Handler: echoHandler("fine")},
	)

	_, err := loop.Run(context.Background(), Conversation{{Role: RoleUser, Parts: []Part{TextPart("go")}}}, testConfig("broken", "panicky", "ok"), Caller{})

	require.NoError(t, err)
	results := seen[1][2].Parts
	require.Len(t, results, 4)
	assert.Equal(t, "Error executing broken: boom", results[0].Result.Result)
	assert.Equal(t, "Unknown function 'nope'", results[1].Result.Result)
	assert.Equal(t, "Error executing panicky: kaput", results[2].Result.Result)
	assert.Equal(t, "fine", results[3].Result.Result)
	assert.True(t, l.HasEntry("warn", "Model requested unknown tool"))
	assert.True(t, l.HasEntry("error", "Tool execution failed"))
}

func TestToolDispatchLoop_CallerIdentityInjection(t *testing.T) {
	gen := NewMockGenerator(t)
	gen.EXPECT().Generate(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(scripted(nil,
			callResponse(CallPart("get_my_list", nil), CallPart("plain", nil)),
			answerResponse("done"),
		)).Times(2)

	var identityArgs, plainArgs map[string]any
	loop, _ := newTestLoop(t, gen,
		ToolDescriptor{
			Name:                "get_my_list",
			NeedsCallerIdentity: true,
			Handler: func(_ context.Context, args map[string]any) (string, error) {
				identityArgs = args
				return "Your list is empty.", nil
			},
		},
		ToolDescriptor{
			Name: "plain",
			Handler: func(_ context.Context, args map[string]any) (string, error) {
				plainArgs = args
				return "ok", nil
			},
		},
	)

	_, err := loop.Run(context.Background(), Conversation{{Role: RoleUser, Parts: []Part{TextPart("list")}}}, testConfig(), Caller{UserID: 42})

	require.NoError(t, err)
	assert.Equal(t, int64(42), identityArgs[CallerIdentityParam])
	assert.NotContains(t, plainArgs, CallerIdentityParam)
}

func TestToolDispatchLoop_MissingRequiredArgument(t *testing.T) {
	var seen [][]Turn
	gen := NewMockGenerator(t)
	gen.EXPECT().Generate(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(scripted(&seen,
			callResponse(CallPart("get_ytm_link", map[string]any{})),
			answerResponse("done"),
		)).Times(2)

	called := false
	loop, _ := newTestLoop(t, gen, ToolDescriptor{
		Name:       "get_ytm_link",
		Parameters: ObjectParameters(map[string]Property{"song_name": {Type: "string"}}, "song_name"),
		Handler: func(context.Context, map[string]any) (string, error) {
			called = true
			return "x", nil
		},
	})

	_, err := loop.Run(context.Background(), Conversation{{Role: RoleUser, Parts: []Part{TextPart("play")}}}, testConfig(), Caller{})

	require.NoError(t, err)
	assert.False(t, called)
	assert.Equal(t, `Error executing get_ytm_link: missing required argument "song_name"`, seen[1][2].Parts[0].Result.Result)
}

func TestToolDispatchLoop_TurnCeiling(t *testing.T) {
	gen := NewMockGenerator(t)
	gen.EXPECT().Generate(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(callResponse(CallPart("ok", nil)), nil).Times(4)
	loop, _ := newTestLoop(t, gen, ToolDescriptor{Name: "ok", Handler: echoHandler("again")})

	res, err := loop.Run(context.Background(), Conversation{{Role: RoleUser, Parts: []Part{TextPart("loop")}}}, testConfig("ok"), Caller{})

	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrorTypeTurnCeiling))
	assert.True(t, IsRetryableError(err))
	assert.Equal(t, 3, res.ToolRounds)
	assert.Equal(t, 4, res.Invocations)
}

func TestToolDispatchLoop_Blocked(t *testing.T) {
	gen := NewMockGenerator(t)
	gen.EXPECT().Generate(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&Response{BlockReason: "PROHIBITED_CONTENT"}, nil).Once()
	loop, _ := newTestLoop(t, gen)

	_, err := loop.Run(context.Background(), Conversation{{Role: RoleUser, Parts: []Part{TextPart("x")}}}, testConfig(), Caller{})

	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrorTypeBlocked))
	assert.Contains(t, err.Error(), "PROHIBITED_CONTENT")
}

func TestToolDispatchLoop_BackendError(t *testing.T) {
	gen := NewMockGenerator(t)
	gen.EXPECT().Generate(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection reset")).Once()
	loop, _ := newTestLoop(t, gen)

	_, err := loop.Run(context.Background(), Conversation{{Role: RoleUser, Parts: []Part{TextPart("x")}}}, testConfig(), Caller{})

	require.Error(t, err)
	assert.True(t, IsErrorType(err, ErrorTypeBackendUnavailable))
	assert.True(t, IsRetryableError(err))
}

func TestToolDispatchLoop_Malformed(t *testing.T) {
	gen := NewMockGenerator(t)
	gen.EXPECT().Generate(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&Response{}, nil).Once()
	loop, _ := newTestLoop(t, gen)

	_, err := loop.Run(context.Background(), Conversation{{Role: RoleUser, Parts: []Part{TextPart("x")}}}, testConfig(), Caller{})

	assert.True(t, IsErrorType(err, ErrorTypeMalformedResponse))
}

func TestToolDispatchLoop_CancelledContext(t *testing.T) {
	gen := NewMockGenerator(t)
	loop, _ := newTestLoop(t, gen)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := loop.Run(ctx, Conversation{{Role: RoleUser, Parts: []Part{TextPart("x")}}}, testConfig(), Caller{})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestToolDispatchLoop_ToolTimeout(t *testing.T) {
	var seen [][]Turn
	gen := NewMockGenerator(t)
	gen.EXPECT().Generate(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(scripted(&seen, callResponse(CallPart("slow", nil)), answerResponse("done"))).Times(2)

	l := logger.NewTestLogger()
	reg := NewToolRegistry(l)
	require.NoError(t, reg.Register(ToolDescriptor{Name: "slow", Handler: func(ctx context.Context, _ map[string]any) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}))
	loop := NewToolDispatchLoop(NewModelInvoker(gen, reg, l), reg, DispatchOptions{ToolTimeout: 20 * time.Millisecond}, l)

	_, err := loop.Run(context.Background(), Conversation{{Role: RoleUser, Parts: []Part{TextPart("x")}}}, testConfig(), Caller{})

	require.NoError(t, err)
	assert.Equal(t, "Error executing slow: context deadline exceeded", seen[1][2].Parts[0].Result.Result)
}

func TestToolDispatchLoop_ToolIgnoringContextTimesOut(t *testing.T) {
	var seen [][]Turn
	gen := NewMockGenerator(t)
	gen.EXPECT().Generate(mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		RunAndReturn(scripted(&seen, callResponse(CallPart("stuck", nil), CallPart("quick", nil)), answerResponse("done"))).Times(2)

	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	l := logger.NewTestLogger()
	reg := NewToolRegistry(l)
	require.NoError(t, reg.Register(ToolDescriptor{Name: "stuck", Handler: func(context.Context, map[string]any) (string, error) {
		<-release
		return "too late", nil
	}}))
	require.NoError(t, reg.Register(ToolDescriptor{Name: "quick", Handler: func(context.Context, map[string]any) (string, error) {
		return "fast", nil
	}}))
	loop := NewToolDispatchLoop(NewModelInvoker(gen, reg, l), reg, DispatchOptions{ToolTimeout: 20 * time.Millisecond}, l)

	start := time.Now()
	res, err := loop.Run(context.Background(), Conversation{{Role: RoleUser, Parts: []Part{TextPart("x")}}}, testConfig(), Caller{})

	require.NoError(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 2, res.Invocations)
	results := seen[1][2].Parts
	require.Len(t, results, 2)
	assert.Equal(t, "Error executing stuck: context deadline exceeded", results[0].Result.Result)
	assert.Equal(t, "fast", results[1].Result.Result)
}

func TestInt64Arg(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		want    int64
		wantErr bool
	}{
		{"int", 5, 5, false},
		{"int64", int64(6), 6, false},
		{"float64 from json", float64(7), 7, false},
		{"string", "8", 8, false},
		{"bad string", "x", 0, true},
		{"missing", nil, 0, true},
		{"unsupported", []int{1}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Int64Arg(map[string]any{"n": tt.value}, "n")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
