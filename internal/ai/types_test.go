package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversation_Validate(t *testing.T) {
	user := Turn{Role: RoleUser, Parts: []Part{TextPart("hi")}}
	modelCalls := Turn{Role: RoleModel, Parts: []Part{
		CallPart("get_list", nil),
		CallPart("get_weather", map[string]any{"location": "Pune"}),
	}}

	tests := []struct {
		name    string
		conv    Conversation
		wantErr string
	}{
		{
			name: "matched results",
			conv: Conversation{user, modelCalls, {Role: RoleTool, Parts: []Part{
				ResultPart("get_list", "a, b"),
				ResultPart("get_weather", "sunny"),
			}}},
		},
		{
			name:    "tool turn first",
			conv:    Conversation{{Role: RoleTool, Parts: []Part{ResultPart("get_list", "a")}}},
			wantErr: "must follow a model turn",
		},
		{
			name: "model turn without calls",
			conv: Conversation{user, {Role: RoleModel, Parts: []Part{TextPart("ok")}}, {Role: RoleTool, Parts: []Part{
				ResultPart("get_list", "a"),
			}}},
			wantErr: "has no function calls",
		},
		{
			name:    "missing result",
			conv:    Conversation{user, modelCalls, {Role: RoleTool, Parts: []Part{ResultPart("get_list", "a")}}},
			wantErr: "1 results for 2 calls",
		},
		{
			name: "results out of order",
			conv: Conversation{user, modelCalls, {Role: RoleTool, Parts: []Part{
				ResultPart("get_weather", "sunny"),
				ResultPart("get_list", "a, b"),
			}}},
			wantErr: "does not match call",
		},
		{
			name:    "unknown role",
			conv:    Conversation{{Role: "system", Parts: []Part{TextPart("x")}}},
			wantErr: "unsupported role",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.conv.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestTranscript_ContextText(t *testing.T) {
	tr := Transcript{Lines: []TranscriptLine{
		{Author: "ann", Text: "hello"},
		{Author: "bob", Text: "hi"},
	}}

	assert.False(t, tr.Empty())
	assert.Equal(t, "[Conversation Start]\n[ann]: hello\n\n[bob]: hi\n[Conversation End]", tr.ContextText())
}
