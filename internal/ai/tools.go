package ai

import (
	"context"
	"slices"
)

type Parameters struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitzero"`
}

type Property struct {
	Type        string    `json:"type"`
	Enum        []string  `json:"enum,omitzero"`
	Description string    `json:"description,omitzero"`
	Items       *Property `json:"items,omitzero"`
}

func ObjectParameters(properties map[string]Property, required ...string) Parameters {
	if properties == nil {
		properties = map[string]Property{}
	}
	return Parameters{
		Type:       "object",
		Properties: properties,
		Required:   required,
	}
}

// ToolHandler executes a tool. Arguments come straight from the model,
// plus injected values such as the caller identity. ctx carries the per-tool
// timeout; once it expires the call is reported as failed even if the
// handler keeps running.
type ToolHandler func(ctx context.Context, args map[string]any) (string, error)

type ToolDescriptor struct {
	Name        string
	Description string
	Parameters  Parameters
	Handler     ToolHandler
	// NeedsCallerIdentity makes the dispatch loop fill CallerIdentityParam
	// when the model did not supply it.
	NeedsCallerIdentity bool
}

func (d ToolDescriptor) Required() []string {
	required := slices.Clone(d.Parameters.Required)
	if d.NeedsCallerIdentity && !slices.Contains(required, CallerIdentityParam) {
		required = append(required, CallerIdentityParam)
	}
	return required
}
