package ai

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/mosS-Green/plugins/internal/logger"
)

// ToolRegistry maps tool names to descriptors. It is filled during startup and
// sealed afterwards; from then on it is read-only.
type ToolRegistry struct {
	tools  map[string]ToolDescriptor
	sealed bool
	mu     sync.RWMutex
	logger logger.Logger
}

func NewToolRegistry(l logger.Logger) *ToolRegistry {
	return &ToolRegistry{
		tools:  make(map[string]ToolDescriptor),
		logger: l,
	}
}

func (r *ToolRegistry) Register(desc ToolDescriptor) error {
	if desc.Name == "" {
		return errors.New("tool name cannot be empty")
	}
	if desc.Handler == nil {
		return fmt.Errorf("tool %s: handler is required", desc.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed {
		return fmt.Errorf("%w: %s", ErrRegistrySealed, desc.Name)
	}
	if _, exists := r.tools[desc.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, desc.Name)
	}
	if desc.Parameters.Type == "" {
		desc.Parameters = ObjectParameters(desc.Parameters.Properties, desc.Parameters.Required...)
	}
	r.tools[desc.Name] = desc

	r.logger.WithFields(logger.Fields{
		"tool":            desc.Name,
		"caller_identity": desc.NeedsCallerIdentity,
	}).Debug("Registered tool")
	return nil
}

// Seal stops further registration.
func (r *ToolRegistry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sealed = true
}

func (r *ToolRegistry) Resolve(name string) (ToolDescriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	desc, exists := r.tools[name]
	if !exists {
		return ToolDescriptor{}, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return desc, nil
}

// Advertise returns the descriptors enabled by a config, in config order.
// Unknown names are skipped.
func (r *ToolRegistry) Advertise(enabled []string) []ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]ToolDescriptor, 0, len(enabled))
	seen := make(map[string]bool, len(enabled))
	for _, name := range enabled {
		if seen[name] {
			continue
		}
		seen[name] = true
		if desc, exists := r.tools[name]; exists {
			result = append(result, desc)
		} else {
			r.logger.WithField("tool", name).Warn("Enabled tool is not registered")
		}
	}
	return result
}

func (r *ToolRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
