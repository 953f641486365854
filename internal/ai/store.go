package ai

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/mosS-Green/plugins/internal/logger"
)

const (
	PresetLeaf    = "LEAF"
	PresetFunc    = "FUNC"
	PresetDefault = "DEFAULT"
	PresetThink   = "THINK"
	PresetQuick   = "QUICK"
)

// PromptPersister stores system instruction overrides between restarts.
type PromptPersister interface {
	SavePrompt(ctx context.Context, preset, instruction string) error
	LoadPrompts(ctx context.Context) (map[string]string, error)
}

type configSnapshot struct {
	version uint64
	presets map[string]ModelConfig
}

// ConfigStore holds named presets. Every change publishes a new immutable
// snapshot, so readers never observe a half-applied update.
type ConfigStore struct {
	current   atomic.Pointer[configSnapshot]
	persister PromptPersister
	logger    logger.Logger
}

func NewConfigStore(presets map[string]ModelConfig, persister PromptPersister, l logger.Logger) (*ConfigStore, error) {
	snap := &configSnapshot{version: 1, presets: make(map[string]ModelConfig, len(presets))}
	for name, cfg := range presets {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("preset %s: %w", name, err)
		}
		snap.presets[normalizePreset(name)] = cfg.Clone()
	}

	s := &ConfigStore{persister: persister, logger: l}
	s.current.Store(snap)
	return s, nil
}

func normalizePreset(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Get returns an independent copy of the preset and the version it was read from.
func (s *ConfigStore) Get(name string) (ModelConfig, uint64, error) {
	snap := s.current.Load()
	cfg, ok := snap.presets[normalizePreset(name)]
	if !ok {
		return ModelConfig{}, snap.version, fmt.Errorf("%w: %s", ErrPresetNotFound, name)
	}
	return cfg.Clone(), snap.version, nil
}

func (s *ConfigStore) Version() uint64 {
	return s.current.Load().version
}

func (s *ConfigStore) Names() []string {
	snap := s.current.Load()
	names := make([]string, 0, len(snap.presets))
	for name := range snap.presets {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Update applies fn to a copy of the preset and publishes the result as a
// new version.
func (s *ConfigStore) Update(name string, fn func(ModelConfig) ModelConfig) (uint64, error) {
	key := normalizePreset(name)
	for {
		old := s.current.Load()
		cfg, ok := old.presets[key]
		if !ok {
			return old.version, fmt.Errorf("%w: %s", ErrPresetNotFound, name)
		}

		updated := fn(cfg.Clone())
		if err := updated.Validate(); err != nil {
			return old.version, fmt.Errorf("preset %s: %w", key, err)
		}

		next := &configSnapshot{
			version: old.version + 1,
			presets: make(map[string]ModelConfig, len(old.presets)),
		}
		for k, v := range old.presets {
			next.presets[k] = v
		}
		next.presets[key] = updated

		if s.current.CompareAndSwap(old, next) {
			s.logger.WithFields(logger.Fields{
				"preset":  key,
				"version": next.version,
			}).Info("Preset updated")
			return next.version, nil
		}
	}
}

// SetSystemInstruction persists the override when a persister is configured
// and then publishes it. A failed save leaves the current snapshot untouched.
func (s *ConfigStore) SetSystemInstruction(ctx context.Context, name, instruction string) (uint64, error) {
	if _, version, err := s.Get(name); err != nil {
		return version, err
	}
	if s.persister != nil {
		if err := s.persister.SavePrompt(ctx, normalizePreset(name), instruction); err != nil {
			return s.Version(), fmt.Errorf("persist prompt: %w", err)
		}
	}
	return s.Update(name, func(cfg ModelConfig) ModelConfig {
		return cfg.WithSystemInstruction(instruction)
	})
}

// Load re-applies persisted instruction overrides. Overrides for unknown
// presets are skipped.
func (s *ConfigStore) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	prompts, err := s.persister.LoadPrompts(ctx)
	if err != nil {
		return fmt.Errorf("load prompts: %w", err)
	}
	for name, instruction := range prompts {
		_, err := s.Update(name, func(cfg ModelConfig) ModelConfig {
			return cfg.WithSystemInstruction(instruction)
		})
		if err != nil {
			s.logger.WithError(err).WithField("preset", name).Warn("Skipping stored prompt")
		}
	}
	return nil
}
