package di

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mosS-Green/plugins/internal/ai"
	"github.com/mosS-Green/plugins/internal/config"
)

func TestModelConfigs(t *testing.T) {
	temperature := float32(0.7)
	budget := 0
	presets := ModelConfigs(config.AIConfig{
		Presets: map[string]config.AIPresetConfig{
			"leaf": {
				Model:           "gemini-flash",
				SystemPrompt:    "be dry",
				Temperature:     &temperature,
				MaxOutputTokens: 1024,
				ThinkingBudget:  &budget,
				Tools:           []string{"weather"},
				Safety:          map[string]string{"hate_speech": "block_only_high"},
			},
			"think": {Model: "gemini-pro"},
		},
	})

	require.Contains(t, presets, "LEAF")
	require.Contains(t, presets, "THINK")

	leaf := presets["LEAF"]
	assert.Equal(t, "gemini-flash", leaf.Model)
	assert.Equal(t, "be dry", leaf.SystemInstruction)
	assert.Equal(t, int32(1024), leaf.MaxOutputTokens)
	require.NotNil(t, leaf.ThinkingBudget)
	assert.Equal(t, int32(0), *leaf.ThinkingBudget)
	assert.Equal(t, []string{"weather"}, leaf.EnabledTools)
	assert.Equal(t, ai.ThresholdBlockOnlyHigh, leaf.SafetyThresholds[ai.HarmHateSpeech])
	assert.Equal(t, ai.ThresholdOff, leaf.SafetyThresholds[ai.HarmHarassment])

	assert.Nil(t, presets["THINK"].ThinkingBudget)
	assert.Len(t, presets["THINK"].SafetyThresholds, len(ai.AllHarmCategories))
}

func TestModelConfigsFromDefaults(t *testing.T) {
	cfg, err := config.FromValues(nil)
	require.NoError(t, err)

	presets := ModelConfigs(cfg.AI())

	for _, name := range cfg.AI().PresetNames() {
		require.Contains(t, presets, name)
		assert.NoError(t, presets[name].Validate(), name)
	}
}
