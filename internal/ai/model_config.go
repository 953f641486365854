package ai

import (
	"fmt"
	"maps"
	"slices"
)

type HarmCategory string

const (
	HarmHateSpeech       HarmCategory = "HARM_CATEGORY_HATE_SPEECH"
	HarmDangerousContent HarmCategory = "HARM_CATEGORY_DANGEROUS_CONTENT"
	HarmHarassment       HarmCategory = "HARM_CATEGORY_HARASSMENT"
	HarmSexuallyExplicit HarmCategory = "HARM_CATEGORY_SEXUALLY_EXPLICIT"
	HarmCivicIntegrity   HarmCategory = "HARM_CATEGORY_CIVIC_INTEGRITY"
)

var AllHarmCategories = []HarmCategory{
	HarmHateSpeech,
	HarmDangerousContent,
	HarmHarassment,
	HarmSexuallyExplicit,
	HarmCivicIntegrity,
}

type SafetyThreshold string

const (
	ThresholdOff           SafetyThreshold = "OFF"
	ThresholdBlockNone     SafetyThreshold = "BLOCK_NONE"
	ThresholdBlockOnlyHigh SafetyThreshold = "BLOCK_ONLY_HIGH"
	ThresholdBlockMedium   SafetyThreshold = "BLOCK_MEDIUM_AND_ABOVE"
	ThresholdBlockLow      SafetyThreshold = "BLOCK_LOW_AND_ABOVE"
)

// SafetyOff disables filtering for every known category.
func SafetyOff() map[HarmCategory]SafetyThreshold {
	thresholds := make(map[HarmCategory]SafetyThreshold, len(AllHarmCategories))
	for _, c := range AllHarmCategories {
		thresholds[c] = ThresholdOff
	}
	return thresholds
}

// ModelConfig is a value type. Shared instances must never be mutated in place:
// use Clone or the With* helpers, which return independent copies.
type ModelConfig struct {
	Model              string
	SystemInstruction  string
	Temperature        *float32
	MaxOutputTokens    int32
	SafetyThresholds   map[HarmCategory]SafetyThreshold
	EnabledTools       []string
	GoogleSearch       bool
	URLContext         bool
	ThinkingBudget     *int32
	ResponseModalities []string
}

func (c ModelConfig) Clone() ModelConfig {
	out := c
	if c.Temperature != nil {
		t := *c.Temperature
		out.Temperature = &t
	}
	if c.ThinkingBudget != nil {
		b := *c.ThinkingBudget
		out.ThinkingBudget = &b
	}
	out.SafetyThresholds = maps.Clone(c.SafetyThresholds)
	out.EnabledTools = slices.Clone(c.EnabledTools)
	out.ResponseModalities = slices.Clone(c.ResponseModalities)
	return out
}

func (c ModelConfig) WithSystemInstruction(instruction string) ModelConfig {
	out := c.Clone()
	out.SystemInstruction = instruction
	return out
}

func (c ModelConfig) WithTemperature(t float32) ModelConfig {
	out := c.Clone()
	out.Temperature = &t
	return out
}

func (c ModelConfig) WithModalities(modalities ...string) ModelConfig {
	out := c.Clone()
	out.ResponseModalities = slices.Clone(modalities)
	return out
}

func (c ModelConfig) WantsImage() bool {
	return slices.Contains(c.ResponseModalities, ModalityImage)
}

func (c ModelConfig) Validate() error {
	if c.Model == "" {
		return fmt.Errorf("%w: model is required", ErrInvalidConfig)
	}
	if c.Temperature != nil && (*c.Temperature < 0 || *c.Temperature > 2) {
		return fmt.Errorf("%w: temperature must be between 0 and 2, got %.2f", ErrInvalidConfig, *c.Temperature)
	}
	if c.MaxOutputTokens < 0 {
		return fmt.Errorf("%w: max_output_tokens must be positive, got %d", ErrInvalidConfig, c.MaxOutputTokens)
	}
	for _, m := range c.ResponseModalities {
		if m != ModalityText && m != ModalityImage {
			return fmt.Errorf("%w: unsupported response modality %q", ErrInvalidConfig, m)
		}
	}
	return nil
}
