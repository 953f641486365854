package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConfig(t *testing.T, overrides map[string]any) *Config {
	t.Helper()
	cfg, err := FromValues(overrides)
	require.NoError(t, err)
	return cfg
}

func TestNormalizeDSN(t *testing.T) {
	dsn := normalizeDSN("bot.db?_journal=DELETE")

	assert.Equal(t,
		"bot.db?_auto_vacuum=INCREMENTAL&_busy_timeout=10000&_cache=shared&_journal=DELETE&_synchronous=NORMAL",
		dsn,
	)
}

func TestConfig_AIPresets(t *testing.T) {
	cfg := newTestConfig(t, nil).AI()

	assert.Equal(t, []string{"DEFAULT", "FUNC", "LEAF", "QUICK", "THINK"}, cfg.PresetNames())

	leaf := cfg.Presets["leaf"]
	assert.Equal(t, "gemini-3-flash-preview", leaf.Model)
	assert.Equal(t, PromptLeaf, leaf.SystemPrompt)
	require.NotNil(t, leaf.Temperature)
	assert.Equal(t, float32(1.0), *leaf.Temperature)
	require.NotNil(t, leaf.ThinkingBudget)
	assert.Equal(t, 0, *leaf.ThinkingBudget)

	think := cfg.Presets["think"]
	assert.Nil(t, think.ThinkingBudget)
	assert.Equal(t, 60000, think.MaxOutputTokens)

	assert.True(t, cfg.Presets["default"].GoogleSearch)
	assert.True(t, cfg.Presets["default"].URLContext)
	assert.Equal(t, defaultFuncTools, cfg.Presets["func"].Tools)

	assert.Equal(t, int64(25*1024*1024), cfg.Media.MaxSize)
	assert.Equal(t, 5*time.Second, cfg.Media.PollInterval)
	assert.Equal(t, 5*time.Minute, cfg.Media.PollTimeout)
	assert.Equal(t, 8, cfg.Tools.MaxTurns)
}

func TestConfig_PresetOverride(t *testing.T) {
	cfg := newTestConfig(t, map[string]any{
		"ai.presets.quick.temperature": 0.1,
		"ai.tools.max_turns":           3,
	}).AI()

	assert.Equal(t, float32(0.1), *cfg.Presets["quick"].Temperature)
	assert.Equal(t, "gemini-flash-lite-latest", cfg.Presets["quick"].Model)
	assert.Equal(t, 3, cfg.Tools.MaxTurns)
}

func TestConfig_GetCommandConfig(t *testing.T) {
	c := newTestConfig(t, nil)

	r := c.GetCommandConfig("r")
	assert.True(t, r.Enabled)
	assert.True(t, r.Queue.Enabled)
	assert.Equal(t, 3, r.Queue.Throttle.Concurrency)
	assert.Equal(t, 3*time.Minute, r.Queue.Timeout)

	unknown := c.GetCommandConfig("nope")
	assert.False(t, unknown.Enabled)
	assert.Equal(t, 1, unknown.Queue.Throttle.Concurrency)
	assert.Equal(t, 10*time.Second, unknown.Queue.Throttle.Period)
}

func TestTelegramConfig_Access(t *testing.T) {
	cfg := TelegramConfig{AllowedUsers: []int64{1}, Admins: []int64{9}}

	assert.True(t, cfg.IsAllowed(1, 100))
	assert.True(t, cfg.IsChatAllowed(100), "empty chat list allows all chats")
	assert.True(t, cfg.IsAdmin(9))
	assert.False(t, cfg.IsAdmin(1))

	restricted := TelegramConfig{AllowedChats: []int64{5}}
	assert.False(t, restricted.IsAllowed(2, 6))
	assert.True(t, restricted.IsAllowed(2, 5))
}

func TestHTTPConfig_GetProxy(t *testing.T) {
	t.Setenv("HTTPS_PROXY", "")
	t.Setenv("https_proxy", "")
	t.Setenv("HTTP_PROXY", "http://env:8080")

	empty := ""
	assert.Equal(t, "http://env:8080", HTTPConfig{proxy: &empty}.GetProxy())

	explicit := "socks5://127.0.0.1:1080"
	assert.Equal(t, explicit, HTTPConfig{proxy: &explicit}.GetProxy())
}
