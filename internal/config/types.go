package config

import (
	"os"
	"slices"
	"strings"
	"time"
)

type globalConfig struct {
	MessageRetentionDays int    `koanf:"message_retention_days"`
	InterfaceLanguage    string `koanf:"interface_language"`
}

type HTTPConfig struct {
	proxy   *string       `koanf:"proxy"`
	NoProxy []string      `koanf:"no_proxy"`
	Timeout time.Duration `koanf:"timeout"`
}

func (c HTTPConfig) GetProxy() string {
	if c.proxy != nil && *c.proxy != "" {
		return *c.proxy
	}
	for _, name := range []string{"HTTPS_PROXY", "https_proxy", "HTTP_PROXY", "http_proxy"} {
		if proxyURL := os.Getenv(name); proxyURL != "" {
			return proxyURL
		}
	}
	return ""
}

func (c HTTPConfig) GetNoProxy() []string {
	if len(c.NoProxy) > 0 {
		return c.NoProxy
	}
	for _, name := range []string{"NO_PROXY", "no_proxy"} {
		if value := os.Getenv(name); value != "" {
			var hosts []string
			for host := range strings.SplitSeq(value, ",") {
				if host = strings.TrimSpace(host); host != "" {
					hosts = append(hosts, host)
				}
			}
			return hosts
		}
	}
	return nil
}

type LoggingConfig struct {
	LogLevel    string `koanf:"level"`
	Format      string `koanf:"format"`
	WriteInFile bool   `koanf:"write_in_file"`
	FilePath    string `koanf:"file_path"`
}

func (c LoggingConfig) Level() string {
	return strings.ToLower(c.LogLevel)
}

func (c LoggingConfig) IsDebug() bool {
	return c.Level() == "debug" || c.Level() == "trace"
}

func (c LoggingConfig) IsJSON() bool {
	return strings.EqualFold(c.Format, "json")
}

type TelegramConfig struct {
	Token        string  `koanf:"token"`
	AllowedUsers []int64 `koanf:"allowed_users"`
	AllowedChats []int64 `koanf:"allowed_chats"`
	Admins       []int64 `koanf:"admins"`
}

func (c TelegramConfig) IsAllowed(userID int64, chatID int64) bool {
	return c.IsUserAllowed(userID) || c.IsChatAllowed(chatID)
}

func (c TelegramConfig) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return false
	}
	return slices.Contains(c.AllowedUsers, userID)
}

// IsChatAllowed treats an empty allow list as "every chat".
func (c TelegramConfig) IsChatAllowed(chatID int64) bool {
	if len(c.AllowedChats) == 0 {
		return true
	}
	return slices.Contains(c.AllowedChats, chatID)
}

func (c TelegramConfig) IsAdmin(userID int64) bool {
	return slices.Contains(c.Admins, userID)
}

type GeminiConfig struct {
	APIKey  string `koanf:"api_key"`
	BaseURL string `koanf:"base_url"`
}

type AIPresetConfig struct {
	Model              string            `koanf:"model"`
	SystemPrompt       string            `koanf:"system_prompt"`
	Temperature        *float32          `koanf:"temperature"`
	MaxOutputTokens    int               `koanf:"max_output_tokens"`
	ThinkingBudget     *int              `koanf:"thinking_budget"`
	Tools              []string          `koanf:"tools"`
	GoogleSearch       bool              `koanf:"google_search"`
	URLContext         bool              `koanf:"url_context"`
	ResponseModalities []string          `koanf:"response_modalities"`
	Safety             map[string]string `koanf:"safety"`
}

type aiMediaOptions struct {
	MaxSize       int64         `koanf:"max_size"`
	PollInterval  time.Duration `koanf:"poll_interval"`
	PollTimeout   time.Duration `koanf:"poll_timeout"`
	TempDirectory string        `koanf:"temp_directory"`
}

type aiToolsOptions struct {
	MaxTurns int           `koanf:"max_turns"`
	Timeout  time.Duration `koanf:"timeout"`
}

type AIConfig struct {
	Presets map[string]AIPresetConfig `koanf:"presets"`
	Media   aiMediaOptions            `koanf:"media"`
	Tools   aiToolsOptions            `koanf:"tools"`
}

// PresetNames returns the configured preset names in upper case, sorted.
func (c AIConfig) PresetNames() []string {
	names := make([]string, 0, len(c.Presets))
	for name := range c.Presets {
		names = append(names, strings.ToUpper(name))
	}
	slices.Sort(names)
	return names
}

type LastFMConfig struct {
	APIKey   string        `koanf:"api_key"`
	BaseURL  string        `koanf:"base_url"`
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

func (c LastFMConfig) Enabled() bool {
	return c.APIKey != ""
}

type MusicConfig struct {
	CacheTTL      time.Duration `koanf:"cache_ttl"`
	SearchTimeout time.Duration `koanf:"search_timeout"`
}

type ToolsConfig struct {
	WeatherBaseURL string `koanf:"weather_base_url"`
	FetchMaxLength int    `koanf:"fetch_max_length"`
}

type queueThrottleOptions struct {
	Period      time.Duration `koanf:"period"`
	Concurrency int           `koanf:"concurrency"`
	Requests    int           `koanf:"requests"`
}

type queueOptions struct {
	Enabled    bool                 `koanf:"enabled"`
	MaxRetries int                  `koanf:"max_retries"`
	RetryDelay time.Duration        `koanf:"retry_delay"`
	Timeout    time.Duration        `koanf:"timeout"`
	Throttle   queueThrottleOptions `koanf:"throttle"`
}

type commandConfig struct {
	Enabled bool         `koanf:"enabled"`
	Queue   queueOptions `koanf:"queue"`
}
