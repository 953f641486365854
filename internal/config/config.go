package config

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

const (
	GLOBAL_MESSAGE_RETENTION_DAYS = "global.message_retention_days"
	GLOBAL_LANGUAGE               = "global.interface_language"
	HTTP_PROXY                    = "http.proxy"
	HTTP_TIMEOUT                  = "http.timeout"
	HTTP_NO_PROXY                 = "http.no_proxy"
	TELEGRAM_TOKEN                = "telegram.token"
	TELEGRAM_ALLOWED_USERS        = "telegram.allowed_users"
	TELEGRAM_ALLOWED_CHATS        = "telegram.allowed_chats"
	TELEGRAM_ADMINS               = "telegram.admins"
	GEMINI_API_KEY                = "gemini.api_key"
	GEMINI_BASE_URL               = "gemini.base_url"
	AI_PRESETS                    = "ai.presets"
	AI_MEDIA_MAX_SIZE             = "ai.media.max_size"
	AI_MEDIA_POLL_INTERVAL        = "ai.media.poll_interval"
	AI_MEDIA_POLL_TIMEOUT         = "ai.media.poll_timeout"
	AI_MEDIA_TEMP_DIRECTORY       = "ai.media.temp_directory"
	AI_TOOLS_MAX_TURNS            = "ai.tools.max_turns"
	AI_TOOLS_TIMEOUT              = "ai.tools.timeout"
	LASTFM_API_KEY                = "lastfm.api_key"
	LASTFM_BASE_URL               = "lastfm.base_url"
	LASTFM_CACHE_TTL              = "lastfm.cache_ttl"
	MUSIC_CACHE_TTL               = "music.cache_ttl"
	MUSIC_SEARCH_TIMEOUT          = "music.search_timeout"
	WEATHER_BASE_URL              = "weather.base_url"
	FETCH_MAX_LENGTH              = "fetch.max_length"
	DATABASE_DSN                  = "database.dsn"
	LOGGING_LEVEL                 = "logging.level"
	LOGGING_FORMAT                = "logging.format"
	LOGGING_WRITE_IN_FILE         = "logging.write_in_file"
	LOGGING_FILE_PATH             = "logging.file_path"
)

const envPrefix = "LEAFLET_"

var defaultSQLiteParams = map[string]string{
	"_journal":      "WAL",
	"_busy_timeout": "10000",
	"_synchronous":  "NORMAL",
	"_cache":        "shared",
	"_auto_vacuum":  "INCREMENTAL",
}

type Config struct {
	k *koanf.Koanf
}

var configPath string

func init() {
	flag.StringVar(&configPath, "config", "", "Path to config file")
}

func defaultValues() map[string]any {
	defaults := map[string]any{
		GLOBAL_MESSAGE_RETENTION_DAYS: 2,
		GLOBAL_LANGUAGE:               "en",
		TELEGRAM_TOKEN:                "",
		HTTP_PROXY:                    nil,
		HTTP_TIMEOUT:                  30 * time.Second,
		GEMINI_API_KEY:                "",
		AI_MEDIA_MAX_SIZE:             int64(25 * 1024 * 1024),
		AI_MEDIA_POLL_INTERVAL:        5 * time.Second,
		AI_MEDIA_POLL_TIMEOUT:         5 * time.Minute,
		AI_MEDIA_TEMP_DIRECTORY:       "",
		AI_TOOLS_MAX_TURNS:            8,
		AI_TOOLS_TIMEOUT:              30 * time.Second,
		LASTFM_BASE_URL:               "https://ws.audioscrobbler.com/2.0/",
		LASTFM_CACHE_TTL:              30 * time.Second,
		MUSIC_CACHE_TTL:               24 * time.Hour,
		MUSIC_SEARCH_TIMEOUT:          30 * time.Second,
		WEATHER_BASE_URL:              "https://wttr.in",
		FETCH_MAX_LENGTH:              8000,
		DATABASE_DSN:                  "leaflet.db?_journal=WAL&_busy_timeout=5000&_synchronous=NORMAL&_cache=shared",
		LOGGING_LEVEL:                 "info",
		LOGGING_FORMAT:                "text",
		LOGGING_WRITE_IN_FILE:         false,

		"commands.start.enabled":                true,
		"commands.start.queue.enabled":          false,
		"commands.r.enabled":                    true,
		"commands.r.queue.enabled":              true,
		"commands.r.queue.timeout":              3 * time.Minute,
		"commands.r.queue.throttle.period":      5 * time.Second,
		"commands.r.queue.throttle.requests":    3,
		"commands.r.queue.throttle.concurrency": 3,
		"commands.sm.enabled":                   true,
		"commands.sm.queue.enabled":             true,
		"commands.sm.queue.timeout":             3 * time.Minute,
		"commands.sm.queue.throttle.period":     30 * time.Second,
		"commands.lr.enabled":                   true,
		"commands.lr.queue.enabled":             false,
		"commands.fren.enabled":                 true,
		"commands.fren.queue.enabled":           false,
		"commands.st.enabled":                   true,
		"commands.st.queue.enabled":             true,
		"commands.st.queue.timeout":             time.Minute,
		"commands.st.queue.throttle.period":     5 * time.Second,
		"commands.st.queue.throttle.requests":   2,
		"commands.sp.enabled":                   true,
		"commands.sp.queue.enabled":             false,
	}

	presets := map[string]map[string]any{
		"leaf": {
			"model":             "gemini-3-flash-preview",
			"system_prompt":     PromptLeaf,
			"temperature":       1.0,
			"max_output_tokens": 8192,
			"thinking_budget":   0,
		},
		"func": {
			"model":             "gemini-flash-latest",
			"system_prompt":     PromptDefault,
			"temperature":       0.8,
			"max_output_tokens": 8192,
			"thinking_budget":   0,
			"tools":             defaultFuncTools,
		},
		"default": {
			"model":             "gemini-flash-latest",
			"system_prompt":     PromptDefault,
			"temperature":       1.0,
			"max_output_tokens": 8192,
			"thinking_budget":   0,
			"google_search":     true,
			"url_context":       true,
		},
		"think": {
			"model":             "gemini-3-flash-preview",
			"system_prompt":     PromptThink,
			"temperature":       0.8,
			"max_output_tokens": 60000,
		},
		"quick": {
			"model":             "gemini-flash-lite-latest",
			"system_prompt":     PromptQuick,
			"temperature":       0.6,
			"max_output_tokens": 8192,
		},
	}
	for name, values := range presets {
		for key, value := range values {
			defaults[fmt.Sprintf("%s.%s.%s", AI_PRESETS, name, key)] = value
		}
	}
	return defaults
}

// FromValues builds a config from the defaults overlaid with values, keyed
// by dotted path. No files or environment are read.
func FromValues(values map[string]any) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(defaultValues(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %v", err)
	}
	if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
		return nil, fmt.Errorf("error loading values: %v", err)
	}
	return &Config{k: k}, nil
}

func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultValues(), "."), nil); err != nil {
		return nil, fmt.Errorf("error loading defaults: %v", err)
	}

	for _, path := range getConfigPaths() {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("error loading config %s: %v", path, err)
			}
			break
		}
	}

	k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, envPrefix)),
			"_", ".",
		)
	}), nil)

	if k.String(GEMINI_API_KEY) == "" {
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			k.Set(GEMINI_API_KEY, key)
		}
	}

	if k.String(TELEGRAM_TOKEN) == "" {
		return nil, fmt.Errorf("telegram token is required")
	}

	return &Config{k: k}, nil
}

func (c *Config) GetCommandConfig(name string) *commandConfig {
	concurrency := c.k.Int(fmt.Sprintf("commands.%s.queue.throttle.concurrency", name))
	if concurrency == 0 {
		concurrency = 1
	}
	requests := c.k.Int(fmt.Sprintf("commands.%s.queue.throttle.requests", name))
	if requests == 0 {
		requests = 1
	}
	period := c.k.Duration(fmt.Sprintf("commands.%s.queue.throttle.period", name))
	if period == 0 {
		period = 10 * time.Second
	}
	timeout := c.k.Duration(fmt.Sprintf("commands.%s.queue.timeout", name))
	if timeout == 0 {
		timeout = 1 * time.Minute
	}
	return &commandConfig{
		Enabled: c.k.Bool(fmt.Sprintf("commands.%s.enabled", name)),
		Queue: queueOptions{
			Enabled:    c.k.Bool(fmt.Sprintf("commands.%s.queue.enabled", name)),
			MaxRetries: c.k.Int(fmt.Sprintf("commands.%s.queue.max_retries", name)),
			RetryDelay: c.k.Duration(fmt.Sprintf("commands.%s.queue.retry_delay", name)),
			Timeout:    timeout,
			Throttle: queueThrottleOptions{
				Concurrency: concurrency,
				Period:      period,
				Requests:    requests,
			},
		},
	}
}

func (c *Config) Telegram() TelegramConfig {
	var cfg TelegramConfig
	if err := c.k.Unmarshal("telegram", &cfg); err != nil {
		log.Fatalf("telegramConfig unmarshal error: %v", err)
		return TelegramConfig{}
	}
	return cfg
}

func (c *Config) Gemini() GeminiConfig {
	return GeminiConfig{
		APIKey:  c.k.String(GEMINI_API_KEY),
		BaseURL: c.k.String(GEMINI_BASE_URL),
	}
}

func (c *Config) AI() AIConfig {
	var cfg AIConfig
	if err := c.k.Unmarshal("ai", &cfg); err != nil {
		log.Fatalf("aiConfig unmarshal error: %v", err)
		return AIConfig{}
	}
	return cfg
}

func (c *Config) LastFM() LastFMConfig {
	return LastFMConfig{
		APIKey:   c.k.String(LASTFM_API_KEY),
		BaseURL:  c.k.String(LASTFM_BASE_URL),
		CacheTTL: c.k.Duration(LASTFM_CACHE_TTL),
	}
}

func (c *Config) Music() MusicConfig {
	return MusicConfig{
		CacheTTL:      c.k.Duration(MUSIC_CACHE_TTL),
		SearchTimeout: c.k.Duration(MUSIC_SEARCH_TIMEOUT),
	}
}

func (c *Config) Tools() ToolsConfig {
	return ToolsConfig{
		WeatherBaseURL: c.k.String(WEATHER_BASE_URL),
		FetchMaxLength: c.k.Int(FETCH_MAX_LENGTH),
	}
}

func (c *Config) Log() LoggingConfig {
	return LoggingConfig{
		LogLevel:    c.k.String(LOGGING_LEVEL),
		Format:      c.k.String(LOGGING_FORMAT),
		WriteInFile: c.k.Bool(LOGGING_WRITE_IN_FILE),
		FilePath:    c.k.String(LOGGING_FILE_PATH),
	}
}

func (c *Config) GetDatabaseDSN() string {
	return normalizeDSN(c.k.String(DATABASE_DSN))
}

func normalizeDSN(dsn string) string {
	parts := strings.Split(dsn, "?")
	path := parts[0]

	params := make(map[string]string)
	if len(parts) > 1 {
		for param := range strings.SplitSeq(parts[1], "&") {
			if kv := strings.Split(param, "="); len(kv) == 2 {
				params[kv[0]] = kv[1]
			}
		}
	}

	for k, v := range defaultSQLiteParams {
		if _, exists := params[k]; !exists {
			params[k] = v
		}
	}

	var queryParams []string
	for k, v := range params {
		queryParams = append(queryParams, k+"="+v)
	}
	sort.Strings(queryParams)

	if len(queryParams) > 0 {
		return path + "?" + strings.Join(queryParams, "&")
	}
	return path
}

func (c *Config) Global() globalConfig {
	return globalConfig{
		MessageRetentionDays: c.k.Int(GLOBAL_MESSAGE_RETENTION_DAYS),
		InterfaceLanguage:    c.k.String(GLOBAL_LANGUAGE),
	}
}

func (c *Config) HTTP() HTTPConfig {
	var proxy string
	if proxyValue, ok := c.k.Get(HTTP_PROXY).(string); ok {
		proxy = proxyValue
	}

	return HTTPConfig{
		proxy:   &proxy,
		NoProxy: c.k.Strings(HTTP_NO_PROXY),
		Timeout: c.k.Duration(HTTP_TIMEOUT),
	}
}

func getConfigPaths() []string {
	if configPath != "" {
		return []string{configPath}
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		home, _ := os.UserHomeDir()
		xdgConfig = filepath.Join(home, ".config")
	}

	return []string{
		"leaflet.toml",
		"config.toml",
		filepath.Join(xdgConfig, "leaflet", "config.toml"),
		"/etc/leaflet/config.toml",
	}
}
