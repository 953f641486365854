package di

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"github.com/mosS-Green/plugins/internal/ai"
	"github.com/mosS-Green/plugins/internal/ai/tools"
	"github.com/mosS-Green/plugins/internal/cache"
	"github.com/mosS-Green/plugins/internal/config"
	"github.com/mosS-Green/plugins/internal/database"
	"github.com/mosS-Green/plugins/internal/logger"
	"github.com/mosS-Green/plugins/internal/network"
	"github.com/mosS-Green/plugins/internal/queue"
	"github.com/mosS-Green/plugins/internal/service"
	"github.com/mosS-Green/plugins/internal/service/cancel"
	"github.com/mosS-Green/plugins/internal/service/youtube"
	"github.com/mosS-Green/plugins/internal/telegram"
)

type Container struct {
	BotClient  telegram.Client
	Logger     logger.Logger
	DB         database.Database
	Cache      cache.Cache
	DBCache    *cache.DBCache
	Cfg        *config.Config
	Queue      *queue.Queue
	HttpClient *http.Client
	Localizer  *service.Localizer
	Cancel     *cancel.Manager

	Presets      *ai.ConfigStore
	Tools        *ai.ToolRegistry
	Orchestrator *ai.Orchestrator

	LastFM *service.LastFMClient
	Music  *youtube.MusicService
}

func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logCfg := cfg.Log()
	l := logger.NewLogrusLogger(&logCfg, cfg.Telegram().Token, cfg.Gemini().APIKey, cfg.LastFM().APIKey)

	db, err := database.NewSQLiteDB(cfg.GetDatabaseDSN(), l)
	if err != nil {
		return nil, err
	}

	dbCache := cache.NewDBCache(db)
	c := cache.NewMultiLevelCache(cache.NewMemoryCache(), dbCache, cache.DefaultPromotionTTL, l)
	localizer, err := service.NewLocalizer(cfg.Global().InterfaceLanguage)
	if err != nil {
		return nil, fmt.Errorf("create localizer: %w", err)
	}

	container := &Container{
		Logger:    l,
		DB:        db,
		Cache:     c,
		DBCache:   dbCache,
		Cfg:       cfg,
		Queue:     queue.NewQueue(db, l),
		Localizer: localizer,
		Cancel:    cancel.NewManager(),
	}

	container.HttpClient, err = network.SetupHTTPClient(network.NewDefaultHTTPClientConfig(cfg.HTTP()), l)
	if err != nil {
		return nil, err
	}
	toolHTTPClient, err := network.SetupHTTPClient(network.NewToolHTTPClientConfig(cfg.HTTP()), l)
	if err != nil {
		return nil, err
	}

	lastfmCfg := cfg.LastFM()
	container.LastFM = service.NewLastFMClient(service.LastFMConfig{
		APIKey:   lastfmCfg.APIKey,
		BaseURL:  lastfmCfg.BaseURL,
		CacheTTL: lastfmCfg.CacheTTL,
	}, toolHTTPClient, c, l)

	musicCfg := cfg.Music()
	container.Music = youtube.NewMusicService(youtube.NewYTDLPExtractor(), c, youtube.Config{
		Proxy:         cfg.HTTP().GetProxy(),
		CacheTTL:      musicCfg.CacheTTL,
		SearchTimeout: musicCfg.SearchTimeout,
	}, l)

	if err := container.initAI(ctx, toolHTTPClient); err != nil {
		return nil, err
	}

	api, err := tgbotapi.NewBotAPIWithClient(cfg.Telegram().Token, tgbotapi.APIEndpoint, container.HttpClient)
	if err != nil {
		return nil, fmt.Errorf("bot API client initialization error: %w", err)
	}
	l.WithField("username", api.Self.UserName).Info("Bot API initialized")
	container.BotClient = telegram.NewBotClient(api, l)

	return container, nil
}

func (c *Container) initAI(ctx context.Context, toolHTTPClient *http.Client) error {
	aiCfg := c.Cfg.AI()

	var backend ai.Backend
	backend, err := ai.NewGeminiBackend(ctx, ai.GeminiConfig{
		APIKey:     c.Cfg.Gemini().APIKey,
		BaseURL:    c.Cfg.Gemini().BaseURL,
		HTTPClient: c.HttpClient,
	}, c.Logger)
	if err != nil {
		return err
	}

	c.Presets, err = ai.NewConfigStore(ModelConfigs(aiCfg), c.DB, c.Logger)
	if err != nil {
		return err
	}
	if err := c.Presets.Load(ctx); err != nil {
		c.Logger.WithError(err).Warn("Failed to load stored system prompts")
	}

	c.Tools = ai.NewToolRegistry(c.Logger)
	toolset := tools.NewTools(
		toolHTTPClient,
		c.Music,
		service.NewDuckDuckGoSearch(toolHTTPClient, 0),
		c.LastFM,
		c.DB,
		tools.Config{
			WeatherBaseURL: c.Cfg.Tools().WeatherBaseURL,
			FetchMaxLength: c.Cfg.Tools().FetchMaxLength,
		},
		c.Logger,
	)
	if err := toolset.Register(c.Tools); err != nil {
		return err
	}
	c.Tools.Seal()

	ingestor := ai.NewMediaIngestor(backend, ai.IngestOptions{
		TempRoot:     aiCfg.Media.TempDirectory,
		PollInterval: aiCfg.Media.PollInterval,
		PollTimeout:  aiCfg.Media.PollTimeout,
	}, c.Logger)
	invoker := ai.NewModelInvoker(backend, c.Tools, c.Logger)
	loop := ai.NewToolDispatchLoop(invoker, c.Tools, ai.DispatchOptions{
		MaxTurns:    aiCfg.Tools.MaxTurns,
		ToolTimeout: aiCfg.Tools.Timeout,
	}, c.Logger)

	c.Orchestrator = ai.NewOrchestrator(ingestor, ai.NewPromptAssembler(), loop, ai.OrchestratorOptions{
		MediaLimit: aiCfg.Media.MaxSize,
	}, c.Logger)

	c.Logger.WithFields(logger.Fields{
		"backend": backend.Name(),
		"presets": c.Presets.Names(),
		"tools":   c.Tools.Names(),
	}).Info("AI core initialized")
	return nil
}

// ModelConfigs converts the configured presets into model configs, keyed by
// upper-case preset name.
func ModelConfigs(cfg config.AIConfig) map[string]ai.ModelConfig {
	presets := make(map[string]ai.ModelConfig, len(cfg.Presets))
	for name, p := range cfg.Presets {
		mc := ai.ModelConfig{
			Model:              p.Model,
			SystemInstruction:  p.SystemPrompt,
			Temperature:        p.Temperature,
			MaxOutputTokens:    int32(p.MaxOutputTokens),
			SafetyThresholds:   ai.SafetyOff(),
			EnabledTools:       p.Tools,
			GoogleSearch:       p.GoogleSearch,
			URLContext:         p.URLContext,
			ResponseModalities: p.ResponseModalities,
		}
		if p.ThinkingBudget != nil {
			budget := int32(*p.ThinkingBudget)
			mc.ThinkingBudget = &budget
		}
		for category, threshold := range p.Safety {
			category = strings.ToUpper(category)
			if !strings.HasPrefix(category, "HARM_CATEGORY_") {
				category = "HARM_CATEGORY_" + category
			}
			mc.SafetyThresholds[ai.HarmCategory(category)] = ai.SafetyThreshold(strings.ToUpper(threshold))
		}
		presets[strings.ToUpper(name)] = mc
	}
	return presets
}
