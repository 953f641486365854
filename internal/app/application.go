package app

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/mosS-Green/plugins/internal/app/di"
	"github.com/mosS-Green/plugins/internal/commands/ask"
	"github.com/mosS-Green/plugins/internal/commands/lastfm"
	"github.com/mosS-Green/plugins/internal/commands/list"
	"github.com/mosS-Green/plugins/internal/commands/prompt"
	"github.com/mosS-Green/plugins/internal/commands/start"
	"github.com/mosS-Green/plugins/internal/commands/summary"
	"github.com/mosS-Green/plugins/internal/config"
	"github.com/mosS-Green/plugins/internal/core"
	"github.com/mosS-Green/plugins/internal/logger"
)

const cleanupInterval = time.Hour

type Application struct {
	Logger logger.Logger
	cfg    *config.Config
	bot    *core.Bot
	di     *di.Container
	ctx    context.Context
	cancel context.CancelFunc
}

func New() (*Application, error) {
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	cfg, err := config.Load()
	if err != nil {
		cancel()
		return nil, err
	}

	di, err := di.NewContainer(ctx, cfg)
	if err != nil {
		cancel()
		return nil, err
	}
	di.Logger.Info("DI Container created")

	botInstance := core.NewBot(
		di.BotClient,
		di.Queue,
		di.Logger,
		di.DB,
		cfg,
		di.Localizer,
		di.Cancel,
	)
	di.Logger.Info("Bot instance created")

	app := &Application{
		cfg:    cfg,
		bot:    botInstance,
		di:     di,
		Logger: di.Logger,
		ctx:    ctx,
		cancel: cancel,
	}

	app.registerCommands()

	return app, nil
}

func (a *Application) Start() error {
	a.Logger.Info("Starting application")
	a.StartCleaner()
	err := a.bot.Start(a.ctx)
	if a.ctx.Err() != nil {
		return nil
	}
	return err
}

func (a *Application) registerCommands() {
	if a.cfg.GetCommandConfig(start.CommandName).Enabled {
		a.bot.RegisterCommand(start.New(a.di))
	}
	if a.cfg.GetCommandConfig(ask.CommandName).Enabled {
		a.bot.RegisterCommand(ask.New(a.di))
	}
	if a.cfg.GetCommandConfig(summary.CommandName).Enabled {
		a.bot.RegisterCommand(summary.New(a.di))
	}
	if a.cfg.GetCommandConfig(list.CommandName).Enabled {
		a.bot.RegisterCommand(list.New(a.di))
	}
	if a.cfg.GetCommandConfig(prompt.CommandName).Enabled {
		a.bot.RegisterCommand(prompt.New(a.di))
	}
	if !a.di.LastFM.Enabled() {
		a.Logger.Warn("Last.fm api key not configured")
	}
	if a.cfg.GetCommandConfig(lastfm.LinkCommandName).Enabled {
		a.bot.RegisterCommand(lastfm.NewLink(a.di))
	}
	if a.cfg.GetCommandConfig(lastfm.StatusCommandName).Enabled {
		a.bot.RegisterCommand(lastfm.NewStatus(a.di))
	}
}

func (a *Application) WaitForShutdown() {
	<-a.ctx.Done()
	a.cancel()
	if err := a.di.DB.Close(); err != nil {
		a.Logger.WithError(err).Error("Failed to close database")
	}
	a.Logger.Info("Application stopped")
}

// StartCleaner purges old chat messages, finished tasks and expired cache
// rows once an hour.
func (a *Application) StartCleaner() {
	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-a.ctx.Done():
				return
			case <-ticker.C:
				a.cleanup()
			}
		}
	}()
}

func (a *Application) cleanup() {
	days := a.di.Cfg.Global().MessageRetentionDays
	if err := a.di.DB.PurgeOldMessages(days); err != nil {
		a.Logger.WithError(err).Error("Failed to purge old messages")
	}
	if err := a.di.DB.PurgeOldTasks(days); err != nil {
		a.Logger.WithError(err).Error("Failed to purge old tasks")
	}
	if n, err := a.di.DBCache.PurgeExpired(); err != nil {
		a.Logger.WithError(err).Error("Failed to purge expired cache")
	} else if n > 0 {
		a.Logger.WithField("rows", n).Debug("Purged expired cache")
	}
}
