package base

import (
	"context"
	"strings"

	"github.com/mosS-Green/plugins/internal/app/di"
	"github.com/mosS-Green/plugins/internal/commands"
	"github.com/mosS-Green/plugins/internal/config"
	"github.com/mosS-Green/plugins/internal/database"
	"github.com/mosS-Green/plugins/internal/logger"
	"github.com/mosS-Green/plugins/internal/markdown"
	"github.com/mosS-Green/plugins/internal/queue"
	"github.com/mosS-Green/plugins/internal/service"
	"github.com/mosS-Green/plugins/internal/telegram"
)

type Command struct {
	command   commands.Command
	Tg        telegram.Client
	Logger    logger.Logger
	Cfg       *config.Config
	Queue     *queue.Queue
	DB        database.Database
	Localizer *service.Localizer
}

func NewCommand(cmd commands.Command, di *di.Container) *Command {
	return &Command{
		command:   cmd,
		Tg:        di.BotClient,
		Logger:    di.Logger,
		Cfg:       di.Cfg,
		Queue:     di.Queue,
		DB:        di.DB,
		Localizer: di.Localizer,
	}
}

func (c *Command) Name() string {
	return ""
}

func (c *Command) Aliases() []string {
	return []string{}
}

// Handle runs the command inline or hands it to the queue, depending on the
// command's queue settings.
func (c *Command) Handle(ctx context.Context, update telegram.Update) error {
	cfg := c.Cfg.GetCommandConfig(c.command.Name())
	if cfg.Queue.Enabled {
		return c.Queue.Add(ctx, c.command, update)
	}
	return c.command.Execute(ctx, update)
}

func (c *Command) GetQueueConfig() commands.QueueConfig {
	cfg := c.Cfg.GetCommandConfig(c.command.Name())
	return commands.QueueConfig{
		MaxRetries: cfg.Queue.MaxRetries,
		RetryDelay: cfg.Queue.RetryDelay,
		Timeout:    cfg.Queue.Timeout,
		Throttle: commands.ThrottleConfig{
			Concurrency: cfg.Queue.Throttle.Concurrency,
			Period:      cfg.Queue.Throttle.Period,
			Requests:    cfg.Queue.Throttle.Requests,
		},
	}
}

func (c *Command) Execute(ctx context.Context, update telegram.Update) error {
	return nil
}

func (c *Command) L(messageID string, data map[string]any) string {
	return c.Localizer.Localize(messageID, data)
}

// Reply sends an HTML reply to the update's message.
func (c *Command) Reply(ctx context.Context, update telegram.Update, html string) (*telegram.Message, error) {
	msg := update.Message
	sent, err := c.Tg.SendWithRetry(ctx, telegram.NewHTMLMessage(msg.Chat.ID, html, msg.MessageID), 1)
	if err != nil {
		c.Logger.WithError(err).WithField("chat_id", msg.Chat.ID).Error("Failed to send message")
	}
	return sent, err
}

// Edit replaces the text of a message the bot sent earlier.
func (c *Command) Edit(chatID int64, messageID int, html string, keyboard *telegram.InlineKeyboardMarkup) error {
	edit := telegram.NewEditMessageHTML(chatID, messageID, html)
	edit.ReplyMarkup = keyboard
	if _, err := c.Tg.Request(edit); err != nil {
		c.Logger.WithError(err).WithFields(logger.Fields{
			"chat_id":    chatID,
			"message_id": messageID,
		}).Error("Failed to edit message")
		return err
	}
	return nil
}

// Input is the text after the command, or the caption arguments for media.
func Input(msg *telegram.MessageOriginal) string {
	if msg == nil {
		return ""
	}
	if msg.Text != "" {
		return strings.TrimSpace(msg.CommandArguments())
	}
	if msg.Caption != "" && strings.HasPrefix(msg.Caption, "/") {
		if _, args, found := strings.Cut(msg.Caption, " "); found {
			return strings.TrimSpace(args)
		}
	}
	return ""
}

// Text returns the text or caption of a message.
func Text(msg *telegram.MessageOriginal) string {
	if msg == nil {
		return ""
	}
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

func FirstName(msg *telegram.MessageOriginal) string {
	if msg == nil || msg.From == nil {
		return ""
	}
	return msg.From.FirstName
}

// Escape is shorthand for embedding user text in HTML replies.
func Escape(text string) string {
	return markdown.Escape(text)
}

// CommandOf returns the command name of msg without the slash or bot
// mention. Media messages carry their command in the caption.
func CommandOf(msg *telegram.MessageOriginal) string {
	if msg == nil {
		return ""
	}
	if cmd := msg.Command(); cmd != "" {
		return cmd
	}
	fields := strings.Fields(msg.Caption)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	name, _, _ := strings.Cut(strings.TrimPrefix(fields[0], "/"), "@")
	return name
}
