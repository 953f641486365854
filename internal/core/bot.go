package core

import (
	"context"
	"database/sql"
	"errors"
	"slices"
	"strings"

	"github.com/mosS-Green/plugins/internal/commands"
	"github.com/mosS-Green/plugins/internal/commands/base"
	"github.com/mosS-Green/plugins/internal/config"
	"github.com/mosS-Green/plugins/internal/database"
	"github.com/mosS-Green/plugins/internal/logger"
	"github.com/mosS-Green/plugins/internal/queue"
	"github.com/mosS-Green/plugins/internal/service"
	"github.com/mosS-Green/plugins/internal/service/cancel"
	"github.com/mosS-Green/plugins/internal/telegram"
)

type Bot struct {
	commands  map[string]commands.Command
	logger    logger.Logger
	queue     *queue.Queue
	db        database.Database
	tg        telegram.Client
	cfg       *config.Config
	localizer *service.Localizer
	cancel    *cancel.Manager
}

func NewBot(
	tg telegram.Client,
	queue *queue.Queue,
	logger logger.Logger,
	db database.Database,
	cfg *config.Config,
	localizer *service.Localizer,
	cancel *cancel.Manager,
) *Bot {
	return &Bot{
		commands:  make(map[string]commands.Command),
		tg:        tg,
		queue:     queue,
		cfg:       cfg,
		logger:    logger,
		db:        db,
		localizer: localizer,
		cancel:    cancel,
	}
}

func (b *Bot) RegisterCommand(cmd commands.Command) {
	b.commands[cmd.Name()] = cmd
	b.logger.WithFields(logger.Fields{
		"command": cmd.Name(),
		"aliases": cmd.Aliases(),
	}).Info("Command registered")
}

func (b *Bot) Start(ctx context.Context) error {
	b.queue.Start(ctx, b.commands)

	updates := b.tg.GetUpdatesChan(telegram.UpdateConfig{
		Timeout:        60,
		AllowedUpdates: []string{"message", "edited_message", "callback_query"},
	})
	defer b.tg.StopReceivingUpdates()

	b.logger.WithField("username", b.tg.Self().UserName).Info("Bot started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update telegram.Update) {
	if update.CallbackQuery != nil {
		b.handleCallback(ctx, update.CallbackQuery)
		return
	}

	if edited := update.EditedMessage; edited != nil {
		if text := base.Text(edited); text != "" {
			if err := b.db.UpdateMessageText(ctx, edited.Chat.ID, edited.MessageID, text); err != nil {
				b.logger.WithError(err).Error("Failed to update message in database")
			}
		}
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	b.storeUser(msg.From)
	b.storeMessage(ctx, msg)

	if !b.cfg.Telegram().IsAllowed(msg.From.ID, msg.Chat.ID) {
		b.logger.WithFields(logger.Fields{
			"user_id":  msg.From.ID,
			"username": msg.From.UserName,
			"chat_id":  msg.Chat.ID,
		}).Warn("Unauthorized access attempt")
		return
	}

	if msg.ForwardOrigin != nil {
		return
	}

	name := base.CommandOf(msg)
	if name == "" || !b.addressedToUs(msg) {
		return
	}
	cmd := b.findCommand(name)
	if cmd == nil {
		return
	}

	b.logger.WithFields(logger.Fields{
		"command":  name,
		"user_id":  msg.From.ID,
		"username": msg.From.UserName,
		"chat_id":  msg.Chat.ID,
	}).Info("Handling command")

	go func(cmd commands.Command, update telegram.Update) {
		if err := cmd.Handle(ctx, update); err != nil {
			b.logger.WithError(err).WithField("command", name).Error("Failed to handle command")
			b.sendErrorMessage(ctx, msg.Chat.ID, msg.MessageID)
		}
	}(cmd, update)
}

func (b *Bot) findCommand(name string) commands.Command {
	if cmd, ok := b.commands[name]; ok {
		return cmd
	}
	for _, cmd := range b.commands {
		if slices.Contains(cmd.Aliases(), name) {
			return cmd
		}
	}
	return nil
}

// addressedToUs skips "/cmd@otherbot".
func (b *Bot) addressedToUs(msg *telegram.MessageOriginal) bool {
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	_, mention, found := strings.Cut(fields[0], "@")
	return !found || strings.EqualFold(mention, b.tg.Self().UserName)
}

func (b *Bot) handleCallback(ctx context.Context, query *telegram.CallbackQuery) {
	answer := telegram.NewCallback(query.ID, "")
	defer func() {
		if _, err := b.tg.Request(answer); err != nil {
			b.logger.WithError(err).Error("Failed to answer callback query")
		}
	}()

	if query.Message == nil || query.From == nil {
		return
	}
	chatID := query.Message.Chat.ID

	if query.Data == cancel.CallbackData {
		answer.Text = b.cancelRequest(chatID, query.Message.MessageID, query.From.ID)
		return
	}

	name, args, _ := strings.Cut(query.Data, " ")
	cmd, ok := b.commands[name]
	if !ok {
		return
	}
	handler, ok := cmd.(commands.CallbackHandler)
	if !ok {
		return
	}
	if !b.cfg.Telegram().IsAllowed(query.From.ID, chatID) {
		return
	}

	go func() {
		if err := handler.HandleCallback(ctx, query, args); err != nil {
			b.logger.WithError(err).WithField("command", name).Error("Failed to handle callback")
			b.sendErrorMessage(ctx, chatID, query.Message.MessageID)
		}
	}()
}

// cancelRequest stops the request attached to a status message. Only the
// requester or an admin may cancel.
func (b *Bot) cancelRequest(chatID int64, messageID int, requesterID int64) string {
	info := b.cancel.GetActiveRequest(chatID, messageID)
	if info == nil {
		return b.localizer.Localize("ask.cancelGone", nil)
	}

	force := b.cfg.Telegram().IsAdmin(requesterID)
	if !b.cancel.Cancel(chatID, messageID, requesterID, force) {
		return b.localizer.Localize("ask.cancelDenied", nil)
	}

	b.logger.WithFields(logger.Fields{
		"chat_id":      chatID,
		"message_id":   messageID,
		"requester_id": requesterID,
		"owner_id":     info.OwnerID,
		"command":      info.Command,
	}).Info("Request cancelled")
	return b.localizer.Localize("ask.cancelled", nil)
}

func (b *Bot) storeUser(from *telegram.UserOriginal) {
	user := database.User{
		ID:        from.ID,
		FirstName: from.FirstName,
		Username:  from.UserName,
	}

	stored, err := b.db.GetUser(from.ID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		b.logger.WithField("user_id", user.ID).Info("Store new user")
		err = b.db.SaveUser(user)
	case err != nil:
		b.logger.WithError(err).Error("Error get user by id")
		return
	case !user.Equal(*stored):
		user.PublicID = stored.PublicID
		err = b.db.SaveUser(user)
	}
	if err != nil {
		b.logger.WithError(err).WithField("user_id", user.ID).Error("Error save user")
	}
}

// storeMessage keeps chat text for summaries. Commands are not stored.
func (b *Bot) storeMessage(ctx context.Context, msg *telegram.MessageOriginal) {
	text := base.Text(msg)
	if text == "" || base.CommandOf(msg) != "" {
		return
	}

	author := msg.From.FirstName
	if author == "" {
		author = msg.From.UserName
	}
	if err := b.db.SaveMessage(ctx, database.Message{
		ChatID:    msg.Chat.ID,
		MessageID: msg.MessageID,
		UserID:    msg.From.ID,
		Author:    author,
		Text:      text,
	}); err != nil {
		b.logger.WithError(err).Error("Failed to save message to database")
		return
	}
	b.logger.WithFields(logger.Fields{
		"chat_id": msg.Chat.ID,
		"message": msg.MessageID,
	}).Trace("Saved message to database")
}

func (b *Bot) sendErrorMessage(ctx context.Context, chatID int64, replyTo int) {
	msg := telegram.NewMessage(chatID, b.localizer.Localize("error", nil), replyTo)
	if _, err := b.tg.SendWithRetry(ctx, msg, 1); err != nil {
		b.logger.WithError(err).Error("Failed to send error message")
	}
}
