package telegram

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"

	"github.com/mosS-Green/plugins/internal/logger"
)

var retryAfterRe = regexp.MustCompile(`retry after (\d+)`)

type BotClient struct {
	bot    *tgbotapi.BotAPI
	logger logger.Logger
}

func NewBotClient(bot *tgbotapi.BotAPI, l logger.Logger) Client {
	return &BotClient{
		bot:    bot,
		logger: l,
	}
}

func (c *BotClient) Send(msg MessageConfig) (*Message, error) {
	sentMsg, err := c.bot.Send(msg.ToChattable())
	if err != nil {
		return nil, err
	}
	return adaptMessage(&sentMsg), nil
}

// SendWithRetry resends after Telegram flood-wait errors, at most
// maxRetryCount times.
func (c *BotClient) SendWithRetry(ctx context.Context, msg MessageConfig, maxRetryCount int) (*Message, error) {
	maxRetries := max(maxRetryCount, 1)

	for attempt := 1; ; attempt++ {
		sentMsg, err := c.bot.Send(msg.ToChattable())
		if err == nil {
			return adaptMessage(&sentMsg), nil
		}
		if !strings.Contains(err.Error(), "Too Many Requests: retry after") || attempt > maxRetries {
			return nil, err
		}

		retryAfter := extractRetryAfter(err.Error())
		waitTime := time.Duration(retryAfter+2) * time.Second
		c.logger.WithFields(logger.Fields{
			"retry_after": retryAfter,
			"wait_time":   waitTime,
			"attempt":     attempt,
		}).Warn("Rate limit hit, waiting before retry")

		timer := time.NewTimer(waitTime)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *BotClient) GetFileURL(fileID string) (string, error) {
	file, err := c.bot.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return "", err
	}
	return file.Link(c.bot.Token), nil
}

func (c *BotClient) GetUpdatesChan(config UpdateConfig) <-chan Update {
	tgConfig := tgbotapi.UpdateConfig{
		Offset:         config.Offset,
		Limit:          config.Limit,
		Timeout:        config.Timeout,
		AllowedUpdates: config.AllowedUpdates,
	}
	return c.bot.GetUpdatesChan(tgConfig)
}

func (c *BotClient) StopReceivingUpdates() {
	c.bot.StopReceivingUpdates()
}

func (c *BotClient) Request(message MessageConfig) (*tgbotapi.APIResponse, error) {
	return c.bot.Request(message.ToChattable())
}

func (c *BotClient) SendChatAction(chatID int64, action ChatAction) error {
	_, err := c.bot.Request(tgbotapi.NewChatAction(chatID, string(action)))
	return err
}

func (c *BotClient) DeleteMessage(chatID int64, messageID int) error {
	_, err := c.bot.Request(tgbotapi.NewDeleteMessage(chatID, messageID))
	return err
}

func (c *BotClient) Self() User {
	return adaptUser(&c.bot.Self)
}

// MessageLink builds a t.me link; private supergroups use the /c/ form
// without the -100 prefix.
func MessageLink(chat Chat, messageID int) string {
	if chat.UserName != "" {
		return fmt.Sprintf("https://t.me/%s/%d", chat.UserName, messageID)
	}
	id := strconv.FormatInt(chat.ID, 10)
	id = strings.TrimPrefix(id, "-100")
	id = strings.TrimPrefix(id, "-")
	return fmt.Sprintf("https://t.me/c/%s/%d", id, messageID)
}

func extractRetryAfter(errMsg string) int {
	matches := retryAfterRe.FindStringSubmatch(errMsg)
	if len(matches) > 1 {
		retryAfter, _ := strconv.Atoi(matches[1])
		return retryAfter
	}
	return 0
}

func adaptMessage(msg *tgbotapi.Message) *Message {
	if msg == nil {
		return nil
	}

	return &Message{
		MessageID: msg.MessageID,
		Chat:      adaptChat(&msg.Chat),
		Text:      msg.Text,
		Caption:   msg.Caption,
		From:      adaptUser(msg.From),
		ReplyTo:   adaptMessage(msg.ReplyToMessage),
		Command:   msg.Command(),
	}
}

// AdaptMessage converts a raw update message into the package's view of it.
func AdaptMessage(msg *MessageOriginal) *Message {
	return adaptMessage(msg)
}

func adaptUser(user *tgbotapi.User) User {
	if user == nil {
		return User{}
	}
	return User{
		ID:        int64(user.ID),
		FirstName: user.FirstName,
		UserName:  user.UserName,
		IsBot:     user.IsBot,
	}
}

func adaptChat(chat *tgbotapi.Chat) Chat {
	if chat == nil {
		return Chat{}
	}
	return Chat{
		ID:       chat.ID,
		Type:     chat.Type,
		UserName: chat.UserName,
	}
}
