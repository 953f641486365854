package telegram

import (
	"context"

	tgbotapi "github.com/OvyFlash/telegram-bot-api"
)

type ParseMode = string

const (
	ModeHTML = "HTML"

	// MaxMessageLength is the Bot API limit for a text message.
	MaxMessageLength = 4096
	// MaxCaptionLength is the Bot API limit for a media caption.
	MaxCaptionLength = 1024
)

type (
	MessageOriginal = tgbotapi.Message
	UserOriginal    = tgbotapi.User
	Update          = tgbotapi.Update
	CallbackQuery   = tgbotapi.CallbackQuery
	FileBytes       = tgbotapi.FileBytes
	RequestFileData = tgbotapi.RequestFileData

	InlineKeyboardMarkup = tgbotapi.InlineKeyboardMarkup
	InlineKeyboardButton = tgbotapi.InlineKeyboardButton
)

func NewInlineKeyboardMarkup(rows ...[]InlineKeyboardButton) InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func NewInlineKeyboardRow(buttons ...InlineKeyboardButton) []InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(buttons...)
}

func NewInlineKeyboardButtonData(text, data string) InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func NewInlineKeyboardButtonURL(text, url string) InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonURL(text, url)
}

type Message struct {
	MessageID int
	Chat      Chat
	Text      string
	Caption   string
	From      User
	ReplyTo   *Message
	Command   string
}

type User struct {
	ID        int64
	FirstName string
	UserName  string
	IsBot     bool
}

type Chat struct {
	ID       int64
	Type     string
	UserName string
}

type MessageConfig interface {
	ToChattable() tgbotapi.Chattable
}

type CallbackConfig struct {
	CallbackQueryID string
	Text            string
	ShowAlert       bool
	CacheTime       int
}

func NewCallback(id, text string) CallbackConfig {
	return CallbackConfig{
		CallbackQueryID: id,
		Text:            text,
	}
}

func (c CallbackConfig) ToChattable() tgbotapi.Chattable {
	config := tgbotapi.NewCallback(c.CallbackQueryID, c.Text)
	config.CacheTime = c.CacheTime
	config.ShowAlert = c.ShowAlert
	return config
}

type TextMessage struct {
	ChatID              int64
	Text                string
	ReplyTo             int
	ReplyMarkup         *InlineKeyboardMarkup
	LinkPreviewDisabled bool
	ParseMode           ParseMode
}

func NewMessage(chatID int64, text string, replyTo int) TextMessage {
	return TextMessage{
		ChatID:  chatID,
		Text:    text,
		ReplyTo: replyTo,
	}
}

// NewHTMLMessage is a reply rendered with the HTML parse mode.
func NewHTMLMessage(chatID int64, text string, replyTo int) TextMessage {
	msg := NewMessage(chatID, text, replyTo)
	msg.ParseMode = ModeHTML
	msg.LinkPreviewDisabled = true
	return msg
}

func (m TextMessage) ToChattable() tgbotapi.Chattable {
	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyParameters.MessageID = m.ReplyTo
	msg.ReplyParameters.AllowSendingWithoutReply = true
	msg.ParseMode = m.ParseMode
	if m.ReplyMarkup != nil {
		msg.ReplyMarkup = m.ReplyMarkup
	}
	msg.LinkPreviewOptions.IsDisabled = m.LinkPreviewDisabled
	return msg
}

type PhotoMessage struct {
	ChatID      int64
	Photo       RequestFileData
	Caption     string
	ReplyTo     int
	ParseMode   ParseMode
	ReplyMarkup *InlineKeyboardMarkup
}

func NewPhotoMessage(chatID int64, photo RequestFileData, caption string, replyTo int) PhotoMessage {
	return PhotoMessage{
		ChatID:  chatID,
		Photo:   photo,
		Caption: caption,
		ReplyTo: replyTo,
	}
}

func (m PhotoMessage) ToChattable() tgbotapi.Chattable {
	msg := tgbotapi.NewPhoto(m.ChatID, m.Photo)
	msg.Caption = m.Caption
	msg.ReplyParameters.MessageID = m.ReplyTo
	msg.ReplyParameters.AllowSendingWithoutReply = true
	msg.ParseMode = m.ParseMode
	if m.ReplyMarkup != nil {
		msg.ReplyMarkup = m.ReplyMarkup
	}
	return msg
}

type EditMessageTextConfig struct {
	ChatID              int64
	MessageID           int
	Text                string
	ParseMode           ParseMode
	ReplyMarkup         *InlineKeyboardMarkup
	LinkPreviewDisabled bool
}

func NewEditMessageText(chatID int64, messageID int, text string) EditMessageTextConfig {
	return EditMessageTextConfig{
		ChatID:    chatID,
		MessageID: messageID,
		Text:      text,
	}
}

// NewEditMessageHTML edits a message into HTML text and drops its keyboard.
func NewEditMessageHTML(chatID int64, messageID int, text string) EditMessageTextConfig {
	msg := NewEditMessageText(chatID, messageID, text)
	msg.ParseMode = ModeHTML
	msg.LinkPreviewDisabled = true
	return msg
}

func (m EditMessageTextConfig) ToChattable() tgbotapi.Chattable {
	msg := tgbotapi.NewEditMessageText(m.ChatID, m.MessageID, m.Text)
	msg.LinkPreviewOptions.IsDisabled = m.LinkPreviewDisabled
	msg.ParseMode = m.ParseMode
	msg.ReplyMarkup = m.ReplyMarkup
	return msg
}

type UpdateConfig struct {
	Offset         int
	Limit          int
	Timeout        int
	AllowedUpdates []string
}

type ChatAction string

const (
	ActionTyping      ChatAction = "typing"
	ActionUploadPhoto ChatAction = "upload_photo"
)

type Client interface {
	Send(msg MessageConfig) (*Message, error)
	SendWithRetry(ctx context.Context, msg MessageConfig, maxRetryCount int) (*Message, error)
	DeleteMessage(chatID int64, messageID int) error
	GetFileURL(fileID string) (string, error)
	GetUpdatesChan(config UpdateConfig) <-chan Update
	StopReceivingUpdates()
	Request(message MessageConfig) (*tgbotapi.APIResponse, error)
	SendChatAction(chatID int64, action ChatAction) error
	Self() User
}
