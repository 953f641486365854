package base

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/mosS-Green/plugins/internal/ai"
	"github.com/mosS-Green/plugins/internal/markdown"
	"github.com/mosS-Green/plugins/internal/service/cancel"
	"github.com/mosS-Green/plugins/internal/telegram"
)

// RenderAnswer converts a model answer into HTML pages that each fit limit.
// A quoted answer keeps its expandable quote on every page.
func RenderAnswer(text string, limit int) []string {
	html := markdown.ToHTML(text)
	if utf8.RuneCountInString(html) <= limit {
		return []string{html}
	}

	trimmed := strings.TrimSpace(text)
	quoted := ai.IsQuoted(trimmed)
	if quoted {
		trimmed = strings.TrimSuffix(strings.TrimPrefix(trimmed, ai.QuoteOpen), ai.QuoteClose)
	}

	// markup grows the text, leave room for it
	chunks := markdown.Chunks(trimmed, limit*3/4)
	pages := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if quoted {
			chunk = ai.QuoteOpen + chunk + ai.QuoteClose
		}
		pages = append(pages, markdown.ToHTML(chunk))
	}
	return pages
}

// Deliver replaces the status message with the answer. Extra pages and
// generated images are sent as new replies to replyTo.
func (c *Command) Deliver(ctx context.Context, chatID int64, statusID, replyTo int, answer *ai.AnswerResult) error {
	if answer.HasImage() {
		return c.deliverImage(ctx, chatID, statusID, replyTo, answer)
	}

	pages := RenderAnswer(answer.Text, telegram.MaxMessageLength)
	if err := c.Edit(chatID, statusID, pages[0], nil); err != nil {
		return err
	}
	return c.sendPages(ctx, chatID, replyTo, pages[1:])
}

func (c *Command) deliverImage(ctx context.Context, chatID int64, statusID, replyTo int, answer *ai.AnswerResult) error {
	var caption string
	var pages []string
	if answer.Text != "" {
		pages = RenderAnswer(answer.Text, telegram.MaxCaptionLength)
		if len(pages) == 1 {
			caption, pages = pages[0], nil
		} else {
			pages = RenderAnswer(answer.Text, telegram.MaxMessageLength)
		}
	}

	photo := telegram.NewPhotoMessage(chatID, telegram.FileBytes{
		Name:  "image" + imageExtension(answer.ImageMIMEType),
		Bytes: answer.Image,
	}, caption, replyTo)
	photo.ParseMode = telegram.ModeHTML
	_ = c.Tg.SendChatAction(chatID, telegram.ActionUploadPhoto)
	if _, err := c.Tg.SendWithRetry(ctx, photo, 1); err != nil {
		return err
	}
	if err := c.Tg.DeleteMessage(chatID, statusID); err != nil {
		c.Logger.WithError(err).Warn("Failed to delete status message")
	}
	return c.sendPages(ctx, chatID, replyTo, pages)
}

func (c *Command) sendPages(ctx context.Context, chatID int64, replyTo int, pages []string) error {
	for _, page := range pages {
		if _, err := c.Tg.SendWithRetry(ctx, telegram.NewHTMLMessage(chatID, page, replyTo), 1); err != nil {
			return err
		}
	}
	return nil
}

func imageExtension(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}

// ErrorText maps a failed request to the message shown in chat.
func (c *Command) ErrorText(err error) string {
	var aiErr *ai.AIError
	if !errors.As(err, &aiErr) {
		if errors.Is(err, context.DeadlineExceeded) {
			return c.L("ask.timeout", nil)
		}
		return c.L("ask.failed", nil)
	}

	switch aiErr.Type {
	case ai.ErrorTypeMediaTooLarge:
		return c.L("ask.mediaTooLarge", nil)
	case ai.ErrorTypeBlocked:
		return Escape(c.L("ask.blocked", map[string]any{"Reason": aiErr.Message}))
	case ai.ErrorTypeProcessingTimeout:
		return c.L("ask.timeout", nil)
	case ai.ErrorTypeBackendUnavailable:
		return c.L("ask.busy", nil)
	default:
		return c.L("ask.failed", nil)
	}
}

// SendStatus posts the placeholder shown while a model request runs, with a
// button that cancels it.
func (c *Command) SendStatus(ctx context.Context, chatID int64, replyTo int) (*telegram.Message, error) {
	keyboard := telegram.NewInlineKeyboardMarkup(telegram.NewInlineKeyboardRow(
		telegram.NewInlineKeyboardButtonData(c.L("ask.cancelButton", nil), cancel.CallbackData),
	))
	status := telegram.NewHTMLMessage(chatID, "<code>"+c.L("ask.thinking", nil)+"</code>", replyTo)
	status.ReplyMarkup = &keyboard
	return c.Tg.SendWithRetry(ctx, status, 1)
}
