package summary

import (
	"context"

	"github.com/mosS-Green/plugins/internal/ai"
	"github.com/mosS-Green/plugins/internal/app/di"
	"github.com/mosS-Green/plugins/internal/commands/base"
	"github.com/mosS-Green/plugins/internal/database"
	"github.com/mosS-Green/plugins/internal/logger"
	"github.com/mosS-Green/plugins/internal/service/cancel"
	"github.com/mosS-Green/plugins/internal/telegram"
)

const (
	CommandName = "sm"

	preset             = "default"
	defaultInstruction = "Summarize the following group chat, ensure to detail each thread of conversation:"
	maxMessages        = 500
)

type Command struct {
	*base.Command
	orchestrator *ai.Orchestrator
	presets      *ai.ConfigStore
	cancel       *cancel.Manager
}

func New(di *di.Container) *Command {
	cmd := &Command{
		orchestrator: di.Orchestrator,
		presets:      di.Presets,
		cancel:       di.Cancel,
	}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *Command) Name() string {
	return CommandName
}

func (c *Command) Execute(ctx context.Context, update telegram.Update) error {
	msg := update.Message
	chatID := msg.Chat.ID
	if msg.ReplyToMessage == nil {
		_, err := c.Reply(ctx, update, c.L("summary.noReply", nil))
		return err
	}

	messages, err := c.DB.GetMessagesFrom(ctx, chatID, msg.ReplyToMessage.MessageID, maxMessages)
	if err != nil {
		return err
	}
	transcript := buildTranscript(messages, msg.MessageID)
	if transcript.Empty() {
		_, err := c.Reply(ctx, update, c.L("summary.empty", nil))
		return err
	}

	cfg, _, err := c.presets.Get(preset)
	if err != nil {
		return err
	}

	instruction := base.Input(msg)
	if instruction == "" {
		instruction = defaultInstruction
	}

	sent, err := c.SendStatus(ctx, chatID, msg.MessageID)
	if err != nil {
		return err
	}
	reqCtx, done := c.cancel.Register(ctx, chatID, sent.MessageID, msg.From.ID, CommandName)
	defer done()

	c.Logger.WithFields(logger.Fields{
		"chat_id":  chatID,
		"messages": len(transcript.Lines),
	}).Debug("Summarizing chat")

	answer, err := c.orchestrator.Ask(reqCtx, ai.AskRequest{
		Instruction: instruction,
		Context:     transcript,
		Config:      cfg,
		Caller: ai.Caller{
			UserID:    msg.From.ID,
			ChatID:    chatID,
			FirstName: msg.From.FirstName,
			Username:  msg.From.UserName,
		},
	})
	if err != nil {
		if cancel.CancelledByUser(reqCtx) {
			_ = c.Edit(chatID, sent.MessageID, c.L("ask.cancelled", nil), nil)
			return nil
		}
		_ = c.Edit(chatID, sent.MessageID, c.ErrorText(err), nil)
		return err
	}
	return c.Deliver(ctx, chatID, sent.MessageID, msg.MessageID, answer)
}

// buildTranscript keeps the text messages sent before the command itself.
func buildTranscript(messages []database.Message, commandID int) ai.Transcript {
	var t ai.Transcript
	for _, m := range messages {
		if m.MessageID >= commandID || m.Text == "" {
			continue
		}
		author := m.Author
		if author == "" {
			author = "Unknown"
		}
		t.Lines = append(t.Lines, ai.TranscriptLine{Author: author, Text: m.Text})
	}
	return t
}
