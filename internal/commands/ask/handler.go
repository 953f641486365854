package ask

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mosS-Green/plugins/internal/ai"
	"github.com/mosS-Green/plugins/internal/app/di"
	"github.com/mosS-Green/plugins/internal/commands/base"
	"github.com/mosS-Green/plugins/internal/logger"
	"github.com/mosS-Green/plugins/internal/service/cancel"
	"github.com/mosS-Green/plugins/internal/telegram"
)

const CommandName = "r"

const fixInstruction = "REWRITE FOLLOWING MESSAGE AS IS, WITH NO CHANGES TO FORMAT AND SYMBOLS ETC.AND ONLY WITH CORRECTION TO SPELLING ERRORS :- \n"

// variant is what one alias of the command changes about a request.
type variant struct {
	preset    string
	quote     bool
	citations bool
	// named prefixes the prompt and the replied text with author names
	named bool
	// fix asks for a spelling correction of the replied text
	fix bool
}

var variants = map[string]variant{
	"r":  {preset: "default", quote: true, citations: true},
	"rx": {preset: "leaf", quote: true, named: true},
	"rt": {preset: "think"},
	"rf": {preset: "func", quote: true},
	"f":  {preset: "quick", fix: true},
}

type Command struct {
	*base.Command
	orchestrator *ai.Orchestrator
	presets      *ai.ConfigStore
	cancel       *cancel.Manager
	httpClient   *http.Client
}

func New(di *di.Container) *Command {
	cmd := &Command{
		orchestrator: di.Orchestrator,
		presets:      di.Presets,
		cancel:       di.Cancel,
		httpClient:   di.HttpClient,
	}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *Command) Name() string {
	return CommandName
}

func (c *Command) Aliases() []string {
	return []string{"rx", "rt", "rf", "f"}
}

func variantFor(command string) variant {
	if v, ok := variants[command]; ok {
		return v
	}
	return variants[CommandName]
}

func (c *Command) Execute(ctx context.Context, update telegram.Update) error {
	msg := update.Message
	chatID := msg.Chat.ID
	v := variantFor(base.CommandOf(msg))
	log := c.Logger.WithFields(logger.Fields{
		"command": base.CommandOf(msg),
		"preset":  v.preset,
		"chat_id": chatID,
	})

	var media ai.MediaReference
	if !v.fix {
		if ref, ok := telegram.MediaFromMessage(msg, c.Tg, c.httpClient); ok {
			media = ref
		} else if ref, ok := telegram.MediaFromMessage(msg.ReplyToMessage, c.Tg, c.httpClient); ok {
			media = ref
		}
	}

	instruction, pctx := buildPrompt(v, msg, media != nil)
	if instruction == "" && pctx == nil && media == nil {
		_, err := c.Reply(ctx, update, c.L("ask.emptyPrompt", nil))
		return err
	}

	cfg, _, err := c.presets.Get(v.preset)
	if err != nil {
		log.WithError(err).Error("Preset is not configured")
		_, sendErr := c.Reply(ctx, update, c.L("ask.failed", nil))
		return sendErr
	}

	replyTo := msg.MessageID
	if v.fix && msg.ReplyToMessage != nil {
		replyTo = msg.ReplyToMessage.MessageID
	}

	sent, err := c.SendStatus(ctx, chatID, replyTo)
	if err != nil {
		return err
	}

	reqCtx, done := c.cancel.Register(ctx, chatID, sent.MessageID, msg.From.ID, base.CommandOf(msg))
	defer done()
	_ = c.Tg.SendChatAction(chatID, chatActionFor(cfg))

	answer, err := c.orchestrator.Ask(reqCtx, ai.AskRequest{
		Instruction:  instruction,
		Context:      pctx,
		Media:        media,
		Config:       cfg,
		Quote:        v.quote,
		AddCitations: v.citations,
		Caller: ai.Caller{
			UserID:    msg.From.ID,
			ChatID:    chatID,
			FirstName: msg.From.FirstName,
			Username:  msg.From.UserName,
		},
	})
	if err != nil {
		if cancel.CancelledByUser(reqCtx) {
			log.Info("Request cancelled by user")
			_ = c.Edit(chatID, sent.MessageID, c.L("ask.cancelled", nil), nil)
			return nil
		}
		log.WithError(err).Error("Ask failed")
		_ = c.Edit(chatID, sent.MessageID, c.ErrorText(err), nil)
		return err
	}

	return c.Deliver(ctx, chatID, sent.MessageID, replyTo, answer)
}

// chatActionFor shows an upload indicator for presets that may answer with an image.
func chatActionFor(cfg ai.ModelConfig) telegram.ChatAction {
	if cfg.WantsImage() {
		return telegram.ActionUploadPhoto
	}
	return telegram.ActionTyping
}

// buildPrompt derives the instruction and the optional context from the
// command message and the message it replies to.
func buildPrompt(v variant, msg *telegram.MessageOriginal, hasMedia bool) (string, ai.PromptContext) {
	input := base.Input(msg)
	reply := msg.ReplyToMessage
	replyText := base.Text(reply)

	if v.fix {
		if replyText == "" {
			return "", nil
		}
		return fixInstruction + replyText, nil
	}

	if input == "" {
		return replyText, nil
	}

	if v.named {
		instruction := fmt.Sprintf("[%s]:- %s", base.FirstName(msg), input)
		if replyText != "" && !hasMedia {
			return instruction, ai.TextContext(fmt.Sprintf("[%s]:- %s", base.FirstName(reply), replyText))
		}
		return instruction, nil
	}

	if replyText != "" {
		return input, ai.TextContext(replyText)
	}
	return input, nil
}
