package prompt

import (
	"context"
	"errors"
	"strings"

	"github.com/mosS-Green/plugins/internal/ai"
	"github.com/mosS-Green/plugins/internal/app/di"
	"github.com/mosS-Green/plugins/internal/commands/base"
	"github.com/mosS-Green/plugins/internal/logger"
	"github.com/mosS-Green/plugins/internal/telegram"
)

const CommandName = "sp"

// Command replaces the system instruction of a preset. Requests that already
// started keep the instruction they were created with.
type Command struct {
	*base.Command
	presets *ai.ConfigStore
}

func New(di *di.Container) *Command {
	cmd := &Command{presets: di.Presets}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *Command) Name() string {
	return CommandName
}

func (c *Command) Execute(ctx context.Context, update telegram.Update) error {
	msg := update.Message
	if !c.Cfg.Telegram().IsAdmin(msg.From.ID) {
		_, err := c.Reply(ctx, update, c.L("prompt.notAdmin", nil))
		return err
	}

	preset, instruction := parseInput(base.Input(msg), base.Text(msg.ReplyToMessage))
	if preset == "" || instruction == "" {
		_, err := c.Reply(ctx, update, c.L("prompt.usage", nil))
		return err
	}

	version, err := c.presets.SetSystemInstruction(ctx, preset, instruction)
	if errors.Is(err, ai.ErrPresetNotFound) {
		_, err = c.Reply(ctx, update, c.L("prompt.unknownPreset", map[string]any{
			"Preset":  base.Escape(preset),
			"Presets": strings.Join(c.presets.Names(), ", "),
		}))
		return err
	}
	if err != nil {
		return err
	}

	c.Logger.WithFields(logger.Fields{
		"preset":  preset,
		"version": version,
		"user_id": msg.From.ID,
	}).Info("System prompt updated")

	_, err = c.Reply(ctx, update, c.L("prompt.updated", map[string]any{"Preset": strings.ToUpper(preset)}))
	return err
}

// parseInput reads "<PRESET> <instruction>". Without an inline instruction
// the replied text is used.
func parseInput(input, replyText string) (string, string) {
	preset, instruction, _ := strings.Cut(strings.TrimSpace(input), " ")
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		instruction = strings.TrimSpace(replyText)
	}
	return preset, instruction
}
