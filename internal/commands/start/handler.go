package start

import (
	"context"
	"strconv"
	"strings"

	"github.com/mosS-Green/plugins/internal/ai"
	"github.com/mosS-Green/plugins/internal/app/di"
	"github.com/mosS-Green/plugins/internal/commands/base"
	"github.com/mosS-Green/plugins/internal/telegram"
)

const CommandName = "start"

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
	text := c.L("start.text", map[string]any{
		"Name":    base.Escape(msg.From.FirstName),
		"UserID":  "<code>" + formatID(msg.From.ID) + "</code>",
		"ChatID":  "<code>" + formatID(msg.Chat.ID) + "</code>",
		"Presets": strings.Join(c.presets.Names(), ", "),
	})

	_, err := c.Reply(ctx, update, text)
	return err
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
