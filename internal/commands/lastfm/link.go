package lastfm

import (
	"context"
	"strings"

	"github.com/mosS-Green/plugins/internal/app/di"
	"github.com/mosS-Green/plugins/internal/commands/base"
	"github.com/mosS-Green/plugins/internal/telegram"
)

const LinkCommandName = "fren"

// LinkCommand stores the Last.fm username of the caller.
type LinkCommand struct {
	*base.Command
}

func NewLink(di *di.Container) *LinkCommand {
	cmd := &LinkCommand{}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *LinkCommand) Name() string {
	return LinkCommandName
}

func (c *LinkCommand) Execute(ctx context.Context, update telegram.Update) error {
	msg := update.Message
	username := strings.TrimPrefix(strings.TrimSpace(base.Input(msg)), "@")
	if username == "" || strings.ContainsAny(username, " \n") {
		_, err := c.Reply(ctx, update, c.L("lastfm.usage", nil))
		return err
	}

	if err := c.DB.SetLastFMUser(ctx, msg.From.ID, username); err != nil {
		return err
	}
	c.Logger.WithField("user_id", msg.From.ID).Info("Linked Last.fm user")

	_, err := c.Reply(ctx, update, c.L("lastfm.linked", map[string]any{"Username": base.Escape(username)}))
	return err
}
