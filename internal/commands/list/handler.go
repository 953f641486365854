package list

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mosS-Green/plugins/internal/app/di"
	"github.com/mosS-Green/plugins/internal/commands/base"
	"github.com/mosS-Green/plugins/internal/database"
	"github.com/mosS-Green/plugins/internal/service"
	"github.com/mosS-Green/plugins/internal/telegram"
)

const CommandName = "lr"

type Command struct {
	*base.Command
	now func() time.Time
}

func New(di *di.Container) *Command {
	cmd := &Command{now: time.Now}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *Command) Name() string {
	return CommandName
}

// Execute adds the input (or the replied text) to the caller's list, removes
// an item when the input is a number, and shows the list otherwise.
func (c *Command) Execute(ctx context.Context, update telegram.Update) error {
	msg := update.Message
	userID := msg.From.ID

	input := base.Input(msg)
	if input == "" {
		input = strings.TrimSpace(base.Text(msg.ReplyToMessage))
	}

	if position, err := strconv.Atoi(input); err == nil {
		item, err := c.DB.RemoveListItem(ctx, userID, position)
		if errors.Is(err, database.ErrNotFound) {
			_, err = c.Reply(ctx, update, c.L("list.invalid", nil))
			return err
		}
		if err != nil {
			return err
		}
		_, err = c.Reply(ctx, update, c.L("list.removed", map[string]any{
			"Position": position,
			"Text":     base.Escape(item.Text),
		}))
		return err
	}

	if input != "" {
		item := database.ListItem{UserID: userID, Text: input}
		if reply := msg.ReplyToMessage; reply != nil && msg.Chat.Type != "private" {
			item.Link = telegram.MessageLink(telegram.AdaptMessage(reply).Chat, reply.MessageID)
		}
		if _, err := c.DB.AddListItem(ctx, item); err != nil {
			return err
		}
		_, err := c.Reply(ctx, update, c.L("list.added", map[string]any{"Text": base.Escape(input)}))
		return err
	}

	items, err := c.DB.ListItems(ctx, userID)
	if err != nil {
		return err
	}
	if len(items) == 0 {
		_, err = c.Reply(ctx, update, c.L("list.empty", nil))
		return err
	}
	_, err = c.Reply(ctx, update, c.L("list.header", nil)+"\n"+renderItems(items, c.now()))
	return err
}

func renderItems(items []database.ListItem, now time.Time) string {
	lines := make([]string, 0, len(items))
	for i, item := range items {
		text := base.Escape(item.Text)
		if item.Link != "" {
			text = fmt.Sprintf("<a href=%q>%s</a>", item.Link, text)
		}
		ago := service.FormatAgo(now.Sub(item.CreatedAt))
		lines = append(lines, fmt.Sprintf("%d. %s <i>(%s)</i>", i+1, text, ago))
	}
	return strings.Join(lines, "\n")
}
