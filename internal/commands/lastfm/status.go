package lastfm

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mosS-Green/plugins/internal/app/di"
	"github.com/mosS-Green/plugins/internal/commands/base"
	"github.com/mosS-Green/plugins/internal/database"
	"github.com/mosS-Green/plugins/internal/logger"
	"github.com/mosS-Green/plugins/internal/service"
	"github.com/mosS-Green/plugins/internal/service/youtube"
	"github.com/mosS-Green/plugins/internal/telegram"
)

const StatusCommandName = "st"

const (
	argRefresh = "refresh:"
	argNoop    = "noop"
)

// StatusCommand shows what the caller is listening to, with a YouTube Music
// link to the track.
type StatusCommand struct {
	*base.Command
	lastfm *service.LastFMClient
	music  *youtube.MusicService
}

func NewStatus(di *di.Container) *StatusCommand {
	cmd := &StatusCommand{
		lastfm: di.LastFM,
		music:  di.Music,
	}
	cmd.Command = base.NewCommand(cmd, di)
	return cmd
}

func (c *StatusCommand) Name() string {
	return StatusCommandName
}

func (c *StatusCommand) Execute(ctx context.Context, update telegram.Update) error {
	msg := update.Message
	sent, err := c.Reply(ctx, update, "<code>...</code>")
	if err != nil {
		return err
	}

	text, keyboard := c.status(ctx, msg.From.ID, msg.From.FirstName)
	return c.Edit(msg.Chat.ID, sent.MessageID, text, keyboard)
}

func (c *StatusCommand) HandleCallback(ctx context.Context, query *telegram.CallbackQuery, args string) error {
	raw, ok := strings.CutPrefix(args, argRefresh)
	if !ok || query.Message == nil {
		return nil
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("bad refresh argument %q: %w", raw, err)
	}

	name := query.From.FirstName
	if user, err := c.DB.GetUser(userID); err == nil {
		name = user.FirstName
	}

	text, keyboard := c.status(ctx, userID, name)
	return c.Edit(query.Message.Chat.ID, query.Message.MessageID, text, keyboard)
}

// status renders the message text and its buttons. Failures are rendered as
// text so the placeholder never stays behind.
func (c *StatusCommand) status(ctx context.Context, userID int64, name string) (string, *telegram.InlineKeyboardMarkup) {
	log := c.Logger.WithField("user_id", userID)
	if !c.lastfm.Enabled() {
		return c.L("lastfm.disabled", nil), nil
	}

	username, err := c.DB.GetLastFMUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return c.L("lastfm.notLinked", nil), nil
	}
	if err != nil {
		log.WithError(err).Error("Failed to load Last.fm user")
		return c.L("error", nil), nil
	}

	scrobble, err := c.lastfm.NowPlaying(ctx, username)
	if errors.Is(err, service.ErrNoScrobbles) {
		return c.L("lastfm.noScrobbles", nil), nil
	}
	if err != nil {
		log.WithError(err).Warn("Failed to fetch Last.fm status")
		return base.Escape(err.Error()), nil
	}

	var link string
	if track, err := c.music.FindTrack(ctx, scrobble.Track+" by "+scrobble.Artist); err != nil {
		log.WithError(err).WithFields(logger.Fields{
			"track":  scrobble.Track,
			"artist": scrobble.Artist,
		}).Warn("Failed to find track on YouTube Music")
	} else {
		link = track.URL
	}

	return sentence(c.Localizer, name, scrobble, link, c.lastfm.Ago(scrobble)), c.keyboard(userID, scrobble.PlayCount, link)
}

func (c *StatusCommand) keyboard(userID int64, playCount int, link string) *telegram.InlineKeyboardMarkup {
	var row []telegram.InlineKeyboardButton
	if link != "" {
		row = append(row, telegram.NewInlineKeyboardButtonURL("♫", link))
	}
	row = append(row,
		telegram.NewInlineKeyboardButtonData(
			c.L("lastfm.plays", map[string]any{"Count": playCount}),
			StatusCommandName+" "+argNoop,
		),
		telegram.NewInlineKeyboardButtonData("↻", StatusCommandName+" "+argRefresh+strconv.FormatInt(userID, 10)),
	)
	keyboard := telegram.NewInlineKeyboardMarkup(row)
	return &keyboard
}

func sentence(l *service.Localizer, name string, s *service.Scrobble, link, ago string) string {
	track := "<b><i>" + base.Escape(s.Track) + "</i></b>"
	if link != "" {
		track = fmt.Sprintf("<b><i><a href=%q>%s</a></i></b>", link, base.Escape(s.Track))
	}
	data := map[string]any{
		"Name":   base.Escape(name),
		"Track":  track,
		"Artist": "<i>" + base.Escape(s.Artist) + "</i>",
	}

	if s.NowPlaying {
		data["Verb"] = "vibing"
		if name == "Leaf" {
			data["Verb"] = "leafing"
		}
		return l.Localize("lastfm.nowPlaying", data)
	}
	data["Ago"] = ago
	return l.Localize("lastfm.lastPlayed", data)
}
