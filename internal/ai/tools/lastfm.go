package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mosS-Green/plugins/internal/ai"
	"github.com/mosS-Green/plugins/internal/database"
	"github.com/mosS-Green/plugins/internal/service"
)

const lastFMNotLinked = "User is not logged in to Last.fm (not a 'fren'). Use /fren to login."

func (t *Tools) lastFMStatus(ctx context.Context, args map[string]any) (string, error) {
	userID, err := ai.Int64Arg(args, ai.CallerIdentityParam)
	if err != nil {
		return "", err
	}
	username, err := t.store.GetLastFMUser(ctx, userID)
	if errors.Is(err, database.ErrNotFound) {
		return lastFMNotLinked, nil
	}
	if err != nil {
		return "", err
	}

	name := "User"
	if user, err := t.store.GetUser(userID); err == nil && user.FirstName != "" {
		name = user.FirstName
	}

	scrobble, err := t.lastfm.NowPlaying(ctx, username)
	if errors.Is(err, service.ErrNoScrobbles) {
		return name + " has no recent tracks on Last.fm.", nil
	}
	if err != nil {
		return fmt.Sprintf("Error fetching Last.fm status: %v", err), nil
	}
	return t.lastfm.StatusLine(name, scrobble), nil
}
