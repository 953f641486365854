package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mosS-Green/plugins/internal/ai"
	"github.com/mosS-Green/plugins/internal/service/youtube"
)

func (t *Tools) ytmLink(ctx context.Context, args map[string]any) (string, error) {
	song := ai.StringArg(args, "song_name")
	track, err := t.music.FindTrack(ctx, song)
	if errors.Is(err, youtube.ErrNoTrackFound) {
		return fmt.Sprintf("No YouTube Music result for %q.", song), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s: %s", track.Title, track.URL), nil
}
