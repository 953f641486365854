package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/lrstanley/go-ytdlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mosS-Green/plugins/internal/cache"
	"github.com/mosS-Green/plugins/internal/logger"
)

func searchResult(lines ...string) *ytdlp.Result {
	result := &ytdlp.Result{}
	for _, line := range lines {
		raw := json.RawMessage(line)
		result.OutputLogs = append(result.OutputLogs, &ytdlp.ResultLog{
			Timestamp: time.Now(),
			Line:      line,
			JSON:      &raw,
			Pipe:      "stdout",
		})
	}
	return result
}

func newTestMusicService(t *testing.T, extractor ContentExtractor) *MusicService {
	return NewMusicService(extractor, cache.NewMemoryCache(), Config{Proxy: "socks5://127.0.0.1:1080"}, logger.NewTestLogger())
}

func TestMusicService_FindTrack(t *testing.T) {
	t.Run("builds music link and caches it", func(t *testing.T) {
		extractor := NewMockContentExtractor(t)
		extractor.EXPECT().Extract(mock.Anything, "ytsearch1:daft punk one more time", FetchOptions{
			SkipDownload: true,
			PrintJSON:    true,
			NoPlaylist:   true,
			FlatPlaylist: true,
			Proxy:        "socks5://127.0.0.1:1080",
		}).Return(searchResult(`{"_type":"video","id":"FGBhQbmPwH8","title":"One More Time"}`), nil).Once()

		svc := newTestMusicService(t, extractor)

		for range 2 {
			track, err := svc.FindTrack(context.Background(), "  Daft Punk   One More Time ")
			require.NoError(t, err)
			assert.Equal(t, "FGBhQbmPwH8", track.ID)
			assert.Equal(t, "One More Time", track.Title)
			assert.Equal(t, "https://music.youtube.com/watch?v=FGBhQbmPwH8", track.URL)
		}
	})

	t.Run("empty query", func(t *testing.T) {
		svc := newTestMusicService(t, NewMockContentExtractor(t))
		_, err := svc.FindTrack(context.Background(), "   ")
		assert.ErrorIs(t, err, ErrEmptyQuery)
	})

	t.Run("no results", func(t *testing.T) {
		extractor := NewMockContentExtractor(t)
		extractor.EXPECT().Extract(mock.Anything, mock.Anything, mock.Anything).
			Return(searchResult(), nil).Once()

		svc := newTestMusicService(t, extractor)
		_, err := svc.FindTrack(context.Background(), "nothing")
		assert.ErrorIs(t, err, ErrNoTrackFound)
	})

	t.Run("extractor failure is not cached", func(t *testing.T) {
		extractor := NewMockContentExtractor(t)
		extractor.EXPECT().Extract(mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("yt-dlp missing")).Twice()

		svc := newTestMusicService(t, extractor)
		for range 2 {
			_, err := svc.FindTrack(context.Background(), "song")
			assert.ErrorContains(t, err, "yt-dlp missing")
		}
	})

	t.Run("search is bounded by timeout", func(t *testing.T) {
		extractor := NewMockContentExtractor(t)
		extractor.EXPECT().Extract(mock.Anything, mock.Anything, mock.Anything).
			RunAndReturn(func(ctx context.Context, target string, options FetchOptions) (*ytdlp.Result, error) {
				_, hasDeadline := ctx.Deadline()
				assert.True(t, hasDeadline)
				return searchResult(`{"_type":"video","id":"x1","title":"X"}`), nil
			}).Once()

		svc := newTestMusicService(t, extractor)
		_, err := svc.FindTrack(context.Background(), "x")
		require.NoError(t, err)
	})
}
