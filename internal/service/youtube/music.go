package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mosS-Green/plugins/internal/cache"
	"github.com/mosS-Green/plugins/internal/logger"
)

const musicWatchURL = "https://music.youtube.com/watch?v="

var (
	ErrEmptyQuery   = errors.New("search query is empty")
	ErrNoTrackFound = errors.New("no track found")
)

type Config struct {
	Proxy         string
	CacheTTL      time.Duration
	SearchTimeout time.Duration
}

type Track struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// MusicService resolves free-form song queries to YouTube Music links.
type MusicService struct {
	config    Config
	extractor ContentExtractor
	cache     cache.Cache
	logger    logger.Logger
}

func NewMusicService(extractor ContentExtractor, c cache.Cache, cfg Config, l logger.Logger) *MusicService {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = 30 * time.Second
	}
	return &MusicService{
		config:    cfg,
		extractor: extractor,
		cache:     c,
		logger:    l,
	}
}

func normalizeQuery(query string) string {
	return strings.ToLower(strings.Join(strings.Fields(query), " "))
}

func (s *MusicService) FindTrack(ctx context.Context, query string) (*Track, error) {
	query = normalizeQuery(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	data, err := cache.Remember(ctx, s.cache, cache.PersistentPrefix+"ytm:"+query, s.config.CacheTTL,
		func(ctx context.Context) ([]byte, error) {
			track, err := s.search(ctx, query)
			if err != nil {
				return nil, err
			}
			return json.Marshal(track)
		})
	if err != nil && data == nil {
		return nil, err
	}
	if err != nil {
		s.logger.WithError(err).Warn("Failed to cache track")
	}

	var track Track
	if err := json.Unmarshal(data, &track); err != nil {
		return nil, fmt.Errorf("decode cached track: %w", err)
	}
	return &track, nil
}

func (s *MusicService) search(ctx context.Context, query string) (*Track, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.SearchTimeout)
	defer cancel()

	log := s.logger.WithField("query", query)
	start := time.Now()

	result, err := s.extractor.Extract(ctx, "ytsearch1:"+query, FetchOptions{
		SkipDownload: true,
		PrintJSON:    true,
		NoPlaylist:   true,
		FlatPlaylist: true,
		Proxy:        s.config.Proxy,
	})
	if err != nil {
		return nil, fmt.Errorf("yt-dlp search: %w", err)
	}

	infos, err := result.GetExtractedInfo()
	if err != nil {
		return nil, fmt.Errorf("yt-dlp output: %w", err)
	}

	for _, info := range infos {
		if info == nil || info.ID == "" {
			continue
		}
		track := &Track{ID: info.ID, URL: musicWatchURL + info.ID}
		if info.Title != nil {
			track.Title = *info.Title
		}
		log.WithFields(logger.Fields{
			"id":       track.ID,
			"duration": time.Since(start).String(),
		}).Debug("Track found")
		return track, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNoTrackFound, query)
}
