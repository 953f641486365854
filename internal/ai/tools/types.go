package tools

import (
	"context"
	"net/http"
	"time"

	"github.com/mosS-Green/plugins/internal/ai"
	"github.com/mosS-Green/plugins/internal/database"
	"github.com/mosS-Green/plugins/internal/logger"
	"github.com/mosS-Green/plugins/internal/service"
	"github.com/mosS-Green/plugins/internal/service/youtube"
)

const (
	ToolYTMLink      = "get_ytm_link"
	ToolMyList       = "get_my_list"
	ToolLastFMStatus = "get_my_lastfm_status"
	ToolWeather      = "weather"
	ToolSearch       = "search"
	ToolFetchURL     = "fetch_url"
)

type MusicFinder interface {
	FindTrack(ctx context.Context, query string) (*youtube.Track, error)
}

type WebSearcher interface {
	Text(ctx context.Context, keywords, region, timeLimit string, maxResults int) ([]service.TextResult, error)
}

type LastFMStatus interface {
	NowPlaying(ctx context.Context, username string) (*service.Scrobble, error)
	StatusLine(name string, s *service.Scrobble) string
}

// Store is the slice of the database the tools read from.
type Store interface {
	GetUser(userID int64) (*database.User, error)
	ListItems(ctx context.Context, userID int64) ([]database.ListItem, error)
	GetLastFMUser(ctx context.Context, userID int64) (string, error)
}

type Config struct {
	WeatherBaseURL string
	FetchMaxLength int
}

type Tools struct {
	httpClient *http.Client
	music      MusicFinder
	search     WebSearcher
	lastfm     LastFMStatus
	store      Store
	cfg        Config
	logger     logger.Logger
	now        func() time.Time
}

func NewTools(
	httpClient *http.Client,
	music MusicFinder,
	search WebSearcher,
	lastfm LastFMStatus,
	store Store,
	cfg Config,
	l logger.Logger,
) *Tools {
	if cfg.WeatherBaseURL == "" {
		cfg.WeatherBaseURL = "https://wttr.in"
	}
	if cfg.FetchMaxLength <= 0 {
		cfg.FetchMaxLength = 8000
	}
	return &Tools{
		httpClient: httpClient,
		music:      music,
		search:     search,
		lastfm:     lastfm,
		store:      store,
		cfg:        cfg,
		logger:     l,
		now:        time.Now,
	}
}

var timeLimitEnum = []string{"d", "w", "m", "y"}

// Descriptors lists every tool the bot can expose to the model.
func (t *Tools) Descriptors() []ai.ToolDescriptor {
	return []ai.ToolDescriptor{
		{
			Name:        ToolYTMLink,
			Description: "Finds a YouTube Music link for the given song name.",
			Parameters: ai.ObjectParameters(map[string]ai.Property{
				"song_name": {Type: "string", Description: "The name of the song to search for."},
			}, "song_name"),
			Handler: t.ytmLink,
		},
		{
			Name:                ToolMyList,
			Description:         "Retrieve the items in my reminder list.",
			Parameters:          ai.ObjectParameters(nil),
			Handler:             t.myList,
			NeedsCallerIdentity: true,
		},
		{
			Name:                ToolLastFMStatus,
			Description:         "Checks what the user asking is listening to on Last.fm right now, or what they played last.",
			Parameters:          ai.ObjectParameters(nil),
			Handler:             t.lastFMStatus,
			NeedsCallerIdentity: true,
		},
		{
			Name:        ToolWeather,
			Description: "Fetches comprehensive weather forecasts",
			Parameters: ai.ObjectParameters(map[string]ai.Property{
				"location": {Type: "string", Description: "City name in English (e.g., `London`, `New York`)"},
				"days":     {Type: "integer", Description: "Number of forecast days (1-3). 1 - Today, 2 - Today and tomorrow, etc."},
			}, "location"),
			Handler: t.weather,
		},
		{
			Name:        ToolSearch,
			Description: "Search with duckduckgo, use when need more relevant information.",
			Parameters: ai.ObjectParameters(map[string]ai.Property{
				"query":       {Type: "string", Description: "Search query"},
				"max_results": {Type: "integer", Description: "Max search results. Min: 3, max: 10"},
				"time_limit":  {Type: "string", Enum: timeLimitEnum, Description: "Time range for search results: 'd' (last 24h), 'w' (last week), 'm' (last month), 'y' (last year). Leave empty for all time."},
			}, "query"),
			Handler: t.webSearch,
		},
		{
			Name:        ToolFetchURL,
			Description: "Fetch full content from URL. Use when you need more info from URL (e.g. after search) or if user asks.",
			Parameters: ai.ObjectParameters(map[string]ai.Property{
				"url": {Type: "string"},
			}, "url"),
			Handler: t.fetchURL,
		},
	}
}

// Register adds every descriptor to the registry.
func (t *Tools) Register(r *ai.ToolRegistry) error {
	for _, desc := range t.Descriptors() {
		if err := r.Register(desc); err != nil {
			return err
		}
	}
	return nil
}
