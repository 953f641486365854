package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mosS-Green/plugins/internal/cache"
	"github.com/mosS-Green/plugins/internal/logger"
)

var (
	ErrLastFMDisabled = errors.New("last.fm api key not configured")
	ErrNoScrobbles    = errors.New("no track currently playing or recently played")
)

type LastFMConfig struct {
	APIKey   string
	BaseURL  string
	CacheTTL time.Duration
}

// Scrobble is the most recent track of a Last.fm user.
type Scrobble struct {
	Track      string    `json:"track"`
	Artist     string    `json:"artist"`
	Album      string    `json:"album"`
	ImageURL   string    `json:"image_url"`
	NowPlaying bool      `json:"now_playing"`
	PlayCount  int       `json:"play_count"`
	PlayedAt   time.Time `json:"played_at"`
}

// LastFMAPIError is an error payload returned by the Last.fm API.
type LastFMAPIError struct {
	Code    int
	Message string
}

func (e *LastFMAPIError) Error() string {
	return "Last.fm API Error: " + e.Message
}

type LastFMClient struct {
	cfg    LastFMConfig
	client *http.Client
	cache  cache.Cache
	logger logger.Logger
	now    func() time.Time
}

func NewLastFMClient(cfg LastFMConfig, client *http.Client, c cache.Cache, l logger.Logger) *LastFMClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://ws.audioscrobbler.com/2.0/"
	}
	return &LastFMClient{
		cfg:    cfg,
		client: client,
		cache:  c,
		logger: l,
		now:    time.Now,
	}
}

func (c *LastFMClient) Enabled() bool {
	return c.cfg.APIKey != ""
}

// flexInt accepts numbers encoded either as JSON numbers or strings.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == "" {
			*f = 0
			return nil
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*f = flexInt(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

type lastFMErrorPayload struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}

type recentTracksResponse struct {
	lastFMErrorPayload
	RecentTracks struct {
		Track []struct {
			Name   string `json:"name"`
			Artist struct {
				Text string `json:"#text"`
			} `json:"artist"`
			Album struct {
				Text string `json:"#text"`
			} `json:"album"`
			Image []struct {
				Text string `json:"#text"`
			} `json:"image"`
			Attr struct {
				NowPlaying string `json:"nowplaying"`
			} `json:"@attr"`
			Date *struct {
				UTS flexInt `json:"uts"`
			} `json:"date"`
		} `json:"track"`
	} `json:"recenttracks"`
}

type trackInfoResponse struct {
	lastFMErrorPayload
	Track struct {
		UserPlayCount flexInt `json:"userplaycount"`
	} `json:"track"`
}

func (c *LastFMClient) call(ctx context.Context, params url.Values, out any) error {
	params.Set("api_key", c.cfg.APIKey)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("last.fm request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	var apiErr lastFMErrorPayload
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != 0 {
		return &LastFMAPIError{Code: apiErr.Error, Message: apiErr.Message}
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("last.fm request failed: status %d", resp.StatusCode)
	}
	return json.Unmarshal(body, out)
}

// NowPlaying returns the current or last played track with the user's play count.
func (c *LastFMClient) NowPlaying(ctx context.Context, username string) (*Scrobble, error) {
	if !c.Enabled() {
		return nil, ErrLastFMDisabled
	}

	key := cache.MemoryOnlyPrefix + "lastfm:recent:" + username
	data, err := cache.Remember(ctx, c.cache, key, c.cfg.CacheTTL, func(ctx context.Context) ([]byte, error) {
		scrobble, err := c.fetchNowPlaying(ctx, username)
		if err != nil {
			return nil, err
		}
		return json.Marshal(scrobble)
	})
	if err != nil && data == nil {
		return nil, err
	}

	var scrobble Scrobble
	if err := json.Unmarshal(data, &scrobble); err != nil {
		return nil, err
	}
	return &scrobble, nil
}

func (c *LastFMClient) fetchNowPlaying(ctx context.Context, username string) (*Scrobble, error) {
	var recent recentTracksResponse
	if err := c.call(ctx, url.Values{
		"method": {"user.getrecenttracks"},
		"user":   {username},
		"limit":  {"1"},
	}, &recent); err != nil {
		return nil, err
	}

	if len(recent.RecentTracks.Track) == 0 {
		return nil, ErrNoScrobbles
	}
	t := recent.RecentTracks.Track[0]

	scrobble := &Scrobble{
		Track:      t.Name,
		Artist:     t.Artist.Text,
		Album:      t.Album.Text,
		NowPlaying: t.Attr.NowPlaying == "true",
	}
	if len(t.Image) > 0 {
		scrobble.ImageURL = t.Image[len(t.Image)-1].Text
	}
	if !scrobble.NowPlaying && t.Date != nil {
		scrobble.PlayedAt = time.Unix(int64(t.Date.UTS), 0)
	}

	var info trackInfoResponse
	if err := c.call(ctx, url.Values{
		"method":   {"track.getInfo"},
		"artist":   {scrobble.Artist},
		"track":    {scrobble.Track},
		"username": {username},
	}, &info); err != nil {
		c.logger.WithError(err).WithField("user", username).Warn("Failed to fetch play count")
	} else {
		scrobble.PlayCount = int(info.Track.UserPlayCount)
	}

	c.logger.WithFields(logger.Fields{
		"user":        username,
		"now_playing": scrobble.NowPlaying,
	}).Debug("Fetched Last.fm status")
	return scrobble, nil
}

// Ago renders how long ago the track was played, empty when it is playing.
func (c *LastFMClient) Ago(s *Scrobble) string {
	if s.NowPlaying || s.PlayedAt.IsZero() {
		return ""
	}
	return FormatAgo(c.now().Sub(s.PlayedAt))
}

func FormatAgo(d time.Duration) string {
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours())/24)
	case d >= time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d >= time.Minute:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return "just now"
	}
}

// StatusLine is the plain-text status handed to the model.
func (c *LastFMClient) StatusLine(name string, s *Scrobble) string {
	action := "was listening to"
	if s.NowPlaying {
		action = "is vibing to"
	}
	line := fmt.Sprintf("%s %s %s by %s. [Plays: %d]", name, action, s.Track, s.Artist, s.PlayCount)
	if ago := c.Ago(s); ago != "" {
		line += " (" + ago + ")"
	}
	return line
}
