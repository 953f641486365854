package youtube

import (
	"context"

	"github.com/lrstanley/go-ytdlp"
)

// FetchOptions maps to yt-dlp flags.
type FetchOptions struct {
	SkipDownload bool
	PrintJSON    bool
	NoPlaylist   bool
	// FlatPlaylist lists search hits without resolving each video page.
	FlatPlaylist bool
	Proxy        string
}

// ContentExtractor runs yt-dlp against a URL or a search target such as
// "ytsearch1:<query>".
type ContentExtractor interface {
	Extract(ctx context.Context, target string, options FetchOptions) (*ytdlp.Result, error)
}

type ytdlpExtractor struct{}

// NewYTDLPExtractor needs the yt-dlp binary on PATH.
func NewYTDLPExtractor() ContentExtractor {
	return ytdlpExtractor{}
}

func (ytdlpExtractor) Extract(ctx context.Context, target string, options FetchOptions) (*ytdlp.Result, error) {
	cmd := ytdlp.New().NoWarnings()

	if options.SkipDownload {
		cmd = cmd.SkipDownload()
	}
	if options.PrintJSON {
		cmd = cmd.PrintJSON()
	}
	if options.NoPlaylist {
		cmd = cmd.NoPlaylist()
	}
	if options.FlatPlaylist {
		cmd = cmd.FlatPlaylist()
	}
	if options.Proxy != "" {
		cmd = cmd.Proxy(options.Proxy)
	}

	return cmd.Run(ctx, target)
}
