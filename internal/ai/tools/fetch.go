package tools

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"

	"github.com/mosS-Green/plugins/internal/ai"
	"github.com/mosS-Green/plugins/internal/logger"
)

const fetchUserAgent = "Mozilla/5.0 (compatible; LeafletBot/1.0)"

func (t *Tools) fetchURL(ctx context.Context, args map[string]any) (string, error) {
	target, err := url.Parse(strings.TrimSpace(ai.StringArg(args, "url")))
	if err != nil {
		return "", err
	}
	if target.Scheme != "http" && target.Scheme != "https" {
		return "", fmt.Errorf("unsupported url scheme %q", target.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", fetchUserAgent)
	req.Header.Set("Accept", "text/html,text/plain;q=0.9,*/*;q=0.5")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", target.Host, resp.StatusCode)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, 4<<20), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("charset detection failed: %w", err)
	}
	var text string
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		raw, err := io.ReadAll(body)
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(string(raw))
	} else {
		text, err = pageText(body)
		if err != nil {
			return "", err
		}
	}

	t.logger.WithFields(logger.Fields{
		"host":   target.Host,
		"length": len(text),
	}).Debug("Fetched page")
	return truncateRunes(text, t.cfg.FetchMaxLength), nil
}

// pageText renders the title and main content of an html page as markdown.
func pageText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, nav, footer, header, svg, iframe, form").Remove()

	root := doc.Find("article").First()
	if root.Length() == 0 {
		root = doc.Find("main").First()
	}
	if root.Length() == 0 {
		root = doc.Find("body")
	}

	html, err := goquery.OuterHtml(root)
	if err != nil {
		return "", err
	}
	content, err := md.NewConverter("", true, nil).ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("convert page: %w", err)
	}
	content = strings.TrimSpace(content)

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return "Title: " + title + "\n\n" + content, nil
	}
	return content, nil
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "\n[truncated]"
}
