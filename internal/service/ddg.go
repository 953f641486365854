package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const searchUserAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0"

var (
	ErrEmptyKeywords  = errors.New("keywords is mandatory")
	allowedTimelimits = []string{"d", "w", "m", "y"}
)

type TextResult struct {
	Title string `json:"title"`
	Href  string `json:"href"`
	Body  string `json:"body"`
}

// DuckDuckGoSearch scrapes the html frontend of DuckDuckGo.
type DuckDuckGoSearch struct {
	client    *http.Client
	baseURL   string
	rateLimit time.Duration
}

func NewDuckDuckGoSearch(client *http.Client, rateLimit time.Duration) *DuckDuckGoSearch {
	if rateLimit == 0 {
		rateLimit = time.Second
	}
	return &DuckDuckGoSearch{
		client:    client,
		baseURL:   "https://html.duckduckgo.com/html",
		rateLimit: rateLimit,
	}
}

func (d *DuckDuckGoSearch) post(ctx context.Context, params url.Values) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(d.rateLimit):
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "https://duckduckgo.com/")
	req.Header.Set("User-Agent", searchUserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden {
			return nil, fmt.Errorf("search ratelimit: status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("search failed: status %d", resp.StatusCode)
	}

	return io.ReadAll(io.LimitReader(resp.Body, 2<<20))
}

// Text returns up to maxResults organic results, following pagination.
func (d *DuckDuckGoSearch) Text(ctx context.Context, keywords, region, timeLimit string, maxResults int) ([]TextResult, error) {
	if strings.TrimSpace(keywords) == "" {
		return nil, ErrEmptyKeywords
	}
	if maxResults <= 0 {
		maxResults = 3
	}

	payload := url.Values{
		"q":  {keywords},
		"b":  {""},
		"kl": {region},
	}
	if slices.Contains(allowedTimelimits, timeLimit) {
		payload.Set("df", timeLimit)
	}

	seen := make(map[string]bool)
	var results []TextResult

	for range 5 {
		resp, err := d.post(ctx, payload)
		if err != nil {
			return nil, err
		}
		if bytes.Contains(resp, []byte("No results.")) {
			return results, nil
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp))
		if err != nil {
			return nil, err
		}

		doc.Find("div.result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
			link := s.Find("a.result__a")
			href, ok := link.Attr("href")
			if !ok || href == "" || seen[href] ||
				strings.HasPrefix(href, "http://www.google.com/search?q=") ||
				strings.HasPrefix(href, "https://duckduckgo.com/y.js?ad_domain") {
				return true
			}
			seen[href] = true
			results = append(results, TextResult{
				Title: collapseSpaces(link.Text()),
				Href:  normalizeURL(href),
				Body:  collapseSpaces(s.Find("a.result__snippet").Text()),
			})
			return len(results) < maxResults
		})

		if len(results) >= maxResults {
			break
		}

		nextPage := doc.Find("div.nav-link").Last()
		if nextPage.Length() == 0 {
			break
		}
		nextPage.Find("input[type=hidden]").Each(func(_ int, s *goquery.Selection) {
			if name, _ := s.Attr("name"); name != "" {
				value, _ := s.Attr("value")
				payload.Set(name, value)
			}
		})
	}

	return results, nil
}

func normalizeURL(raw string) string {
	if raw == "" {
		return ""
	}
	unescaped, err := url.QueryUnescape(raw)
	if err != nil {
		return raw
	}
	return strings.ReplaceAll(unescaped, " ", "+")
}

func collapseSpaces(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
