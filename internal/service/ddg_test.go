package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ddgPage = `<html><body>
<div class="result"><a class="result__a" href="https://go.dev/">The Go
  Programming Language</a><a class="result__snippet">Build simple,   secure software.</a></div>
<div class="result"><a class="result__a" href="https://duckduckgo.com/y.js?ad_domain=x">Ad</a></div>
<div class="result"><a class="result__a" href="https://pkg.go.dev/">Go Packages</a><a class="result__snippet">Docs</a></div>
<div class="result"><a class="result__a" href="https://go.dev/">Duplicate</a></div>
</body></html>`

func newTestSearch(t *testing.T, handler http.HandlerFunc) *DuckDuckGoSearch {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	search := NewDuckDuckGoSearch(srv.Client(), time.Millisecond)
	search.baseURL = srv.URL
	return search
}

func TestDuckDuckGoText(t *testing.T) {
	search := newTestSearch(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "golang", r.PostForm.Get("q"))
		assert.Equal(t, "w", r.PostForm.Get("df"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(ddgPage))
	})

	results, err := search.Text(context.Background(), "golang", "wt-wt", "w", 5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, TextResult{
		Title: "The Go Programming Language",
		Href:  "https://go.dev/",
		Body:  "Build simple, secure software.",
	}, results[0])
	assert.Equal(t, "https://pkg.go.dev/", results[1].Href)
}

func TestDuckDuckGoTextLimitAndErrors(t *testing.T) {
	search := newTestSearch(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(ddgPage))
	})
	results, err := search.Text(context.Background(), "golang", "", "", 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)

	_, err = search.Text(context.Background(), "  ", "", "", 1)
	assert.ErrorIs(t, err, ErrEmptyKeywords)

	limited := newTestSearch(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err = limited.Text(context.Background(), "golang", "", "", 1)
	assert.ErrorContains(t, err, "ratelimit")
}

func TestDuckDuckGoNoResults(t *testing.T) {
	search := newTestSearch(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>No results.</html>"))
	})
	results, err := search.Text(context.Background(), "zzzz", "", "", 3)
	require.NoError(t, err)
	assert.Empty(t, results)
}
