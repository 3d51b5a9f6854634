package dataflows

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const googleNewsPage = `<html><body>
<article>
  <a href="./articles/abc?hl=en">link</a>
  <h3>Nvidia shares jump on data center demand</h3>
  <div data-n-tid="29">Reuters</div>
  <time datetime="2024-05-20T10:00:00Z">May 20</time>
</article>
<article>
  <a href="https://news.google.com/url?url=https%3A%2F%2Fexample.com%2Fstory">x</a>
  <h4>Chip stocks slip</h4>
  <time>3 hours ago</time>
</article>
<article><p>no headline</p></article>
</body></html>`

func TestParseGoogleNewsHTML(t *testing.T) {
	now := time.Date(2024, 5, 21, 12, 0, 0, 0, time.UTC)
	ns := NewNewsScraperClient(testConfig())
	ns.now = func() time.Time { return now }

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(googleNewsPage))
	require.NoError(t, err)

	articles := ns.parseGoogleNewsHTML(doc, "NVDA stock")
	require.Len(t, articles, 2)

	assert.Equal(t, "Nvidia shares jump on data center demand", articles[0].Title)
	assert.Equal(t, "Reuters", articles[0].Source)
	assert.Equal(t, "https://news.google.com/articles/abc?hl=en", articles[0].URL)
	assert.Equal(t, time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC), articles[0].PublishedAt.UTC())

	assert.Equal(t, "Chip stocks slip", articles[1].Title)
	assert.Equal(t, "Google News", articles[1].Source)
	assert.Equal(t, "https://example.com/story", articles[1].URL)
	assert.Equal(t, now.Add(-3*time.Hour), articles[1].PublishedAt)
}

func TestParseRelativeTime(t *testing.T) {
	now := time.Date(2024, 5, 21, 12, 0, 0, 0, time.UTC)
	ns := &NewsScraperClient{now: func() time.Time { return now }}

	assert.Equal(t, now, ns.parseRelativeTime("just now"))
	assert.Equal(t, now.Add(-24*time.Hour), ns.parseRelativeTime("Yesterday"))
	assert.Equal(t, now.Add(-5*time.Minute), ns.parseRelativeTime("5 minutes ago"))
	assert.Equal(t, now.Add(-14*24*time.Hour), ns.parseRelativeTime("2 weeks ago"))
	assert.Equal(t, now.Add(-time.Hour), ns.parseRelativeTime("sometime"))
}

func TestGetGoogleNews(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Contains(t, r.URL.Query().Get("q"), "NVDA stock after:2024-05-01 before:2024-05-21")
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(googleNewsPage))
	}))
	defer srv.Close()

	ns := NewNewsScraperClient(testConfig())
	ns.SetBaseURL(srv.URL)

	articles, err := ns.GetGoogleNews(context.Background(), GoogleNewsParams{
		Query:      "NVDA stock",
		StartDate:  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2024, 5, 21, 0, 0, 0, 0, time.UTC),
		MaxResults: 1,
	})
	require.NoError(t, err)
	require.Len(t, articles, 1)

	_, err = ns.GetGoogleNews(context.Background(), GoogleNewsParams{Query: " "})
	assert.Error(t, err)
}
