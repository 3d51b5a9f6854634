package dataflows

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
)

func redditListing(posts ...string) string {
	body := `{"data": {"children": [`
	for i, p := range posts {
		if i > 0 {
			body += ","
		}
		body += `{"data": ` + p + `}`
	}
	return body + `]}}`
}

func redditPost(id string, score int, created time.Time, stickied bool) string {
	return fmt.Sprintf(`{"id": %q, "title": "GME to the moon %s", "selftext": "", "selftext_html": "&lt;p&gt;diamond hands&lt;/p&gt;", "permalink": "/r/wallstreetbets/comments/%s/", "score": %d, "num_comments": 3, "upvote_ratio": 0.9, "created_utc": %d, "stickied": %t}`,
		id, id, id, score, created.Unix(), stickied)
}

func TestRedditGetTickerPosts(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	var userAgent string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		assert.Equal(t, "/r/wallstreetbets/search.json", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "1", q.Get("restrict_sr"))

		w.Header().Set("Content-Type", "application/json")
		switch q.Get("sort") {
		case "new":
			fmt.Fprint(w, redditListing(
				redditPost("low", 5, now.Add(-time.Hour), false),
				redditPost("fresh", 50, now.Add(-2*time.Hour), false),
				redditPost("pinned", 900, now.Add(-time.Hour), true),
			))
		case "hot":
			fmt.Fprint(w, redditListing(
				redditPost("fresh", 50, now.Add(-2*time.Hour), false),
				redditPost("old", 800, now.Add(-72*time.Hour), false),
			))
		}
	}))
	defer srv.Close()

	rc := NewRedditClient(testConfig())
	rc.SetBaseURL(srv.URL)
	rc.now = func() time.Time { return now }

	posts, err := rc.GetTickerPosts(context.Background(), "GME", 10)
	require.NoError(t, err)
	assert.Equal(t, "test-agent", userAgent)

	ids := make([]string, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"fresh", "old"}, ids, "low score and stickied posts dropped, duplicates merged")
	assert.Equal(t, "diamond hands", posts[0].Text)
	assert.Equal(t, "https://reddit.com/r/wallstreetbets/comments/fresh/", posts[0].URL)
	assert.Equal(t, models.Bullish, posts[0].Sentiment)
}

func TestRankRedditPosts(t *testing.T) {
	now := time.Now()
	posts := []models.RedditPost{
		{ID: "old-viral", Score: 5000, CreatedUTC: now.Add(-48 * time.Hour)},
		{ID: "new-small", Score: 10, CreatedUTC: now.Add(-time.Hour)},
		{ID: "new-big", Score: 600, CreatedUTC: now.Add(-time.Hour)},
	}
	RankRedditPosts(posts, now)
	assert.Equal(t, "new-big", posts[0].ID)
	assert.Equal(t, "new-small", posts[1].ID)
	assert.Equal(t, "old-viral", posts[2].ID)
}
