package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/evaluators"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/metrics"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
)

const (
	redditBaseURL     = "https://www.reddit.com"
	wsbSubreddit      = "wallstreetbets"
	redditFetchLimit  = 20
	redditMinNewScore = 10
)

// RedditClient searches r/wallstreetbets through the public JSON endpoints.
type RedditClient struct {
	client  *resty.Client
	cache   Cache
	limiter *Limiter
	now     func() time.Time
}

// NewRedditClient creates a new Reddit client
func NewRedditClient(cfg *Config) *RedditClient {
	client := resty.New()
	client.SetBaseURL(redditBaseURL)
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", cfg.RedditUserAgent)

	return &RedditClient{
		client:  client,
		cache:   NewCache(cfg, "reddit", time.Hour),
		limiter: NewLimiter("reddit", 30),
		now:     time.Now,
	}
}

func (rc *RedditClient) SetBaseURL(url string) {
	rc.client.SetBaseURL(url)
}

// RedditResponse represents the API response structure
type RedditResponse struct {
	Data struct {
		Children []struct {
			Data RedditPostData `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// RedditPostData represents Reddit post data from API
type RedditPostData struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Selftext     string  `json:"selftext"`
	SelftextHTML *string `json:"selftext_html"`
	Permalink    string  `json:"permalink"`
	Score        int     `json:"score"`
	NumComments  int     `json:"num_comments"`
	UpvoteRatio  float64 `json:"upvote_ratio"`
	CreatedUTC   float64 `json:"created_utc"`
	Stickied     bool    `json:"stickied"`
}

func (rc *RedditClient) search(ctx context.Context, query, sort, window string, limit int) ([]RedditPostData, error) {
	params := map[string]string{
		"q":           query,
		"restrict_sr": "1",
		"sort":        sort,
		"t":           window,
		"limit":       fmt.Sprintf("%d", limit),
	}

	var resp RedditResponse
	if rc.cache.Get(ctx, "reddit", "search", params, &resp) {
		metrics.RecordCacheHit("reddit", "search")
	} else {
		err := withRetry(ctx, func() error {
			if err := rc.limiter.Wait(ctx); err != nil {
				return err
			}
			r, err := rc.client.R().
				SetContext(ctx).
				SetQueryParams(params).
				Get("/r/" + wsbSubreddit + "/search.json")
			if err != nil {
				return fmt.Errorf("failed to fetch Reddit posts: %w", err)
			}
			if r.StatusCode() != 200 {
				return &statusError{code: r.StatusCode(), body: r.String()}
			}
			if err := json.Unmarshal(r.Body(), &resp); err != nil {
				return fmt.Errorf("failed to parse Reddit JSON: %w", err)
			}
			return nil
		})
		metrics.RecordProviderCall("reddit", "search", err)
		if err != nil {
			return nil, err
		}
		rc.cache.Set(ctx, "reddit", "search", params, resp)
	}

	out := make([]RedditPostData, 0, len(resp.Data.Children))
	for _, c := range resp.Data.Children {
		if !c.Data.Stickied {
			out = append(out, c.Data)
		}
	}
	return out, nil
}

// GetTickerPosts returns up to limit recent, well-received posts about
// ticker. New posts from the last day need a score of at least 10; hot
// posts from the past week fill the remainder.
func (rc *RedditClient) GetTickerPosts(ctx context.Context, ticker string, limit int) ([]models.RedditPost, error) {
	if limit <= 0 {
		limit = 10
	}
	terms := []string{"$" + ticker, ticker}
	perTerm := redditFetchLimit / len(terms)

	seen := make(map[string]bool)
	var posts []models.RedditPost
	add := func(d RedditPostData) {
		url := "https://reddit.com" + d.Permalink
		if seen[url] {
			return
		}
		seen[url] = true
		posts = append(posts, toRedditPost(d))
	}

	var lastErr error
	for _, term := range terms {
		results, err := rc.search(ctx, term, "new", "day", perTerm)
		if err != nil {
			lastErr = err
			continue
		}
		for _, d := range results {
			if d.Score >= redditMinNewScore {
				add(d)
			}
		}
	}

	if len(posts) < limit {
		results, err := rc.search(ctx, ticker, "hot", "week", perTerm)
		if err != nil {
			lastErr = err
		}
		for _, d := range results {
			if len(posts) >= limit {
				break
			}
			add(d)
		}
	}

	if len(posts) == 0 && lastErr != nil {
		return nil, lastErr
	}

	RankRedditPosts(posts, rc.now())
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// RankRedditPosts orders posts by recency (posts from the last 24h weigh
// double) blended with capped score.
func RankRedditPosts(posts []models.RedditPost, now time.Time) {
	dayAgo := now.Add(-24 * time.Hour)
	weight := func(p models.RedditPost) float64 {
		recency := 1.0
		if p.CreatedUTC.After(dayAgo) {
			recency = 2.0
		}
		return recency*0.7 + math.Min(float64(p.Score), 1000)/1000*0.3
	}
	sort.SliceStable(posts, func(i, j int) bool { return weight(posts[i]) > weight(posts[j]) })
}

func toRedditPost(d RedditPostData) models.RedditPost {
	text := d.Selftext
	if text == "" && d.SelftextHTML != nil {
		text = htmlToText(*d.SelftextHTML)
	}
	sec, frac := math.Modf(d.CreatedUTC)
	return models.RedditPost{
		ID:          d.ID,
		Title:       d.Title,
		Text:        text,
		URL:         "https://reddit.com" + d.Permalink,
		Score:       d.Score,
		NumComments: d.NumComments,
		UpvoteRatio: d.UpvoteRatio,
		CreatedUTC:  time.Unix(int64(sec), int64(frac*1e9)).UTC(),
		Sentiment:   evaluators.ClassifyRedditPost(d.Title, text),
	}
}

// htmlToText strips markup from an HTML fragment.
func htmlToText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html.UnescapeString(fragment)))
	if err != nil {
		return fragment
	}
	return strings.TrimSpace(doc.Text())
}
