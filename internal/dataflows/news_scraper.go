package dataflows

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/metrics"
)

const googleNewsBaseURL = "https://news.google.com"

// NewsScraperClient handles news scraping operations
type NewsScraperClient struct {
	client *resty.Client
	cache  Cache
	now    func() time.Time
}

// NewNewsScraperClient creates a new news scraper client
func NewNewsScraperClient(cfg *Config) *NewsScraperClient {
	client := resty.New()
	client.SetBaseURL(googleNewsBaseURL)
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (compatible; ai-hedge-fund/1.0)")

	return &NewsScraperClient{
		client: client,
		cache:  NewCache(cfg, "news_scraper", 2*time.Hour),
		now:    time.Now,
	}
}

func (ns *NewsScraperClient) SetBaseURL(u string) {
	ns.client.SetBaseURL(u)
}

// GoogleNewsParams represents parameters for Google News search
type GoogleNewsParams struct {
	Query      string    `json:"query"`
	Language   string    `json:"language"`
	Country    string    `json:"country"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	MaxResults int       `json:"max_results"`
}

// GetGoogleNews scrapes Google News for articles
func (ns *NewsScraperClient) GetGoogleNews(ctx context.Context, params GoogleNewsParams) ([]*NewsArticle, error) {
	if strings.TrimSpace(params.Query) == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}

	if params.Language == "" {
		params.Language = "en"
	}
	if params.Country == "" {
		params.Country = "US"
	}
	if params.MaxResults <= 0 {
		params.MaxResults = 20
	}

	var cached []*NewsArticle
	if ns.cache.Get(ctx, "google_news", "search", params, &cached) {
		metrics.RecordCacheHit("google_news", "search")
		return cached, nil
	}

	var result []*NewsArticle
	err := withRetry(ctx, func() error {
		resp, err := ns.client.R().
			SetContext(ctx).
			SetQueryString(buildGoogleNewsQuery(params)).
			Get("/search")
		if err != nil {
			return fmt.Errorf("failed to fetch Google News: %w", err)
		}

		if resp.StatusCode() != 200 {
			return &statusError{code: resp.StatusCode(), body: resp.String()}
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
		if err != nil {
			return fmt.Errorf("failed to parse HTML: %w", err)
		}

		result = ns.parseGoogleNewsHTML(doc, params.Query)
		if len(result) > params.MaxResults {
			result = result[:params.MaxResults]
		}
		return nil
	})
	metrics.RecordProviderCall("google_news", "search", err)
	if err != nil {
		return nil, err
	}

	ns.cache.Set(ctx, "google_news", "search", params, result)
	return result, nil
}

func buildGoogleNewsQuery(params GoogleNewsParams) string {
	query := params.Query
	if !params.StartDate.IsZero() && !params.EndDate.IsZero() {
		query += fmt.Sprintf(" after:%s before:%s",
			params.StartDate.Format("2006-01-02"),
			params.EndDate.Format("2006-01-02"))
	}

	return fmt.Sprintf("q=%s&hl=%s&gl=%s&ceid=%s:%s",
		url.QueryEscape(query), params.Language, params.Country, params.Country, params.Language)
}

// parseGoogleNewsHTML extracts articles from Google News HTML
func (ns *NewsScraperClient) parseGoogleNewsHTML(doc *goquery.Document, query string) []*NewsArticle {
	var articles []*NewsArticle

	doc.Find("article").Each(func(i int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find("h3").Text())
		if title == "" {
			title = strings.TrimSpace(s.Find("h4").Text())
		}
		if title == "" {
			title = strings.TrimSpace(s.Find("a").Last().Text())
		}
		if title == "" {
			return
		}

		href, exists := s.Find("a").First().Attr("href")
		if !exists {
			return
		}

		source := strings.TrimSpace(s.Find("div[data-n-tid]").Text())
		if source == "" {
			source = "Google News"
		}

		publishedAt := ns.now()
		if dt, ok := s.Find("time").Attr("datetime"); ok {
			if t, err := time.Parse(time.RFC3339, dt); err == nil {
				publishedAt = t
			}
		} else {
			publishedAt = ns.parseRelativeTime(strings.TrimSpace(s.Find("time").Text()))
		}

		articles = append(articles, &NewsArticle{
			Title:       title,
			URL:         cleanGoogleNewsURL(href),
			Source:      source,
			PublishedAt: publishedAt,
			Metadata: map[string]string{
				"scraper": "google_news",
				"query":   query,
			},
		})
	})

	return articles
}

// cleanGoogleNewsURL removes Google News redirect wrapper
func cleanGoogleNewsURL(googleURL string) string {
	if strings.Contains(googleURL, "url=") {
		parts := strings.Split(googleURL, "url=")
		if decoded, err := url.QueryUnescape(parts[1]); err == nil {
			return decoded
		}
	}

	if strings.HasPrefix(googleURL, "./") {
		return googleNewsBaseURL + googleURL[1:]
	}
	if strings.HasPrefix(googleURL, "/") {
		return googleNewsBaseURL + googleURL
	}
	return googleURL
}

var relativeTimeRe = regexp.MustCompile(`(\d+)\s*(minute|hour|day|week)s?\s*ago`)

// parseRelativeTime converts strings like "3 hours ago" to a time.
func (ns *NewsScraperClient) parseRelativeTime(timeText string) time.Time {
	now := ns.now()
	timeText = strings.ToLower(timeText)
	if timeText == "just now" || timeText == "" {
		return now
	}
	if timeText == "yesterday" {
		return now.Add(-24 * time.Hour)
	}

	m := relativeTimeRe.FindStringSubmatch(timeText)
	if len(m) != 3 {
		return now.Add(-1 * time.Hour)
	}
	n, _ := strconv.Atoi(m[1])
	unit := map[string]time.Duration{
		"minute": time.Minute,
		"hour":   time.Hour,
		"day":    24 * time.Hour,
		"week":   7 * 24 * time.Hour,
	}[m[2]]
	return now.Add(-time.Duration(n) * unit)
}
