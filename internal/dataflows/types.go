package dataflows

import (
	"context"
	"errors"
	"time"

	"github.com/mantoumaster/ai-hedge-fund-API/config"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
)

// Config is an alias for the main application config
type Config = config.Config

var (
	ErrNoData              = errors.New("no data returned")
	ErrMissingAPIKey       = errors.New("api key not configured")
	ErrOnlineToolsDisabled = errors.New("online tools disabled")
)

// Provider is the market data surface analysts read from. Implementations
// never fail: any upstream problem yields an empty result.
type Provider interface {
	GetPrices(ctx context.Context, ticker string, start, end time.Time) []models.Price
	GetFinancialMetrics(ctx context.Context, ticker string, endDate time.Time, period string, limit int) []models.FinancialMetrics
	SearchLineItems(ctx context.Context, ticker string, fields []string, endDate time.Time, period string, limit int) []models.LineItem
	GetMarketCap(ctx context.Context, ticker string, endDate time.Time) (float64, bool)
	GetCompanyNews(ctx context.Context, ticker string, endDate time.Time, limit int) []models.CompanyNews
	GetInsiderTrades(ctx context.Context, ticker string, endDate time.Time, limit int) []models.InsiderTrade
	GetRedditPosts(ctx context.Context, ticker string, limit int) []models.RedditPost
}

// NewsArticle is a scraped headline before it is mapped to CompanyNews.
type NewsArticle struct {
	Title       string            `json:"title"`
	Content     string            `json:"content"`
	URL         string            `json:"url"`
	Source      string            `json:"source"`
	PublishedAt time.Time         `json:"published_at"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// EquitySnapshot is the latest per-share and size data for one ticker.
type EquitySnapshot struct {
	Ticker            string  `json:"ticker"`
	Price             float64 `json:"price"`
	MarketCap         float64 `json:"market_cap"`
	SharesOutstanding float64 `json:"shares_outstanding"`
	EPS               float64 `json:"eps"`
	BookValuePerShare float64 `json:"book_value_per_share"`
	TrailingPE        float64 `json:"trailing_pe"`
	PriceToBook       float64 `json:"price_to_book"`
}
