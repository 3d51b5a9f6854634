// Package dataflowstest provides an in-memory market data provider.
package dataflowstest

import (
	"context"
	"sync"
	"time"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/dataflows"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
)

// Provider serves canned data keyed by ticker and counts calls per method.
type Provider struct {
	Prices     map[string][]models.Price
	Metrics    map[string][]models.FinancialMetrics
	LineItems  map[string][]models.LineItem
	MarketCaps map[string]float64
	News       map[string][]models.CompanyNews
	Trades     map[string][]models.InsiderTrade
	Posts      map[string][]models.RedditPost

	mu    sync.Mutex
	calls map[string]int
}

var _ dataflows.Provider = (*Provider)(nil)

func New() *Provider {
	return &Provider{
		Prices:     map[string][]models.Price{},
		Metrics:    map[string][]models.FinancialMetrics{},
		LineItems:  map[string][]models.LineItem{},
		MarketCaps: map[string]float64{},
		News:       map[string][]models.CompanyNews{},
		Trades:     map[string][]models.InsiderTrade{},
		Posts:      map[string][]models.RedditPost{},
		calls:      map[string]int{},
	}
}

func (p *Provider) count(method string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.calls == nil {
		p.calls = map[string]int{}
	}
	p.calls[method]++
}

// Calls reports how often method was called.
func (p *Provider) Calls(method string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[method]
}

func head[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}

func (p *Provider) GetPrices(_ context.Context, ticker string, _, _ time.Time) []models.Price {
	p.count("GetPrices")
	return p.Prices[ticker]
}

func (p *Provider) GetFinancialMetrics(_ context.Context, ticker string, _ time.Time, _ string, limit int) []models.FinancialMetrics {
	p.count("GetFinancialMetrics")
	return head(p.Metrics[ticker], limit)
}

func (p *Provider) SearchLineItems(_ context.Context, ticker string, _ []string, _ time.Time, _ string, limit int) []models.LineItem {
	p.count("SearchLineItems")
	return head(p.LineItems[ticker], limit)
}

func (p *Provider) GetMarketCap(_ context.Context, ticker string, _ time.Time) (float64, bool) {
	p.count("GetMarketCap")
	v, ok := p.MarketCaps[ticker]
	return v, ok
}

func (p *Provider) GetCompanyNews(_ context.Context, ticker string, _ time.Time, limit int) []models.CompanyNews {
	p.count("GetCompanyNews")
	return head(p.News[ticker], limit)
}

func (p *Provider) GetInsiderTrades(_ context.Context, ticker string, _ time.Time, limit int) []models.InsiderTrade {
	p.count("GetInsiderTrades")
	return head(p.Trades[ticker], limit)
}

func (p *Provider) GetRedditPosts(_ context.Context, ticker string, limit int) []models.RedditPost {
	p.count("GetRedditPosts")
	return head(p.Posts[ticker], limit)
}
