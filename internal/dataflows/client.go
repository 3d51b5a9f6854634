package dataflows

import (
	"context"
	"time"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/logger"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
)

// Client implements Provider over Finnhub, Yahoo, Longport, Reddit and a
// Google News fallback. USD crypto pairs go to CoinGecko first and Yahoo
// second. Every method logs upstream failures and returns an empty result
// instead.
type Client struct {
	finnhub   *FinnhubClient
	yahoo     *YahooFinanceClient
	longport  *LongportClient
	coingecko *CoinGeckoClient
	reddit    *RedditClient
	news      *NewsScraperClient
	online    bool
	log       *logger.Logger
}

var _ Provider = (*Client)(nil)

// NewClient wires every upstream the configuration enables.
func NewClient(cfg *Config) *Client {
	c := &Client{
		finnhub:   NewFinnhubClient(cfg),
		yahoo:     NewYahooFinanceClient(cfg),
		coingecko: NewCoinGeckoClient(cfg),
		reddit:    NewRedditClient(cfg),
		news:      NewNewsScraperClient(cfg),
		online:    cfg.OnlineTools,
		log:       logger.Component("dataflows"),
	}

	if cfg.HasLongport() {
		lp, err := NewLongportClient(cfg)
		if err != nil {
			c.log.Warnw("longport unavailable", "error", err)
		} else {
			c.longport = lp
		}
	}
	return c
}

func (c *Client) enabled(method, ticker string) bool {
	if !c.online {
		c.log.Debugw("skipping provider call", "method", method, "ticker", ticker, "error", ErrOnlineToolsDisabled)
	}
	return c.online
}

func (c *Client) useLongport(ticker string) bool {
	return c.longport != nil && IsAsianListing(ticker)
}

func (c *Client) GetPrices(ctx context.Context, ticker string, start, end time.Time) []models.Price {
	if !c.enabled("get_prices", ticker) {
		return nil
	}
	if IsCrypto(ticker) {
		return c.cryptoPrices(ctx, ticker, start, end)
	}

	if c.useLongport(ticker) {
		days := int(end.Sub(start).Hours()/24) + 1
		if days > 1000 {
			days = 1000
		}
		prices, err := c.longport.GetSticksWithDay(ctx, ticker, days)
		if err == nil && len(prices) > 0 {
			return filterPrices(prices, start, end)
		}
		c.log.Warnw("longport prices failed, trying yahoo", "ticker", ticker, "error", err)
	}

	prices, err := c.yahoo.GetHistoricalData(ctx, ticker, start, end)
	if err != nil {
		c.log.Warnw("failed to fetch prices", "ticker", ticker, "error", err)
		return nil
	}
	return prices
}

func filterPrices(prices []models.Price, start, end time.Time) []models.Price {
	out := prices[:0:0]
	last := end.AddDate(0, 0, 1)
	for _, p := range prices {
		if !p.Time.Before(start) && p.Time.Before(last) {
			out = append(out, p)
		}
	}
	return out
}

func (c *Client) snapshot(ctx context.Context, ticker string) (*EquitySnapshot, error) {
	if c.useLongport(ticker) {
		snap, err := c.longport.GetEquity(ctx, ticker)
		if err == nil {
			return snap, nil
		}
		c.log.Warnw("longport snapshot failed, trying yahoo", "ticker", ticker, "error", err)
	}
	return c.yahoo.GetEquity(ctx, ticker)
}

func (c *Client) GetFinancialMetrics(ctx context.Context, ticker string, endDate time.Time, period string, limit int) []models.FinancialMetrics {
	if !c.enabled("get_financial_metrics", ticker) {
		return nil
	}
	if IsCrypto(ticker) {
		return c.cryptoMetrics(ctx, ticker, period)
	}

	if c.finnhub.Enabled() && !IsAsianListing(ticker) {
		basic, err := c.finnhub.GetBasicFinancials(ctx, ticker)
		if err == nil {
			if m := basic.Metrics(ticker, endDate, period, limit); len(m) > 0 {
				return m
			}
		} else {
			c.log.Warnw("finnhub metrics failed", "ticker", ticker, "error", err)
		}
	}

	snap, err := c.snapshot(ctx, ticker)
	if err != nil {
		c.log.Warnw("failed to fetch financial metrics", "ticker", ticker, "error", err)
		return nil
	}
	return []models.FinancialMetrics{snap.Metrics(period)}
}

func (c *Client) SearchLineItems(ctx context.Context, ticker string, fields []string, endDate time.Time, period string, limit int) []models.LineItem {
	if !c.enabled("search_line_items", ticker) {
		return nil
	}
	if IsCrypto(ticker) {
		coin, err := c.coingecko.GetCoin(ctx, ticker)
		if err != nil {
			c.log.Warnw("failed to fetch crypto line items", "ticker", ticker, "error", err)
			return nil
		}
		return []models.LineItem{coin.LineItem(ticker, fields, period)}
	}

	if c.finnhub.Enabled() && !IsAsianListing(ticker) {
		freq := "annual"
		if period == "quarterly" {
			freq = "quarterly"
		}
		reports, err := c.finnhub.GetFinancialsReported(ctx, ticker, freq)
		if err == nil {
			if items := LineItemsFromReports(ticker, reports, fields, endDate, period, limit); len(items) > 0 {
				return items
			}
		} else {
			c.log.Warnw("finnhub line items failed", "ticker", ticker, "error", err)
		}
	}

	snap, err := c.snapshot(ctx, ticker)
	if err != nil {
		c.log.Warnw("failed to fetch line items", "ticker", ticker, "error", err)
		return nil
	}
	return []models.LineItem{snap.LineItem(fields, period)}
}

func (c *Client) GetMarketCap(ctx context.Context, ticker string, endDate time.Time) (float64, bool) {
	if !c.enabled("get_market_cap", ticker) {
		return 0, false
	}
	if IsCrypto(ticker) {
		return c.cryptoMarketCap(ctx, ticker)
	}

	snap, err := c.snapshot(ctx, ticker)
	if err == nil && snap.MarketCap > 0 {
		return snap.MarketCap, true
	}

	if c.finnhub.Enabled() {
		if basic, ferr := c.finnhub.GetBasicFinancials(ctx, ticker); ferr == nil {
			if mc, ok := basic.MarketCap(); ok {
				return mc, true
			}
		}
	}
	c.log.Warnw("market cap unavailable", "ticker", ticker, "error", err)
	return 0, false
}

func (c *Client) GetCompanyNews(ctx context.Context, ticker string, endDate time.Time, limit int) []models.CompanyNews {
	if !c.enabled("get_company_news", ticker) {
		return nil
	}
	start := endDate.AddDate(0, -1, 0)
	query := ticker + " stock"
	if IsCrypto(ticker) {
		query = CoinSymbol(ticker) + " crypto"
	}

	if c.finnhub.Enabled() && !IsCrypto(ticker) {
		news, err := c.finnhub.GetCompanyNews(ctx, ticker, start, endDate)
		if err == nil && len(news) > 0 {
			return truncateNews(news, limit)
		}
		if err != nil {
			c.log.Warnw("finnhub news failed, trying google news", "ticker", ticker, "error", err)
		}
	}

	articles, err := c.news.GetGoogleNews(ctx, GoogleNewsParams{
		Query:      query,
		StartDate:  start,
		EndDate:    endDate,
		MaxResults: limit,
	})
	if err != nil {
		c.log.Warnw("failed to fetch company news", "ticker", ticker, "error", err)
		return nil
	}

	news := make([]models.CompanyNews, 0, len(articles))
	for _, a := range articles {
		news = append(news, models.CompanyNews{
			Ticker:    ticker,
			Title:     a.Title,
			Source:    a.Source,
			URL:       a.URL,
			Date:      a.PublishedAt,
			Sentiment: HeadlineSentiment(a.Title),
		})
	}
	return truncateNews(news, limit)
}

func truncateNews(news []models.CompanyNews, limit int) []models.CompanyNews {
	if limit > 0 && len(news) > limit {
		return news[:limit]
	}
	return news
}

func (c *Client) GetInsiderTrades(ctx context.Context, ticker string, endDate time.Time, limit int) []models.InsiderTrade {
	if !c.enabled("get_insider_trades", ticker) {
		return nil
	}
	if IsCrypto(ticker) {
		c.log.Debugw("no insider trades for crypto pairs", "ticker", ticker)
		return nil
	}
	if !c.finnhub.Enabled() {
		c.log.Debugw("insider trades need a finnhub key", "ticker", ticker)
		return nil
	}

	trades, err := c.finnhub.GetInsiderTransactions(ctx, ticker, endDate.AddDate(-1, 0, 0), endDate)
	if err != nil {
		c.log.Warnw("failed to fetch insider trades", "ticker", ticker, "error", err)
		return nil
	}
	if limit > 0 && len(trades) > limit {
		trades = trades[:limit]
	}
	return trades
}

func (c *Client) GetRedditPosts(ctx context.Context, ticker string, limit int) []models.RedditPost {
	if !c.enabled("get_reddit_posts", ticker) {
		return nil
	}
	if IsCrypto(ticker) {
		ticker = CoinSymbol(ticker)
	}
	posts, err := c.reddit.GetTickerPosts(ctx, ticker, limit)
	if err != nil {
		c.log.Warnw("failed to fetch reddit posts", "ticker", ticker, "error", err)
		return nil
	}
	return posts
}

func (c *Client) cryptoPrices(ctx context.Context, ticker string, start, end time.Time) []models.Price {
	prices, err := c.coingecko.GetDailyPrices(ctx, ticker, start, end)
	if err == nil {
		return prices
	}
	c.log.Warnw("coingecko prices failed, trying yahoo", "ticker", ticker, "error", err)

	prices, err = c.yahoo.GetHistoricalData(ctx, CryptoTicker(ticker), start, end)
	if err != nil {
		c.log.Warnw("failed to fetch crypto prices", "ticker", ticker, "error", err)
		return nil
	}
	return prices
}

func (c *Client) cryptoMetrics(ctx context.Context, ticker, period string) []models.FinancialMetrics {
	coin, err := c.coingecko.GetCoin(ctx, ticker)
	if err == nil {
		return []models.FinancialMetrics{coin.Metrics(ticker, period)}
	}
	c.log.Warnw("coingecko metrics failed, trying yahoo", "ticker", ticker, "error", err)

	snap, err := c.yahoo.GetCrypto(ctx, ticker)
	if err != nil {
		c.log.Warnw("failed to fetch crypto metrics", "ticker", ticker, "error", err)
		return nil
	}
	return []models.FinancialMetrics{snap.Metrics(period)}
}

func (c *Client) cryptoMarketCap(ctx context.Context, ticker string) (float64, bool) {
	coin, err := c.coingecko.GetCoin(ctx, ticker)
	if err == nil {
		if mc := coin.MarketData.MarketCap["usd"]; mc > 0 {
			return mc, true
		}
	}

	snap, yerr := c.yahoo.GetCrypto(ctx, ticker)
	if yerr == nil && snap.MarketCap() > 0 {
		return snap.MarketCap(), true
	}
	c.log.Warnw("crypto market cap unavailable", "ticker", ticker, "coingecko_error", err, "yahoo_error", yerr)
	return 0, false
}
