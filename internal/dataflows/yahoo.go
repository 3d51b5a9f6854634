package dataflows

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/metrics"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
)

// YahooFinanceClient handles Yahoo Finance data operations
type YahooFinanceClient struct {
	cache Cache
}

// NewYahooFinanceClient creates a new Yahoo Finance client
func NewYahooFinanceClient(cfg *Config) *YahooFinanceClient {
	return &YahooFinanceClient{
		cache: NewCache(cfg, "yahoo_finance", 24*time.Hour),
	}
}

// GetHistoricalData gets daily bars for symbol, oldest first.
func (yf *YahooFinanceClient) GetHistoricalData(ctx context.Context, symbol string, start, end time.Time) ([]models.Price, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = FormatTicker(NormalizeSymbol(symbol))

	cacheKey := map[string]interface{}{
		"symbol": symbol,
		"start":  start.Format("2006-01-02"),
		"end":    end.Format("2006-01-02"),
	}

	var cached []models.Price
	if yf.cache.Get(ctx, "yahoo", "historical", cacheKey, &cached) {
		metrics.RecordCacheHit("yahoo", "historical")
		return cached, nil
	}

	var result []models.Price
	err := withRetry(ctx, func() error {
		params := &chart.Params{
			Symbol:   symbol,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: datetime.OneDay,
		}

		iter := chart.Get(params)

		result = make([]models.Price, 0)
		for iter.Next() {
			bar := iter.Bar()
			result = append(result, models.Price{
				Ticker: symbol,
				Time:   time.Unix(int64(bar.Timestamp), 0).UTC(),
				Open:   bar.Open,
				High:   bar.High,
				Low:    bar.Low,
				Close:  bar.Close,
				Volume: int64(bar.Volume),
			})
		}

		if err := iter.Err(); err != nil {
			return fmt.Errorf("failed to get historical data for %s: %w", symbol, err)
		}
		return nil
	})
	metrics.RecordProviderCall("yahoo", "historical", err)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, ErrNoData
	}

	sort.SliceStable(result, func(i, j int) bool { return result[i].Time.Before(result[j].Time) })
	yf.cache.Set(ctx, "yahoo", "historical", cacheKey, result)
	return result, nil
}

// GetEquity returns the latest size and per-share data for symbol.
func (yf *YahooFinanceClient) GetEquity(ctx context.Context, symbol string) (*EquitySnapshot, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = FormatTicker(NormalizeSymbol(symbol))

	var cached EquitySnapshot
	if yf.cache.Get(ctx, "yahoo", "equity", symbol, &cached) {
		metrics.RecordCacheHit("yahoo", "equity")
		return &cached, nil
	}

	var result *EquitySnapshot
	err := withRetry(ctx, func() error {
		e, err := equity.Get(symbol)
		if err != nil {
			return fmt.Errorf("failed to get equity for %s: %w", symbol, err)
		}
		if e == nil {
			return fmt.Errorf("no equity data for %s", symbol)
		}

		result = &EquitySnapshot{
			Ticker:            symbol,
			Price:             e.RegularMarketPrice,
			MarketCap:         float64(e.MarketCap),
			SharesOutstanding: float64(e.SharesOutstanding),
			EPS:               e.EpsTrailingTwelveMonths,
			BookValuePerShare: e.BookValue,
			TrailingPE:        e.TrailingPE,
			PriceToBook:       e.PriceToBook,
		}
		if result.MarketCap == 0 && result.Price > 0 && result.SharesOutstanding > 0 {
			result.MarketCap = result.Price * result.SharesOutstanding
		}
		return nil
	})
	metrics.RecordProviderCall("yahoo", "equity", err)
	if err != nil {
		return nil, err
	}

	yf.cache.Set(ctx, "yahoo", "equity", symbol, result)
	return result, nil
}

// Metrics converts a snapshot into a single-period metrics record.
func (s *EquitySnapshot) Metrics(period string) models.FinancialMetrics {
	m := models.FinancialMetrics{Ticker: s.Ticker, ReportPeriod: time.Now().Format("2006-01-02"), Period: period}
	if s.MarketCap > 0 {
		m.MarketCap = models.Float(s.MarketCap)
	}
	if s.TrailingPE != 0 {
		m.PriceToEarningsRatio = models.Float(s.TrailingPE)
	} else if s.EPS != 0 && s.Price > 0 {
		m.PriceToEarningsRatio = models.Float(s.Price / s.EPS)
	}
	if s.PriceToBook != 0 {
		m.PriceToBookRatio = models.Float(s.PriceToBook)
	}
	if s.EPS != 0 {
		m.EarningsPerShare = models.Float(s.EPS)
	}
	if s.BookValuePerShare != 0 {
		m.BookValuePerShare = models.Float(s.BookValuePerShare)
	}
	return m
}

// LineItem converts a snapshot into a single-period line item carrying the
// per-share fields it knows about.
func (s *EquitySnapshot) LineItem(fields []string, period string) models.LineItem {
	li := models.NewLineItem(s.Ticker, time.Now().Format("2006-01-02"), period)
	known := map[string]float64{
		models.FieldEarningsPerShare:  s.EPS,
		models.FieldBookValuePerShare: s.BookValuePerShare,
		models.FieldOutstandingShares: s.SharesOutstanding,
	}
	for _, f := range fields {
		li.Values[f] = nil
		if v, ok := known[f]; ok && v != 0 {
			li.Set(f, v)
		}
	}
	return li
}
