package dataflows

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	lpconfig "github.com/longportapp/openapi-go/config"
	"github.com/longportapp/openapi-go/quote"
	"github.com/shopspring/decimal"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/metrics"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
)

// LongportClient serves Hong Kong and mainland listings.
type LongportClient struct {
	quoteCtx *quote.QuoteContext
	cache    Cache
}

func NewLongportClient(cfg *Config) (*LongportClient, error) {
	if !cfg.HasLongport() {
		return nil, errors.New("longport API credentials not configured")
	}

	conf, err := lpconfig.New(lpconfig.WithConfigKey(cfg.LongportAppKey, cfg.LongportAppSecret, cfg.LongportAccessToken))
	if err != nil {
		return nil, err
	}

	quoteContext, err := quote.NewFromCfg(conf)
	if err != nil {
		return nil, err
	}

	return &LongportClient{
		quoteCtx: quoteContext,
		cache:    NewCache(cfg, "longport", 12*time.Hour),
	}, nil
}

// longportSymbol converts a Yahoo-style ticker to Longport's form:
// 0700.HK -> 700.HK, 600519.SS -> 600519.SH.
func longportSymbol(ticker string) string {
	t := FormatTicker(ticker)
	switch Market(t) {
	case "HK":
		code := t[:len(t)-3]
		for len(code) > 1 && code[0] == '0' {
			code = code[1:]
		}
		return code + ".HK"
	case "SS":
		return t[:len(t)-3] + ".SH"
	}
	return t
}

func (lpc *LongportClient) GetEquity(ctx context.Context, ticker string) (*EquitySnapshot, error) {
	if lpc.quoteCtx == nil {
		return nil, errors.New("quote context is nil")
	}
	symbol := longportSymbol(ticker)

	var cached EquitySnapshot
	if lpc.cache.Get(ctx, "longport", "static_info", symbol, &cached) {
		metrics.RecordCacheHit("longport", "static_info")
		return &cached, nil
	}

	infos, err := lpc.quoteCtx.StaticInfo(ctx, []string{symbol})
	metrics.RecordProviderCall("longport", "static_info", err)
	if err != nil {
		return nil, fmt.Errorf("longport static info %s: %w", symbol, err)
	}
	if len(infos) == 0 || infos[0] == nil {
		return nil, ErrNoData
	}
	info := infos[0]

	snap := &EquitySnapshot{Ticker: FormatTicker(ticker)}
	snap.SharesOutstanding, _ = toFloat(info.TotalShares)
	snap.EPS, _ = toFloat(info.EpsTtm)
	if snap.EPS == 0 {
		snap.EPS, _ = toFloat(info.Eps)
	}
	snap.BookValuePerShare, _ = toFloat(info.Bps)

	if sticks, err := lpc.GetSticksWithDay(ctx, ticker, 1); err == nil && len(sticks) > 0 {
		snap.Price = sticks[len(sticks)-1].Close.InexactFloat64()
	}
	if snap.Price > 0 && snap.SharesOutstanding > 0 {
		snap.MarketCap = snap.Price * snap.SharesOutstanding
	}
	if snap.Price > 0 && snap.EPS != 0 {
		snap.TrailingPE = snap.Price / snap.EPS
	}
	if snap.Price > 0 && snap.BookValuePerShare > 0 {
		snap.PriceToBook = snap.Price / snap.BookValuePerShare
	}

	lpc.cache.Set(ctx, "longport", "static_info", symbol, snap)
	return snap, nil
}

// GetSticksWithDay returns the latest count daily bars, oldest first.
func (lpc *LongportClient) GetSticksWithDay(ctx context.Context, ticker string, count int) ([]models.Price, error) {
	if lpc.quoteCtx == nil {
		return nil, errors.New("quote context is nil")
	}
	symbol := longportSymbol(ticker)

	sticks, err := lpc.quoteCtx.Candlesticks(ctx, symbol, quote.PeriodDay, int32(count), quote.AdjustTypeNo)
	metrics.RecordProviderCall("longport", "candlesticks", err)
	if err != nil {
		return nil, fmt.Errorf("longport candlesticks %s: %w", symbol, err)
	}

	out := make([]models.Price, 0, len(sticks))
	for _, s := range sticks {
		if s == nil {
			continue
		}
		out = append(out, models.Price{
			Ticker: FormatTicker(ticker),
			Time:   time.Unix(s.Timestamp, 0).UTC(),
			Open:   toDecimal(s.Open),
			High:   toDecimal(s.High),
			Low:    toDecimal(s.Low),
			Close:  toDecimal(s.Close),
			Volume: s.Volume,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func toDecimal(v interface{}) decimal.Decimal {
	switch d := v.(type) {
	case decimal.Decimal:
		return d
	case *decimal.Decimal:
		if d != nil {
			return *d
		}
	}
	if f, ok := toFloat(v); ok {
		return decimal.NewFromFloat(f)
	}
	return decimal.Zero
}

func decimalToFloat(v interface{}) (float64, bool) {
	switch d := v.(type) {
	case decimal.Decimal:
		return d.InexactFloat64(), true
	case *decimal.Decimal:
		if d == nil {
			return 0, false
		}
		return d.InexactFloat64(), true
	}
	return 0, false
}
