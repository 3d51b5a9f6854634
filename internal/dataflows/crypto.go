package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/piquette/finance-go/crypto"
	"github.com/shopspring/decimal"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/metrics"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
)

const coinGeckoBaseURL = "https://api.coingecko.com/api/v3"

// IsCrypto reports whether ticker is a USD crypto pair such as BTC-USD.
func IsCrypto(ticker string) bool {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	return strings.HasSuffix(t, "-USD") || strings.HasSuffix(t, "/USD")
}

// CryptoTicker turns a bare coin symbol into its USD pair. BTC/USD becomes
// BTC-USD so Yahoo accepts it; tickers already quoted in USD keep their base.
func CryptoTicker(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if t == "" {
		return t
	}
	if i := strings.Index(t, "/USD"); i >= 0 {
		return t[:i] + "-USD" + t[i+len("/USD"):]
	}
	if strings.Contains(t, "-USD") {
		return t
	}
	return t + "-USD"
}

// CoinSymbol strips the USD quote from a pair: BTC-USD -> BTC.
func CoinSymbol(ticker string) string {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	t = strings.TrimSuffix(t, "-USD")
	return strings.TrimSuffix(t, "/USD")
}

var coinIDs = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"DOGE": "dogecoin",
	"ADA":  "cardano",
	"XRP":  "ripple",
	"BNB":  "binancecoin",
	"LTC":  "litecoin",
	"DOT":  "polkadot",
	"AVAX": "avalanche-2",
}

// CoinID maps a pair to its CoinGecko id. Unknown symbols are passed through
// lower-cased.
func CoinID(ticker string) string {
	sym := CoinSymbol(ticker)
	if id, ok := coinIDs[sym]; ok {
		return id
	}
	return strings.ToLower(sym)
}

// CoinGeckoClient reads coin market data from CoinGecko.
type CoinGeckoClient struct {
	client *resty.Client
	cache  Cache
	apiKey string
}

func NewCoinGeckoClient(cfg *Config) *CoinGeckoClient {
	client := resty.New()
	client.SetBaseURL(coinGeckoBaseURL)
	client.SetTimeout(30 * time.Second)

	return &CoinGeckoClient{
		client: client,
		cache:  NewCache(cfg, "coingecko", time.Hour),
		apiKey: cfg.CoinGeckoAPIKey,
	}
}

// SetBaseURL points the client at another host.
func (cg *CoinGeckoClient) SetBaseURL(url string) {
	cg.client.SetBaseURL(url)
}

func (cg *CoinGeckoClient) get(ctx context.Context, method, endpoint string, params map[string]string, out interface{}) error {
	key := map[string]string{"endpoint": endpoint}
	for k, v := range params {
		key[k] = v
	}
	if cg.cache.Get(ctx, "coingecko", method, key, out) {
		metrics.RecordCacheHit("coingecko", method)
		return nil
	}

	err := withRetry(ctx, func() error {
		query := make(map[string]string, len(params)+1)
		for k, v := range params {
			query[k] = v
		}
		if cg.apiKey != "" {
			query["x_cg_pro_api_key"] = cg.apiKey
		}

		resp, err := cg.client.R().
			SetContext(ctx).
			SetQueryParams(query).
			Get(endpoint)
		if err != nil {
			return fmt.Errorf("failed to fetch %s: %w", endpoint, err)
		}
		if resp.StatusCode() != 200 {
			return &statusError{code: resp.StatusCode(), body: resp.String()}
		}
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("failed to parse %s response: %w", endpoint, err)
		}
		return nil
	})
	metrics.RecordProviderCall("coingecko", method, err)
	if err != nil {
		return err
	}

	cg.cache.Set(ctx, "coingecko", method, key, out)
	return nil
}

// CoinMarketData is the market_data block of /coins/{id}.
type CoinMarketData struct {
	CurrentPrice      map[string]float64 `json:"current_price"`
	MarketCap         map[string]float64 `json:"market_cap"`
	TotalVolume       map[string]float64 `json:"total_volume"`
	PriceChange24h    float64            `json:"price_change_24h"`
	PriceChangePct30d *float64           `json:"price_change_percentage_30d"`
	CirculatingSupply float64            `json:"circulating_supply"`
}

// Coin is the subset of /coins/{id} the analysts read.
type Coin struct {
	ID         string         `json:"id"`
	Symbol     string         `json:"symbol"`
	Name       string         `json:"name"`
	MarketData CoinMarketData `json:"market_data"`
}

// GetCoin fetches the current market snapshot of a coin.
func (cg *CoinGeckoClient) GetCoin(ctx context.Context, ticker string) (*Coin, error) {
	id := CoinID(ticker)
	if id == "" {
		return nil, fmt.Errorf("empty coin id for %q", ticker)
	}

	var coin Coin
	err := cg.get(ctx, "coin", "/coins/"+id, map[string]string{
		"localization":   "false",
		"tickers":        "false",
		"market_data":    "true",
		"community_data": "false",
		"developer_data": "false",
	}, &coin)
	if err != nil {
		return nil, err
	}
	return &coin, nil
}

type marketChart struct {
	Prices       [][2]float64 `json:"prices"`
	TotalVolumes [][2]float64 `json:"total_volumes"`
}

// GetDailyPrices builds daily bars, oldest first, from the USD market chart
// between start and end. Open and close are the first and last samples of
// each UTC day.
func (cg *CoinGeckoClient) GetDailyPrices(ctx context.Context, ticker string, start, end time.Time) ([]models.Price, error) {
	var chart marketChart
	err := cg.get(ctx, "market_chart", "/coins/"+CoinID(ticker)+"/market_chart/range", map[string]string{
		"vs_currency": "usd",
		"from":        fmt.Sprint(start.Unix()),
		"to":          fmt.Sprint(end.AddDate(0, 0, 1).Unix()),
	}, &chart)
	if err != nil {
		return nil, err
	}

	volumes := make(map[string]float64, len(chart.TotalVolumes))
	for _, v := range chart.TotalVolumes {
		volumes[msDay(v[0])] = v[1]
	}

	first, last := start.Format("2006-01-02"), end.Format("2006-01-02")
	bars := make(map[string]*models.Price)
	var days []string
	for _, p := range chart.Prices {
		d := msDay(p[0])
		if d < first || d > last {
			continue
		}
		px := decimal.NewFromFloat(p[1])
		bar, ok := bars[d]
		if !ok {
			t, _ := time.Parse("2006-01-02", d)
			bars[d] = &models.Price{Ticker: ticker, Time: t, Open: px, High: px, Low: px, Close: px}
			days = append(days, d)
			continue
		}
		if px.GreaterThan(bar.High) {
			bar.High = px
		}
		if px.LessThan(bar.Low) {
			bar.Low = px
		}
		bar.Close = px
	}
	if len(days) == 0 {
		return nil, ErrNoData
	}

	sort.Strings(days)
	out := make([]models.Price, 0, len(days))
	for _, d := range days {
		bar := bars[d]
		bar.Volume = int64(volumes[d])
		out = append(out, *bar)
	}
	return out, nil
}

func msDay(ms float64) string {
	return time.UnixMilli(int64(ms)).UTC().Format("2006-01-02")
}

// Metrics maps the coin onto a single metrics record. Ratios built on
// earnings or book value stay nil; growth is the 30-day price change.
func (c *Coin) Metrics(ticker, period string) models.FinancialMetrics {
	m := models.FinancialMetrics{Ticker: ticker, ReportPeriod: time.Now().Format("2006-01-02"), Period: period}
	if mc := c.MarketData.MarketCap["usd"]; mc > 0 {
		m.MarketCap = models.Float(mc)
	}
	if g := c.MarketData.PriceChangePct30d; g != nil {
		m.RevenueGrowth = models.Float(*g / 100)
	}
	return m
}

// LineItem maps requested fields onto crypto proxies: 24h volume for
// revenue, circulating supply for shares, market cap for assets and the
// 24h market value change for net income. Other fields stay nil.
func (c *Coin) LineItem(ticker string, fields []string, period string) models.LineItem {
	md := c.MarketData
	li := models.NewLineItem(ticker, time.Now().Format("2006-01-02"), period)
	for _, f := range fields {
		li.Values[f] = nil
		var v float64
		switch f {
		case models.FieldRevenue:
			v = md.TotalVolume["usd"]
		case models.FieldNetIncome:
			v = md.PriceChange24h * md.CirculatingSupply
		case models.FieldOutstandingShares:
			v = md.CirculatingSupply
		case models.FieldTotalAssets:
			v = md.MarketCap["usd"]
		}
		if v != 0 {
			li.Set(f, v)
		}
	}
	return li
}

// CryptoSnapshot is the latest Yahoo quote of a USD crypto pair.
type CryptoSnapshot struct {
	Ticker            string  `json:"ticker"`
	Price             float64 `json:"price"`
	CirculatingSupply float64 `json:"circulating_supply"`
	Volume24h         float64 `json:"volume_24h"`
	ChangePercent     float64 `json:"change_percent"`
}

// MarketCap is price times circulating supply.
func (s *CryptoSnapshot) MarketCap() float64 {
	return s.Price * s.CirculatingSupply
}

// GetCrypto returns the latest quote for a pair such as BTC-USD.
func (yf *YahooFinanceClient) GetCrypto(ctx context.Context, ticker string) (*CryptoSnapshot, error) {
	symbol := CryptoTicker(ticker)

	var cached CryptoSnapshot
	if yf.cache.Get(ctx, "yahoo", "crypto", symbol, &cached) {
		metrics.RecordCacheHit("yahoo", "crypto")
		return &cached, nil
	}

	var result *CryptoSnapshot
	err := withRetry(ctx, func() error {
		q, err := crypto.Get(symbol)
		if err != nil {
			return fmt.Errorf("failed to get crypto quote for %s: %w", symbol, err)
		}
		if q == nil {
			return fmt.Errorf("no crypto quote for %s", symbol)
		}
		result = &CryptoSnapshot{
			Ticker:            symbol,
			Price:             q.RegularMarketPrice,
			CirculatingSupply: float64(q.CirculatingSupply),
			Volume24h:         float64(q.VolumeLastDay),
			ChangePercent:     q.RegularMarketChangePercent,
		}
		return nil
	})
	metrics.RecordProviderCall("yahoo", "crypto", err)
	if err != nil {
		return nil, err
	}

	yf.cache.Set(ctx, "yahoo", "crypto", symbol, result)
	return result, nil
}

// Metrics converts a Yahoo crypto quote into a metrics record.
func (s *CryptoSnapshot) Metrics(period string) models.FinancialMetrics {
	m := models.FinancialMetrics{Ticker: s.Ticker, ReportPeriod: time.Now().Format("2006-01-02"), Period: period}
	if mc := s.MarketCap(); mc > 0 {
		m.MarketCap = models.Float(mc)
	}
	return m
}
