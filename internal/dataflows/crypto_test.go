package dataflows

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
)

const bitcoinCoin = `{
	"id": "bitcoin", "symbol": "btc", "name": "Bitcoin",
	"market_data": {
		"current_price": {"usd": 60000},
		"market_cap": {"usd": 1200000000000},
		"total_volume": {"usd": 30000000000},
		"price_change_24h": 1200,
		"price_change_percentage_30d": 12.5,
		"circulating_supply": 19700000
	}
}`

// 2024-03-01 00:00, 12:00, 23:00 and 2024-03-02 06:00 UTC in milliseconds.
const bitcoinChart = `{
	"prices": [
		[1709251200000, 61000],
		[1709294400000, 63000],
		[1709334000000, 62000],
		[1709359200000, 64000]
	],
	"total_volumes": [
		[1709251200000, 25000000000],
		[1709359200000, 27000000000]
	]
}`

func newCoinGeckoServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/coins/bitcoin":
			assert.Equal(t, "true", r.URL.Query().Get("market_data"))
			_, _ = w.Write([]byte(bitcoinCoin))
		case "/coins/bitcoin/market_chart/range":
			assert.Equal(t, "usd", r.URL.Query().Get("vs_currency"))
			_, _ = w.Write([]byte(bitcoinChart))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCryptoTickers(t *testing.T) {
	for in, want := range map[string]string{
		"btc":     "BTC-USD",
		"ETH-USD": "ETH-USD",
		"sol/usd": "SOL-USD",
		" doge ":  "DOGE-USD",
	} {
		assert.Equal(t, want, CryptoTicker(in), in)
	}
	assert.Empty(t, CryptoTicker(""))

	assert.True(t, IsCrypto("btc-usd"))
	assert.True(t, IsCrypto("ETH/USD"))
	assert.False(t, IsCrypto("AAPL"))
	assert.False(t, IsCrypto("0700.HK"))

	assert.Equal(t, "BTC", CoinSymbol("BTC-USD"))
	assert.Equal(t, "bitcoin", CoinID("BTC-USD"))
	assert.Equal(t, "avalanche-2", CoinID("avax/usd"))
	assert.Equal(t, "pepe", CoinID("PEPE-USD"))
}

func TestCoinGeckoCoin(t *testing.T) {
	var hits atomic.Int32
	srv := newCoinGeckoServer(t, &hits)
	cg := NewCoinGeckoClient(testConfig())
	cg.SetBaseURL(srv.URL)

	coin, err := cg.GetCoin(context.Background(), "BTC-USD")
	require.NoError(t, err)
	assert.Equal(t, "Bitcoin", coin.Name)

	m := coin.Metrics("BTC-USD", "ttm")
	require.NotNil(t, m.MarketCap)
	assert.Equal(t, 1.2e12, *m.MarketCap)
	require.NotNil(t, m.RevenueGrowth)
	assert.InDelta(t, 0.125, *m.RevenueGrowth, 1e-9)
	assert.Nil(t, m.PriceToEarningsRatio)

	li := coin.LineItem("BTC-USD", []string{
		models.FieldRevenue, models.FieldNetIncome, models.FieldOutstandingShares,
		models.FieldTotalAssets, models.FieldTotalDebt,
	}, "ttm")
	assert.Equal(t, 3e10, li.Value(models.FieldRevenue))
	assert.Equal(t, 1200*19700000.0, li.Value(models.FieldNetIncome))
	assert.Equal(t, 19700000.0, li.Value(models.FieldOutstandingShares))
	assert.Equal(t, 1.2e12, li.Value(models.FieldTotalAssets))
	_, ok := li.Get(models.FieldTotalDebt)
	assert.False(t, ok)
	assert.Contains(t, li.Values, models.FieldTotalDebt)
}

func TestCoinGeckoDailyPrices(t *testing.T) {
	var hits atomic.Int32
	srv := newCoinGeckoServer(t, &hits)
	cg := NewCoinGeckoClient(testConfig())
	cg.SetBaseURL(srv.URL)

	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	prices, err := cg.GetDailyPrices(context.Background(), "BTC-USD", start, start.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, prices, 2)

	first := prices[0]
	assert.Equal(t, start, first.Time)
	assert.Equal(t, "61000", first.Open.String())
	assert.Equal(t, "63000", first.High.String())
	assert.Equal(t, "61000", first.Low.String())
	assert.Equal(t, "62000", first.Close.String())
	assert.Equal(t, int64(25000000000), first.Volume)
	assert.Equal(t, "64000", prices[1].Close.String())

	_, err = cg.GetDailyPrices(context.Background(), "BTC-USD", start.AddDate(1, 0, 0), start.AddDate(1, 0, 1))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestCoinGeckoUnknownCoin(t *testing.T) {
	var hits atomic.Int32
	srv := newCoinGeckoServer(t, &hits)
	cg := NewCoinGeckoClient(testConfig())
	cg.SetBaseURL(srv.URL)

	_, err := cg.GetCoin(context.Background(), "NOPE-USD")
	var se *statusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusNotFound, se.code)
	assert.Equal(t, int32(1), hits.Load(), "client errors are not retried")
}

func TestClientRoutesCryptoToCoinGecko(t *testing.T) {
	var hits atomic.Int32
	srv := newCoinGeckoServer(t, &hits)
	c := NewClient(testConfig())
	c.coingecko.SetBaseURL(srv.URL)
	ctx := context.Background()
	end := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	assert.Len(t, c.GetPrices(ctx, "BTC-USD", end.AddDate(0, 0, -1), end), 2)

	metrics := c.GetFinancialMetrics(ctx, "BTC-USD", end, "ttm", 5)
	require.Len(t, metrics, 1)
	assert.Equal(t, 1.2e12, *metrics[0].MarketCap)

	items := c.SearchLineItems(ctx, "BTC-USD", []string{models.FieldOutstandingShares}, end, "ttm", 5)
	require.Len(t, items, 1)
	assert.Equal(t, 19700000.0, items[0].Value(models.FieldOutstandingShares))

	mc, ok := c.GetMarketCap(ctx, "BTC-USD", end)
	assert.True(t, ok)
	assert.Equal(t, 1.2e12, mc)

	assert.Empty(t, c.GetInsiderTrades(ctx, "BTC-USD", end, 10))
}
