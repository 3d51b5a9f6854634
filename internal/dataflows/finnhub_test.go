package dataflows

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
)

func testConfig() *Config {
	return &Config{
		CacheEnabled:    false,
		FinnhubAPIKey:   "test-key",
		RedditUserAgent: "test-agent",
		OnlineTools:     true,
	}
}

func newFinnhubServer(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		body, ok := routes[r.URL.Path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFinnhubCompanyNews(t *testing.T) {
	srv := newFinnhubServer(t, map[string]string{
		"/company-news": `[
			{"datetime": 1700000000, "headline": "Apple shares surge", "source": "Reuters", "url": "https://a"},
			{"datetime": 1700100000, "headline": "Apple faces lawsuit", "source": "Bloomberg", "url": "https://b"}
		]`,
	})
	fc := NewFinnhubClient(testConfig())
	fc.SetBaseURL(srv.URL)

	news, err := fc.GetCompanyNews(context.Background(), "aapl", time.Now().AddDate(0, -1, 0), time.Now())
	require.NoError(t, err)
	require.Len(t, news, 2)
	assert.Equal(t, "Apple faces lawsuit", news[0].Title, "newest first")
	assert.Equal(t, "negative", news[0].Sentiment)
	assert.Equal(t, "positive", news[1].Sentiment)
	assert.Equal(t, "AAPL", news[1].Ticker)
}

func TestFinnhubMissingKey(t *testing.T) {
	cfg := testConfig()
	cfg.FinnhubAPIKey = ""
	fc := NewFinnhubClient(cfg)
	assert.False(t, fc.Enabled())

	_, err := fc.GetCompanyNews(context.Background(), "AAPL", time.Now(), time.Now())
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestFinnhubClientErrorIsNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	fc := NewFinnhubClient(testConfig())
	fc.SetBaseURL(srv.URL)
	_, err := fc.GetBasicFinancials(context.Background(), "AAPL")
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestFinnhubInsiderTransactions(t *testing.T) {
	srv := newFinnhubServer(t, map[string]string{
		"/stock/insider-transactions": `{"data": [
			{"name": "COOK TIMOTHY", "change": -5000, "transactionDate": "2024-03-01", "transactionPrice": 180.5},
			{"name": "LEVINSON ARTHUR", "change": 1000, "transactionDate": "2024-04-01", "transactionPrice": 170},
			{"name": "BROKEN", "change": 1, "transactionDate": "n/a"}
		]}`,
	})
	fc := NewFinnhubClient(testConfig())
	fc.SetBaseURL(srv.URL)

	trades, err := fc.GetInsiderTransactions(context.Background(), "AAPL", time.Now().AddDate(-1, 0, 0), time.Now())
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "LEVINSON ARTHUR", trades[0].Name)
	assert.Equal(t, -5000.0, trades[1].TransactionShares)
}

func TestBasicFinancialsMetrics(t *testing.T) {
	srv := newFinnhubServer(t, map[string]string{
		"/stock/metric": `{
			"metric": {"marketCapitalization": 2500000},
			"series": {"annual": {
				"pe": [{"period": "2024-09-28", "v": 30.1}, {"period": "2023-09-30", "v": 28.4}, {"period": "2025-09-27", "v": 35}],
				"currentRatio": [{"period": "2024-09-28", "v": 0.87}],
				"eps": [{"period": "2024-09-28", "v": 6.1}, {"period": "2023-09-30", "v": 6.13}]
			}}
		}`,
	})
	fc := NewFinnhubClient(testConfig())
	fc.SetBaseURL(srv.URL)

	basic, err := fc.GetBasicFinancials(context.Background(), "AAPL")
	require.NoError(t, err)

	mc, ok := basic.MarketCap()
	require.True(t, ok)
	assert.InDelta(t, 2.5e12, mc, 1)

	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	m := basic.Metrics("AAPL", end, "annual", 5)
	require.Len(t, m, 2, "period after end date dropped")
	assert.Equal(t, "2024-09-28", m[0].ReportPeriod)
	require.NotNil(t, m[0].CurrentRatio)
	assert.Equal(t, 0.87, *m[0].CurrentRatio)
	require.NotNil(t, m[0].MarketCap)
	assert.Nil(t, m[1].CurrentRatio)
	assert.Nil(t, m[1].MarketCap)

	assert.Len(t, basic.Metrics("AAPL", end, "annual", 1), 1)
}

func TestLineItemsFromReports(t *testing.T) {
	var r1, r2 FinnhubReportedFinancial
	r1.EndDate = "2023-09-30 00:00:00"
	r1.Report.BS = []reportedConcept{
		{Concept: "us-gaap_AssetsCurrent", Value: 143566.0},
		{Concept: "us-gaap_LiabilitiesCurrent", Value: 145308.0},
		{Concept: "us-gaap_StockholdersEquity", Value: 62146.0},
		{Concept: "us-gaap_CommonStockSharesOutstanding", Value: 15550.0},
		{Concept: "us-gaap_LongTermDebtNoncurrent", Value: 95281.0},
		{Concept: "us-gaap_CommercialPaper", Value: 5985.0},
	}
	r1.Report.IC = []reportedConcept{{Concept: "us-gaap_NetIncomeLoss", Value: "96995"}}
	r1.Report.CF = []reportedConcept{
		{Concept: "us-gaap_PaymentsOfDividends", Value: 15025.0},
		{Concept: "us-gaap_NetCashProvidedByUsedInOperatingActivities", Value: 110543.0},
		{Concept: "us-gaap_PaymentsToAcquirePropertyPlantAndEquipment", Value: 10959.0},
	}
	r2.EndDate = "2022-09-24 00:00:00"
	r2.Report.IC = []reportedConcept{{Concept: "us-gaap_NetIncomeLoss", Value: 99803.0}}

	fields := []string{
		models.FieldCurrentAssets, models.FieldCurrentLiabilities, models.FieldNetIncome,
		models.FieldDividends, models.FieldTotalDebt, models.FieldBookValuePerShare,
		models.FieldFreeCashFlow, models.FieldRevenue,
	}
	end := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	items := LineItemsFromReports("AAPL", []FinnhubReportedFinancial{r2, r1}, fields, end, "annual", 10)
	require.Len(t, items, 2)

	latest := items[0]
	assert.Equal(t, "2023-09-30", latest.ReportPeriod)
	v, ok := latest.Get(models.FieldNetIncome)
	require.True(t, ok)
	assert.Equal(t, 96995.0, v)

	v = latest.Value(models.FieldDividends)
	assert.Equal(t, -15025.0, v)
	v = latest.Value(models.FieldTotalDebt)
	assert.Equal(t, 95281.0+5985.0, v)
	v = latest.Value(models.FieldBookValuePerShare)
	assert.InDelta(t, 62146.0/15550.0, v, 1e-9)
	v = latest.Value(models.FieldFreeCashFlow)
	assert.Equal(t, 110543.0-10959.0, v)

	_, ok = latest.Get(models.FieldRevenue)
	assert.False(t, ok)
	_, present := latest.Values[models.FieldRevenue]
	assert.True(t, present, "requested fields are always present")

	older := LineItemsFromReports("AAPL", []FinnhubReportedFinancial{r1, r2}, fields, time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), "annual", 10)
	require.Len(t, older, 1)
	assert.Equal(t, "2022-09-24", older[0].ReportPeriod)
}

func TestToFloat(t *testing.T) {
	for _, in := range []interface{}{1.5, float32(1.5), "1.5", " 1.5 "} {
		v, ok := toFloat(in)
		assert.True(t, ok)
		assert.Equal(t, 1.5, v)
	}
	v, ok := toFloat(int64(3))
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)
	_, ok = toFloat("n/a")
	assert.False(t, ok)
	_, ok = toFloat(nil)
	assert.False(t, ok)
}
