package dataflows

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/metrics"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// FinnhubClient handles Finnhub API operations
type FinnhubClient struct {
	client  *resty.Client
	cache   Cache
	limiter *Limiter
	apiKey  string
}

// NewFinnhubClient creates a new Finnhub client
func NewFinnhubClient(cfg *Config) *FinnhubClient {
	client := resty.New()
	client.SetBaseURL(finnhubBaseURL)
	client.SetTimeout(30 * time.Second)

	return &FinnhubClient{
		client:  client,
		cache:   NewCache(cfg, "finnhub", 6*time.Hour),
		limiter: NewLimiter("finnhub", cfg.FinnhubRequestsPerMinute),
		apiKey:  cfg.FinnhubAPIKey,
	}
}

// SetBaseURL points the client at another host.
func (fc *FinnhubClient) SetBaseURL(url string) {
	fc.client.SetBaseURL(url)
}

func (fc *FinnhubClient) Enabled() bool {
	return fc.apiKey != ""
}

// get fetches endpoint into out through the cache, limiter and retry.
func (fc *FinnhubClient) get(ctx context.Context, method, endpoint string, params map[string]string, out interface{}) error {
	if fc.apiKey == "" {
		return ErrMissingAPIKey
	}

	if fc.cache.Get(ctx, "finnhub", method, params, out) {
		metrics.RecordCacheHit("finnhub", method)
		return nil
	}

	err := withRetry(ctx, func() error {
		if err := fc.limiter.Wait(ctx); err != nil {
			return err
		}

		query := make(map[string]string, len(params)+1)
		for k, v := range params {
			query[k] = v
		}
		query["token"] = fc.apiKey

		resp, err := fc.client.R().
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
	metrics.RecordProviderCall("finnhub", method, err)
	if err != nil {
		return err
	}

	fc.cache.Set(ctx, "finnhub", method, params, out)
	return nil
}

// FinnhubNews represents news from Finnhub API
type FinnhubNews struct {
	Category string `json:"category"`
	DateTime int64  `json:"datetime"`
	Headline string `json:"headline"`
	ID       int64  `json:"id"`
	Related  string `json:"related"`
	Source   string `json:"source"`
	Summary  string `json:"summary"`
	URL      string `json:"url"`
}

// GetCompanyNews gets news articles for a specific company, newest first.
func (fc *FinnhubClient) GetCompanyNews(ctx context.Context, symbol string, from, to time.Time) ([]models.CompanyNews, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	var raw []FinnhubNews
	err := fc.get(ctx, "company_news", "/company-news", map[string]string{
		"symbol": symbol,
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
	}, &raw)
	if err != nil {
		return nil, err
	}

	result := make([]models.CompanyNews, 0, len(raw))
	for _, n := range raw {
		result = append(result, models.CompanyNews{
			Ticker:    symbol,
			Title:     n.Headline,
			Source:    n.Source,
			URL:       n.URL,
			Date:      time.Unix(n.DateTime, 0).UTC(),
			Sentiment: HeadlineSentiment(n.Headline),
		})
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })
	return result, nil
}

// FinnhubInsiderTransaction represents insider transaction data
type FinnhubInsiderTransaction struct {
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Share            int64   `json:"share"`
	Change           int64   `json:"change"`
	FilingDate       string  `json:"filingDate"`
	TransactionDate  string  `json:"transactionDate"`
	TransactionCode  string  `json:"transactionCode"`
	TransactionPrice float64 `json:"transactionPrice"`
}

// GetInsiderTransactions gets insider trading data for a company
func (fc *FinnhubClient) GetInsiderTransactions(ctx context.Context, symbol string, from, to time.Time) ([]models.InsiderTrade, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	var apiResponse struct {
		Data []FinnhubInsiderTransaction `json:"data"`
	}
	err := fc.get(ctx, "insider_transactions", "/stock/insider-transactions", map[string]string{
		"symbol": symbol,
		"from":   from.Format("2006-01-02"),
		"to":     to.Format("2006-01-02"),
	}, &apiResponse)
	if err != nil {
		return nil, err
	}

	result := make([]models.InsiderTrade, 0, len(apiResponse.Data))
	for _, tx := range apiResponse.Data {
		date, err := ParseDateString(tx.TransactionDate)
		if err != nil {
			continue
		}
		result = append(result, models.InsiderTrade{
			Ticker:            symbol,
			Name:              tx.Name,
			TransactionDate:   date,
			TransactionShares: float64(tx.Change),
			TransactionPrice:  tx.TransactionPrice,
		})
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].TransactionDate.After(result[j].TransactionDate) })
	return result, nil
}

type seriesPoint struct {
	Period string  `json:"period"`
	V      float64 `json:"v"`
}

// FinnhubBasicFinancials is the /stock/metric payload.
type FinnhubBasicFinancials struct {
	Metric map[string]interface{} `json:"metric"`
	Series struct {
		Annual    map[string][]seriesPoint `json:"annual"`
		Quarterly map[string][]seriesPoint `json:"quarterly"`
	} `json:"series"`
}

func (fc *FinnhubClient) GetBasicFinancials(ctx context.Context, symbol string) (*FinnhubBasicFinancials, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	var out FinnhubBasicFinancials
	err := fc.get(ctx, "basic_financials", "/stock/metric", map[string]string{
		"symbol": NormalizeSymbol(symbol),
		"metric": "all",
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// MarketCap returns the current capitalisation in dollars.
func (b *FinnhubBasicFinancials) MarketCap() (float64, bool) {
	v, ok := toFloat(b.Metric["marketCapitalization"])
	if !ok || v <= 0 {
		return 0, false
	}
	return v * 1e6, true
}

var metricSeries = map[string]func(m *models.FinancialMetrics, v float64){
	"pe":                func(m *models.FinancialMetrics, v float64) { m.PriceToEarningsRatio = models.Float(v) },
	"pb":                func(m *models.FinancialMetrics, v float64) { m.PriceToBookRatio = models.Float(v) },
	"currentRatio":      func(m *models.FinancialMetrics, v float64) { m.CurrentRatio = models.Float(v) },
	"totalDebtToEquity": func(m *models.FinancialMetrics, v float64) { m.DebtToEquity = models.Float(v) },
	"roe":               func(m *models.FinancialMetrics, v float64) { m.ReturnOnEquity = models.Float(v) },
	"netMargin":         func(m *models.FinancialMetrics, v float64) { m.NetMargin = models.Float(v) },
	"eps":               func(m *models.FinancialMetrics, v float64) { m.EarningsPerShare = models.Float(v) },
	"bookValue":         func(m *models.FinancialMetrics, v float64) { m.BookValuePerShare = models.Float(v) },
}

// Metrics folds the time series into per-period records, newest first,
// dropping periods after endDate.
func (b *FinnhubBasicFinancials) Metrics(ticker string, endDate time.Time, period string, limit int) []models.FinancialMetrics {
	series := b.Series.Annual
	if period == "quarterly" {
		series = b.Series.Quarterly
	}

	byPeriod := make(map[string]*models.FinancialMetrics)
	for name, apply := range metricSeries {
		for _, p := range series[name] {
			date, err := ParseDateString(p.Period)
			if err != nil || date.After(endDate) {
				continue
			}
			m, ok := byPeriod[p.Period]
			if !ok {
				m = &models.FinancialMetrics{Ticker: ticker, ReportPeriod: p.Period, Period: period}
				byPeriod[p.Period] = m
			}
			apply(m, p.V)
		}
	}

	periods := make([]string, 0, len(byPeriod))
	for p := range byPeriod {
		periods = append(periods, p)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(periods)))
	if limit > 0 && len(periods) > limit {
		periods = periods[:limit]
	}

	out := make([]models.FinancialMetrics, 0, len(periods))
	for _, p := range periods {
		out = append(out, *byPeriod[p])
	}
	if len(out) > 0 {
		if mc, ok := b.MarketCap(); ok {
			out[0].MarketCap = models.Float(mc)
		}
	}
	return out
}

// FinnhubReportedFinancial is one filing of /stock/financials-reported.
type FinnhubReportedFinancial struct {
	Year    int    `json:"year"`
	Quarter int    `json:"quarter"`
	Form    string `json:"form"`
	EndDate string `json:"endDate"`
	Report  struct {
		BS []reportedConcept `json:"bs"`
		IC []reportedConcept `json:"ic"`
		CF []reportedConcept `json:"cf"`
	} `json:"report"`
}

type reportedConcept struct {
	Concept string      `json:"concept"`
	Label   string      `json:"label"`
	Unit    string      `json:"unit"`
	Value   interface{} `json:"value"`
}

func (fc *FinnhubClient) GetFinancialsReported(ctx context.Context, symbol, freq string) ([]FinnhubReportedFinancial, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	if freq == "" {
		freq = "annual"
	}
	var out struct {
		Data []FinnhubReportedFinancial `json:"data"`
	}
	err := fc.get(ctx, "financials_reported", "/stock/financials-reported", map[string]string{
		"symbol": NormalizeSymbol(symbol),
		"freq":   freq,
	}, &out)
	if err != nil {
		return nil, err
	}
	return out.Data, nil
}

// us-gaap concepts per line item field, in order of preference.
var conceptFields = map[string][]string{
	models.FieldRevenue:                {"Revenues", "RevenueFromContractWithCustomerExcludingAssessedTax", "SalesRevenueNet"},
	models.FieldNetIncome:              {"NetIncomeLoss", "ProfitLoss"},
	models.FieldEarningsPerShare:       {"EarningsPerShareDiluted", "EarningsPerShareBasic"},
	models.FieldOutstandingShares:      {"CommonStockSharesOutstanding", "WeightedAverageNumberOfDilutedSharesOutstanding", "WeightedAverageNumberOfSharesOutstandingBasic"},
	models.FieldCurrentAssets:          {"AssetsCurrent"},
	models.FieldCurrentLiabilities:     {"LiabilitiesCurrent"},
	models.FieldTotalAssets:            {"Assets"},
	models.FieldTotalLiabilities:       {"Liabilities"},
	models.FieldCashAndEquivalents:     {"CashAndCashEquivalentsAtCarryingValue", "CashCashEquivalentsRestrictedCashAndRestrictedCashEquivalents"},
	models.FieldDividends:              {"PaymentsOfDividends", "PaymentsOfDividendsCommonStock"},
	models.FieldResearchAndDevelopment: {"ResearchAndDevelopmentExpense"},
	models.FieldOperatingIncome:        {"OperatingIncomeLoss"},
	models.FieldShareholdersEquity:     {"StockholdersEquity"},
	models.FieldCapitalExpenditure:     {"PaymentsToAcquirePropertyPlantAndEquipment"},
}

var debtConcepts = []string{"LongTermDebtNoncurrent", "LongTermDebtCurrent", "CommercialPaper", "ShortTermBorrowings"}

var goodwillConcepts = []string{"Goodwill", "IntangibleAssetsNetExcludingGoodwill"}

// LineItemsFromReports maps reported filings to line items, newest first. Fields that
// the filing does not report are present with a nil value.
func LineItemsFromReports(ticker string, reports []FinnhubReportedFinancial, fields []string, endDate time.Time, period string, limit int) []models.LineItem {
	sort.SliceStable(reports, func(i, j int) bool { return reports[i].EndDate > reports[j].EndDate })

	var out []models.LineItem
	for _, r := range reports {
		end, err := ParseDateString(strings.TrimSpace(r.EndDate))
		if err != nil || end.After(endDate) {
			continue
		}

		concepts := make(map[string]float64)
		for _, section := range [][]reportedConcept{r.Report.BS, r.Report.IC, r.Report.CF} {
			for _, c := range section {
				name := c.Concept
				if i := strings.IndexByte(name, '_'); i >= 0 {
					name = name[i+1:]
				}
				if v, ok := toFloat(c.Value); ok {
					if _, seen := concepts[name]; !seen {
						concepts[name] = v
					}
				}
			}
		}

		li := models.NewLineItem(ticker, end.Format("2006-01-02"), period)
		for _, field := range fields {
			li.Values[field] = nil
			if v, ok := deriveField(field, concepts); ok {
				li.Set(field, v)
			}
		}
		out = append(out, li)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

func deriveField(field string, c map[string]float64) (float64, bool) {
	first := func(names []string) (float64, bool) {
		for _, n := range names {
			if v, ok := c[n]; ok {
				return v, true
			}
		}
		return 0, false
	}
	sum := func(names []string) (float64, bool) {
		var total float64
		found := false
		for _, n := range names {
			if v, ok := c[n]; ok {
				total += v
				found = true
			}
		}
		return total, found
	}

	switch field {
	case models.FieldTotalDebt:
		return sum(debtConcepts)
	case models.FieldGoodwillAndIntangibles:
		return sum(goodwillConcepts)
	case models.FieldTotalLiabilities:
		if v, ok := first(conceptFields[field]); ok {
			return v, true
		}
		total, ok1 := c["LiabilitiesAndStockholdersEquity"]
		equity, ok2 := c["StockholdersEquity"]
		if ok1 && ok2 {
			return total - equity, true
		}
		return 0, false
	case models.FieldDividends, models.FieldCapitalExpenditure:
		// reported as positive payments; line items carry outflows as negatives
		v, ok := first(conceptFields[field])
		return -abs(v), ok
	case models.FieldBookValuePerShare:
		equity, ok1 := c["StockholdersEquity"]
		shares, ok2 := first(conceptFields[models.FieldOutstandingShares])
		if ok1 && ok2 && shares > 0 {
			return equity / shares, true
		}
		return 0, false
	case models.FieldFreeCashFlow:
		ocf, ok := c["NetCashProvidedByUsedInOperatingActivities"]
		if !ok {
			return 0, false
		}
		capex, _ := first(conceptFields[models.FieldCapitalExpenditure])
		return ocf - abs(capex), true
	}
	return first(conceptFields[field])
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// toFloat reads numbers the upstream SDKs and JSON payloads hand back.
func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return decimalToFloat(v)
}
