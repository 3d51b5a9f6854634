package models

import "time"

// FinancialMetrics is one reporting period of derived ratios. Pointer fields
// are nil when the provider had no value.
type FinancialMetrics struct {
	Ticker               string   `json:"ticker"`
	ReportPeriod         string   `json:"report_period"`
	Period               string   `json:"period"`
	MarketCap            *float64 `json:"market_cap"`
	PriceToEarningsRatio *float64 `json:"price_to_earnings_ratio"`
	PriceToBookRatio     *float64 `json:"price_to_book_ratio"`
	CurrentRatio         *float64 `json:"current_ratio"`
	DebtToEquity         *float64 `json:"debt_to_equity"`
	ReturnOnEquity       *float64 `json:"return_on_equity"`
	NetMargin            *float64 `json:"net_margin"`
	RevenueGrowth        *float64 `json:"revenue_growth"`
	EarningsPerShare     *float64 `json:"earnings_per_share"`
	BookValuePerShare    *float64 `json:"book_value_per_share"`
}

// Line item field names understood by providers.
const (
	FieldRevenue                = "revenue"
	FieldNetIncome              = "net_income"
	FieldEarningsPerShare       = "earnings_per_share"
	FieldBookValuePerShare      = "book_value_per_share"
	FieldOutstandingShares      = "outstanding_shares"
	FieldCurrentAssets          = "current_assets"
	FieldCurrentLiabilities     = "current_liabilities"
	FieldTotalAssets            = "total_assets"
	FieldTotalLiabilities       = "total_liabilities"
	FieldTotalDebt              = "total_debt"
	FieldCashAndEquivalents     = "cash_and_equivalents"
	FieldDividends              = "dividends_and_other_cash_distributions"
	FieldGoodwillAndIntangibles = "goodwill_and_intangible_assets"
	FieldResearchAndDevelopment = "research_and_development"
	FieldOperatingIncome        = "operating_income"
	FieldFreeCashFlow           = "free_cash_flow"
	FieldCapitalExpenditure     = "capital_expenditure"
	FieldShareholdersEquity     = "shareholders_equity"
)

// LineItem is one reporting period of raw statement values, keyed by field
// name. A requested field missing from the source is stored as nil.
type LineItem struct {
	Ticker       string              `json:"ticker"`
	ReportPeriod string              `json:"report_period"`
	Period       string              `json:"period"`
	Values       map[string]*float64 `json:"values"`
}

func NewLineItem(ticker, reportPeriod, period string) LineItem {
	return LineItem{
		Ticker:       ticker,
		ReportPeriod: reportPeriod,
		Period:       period,
		Values:       make(map[string]*float64),
	}
}

// Get returns the value of field and whether it is present.
func (li LineItem) Get(field string) (float64, bool) {
	v, ok := li.Values[field]
	if !ok || v == nil {
		return 0, false
	}
	return *v, true
}

// Value returns the field or 0 when missing.
func (li LineItem) Value(field string) float64 {
	v, _ := li.Get(field)
	return v
}

func (li LineItem) Set(field string, v float64) {
	li.Values[field] = &v
}

// CompanyNews is one headline with a coarse sentiment label
// (positive, negative or neutral).
type CompanyNews struct {
	Ticker    string    `json:"ticker"`
	Title     string    `json:"title"`
	Source    string    `json:"source"`
	URL       string    `json:"url"`
	Date      time.Time `json:"date"`
	Sentiment string    `json:"sentiment"`
}

// InsiderTrade is one reported insider transaction. TransactionShares is
// negative for sales.
type InsiderTrade struct {
	Ticker            string    `json:"ticker"`
	Name              string    `json:"name"`
	Title             string    `json:"title"`
	TransactionDate   time.Time `json:"transaction_date"`
	TransactionShares float64   `json:"transaction_shares"`
	TransactionPrice  float64   `json:"transaction_price"`
}

func Float(v float64) *float64 {
	return &v
}
