package evaluators

import (
	"fmt"
	"math"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
)

const (
	GrahamMaxScore = 15

	grahamEarningsMax  = 4
	grahamStrengthMax  = 5
	grahamValuationMax = 7
)

// GrahamThresholds are conservative: 70% of the maximum to turn bullish.
var GrahamThresholds = Thresholds{Bullish: 0.7, Bearish: 0.3}

// GrahamLineItems are the statement fields the value checks read.
var GrahamLineItems = []string{
	models.FieldEarningsPerShare,
	models.FieldRevenue,
	models.FieldNetIncome,
	models.FieldBookValuePerShare,
	models.FieldTotalAssets,
	models.FieldTotalLiabilities,
	models.FieldCurrentAssets,
	models.FieldCurrentLiabilities,
	models.FieldDividends,
	models.FieldOutstandingShares,
}

type GrahamInput struct {
	Metrics   []models.FinancialMetrics
	Items     []models.LineItem
	MarketCap *float64
}

// EvaluateGraham runs the three value checks and classifies the total.
func EvaluateGraham(ticker string, in GrahamInput) Analysis {
	return newAnalysis(ticker, GrahamMaxScore, GrahamThresholds,
		Section{"earnings_analysis", EarningsStability(in.Metrics, in.Items)},
		Section{"strength_analysis", FinancialStrength(in.Items)},
		Section{"valuation_analysis", GrahamValuation(in.Items, in.MarketCap)},
	)
}

// EarningsStability rewards positive EPS across periods and growth from the
// oldest to the newest period. Items must be ordered newest first, as the
// data providers return them, so eps[0] is the latest period and the last
// entry the earliest.
func EarningsStability(metrics []models.FinancialMetrics, items []models.LineItem) Result {
	if len(metrics) == 0 || len(items) == 0 {
		return insufficient("Insufficient data for earnings stability analysis")
	}

	var eps []float64
	for _, li := range items {
		if v, ok := li.Get(models.FieldEarningsPerShare); ok {
			eps = append(eps, v)
		}
	}
	if len(eps) < 2 {
		return insufficient("Not enough multi-year EPS data.")
	}

	var score float64
	var details []string

	positive := 0
	for _, e := range eps {
		if e > 0 {
			positive++
		}
	}
	switch {
	case positive == len(eps):
		score += 3
		details = append(details, "EPS was positive in all available periods.")
	case float64(positive) >= 0.8*float64(len(eps)):
		score += 2
		details = append(details, "EPS was positive in most periods.")
	default:
		details = append(details, "EPS was negative in multiple periods.")
	}

	// newest first: latest > earliest
	if eps[0] > eps[len(eps)-1] {
		score++
		details = append(details, "EPS grew from earliest to latest period.")
	} else {
		details = append(details, "EPS did not grow from earliest to latest period.")
	}

	return Result{Score: clamp(score, 0, grahamEarningsMax), MaxScore: grahamEarningsMax, Details: join(details, "")}
}

// FinancialStrength scores liquidity, leverage and dividend record of the
// newest period.
func FinancialStrength(items []models.LineItem) Result {
	li, ok := latest(items)
	if !ok {
		return insufficient("Insufficient data for financial strength analysis")
	}

	var score float64
	var details []string
	done := func() Result {
		return Result{Score: clamp(score, 0, grahamStrengthMax), MaxScore: grahamStrengthMax, Details: join(details, "")}
	}

	ca := li.Value(models.FieldCurrentAssets)
	cl := li.Value(models.FieldCurrentLiabilities)
	if ca != 0 && cl > 0 {
		cr := ca / cl
		switch {
		case cr >= 2:
			score += 2
			details = append(details, fmt.Sprintf("Strong current ratio: %.2f", cr))
		case cr >= 1.5:
			score++
			details = append(details, fmt.Sprintf("Acceptable current ratio: %.2f", cr))
		default:
			details = append(details, fmt.Sprintf("Weak current ratio: %.2f", cr))
		}
	} else {
		details = append(details, "Current ratio could not be calculated (missing data)")
	}

	assets, ok := li.Get(models.FieldTotalAssets)
	if !ok {
		details = append(details, "Cannot compute debt ratio (missing total_assets).")
		return done()
	}
	liabilities, ok := li.Get(models.FieldTotalLiabilities)
	if !ok {
		details = append(details, "Cannot compute debt ratio (missing total_liabilities).")
		return done()
	}

	if assets > 0 {
		dr := liabilities / assets
		switch {
		case dr < 0.5:
			score += 2
			details = append(details, fmt.Sprintf("Debt ratio = %.2f, under 0.50 (conservative).", dr))
		case dr < 0.8:
			score++
			details = append(details, fmt.Sprintf("Debt ratio = %.2f, somewhat high but could be acceptable.", dr))
		default:
			details = append(details, fmt.Sprintf("Debt ratio = %.2f, quite high by Graham standards.", dr))
		}
	} else {
		details = append(details, "Cannot compute debt ratio (missing total_assets).")
	}

	var divs []float64
	for _, it := range items {
		if v, ok := it.Get(models.FieldDividends); ok {
			divs = append(divs, v)
		}
	}
	if len(divs) == 0 {
		details = append(details, "No dividend data available to assess payout consistency.")
		return done()
	}

	// dividends are reported as outflows, so a payout is negative
	paid := 0
	for _, d := range divs {
		if d < 0 {
			paid++
		}
	}
	switch {
	case paid == 0:
		details = append(details, "Company did not pay dividends in these periods.")
	case paid >= len(divs)/2+1:
		score++
		details = append(details, "Company paid dividends in the majority of the reported years.")
	default:
		details = append(details, "Company has some dividend payments, but not most years.")
	}
	return done()
}

// GrahamValuation checks the net-net discount and the margin of safety
// against the Graham number.
func GrahamValuation(items []models.LineItem, marketCap *float64) Result {
	li, ok := latest(items)
	if !ok || marketCap == nil {
		return insufficient("Insufficient data for Graham valuation")
	}
	mc := *marketCap

	ca := li.Value(models.FieldCurrentAssets)
	tl := li.Value(models.FieldTotalLiabilities)
	bvps := li.Value(models.FieldBookValuePerShare)
	eps := li.Value(models.FieldEarningsPerShare)
	shares := li.Value(models.FieldOutstandingShares)

	var score float64
	var details []string

	ncav := ca - tl
	if ncav > 0 && shares > 0 {
		ncavPerShare := ncav / shares
		price := mc / shares
		details = append(details,
			fmt.Sprintf("Net Current Asset Value = %.2f", ncav),
			fmt.Sprintf("NCAV Per Share = %.2f", ncavPerShare),
			fmt.Sprintf("Price Per Share = %.2f", price),
		)
		if ncav > mc {
			score += 4
			details = append(details, "Net-Net: NCAV > Market Cap (classic Graham deep value).")
		} else if ncavPerShare >= 0.67*price {
			score += 2
			details = append(details, "NCAV Per Share >= 2/3 of Price Per Share (moderate net-net discount).")
		}
	} else {
		details = append(details, "NCAV not exceeding market cap or insufficient data for net-net approach.")
	}

	var grahamNumber float64
	if eps > 0 && bvps > 0 {
		grahamNumber = math.Sqrt(22.5 * eps * bvps)
		details = append(details, fmt.Sprintf("Graham Number = %.2f", grahamNumber))
	} else {
		details = append(details, "Unable to compute Graham Number (EPS or Book Value missing/<=0).")
	}

	if grahamNumber > 0 && shares > 0 {
		price := mc / shares
		if price > 0 {
			mos := (grahamNumber - price) / price
			details = append(details, fmt.Sprintf("Margin of Safety (Graham Number) = %.2f%%", mos*100))
			switch {
			case mos > 0.5:
				score += 3
				details = append(details, "Price is well below Graham Number (>=50% margin).")
			case mos > 0.2:
				score++
				details = append(details, "Some margin of safety relative to Graham Number.")
			default:
				details = append(details, "Price close to or above Graham Number, low margin of safety.")
			}
		} else {
			details = append(details, "Current price is zero or invalid; can't compute margin of safety.")
		}
	}

	return Result{Score: clamp(score, 0, grahamValuationMax), MaxScore: grahamValuationMax, Details: join(details, "")}
}
