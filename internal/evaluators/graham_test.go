package evaluators

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
)

func item(values map[string]float64) models.LineItem {
	li := models.NewLineItem("ACME", "2024-12-31", "annual")
	for k, v := range values {
		li.Set(k, v)
	}
	return li
}

func acmeInput() GrahamInput {
	items := []models.LineItem{item(map[string]float64{
		models.FieldCurrentAssets:      200,
		models.FieldCurrentLiabilities: 80,
		models.FieldTotalAssets:        500,
		models.FieldTotalLiabilities:   150,
		models.FieldEarningsPerShare:   1,
		models.FieldBookValuePerShare:  10,
		models.FieldOutstandingShares:  100,
	})}
	for _, eps := range []float64{2, 3, 4, 5} {
		items = append(items, item(map[string]float64{models.FieldEarningsPerShare: eps}))
	}
	return GrahamInput{
		Metrics:   []models.FinancialMetrics{{Ticker: "ACME"}},
		Items:     items,
		MarketCap: models.Float(4000),
	}
}

func TestEvaluateGrahamACME(t *testing.T) {
	a := EvaluateGraham("ACME", acmeInput())

	earnings, _ := a.Section("earnings_analysis")
	strength, _ := a.Section("strength_analysis")
	valuation, _ := a.Section("valuation_analysis")
	assert.Equal(t, 3.0, earnings.Score)
	assert.Equal(t, 4.0, strength.Score)
	assert.Equal(t, 0.0, valuation.Score)

	assert.Equal(t, 7.0, a.Score)
	assert.Equal(t, 15.0, a.MaxScore)
	assert.Equal(t, models.Neutral, a.Signal)

	again := EvaluateGraham("ACME", acmeInput())
	assert.Equal(t, a.Score, again.Score)
	assert.Equal(t, a.Signal, again.Signal)
}

func TestGrahamEmptyInputs(t *testing.T) {
	for name, r := range map[string]Result{
		"earnings":  EarningsStability(nil, nil),
		"strength":  FinancialStrength(nil),
		"valuation": GrahamValuation(nil, nil),
		"no cap":    GrahamValuation(acmeInput().Items, nil),
	} {
		assert.Zero(t, r.Score, name)
		assert.NotEmpty(t, r.Details, name)
	}

	a := EvaluateGraham("NONE", GrahamInput{})
	assert.Zero(t, a.Score)
	assert.Equal(t, models.Bearish, a.Signal)
}

func TestEarningsStabilityNeedsTwoPeriods(t *testing.T) {
	r := EarningsStability([]models.FinancialMetrics{{}}, []models.LineItem{item(map[string]float64{models.FieldEarningsPerShare: 3})})
	assert.Zero(t, r.Score)
	assert.Equal(t, "Not enough multi-year EPS data.", r.Details)
}

func TestEarningsStabilityGrowth(t *testing.T) {
	items := []models.LineItem{
		item(map[string]float64{models.FieldEarningsPerShare: 5}),
		item(map[string]float64{models.FieldEarningsPerShare: 2}),
	}
	r := EarningsStability([]models.FinancialMetrics{{}}, items)
	assert.Equal(t, 4.0, r.Score)
	assert.Contains(t, r.Details, "EPS grew from earliest to latest period.")

	// newest first: 2 now, 5 a year ago is a decline
	shrinking := []models.LineItem{items[1], items[0]}
	r = EarningsStability([]models.FinancialMetrics{{}}, shrinking)
	assert.Equal(t, 3.0, r.Score)
	assert.Contains(t, r.Details, "did not grow")
}

func TestFinancialStrengthDividends(t *testing.T) {
	items := []models.LineItem{
		item(map[string]float64{
			models.FieldCurrentAssets: 300, models.FieldCurrentLiabilities: 100,
			models.FieldTotalAssets: 1000, models.FieldTotalLiabilities: 200,
			models.FieldDividends: -10,
		}),
		item(map[string]float64{models.FieldDividends: -10}),
		item(map[string]float64{models.FieldDividends: 0}),
	}
	r := FinancialStrength(items)
	assert.Equal(t, 5.0, r.Score)
	assert.Contains(t, r.Details, "majority")
}

func TestGrahamValuationDeepValueIsCapped(t *testing.T) {
	items := []models.LineItem{item(map[string]float64{
		models.FieldCurrentAssets:     1e15,
		models.FieldTotalLiabilities:  1,
		models.FieldEarningsPerShare:  1e9,
		models.FieldBookValuePerShare: 1e9,
		models.FieldOutstandingShares: 1,
	})}
	r := GrahamValuation(items, models.Float(10))
	assert.Equal(t, 7.0, r.Score)
	assert.LessOrEqual(t, r.Score, r.MaxScore)
}

func TestAnalysisJSON(t *testing.T) {
	data, err := json.Marshal(EvaluateGraham("ACME", acmeInput()))
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "neutral", out["signal"])
	assert.Equal(t, 7.0, out["score"])
	assert.Contains(t, out, "earnings_analysis")
	assert.Contains(t, out["valuation_analysis"], "details")
}

func TestThresholdsMonotonic(t *testing.T) {
	rank := map[models.SignalKind]int{models.Bearish: 0, models.Neutral: 1, models.Bullish: 2}
	for _, th := range []Thresholds{GrahamThresholds, PelosiThresholds, WSBThresholds} {
		prev := -1
		for s := 0.0; s <= 15; s += 0.25 {
			r := rank[th.Classify(s, 15)]
			assert.GreaterOrEqual(t, r, prev)
			prev = r
		}
	}

	assert.Equal(t, models.Bullish, GrahamThresholds.Classify(10.5, 15))
	assert.Equal(t, models.Bearish, GrahamThresholds.Classify(4.5, 15))
	assert.Equal(t, models.Neutral, GrahamThresholds.Classify(4.6, 15))
}

func TestNewAnalysisClampsToMax(t *testing.T) {
	a := newAnalysis("ACME", GrahamMaxScore, GrahamThresholds,
		Section{"earnings_analysis", Result{Score: grahamEarningsMax}},
		Section{"strength_analysis", Result{Score: grahamStrengthMax}},
		Section{"valuation_analysis", Result{Score: grahamValuationMax}},
	)
	assert.Equal(t, float64(GrahamMaxScore), a.Score)
	assert.Equal(t, models.Bullish, a.Signal)

	low := newAnalysis("ACME", GrahamMaxScore, GrahamThresholds, Section{"x", Result{Score: -3}})
	assert.Zero(t, low.Score)
}
