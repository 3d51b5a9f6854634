package agents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantoumaster/ai-hedge-fund-API/consts"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/dataflows/dataflowstest"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/llm/llmtest"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/logger"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/progress"
)

var endDate = time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

func lineItem(values map[string]float64) models.LineItem {
	li := models.NewLineItem("ACME", "2024-12-31", "annual")
	for k, v := range values {
		li.Set(k, v)
	}
	return li
}

func acmeProvider() *dataflowstest.Provider {
	p := dataflowstest.New()
	items := []models.LineItem{lineItem(map[string]float64{
		models.FieldCurrentAssets:      200,
		models.FieldCurrentLiabilities: 80,
		models.FieldTotalAssets:        500,
		models.FieldTotalLiabilities:   150,
		models.FieldEarningsPerShare:   1,
		models.FieldBookValuePerShare:  10,
		models.FieldOutstandingShares:  100,
	})}
	for _, eps := range []float64{2, 3, 4, 5} {
		items = append(items, lineItem(map[string]float64{models.FieldEarningsPerShare: eps}))
	}
	p.LineItems["ACME"] = items
	p.Metrics["ACME"] = []models.FinancialMetrics{{Ticker: "ACME"}}
	p.MarketCaps["ACME"] = 4000
	return p
}

func testDeps(p *dataflowstest.Provider, cm *llmtest.ChatModel) Deps {
	return Deps{
		Provider: p,
		Model:    cm,
		Tracker:  progress.NewTracker(logger.Nop()),
		Log:      logger.Nop(),
	}
}

func TestRegistry(t *testing.T) {
	ps := Profiles()
	require.Len(t, ps, 11)
	assert.Equal(t, consts.WarrenBuffett, ps[0].ID)
	assert.Equal(t, consts.WSB, ps[10].ID)
	for _, p := range ps {
		assert.NotEmpty(t, p.Name, p.ID)
		assert.NotEmpty(t, p.Style, p.ID)
		assert.NotEmpty(t, p.Background, p.ID)
		assert.NotEmpty(t, p.Biases, p.ID)
	}

	ps[0].Name = "mutated"
	again, ok := LookupProfile(consts.WarrenBuffett)
	require.True(t, ok)
	assert.Equal(t, "Warren Buffett", again.Name)

	_, ok = LookupProfile("nobody_agent")
	assert.False(t, ok)

	assert.Equal(t, []string{consts.BenGraham, consts.NancyPelosi, consts.WSB}, AnalystIDs())
	a, ok := LookupAnalyst(consts.NancyPelosi)
	require.True(t, ok)
	assert.Equal(t, "Nancy Pelosi", a.Profile().Name)
	assert.Equal(t, 10.0, a.MaxScore())
	_, ok = LookupAnalyst(consts.WarrenBuffett)
	assert.False(t, ok, "profiles without evaluators are not runnable")
}

func TestRunRecordsModelSignal(t *testing.T) {
	p := acmeProvider()
	cm := llmtest.New(`{"signal": "bullish", "confidence": 72, "reasoning": "Trades below NCAV"}`)
	deps := testDeps(p, cm)
	signals := models.NewTickerSignals()
	graham, _ := LookupAnalyst(consts.BenGraham)

	sig := Run(context.Background(), deps, graham, signals, "ACME", endDate)

	assert.Equal(t, models.Signal{Signal: models.Bullish, Confidence: 72, Reasoning: "Trades below NCAV"}, sig)
	stored, ok := signals.Get(consts.BenGraham, "ACME")
	require.True(t, ok)
	assert.Equal(t, sig, stored)

	prompt := cm.LastPrompt()
	assert.Contains(t, prompt, "margin of safety")
	assert.Contains(t, prompt, "Analysis data for ACME")
	assert.Contains(t, prompt, `"earnings_analysis"`)
	assert.Contains(t, prompt, `"signal": "neutral"`, "pre-signal for 7/15 is neutral")

	u, ok := deps.Tracker.Latest(consts.BenGraham)
	require.True(t, ok)
	assert.Equal(t, consts.State_Done, u.Status)
	assert.Equal(t, 1, p.Calls("SearchLineItems"))
}

func TestRunDefaultsWhenModelFails(t *testing.T) {
	deps := testDeps(acmeProvider(), llmtest.Failing(errors.New("503 unavailable")))
	signals := models.NewTickerSignals()
	wsbAnalyst, _ := LookupAnalyst(consts.WSB)

	sig := Run(context.Background(), deps, wsbAnalyst, signals, "ACME", endDate)

	assert.Equal(t, DefaultSignal(), sig)
	stored, _ := signals.Get(consts.WSB, "ACME")
	assert.Equal(t, DefaultSignal(), stored)
}

func TestRunDefaultsOnInvalidSignal(t *testing.T) {
	cm := llmtest.Echo(`{"signal": "sideways", "confidence": 50, "reasoning": "?"}`)
	deps := testDeps(acmeProvider(), cm)
	pelosi, _ := LookupAnalyst(consts.NancyPelosi)

	sig := Run(context.Background(), deps, pelosi, nil, "ACME", endDate)

	assert.Equal(t, DefaultSignal(), sig)
	assert.Equal(t, 3, cm.Calls())
}

func TestRunWithEmptyProvider(t *testing.T) {
	cm := llmtest.Echo(`{"signal": "bearish", "confidence": 20, "reasoning": "No data"}`)
	deps := testDeps(dataflowstest.New(), cm)
	pelosi, _ := LookupAnalyst(consts.NancyPelosi)

	sig := Run(context.Background(), deps, pelosi, nil, "ZZZ", endDate)

	assert.Equal(t, models.Bearish, sig.Signal)
	assert.Contains(t, cm.LastPrompt(), "No news data available")
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cm := llmtest.Echo(`{"signal": "bullish", "confidence": 90, "reasoning": "x"}`)
	graham, _ := LookupAnalyst(consts.BenGraham)

	sig := Run(ctx, testDeps(acmeProvider(), cm), graham, nil, "ACME", endDate)

	assert.Equal(t, DefaultSignal(), sig)
	assert.Zero(t, cm.Calls())
}

func TestRunForTickers(t *testing.T) {
	cm := llmtest.Echo(`{"signal": "neutral", "confidence": 40, "reasoning": "ok"}`)
	signals := models.NewTickerSignals()
	graham, _ := LookupAnalyst(consts.BenGraham)

	out := RunForTickers(context.Background(), testDeps(acmeProvider(), cm), graham, signals, []string{"ACME", "ZZZ"}, endDate)

	assert.Len(t, out, 2)
	assert.Len(t, signals.ForTicker("ZZZ"), 1)
	assert.Equal(t, 2, cm.Calls())
}
