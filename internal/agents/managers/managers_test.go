package managers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mantoumaster/ai-hedge-fund-API/consts"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/agents"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/dataflows/dataflowstest"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/llm/llmtest"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/logger"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/progress"
)

func bar(ticker string, day int, close int64) models.Price {
	return models.Price{
		Ticker: ticker,
		Time:   time.Date(2025, 3, day, 0, 0, 0, 0, time.UTC),
		Close:  decimal.NewFromInt(close),
	}
}

func newState(tickers ...string) *models.WorkflowState {
	portfolio := models.NewPortfolio(tickers, decimal.NewFromInt(100000), decimal.Zero)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	return models.NewWorkflowState(tickers, start, end, portfolio, models.WorkflowMetadata{})
}

func newDeps(p *dataflowstest.Provider, cm *llmtest.ChatModel) agents.Deps {
	return agents.Deps{Provider: p, Model: cm, Tracker: progress.NewTracker(logger.Nop()), Log: logger.Nop()}
}

func TestAssessRisk(t *testing.T) {
	p := dataflowstest.New()
	p.Prices["AAPL"] = []models.Price{bar("AAPL", 28, 90), bar("AAPL", 31, 100)}
	p.Prices["MSFT"] = []models.Price{bar("MSFT", 31, 200)}

	state := newState("AAPL", "MSFT", "NOPE")
	state.Data.Portfolio.Positions["MSFT"] = models.Position{Long: 50}

	limits := AssessRisk(context.Background(), newDeps(p, nil), state)

	require.Len(t, limits, 2)
	aapl := limits["AAPL"]
	assert.True(t, aapl.CurrentPrice.Equal(decimal.NewFromInt(100)), "latest close wins")
	assert.True(t, aapl.PortfolioValue.Equal(decimal.NewFromInt(110000)))
	assert.True(t, aapl.RemainingPositionLimit.Equal(decimal.NewFromInt(22000)), aapl.RemainingPositionLimit.String())

	msft := limits["MSFT"]
	assert.True(t, msft.CurrentPosition.Equal(decimal.NewFromInt(10000)))
	assert.True(t, msft.RemainingPositionLimit.Equal(decimal.NewFromInt(12000)), msft.RemainingPositionLimit.String())

	_, ok := limits["NOPE"]
	assert.False(t, ok)
	assert.Equal(t, limits["AAPL"], state.Data.RiskLimits["AAPL"])

	entry, ok := state.Data.AnalystSignals.Get(consts.RiskManager, "AAPL")
	require.True(t, ok)
	assert.Contains(t, entry.Reasoning, "remaining limit 22000.00")
	assert.Empty(t, state.Data.AnalystSignals.ForTicker("AAPL"), "risk entry is not an analyst signal")
}

func TestAssessRiskCapsByCash(t *testing.T) {
	p := dataflowstest.New()
	p.Prices["AAPL"] = []models.Price{bar("AAPL", 31, 100)}
	state := newState("AAPL")
	state.Data.Portfolio.Cash = decimal.NewFromInt(1000)
	state.Data.Portfolio.Positions["AAPL"] = models.Position{Long: 1000}

	limits := AssessRisk(context.Background(), newDeps(p, nil), state)

	// value 101000, limit 20200, held 100000: nothing left
	assert.True(t, limits["AAPL"].RemainingPositionLimit.IsZero())

	state.Data.Portfolio.Positions["AAPL"] = models.Position{}
	limits = AssessRisk(context.Background(), newDeps(p, nil), state)
	assert.True(t, limits["AAPL"].RemainingPositionLimit.Equal(decimal.NewFromInt(200)))
}

func TestAllowancesAndClamp(t *testing.T) {
	portfolio := models.NewPortfolio([]string{"AAPL"}, decimal.NewFromInt(10000), decimal.Zero)
	portfolio.Positions["AAPL"] = models.Position{Long: 7}
	limit := models.RiskLimit{RemainingPositionLimit: decimal.NewFromInt(1050), CurrentPrice: decimal.NewFromInt(100)}

	allowed := Allowances(portfolio, "AAPL", limit, true)
	assert.Equal(t, map[models.Action]int64{
		models.ActionHold:  0,
		models.ActionSell:  7,
		models.ActionBuy:   10,
		models.ActionShort: 10,
	}, allowed)

	assert.Equal(t, int64(10), Clamp(models.Decision{Action: models.ActionBuy, Quantity: 500}, allowed).Quantity)
	assert.Equal(t, int64(7), Clamp(models.Decision{Action: models.ActionSell, Quantity: 9}, allowed).Quantity)

	cover := Clamp(models.Decision{Action: models.ActionCover, Quantity: 3}, allowed)
	assert.Equal(t, models.ActionHold, cover.Action)
	assert.Zero(t, cover.Quantity)

	hold := Clamp(models.Decision{Action: models.ActionHold, Quantity: 3}, allowed)
	assert.Zero(t, hold.Quantity)

	noPrice := Allowances(portfolio, "AAPL", models.RiskLimit{}, false)
	assert.Equal(t, map[models.Action]int64{models.ActionHold: 0, models.ActionSell: 7}, noPrice)
}

func TestClampBoundsConfidenceOnEveryPath(t *testing.T) {
	allowed := map[models.Action]int64{models.ActionHold: 0, models.ActionBuy: 10}
	for name, d := range map[string]models.Decision{
		"hold":       {Action: models.ActionHold, Confidence: 250},
		"invalid":    {Action: "moon", Confidence: 250},
		"disallowed": {Action: models.ActionShort, Quantity: 5, Confidence: 250},
		"buy":        {Action: models.ActionBuy, Quantity: 5, Confidence: 250},
	} {
		assert.Equal(t, 100.0, Clamp(d, allowed).Confidence, name)
	}
	assert.Zero(t, Clamp(models.Decision{Action: models.ActionHold, Confidence: -5}, allowed).Confidence)
}

func TestDecideClampsModelOutput(t *testing.T) {
	p := dataflowstest.New()
	p.Prices["AAPL"] = []models.Price{bar("AAPL", 31, 100)}
	cm := llmtest.New("```json\n" + `{"decisions": {
		"AAPL": {"action": "buy", "quantity": 1000, "confidence": 80, "reasoning": "Strong signals"},
		"MSFT": {"action": "short", "quantity": 5, "confidence": 60, "reasoning": "No price"}
	}}` + "\n```")
	state := newState("AAPL", "MSFT")
	state.Data.AnalystSignals.Set(consts.BenGraham, "AAPL", models.NewSignal(models.Bullish, 80, "cheap"))
	deps := newDeps(p, cm)

	AssessRisk(context.Background(), deps, state)
	decisions := Decide(context.Background(), deps, state)

	require.Len(t, decisions, 2)
	assert.Equal(t, models.ActionBuy, decisions["AAPL"].Action)
	assert.Equal(t, int64(200), decisions["AAPL"].Quantity)
	assert.Equal(t, models.ActionHold, decisions["MSFT"].Action)
	assert.Equal(t, decisions, state.Data.Decisions)

	prompt := cm.LastPrompt()
	assert.Contains(t, prompt, consts.BenGraham)
	assert.Contains(t, prompt, `"buy": 200`)
}

func TestDecideDefaultsToHold(t *testing.T) {
	state := newState("AAPL")
	decisions := Decide(context.Background(), newDeps(dataflowstest.New(), llmtest.Failing(errors.New("boom"))), state)

	require.Contains(t, decisions, "AAPL")
	assert.Equal(t, models.ActionHold, decisions["AAPL"].Action)
	assert.Equal(t, defaultDecisionReason, decisions["AAPL"].Reasoning)
}

func TestDecideFillsMissingTickers(t *testing.T) {
	cm := llmtest.New(`{"decisions": {}}`)
	decisions := Decide(context.Background(), newDeps(dataflowstest.New(), cm), newState("AAPL"))
	assert.Equal(t, missingDecisionReason, decisions["AAPL"].Reasoning)
}
