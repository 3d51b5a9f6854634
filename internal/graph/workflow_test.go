package graph

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
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

const portfolioReply = `{"decisions": {"AAPL": {"action": "buy", "quantity": 5000, "confidence": 70, "reasoning": "Bullish consensus"}}}`

func scriptedModel() *llmtest.ChatModel {
	return &llmtest.ChatModel{Respond: func(msgs []*schema.Message) llmtest.Reply {
		last := msgs[len(msgs)-1].Content
		if strings.Contains(last, "Make trading decisions") {
			return llmtest.Reply{Content: portfolioReply}
		}
		return llmtest.Reply{Content: `{"signal": "bullish", "confidence": 65, "reasoning": "Looks good"}`}
	}}
}

func testDeps(cm *llmtest.ChatModel) (agents.Deps, *dataflowstest.Provider) {
	p := dataflowstest.New()
	p.Prices["AAPL"] = []models.Price{{
		Ticker: "AAPL",
		Time:   time.Date(2025, 3, 28, 0, 0, 0, 0, time.UTC),
		Close:  decimal.NewFromInt(200),
	}}
	return agents.Deps{
		Provider: p,
		Model:    cm,
		Tracker:  progress.NewTracker(logger.Nop()),
		Log:      logger.Nop(),
	}, p
}

func TestResolveAnalysts(t *testing.T) {
	deps, _ := testDeps(scriptedModel())

	all := ResolveAnalysts(deps, nil)
	assert.Len(t, all, len(agents.Analysts()))

	picked := ResolveAnalysts(deps, []string{consts.WSB, "ghost_agent", consts.WSB, consts.BenGraham})
	require.Len(t, picked, 2)
	assert.Equal(t, consts.WSB, picked[0].ID())
	assert.Equal(t, consts.BenGraham, picked[1].ID())
}

func TestRunWorkflowFullGraph(t *testing.T) {
	cm := scriptedModel()
	deps, p := testDeps(cm)

	res, err := RunWorkflow(context.Background(), deps, WorkflowRequest{
		Tickers: []string{"AAPL"},
		EndDate: time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, agents.AnalystIDs(), res.Analysts)
	for _, id := range agents.AnalystIDs() {
		sig, ok := res.AnalystSignals[id]["AAPL"]
		require.True(t, ok, id)
		assert.Equal(t, models.Bullish, sig.Signal)
	}

	limit := res.RiskLimits["AAPL"]
	assert.True(t, limit.RemainingPositionLimit.Equal(decimal.NewFromInt(20000)))

	// 20% of 100000 at 200 per share.
	assert.Equal(t, models.Decision{Action: models.ActionBuy, Quantity: 100, Confidence: 70, Reasoning: "Bullish consensus"}, res.Decisions["AAPL"])
	assert.Equal(t, 1, p.Calls("GetPrices"))
	assert.Equal(t, 4, cm.Calls())

	u, ok := deps.Tracker.Latest(consts.PortfolioManager)
	require.True(t, ok)
	assert.Equal(t, consts.State_Done, u.Status)
}

func TestRunWorkflowSkipsUnknownAnalysts(t *testing.T) {
	cm := scriptedModel()
	deps, _ := testDeps(cm)

	res, err := RunWorkflow(context.Background(), deps, WorkflowRequest{
		Tickers:          []string{"AAPL"},
		SelectedAnalysts: []string{"ghost_agent"},
	})
	require.NoError(t, err)

	assert.Empty(t, res.Analysts)
	assert.Empty(t, res.AnalystSignals[consts.BenGraham])
	assert.Contains(t, res.Decisions, "AAPL")
	assert.Equal(t, 1, cm.Calls(), "only the portfolio manager asks the model")
}

func TestRunWorkflowDegradesWithoutModel(t *testing.T) {
	deps, _ := testDeps(nil)
	deps.Model = nil

	res, err := RunWorkflow(context.Background(), deps, WorkflowRequest{
		Tickers:          []string{"AAPL"},
		SelectedAnalysts: []string{consts.BenGraham},
	})
	require.NoError(t, err)

	assert.Equal(t, agents.DefaultSignal(), res.AnalystSignals[consts.BenGraham]["AAPL"])
	assert.Equal(t, models.ActionHold, res.Decisions["AAPL"].Action)
}

func TestRunWorkflowRequiresTickers(t *testing.T) {
	deps, _ := testDeps(scriptedModel())
	_, err := RunWorkflow(context.Background(), deps, WorkflowRequest{})
	assert.ErrorIs(t, err, ErrNoTickers)
}

func TestBuildWorkflowCompiles(t *testing.T) {
	deps, _ := testDeps(scriptedModel())
	r, ids, err := BuildWorkflow(context.Background(), deps, []string{consts.NancyPelosi})
	require.NoError(t, err)
	assert.NotNil(t, r)
	assert.Equal(t, []string{consts.NancyPelosi}, ids)
}

func TestAnalystNodeFailsWithoutState(t *testing.T) {
	deps, _ := testDeps(scriptedModel())
	a, ok := agents.LookupAnalyst(consts.BenGraham)
	require.True(t, ok)

	out, err := analystNode(deps, a)(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), consts.BenGraham)
	assert.Nil(t, out)
}
