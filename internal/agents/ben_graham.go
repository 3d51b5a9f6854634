package agents

import (
	"context"
	"time"

	"github.com/mantoumaster/ai-hedge-fund-API/consts"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/evaluators"
)

type benGraham struct {
	persona
}

func newBenGraham() *benGraham {
	return &benGraham{persona: personaFor(consts.BenGraham)}
}

func (*benGraham) Thresholds() evaluators.Thresholds { return evaluators.GrahamThresholds }
func (*benGraham) MaxScore() float64                 { return evaluators.GrahamMaxScore }
func (*benGraham) SystemPrompt() string              { return "analysts/ben_graham" }

func (g *benGraham) Analyze(ctx context.Context, deps Deps, ticker string, endDate time.Time) (evaluators.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return evaluators.Analysis{}, err
	}
	id, p := g.ID(), deps.Provider

	deps.Tracker.Update(id, ticker, "Fetching financial metrics")
	metrics := p.GetFinancialMetrics(ctx, ticker, endDate, "annual", 10)

	deps.Tracker.Update(id, ticker, "Gathering financial line items")
	items := p.SearchLineItems(ctx, ticker, evaluators.GrahamLineItems, endDate, "annual", 10)

	deps.Tracker.Update(id, ticker, "Getting market cap")
	marketCap := marketCapPtr(p.GetMarketCap(ctx, ticker, endDate))

	deps.Tracker.Update(id, ticker, "Analyzing earnings stability, financial strength and valuation")
	return evaluators.EvaluateGraham(ticker, evaluators.GrahamInput{
		Metrics:   metrics,
		Items:     items,
		MarketCap: marketCap,
	}), nil
}
