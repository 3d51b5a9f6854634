package agents

import (
	"context"
	"time"

	"github.com/mantoumaster/ai-hedge-fund-API/consts"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/evaluators"
)

type wsb struct {
	persona
}

func newWSB() *wsb {
	return &wsb{persona: personaFor(consts.WSB)}
}

func (*wsb) Thresholds() evaluators.Thresholds { return evaluators.WSBThresholds }
func (*wsb) MaxScore() float64                 { return evaluators.WSBMaxScore }
func (*wsb) SystemPrompt() string              { return "analysts/wsb" }

func (w *wsb) Analyze(ctx context.Context, deps Deps, ticker string, endDate time.Time) (evaluators.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return evaluators.Analysis{}, err
	}
	id, p := w.ID(), deps.Provider

	deps.Tracker.Update(id, ticker, "Fetching financial metrics")
	metrics := p.GetFinancialMetrics(ctx, ticker, endDate, "annual", 5)

	deps.Tracker.Update(id, ticker, "Gathering financial line items")
	items := p.SearchLineItems(ctx, ticker, evaluators.WSBLineItems, endDate, "annual", 5)

	deps.Tracker.Update(id, ticker, "Getting market cap")
	marketCap := marketCapPtr(p.GetMarketCap(ctx, ticker, endDate))

	deps.Tracker.Update(id, ticker, "Fetching Reddit WSB posts")
	posts := p.GetRedditPosts(ctx, ticker, 10)

	deps.Tracker.Update(id, ticker, "Analyzing social media hype")
	news := p.GetCompanyNews(ctx, ticker, endDate, 100)

	deps.Tracker.Update(id, ticker, "Analyzing meme, squeeze and options potential")
	return evaluators.EvaluateWSB(ticker, evaluators.WSBInput{
		Metrics:   metrics,
		Items:     items,
		MarketCap: marketCap,
		News:      news,
		Posts:     posts,
	}), nil
}
