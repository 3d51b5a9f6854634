package agents

import (
	"context"
	"time"

	"github.com/mantoumaster/ai-hedge-fund-API/consts"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/evaluators"
)

type nancyPelosi struct {
	persona
}

func newNancyPelosi() *nancyPelosi {
	return &nancyPelosi{persona: personaFor(consts.NancyPelosi)}
}

func (*nancyPelosi) Thresholds() evaluators.Thresholds { return evaluators.PelosiThresholds }
func (*nancyPelosi) MaxScore() float64                 { return evaluators.PelosiMaxScore }
func (*nancyPelosi) SystemPrompt() string              { return "analysts/nancy_pelosi" }

func (n *nancyPelosi) Analyze(ctx context.Context, deps Deps, ticker string, endDate time.Time) (evaluators.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return evaluators.Analysis{}, err
	}
	id, p := n.ID(), deps.Provider

	deps.Tracker.Update(id, ticker, "Gathering financial line items")
	items := p.SearchLineItems(ctx, ticker, evaluators.PelosiLineItems, endDate, "annual", 5)

	deps.Tracker.Update(id, ticker, "Getting market cap")
	marketCap := marketCapPtr(p.GetMarketCap(ctx, ticker, endDate))

	deps.Tracker.Update(id, ticker, "Getting recent news")
	news := p.GetCompanyNews(ctx, ticker, endDate, 100)

	deps.Tracker.Update(id, ticker, "Fetching insider trading data")
	trades := p.GetInsiderTrades(ctx, ticker, endDate, 100)

	deps.Tracker.Update(id, ticker, "Analyzing legislation, contracts and congressional trading")
	return evaluators.EvaluatePelosi(ticker, evaluators.PelosiInput{
		Items:     items,
		MarketCap: marketCap,
		News:      news,
		Trades:    trades,
	}), nil
}
