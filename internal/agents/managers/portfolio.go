package managers

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mantoumaster/ai-hedge-fund-API/consts"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/agents"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/llm"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/utils"
)

const (
	defaultDecisionReason = "Error in portfolio management, defaulting to hold"
	missingDecisionReason = "No decision returned, defaulting to hold"
)

// Allowances returns the largest quantity each action may trade for one
// ticker. Hold is always allowed with quantity 0.
func Allowances(p *models.Portfolio, ticker string, limit models.RiskLimit, hasLimit bool) map[models.Action]int64 {
	out := map[models.Action]int64{models.ActionHold: 0}
	pos := p.Position(ticker)
	if pos.Long > 0 {
		out[models.ActionSell] = pos.Long
	}
	if pos.Short > 0 {
		out[models.ActionCover] = pos.Short
	}
	if !hasLimit || !limit.CurrentPrice.IsPositive() {
		return out
	}

	maxShares := limit.RemainingPositionLimit.Div(limit.CurrentPrice).Floor().IntPart()
	if maxShares > 0 {
		out[models.ActionBuy] = maxShares
		out[models.ActionShort] = maxShares
	}
	return out
}

// Clamp forces d inside the allowances. Disallowed actions become hold.
func Clamp(d models.Decision, allowed map[models.Action]int64) models.Decision {
	d.Confidence = models.ClampConfidence(d.Confidence)
	if !d.Action.Valid() {
		d.Action = models.ActionHold
	}
	if d.Action == models.ActionHold {
		d.Quantity = 0
		return d
	}
	maxQty, ok := allowed[d.Action]
	if !ok || maxQty <= 0 {
		d.Action, d.Quantity = models.ActionHold, 0
		return d
	}
	if d.Quantity > maxQty {
		d.Quantity = maxQty
	}
	if d.Quantity <= 0 {
		d.Action, d.Quantity = models.ActionHold, 0
	}
	return d
}

// Decide asks the model for one trade per ticker, then clamps every trade
// to what cash, positions and risk limits permit.
func Decide(ctx context.Context, deps agents.Deps, state *models.WorkflowState) map[string]models.Decision {
	data := &state.Data
	portfolio := data.Portfolio
	if portfolio == nil {
		portfolio = &models.Portfolio{}
	}

	signals := make(map[string]map[string]models.Signal, len(data.Tickers))
	prices := make(map[string]decimal.Decimal, len(data.Tickers))
	allowances := make(map[string]map[models.Action]int64, len(data.Tickers))
	for _, ticker := range data.Tickers {
		deps.Tracker.Update(consts.PortfolioManager, ticker, "Processing analyst signals")
		if data.AnalystSignals != nil {
			signals[ticker] = data.AnalystSignals.ForTicker(ticker)
		}
		limit, ok := data.RiskLimits[ticker]
		if ok {
			prices[ticker] = limit.CurrentPrice
		}
		allowances[ticker] = Allowances(portfolio, ticker, limit, ok)
	}

	deps.Tracker.Update(consts.PortfolioManager, "", "Making trading decisions")
	out := generateDecisions(ctx, deps, data.Tickers, signals, prices, allowances, portfolio)

	decisions := make(map[string]models.Decision, len(data.Tickers))
	for _, ticker := range data.Tickers {
		d, ok := out.Decisions[ticker]
		if !ok {
			d = models.HoldDecision(missingDecisionReason)
		}
		decisions[ticker] = Clamp(d, allowances[ticker])
	}

	if data.Decisions == nil {
		data.Decisions = make(map[string]models.Decision, len(decisions))
	}
	for ticker, d := range decisions {
		data.Decisions[ticker] = d
	}
	if body, err := json.Marshal(decisions); err == nil {
		state.AppendMessage(consts.PortfolioManager, string(body))
	}
	deps.Tracker.Update(consts.PortfolioManager, "", consts.State_Done)
	return decisions
}

func generateDecisions(
	ctx context.Context,
	deps agents.Deps,
	tickers []string,
	signals map[string]map[string]models.Signal,
	prices map[string]decimal.Decimal,
	allowances map[string]map[models.Action]int64,
	portfolio *models.Portfolio,
) models.PortfolioOutput {
	fallback := func() models.PortfolioOutput {
		out := models.PortfolioOutput{Decisions: make(map[string]models.Decision, len(tickers))}
		for _, t := range tickers {
			out.Decisions[t] = models.HoldDecision(defaultDecisionReason)
		}
		return out
	}

	msgs, err := utils.RenderPrompt(ctx, "managers/portfolio_manager", "managers/portfolio_request", map[string]any{
		"signals":            compact(signals),
		"prices":             compact(prices),
		"max_shares":         compact(allowances),
		"cash":               portfolio.Cash.StringFixed(2),
		"positions":          compact(sortedPositions(portfolio)),
		"margin_requirement": portfolio.MarginRequirement.String(),
	})
	if err != nil {
		deps.Logger().Warnw("failed to build portfolio prompt", "error", err)
		return fallback()
	}

	return llm.Call(ctx, deps.Model, msgs, llm.CallOptions[models.PortfolioOutput]{
		Caller:  consts.PortfolioManager,
		Default: fallback,
	})
}

type positionEntry struct {
	Ticker string `json:"ticker"`
	Long   int64  `json:"long"`
	Short  int64  `json:"short"`
}

func sortedPositions(p *models.Portfolio) []positionEntry {
	out := make([]positionEntry, 0, len(p.Positions))
	for ticker, pos := range p.Positions {
		out = append(out, positionEntry{Ticker: ticker, Long: pos.Long, Short: pos.Short})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out
}

func compact(v any) string {
	body, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(body)
}
