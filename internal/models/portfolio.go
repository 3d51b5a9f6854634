package models

import "github.com/shopspring/decimal"

type Position struct {
	Long            int64           `json:"long"`
	Short           int64           `json:"short"`
	LongCostBasis   decimal.Decimal `json:"long_cost_basis"`
	ShortCostBasis  decimal.Decimal `json:"short_cost_basis"`
	ShortMarginUsed decimal.Decimal `json:"short_margin_used"`
}

type RealizedGain struct {
	Long  decimal.Decimal `json:"long"`
	Short decimal.Decimal `json:"short"`
}

// Portfolio is the simulated book a workflow run decides against.
type Portfolio struct {
	Cash              decimal.Decimal         `json:"cash"`
	MarginRequirement decimal.Decimal         `json:"margin_requirement"`
	MarginUsed        decimal.Decimal         `json:"margin_used"`
	Positions         map[string]Position     `json:"positions"`
	RealizedGains     map[string]RealizedGain `json:"realized_gains"`
}

// NewPortfolio opens an empty position for every ticker.
func NewPortfolio(tickers []string, cash, marginRequirement decimal.Decimal) *Portfolio {
	p := &Portfolio{
		Cash:              cash,
		MarginRequirement: marginRequirement,
		Positions:         make(map[string]Position, len(tickers)),
		RealizedGains:     make(map[string]RealizedGain, len(tickers)),
	}
	for _, t := range tickers {
		p.Positions[t] = Position{}
		p.RealizedGains[t] = RealizedGain{}
	}
	return p
}

func (p *Portfolio) Position(ticker string) Position {
	if p == nil || p.Positions == nil {
		return Position{}
	}
	return p.Positions[ticker]
}

// RiskLimit is what the risk manager allows for one ticker.
type RiskLimit struct {
	RemainingPositionLimit decimal.Decimal `json:"remaining_position_limit"`
	CurrentPrice           decimal.Decimal `json:"current_price"`
	PortfolioValue         decimal.Decimal `json:"portfolio_value"`
	CurrentPosition        decimal.Decimal `json:"current_position"`
	AvailableCash          decimal.Decimal `json:"available_cash"`
}
