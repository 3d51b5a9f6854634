package managers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mantoumaster/ai-hedge-fund-API/consts"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/agents"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
)

// PositionLimit is the largest share of total portfolio value one ticker
// may take.
var PositionLimit = decimal.NewFromFloat(0.20)

const dateLayout = "2006-01-02"

// AssessRisk computes the remaining position limit per ticker and stores it
// in state. Tickers without price data get no limit, which the portfolio
// manager treats as hold-only.
func AssessRisk(ctx context.Context, deps agents.Deps, state *models.WorkflowState) map[string]models.RiskLimit {
	log := deps.Logger().With("agent", consts.RiskManager)

	data := &state.Data
	start, end := parseDate(data.StartDate), parseDate(data.EndDate)
	portfolio := data.Portfolio
	if portfolio == nil {
		portfolio = &models.Portfolio{}
	}

	prices := make(map[string]decimal.Decimal, len(data.Tickers))
	for _, ticker := range data.Tickers {
		deps.Tracker.Update(consts.RiskManager, ticker, "Analyzing price data")
		price, ok := models.LatestClose(deps.Provider.GetPrices(ctx, ticker, start, end))
		if !ok {
			log.Warnw("no price data, skipping", "ticker", ticker)
			deps.Tracker.Update(consts.RiskManager, ticker, "Failed: No price data found")
			continue
		}
		prices[ticker] = price
	}

	total := portfolio.Cash
	for ticker, price := range prices {
		pos := portfolio.Position(ticker)
		total = total.Add(price.Mul(decimal.NewFromInt(pos.Long - pos.Short)))
	}

	limits := make(map[string]models.RiskLimit, len(prices))
	for _, ticker := range data.Tickers {
		price, ok := prices[ticker]
		if !ok {
			continue
		}
		deps.Tracker.Update(consts.RiskManager, ticker, "Calculating position limits")

		pos := portfolio.Position(ticker)
		current := price.Mul(decimal.NewFromInt(pos.Long - pos.Short)).Abs()
		remaining := decimal.Max(total.Mul(PositionLimit).Sub(current), decimal.Zero)
		remaining = decimal.Min(remaining, decimal.Max(portfolio.Cash, decimal.Zero))

		limit := models.RiskLimit{
			RemainingPositionLimit: remaining,
			CurrentPrice:           price,
			PortfolioValue:         total,
			CurrentPosition:        current,
			AvailableCash:          portfolio.Cash,
		}
		limits[ticker] = limit

		if data.AnalystSignals != nil {
			data.AnalystSignals.Set(consts.RiskManager, ticker, models.NewSignal(models.Neutral, 0, fmt.Sprintf(
				"Portfolio value %s, position limit %s%%, current position %s, remaining limit %s",
				total.StringFixed(2), PositionLimit.Shift(2).String(), current.StringFixed(2), remaining.StringFixed(2))))
		}
		deps.Tracker.Update(consts.RiskManager, ticker, consts.State_Done)
	}

	if data.RiskLimits == nil {
		data.RiskLimits = make(map[string]models.RiskLimit, len(limits))
	}
	for ticker, limit := range limits {
		data.RiskLimits[ticker] = limit
	}
	if body, err := json.Marshal(limits); err == nil {
		state.AppendMessage(consts.RiskManager, string(body))
	}
	return limits
}

func parseDate(s string) time.Time {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Now()
	}
	return t
}
