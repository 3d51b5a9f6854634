package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Price is one daily OHLCV bar.
type Price struct {
	Ticker string          `json:"ticker"`
	Time   time.Time       `json:"time"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// LatestClose returns the close of the most recent bar.
func LatestClose(prices []Price) (decimal.Decimal, bool) {
	if len(prices) == 0 {
		return decimal.Zero, false
	}
	latest := prices[0]
	for _, p := range prices[1:] {
		if p.Time.After(latest.Time) {
			latest = p
		}
	}
	return latest.Close, true
}
