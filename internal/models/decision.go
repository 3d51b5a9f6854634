package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

type Action string

const (
	ActionBuy   Action = "buy"
	ActionSell  Action = "sell"
	ActionShort Action = "short"
	ActionCover Action = "cover"
	ActionHold  Action = "hold"
)

func (a Action) Valid() bool {
	switch a {
	case ActionBuy, ActionSell, ActionShort, ActionCover, ActionHold:
		return true
	}
	return false
}

// Decision is the portfolio manager's trade for one ticker.
type Decision struct {
	Action     Action  `json:"action"`
	Quantity   int64   `json:"quantity"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

func HoldDecision(reason string) Decision {
	return Decision{Action: ActionHold, Reasoning: reason}
}

// PortfolioOutput is the schema the portfolio manager asks the model for.
type PortfolioOutput struct {
	Decisions map[string]Decision `json:"decisions"`
}

// UnmarshalJSON tolerates fractional or quoted quantities and mixed-case
// actions. Unknown actions decode as hold.
func (d *Decision) UnmarshalJSON(data []byte) error {
	var raw struct {
		Action     string          `json:"action"`
		Quantity   json.RawMessage `json:"quantity"`
		Confidence json.RawMessage `json:"confidence"`
		Reasoning  json.RawMessage `json:"reasoning"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	qty, err := parseLooseFloat(raw.Quantity)
	if err != nil {
		return fmt.Errorf("invalid quantity: %w", err)
	}
	conf, err := parseLooseFloat(raw.Confidence)
	if err != nil {
		return fmt.Errorf("invalid confidence: %w", err)
	}

	action := Action(strings.ToLower(strings.TrimSpace(raw.Action)))
	if !action.Valid() {
		action = ActionHold
	}
	*d = Decision{
		Action:     action,
		Quantity:   int64(math.Max(qty, 0)),
		Confidence: ClampConfidence(conf),
		Reasoning:  looseString(raw.Reasoning),
	}
	return nil
}
