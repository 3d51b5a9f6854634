package evaluators

import (
	"encoding/json"
	"strings"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
)

// Result is the output of one scoring check.
type Result struct {
	Score    float64        `json:"score"`
	MaxScore float64        `json:"max_score,omitempty"`
	Details  string         `json:"details"`
	Extra    map[string]any `json:"-"`
}

// MarshalJSON flattens Extra next to score and details.
func (r Result) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+3)
	for k, v := range r.Extra {
		out[k] = v
	}
	out["score"] = r.Score
	out["details"] = r.Details
	if r.MaxScore > 0 {
		out["max_score"] = r.MaxScore
	}
	return json.Marshal(out)
}

func insufficient(details string) Result {
	return Result{Score: 0, Details: details}
}

// Section is one named check inside an Analysis.
type Section struct {
	Name   string
	Result Result
}

// Analysis is the aggregate evaluation of one ticker by one persona.
type Analysis struct {
	Ticker   string
	Signal   models.SignalKind
	Score    float64
	MaxScore float64
	Sections []Section
	Extra    map[string]any
}

// MarshalJSON renders the analysis the way it is handed to the model:
// signal, score and max_score plus one key per section.
func (a Analysis) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(a.Sections)+len(a.Extra)+3)
	for k, v := range a.Extra {
		out[k] = v
	}
	for _, s := range a.Sections {
		out[s.Name] = s.Result
	}
	out["signal"] = a.Signal
	out["score"] = a.Score
	out["max_score"] = a.MaxScore
	return json.Marshal(out)
}

// Section returns the named section result.
func (a Analysis) Section(name string) (Result, bool) {
	for _, s := range a.Sections {
		if s.Name == name {
			return s.Result, true
		}
	}
	return Result{}, false
}

// Thresholds are fractions of the maximum score that separate the signals.
type Thresholds struct {
	Bullish float64
	Bearish float64
}

// Classify maps score out of max to a signal: at or above Bullish·max is
// bullish, at or below Bearish·max is bearish.
func (t Thresholds) Classify(score, max float64) models.SignalKind {
	switch {
	case score >= t.Bullish*max:
		return models.Bullish
	case score <= t.Bearish*max:
		return models.Bearish
	}
	return models.Neutral
}

// newAnalysis sums the sections and clamps the total to [0, max]; section
// maxima may add up to more than max.
func newAnalysis(ticker string, max float64, t Thresholds, sections ...Section) Analysis {
	var total float64
	for _, s := range sections {
		total += s.Result.Score
	}
	total = clamp(total, 0, max)
	return Analysis{
		Ticker:   ticker,
		Signal:   t.Classify(total, max),
		Score:    total,
		MaxScore: max,
		Sections: sections,
	}
}

func join(details []string, empty string) string {
	if len(details) == 0 {
		return empty
	}
	return strings.Join(details, "; ")
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// latest returns the newest line item, if any.
func latest(items []models.LineItem) (models.LineItem, bool) {
	if len(items) == 0 {
		return models.LineItem{}, false
	}
	return items[0], true
}
