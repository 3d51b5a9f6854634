package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/mantoumaster/ai-hedge-fund-API/consts"
)

type SignalKind string

const (
	Bullish SignalKind = "bullish"
	Bearish SignalKind = "bearish"
	Neutral SignalKind = "neutral"
)

func (k SignalKind) Valid() bool {
	switch k {
	case Bullish, Bearish, Neutral:
		return true
	}
	return false
}

// ParseSignalKind normalises s. Unknown values map to neutral with ok=false.
func ParseSignalKind(s string) (SignalKind, bool) {
	k := SignalKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return Neutral, false
	}
	return k, true
}

// Signal is one analyst's verdict on one ticker.
type Signal struct {
	Signal     SignalKind `json:"signal"`
	Confidence float64    `json:"confidence"`
	Reasoning  string     `json:"reasoning"`
}

func NewSignal(kind SignalKind, confidence float64, reasoning string) Signal {
	if !kind.Valid() {
		kind = Neutral
	}
	return Signal{Signal: kind, Confidence: ClampConfidence(confidence), Reasoning: reasoning}
}

func ClampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 100 {
		return 100
	}
	return c
}

// UnmarshalJSON accepts the loose shapes models tend to return: numeric
// strings for confidence, mixed-case signals and reasoning objects.
func (s *Signal) UnmarshalJSON(data []byte) error {
	var raw struct {
		Signal     string          `json:"signal"`
		Confidence json.RawMessage `json:"confidence"`
		Reasoning  json.RawMessage `json:"reasoning"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kind, ok := ParseSignalKind(raw.Signal)
	if !ok {
		return fmt.Errorf("invalid signal %q", raw.Signal)
	}
	conf, err := parseLooseFloat(raw.Confidence)
	if err != nil {
		return fmt.Errorf("invalid confidence: %w", err)
	}
	*s = NewSignal(kind, conf, looseString(raw.Reasoning))
	return nil
}

func parseLooseFloat(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSuffix(strings.TrimSpace(str), "%"), 64)
}

func looseString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str
	}
	return string(raw)
}

// TickerSignals maps agent id -> ticker -> signal. Safe for concurrent use.
type TickerSignals struct {
	mu      sync.RWMutex
	signals map[string]map[string]Signal
}

func NewTickerSignals() *TickerSignals {
	return &TickerSignals{signals: make(map[string]map[string]Signal)}
}

// TickerSignalsFrom copies m into a new map.
func TickerSignalsFrom(m map[string]map[string]Signal) *TickerSignals {
	ts := NewTickerSignals()
	for agent, byTicker := range m {
		for ticker, sig := range byTicker {
			ts.Set(agent, ticker, sig)
		}
	}
	return ts
}

func (t *TickerSignals) Set(agent, ticker string, sig Signal) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.signals[agent] == nil {
		t.signals[agent] = make(map[string]Signal)
	}
	t.signals[agent][ticker] = sig
}

func (t *TickerSignals) Get(agent, ticker string) (Signal, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	sig, ok := t.signals[agent][ticker]
	return sig, ok
}

// ForTicker returns every analyst signal for ticker, leaving out the risk
// manager and round table entries.
func (t *TickerSignals) ForTicker(ticker string) map[string]Signal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]Signal)
	for agent, byTicker := range t.signals {
		if agent == consts.RiskManager || agent == consts.RoundTable {
			continue
		}
		if sig, ok := byTicker[ticker]; ok {
			out[agent] = sig
		}
	}
	return out
}

// Agents returns the agent ids with at least one signal, sorted.
func (t *TickerSignals) Agents() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	agents := make([]string, 0, len(t.signals))
	for agent := range t.signals {
		agents = append(agents, agent)
	}
	sort.Strings(agents)
	return agents
}

func (t *TickerSignals) Snapshot() map[string]map[string]Signal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]map[string]Signal, len(t.signals))
	for agent, byTicker := range t.signals {
		cp := make(map[string]Signal, len(byTicker))
		for ticker, sig := range byTicker {
			cp[ticker] = sig
		}
		out[agent] = cp
	}
	return out
}

func (t *TickerSignals) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Snapshot())
}
