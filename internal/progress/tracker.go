// Package progress tracks what each agent is doing for each ticker.
package progress

import (
	"sort"
	"sync"
	"time"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/logger"
)

// Update is one status change. An empty Ticker refers to the agent's node
// as a whole.
type Update struct {
	Agent  string    `json:"agent"`
	Ticker string    `json:"ticker,omitempty"`
	Status string    `json:"status"`
	At     time.Time `json:"at"`
}

type Handler func(Update)

// Tracker keeps the latest status per agent and fans updates out to
// registered handlers. A nil *Tracker is valid and drops everything.
type Tracker struct {
	mu       sync.Mutex
	latest   map[string]Update
	handlers []Handler
	log      *logger.Logger
	now      func() time.Time
}

func NewTracker(log *logger.Logger) *Tracker {
	if log == nil {
		log = logger.Component("progress")
	}
	return &Tracker{
		latest: make(map[string]Update),
		log:    log,
		now:    time.Now,
	}
}

// Register adds h to the handlers called on every update.
func (t *Tracker) Register(h Handler) {
	if t == nil || h == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = append(t.handlers, h)
}

func (t *Tracker) Update(agent, ticker, status string) {
	if t == nil {
		return
	}
	u := Update{Agent: agent, Ticker: ticker, Status: status, At: t.now()}

	t.mu.Lock()
	t.latest[agent] = u
	handlers := append([]Handler(nil), t.handlers...)
	t.mu.Unlock()

	t.log.Debugw("progress", "agent", agent, "ticker", ticker, "status", status)
	for _, h := range handlers {
		h(u)
	}
}

// Latest returns the last update for agent.
func (t *Tracker) Latest(agent string) (Update, bool) {
	if t == nil {
		return Update{}, false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	u, ok := t.latest[agent]
	return u, ok
}

// Snapshot returns the latest update of every agent ordered by agent id.
func (t *Tracker) Snapshot() []Update {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Update, 0, len(t.latest))
	for _, u := range t.latest {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Agent < out[j].Agent })
	return out
}

// Reset forgets every status but keeps the handlers.
func (t *Tracker) Reset() {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest = make(map[string]Update)
}
