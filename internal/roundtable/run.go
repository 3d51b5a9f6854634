package roundtable

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mantoumaster/ai-hedge-fund-API/internal/agents"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
)

var ErrNoTickers = errors.New("no tickers to discuss")

const defaultMaxParallel = 2

// Request describes a round table over several tickers.
type Request struct {
	Tickers []string
	// Signals holds the analysts' signals keyed by agent then ticker.
	Signals       map[string]map[string]models.Signal
	ModelName     string
	ModelProvider string
	ShowReasoning bool
	// MaxParallel bounds how many tickers are debated at once.
	MaxParallel int
	// Seed fixes questioner pairing. Zero seeds from the clock.
	Seed  int64
	Sleep func(ctx context.Context, d time.Duration) error
}

// RunRoundTable debates every ticker that has at least one signal and
// returns the verdicts keyed by ticker. Each ticker gets its own engine
// and transcript.
func RunRoundTable(ctx context.Context, deps agents.Deps, req Request) (map[string]models.RoundTableOutput, error) {
	if len(req.Tickers) == 0 {
		return nil, ErrNoTickers
	}
	log := deps.Logger().With("component", "roundtable")
	signals := models.TickerSignalsFrom(req.Signals)

	limit := req.MaxParallel
	if limit < 1 {
		limit = defaultMaxParallel
	}
	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	var (
		mu      sync.Mutex
		results = make(map[string]models.RoundTableOutput, len(req.Tickers))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, ticker := range req.Tickers {
		forTicker := signals.ForTicker(ticker)
		if len(forTicker) == 0 {
			log.Warnw("no analyst signals, skipping round table", "ticker", ticker)
			continue
		}

		opts := []Option{
			WithRand(rand.New(rand.NewSource(seed + int64(i)))),
			WithTracker(deps.Tracker),
			WithLogger(log),
		}
		if req.Sleep != nil {
			opts = append(opts, WithSleep(req.Sleep))
		}
		engine := NewEngine(deps.Model, opts...)

		g.Go(func() error {
			out := engine.Run(gctx, ticker, forTicker)
			if req.ShowReasoning {
				log.Infow("round table transcript", "ticker", ticker, "model", req.ModelName,
					"provider", req.ModelProvider, "transcript", out.ConversationTranscript)
			}
			mu.Lock()
			results[ticker] = out
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, ctx.Err()
}
