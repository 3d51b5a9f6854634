package agents

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cloudwego/eino/components/model"

	"github.com/mantoumaster/ai-hedge-fund-API/consts"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/dataflows"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/evaluators"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/llm"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/logger"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/metrics"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/progress"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/utils"
)

const defaultReasoning = "Error in analysis, defaulting to neutral"

// Deps are the collaborators shared by every agent of a run.
type Deps struct {
	Provider dataflows.Provider
	Model    model.BaseChatModel
	Tracker  *progress.Tracker
	Log      *logger.Logger
}

// Logger returns d.Log or the global logger.
func (d Deps) Logger() *logger.Logger {
	if d.Log != nil {
		return d.Log
	}
	return logger.Get()
}

// Analyst scores a ticker from market data and turns the score into a
// signal with the help of the chat model.
type Analyst interface {
	Persona
	Analyze(ctx context.Context, deps Deps, ticker string, endDate time.Time) (evaluators.Analysis, error)
	Thresholds() evaluators.Thresholds
	MaxScore() float64
	// SystemPrompt is the embedded prompt path framing the persona.
	SystemPrompt() string
}

func DefaultSignal() models.Signal {
	return models.Signal{Signal: models.Neutral, Confidence: 0, Reasoning: defaultReasoning}
}

// Run analyzes one ticker and records the resulting signal in signals when
// it is non-nil. Failures degrade to DefaultSignal.
func Run(ctx context.Context, deps Deps, a Analyst, signals *models.TickerSignals, ticker string, endDate time.Time) models.Signal {
	start := time.Now()
	log := deps.Logger().With("agent", a.ID(), "ticker", ticker)
	defer func() { metrics.RecordAgentRun(a.ID(), time.Since(start)) }()

	sig := runAnalyst(ctx, deps, a, log, ticker, endDate)
	if signals != nil {
		signals.Set(a.ID(), ticker, sig)
	}
	deps.Tracker.Update(a.ID(), ticker, consts.State_Done)
	return sig
}

func runAnalyst(ctx context.Context, deps Deps, a Analyst, log *logger.Logger, ticker string, endDate time.Time) models.Signal {
	analysis, err := a.Analyze(ctx, deps, ticker, endDate)
	if err != nil {
		log.Warnw("analysis failed", "error", err)
		return DefaultSignal()
	}
	log.Debugw("analysis complete", "score", analysis.Score, "max_score", analysis.MaxScore, "signal", analysis.Signal)

	deps.Tracker.Update(a.ID(), ticker, "Generating "+a.Profile().Name+" analysis")

	data, err := json.MarshalIndent(analysis, "", "  ")
	if err != nil {
		log.Warnw("failed to encode analysis", "error", err)
		return DefaultSignal()
	}
	msgs, err := utils.RenderPrompt(ctx, a.SystemPrompt(), "analysts/signal_request", map[string]any{
		"ticker":        ticker,
		"analysis_data": string(data),
	})
	if err != nil {
		log.Warnw("failed to build prompt", "error", err)
		return DefaultSignal()
	}

	return llm.Call(ctx, deps.Model, msgs, llm.CallOptions[models.Signal]{
		Caller:  a.ID(),
		Default: DefaultSignal,
	})
}

// RunForTickers runs a over every ticker in order.
func RunForTickers(ctx context.Context, deps Deps, a Analyst, signals *models.TickerSignals, tickers []string, endDate time.Time) map[string]models.Signal {
	out := make(map[string]models.Signal, len(tickers))
	for _, ticker := range tickers {
		out[ticker] = Run(ctx, deps, a, signals, ticker, endDate)
	}
	return out
}

func marketCapPtr(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return models.Float(v)
}
