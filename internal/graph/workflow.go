package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/shopspring/decimal"

	"github.com/mantoumaster/ai-hedge-fund-API/consts"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/agents"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/agents/managers"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/progress"
)

var ErrNoTickers = errors.New("no tickers given")

// DefaultInitialCash seeds the portfolio when the request carries none.
var DefaultInitialCash = decimal.NewFromInt(100000)

type stateKey struct{}

// WithState attaches the run's state so the graph's local state generator
// can hand it to every node.
func WithState(ctx context.Context, state *models.WorkflowState) context.Context {
	return context.WithValue(ctx, stateKey{}, state)
}

func stateFrom(ctx context.Context) *models.WorkflowState {
	if s, ok := ctx.Value(stateKey{}).(*models.WorkflowState); ok && s != nil {
		return s
	}
	return models.NewWorkflowState(nil, time.Now(), time.Now(), nil, models.WorkflowMetadata{})
}

// ResolveAnalysts maps a selection to runnable analysts. An empty selection
// means all of them; unknown and repeated ids are dropped.
func ResolveAnalysts(deps agents.Deps, selected []string) []agents.Analyst {
	if len(selected) == 0 {
		return agents.Analysts()
	}
	seen := make(map[string]bool, len(selected))
	out := make([]agents.Analyst, 0, len(selected))
	for _, id := range selected {
		if seen[id] {
			continue
		}
		seen[id] = true
		a, ok := agents.LookupAnalyst(id)
		if !ok {
			deps.Logger().Warnw("unknown analyst, skipping", "analyst", id)
			continue
		}
		out = append(out, a)
	}
	return out
}

// BuildWorkflow wires START -> analysts -> risk manager -> portfolio manager
// -> END and compiles it. It returns the ids of the analyst nodes.
func BuildWorkflow(ctx context.Context, deps agents.Deps, selected []string) (compose.Runnable[map[string]any, map[string]any], []string, error) {
	g := compose.NewGraph[map[string]any, map[string]any](
		compose.WithGenLocalState(func(ctx context.Context) *models.WorkflowState {
			return stateFrom(ctx)
		}),
	)

	analysts := ResolveAnalysts(deps, selected)
	ids := make([]string, 0, len(analysts))
	for _, a := range analysts {
		if err := g.AddLambdaNode(a.ID(), compose.InvokableLambda(analystNode(deps, a)), compose.WithNodeName(a.ID())); err != nil {
			return nil, nil, fmt.Errorf("add node %s: %w", a.ID(), err)
		}
		ids = append(ids, a.ID())
	}
	if err := g.AddLambdaNode(consts.RiskManager, compose.InvokableLambda(riskNode(deps)), compose.WithNodeName(consts.RiskManager)); err != nil {
		return nil, nil, fmt.Errorf("add node %s: %w", consts.RiskManager, err)
	}
	if err := g.AddLambdaNode(consts.PortfolioManager, compose.InvokableLambda(portfolioNode(deps)), compose.WithNodeName(consts.PortfolioManager)); err != nil {
		return nil, nil, fmt.Errorf("add node %s: %w", consts.PortfolioManager, err)
	}

	if len(ids) == 0 {
		deps.Logger().Warn("no valid analysts selected, wiring start to risk manager")
		if err := g.AddEdge(compose.START, consts.RiskManager); err != nil {
			return nil, nil, err
		}
	}
	for _, id := range ids {
		if err := g.AddEdge(compose.START, id); err != nil {
			return nil, nil, err
		}
		if err := g.AddEdge(id, consts.RiskManager); err != nil {
			return nil, nil, err
		}
	}
	if err := g.AddEdge(consts.RiskManager, consts.PortfolioManager); err != nil {
		return nil, nil, err
	}
	if err := g.AddEdge(consts.PortfolioManager, compose.END); err != nil {
		return nil, nil, err
	}

	r, err := g.Compile(ctx,
		compose.WithGraphName(consts.WorkflowGraphName),
		compose.WithNodeTriggerMode(compose.AllPredecessor),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("compile workflow: %w", err)
	}
	return r, ids, nil
}

type runInput struct {
	tickers       []string
	endDate       time.Time
	signals       *models.TickerSignals
	showReasoning bool
}

func analystNode(deps agents.Deps, a agents.Analyst) func(context.Context, map[string]any) (map[string]any, error) {
	return func(ctx context.Context, _ map[string]any) (map[string]any, error) {
		var in runInput
		err := compose.ProcessState[*models.WorkflowState](ctx, func(_ context.Context, state *models.WorkflowState) error {
			in = runInput{
				tickers:       append([]string(nil), state.Data.Tickers...),
				endDate:       parseDate(state.Data.EndDate),
				signals:       state.Data.AnalystSignals,
				showReasoning: state.Metadata.ShowReasoning,
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%s: read state: %w", a.ID(), err)
		}

		// State is not held during generation so analysts run side by side.
		out := agents.RunForTickers(ctx, deps, a, in.signals, in.tickers, in.endDate)

		body, _ := json.Marshal(out)
		if in.showReasoning {
			deps.Logger().Infow("analyst reasoning", "agent", a.ID(), "signals", string(body))
		}
		err = compose.ProcessState[*models.WorkflowState](ctx, func(_ context.Context, state *models.WorkflowState) error {
			state.AppendMessage(a.ID(), string(body))
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%s: record messages: %w", a.ID(), err)
		}
		return map[string]any{a.ID(): out}, nil
	}
}

func riskNode(deps agents.Deps) func(context.Context, map[string]any) (map[string]any, error) {
	return func(ctx context.Context, _ map[string]any) (map[string]any, error) {
		var limits map[string]models.RiskLimit
		err := compose.ProcessState[*models.WorkflowState](ctx, func(ctx context.Context, state *models.WorkflowState) error {
			limits = managers.AssessRisk(ctx, deps, state)
			return nil
		})
		return map[string]any{consts.RiskManager: limits}, err
	}
}

func portfolioNode(deps agents.Deps) func(context.Context, map[string]any) (map[string]any, error) {
	return func(ctx context.Context, _ map[string]any) (map[string]any, error) {
		var decisions map[string]models.Decision
		err := compose.ProcessState[*models.WorkflowState](ctx, func(ctx context.Context, state *models.WorkflowState) error {
			decisions = managers.Decide(ctx, deps, state)
			if state.Metadata.ShowReasoning {
				body, _ := json.Marshal(decisions)
				deps.Logger().Infow("portfolio decisions", "decisions", string(body))
			}
			return nil
		})
		return map[string]any{consts.PortfolioManager: decisions}, err
	}
}

func parseDate(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Now()
	}
	return t
}

// WorkflowRequest describes one hedge fund run. Zero dates default to today
// and three months before the end date.
type WorkflowRequest struct {
	Tickers          []string
	StartDate        time.Time
	EndDate          time.Time
	Portfolio        *models.Portfolio
	SelectedAnalysts []string
	ModelName        string
	ModelProvider    string
	ShowReasoning    bool
}

type WorkflowResult struct {
	RunID          string                              `json:"run_id"`
	Analysts       []string                            `json:"analysts"`
	Decisions      map[string]models.Decision          `json:"decisions"`
	AnalystSignals map[string]map[string]models.Signal `json:"analyst_signals"`
	RiskLimits     map[string]models.RiskLimit         `json:"risk_limits"`
}

// RunWorkflow builds the graph for the selected analysts and runs it once.
func RunWorkflow(ctx context.Context, deps agents.Deps, req WorkflowRequest) (*WorkflowResult, error) {
	if len(req.Tickers) == 0 {
		return nil, ErrNoTickers
	}

	end := req.EndDate
	if end.IsZero() {
		end = time.Now()
	}
	start := req.StartDate
	if start.IsZero() {
		start = end.AddDate(0, -3, 0)
	}
	portfolio := req.Portfolio
	if portfolio == nil {
		portfolio = models.NewPortfolio(req.Tickers, DefaultInitialCash, decimal.Zero)
	}

	state := models.NewWorkflowState(req.Tickers, start, end, portfolio, models.WorkflowMetadata{
		ShowReasoning: req.ShowReasoning,
		ModelName:     req.ModelName,
		ModelProvider: req.ModelProvider,
	})
	log := deps.Logger().With("run_id", state.RunID)
	log.Infow("starting workflow", "tickers", req.Tickers, "start", state.Data.StartDate, "end", state.Data.EndDate)

	runnable, ids, err := BuildWorkflow(ctx, deps, req.SelectedAnalysts)
	if err != nil {
		return nil, err
	}

	nodes := append(append([]string(nil), ids...), consts.RiskManager, consts.PortfolioManager)
	_, err = runnable.Invoke(WithState(ctx, state), map[string]any{"tickers": req.Tickers},
		compose.WithCallbacks(progress.NewNodeCallback(deps.Tracker, nodes...)))
	if err != nil {
		return nil, fmt.Errorf("run workflow: %w", err)
	}
	log.Infow("workflow finished", "analysts", ids, "decisions", len(state.Data.Decisions))

	return &WorkflowResult{
		RunID:          state.RunID,
		Analysts:       ids,
		Decisions:      state.Data.Decisions,
		AnalystSignals: state.Data.AnalystSignals.Snapshot(),
		RiskLimits:     state.Data.RiskLimits,
	}, nil
}
