package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mantoumaster/ai-hedge-fund-API/config"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/agents"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/dataflows"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/debug"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/graph"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/llm"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/logger"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/progress"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/roundtable"
)

const dateLayout = "2006-01-02"

type runOptions struct {
	tickers           []string
	start, end        time.Time
	analysts          []string
	initialCash       float64
	marginRequirement float64
	showReasoning     bool
	roundTable        bool
	crypto            bool
	model             string
	provider          string
	metricsAddr       string
	save              bool
}

// Report is everything one invocation produced.
type Report struct {
	*graph.WorkflowResult
	RoundTable map[string]models.RoundTableOutput `json:"round_table,omitempty"`
	Tickers    []string                           `json:"tickers"`
}

// normalizeTickers upper-cases and dedupes tickers. In crypto mode every
// ticker becomes a USD pair.
func normalizeTickers(in []string, crypto bool) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, t := range in {
		t = strings.ToUpper(strings.TrimSpace(t))
		if crypto && t != "" {
			t = dataflows.CryptoTicker(t)
		}
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(dateLayout, s)
}

func runAnalysis(ctx context.Context, cfg *config.Config, opts runOptions, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	log := logger.Component("cli")

	if opts.metricsAddr == "" {
		opts.metricsAddr = cfg.MetricsAddr
	}
	if opts.metricsAddr != "" {
		go func() {
			if err := debug.Serve(ctx, opts.metricsAddr, log); err != nil {
				log.Errorw("metrics server stopped", "error", err)
			}
		}()
	}
	if err := debug.NewEinoDebugger(cfg, log).Initialize(ctx); err != nil {
		log.Warnw("eino debugger unavailable", "error", err)
	}

	selected := opts.analysts
	switch {
	case opts.roundTable && len(selected) == 0:
		selected = agents.AnalystIDs()
	case len(selected) == 0 && isInteractive():
		picked, err := PromptForAnalysts()
		if err != nil {
			return fmt.Errorf("analyst selection: %w", err)
		}
		selected = picked
	}

	llmOpts := llm.OptionsFromConfig(cfg, opts.provider, opts.model)
	cm, err := llm.NewChatModel(ctx, llmOpts)
	if err != nil {
		return fmt.Errorf("failed to create chat model: %w", err)
	}

	tracker := progress.NewTracker(log)
	tracker.Register(progressPrinter(os.Stderr))
	deps := agents.Deps{
		Provider: dataflows.NewClient(cfg),
		Model:    cm,
		Tracker:  tracker,
		Log:      log,
	}

	portfolio := models.NewPortfolio(opts.tickers,
		decimal.NewFromFloat(opts.initialCash), decimal.NewFromFloat(opts.marginRequirement))

	result, err := graph.RunWorkflow(ctx, deps, graph.WorkflowRequest{
		Tickers:          opts.tickers,
		StartDate:        opts.start,
		EndDate:          opts.end,
		Portfolio:        portfolio,
		SelectedAnalysts: selected,
		ModelName:        llmOpts.Model,
		ModelProvider:    llmOpts.Provider,
		ShowReasoning:    opts.showReasoning,
	})
	if err != nil {
		return err
	}
	report := &Report{WorkflowResult: result, Tickers: opts.tickers}

	if opts.roundTable {
		report.RoundTable, err = roundtable.RunRoundTable(ctx, deps, roundtable.Request{
			Tickers:       opts.tickers,
			Signals:       result.AnalystSignals,
			ModelName:     llmOpts.Model,
			ModelProvider: llmOpts.Provider,
			ShowReasoning: opts.showReasoning,
			MaxParallel:   cfg.RoundTableMaxParallel,
		})
		if err != nil {
			return fmt.Errorf("round table: %w", err)
		}
	}

	fmt.Fprintln(out, renderReport(report, opts.showReasoning))

	if opts.save {
		path, err := saveReport(cfg.ResultsDir, report)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, dimStyle.Render("saved "+path))
	}
	return nil
}
