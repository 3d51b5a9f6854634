package cli

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mantoumaster/ai-hedge-fund-API/config"
	"github.com/mantoumaster/ai-hedge-fund-API/consts"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/agents"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/models"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/progress"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			Padding(0, 1).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B82F6")).
			Padding(0, 1).
			Width(80)

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3B82F6")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)

	bullishStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	bearishStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	neutralStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)

	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")).Bold(true)
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func signalStyle(kind models.SignalKind) lipgloss.Style {
	switch kind {
	case models.Bullish:
		return bullishStyle
	case models.Bearish:
		return bearishStyle
	}
	return neutralStyle
}

func actionStyle(a models.Action) lipgloss.Style {
	switch a {
	case models.ActionBuy, models.ActionCover:
		return bullishStyle
	case models.ActionSell, models.ActionShort:
		return bearishStyle
	}
	return neutralStyle
}

func displayName(agent string) string {
	if p, ok := agents.LookupProfile(agent); ok {
		return p.Name
	}
	if agent == consts.RiskManager {
		return "Risk Management"
	}
	return strings.ReplaceAll(strings.TrimSuffix(agent, "_agent"), "_", " ")
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func wrap(s string, width int) string {
	return lipgloss.NewStyle().Width(width).Render(s)
}

func renderSignals(ticker string, signals map[string]map[string]models.Signal, showReasoning bool) string {
	agentIDs := make([]string, 0, len(signals))
	for agent, byTicker := range signals {
		if _, ok := byTicker[ticker]; ok && agent != consts.RiskManager {
			agentIDs = append(agentIDs, agent)
		}
	}
	sort.Strings(agentIDs)

	headers := []string{"Analyst", "Signal", "Confidence"}
	if showReasoning {
		headers = append(headers, "Reasoning")
	}
	t := newTable(headers...)
	for _, agent := range agentIDs {
		sig := signals[agent][ticker]
		row := []string{
			displayName(agent),
			signalStyle(sig.Signal).Render(strings.ToUpper(string(sig.Signal))),
			fmt.Sprintf("%.1f%%", sig.Confidence),
		}
		if showReasoning {
			row = append(row, wrap(sig.Reasoning, 50))
		}
		t.Row(row...)
	}
	return t.String()
}

func renderDecision(d models.Decision) string {
	body := fmt.Sprintf("Action:     %s\nQuantity:   %d\nConfidence: %.1f%%\nReasoning:  %s",
		actionStyle(d.Action).Render(strings.ToUpper(string(d.Action))),
		d.Quantity, d.Confidence, d.Reasoning)
	return boxStyle.Render(body)
}

func renderRoundTable(out models.RoundTableOutput, showTranscript bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Verdict:    %s (%.1f%%)\n", signalStyle(out.Signal).Render(strings.ToUpper(string(out.Signal))), out.Confidence)
	fmt.Fprintf(&b, "Reasoning:  %s\n", out.Reasoning)
	fmt.Fprintf(&b, "Summary:    %s\n", out.DiscussionSummary)
	fmt.Fprintf(&b, "Consensus:  %s\n", out.ConsensusView)
	fmt.Fprintf(&b, "Dissent:    %s", out.DissentingOpinions)
	s := boxStyle.Render(b.String())
	if showTranscript && out.ConversationTranscript != "" {
		s += "\n" + titleStyle.Render("Transcript") + "\n" + wrap(out.ConversationTranscript, 100)
	}
	return s
}

func renderReport(r *Report, showReasoning bool) string {
	var sections []string
	for _, ticker := range r.Tickers {
		sections = append(sections, titleStyle.Render("Analysis for "+ticker))
		sections = append(sections, renderSignals(ticker, r.AnalystSignals, showReasoning))
		if d, ok := r.Decisions[ticker]; ok {
			sections = append(sections, titleStyle.Render("Trading decision"), renderDecision(d))
		}
		if rt, ok := r.RoundTable[ticker]; ok {
			sections = append(sections, titleStyle.Render("Round table"), renderRoundTable(rt, showReasoning))
		}
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func renderPersonas(profiles []models.PersonaProfile, runnable []string) string {
	canRun := make(map[string]bool, len(runnable))
	for _, id := range runnable {
		canRun[id] = true
	}
	t := newTable("ID", "Name", "Style", "Runnable")
	for _, p := range profiles {
		mark := dimStyle.Render("no")
		if canRun[p.ID] {
			mark = completedStyle.Render("yes")
		}
		t.Row(p.ID, p.Name, wrap(p.Style, 40), mark)
	}
	return t.String()
}

func mask(secret string) string {
	if secret == "" {
		return errorStyle.Render("not set")
	}
	if len(secret) <= 4 {
		return "****"
	}
	return "****" + secret[len(secret)-4:]
}

func renderConfig(cfg *config.Config) string {
	t := newTable("Setting", "Value")
	rows := [][2]string{
		{"LLM provider", cfg.LLMProvider},
		{"LLM model", cfg.LLMModel},
		{"LLM API key", mask(cfg.LLMAPIKey())},
		{"Max tokens", strconv.Itoa(cfg.LLMMaxTokens)},
		{"Online tools", strconv.FormatBool(cfg.OnlineTools)},
		{"Cache", fmt.Sprintf("%t (%s)", cfg.CacheEnabled, cfg.CacheBackend)},
		{"Redis", cfg.RedisAddr},
		{"Finnhub API key", mask(cfg.FinnhubAPIKey)},
		{"Longport", strconv.FormatBool(cfg.HasLongport())},
		{"Results directory", cfg.ResultsDir},
		{"Cache directory", cfg.DataCacheDir},
		{"Round table parallelism", strconv.Itoa(cfg.RoundTableMaxParallel)},
		{"Metrics address", cfg.MetricsAddr},
		{"Eino debug", fmt.Sprintf("%t (port %d)", cfg.EinoDebugEnabled, cfg.EinoDebugPort)},
		{"Log level", cfg.LogLevel},
	}
	for _, r := range rows {
		t.Row(r[0], r[1])
	}
	return t.String()
}

// progressPrinter prints one line per status change.
func progressPrinter(w io.Writer) progress.Handler {
	return func(u progress.Update) {
		status := u.Status
		switch status {
		case consts.State_Done:
			status = completedStyle.Render("✓ " + status)
		case consts.State_Failed:
			status = errorStyle.Render("✗ " + status)
		default:
			status = dimStyle.Render(status)
		}
		ticker := ""
		if u.Ticker != "" {
			ticker = "[" + u.Ticker + "] "
		}
		fmt.Fprintf(w, "%-22s %s%s\n", displayName(u.Agent), ticker, status)
	}
}
