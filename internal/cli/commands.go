package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mantoumaster/ai-hedge-fund-API/config"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/agents"
	"github.com/mantoumaster/ai-hedge-fund-API/internal/logger"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "hedgefund",
		Short: "Multi-agent AI hedge fund",
		Long: `hedgefund runs a team of investor-persona analysts over a set of tickers,
sizes positions through a risk manager and lets a portfolio manager decide.
Optionally the personas debate each ticker at a moderated round table.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				cfg.Debug = true
				cfg.LogLevel = "debug"
			}
			if err := logger.Init(cfg.LogLevel, cfg.Env); err != nil {
				return fmt.Errorf("failed to init logger: %w", err)
			}
			return nil
		},
	}

	rootCmd.AddCommand(newRunCmd(cfg))
	rootCmd.AddCommand(newRoundTableCmd(cfg))
	rootCmd.AddCommand(newPersonasCmd())
	rootCmd.AddCommand(newConfigCmd(cfg))
	rootCmd.AddCommand(newVersionCmd())

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")

	return rootCmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("tickers", nil, "Comma-separated list of ticker symbols")
	cmd.Flags().String("start-date", "", "Start date (YYYY-MM-DD), defaults to 3 months before end date")
	cmd.Flags().String("end-date", "", "End date (YYYY-MM-DD), defaults to today")
	cmd.Flags().StringSlice("analysts", nil, "Analysts to run, defaults to an interactive choice or all")
	cmd.Flags().Float64("initial-cash", 100000, "Initial cash position")
	cmd.Flags().Float64("margin-requirement", 0, "Initial margin requirement")
	cmd.Flags().Bool("show-reasoning", false, "Show the reasoning of each agent")
	cmd.Flags().String("model", "", "Model name, defaults to LLM_MODEL")
	cmd.Flags().String("provider", "", "Model provider (openai|deepseek), defaults to LLM_PROVIDER")
	cmd.Flags().String("metrics-addr", "", "Serve /metrics and /health on this address")
	cmd.Flags().Bool("save", false, "Write the result as JSON into the results directory")
	cmd.Flags().Bool("crypto", false, "Analyze cryptocurrencies: tickers become USD pairs such as BTC-USD")
	_ = cmd.MarkFlagRequired("tickers")
}

func readRunOptions(cmd *cobra.Command) (runOptions, error) {
	var opts runOptions
	flags := cmd.Flags()

	tickers, _ := flags.GetStringSlice("tickers")
	opts.crypto, _ = flags.GetBool("crypto")
	opts.tickers = normalizeTickers(tickers, opts.crypto)
	if len(opts.tickers) == 0 {
		return opts, fmt.Errorf("at least one ticker is required")
	}

	var err error
	startDate, _ := flags.GetString("start-date")
	if opts.start, err = parseDate(startDate); err != nil {
		return opts, fmt.Errorf("invalid start date: %w", err)
	}
	endDate, _ := flags.GetString("end-date")
	if opts.end, err = parseDate(endDate); err != nil {
		return opts, fmt.Errorf("invalid end date: %w", err)
	}
	if !opts.start.IsZero() && !opts.end.IsZero() && opts.start.After(opts.end) {
		return opts, fmt.Errorf("start date %s is after end date %s", startDate, endDate)
	}

	opts.analysts, _ = flags.GetStringSlice("analysts")
	opts.initialCash, _ = flags.GetFloat64("initial-cash")
	opts.marginRequirement, _ = flags.GetFloat64("margin-requirement")
	opts.showReasoning, _ = flags.GetBool("show-reasoning")
	opts.model, _ = flags.GetString("model")
	opts.provider, _ = flags.GetString("provider")
	opts.metricsAddr, _ = flags.GetString("metrics-addr")
	opts.save, _ = flags.GetBool("save")
	return opts, nil
}

func newRunCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the hedge fund workflow",
		Example: `  hedgefund run --tickers AAPL,MSFT --show-reasoning
  hedgefund run --tickers 0700.HK --analysts ben_graham_agent,wsb_agent --round-table`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readRunOptions(cmd)
			if err != nil {
				return err
			}
			opts.roundTable, _ = cmd.Flags().GetBool("round-table")
			return runAnalysis(cmd.Context(), cfg, opts, cmd.OutOrStdout())
		},
	}
	addRunFlags(cmd)
	cmd.Flags().Bool("round-table", false, "Debate every ticker at a round table after the workflow")
	return cmd
}

func newRoundTableCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roundtable",
		Short: "Run every analyst, then debate each ticker at a round table",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readRunOptions(cmd)
			if err != nil {
				return err
			}
			opts.roundTable = true
			return runAnalysis(cmd.Context(), cfg, opts, cmd.OutOrStdout())
		},
	}
	addRunFlags(cmd)
	return cmd
}

func newPersonasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "personas",
		Short: "List the analyst personas",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), renderPersonas(agents.Profiles(), agents.AnalystIDs()))
		},
	}
}

// newVersionCmd creates the version command
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "hedgefund %s\n", Version)
		},
	}
}

// newConfigCmd creates the config command
func newConfigCmd(cfg *config.Config) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), renderConfig(cfg))
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				fmt.Fprintln(cmd.OutOrStdout(), errorStyle.Render("configuration is invalid:"))
				for _, line := range strings.Split(err.Error(), "\n") {
					fmt.Fprintln(cmd.OutOrStdout(), "  - "+line)
				}
				return err
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("directory validation failed: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), completedStyle.Render("configuration is valid"))
			return nil
		},
	})

	return configCmd
}
