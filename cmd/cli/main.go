package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"mfi-alm/internal/analysis"
	"mfi-alm/internal/config"
	"mfi-alm/internal/data"
	"mfi-alm/internal/engine"
	"mfi-alm/internal/logging"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "cli",
		Short:         "Capital calibration for an insurance asset/liability book",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", "examples/config.yaml", "Path to YAML config")
	pf.StringVar(&opts.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")

	cmd.AddCommand(
		newCalibrateCommand(opts),
		newValueCommand(opts),
		newLifetimeCommand(opts),
		newGentapeCommand(),
	)
	return cmd
}

func (o *rootOptions) load() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// selectScenarios narrows cfg.Scenarios to the comma-separated names, if any.
func selectScenarios(cfg *config.Config, names string) error {
	if names == "" {
		return nil
	}
	var out []config.Scenario
	for _, n := range strings.Split(names, ",") {
		n = strings.TrimSpace(n)
		s, ok := cfg.Scenario(n)
		if !ok {
			return fmt.Errorf("unknown scenario %q", n)
		}
		out = append(out, s)
	}
	cfg.Scenarios = out
	return nil
}

func newCalibrateCommand(root *rootOptions) *cobra.Command {
	var (
		scenarios string
		outDir    string
		method    string
	)
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Find the initial capital that exhausts the reserve at the horizon",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			if err := selectScenarios(cfg, scenarios); err != nil {
				return err
			}
			if method != "" {
				cfg.ProjectionMethod = method
			}
			if outDir != "" {
				cfg.OutputDir = outDir
			}

			runner, err := engine.NewRunner(cfg, engine.WithRunnerLogger(logger))
			if err != nil {
				return err
			}
			results := runner.RunAll()

			if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
				return err
			}
			for _, r := range results {
				if r.Result == nil {
					continue
				}
				path := filepath.Join(cfg.OutputDir, "ledger_"+r.Scenario.Name+".csv")
				if err := engine.WriteLedgerCSV(path, r.Scenario.Name, r.Result.Ledger(cfg.Tolerance)); err != nil {
					return err
				}
			}
			summaryPath := filepath.Join(cfg.OutputDir, "summary.csv")
			if err := engine.WriteSummaryCSV(summaryPath, engine.Summaries(results)); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "RANK\tSCENARIO\tCAPITAL\tCONVERGED\tITERATIONS\tELAPSED\tERROR")
			for _, r := range analysis.RankByCapital(results) {
				fmt.Fprintf(w, "%d\t%s\t%s\t%t\t%d\t%s\t%s\n",
					r.Rank, r.Scenario, analysis.FormatMoney(r.Capital, cfg.Currency),
					r.Converged, r.Iterations, analysis.FormatElapsed(r.Elapsed), r.Error)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", summaryPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&scenarios, "scenarios", "", "Comma-separated scenario names (default: all)")
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory for ledger and summary CSVs")
	cmd.Flags().StringVar(&method, "method", "", "Projection method override: vectorized|loop")
	return cmd
}

func newValueCommand(root *rootOptions) *cobra.Command {
	var scenarios string
	cmd := &cobra.Command{
		Use:   "value",
		Short: "Print asset market value and liability APV per scenario",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			if err := selectScenarios(cfg, scenarios); err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SCENARIO\tASSETS\tAVG YTM\tLIABILITY APV\tYEAR-1 BENEFITS")
			for _, sc := range cfg.Scenarios {
				assets, err := data.LoadAssetPortfolio(cfg.AssetPath, sc.YTMFactor)
				if err != nil {
					return fmt.Errorf("scenario %s: %w", sc.Name, err)
				}
				liabs, err := data.LoadLiabilityPortfolio(cfg.LiabilityPath, cfg.LiabilityInterest, sc.MortalityFactor)
				if err != nil {
					return fmt.Errorf("scenario %s: %w", sc.Name, err)
				}
				fmt.Fprintf(w, "%s\t%s\t%.4f%%\t%s\t%s\n",
					sc.Name,
					analysis.FormatMoney(assets.MarketValue(), cfg.Currency),
					100*assets.AverageYield(),
					analysis.FormatMoney(liabs.InsuranceAPV(), cfg.Currency),
					analysis.FormatMoney(liabs.ExpectedYearlyBenefit(), cfg.Currency))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&scenarios, "scenarios", "", "Comma-separated scenario names (default: all)")
	return cmd
}

func newLifetimeCommand(root *rootOptions) *cobra.Command {
	var (
		scenario string
		seed     uint64
		years    int
	)
	cmd := &cobra.Command{
		Use:   "lifetime",
		Short: "Simulate one remaining lifetime per policyholder and compare claims",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := root.load()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			sc, ok := cfg.Scenario(scenario)
			if !ok {
				return fmt.Errorf("unknown scenario %q", scenario)
			}
			liabs, err := data.LoadLiabilityPortfolio(cfg.LiabilityPath, cfg.LiabilityInterest, sc.MortalityFactor)
			if err != nil {
				return err
			}
			s, err := analysis.SimulateLifetimes(liabs, seed, years)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "policyholders=%d seed=%d\n", s.Count, s.Seed)
			fmt.Fprintf(out, "remaining lifetime: mean=%.2f p05=%.1f p95=%.1f min=%d max=%d\n", s.Mean, s.P05, s.P95, s.Min, s.Max)
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "YEAR\tEXPECTED\tSIMULATED")
			for t := range s.ExpectedClaims {
				fmt.Fprintf(w, "%d\t%s\t%s\n", t+1,
					analysis.FormatMoney(s.ExpectedClaims[t], cfg.Currency),
					analysis.FormatMoney(s.SimulatedClaims[t], cfg.Currency))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&scenario, "scenario", "base", "Scenario whose mortality factor is applied")
	cmd.Flags().Uint64Var(&seed, "seed", 42, "Base seed; policyholder i uses seed+i")
	cmd.Flags().IntVar(&years, "years", 10, "Years of claims to compare")
	return cmd
}

func newGentapeCommand() *cobra.Command {
	var (
		dir  string
		opts data.GenerateOptions
	)
	cmd := &cobra.Command{
		Use:   "gentape",
		Short: "Write seeded synthetic asset and policyholder tapes",
		RunE: func(cmd *cobra.Command, args []string) error {
			assetPath, phPath, err := data.GenerateTapes(dir, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s and %s\n", assetPath, phPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "data", "Output directory")
	cmd.Flags().Uint64Var(&opts.Seed, "seed", 42, "Random seed")
	cmd.Flags().IntVar(&opts.Policyholders, "policyholders", data.DefaultGeneratePolicyholders, "Number of policyholders")
	cmd.Flags().IntVar(&opts.Bonds, "bonds", data.DefaultGenerateBonds, "Number of bonds")
	return cmd
}
