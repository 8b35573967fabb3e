package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"mfi-alm/internal/config"
	"mfi-alm/internal/data"
	"mfi-alm/internal/logging"
	"mfi-alm/internal/model"
)

// ParamsFromConfig maps the run configuration onto solver parameters.
// An unset initial capital starts at the midpoint of the bounds.
func ParamsFromConfig(cfg *config.Config) Params {
	initial := (cfg.MinimumCapital + cfg.MaximumCapital) / 2
	if cfg.InitialCapital != nil {
		initial = *cfg.InitialCapital
	}
	return Params{
		InitialCapital: initial,
		MinCapital:     cfg.MinimumCapital,
		MaxCapital:     cfg.MaximumCapital,
		Years:          cfg.ProjectionHorizon,
		MaxIterations:  cfg.MaxIterations,
		Tolerance:      cfg.Tolerance,
		Method:         Method(cfg.ProjectionMethod),
		YieldBasis:     YieldBasis(cfg.YieldBasis),
	}
}

// ScenarioResult is the outcome of one scenario. Err is set when the scenario
// could not be loaded or solved; Result is nil in that case.
type ScenarioResult struct {
	Scenario config.Scenario
	Result   *Result
	Err      error
	Elapsed  time.Duration

	AssetMarketValue float64
	LiabilityAPV     float64
}

// SummaryRow is one line of the scenario summary report.
type SummaryRow struct {
	Scenario         string
	Capital          float64
	Converged        bool
	FinalReserve     float64
	Iterations       int
	Elapsed          time.Duration
	AssetMarketValue float64
	LiabilityAPV     float64
	Error            string
}

func (s ScenarioResult) Summary() SummaryRow {
	row := SummaryRow{
		Scenario:         s.Scenario.Name,
		Elapsed:          s.Elapsed,
		AssetMarketValue: s.AssetMarketValue,
		LiabilityAPV:     s.LiabilityAPV,
	}
	if s.Err != nil {
		row.Error = s.Err.Error()
	}
	if s.Result != nil {
		row.Capital = s.Result.Capital
		row.Converged = s.Result.Converged
		row.FinalReserve = s.Result.FinalReserve
		row.Iterations = len(s.Result.Iterations)
	}
	return row
}

// FailureRecorder is notified when a scenario errors out.
type FailureRecorder interface {
	ObserveScenarioFailure(scenario string)
}

// Runner executes configured scenarios one after another.
type Runner struct {
	cfg      *config.Config
	logger   *zap.Logger
	recorder Recorder
	failures FailureRecorder
}

type RunnerOption func(*Runner)

func WithRunnerLogger(l *zap.Logger) RunnerOption { return func(r *Runner) { r.logger = l } }

// WithRunnerMetrics wires a collector that records both calibrations and failures.
func WithRunnerMetrics(m interface {
	Recorder
	FailureRecorder
}) RunnerOption {
	return func(r *Runner) {
		r.recorder = m
		r.failures = m
	}
}

func NewRunner(cfg *config.Config, opts ...RunnerOption) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Runner{cfg: cfg}
	for _, o := range opts {
		o(r)
	}
	r.logger = logging.OrNop(r.logger)
	return r, nil
}

// RunAll runs every configured scenario. A failing scenario is reported in
// its own result and does not stop the rest.
func (r *Runner) RunAll() []ScenarioResult {
	out := make([]ScenarioResult, 0, len(r.cfg.Scenarios))
	for _, sc := range r.cfg.Scenarios {
		out = append(out, r.Run(sc))
	}
	return out
}

func (r *Runner) Run(sc config.Scenario) ScenarioResult {
	start := time.Now()
	res := ScenarioResult{Scenario: sc}
	log := r.logger.With(zap.String("scenario", sc.Name))

	assets, liabilities, err := r.load(sc)
	if err == nil {
		res.AssetMarketValue = assets.MarketValue()
		res.LiabilityAPV = liabilities.InsuranceAPV()
		res.Result, err = r.calibrate(log, assets, liabilities)
	}
	res.Elapsed = time.Since(start)

	if err != nil {
		res.Err = err
		log.Error("scenario failed", zap.Error(err))
		if r.failures != nil {
			r.failures.ObserveScenarioFailure(sc.Name)
		}
		return res
	}
	log.Info("scenario finished",
		zap.Float64("capital", res.Result.Capital),
		zap.Bool("converged", res.Result.Converged),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res
}

func (r *Runner) load(sc config.Scenario) (*model.AssetPortfolio, *model.LiabilityPortfolio, error) {
	assets, err := data.LoadAssetPortfolio(r.cfg.AssetPath, sc.YTMFactor)
	if err != nil {
		return nil, nil, fmt.Errorf("load assets: %w", err)
	}
	liabilities, err := data.LoadLiabilityPortfolio(r.cfg.LiabilityPath, r.cfg.LiabilityInterest, sc.MortalityFactor)
	if err != nil {
		return nil, nil, fmt.Errorf("load liabilities: %w", err)
	}
	return assets, liabilities, nil
}

func (r *Runner) calibrate(log *zap.Logger, assets *model.AssetPortfolio, liabilities *model.LiabilityPortfolio) (*Result, error) {
	opts := []Option{WithLogger(log)}
	if r.recorder != nil {
		opts = append(opts, WithRecorder(r.recorder))
	}
	solver, err := New(ParamsFromConfig(r.cfg), opts...)
	if err != nil {
		return nil, err
	}
	return solver.Calibrate(assets, liabilities)
}

// Summaries flattens results into report rows.
func Summaries(results []ScenarioResult) []SummaryRow {
	out := make([]SummaryRow, len(results))
	for i, r := range results {
		out[i] = r.Summary()
	}
	return out
}
