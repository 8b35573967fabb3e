package engine

import (
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"mfi-alm/internal/logging"
	"mfi-alm/internal/model"
)

const (
	DefaultTolerance     = 1000.0
	DefaultMaxIterations = 30
	DefaultYears         = 30
)

// Params drives one capital calibration.
type Params struct {
	InitialCapital float64
	MinCapital     float64
	MaxCapital     float64
	Years          int
	MaxIterations  int
	// Tolerance is the absolute terminal reserve accepted as zero.
	Tolerance  float64
	Method     Method
	YieldBasis YieldBasis
}

func (p Params) withDefaults() Params {
	if p.Tolerance == 0 {
		p.Tolerance = DefaultTolerance
	}
	if p.MaxIterations == 0 {
		p.MaxIterations = DefaultMaxIterations
	}
	if p.Years == 0 {
		p.Years = DefaultYears
	}
	if p.Method == "" {
		p.Method = MethodVectorized
	}
	if p.YieldBasis == "" {
		p.YieldBasis = YieldBasisYTM
	}
	return p
}

func (p Params) Validate() error {
	if p.Years <= 0 {
		return errors.New("years must be > 0")
	}
	if p.MaxIterations <= 0 {
		return errors.New("max_iterations must be > 0")
	}
	if p.Tolerance <= 0 {
		return errors.New("tolerance must be > 0")
	}
	if p.MinCapital > p.MaxCapital {
		return fmt.Errorf("capital bounds inverted: min %v > max %v", p.MinCapital, p.MaxCapital)
	}
	if p.InitialCapital < p.MinCapital || p.InitialCapital > p.MaxCapital {
		return fmt.Errorf("initial capital %v outside [%v, %v]", p.InitialCapital, p.MinCapital, p.MaxCapital)
	}
	return nil
}

// Recorder receives one observation per finished calibration.
type Recorder interface {
	ObserveCalibration(method string, iterations int, converged bool, elapsed time.Duration)
}

// Solver finds the initial capital whose projected terminal reserve is zero,
// by bisection over [MinCapital, MaxCapital].
type Solver struct {
	params    Params
	projector Projector
	logger    *zap.Logger
	recorder  Recorder
}

type Option func(*Solver)

func WithLogger(l *zap.Logger) Option { return func(s *Solver) { s.logger = l } }

func WithRecorder(r Recorder) Option { return func(s *Solver) { s.recorder = r } }

// WithProjector overrides the projector chosen from Params.Method.
func WithProjector(p Projector) Option { return func(s *Solver) { s.projector = p } }

func New(params Params, opts ...Option) (*Solver, error) {
	params = params.withDefaults()
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("solver params invalid: %w", err)
	}
	proj, err := NewProjector(params.Method, params.YieldBasis)
	if err != nil {
		return nil, err
	}
	s := &Solver{params: params, projector: proj}
	for _, o := range opts {
		o(s)
	}
	s.logger = logging.OrNop(s.logger)
	return s, nil
}

func (s *Solver) Params() Params { return s.params }

// Project runs a single projection at the given capital on copies of the inputs.
func (s *Solver) Project(assets *model.AssetPortfolio, liabilities *model.LiabilityPortfolio, capital float64) Projection {
	a := assets.Copy()
	a.ScaleToTarget(capital)
	return s.projector.Project(a, liabilities.Copy(), capital, s.params.Years)
}

// Calibrate runs the bisection. The base portfolios are only ever read: every
// trial works on its own copies. Running out of iterations is not an error;
// the result carries Converged=false and the last trial evaluated.
func (s *Solver) Calibrate(assets *model.AssetPortfolio, liabilities *model.LiabilityPortfolio) (*Result, error) {
	if assets == nil {
		return nil, fmt.Errorf("asset portfolio is nil")
	}
	if liabilities == nil {
		return nil, fmt.Errorf("liability portfolio is nil")
	}

	start := time.Now()
	p := s.params
	lower, upper := p.MinCapital, p.MaxCapital
	capital := p.InitialCapital

	res := &Result{
		Method:     s.projector.Name(),
		Iterations: make([]Iteration, 0, p.MaxIterations),
	}

	for i := 0; i < p.MaxIterations; i++ {
		trial := assets.Copy()
		trial.ScaleToTarget(capital)
		proj := s.projector.Project(trial, liabilities.Copy(), capital, p.Years)
		terminal := proj.Terminal()
		converged := math.Abs(terminal) < p.Tolerance

		res.Iterations = append(res.Iterations, Iteration{
			Index:           i + 1,
			Capital:         capital,
			Lower:           lower,
			Upper:           upper,
			MarketValue:     trial.MarketValue(),
			TerminalReserve: terminal,
			Converged:       converged,
			Reserves:        proj.Reserves,
			Yields:          proj.Yields,
			Benefits:        proj.Benefits,
		})
		res.Capital = capital
		res.FinalReserve = terminal

		s.logger.Debug("calibration iteration",
			zap.Int("iter", i+1),
			zap.Float64("capital", capital),
			zap.Float64("lower", lower),
			zap.Float64("upper", upper),
			zap.Float64("terminal_reserve", terminal),
		)

		if converged {
			res.Converged = true
			break
		}
		if terminal < 0 {
			lower = capital
		} else {
			upper = capital
		}
		capital = (lower + upper) / 2
	}

	res.Elapsed = time.Since(start)
	if s.recorder != nil {
		s.recorder.ObserveCalibration(res.Method, len(res.Iterations), res.Converged, res.Elapsed)
	}

	fields := []zap.Field{
		zap.Float64("capital", res.Capital),
		zap.Float64("final_reserve", res.FinalReserve),
		zap.Int("iterations", len(res.Iterations)),
		zap.Duration("elapsed", res.Elapsed),
	}
	if res.Converged {
		s.logger.Info("calibration converged", fields...)
	} else {
		s.logger.Warn("calibration did not converge", fields...)
	}
	return res, nil
}
