package engine

import (
	"time"

	"mfi-alm/internal/model"
)

// Iteration is the full trace of one bisection trial.
type Iteration struct {
	Index int

	Capital float64
	// Lower and Upper are the bounds in force when this trial was evaluated.
	Lower float64
	Upper float64

	// MarketValue is the asset copy's value after scaling to Capital.
	MarketValue float64

	TerminalReserve float64
	Converged       bool

	Reserves []float64
	Yields   []float64
	Benefits []float64
}

// LedgerRow is one (iteration, year) row of output.
// This is the audit trail of what the search tried.
type LedgerRow struct {
	Iteration int
	Year      int

	Capital float64
	Lower   float64
	Upper   float64

	Yield   float64
	Benefit float64
	Reserve float64

	Status model.ReserveStatus
}

type Result struct {
	Capital      float64
	Converged    bool
	FinalReserve float64
	Method       string
	Elapsed      time.Duration
	Iterations   []Iteration
}

// Ledger flattens every iteration into per-year rows, in iteration order.
func (r *Result) Ledger(tolerance float64) []LedgerRow {
	if r == nil {
		return nil
	}
	n := 0
	for _, it := range r.Iterations {
		n += len(it.Reserves)
	}
	out := make([]LedgerRow, 0, n)
	for _, it := range r.Iterations {
		for t, reserve := range it.Reserves {
			out = append(out, LedgerRow{
				Iteration: it.Index,
				Year:      t + 1,
				Capital:   it.Capital,
				Lower:     it.Lower,
				Upper:     it.Upper,
				Yield:     it.Yields[t],
				Benefit:   it.Benefits[t],
				Reserve:   reserve,
				Status:    model.ReserveStatusFrom(reserve, tolerance),
			})
		}
	}
	return out
}
