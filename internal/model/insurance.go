package model

import (
	"math"

	"mfi-alm/internal/mortality"
)

// lifetimeModel is the slice of a mortality basis that whole-life pricing needs.
type lifetimeModel interface {
	ProbFutureLifetimeEquals(k, x int) float64
	Clone() mortality.Model
}

// WholeLifeInsurance pays Benefit at the end of the year of death.
type WholeLifeInsurance struct {
	model   lifetimeModel
	Benefit float64
}

func NewWholeLifeInsurance(m mortality.Model, benefit float64) *WholeLifeInsurance {
	return &WholeLifeInsurance{model: m.Clone(), Benefit: benefit}
}

// APV is Benefit * sum_{k=0..maxAge} v^(k+1) * P(K_x = k), v = 1/(1+interest).
func (w *WholeLifeInsurance) APV(x int, interest float64, maxAge int) float64 {
	v := 1 / (1 + interest)
	sum := 0.0
	for k := 0; k <= maxAge; k++ {
		sum += math.Pow(v, float64(k+1)) * w.model.ProbFutureLifetimeEquals(k, x)
	}
	return w.Benefit * sum
}

func (w *WholeLifeInsurance) Copy() *WholeLifeInsurance {
	return &WholeLifeInsurance{model: w.model.Clone(), Benefit: w.Benefit}
}
