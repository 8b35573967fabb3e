package engine

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"mfi-alm/internal/model"
)

// Method selects how reserves are rolled forward.
type Method string

const (
	// MethodLoop ages both portfolios year by year. It is the reference semantics.
	MethodLoop Method = "loop"
	// MethodVectorized uses cumulative growth factors over precomputed vectors.
	MethodVectorized Method = "vectorized"
)

// YieldBasis selects the asset return credited to the reserve each year.
type YieldBasis string

const (
	// YieldBasisYTM credits the portfolio's average yield to maturity.
	YieldBasisYTM YieldBasis = "ytm"
	// YieldBasisPricePath credits the year-over-year change of the projected price path.
	YieldBasisPricePath YieldBasis = "price_path"
)

// Projection is one reserve path. Index t holds year t+1.
type Projection struct {
	Reserves []float64
	Yields   []float64
	Benefits []float64
}

// Terminal is the reserve at the end of the horizon.
func (p Projection) Terminal() float64 {
	if len(p.Reserves) == 0 {
		return 0
	}
	return p.Reserves[len(p.Reserves)-1]
}

// Projector rolls an initial capital forward against a liability block.
// Implementations may age the portfolios they are given; callers pass copies.
type Projector interface {
	Name() string
	Project(assets *model.AssetPortfolio, liabilities *model.LiabilityPortfolio, capital float64, years int) Projection
}

func NewProjector(method Method, basis YieldBasis) (Projector, error) {
	switch basis {
	case "":
		basis = YieldBasisYTM
	case YieldBasisYTM, YieldBasisPricePath:
	default:
		return nil, fmt.Errorf("unsupported yield basis: %q", basis)
	}
	switch method {
	case MethodLoop:
		return &LoopProjector{Basis: basis}, nil
	case MethodVectorized, "":
		return &VectorizedProjector{Basis: basis}, nil
	default:
		return nil, fmt.Errorf("unsupported projection method: %q", method)
	}
}

// LoopProjector: reserve[t] = reserve[t-1]*(1+yield[t]) - benefit[t], then age one year.
type LoopProjector struct {
	Basis YieldBasis
}

func (p *LoopProjector) Name() string { return string(MethodLoop) }

func (p *LoopProjector) Project(assets *model.AssetPortfolio, liabilities *model.LiabilityPortfolio, capital float64, years int) Projection {
	out := newProjection(years)
	var path []float64
	if p.Basis == YieldBasisPricePath {
		// Taken before aging: an aged bond rebuilds its schedule from the new
		// maturity and no longer carries the coupon paid at the year boundary.
		path = assets.ProjectedAverageYields(years)
	}
	reserve := capital
	for t := 0; t < years; t++ {
		y := assets.AverageYield()
		if path != nil {
			y = path[t]
		}
		b := liabilities.ExpectedYearlyBenefit()
		reserve = reserve*(1+y) - b

		out.Yields[t] = y
		out.Benefits[t] = b
		out.Reserves[t] = reserve

		assets.AgeOneYear()
		liabilities.AgeOneYear()
	}
	return out
}

// VectorizedProjector computes the same path in closed form:
//
//	growth[t]  = prod_{s<=t} (1 + yield[s])
//	reserve[t] = growth[t] * (capital - sum_{s<=t} benefit[s]/growth[s])
//
// It does not age or otherwise mutate its inputs.
type VectorizedProjector struct {
	Basis YieldBasis
}

func (p *VectorizedProjector) Name() string { return string(MethodVectorized) }

func (p *VectorizedProjector) Project(assets *model.AssetPortfolio, liabilities *model.LiabilityPortfolio, capital float64, years int) Projection {
	out := newProjection(years)
	if years <= 0 {
		return out
	}

	if p.Basis == YieldBasisPricePath {
		copy(out.Yields, assets.ProjectedAverageYields(years))
	} else {
		y := assets.AverageYield()
		for t := range out.Yields {
			out.Yields[t] = y
		}
	}
	copy(out.Benefits, liabilities.ProjectedExpectedYearlyBenefits(years))

	growth := make([]float64, years)
	for t, y := range out.Yields {
		growth[t] = 1 + y
	}
	floats.CumProd(growth, growth)

	discounted := floats.DivTo(make([]float64, years), out.Benefits, growth)
	floats.CumSum(discounted, discounted)

	for t := range out.Reserves {
		out.Reserves[t] = capital - discounted[t]
	}
	floats.Mul(out.Reserves, growth)
	return out
}

func newProjection(years int) Projection {
	if years < 0 {
		years = 0
	}
	return Projection{
		Reserves: make([]float64, years),
		Yields:   make([]float64, years),
		Benefits: make([]float64, years),
	}
}
