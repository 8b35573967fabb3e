package model

import "gonum.org/v1/gonum/floats"

// LiabilityPortfolio is a closed block of whole-life policies valued at a
// single interest rate. Members are never removed; aging only moves each
// policyholder along their own mortality basis.
type LiabilityPortfolio struct {
	policyholders []*Policyholder
	interest      float64

	// benefits caches ProjectedExpectedYearlyBenefits over the common horizon
	// (largest tabulated age across all bases). It is dropped on aging and
	// rebuilt on the next query.
	benefits      []float64
	benefitsValid bool
}

func NewLiabilityPortfolio(policyholders []*Policyholder, interest float64) *LiabilityPortfolio {
	lp := &LiabilityPortfolio{
		policyholders: make([]*Policyholder, len(policyholders)),
		interest:      interest,
	}
	for i, p := range policyholders {
		lp.policyholders[i] = p.Copy()
	}
	lp.rebuildBenefits()
	return lp
}

func (lp *LiabilityPortfolio) Len() int { return len(lp.policyholders) }
func (lp *LiabilityPortfolio) Interest() float64 { return lp.interest }

// Policyholder returns a copy of the i-th member.
func (lp *LiabilityPortfolio) Policyholder(i int) *Policyholder { return lp.policyholders[i].Copy() }

// CommonHorizon is the largest tabulated age across all mortality bases.
func (lp *LiabilityPortfolio) CommonHorizon() int {
	h := 0
	for _, p := range lp.policyholders {
		if m := p.mortality.MaxAge(); m > h {
			h = m
		}
	}
	return h
}

func (lp *LiabilityPortfolio) InsuranceAPV() float64 {
	total := 0.0
	for _, p := range lp.policyholders {
		total += p.InsuranceAPV(lp.interest)
	}
	return total
}

func (lp *LiabilityPortfolio) ExpectedYearlyBenefit() float64 {
	total := 0.0
	for _, p := range lp.policyholders {
		total += p.ExpectedBenefit()
	}
	return total
}

// ProjectedExpectedYearlyBenefits returns the expected claims for each of the
// next years. Horizons beyond the cached one are computed directly rather than
// truncated.
func (lp *LiabilityPortfolio) ProjectedExpectedYearlyBenefits(years int) []float64 {
	if years <= 0 {
		return []float64{}
	}
	if !lp.benefitsValid {
		lp.rebuildBenefits()
	}
	if years <= len(lp.benefits) {
		return append([]float64(nil), lp.benefits[:years]...)
	}
	return lp.computeBenefits(years)
}

func (lp *LiabilityPortfolio) computeBenefits(years int) []float64 {
	out := make([]float64, years)
	for _, p := range lp.policyholders {
		q := p.mortality.OneYearDeathProbabilities(p.AttainedAge(), years)
		floats.AddScaled(out, p.Benefit(), q)
	}
	return out
}

func (lp *LiabilityPortfolio) rebuildBenefits() {
	lp.benefits = lp.computeBenefits(lp.CommonHorizon())
	lp.benefitsValid = true
}

func (lp *LiabilityPortfolio) AgeOneYear() {
	for _, p := range lp.policyholders {
		p.AgeOneYear()
	}
	lp.benefitsValid = false
}

func (lp *LiabilityPortfolio) Copy() *LiabilityPortfolio {
	out := &LiabilityPortfolio{
		policyholders: make([]*Policyholder, len(lp.policyholders)),
		interest:      lp.interest,
		benefits:      append([]float64(nil), lp.benefits...),
		benefitsValid: lp.benefitsValid,
	}
	for i, p := range lp.policyholders {
		out.policyholders[i] = p.Copy()
	}
	return out
}
