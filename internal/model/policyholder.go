package model

import (
	"errors"
	"math"

	"mfi-alm/internal/mortality"
)

// Policyholder is one insured life. It owns its own mortality basis and policy;
// nothing is shared with other policyholders.
type Policyholder struct {
	ID  string
	Age float64

	mortality mortality.Model
	insurance *WholeLifeInsurance
}

func NewPolicyholder(id string, age float64, m mortality.Model, benefit float64) (*Policyholder, error) {
	if m == nil {
		return nil, errors.New("mortality model is nil")
	}
	if age < 0 || math.IsNaN(age) {
		return nil, errors.New("age must be >= 0")
	}
	if benefit < 0 {
		return nil, errors.New("benefit must be >= 0")
	}
	return &Policyholder{
		ID:        id,
		Age:       age,
		mortality: m.Clone(),
		insurance: NewWholeLifeInsurance(m, benefit),
	}, nil
}

// AttainedAge is the integer age used for life-table lookups.
func (p *Policyholder) AttainedAge() int {
	return int(math.Floor(p.Age))
}

func (p *Policyholder) Benefit() float64 { return p.insurance.Benefit }

func (p *Policyholder) Mortality() mortality.Model { return p.mortality.Clone() }

func (p *Policyholder) InsuranceAPV(interest float64) float64 {
	return p.insurance.APV(p.AttainedAge(), interest, p.mortality.MaxAge())
}

// ExpectedBenefit is the expected claim over the next year.
func (p *Policyholder) ExpectedBenefit() float64 {
	return p.Benefit() * p.mortality.DeathProbability(1, p.AttainedAge())
}

func (p *Policyholder) AgeOneYear() { p.Age++ }

func (p *Policyholder) Copy() *Policyholder {
	return &Policyholder{
		ID:        p.ID,
		Age:       p.Age,
		mortality: p.mortality.Clone(),
		insurance: p.insurance.Copy(),
	}
}
