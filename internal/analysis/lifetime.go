package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"mfi-alm/internal/model"
)

// LifetimeSummary compares one seeded draw of every member's curtate future
// lifetime against the portfolio's expected claims.
type LifetimeSummary struct {
	Count int
	Seed  uint64

	// Lifetimes[i] is the sampled K for policyholder i.
	Lifetimes []int

	Mean float64
	P05  float64
	P95  float64
	Min  int
	Max  int

	// Claims index t is paid at the end of year t+1, for a member dying with K = t.
	ExpectedClaims  []float64
	SimulatedClaims []float64
}

type lifetimeSampler interface {
	SampleRemainingLifetime(x int, seed uint64, horizon int) int
}

// SimulateLifetimes draws K for every policyholder. Member i uses seed+i so a
// run is reproducible and members are not correlated through a shared seed.
func SimulateLifetimes(liabs *model.LiabilityPortfolio, seed uint64, years int) (LifetimeSummary, error) {
	if years < 0 {
		years = 0
	}
	n := liabs.Len()
	s := LifetimeSummary{
		Count:           n,
		Seed:            seed,
		Lifetimes:       make([]int, n),
		ExpectedClaims:  make([]float64, years),
		SimulatedClaims: make([]float64, years),
	}
	if n == 0 {
		return s, nil
	}

	for i := 0; i < n; i++ {
		ph := liabs.Policyholder(i)
		m := ph.Mortality()
		sampler, ok := m.(lifetimeSampler)
		if !ok {
			return LifetimeSummary{}, fmt.Errorf("policyholder %s: mortality basis %T cannot be sampled", ph.ID, m)
		}
		x := ph.AttainedAge()
		k := sampler.SampleRemainingLifetime(x, seed+uint64(i), m.MaxAge())
		s.Lifetimes[i] = k

		for t := 0; t < years; t++ {
			s.ExpectedClaims[t] += ph.Benefit() * m.ProbFutureLifetimeEquals(t, x)
		}
		if k < years {
			s.SimulatedClaims[k] += ph.Benefit()
		}
	}

	vals := make([]float64, n)
	for i, k := range s.Lifetimes {
		vals[i] = float64(k)
	}
	sort.Float64s(vals)
	s.Mean = stat.Mean(vals, nil)
	s.P05 = percentileSorted(vals, 0.05)
	s.P95 = percentileSorted(vals, 0.95)
	s.Min = int(vals[0])
	s.Max = int(vals[n-1])
	return s, nil
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// SplitElapsed picks the largest unit (seconds, minutes, hours, days) that
// keeps the value readable, rounded to one decimal.
func SplitElapsed(d time.Duration) (float64, string) {
	sec := d.Seconds()
	round := func(v float64) float64 { return math.Round(v*10) / 10 }
	switch {
	case sec < 60:
		return round(sec), "seconds"
	case sec < 60*60:
		return round(sec / 60), "minutes"
	case sec < 60*60*24:
		return round(sec / (60 * 60)), "hours"
	default:
		return round(sec / (60 * 60 * 24)), "days"
	}
}

func FormatElapsed(d time.Duration) string {
	v, unit := SplitElapsed(d)
	return fmt.Sprintf("%.1f %s", v, unit)
}
