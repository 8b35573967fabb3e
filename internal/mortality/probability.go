package mortality

import (
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// DefaultHorizon is the remaining-lifetime horizon used when callers pass none.
const DefaultHorizon = 120

// SurvivalProbability is tpx: the probability that a life aged x survives t more years.
// Ages below the table carry no mortality, so a life aged x < MinAge is not
// shifted onto the table: its survival to x+t is lx[x+t]/lx[MinAge], and 1
// while x+t <= MinAge.
func (m *LifeTable) SurvivalProbability(t, x int) float64 {
	if t <= 0 {
		return 1
	}
	end := x + t
	if end > m.maxAge {
		return 0
	}
	if end <= m.minAge {
		return 1
	}
	start := m.Survivors(x)
	if start == 0 {
		return 0
	}
	return m.lx[end-m.minAge] / start
}

// DeathProbability is tqx = 1 - tpx.
func (m *LifeTable) DeathProbability(t, x int) float64 {
	return 1 - m.SurvivalProbability(t, x)
}

// OneYearDeathProbability is q at attained age x.
func (m *LifeTable) OneYearDeathProbability(x int) float64 {
	if x < m.minAge {
		return 0
	}
	if x >= m.maxAge {
		return 1
	}
	return m.qx[x-m.minAge]
}

// OneYearDeathProbabilities returns q(x), q(x+1), ..., q(x+years-1).
func (m *LifeTable) OneYearDeathProbabilities(x, years int) []float64 {
	if years <= 0 {
		return []float64{}
	}
	out := make([]float64, years)

	row := x - m.minAge
	if row >= len(m.qx) {
		for i := range out {
			out[i] = 1
		}
		return out
	}

	pos := 0
	if row < 0 {
		// no mortality below the table: leave zeros
		pos = -row
		if pos >= years {
			return out
		}
		row = 0
	}
	n := copy(out[pos:], m.grid[row:])
	for i := pos + n; i < years; i++ {
		out[i] = 1
	}
	return out
}

// ProbFutureLifetimeEquals is P(K_x = k) = kpx * q(x+k).
func (m *LifeTable) ProbFutureLifetimeEquals(k, x int) float64 {
	if k < 0 {
		return 0
	}
	sp := m.SurvivalProbability(k, x)
	if sp == 0 {
		return 0
	}
	return sp * m.OneYearDeathProbability(x+k)
}

// RemainingLifetimeDistribution returns P(K_x = k) for k = 0..horizon, normalized.
// When there is no mass at all the zero vector is returned as is.
func (m *LifeTable) RemainingLifetimeDistribution(x, horizon int) []float64 {
	if horizon < 0 {
		horizon = 0
	}
	probs := make([]float64, horizon+1)
	if x > m.maxAge {
		return probs
	}
	for k := range probs {
		probs[k] = m.ProbFutureLifetimeEquals(k, x)
	}
	if s := floats.Sum(probs); s > 0 {
		floats.Scale(1/s, probs)
	}
	return probs
}

// SampleRemainingLifetime draws K_x from RemainingLifetimeDistribution using a
// PCG source seeded with seed. Lives at or past the last tabulated age return 0.
func (m *LifeTable) SampleRemainingLifetime(x int, seed uint64, horizon int) int {
	if x >= m.maxAge {
		return 0
	}
	probs := m.RemainingLifetimeDistribution(x, horizon)
	cdf := floats.CumSum(make([]float64, len(probs)), probs)
	total := cdf[len(cdf)-1]
	if total == 0 {
		return 0
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	u := rng.Float64() * total
	k := sort.Search(len(cdf), func(i int) bool { return cdf[i] > u })
	if k >= len(cdf) {
		k = len(cdf) - 1
	}
	return k
}
