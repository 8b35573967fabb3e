// Package mortality turns survivor-count life tables into survival and death
// probabilities, both scalar and as multi-year vectors.
package mortality

// Model is what the liability side needs from a mortality basis. Whole-life
// pricing only uses ProbFutureLifetimeEquals and Clone; portfolio projection
// also reads death probabilities directly.
type Model interface {
	ProbFutureLifetimeEquals(k, x int) float64
	DeathProbability(t, x int) float64
	OneYearDeathProbabilities(x, years int) []float64
	MaxAge() int
	Clone() Model
}

var _ Model = (*LifeTable)(nil)
