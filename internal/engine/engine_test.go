package engine

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mfi-alm/internal/model"
	"mfi-alm/internal/mortality"
)

// flatBook: one 4% bond and one life aged 30 with q = 1% at every age below
// 120, so the expected claim is 50,000 in each of the next 30 years.
func flatBook(t *testing.T, mortalityFactor float64) (*model.AssetPortfolio, *model.LiabilityPortfolio) {
	t.Helper()
	bond, err := model.NewFixedBond(1_000_000, 0.04, 30, 2)
	require.NoError(t, err)
	assets := model.NewAssetPortfolio([]*model.Asset{model.NewAsset(bond, 0.04)})

	mu := -math.Log(0.99) * mortalityFactor
	ph, err := model.NewPolicyholder("1", 30, mortality.Synthesize(mu, mortality.DefaultHorizon), 5_000_000)
	require.NoError(t, err)
	return assets, model.NewLiabilityPortfolio([]*model.Policyholder{ph}, 0.03)
}

func mixedBook(t *testing.T) (*model.AssetPortfolio, *model.LiabilityPortfolio) {
	t.Helper()
	var assets []*model.Asset
	for i, tc := range []struct{ coupon, maturity, ytm float64 }{
		{0.05, 10, 0.045},
		{0.03, 3.5, 0.028},
		{0.06, 25, 0.055},
	} {
		b, err := model.NewFixedBond(float64(100_000*(i+1)), tc.coupon, tc.maturity, 2)
		require.NoError(t, err)
		assets = append(assets, model.NewAsset(b, tc.ytm))
	}
	var phs []*model.Policyholder
	for i, tc := range []struct{ age, benefit, mu float64 }{
		{35.5, 250_000, 0.03},
		{62, 1_000_000, 0.05},
		{88, 400_000, 0.08},
	} {
		ph, err := model.NewPolicyholder(string(rune('a'+i)), tc.age, mortality.Synthesize(tc.mu, mortality.DefaultHorizon), tc.benefit)
		require.NoError(t, err)
		phs = append(phs, ph)
	}
	return model.NewAssetPortfolio(assets), model.NewLiabilityPortfolio(phs, 0.03)
}

func flatParams(method Method) Params {
	return Params{
		InitialCapital: 1_000_000,
		MinCapital:     0,
		MaxCapital:     2_000_000,
		Years:          30,
		MaxIterations:  30,
		Tolerance:      1000,
		Method:         method,
	}
}

func annuityImmediate(payment, rate float64, n int) float64 {
	return payment * (1 - math.Pow(1+rate, -float64(n))) / rate
}

func TestProjectors_Agree(t *testing.T) {
	for _, basis := range []YieldBasis{YieldBasisYTM, YieldBasisPricePath} {
		t.Run(string(basis), func(t *testing.T) {
			assets, liabs := mixedBook(t)
			loop := &LoopProjector{Basis: basis}
			vec := &VectorizedProjector{Basis: basis}

			for _, capital := range []float64{0, 500_000, 3_000_000} {
				a := assets.Copy()
				a.ScaleToTarget(capital)
				want := loop.Project(a.Copy(), liabs.Copy(), capital, 40)
				got := vec.Project(a.Copy(), liabs.Copy(), capital, 40)

				require.Len(t, got.Reserves, 40)
				assert.InDeltaSlice(t, want.Benefits, got.Benefits, 1e-6)
				assert.InDeltaSlice(t, want.Yields, got.Yields, 1e-12)
				for i := range want.Reserves {
					assert.InDelta(t, want.Reserves[i], got.Reserves[i], 1e-6*math.Max(1, math.Abs(want.Reserves[i])))
				}
			}
		})
	}
}

// Aging drops the coupon paid at the year boundary, so the loop reads the
// price path of the unaged book.
func TestLoopProjector_PricePathKeepsBoundaryCoupon(t *testing.T) {
	bond, err := model.NewFixedBond(100_000, 0.05, 10, 2)
	require.NoError(t, err)
	assets := model.NewAssetPortfolio([]*model.Asset{model.NewAsset(bond, 0.045)})
	_, liabs := flatBook(t, 1)

	want := assets.ProjectedAverageYields(3)
	got := (&LoopProjector{Basis: YieldBasisPricePath}).Project(assets.Copy(), liabs.Copy(), 100_000, 3)
	assert.InDeltaSlice(t, want, got.Yields, 1e-12)
}

func TestProjectors_FlatClosedForm(t *testing.T) {
	assets, liabs := flatBook(t, 1)
	p := (&VectorizedProjector{}).Project(assets, liabs, 100_000, 3)
	assert.InDeltaSlice(t, []float64{50_000, 50_000, 50_000}, p.Benefits, 1e-6)

	r1 := 100_000*1.04 - 50_000
	r2 := r1*1.04 - 50_000
	r3 := r2*1.04 - 50_000
	assert.InDeltaSlice(t, []float64{r1, r2, r3}, p.Reserves, 1e-6)
	assert.InDelta(t, r3, p.Terminal(), 1e-6)
}

func TestProjectors_PricePathYields(t *testing.T) {
	assets, liabs := mixedBook(t)
	proj, err := NewProjector(MethodVectorized, YieldBasisPricePath)
	require.NoError(t, err)
	p := proj.Project(assets, liabs, 1_000_000, 10)
	assert.Equal(t, assets.ProjectedAverageYields(10), p.Yields)
}

func TestNewProjector(t *testing.T) {
	p, err := NewProjector("", "")
	require.NoError(t, err)
	assert.Equal(t, "vectorized", p.Name())

	p, err = NewProjector(MethodLoop, YieldBasisPricePath)
	require.NoError(t, err)
	assert.Equal(t, "loop", p.Name())

	_, err = NewProjector("newton", YieldBasisYTM)
	assert.Error(t, err)
	_, err = NewProjector(MethodLoop, "spot")
	assert.Error(t, err)
}

func TestCalibrate_ConvergesToAnnuityValue(t *testing.T) {
	want := annuityImmediate(50_000, 0.04, 30)

	for _, method := range []Method{MethodLoop, MethodVectorized} {
		t.Run(string(method), func(t *testing.T) {
			assets, liabs := flatBook(t, 1)
			s, err := New(flatParams(method))
			require.NoError(t, err)

			res, err := s.Calibrate(assets, liabs)
			require.NoError(t, err)
			assert.True(t, res.Converged)
			assert.Equal(t, string(method), res.Method)
			assert.Less(t, math.Abs(res.FinalReserve), 1000.0)
			// |reserve| < 1000 after 30 years of 4% growth bounds the capital error
			assert.InDelta(t, want, res.Capital, 1000/math.Pow(1.04, 30))

			last := res.Iterations[len(res.Iterations)-1]
			assert.True(t, last.Converged)
			assert.Equal(t, res.Capital, last.Capital)
			assert.InDelta(t, res.Capital, last.MarketValue, 1e-6)
		})
	}
}

func TestCalibrate_BisectionTrace(t *testing.T) {
	assets, liabs := flatBook(t, 1)
	s, err := New(flatParams(MethodVectorized))
	require.NoError(t, err)
	res, err := s.Calibrate(assets, liabs)
	require.NoError(t, err)

	first := res.Iterations[0]
	assert.Equal(t, 1, first.Index)
	assert.Equal(t, 1_000_000.0, first.Capital)
	assert.Equal(t, 0.0, first.Lower)
	assert.Equal(t, 2_000_000.0, first.Upper)
	// 1M overshoots the 864k target: surplus, so the upper bound moves down
	require.Greater(t, first.TerminalReserve, 0.0)
	second := res.Iterations[1]
	assert.Equal(t, 1_000_000.0, second.Upper)
	assert.Equal(t, 500_000.0, second.Capital)

	for i := 1; i < len(res.Iterations); i++ {
		it := res.Iterations[i]
		assert.Equal(t, (it.Lower+it.Upper)/2, it.Capital)
		assert.LessOrEqual(t, it.Lower, it.Upper)
	}
}

func TestCalibrate_HigherMortalityNeedsMoreCapital(t *testing.T) {
	s, err := New(flatParams(MethodVectorized))
	require.NoError(t, err)

	a, l := flatBook(t, 1)
	base, err := s.Calibrate(a, l)
	require.NoError(t, err)

	a, l = flatBook(t, 1.5)
	stressed, err := s.Calibrate(a, l)
	require.NoError(t, err)

	assert.Greater(t, stressed.Capital, base.Capital)
}

func TestCalibrate_DoesNotMutateInputs(t *testing.T) {
	assets, liabs := mixedBook(t)
	mvBefore := assets.MarketValue()
	apvBefore := liabs.InsuranceAPV()

	s, err := New(Params{InitialCapital: 1e6, MaxCapital: 1e7, Years: 20, Method: MethodLoop})
	require.NoError(t, err)
	_, err = s.Calibrate(assets, liabs)
	require.NoError(t, err)

	assert.Equal(t, 1.0, assets.Scale())
	assert.Equal(t, mvBefore, assets.MarketValue())
	assert.Equal(t, 10.0, assets.Asset(0).Bond.Maturity)
	assert.Equal(t, 35.5, liabs.Policyholder(0).Age)
	assert.Equal(t, apvBefore, liabs.InsuranceAPV())
}

func TestCalibrate_NotConverged(t *testing.T) {
	assets, liabs := flatBook(t, 1)
	p := flatParams(MethodVectorized)
	p.MaxIterations = 3
	s, err := New(p)
	require.NoError(t, err)

	res, err := s.Calibrate(assets, liabs)
	require.NoError(t, err)
	assert.False(t, res.Converged)
	require.Len(t, res.Iterations, 3)
	assert.Equal(t, res.Iterations[2].Capital, res.Capital)
	assert.Equal(t, res.Iterations[2].TerminalReserve, res.FinalReserve)
}

func TestCalibrate_NilInputs(t *testing.T) {
	assets, liabs := flatBook(t, 1)
	s, err := New(flatParams(MethodVectorized))
	require.NoError(t, err)
	_, err = s.Calibrate(nil, liabs)
	assert.Error(t, err)
	_, err = s.Calibrate(assets, nil)
	assert.Error(t, err)
}

type countingRecorder struct {
	calls      int
	iterations int
	converged  bool
}

func (r *countingRecorder) ObserveCalibration(_ string, iterations int, converged bool, _ time.Duration) {
	r.calls++
	r.iterations = iterations
	r.converged = converged
}

func TestCalibrate_Recorder(t *testing.T) {
	rec := &countingRecorder{}
	s, err := New(flatParams(MethodVectorized), WithRecorder(rec))
	require.NoError(t, err)
	assets, liabs := flatBook(t, 1)
	res, err := s.Calibrate(assets, liabs)
	require.NoError(t, err)

	assert.Equal(t, 1, rec.calls)
	assert.Equal(t, len(res.Iterations), rec.iterations)
	assert.True(t, rec.converged)
}

func TestParams(t *testing.T) {
	s, err := New(Params{MaxCapital: 10})
	require.NoError(t, err)
	p := s.Params()
	assert.Equal(t, DefaultTolerance, p.Tolerance)
	assert.Equal(t, DefaultMaxIterations, p.MaxIterations)
	assert.Equal(t, DefaultYears, p.Years)
	assert.Equal(t, MethodVectorized, p.Method)
	assert.Equal(t, YieldBasisYTM, p.YieldBasis)

	_, err = New(Params{MinCapital: 10, MaxCapital: 1})
	assert.Error(t, err)
	_, err = New(Params{MaxCapital: 1, Tolerance: -1})
	assert.Error(t, err)
	_, err = New(Params{MaxCapital: 1, Method: "newton"})
	assert.Error(t, err)
	_, err = New(Params{InitialCapital: 11, MaxCapital: 10})
	assert.Error(t, err)
	_, err = New(Params{InitialCapital: 1, MinCapital: 2, MaxCapital: 10})
	assert.Error(t, err)
}

func TestSolverProject(t *testing.T) {
	assets, liabs := flatBook(t, 1)
	s, err := New(flatParams(MethodLoop))
	require.NoError(t, err)

	capital := annuityImmediate(50_000, 0.04, 30)
	p := s.Project(assets, liabs, capital)
	assert.InDelta(t, 0, p.Terminal(), 1e-3)
	assert.Equal(t, 30.0, assets.Asset(0).Bond.Maturity)
}
