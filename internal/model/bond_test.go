package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBond(t *testing.T) *FixedBond {
	t.Helper()
	b, err := NewFixedBond(1000, 0.05, 5, 2)
	require.NoError(t, err)
	return b
}

func TestNewFixedBond_Validation(t *testing.T) {
	testCases := []struct {
		name     string
		face     float64
		maturity float64
		freq     int
	}{
		{"zero face", 0, 5, 2},
		{"negative maturity", 1000, -1, 2},
		{"zero freq", 1000, 5, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewFixedBond(tc.face, 0.05, tc.maturity, tc.freq)
			assert.Error(t, err)
		})
	}
}

func TestFixedBond_Cashflows(t *testing.T) {
	flows := sampleBond(t).Cashflows()
	require.Len(t, flows, 10)
	assert.Equal(t, Cashflow{Time: 0.5, Amount: 25}, flows[0])
	assert.Equal(t, Cashflow{Time: 5.0, Amount: 1025}, flows[9])

	short, err := NewFixedBond(1000, 0.05, 0.4, 2)
	require.NoError(t, err)
	assert.Empty(t, short.Cashflows())
	assert.Equal(t, 0.0, short.Price(0.05))
}

func TestFixedBond_Price(t *testing.T) {
	b := sampleBond(t)
	assert.InDelta(t, 1000, b.Price(0.05), 10)
	assert.Greater(t, b.Price(0.04), 1000.0)
	assert.Less(t, b.Price(0.06), 1000.0)

	want := 0.0
	for i := 1; i <= 10; i++ {
		amt := 25.0
		if i == 10 {
			amt += 1000
		}
		want += amt * math.Exp(-0.05*float64(i)/2)
	}
	assert.InDelta(t, want, b.Price(0.05), 1e-9)
}

func TestFixedBond_PriceDecreasingInYield(t *testing.T) {
	b := sampleBond(t)
	prev := b.Price(-0.02)
	for y := -0.01; y < 0.20; y += 0.01 {
		p := b.Price(y)
		assert.Less(t, p, prev, "ytm=%v", y)
		prev = p
	}
}

func TestFixedBond_ProjectPrices(t *testing.T) {
	b := sampleBond(t)
	prices := b.ProjectPrices(0.05, 7)
	require.Len(t, prices, 7)
	assert.InDelta(t, b.Price(0.05), prices[0], 1e-9)

	// at t=2 only flows at 2.0..5.0 remain, discounted from t=2
	want := 25.0 // flow at exactly t=2 is still counted, undiscounted
	for _, tm := range []float64{2.5, 3, 3.5, 4, 4.5} {
		want += 25 * math.Exp(-0.05*(tm-2))
	}
	want += 1025 * math.Exp(-0.05*3)
	assert.InDelta(t, want, prices[2], 1e-9)

	assert.Equal(t, 0.0, prices[6])
	assert.Empty(t, b.ProjectPrices(0.05, 0))
}

func TestFixedBond_Age(t *testing.T) {
	b := sampleBond(t)
	require.NoError(t, b.Age(1))
	assert.Equal(t, 4.0, b.Maturity)
	assert.Len(t, b.Cashflows(), 8)

	require.NoError(t, b.Age(4))
	assert.Equal(t, 0.0, b.Maturity)
	assert.Empty(t, b.Cashflows())

	err := b.Age(0.5)
	assert.ErrorIs(t, err, ErrAgedPastMaturity)

	fresh := sampleBond(t)
	assert.ErrorIs(t, fresh.Age(6), ErrAgedPastMaturity)
	assert.Equal(t, 5.0, fresh.Maturity)
	assert.Error(t, fresh.Age(-1))
}

func TestFixedBond_Copy(t *testing.T) {
	b := sampleBond(t)
	cp := b.Copy()
	require.NoError(t, cp.Age(2))
	assert.Equal(t, 5.0, b.Maturity)
	assert.Len(t, b.Cashflows(), 10)
	assert.Len(t, cp.Cashflows(), 6)
}
