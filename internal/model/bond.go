package model

import (
	"errors"
	"fmt"
	"math"
)

// ErrAgedPastMaturity is returned when a bond is aged by more than its remaining term.
var ErrAgedPastMaturity = errors.New("cannot age bond past maturity")

// periodEpsilon absorbs float noise in maturity*freq (e.g. 2.9999999 periods).
const periodEpsilon = 1e-9

// Cashflow is one scheduled payment, time measured in years from today.
type Cashflow struct {
	Time   float64
	Amount float64
}

// FixedBond is a plain fixed-coupon bullet bond valued under continuous compounding.
// Units:
// - Face: currency
// - Coupon: annual rate, decimal (0.05 = 5%)
// - Maturity: remaining years
// - Freq: coupons per year
type FixedBond struct {
	Face     float64
	Coupon   float64
	Maturity float64
	Freq     int

	schedule []Cashflow
}

func NewFixedBond(face, coupon, maturity float64, freq int) (*FixedBond, error) {
	b := &FixedBond{
		Face:     face,
		Coupon:   coupon,
		Maturity: maturity,
		Freq:     freq,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	b.schedule = b.generateCashflows()
	return b, nil
}

func (b *FixedBond) Validate() error {
	if b.Face <= 0 {
		return errors.New("face must be > 0")
	}
	if b.Maturity < 0 {
		return errors.New("maturity must be >= 0")
	}
	if b.Freq <= 0 {
		return errors.New("freq must be a positive integer")
	}
	return nil
}

// Periods is floor(maturity * freq).
func (b *FixedBond) Periods() int {
	return int(math.Floor(b.Maturity*float64(b.Freq) + periodEpsilon))
}

// CouponPerPeriod is face * coupon / freq.
func (b *FixedBond) CouponPerPeriod() float64 {
	return b.Face * b.Coupon / float64(b.Freq)
}

func (b *FixedBond) generateCashflows() []Cashflow {
	n := b.Periods()
	if n < 1 {
		return nil
	}
	c := b.CouponPerPeriod()
	out := make([]Cashflow, n)
	for i := 1; i <= n; i++ {
		out[i-1] = Cashflow{Time: float64(i) / float64(b.Freq), Amount: c}
	}
	out[n-1].Amount += b.Face
	return out
}

// Cashflows returns a copy of the schedule. It is empty once fewer than one
// coupon period remains.
func (b *FixedBond) Cashflows() []Cashflow {
	return append([]Cashflow(nil), b.schedule...)
}

// Price discounts the schedule continuously: sum(amount * exp(-ytm * time)).
func (b *FixedBond) Price(ytm float64) float64 {
	pv := 0.0
	for _, cf := range b.schedule {
		pv += cf.Amount * math.Exp(-ytm*cf.Time)
	}
	return pv
}

// ProjectPrices returns the value at each horizon t = 0..years-1 of the flows
// still outstanding at t, discounted back to t. The schedule is not regenerated;
// flows before t simply drop out.
func (b *FixedBond) ProjectPrices(ytm float64, years int) []float64 {
	if years <= 0 {
		return []float64{}
	}
	out := make([]float64, years)
	for t := range out {
		h := float64(t)
		pv := 0.0
		for _, cf := range b.schedule {
			if cf.Time < h {
				continue
			}
			pv += cf.Amount * math.Exp(-ytm*(cf.Time-h))
		}
		out[t] = pv
	}
	return out
}

// Age shortens the remaining term by n years and regenerates the schedule.
func (b *FixedBond) Age(n float64) error {
	if n < 0 {
		return fmt.Errorf("age by %v years: must be >= 0", n)
	}
	if n > b.Maturity {
		return fmt.Errorf("%w: age by %v with %v years remaining", ErrAgedPastMaturity, n, b.Maturity)
	}
	b.Maturity -= n
	b.schedule = b.generateCashflows()
	return nil
}

func (b *FixedBond) Copy() *FixedBond {
	out := *b
	out.schedule = append([]Cashflow(nil), b.schedule...)
	return &out
}
