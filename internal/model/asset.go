package model

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Asset is a bond held at a yield to maturity.
type Asset struct {
	Bond *FixedBond
	YTM  float64
}

func NewAsset(bond *FixedBond, ytm float64) *Asset {
	return &Asset{Bond: bond.Copy(), YTM: ytm}
}

func (a *Asset) MarketValue() float64 {
	return a.Bond.Price(a.YTM)
}

func (a *Asset) Copy() *Asset {
	return &Asset{Bond: a.Bond.Copy(), YTM: a.YTM}
}

// AssetPortfolio owns independent copies of its holdings. Scale is a
// portfolio-level notional multiplier applied to market value only.
type AssetPortfolio struct {
	assets []*Asset
	scale  float64
}

func NewAssetPortfolio(assets []*Asset) *AssetPortfolio {
	p := &AssetPortfolio{assets: make([]*Asset, len(assets)), scale: 1}
	for i, a := range assets {
		p.assets[i] = a.Copy()
	}
	return p
}

func (p *AssetPortfolio) Len() int { return len(p.assets) }

func (p *AssetPortfolio) Scale() float64 { return p.scale }

// Asset returns a copy of the i-th holding.
func (p *AssetPortfolio) Asset(i int) *Asset { return p.assets[i].Copy() }

// RawMarketValue is the unscaled sum of holding values.
func (p *AssetPortfolio) RawMarketValue() float64 {
	mv := 0.0
	for _, a := range p.assets {
		mv += a.MarketValue()
	}
	return mv
}

func (p *AssetPortfolio) MarketValue() float64 {
	return p.scale * p.RawMarketValue()
}

// AverageYield is the equal-weighted mean YTM, 0 for an empty portfolio.
func (p *AssetPortfolio) AverageYield() float64 {
	if len(p.assets) == 0 {
		return 0
	}
	ytms := make([]float64, len(p.assets))
	for i, a := range p.assets {
		ytms[i] = a.YTM
	}
	return stat.Mean(ytms, nil)
}

// ProjectedAverageYields averages the holdings' projected price paths over
// years+1 horizons and converts the path into year-over-year returns.
func (p *AssetPortfolio) ProjectedAverageYields(years int) []float64 {
	if years <= 0 {
		return []float64{}
	}
	out := make([]float64, years)
	if len(p.assets) == 0 {
		return out
	}

	path := make([]float64, years+1)
	for _, a := range p.assets {
		floats.Add(path, a.Bond.ProjectPrices(a.YTM, years+1))
	}
	floats.Scale(p.scale/float64(len(p.assets)), path)

	for t := range out {
		if path[t] == 0 {
			continue
		}
		out[t] = (path[t+1] - path[t]) / path[t]
	}
	return out
}

// AgeOneYear runs every bond one year closer to maturity, stopping at zero.
func (p *AssetPortfolio) AgeOneYear() {
	for _, a := range p.assets {
		// bounded by the remaining term, so Age cannot fail
		_ = a.Bond.Age(math.Min(1, a.Bond.Maturity))
	}
}

// ScaleToTarget sets scale so that MarketValue() == target. A zero-valued
// portfolio gets scale 0 rather than a division by zero.
func (p *AssetPortfolio) ScaleToTarget(target float64) {
	raw := p.RawMarketValue()
	if raw == 0 {
		p.scale = 0
		return
	}
	p.scale = math.Max(0, target/raw)
}

func (p *AssetPortfolio) Copy() *AssetPortfolio {
	out := NewAssetPortfolio(p.assets)
	out.scale = p.scale
	return out
}
