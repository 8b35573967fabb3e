package main

import (
	"flag"
	"fmt"
	"math"

	"mfi-alm/internal/analysis"
	"mfi-alm/internal/config"
	"mfi-alm/internal/data"
	"mfi-alm/internal/engine"
	"mfi-alm/internal/logging"
	"mfi-alm/internal/model"
	"mfi-alm/internal/mortality"
)

// Demo:
// - Build a small book in memory (or load tapes via --config)
// - Show the pieces: bond price, life table, APV, expected benefits
// - Calibrate with both projectors and compare
func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	years := flag.Int("years", 30, "Projection horizon in years")
	outCSV := flag.String("out", "", "Optional path to write ledger CSV (e.g. results/demo_ledger.csv)")
	flag.Parse()

	params := engine.Params{
		InitialCapital: 1_000_000,
		MinCapital:     0,
		MaxCapital:     2_000_000,
		Years:          *years,
	}
	currency := config.DefaultCurrency

	var (
		assets *model.AssetPortfolio
		liabs  *model.LiabilityPortfolio
	)
	if *cfgPath != "" {
		cfg, err := config.Load(*cfgPath)
		if err != nil {
			panic(err)
		}
		params = engine.ParamsFromConfig(cfg)
		currency = cfg.Currency
		base := cfg.Scenarios[0]
		if assets, err = data.LoadAssetPortfolio(cfg.AssetPath, base.YTMFactor); err != nil {
			panic(err)
		}
		if liabs, err = data.LoadLiabilityPortfolio(cfg.LiabilityPath, cfg.LiabilityInterest, base.MortalityFactor); err != nil {
			panic(err)
		}
	} else {
		assets, liabs = demoBook()
	}

	bond := assets.Asset(0)
	fmt.Printf("Bond 1: face=%.0f coupon=%.2f%% maturity=%.1fy price@%.2f%%=%.2f\n",
		bond.Bond.Face, 100*bond.Bond.Coupon, bond.Bond.Maturity, 100*bond.YTM, bond.MarketValue())
	fmt.Printf("Assets: %d bonds, market value %s, average ytm %.3f%%\n",
		assets.Len(), analysis.FormatMoney(assets.MarketValue(), currency), 100*assets.AverageYield())

	ph := liabs.Policyholder(0)
	table := ph.Mortality()
	fmt.Printf("Policyholder %s: age %.1f, q(x)=%.5f, APV=%s\n",
		ph.ID, ph.Age, table.DeathProbability(1, ph.AttainedAge()),
		analysis.FormatMoney(ph.InsuranceAPV(liabs.Interest()), currency))
	fmt.Printf("Liabilities: %d lives, APV %s, year-1 expected benefits %s\n",
		liabs.Len(), analysis.FormatMoney(liabs.InsuranceAPV(), currency),
		analysis.FormatMoney(liabs.ExpectedYearlyBenefit(), currency))

	var last *engine.Result
	for _, m := range []engine.Method{engine.MethodLoop, engine.MethodVectorized} {
		p := params
		p.Method = m
		solver, err := engine.New(p, engine.WithLogger(logging.Nop()))
		if err != nil {
			panic(err)
		}
		res, err := solver.Calibrate(assets, liabs)
		if err != nil {
			panic(err)
		}
		fmt.Printf("%-10s capital=%s converged=%t iterations=%d final_reserve=%.2f elapsed=%s\n",
			m, analysis.FormatMoney(res.Capital, currency), res.Converged, len(res.Iterations),
			res.FinalReserve, analysis.FormatElapsed(res.Elapsed))
		last = res
	}

	if *outCSV != "" {
		tol := params.Tolerance
		if tol == 0 {
			tol = engine.DefaultTolerance
		}
		if err := engine.WriteLedgerCSV(*outCSV, "demo", last.Ledger(tol)); err != nil {
			panic(err)
		}
		fmt.Printf("Wrote ledger to %s\n", *outCSV)
	}
}

func demoBook() (*model.AssetPortfolio, *model.LiabilityPortfolio) {
	b1, err := model.NewFixedBond(500_000, 0.05, 10, 2)
	if err != nil {
		panic(err)
	}
	b2, err := model.NewFixedBond(500_000, 0.03, 30, 2)
	if err != nil {
		panic(err)
	}
	assets := model.NewAssetPortfolio([]*model.Asset{
		model.NewAsset(b1, 0.045),
		model.NewAsset(b2, 0.035),
	})

	// q = 1% at every age
	mu := -math.Log(0.99)
	var phs []*model.Policyholder
	for i, age := range []float64{30, 45, 60} {
		ph, err := model.NewPolicyholder(fmt.Sprint(i+1), age, mortality.Synthesize(mu, mortality.DefaultHorizon), 1_500_000)
		if err != nil {
			panic(err)
		}
		phs = append(phs, ph)
	}
	return assets, model.NewLiabilityPortfolio(phs, 0.03)
}
