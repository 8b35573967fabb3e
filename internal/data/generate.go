package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
)

// GenerateOptions controls synthetic tape generation.
type GenerateOptions struct {
	Seed          uint64
	Policyholders int
	Bonds         int
}

const (
	DefaultGeneratePolicyholders = 1000
	DefaultGenerateBonds         = 20

	minGenAge, maxGenAge         = 20, 80
	minGenBenefit, maxGenBenefit = 100_000, 2_000_000
	minGenMu, maxGenMu           = 0.03, 0.08
)

// GeneratePolicyholders draws ages in [20, 80], benefits in [100k, 2M] and mu in [0.03, 0.08).
func GeneratePolicyholders(seed uint64, n int) []PolicyholderRecord {
	rng := rand.New(rand.NewPCG(seed, 1))
	out := make([]PolicyholderRecord, n)
	for i := range out {
		out[i] = PolicyholderRecord{
			ID:      strconv.Itoa(i + 1),
			Age:     float64(minGenAge + rng.IntN(maxGenAge-minGenAge+1)),
			Benefit: float64(minGenBenefit + rng.IntN(maxGenBenefit-minGenBenefit+1)),
			Mu:      minGenMu + rng.Float64()*(maxGenMu-minGenMu),
		}
	}
	return out
}

// GenerateBonds draws a ladder of semi-annual bonds: face 100k to 1M in 1k
// steps, coupon 2% to 6%, maturity 1 to 30 years, ytm within 100bp of coupon.
func GenerateBonds(seed uint64, n int) []AssetRecord {
	rng := rand.New(rand.NewPCG(seed, 2))
	out := make([]AssetRecord, n)
	for i := range out {
		coupon := round4(0.02 + rng.Float64()*0.04)
		out[i] = AssetRecord{
			Face:     float64(100_000 + 1_000*rng.IntN(901)),
			Coupon:   coupon,
			Maturity: float64(1 + rng.IntN(30)),
			YTM:      round4(math.Max(0.001, coupon+(rng.Float64()-0.5)*0.02)),
			Freq:     DefaultFreq,
		}
	}
	return out
}

// GenerateTapes writes policyholder_tape.csv and asset_tape.csv under dir.
func GenerateTapes(dir string, opts GenerateOptions) (assetPath, policyholderPath string, err error) {
	if opts.Policyholders <= 0 {
		opts.Policyholders = DefaultGeneratePolicyholders
	}
	if opts.Bonds <= 0 {
		opts.Bonds = DefaultGenerateBonds
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	assetPath = filepath.Join(dir, "asset_tape.csv")
	policyholderPath = filepath.Join(dir, "policyholder_tape.csv")

	if err := writeFile(assetPath, func(w io.Writer) error {
		return WriteAssetTape(w, GenerateBonds(opts.Seed, opts.Bonds))
	}); err != nil {
		return "", "", err
	}
	if err := writeFile(policyholderPath, func(w io.Writer) error {
		return WritePolicyholderTape(w, GeneratePolicyholders(opts.Seed, opts.Policyholders))
	}); err != nil {
		return "", "", err
	}
	return assetPath, policyholderPath, nil
}

func WriteAssetTape(out io.Writer, recs []AssetRecord) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"face", "coupon", "maturity", "ytm", "freq"}); err != nil {
		return err
	}
	for _, r := range recs {
		if err := w.Write([]string{
			fmtFloat(r.Face),
			fmtFloat(r.Coupon),
			fmtFloat(r.Maturity),
			fmtFloat(r.YTM),
			strconv.Itoa(r.Freq),
		}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func WritePolicyholderTape(out io.Writer, recs []PolicyholderRecord) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"policyholder_id", "age", "benefit", "mu"}); err != nil {
		return err
	}
	for _, r := range recs {
		if err := w.Write([]string{r.ID, fmtFloat(r.Age), fmtFloat(r.Benefit), fmtFloat(r.Mu)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

func fmtFloat(x float64) string { return strconv.FormatFloat(x, 'f', -1, 64) }

func round4(x float64) float64 { return math.Round(x*1e4) / 1e4 }
