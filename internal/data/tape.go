package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"mfi-alm/internal/model"
	"mfi-alm/internal/mortality"
)

var (
	ErrMissingColumns = errors.New("missing required columns")
	ErrEmptyTape      = errors.New("tape has no rows")
)

// DefaultFreq is used when an asset row has no freq column or leaves it blank.
const DefaultFreq = 2

// AssetRecord is one row of an asset tape.
type AssetRecord struct {
	Face     float64 `json:"face"`
	Coupon   float64 `json:"coupon"`
	Maturity float64 `json:"maturity"`
	YTM      float64 `json:"ytm"`
	Freq     int     `json:"freq,omitempty"`
}

// PolicyholderRecord is one row of a policyholder tape. Mu is the constant
// force of mortality used to synthesize the member's life table.
type PolicyholderRecord struct {
	ID      string  `json:"policyholder_id"`
	Age     float64 `json:"age"`
	Benefit float64 `json:"benefit"`
	Mu      float64 `json:"mu"`
}

var (
	assetColumns        = []string{"face", "coupon", "maturity", "ytm"}
	policyholderColumns = []string{"age", "benefit", "mu"}
)

// LoadAssetPortfolio reads an asset tape and applies ytmFactor to every yield.
func LoadAssetPortfolio(path string, ytmFactor float64) (*model.AssetPortfolio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("asset tape: %w", err)
	}
	defer f.Close()
	recs, err := ReadAssetTape(f)
	if err != nil {
		return nil, fmt.Errorf("asset tape %s: %w", path, err)
	}
	return BuildAssetPortfolio(recs, ytmFactor)
}

// LoadLiabilityPortfolio reads a policyholder tape and applies mortalityFactor
// to every mu before the life tables are synthesized.
func LoadLiabilityPortfolio(path string, interest, mortalityFactor float64) (*model.LiabilityPortfolio, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("policyholder tape: %w", err)
	}
	defer f.Close()
	recs, err := ReadPolicyholderTape(f)
	if err != nil {
		return nil, fmt.Errorf("policyholder tape %s: %w", path, err)
	}
	return BuildLiabilityPortfolio(recs, interest, mortalityFactor)
}

func ReadAssetTape(r io.Reader) ([]AssetRecord, error) {
	t, err := readTape(r, assetColumns)
	if err != nil {
		return nil, err
	}
	out := make([]AssetRecord, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		var rec AssetRecord
		if rec.Face, err = t.float(row, "face", line); err != nil {
			return nil, err
		}
		if rec.Coupon, err = t.float(row, "coupon", line); err != nil {
			return nil, err
		}
		if rec.Maturity, err = t.float(row, "maturity", line); err != nil {
			return nil, err
		}
		if rec.YTM, err = t.float(row, "ytm", line); err != nil {
			return nil, err
		}
		rec.Freq = DefaultFreq
		if raw := t.cell(row, "freq"); raw != "" {
			freq, err := strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: freq %q is not an integer", line, raw)
			}
			rec.Freq = freq
		}
		out = append(out, rec)
	}
	return out, nil
}

func ReadPolicyholderTape(r io.Reader) ([]PolicyholderRecord, error) {
	t, err := readTape(r, policyholderColumns)
	if err != nil {
		return nil, err
	}
	idCol := "policyholder_id"
	if _, ok := t.index[idCol]; !ok {
		idCol = "id"
	}
	if _, ok := t.index[idCol]; !ok {
		return nil, fmt.Errorf("%w: policyholder_id", ErrMissingColumns)
	}

	out := make([]PolicyholderRecord, 0, len(t.rows))
	for i, row := range t.rows {
		line := i + 2
		rec := PolicyholderRecord{ID: t.cell(row, idCol)}
		if rec.ID == "" {
			return nil, fmt.Errorf("line %d: empty %s", line, idCol)
		}
		if rec.Age, err = t.float(row, "age", line); err != nil {
			return nil, err
		}
		if rec.Benefit, err = t.float(row, "benefit", line); err != nil {
			return nil, err
		}
		if rec.Mu, err = t.float(row, "mu", line); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

func BuildAssetPortfolio(recs []AssetRecord, ytmFactor float64) (*model.AssetPortfolio, error) {
	if len(recs) == 0 {
		return nil, ErrEmptyTape
	}
	assets := make([]*model.Asset, 0, len(recs))
	for i, r := range recs {
		freq := r.Freq
		if freq == 0 {
			freq = DefaultFreq
		}
		bond, err := model.NewFixedBond(r.Face, r.Coupon, r.Maturity, freq)
		if err != nil {
			return nil, fmt.Errorf("asset %d: %w", i+1, err)
		}
		assets = append(assets, model.NewAsset(bond, r.YTM*ytmFactor))
	}
	return model.NewAssetPortfolio(assets), nil
}

func BuildLiabilityPortfolio(recs []PolicyholderRecord, interest, mortalityFactor float64) (*model.LiabilityPortfolio, error) {
	if len(recs) == 0 {
		return nil, ErrEmptyTape
	}
	phs := make([]*model.Policyholder, 0, len(recs))
	for _, r := range recs {
		if r.Mu < 0 {
			return nil, fmt.Errorf("policyholder %s: mu must be >= 0", r.ID)
		}
		table := mortality.Synthesize(r.Mu*mortalityFactor, mortality.DefaultHorizon)
		ph, err := model.NewPolicyholder(r.ID, r.Age, table, r.Benefit)
		if err != nil {
			return nil, fmt.Errorf("policyholder %s: %w", r.ID, err)
		}
		phs = append(phs, ph)
	}
	return model.NewLiabilityPortfolio(phs, interest), nil
}

type tape struct {
	index map[string]int
	rows  [][]string
}

func readTape(r io.Reader, required []string) (*tape, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyTape
	}
	if err != nil {
		return nil, err
	}
	t := &tape{index: make(map[string]int, len(header))}
	for i, h := range header {
		t.index[strings.ToLower(strings.TrimSpace(h))] = i
	}

	var missing []string
	for _, c := range required {
		if _, ok := t.index[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}

	t.rows, err = cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(t.rows) == 0 {
		return nil, ErrEmptyTape
	}
	return t, nil
}

func (t *tape) cell(row []string, col string) string {
	i, ok := t.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *tape) float(row []string, col string, line int) (float64, error) {
	raw := t.cell(row, col)
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: %s %q is not numeric", line, col, raw)
	}
	return v, nil
}
