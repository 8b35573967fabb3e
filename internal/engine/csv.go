package engine

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

const (
	amountPlaces = 2
	ratePlaces   = 6
)

func WriteLedgerCSV(path, scenario string, ledger []LedgerRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeLedgerCSV(f, scenario, ledger)
}

// EncodeLedgerCSV writes one row per (iteration, year).
func EncodeLedgerCSV(out io.Writer, scenario string, ledger []LedgerRow) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	header := []string{
		"scenario",
		"iteration",
		"year",
		"capital",
		"lower_bound",
		"upper_bound",
		"yield",
		"benefit",
		"reserve",
		"status",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			scenario,
			strconv.Itoa(r.Iteration),
			strconv.Itoa(r.Year),
			fmtAmount(r.Capital),
			fmtAmount(r.Lower),
			fmtAmount(r.Upper),
			fmtRate(r.Yield),
			fmtAmount(r.Benefit),
			fmtAmount(r.Reserve),
			string(r.Status),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func WriteSummaryCSV(path string, rows []SummaryRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeSummaryCSV(f, rows)
}

// EncodeSummaryCSV writes one row per scenario.
func EncodeSummaryCSV(out io.Writer, rows []SummaryRow) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	header := []string{
		"scenario",
		"final_capital",
		"converged",
		"final_reserve",
		"iterations",
		"elapsed_seconds",
		"asset_market_value",
		"liability_apv",
		"error",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range rows {
		row := []string{
			r.Scenario,
			fmtAmount(r.Capital),
			strconv.FormatBool(r.Converged),
			fmtAmount(r.FinalReserve),
			strconv.Itoa(r.Iterations),
			fmtRate(r.Elapsed.Seconds()),
			fmtAmount(r.AssetMarketValue),
			fmtAmount(r.LiabilityAPV),
			r.Error,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtAmount(x float64) string { return fmtFixed(x, amountPlaces) }

func fmtRate(x float64) string { return fmtFixed(x, ratePlaces) }

// fmtFixed rounds half away from zero; decimal cannot represent NaN or Inf.
func fmtFixed(x float64, places int32) string {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return decimal.NewFromFloat(x).StringFixed(places)
}
