package engine

import (
	"bytes"
	"encoding/csv"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mfi-alm/internal/config"
	"mfi-alm/internal/data"
	"mfi-alm/internal/model"
)

func TestResultLedger(t *testing.T) {
	assets, liabs := flatBook(t, 1)
	p := flatParams(MethodVectorized)
	p.Years = 5
	p.MaxIterations = 4
	s, err := New(p)
	require.NoError(t, err)
	res, err := s.Calibrate(assets, liabs)
	require.NoError(t, err)

	rows := res.Ledger(p.Tolerance)
	require.Len(t, rows, len(res.Iterations)*5)
	assert.Equal(t, 1, rows[0].Iteration)
	assert.Equal(t, 1, rows[0].Year)
	assert.Equal(t, 5, rows[4].Year)
	assert.Equal(t, 2, rows[5].Iteration)
	assert.Equal(t, res.Iterations[0].TerminalReserve, rows[4].Reserve)
	assert.Equal(t, model.ReserveSurplus, rows[4].Status)

	var nilResult *Result
	assert.Nil(t, nilResult.Ledger(1))
}

func TestEncodeLedgerCSV(t *testing.T) {
	rows := []LedgerRow{
		{Iteration: 1, Year: 1, Capital: 1000, Lower: 0, Upper: 2000, Yield: 0.04, Benefit: 50.125, Reserve: -3.14159, Status: model.ReserveDeficit},
	}
	var buf bytes.Buffer
	require.NoError(t, EncodeLedgerCSV(&buf, "base", rows))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "scenario", recs[0][0])
	assert.Equal(t, []string{"base", "1", "1", "1000.00", "0.00", "2000.00", "0.040000", "50.13", "-3.14", "DEFICIT"}, recs[1])
}

func TestEncodeSummaryCSV(t *testing.T) {
	rows := []SummaryRow{
		{Scenario: "base", Capital: 864601.555, Converged: true, FinalReserve: 12.5, Iterations: 12, Elapsed: 1500 * time.Millisecond},
		{Scenario: "broken", Error: "load assets: boom"},
	}
	var buf bytes.Buffer
	require.NoError(t, EncodeSummaryCSV(&buf, rows))

	recs, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, "864601.56", recs[1][1])
	assert.Equal(t, "true", recs[1][2])
	assert.Equal(t, "1.500000", recs[1][5])
	assert.Equal(t, "load assets: boom", recs[2][8])
}

func TestWriteCSVFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, WriteLedgerCSV(filepath.Join(dir, "ledger.csv"), "base", nil))
	require.NoError(t, WriteSummaryCSV(filepath.Join(dir, "summary.csv"), nil))
	assert.Error(t, WriteSummaryCSV(filepath.Join(dir, "missing", "summary.csv"), nil))
}

func TestFmtFixed_NonFinite(t *testing.T) {
	assert.Equal(t, "NaN", fmtAmount(nan()))
	assert.Equal(t, "2.50", fmtAmount(2.499999999))
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestScenarioResultSummary(t *testing.T) {
	ok := ScenarioResult{
		Scenario: config.Scenario{Name: "base"},
		Result:   &Result{Capital: 10, Converged: true, FinalReserve: 1, Iterations: make([]Iteration, 3)},
	}
	row := ok.Summary()
	assert.Equal(t, SummaryRow{Scenario: "base", Capital: 10, Converged: true, FinalReserve: 1, Iterations: 3}, row)

	failed := ScenarioResult{Scenario: config.Scenario{Name: "bad"}, Err: errors.New("boom")}
	assert.Equal(t, "boom", failed.Summary().Error)
	assert.Len(t, Summaries([]ScenarioResult{ok, failed}), 2)
}

type fakeMetrics struct {
	calibrations int
	failures     []string
}

func (f *fakeMetrics) ObserveCalibration(string, int, bool, time.Duration) { f.calibrations++ }
func (f *fakeMetrics) ObserveScenarioFailure(s string) { f.failures = append(f.failures, s) }

func runnerConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	assetPath, phPath, err := data.GenerateTapes(dir, data.GenerateOptions{Seed: 1, Policyholders: 20, Bonds: 4})
	require.NoError(t, err)
	cfg := &config.Config{
		AssetPath:         assetPath,
		LiabilityPath:     phPath,
		LiabilityInterest: 0.03,
		MaximumCapital:    1e9,
		ProjectionHorizon: 10,
		Scenarios: []config.Scenario{
			{Name: "base"},
			{Name: "pandemic", MortalityFactor: 2},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestRunner_RunAll(t *testing.T) {
	cfg := runnerConfig(t)
	m := &fakeMetrics{}
	r, err := NewRunner(cfg, WithRunnerMetrics(m))
	require.NoError(t, err)

	results := r.RunAll()
	require.Len(t, results, 2)
	for _, res := range results {
		require.NoError(t, res.Err)
		require.NotNil(t, res.Result)
		assert.Greater(t, res.AssetMarketValue, 0.0)
		assert.Greater(t, res.LiabilityAPV, 0.0)
	}
	assert.Greater(t, results[1].LiabilityAPV, results[0].LiabilityAPV)
	assert.Equal(t, 2, m.calibrations)
	assert.Empty(t, m.failures)
}

func TestRunner_FailingScenarioDoesNotStopBatch(t *testing.T) {
	cfg := runnerConfig(t)
	cfg.LiabilityPath = filepath.Join(t.TempDir(), "missing.csv")
	m := &fakeMetrics{}
	r, err := NewRunner(cfg, WithRunnerMetrics(m))
	require.NoError(t, err)

	results := r.RunAll()
	require.Len(t, results, 2)
	for _, res := range results {
		require.Error(t, res.Err)
		assert.Nil(t, res.Result)
		assert.True(t, strings.HasPrefix(res.Err.Error(), "load liabilities"))
	}
	assert.Equal(t, []string{"base", "pandemic"}, m.failures)
	assert.Equal(t, 0, m.calibrations)
}

func TestNewRunner_InvalidConfig(t *testing.T) {
	_, err := NewRunner(&config.Config{})
	assert.Error(t, err)
}

func TestParamsFromConfig(t *testing.T) {
	initial := 5.0
	cfg := &config.Config{
		InitialCapital: &initial, MinimumCapital: 1, MaximumCapital: 9,
		ProjectionHorizon: 12, MaxIterations: 7, Tolerance: 0.5,
		ProjectionMethod: "loop", YieldBasis: "price_path",
	}
	assert.Equal(t, Params{
		InitialCapital: 5, MinCapital: 1, MaxCapital: 9,
		Years: 12, MaxIterations: 7, Tolerance: 0.5,
		Method: MethodLoop, YieldBasis: YieldBasisPricePath,
	}, ParamsFromConfig(cfg))

	cfg.InitialCapital = nil
	assert.Equal(t, 5.0, ParamsFromConfig(cfg).InitialCapital)
}
