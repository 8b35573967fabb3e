package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mfi-alm/internal/api/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	return NewRouter(Options{ScenariosFile: filepath.Join(t.TempDir(), "none.yaml")})
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// One 4% bond against a single life with a flat 1% death rate and a 5M
// benefit: required capital is the 30-year annuity of 50k, about 864.6k.
func flatBook() ([]models.Bond, []models.Policyholder) {
	bonds := []models.Bond{{Face: 1_000_000, Coupon: 0.04, Maturity: 30, YTM: 0.04, Freq: 2}}
	phs := []models.Policyholder{{ID: "1", Age: 30, Benefit: 5_000_000, Mu: 0.01005033585350145}}
	return bonds, phs
}

func capital(v float64) *float64 { return &v }

func calibrateRequest() models.CalibrateRequest {
	bonds, phs := flatBook()
	return models.CalibrateRequest{
		Bonds:         bonds,
		Policyholders: phs,
		Params: models.CalibrationParams{
			LiabilityInterest: 0.03,
			InitialCapital:    capital(1_000_000),
			MaximumCapital:    2_000_000,
		},
		Options: models.CalibrateOptions{IncludeIterations: true},
	}
}

func TestHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	// one calibration so the counter has a series
	do(t, r, http.MethodPost, "/api/v1/calibrate", calibrateRequest())
	w = do(t, r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alm_calibrations_total")
}

func TestCalibrateAndLedger(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/calibrate", calibrateRequest())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.CalibrateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "converged", resp.Status)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "base", resp.Summary.Scenario)
	assert.Equal(t, "vectorized", resp.Summary.Method)
	assert.InDelta(t, 864_601.6, resp.Summary.Capital, 310)
	assert.True(t, strings.HasPrefix(resp.Summary.CapitalDisplay, "$8"))
	require.NotEmpty(t, resp.Iterations)
	assert.Equal(t, resp.Summary.Iterations, len(resp.Iterations))

	w = do(t, r, http.MethodGet, "/api/v1/calibrate/"+resp.ID+"/ledger", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var ledger models.LedgerResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ledger))
	assert.Equal(t, resp.ID, ledger.ID)
	assert.Len(t, ledger.Rows, 30*len(resp.Iterations))
	last := ledger.Rows[len(ledger.Rows)-1]
	assert.Equal(t, 30, last.Year)
	assert.Equal(t, "BALANCED", last.Status)
}

func TestGetLedger_Unknown(t *testing.T) {
	r := newTestRouter(t)
	w := do(t, r, http.MethodGet, "/api/v1/calibrate/0b7f0c1e-2a9e-4c1b-9d7e-3f1d2c3b4a59/ledger", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "RUN_NOT_FOUND")
}

func TestCalibrate_BadRequests(t *testing.T) {
	r := newTestRouter(t)

	w := do(t, r, http.MethodPost, "/api/v1/calibrate", map[string]any{"bonds": []any{}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_REQUEST")

	req := calibrateRequest()
	req.Params.ProjectionMethod = "newton"
	w = do(t, r, http.MethodPost, "/api/v1/calibrate", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_PARAMS")

	req = calibrateRequest()
	req.Bonds[0].Freq = -1
	w = do(t, r, http.MethodPost, "/api/v1/calibrate", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_BOOK")
}

func TestCalibrate_InitialCapital(t *testing.T) {
	r := newTestRouter(t)

	// an explicit zero is kept, not replaced by the midpoint
	req := calibrateRequest()
	req.Params.InitialCapital = capital(0)
	w := do(t, r, http.MethodPost, "/api/v1/calibrate", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.CalibrateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Iterations)
	assert.Equal(t, 0.0, resp.Iterations[0].Capital)

	req.Params.InitialCapital = nil
	w = do(t, r, http.MethodPost, "/api/v1/calibrate", req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1_000_000.0, resp.Iterations[0].Capital)

	req.Params.InitialCapital = capital(5_000_000)
	w = do(t, r, http.MethodPost, "/api/v1/calibrate", req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_PARAMS")
}

func TestCompare(t *testing.T) {
	r := newTestRouter(t)
	bonds, phs := flatBook()
	body := models.CompareRequest{
		Bonds:         bonds,
		Policyholders: phs,
		Params:        models.CalibrationParams{LiabilityInterest: 0.03, MaximumCapital: 3_000_000},
		Variations: []models.Scenario{
			{Name: "base"},
			{Name: "pandemic", MortalityFactor: 1.5},
			{Name: "rates_down", YTMFactor: 0.5},
		},
	}
	w := do(t, r, http.MethodPost, "/api/v1/calibrate/compare", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp models.CompareResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Rankings, 3)
	for i, rk := range resp.Rankings {
		assert.Equal(t, i+1, rk.Rank)
		assert.Empty(t, rk.Error)
	}
	assert.GreaterOrEqual(t, resp.Rankings[0].Summary.Capital, resp.Rankings[1].Summary.Capital)
	assert.GreaterOrEqual(t, resp.Rankings[1].Summary.Capital, resp.Rankings[2].Summary.Capital)
	assert.Equal(t, "base", resp.Rankings[2].Summary.Scenario)
}

func TestLifetime(t *testing.T) {
	r := newTestRouter(t)

	mu := 0.05
	w := do(t, r, http.MethodPost, "/api/v1/lifetime", models.LifetimeRequest{Mu: &mu, Age: 40})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp models.LifetimeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 120, resp.MaxAge)
	assert.Equal(t, uint64(42), resp.Seed)
	assert.Len(t, resp.Distribution, 121)
	assert.LessOrEqual(t, resp.Sample, 80)
	assert.Greater(t, resp.ExpectedLifetime, 0.0)

	// same seed, same draw
	w2 := do(t, r, http.MethodPost, "/api/v1/lifetime", models.LifetimeRequest{Mu: &mu, Age: 40})
	var again models.LifetimeResponse
	require.NoError(t, json.Unmarshal(w2.Body.Bytes(), &again))
	assert.Equal(t, resp.Sample, again.Sample)

	table := []models.LifeTableRow{{Age: 0, Survivors: 100}, {Age: 1, Survivors: 50}, {Age: 2, Survivors: 0}}
	w = do(t, r, http.MethodPost, "/api/v1/lifetime", models.LifetimeRequest{Table: table, Age: 0, Horizon: 2})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.InDeltaSlice(t, []float64{0.5, 0.5, 0}, resp.Distribution, 1e-12)
	assert.InDelta(t, 0.5, resp.OneYearDeathProbability, 1e-12)

	w = do(t, r, http.MethodPost, "/api/v1/lifetime", models.LifetimeRequest{Age: 40})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TABLE")
}

func TestMethodsAndScenarios(t *testing.T) {
	dir := t.TempDir()
	presets := filepath.Join(dir, "scenarios.yaml")
	require.NoError(t, os.WriteFile(presets, []byte("scenarios:\n  - name: pandemic\n    mortality_factor: 2\n"), 0o644))
	r := NewRouter(Options{ScenariosFile: presets})

	w := do(t, r, http.MethodGet, "/api/v1/methods", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"vectorized"`)
	assert.Contains(t, w.Body.String(), `"price_path"`)

	w = do(t, r, http.MethodGet, "/api/v1/scenarios", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"scenarios":[{"name":"pandemic","ytm_factor":1,"mortality_factor":2}]}`, w.Body.String())

	w = do(t, newTestRouter(t), http.MethodGet, "/api/v1/scenarios", nil)
	assert.JSONEq(t, `{"scenarios":[]}`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/calibrate", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Less(t, w.Code, 300)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNoRoute(t *testing.T) {
	w := do(t, newTestRouter(t), http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
