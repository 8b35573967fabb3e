package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"mfi-alm/internal/analysis"
	"mfi-alm/internal/api/models"
	"mfi-alm/internal/config"
	"mfi-alm/internal/data"
	"mfi-alm/internal/engine"
	"mfi-alm/internal/logging"
	"mfi-alm/internal/model"
)

const defaultCurrency = "USD"

// StoredRun is what the ledger endpoint serves back for a run ID.
type StoredRun struct {
	Scenario  string
	Tolerance float64
	Result    *engine.Result
}

// CalibrationHandler handles calibration requests
type CalibrationHandler struct {
	store    *data.ResultStore[StoredRun]
	logger   *zap.Logger
	recorder engine.Recorder
}

// NewCalibrationHandler creates a new calibration handler. recorder may be nil.
func NewCalibrationHandler(store *data.ResultStore[StoredRun], logger *zap.Logger, recorder engine.Recorder) *CalibrationHandler {
	return &CalibrationHandler{
		store:    store,
		logger:   logging.OrNop(logger),
		recorder: recorder,
	}
}

// Calibrate handles POST /api/v1/calibrate
func (h *CalibrationHandler) Calibrate(c *gin.Context) {
	var req models.CalibrateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}

	params := buildParams(req.Params)
	solver, err := h.newSolver(params)
	if err != nil {
		badRequest(c, "INVALID_PARAMS", err)
		return
	}

	sc := scenarioOrDefault(req.Scenario)
	res := h.run(solver, req.Bonds, req.Policyholders, req.Params.LiabilityInterest, sc)
	if res.Err != nil {
		badRequest(c, "INVALID_BOOK", res.Err)
		return
	}

	id := h.store.Put(StoredRun{Scenario: sc.Name, Tolerance: solver.Params().Tolerance, Result: res.Result})

	status := "not_converged"
	if res.Result.Converged {
		status = "converged"
	}
	resp := models.CalibrateResponse{
		ID:      id,
		Status:  status,
		Summary: buildSummary(res.Summary(), res.Result.Method, currencyOrDefault(req.Params.Currency)),
	}
	if req.Options.IncludeIterations {
		resp.Iterations = buildIterations(res.Result)
	}
	c.JSON(http.StatusOK, resp)
}

// GetLedger handles GET /api/v1/calibrate/:id/ledger
func (h *CalibrationHandler) GetLedger(c *gin.Context) {
	id := c.Param("id")
	run, ok := h.store.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "RUN_NOT_FOUND",
				Message: "no stored calibration with id " + id,
			},
		})
		return
	}

	ledger := run.Result.Ledger(run.Tolerance)
	rows := make([]models.LedgerRow, len(ledger))
	for i, r := range ledger {
		rows[i] = models.LedgerRow{
			Iteration: r.Iteration,
			Year:      r.Year,
			Capital:   r.Capital,
			Lower:     r.Lower,
			Upper:     r.Upper,
			Yield:     r.Yield,
			Benefit:   r.Benefit,
			Reserve:   r.Reserve,
			Status:    string(r.Status),
		}
	}
	c.JSON(http.StatusOK, models.LedgerResponse{ID: id, Scenario: run.Scenario, Rows: rows})
}

// Compare handles POST /api/v1/calibrate/compare
func (h *CalibrationHandler) Compare(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "INVALID_REQUEST", err)
		return
	}

	params := buildParams(req.Params)
	solver, err := h.newSolver(params)
	if err != nil {
		badRequest(c, "INVALID_PARAMS", err)
		return
	}

	results := make([]engine.ScenarioResult, 0, len(req.Variations))
	for _, v := range req.Variations {
		results = append(results, h.run(solver, req.Bonds, req.Policyholders, req.Params.LiabilityInterest, scenarioOrDefault(v)))
	}

	method := string(solver.Params().Method)
	cur := currencyOrDefault(req.Params.Currency)
	ranked := analysis.RankByCapital(results)
	out := make([]models.RankedScenario, len(ranked))
	for i, r := range ranked {
		out[i] = models.RankedScenario{
			Rank:    r.Rank,
			Summary: buildSummary(r.SummaryRow, method, cur),
			Error:   r.Error,
		}
	}
	c.JSON(http.StatusOK, models.CompareResponse{Rankings: out})
}

func (h *CalibrationHandler) newSolver(p engine.Params) (*engine.Solver, error) {
	opts := []engine.Option{engine.WithLogger(h.logger)}
	if h.recorder != nil {
		opts = append(opts, engine.WithRecorder(h.recorder))
	}
	return engine.New(p, opts...)
}

// run builds the stressed book and calibrates it. Book errors are returned in
// the result so a comparison can report them per variation.
func (h *CalibrationHandler) run(solver *engine.Solver, bonds []models.Bond, phs []models.Policyholder, interest float64, sc config.Scenario) engine.ScenarioResult {
	start := time.Now()
	res := engine.ScenarioResult{Scenario: sc}

	assets, liabilities, err := buildBook(bonds, phs, interest, sc)
	if err == nil {
		res.AssetMarketValue = assets.MarketValue()
		res.LiabilityAPV = liabilities.InsuranceAPV()
		res.Result, err = solver.Calibrate(assets, liabilities)
	}
	res.Err = err
	res.Elapsed = time.Since(start)
	if err != nil {
		h.logger.Warn("calibration request failed", zap.String("scenario", sc.Name), zap.Error(err))
	}
	return res
}

func buildBook(bonds []models.Bond, phs []models.Policyholder, interest float64, sc config.Scenario) (*model.AssetPortfolio, *model.LiabilityPortfolio, error) {
	assetRecs := make([]data.AssetRecord, len(bonds))
	for i, b := range bonds {
		assetRecs[i] = data.AssetRecord{Face: b.Face, Coupon: b.Coupon, Maturity: b.Maturity, YTM: b.YTM, Freq: b.Freq}
	}
	phRecs := make([]data.PolicyholderRecord, len(phs))
	for i, p := range phs {
		phRecs[i] = data.PolicyholderRecord{ID: p.ID, Age: p.Age, Benefit: p.Benefit, Mu: p.Mu}
	}

	assets, err := data.BuildAssetPortfolio(assetRecs, sc.YTMFactor)
	if err != nil {
		return nil, nil, err
	}
	liabilities, err := data.BuildLiabilityPortfolio(phRecs, interest, sc.MortalityFactor)
	if err != nil {
		return nil, nil, err
	}
	return assets, liabilities, nil
}

func buildParams(p models.CalibrationParams) engine.Params {
	initial := (p.MinimumCapital + p.MaximumCapital) / 2
	if p.InitialCapital != nil {
		initial = *p.InitialCapital
	}
	return engine.Params{
		InitialCapital: initial,
		MinCapital:     p.MinimumCapital,
		MaxCapital:     p.MaximumCapital,
		Years:          p.ProjectionHorizon,
		MaxIterations:  p.MaxIterations,
		Tolerance:      p.Tolerance,
		Method:         engine.Method(p.ProjectionMethod),
		YieldBasis:     engine.YieldBasis(p.YieldBasis),
	}
}

func scenarioOrDefault(s models.Scenario) config.Scenario {
	sc := config.Scenario{Name: s.Name, YTMFactor: s.YTMFactor, MortalityFactor: s.MortalityFactor}
	if sc.Name == "" {
		sc.Name = "base"
	}
	if sc.YTMFactor == 0 {
		sc.YTMFactor = 1
	}
	if sc.MortalityFactor == 0 {
		sc.MortalityFactor = 1
	}
	return sc
}

func currencyOrDefault(code string) string {
	if code == "" {
		return defaultCurrency
	}
	return code
}

func buildSummary(row engine.SummaryRow, method, currency string) models.CalibrationSummary {
	return models.CalibrationSummary{
		Scenario:         row.Scenario,
		Capital:          row.Capital,
		CapitalDisplay:   analysis.FormatMoney(row.Capital, currency),
		Converged:        row.Converged,
		FinalReserve:     row.FinalReserve,
		Iterations:       row.Iterations,
		Method:           method,
		ElapsedSeconds:   row.Elapsed.Seconds(),
		Elapsed:          analysis.FormatElapsed(row.Elapsed),
		AssetMarketValue: row.AssetMarketValue,
		LiabilityAPV:     row.LiabilityAPV,
	}
}

func buildIterations(res *engine.Result) []models.IterationSummary {
	out := make([]models.IterationSummary, len(res.Iterations))
	for i, it := range res.Iterations {
		out[i] = models.IterationSummary{
			Index:           it.Index,
			Capital:         it.Capital,
			Lower:           it.Lower,
			Upper:           it.Upper,
			MarketValue:     it.MarketValue,
			TerminalReserve: it.TerminalReserve,
			Converged:       it.Converged,
		}
	}
	return out
}

func badRequest(c *gin.Context, code string, err error) {
	c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: err.Error(),
		},
	})
}
