package models

// CalibrateResponse represents the response from a calibration run
type CalibrateResponse struct {
	ID         string             `json:"id,omitempty"`
	Status     string             `json:"status"` // "converged" | "not_converged"
	Summary    CalibrationSummary `json:"summary"`
	Iterations []IterationSummary `json:"iterations,omitempty"`
}

// CalibrationSummary contains the outcome of one scenario
type CalibrationSummary struct {
	Scenario         string  `json:"scenario"`
	Capital          float64 `json:"capital"`
	CapitalDisplay   string  `json:"capital_display"`
	Converged        bool    `json:"converged"`
	FinalReserve     float64 `json:"final_reserve"`
	Iterations       int     `json:"iterations"`
	Method           string  `json:"method"`
	ElapsedSeconds   float64 `json:"elapsed_seconds"`
	Elapsed          string  `json:"elapsed"`
	AssetMarketValue float64 `json:"asset_market_value"`
	LiabilityAPV     float64 `json:"liability_apv"`
}

// IterationSummary is one bisection trial
type IterationSummary struct {
	Index           int     `json:"index"`
	Capital         float64 `json:"capital"`
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
	MarketValue     float64 `json:"market_value"`
	TerminalReserve float64 `json:"terminal_reserve"`
	Converged       bool    `json:"converged"`
}

// LedgerResponse holds the stored per-year rows of a run
type LedgerResponse struct {
	ID       string      `json:"id"`
	Scenario string      `json:"scenario"`
	Rows     []LedgerRow `json:"rows"`
}

// LedgerRow represents one (iteration, year) of the reserve projection
type LedgerRow struct {
	Iteration int     `json:"iteration"`
	Year      int     `json:"year"`
	Capital   float64 `json:"capital"`
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
	Yield     float64 `json:"yield"`
	Benefit   float64 `json:"benefit"`
	Reserve   float64 `json:"reserve"`
	Status    string  `json:"status"` // "DEFICIT", "BALANCED", "SURPLUS"
}

// CompareResponse represents the response from a comparison
type CompareResponse struct {
	Rankings []RankedScenario `json:"rankings"`
}

// RankedScenario contains results for one variation
type RankedScenario struct {
	Rank    int                `json:"rank"`
	Summary CalibrationSummary `json:"summary"`
	Error   string             `json:"error,omitempty"`
}

// LifetimeResponse describes the remaining lifetime of one life
type LifetimeResponse struct {
	Age                     int       `json:"age"`
	MaxAge                  int       `json:"max_age"`
	Horizon                 int       `json:"horizon"`
	Seed                    uint64    `json:"seed"`
	Sample                  int       `json:"sample"`
	ExpectedLifetime        float64   `json:"expected_lifetime"`
	OneYearDeathProbability float64   `json:"one_year_death_probability"`
	Distribution            []float64 `json:"distribution"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
