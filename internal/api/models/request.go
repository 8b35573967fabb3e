package models

// Bond is one fixed-coupon holding of the inline asset book.
type Bond struct {
	Face     float64 `json:"face" binding:"required,gt=0"`
	Coupon   float64 `json:"coupon"`
	Maturity float64 `json:"maturity" binding:"gte=0"`
	YTM      float64 `json:"ytm"`
	Freq     int     `json:"freq,omitempty"` // default: 2
}

// Policyholder is one insured life of the inline liability book.
type Policyholder struct {
	ID      string  `json:"policyholder_id" binding:"required"`
	Age     float64 `json:"age" binding:"gte=0"`
	Benefit float64 `json:"benefit" binding:"gte=0"`
	Mu      float64 `json:"mu" binding:"gte=0"`
}

// CalibrationParams mirrors the solver section of the run config.
type CalibrationParams struct {
	LiabilityInterest float64  `json:"liability_interest"`
	InitialCapital    *float64 `json:"initial_capital,omitempty"` // default: midpoint of bounds
	MinimumCapital    float64  `json:"minimum_capital"`
	MaximumCapital    float64  `json:"maximum_capital" binding:"required,gt=0"`
	ProjectionHorizon int      `json:"projection_horizon,omitempty"` // default: 30
	MaxIterations     int      `json:"max_iterations,omitempty"`     // default: 30
	Tolerance         float64  `json:"tolerance,omitempty"`          // default: 1000
	ProjectionMethod  string   `json:"projection_method,omitempty"`  // "vectorized" | "loop"
	YieldBasis        string   `json:"yield_basis,omitempty"`        // "ytm" | "price_path"
	Currency          string   `json:"currency,omitempty"`           // default: USD
}

// Scenario stresses the inline book before calibration. Zero factors mean 1.
type Scenario struct {
	Name            string  `json:"name"`
	YTMFactor       float64 `json:"ytm_factor,omitempty"`
	MortalityFactor float64 `json:"mortality_factor,omitempty"`
}

// CalibrateRequest is the body of POST /api/v1/calibrate.
type CalibrateRequest struct {
	Bonds         []Bond            `json:"bonds" binding:"required,min=1,dive"`
	Policyholders []Policyholder    `json:"policyholders" binding:"required,min=1,dive"`
	Params        CalibrationParams `json:"params" binding:"required"`
	Scenario      Scenario          `json:"scenario,omitempty"`
	Options       CalibrateOptions  `json:"options,omitempty"`
}

type CalibrateOptions struct {
	IncludeIterations bool `json:"include_iterations,omitempty"`
}

// CompareRequest runs several scenarios over the same inline book.
type CompareRequest struct {
	Bonds         []Bond            `json:"bonds" binding:"required,min=1,dive"`
	Policyholders []Policyholder    `json:"policyholders" binding:"required,min=1,dive"`
	Params        CalibrationParams `json:"params" binding:"required"`
	Variations    []Scenario        `json:"variations" binding:"required,min=1"`
}

// LifeTableRow is one (x, lx) entry of a custom table.
type LifeTableRow struct {
	Age       int     `json:"x"`
	Survivors float64 `json:"lx"`
}

// LifetimeRequest is the body of POST /api/v1/lifetime. Either Mu or Table is required.
type LifetimeRequest struct {
	Mu      *float64       `json:"mu,omitempty"`
	Table   []LifeTableRow `json:"table,omitempty"`
	Age     int            `json:"age" binding:"gte=0"`
	Seed    *uint64        `json:"seed,omitempty"`    // default: 42
	Horizon int            `json:"horizon,omitempty"` // default: 120
}
