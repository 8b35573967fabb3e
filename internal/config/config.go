package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"mfi-alm/internal/logging"
)

// Config is the on-disk run configuration (YAML; JSON documents parse too).
type Config struct {
	AssetPath     string `yaml:"asset_path"`
	LiabilityPath string `yaml:"liability_path"`

	LiabilityInterest float64 `yaml:"liability_interest"`

	// Bisection bounds and starting point. If initial_capital is omitted it
	// defaults to the midpoint of the bounds.
	InitialCapital *float64 `yaml:"initial_capital"`
	MinimumCapital float64  `yaml:"minimum_capital"`
	MaximumCapital float64  `yaml:"maximum_capital"`

	ProjectionHorizon int     `yaml:"projection_horizon"`
	MaxIterations     int     `yaml:"max_iterations"`
	Tolerance         float64 `yaml:"tolerance"`

	// ProjectionMethod is "vectorized" (default) or "loop".
	ProjectionMethod string `yaml:"projection_method"`
	// YieldBasis is "ytm" (default) or "price_path".
	YieldBasis string `yaml:"yield_basis"`

	Currency  string `yaml:"currency"`
	OutputDir string `yaml:"output_dir"`

	// Optional: load scenarios from a separate YAML (e.g. examples/scenarios.yaml).
	// Scenarios listed here override file entries with the same name.
	ScenariosFile string     `yaml:"scenarios_file"`
	Scenarios     []Scenario `yaml:"scenarios"`

	Log logging.Config `yaml:"log"`
}

// Scenario is a named stress applied when the tapes are loaded.
type Scenario struct {
	Name string `yaml:"name"`
	// YTMFactor multiplies every asset's yield to maturity.
	YTMFactor float64 `yaml:"ytm_factor"`
	// MortalityFactor multiplies every policyholder's force of mortality.
	MortalityFactor float64 `yaml:"mortality_factor"`
}

const (
	DefaultHorizon       = 30
	DefaultMaxIterations = 30
	DefaultTolerance     = 1000.0
	DefaultCurrency      = "USD"
	DefaultOutputDir     = "results"
)

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked loads and merges config, but does not default or validate it.
// Useful for debugging/printing partial configs.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	base := filepath.Dir(path)
	c.AssetPath = resolve(base, c.AssetPath)
	c.LiabilityPath = resolve(base, c.LiabilityPath)

	if c.ScenariosFile != "" {
		loaded, err := LoadScenariosFile(resolve(base, c.ScenariosFile))
		if err != nil {
			return nil, err
		}
		c.Scenarios = MergeScenarios(loaded, c.Scenarios)
	}
	return &c, nil
}

// resolve prefers interpreting relative paths as relative to the config file
// directory, but falls back to the provided path (relative to cwd) if that doesn't exist.
func resolve(base, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	cand := filepath.Join(base, p)
	if _, err := os.Stat(cand); err == nil {
		return cand
	}
	return p
}

// ApplyDefaults fills unset numeric and string fields.
func (c *Config) ApplyDefaults() {
	if c.ProjectionHorizon == 0 {
		c.ProjectionHorizon = DefaultHorizon
	}
	if c.MaxIterations == 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.Tolerance == 0 {
		c.Tolerance = DefaultTolerance
	}
	if c.InitialCapital == nil {
		mid := (c.MinimumCapital + c.MaximumCapital) / 2
		c.InitialCapital = &mid
	}
	if c.ProjectionMethod == "" {
		c.ProjectionMethod = "vectorized"
	}
	if c.YieldBasis == "" {
		c.YieldBasis = "ytm"
	}
	if c.Currency == "" {
		c.Currency = DefaultCurrency
	}
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if len(c.Scenarios) == 0 {
		c.Scenarios = []Scenario{{Name: "base"}}
	}
	for i := range c.Scenarios {
		c.Scenarios[i] = c.Scenarios[i].withDefaults()
	}
}

func (s Scenario) withDefaults() Scenario {
	if s.YTMFactor == 0 {
		s.YTMFactor = 1
	}
	if s.MortalityFactor == 0 {
		s.MortalityFactor = 1
	}
	return s
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.AssetPath == "" {
		return errors.New("asset_path is required")
	}
	if c.LiabilityPath == "" {
		return errors.New("liability_path is required")
	}
	if c.LiabilityInterest <= -1 {
		return errors.New("liability_interest must be > -1")
	}
	if c.MinimumCapital < 0 {
		return errors.New("minimum_capital must be >= 0")
	}
	if c.MaximumCapital <= c.MinimumCapital {
		return fmt.Errorf("maximum_capital (%v) must exceed minimum_capital (%v)", c.MaximumCapital, c.MinimumCapital)
	}
	if ic := c.InitialCapital; ic != nil && (*ic < c.MinimumCapital || *ic > c.MaximumCapital) {
		return fmt.Errorf("initial_capital (%v) must lie within [%v, %v]", *ic, c.MinimumCapital, c.MaximumCapital)
	}
	if c.ProjectionHorizon <= 0 {
		return errors.New("projection_horizon must be > 0")
	}
	if c.MaxIterations <= 0 {
		return errors.New("max_iterations must be > 0")
	}
	if c.Tolerance <= 0 {
		return errors.New("tolerance must be > 0")
	}
	switch c.ProjectionMethod {
	case "vectorized", "loop":
	default:
		return fmt.Errorf("unsupported projection_method: %q", c.ProjectionMethod)
	}
	switch c.YieldBasis {
	case "ytm", "price_path":
	default:
		return fmt.Errorf("unsupported yield_basis: %q", c.YieldBasis)
	}
	seen := map[string]bool{}
	for i, s := range c.Scenarios {
		if s.Name == "" {
			return fmt.Errorf("scenarios[%d].name is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("duplicate scenario %q", s.Name)
		}
		seen[s.Name] = true
		if s.YTMFactor <= 0 || s.MortalityFactor <= 0 {
			return fmt.Errorf("scenario %q: factors must be > 0", s.Name)
		}
	}
	return nil
}

// Scenario returns the named scenario, if configured.
func (c *Config) Scenario(name string) (Scenario, bool) {
	for _, s := range c.Scenarios {
		if s.Name == name {
			return s, true
		}
	}
	return Scenario{}, false
}

type scenariosFileWrapper struct {
	Scenarios []Scenario `yaml:"scenarios"`
}

// LoadScenariosFile reads a YAML document with a top-level scenarios list.
func LoadScenariosFile(path string) ([]Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var w scenariosFileWrapper
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("parse scenarios file %s: %w", path, err)
	}
	return w.Scenarios, nil
}

// MergeScenarios overlays override entries onto base by name; new names are appended.
func MergeScenarios(base, override []Scenario) []Scenario {
	out := append([]Scenario(nil), base...)
	for _, o := range override {
		found := false
		for i := range out {
			if out[i].Name == o.Name {
				out[i] = MergeScenario(out[i], o)
				found = true
				break
			}
		}
		if !found {
			out = append(out, o)
		}
	}
	return out
}

// MergeScenario overlays non-zero fields from override onto base.
func MergeScenario(base, override Scenario) Scenario {
	out := base
	if override.YTMFactor != 0 {
		out.YTMFactor = override.YTMFactor
	}
	if override.MortalityFactor != 0 {
		out.MortalityFactor = override.MortalityFactor
	}
	return out
}
