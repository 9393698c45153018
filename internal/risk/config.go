package risk

import "fmt"

// SamplingModel selects how the Monte Carlo estimator generates
// next-day PnL scenarios.
type SamplingModel string

const (
	// SamplingNormal fits Normal(mu, sigma) to the window and draws from it.
	SamplingNormal SamplingModel = "normal"
	// SamplingBootstrap resamples the window's raw PnL values with replacement.
	SamplingBootstrap SamplingModel = "bootstrap"
)

// Config contains the parameters shared by both VaR estimators and the
// rolling backtest. Supplied once per run and never mutated after Validate.
type Config struct {
	WindowSize      int           `yaml:"window_size"`      // 250 trailing PnL observations
	ConfidenceLevel float64       `yaml:"confidence_level"` // 0.99 → 1% expected breach rate
	Notional        float64       `yaml:"notional"`         // position size in base currency
	SimulationCount int           `yaml:"simulation_count"` // 10000 Monte Carlo draws per day
	SamplingModel   SamplingModel `yaml:"sampling_model"`   // "normal" or "bootstrap"
	RandomSeed      int64         `yaml:"random_seed"`      // base seed, mixed per evaluation day
}

// DefaultConfig returns the production backtest configuration.
func DefaultConfig() *Config {
	return &Config{
		WindowSize:      250,
		ConfidenceLevel: 0.99,
		Notional:        1_000_000,
		SimulationCount: 10_000,
		SamplingModel:   SamplingNormal,
		RandomSeed:      42,
	}
}

// Validate checks the configuration invariants.
func (c *Config) Validate() error {
	if c.WindowSize <= 0 {
		return fmt.Errorf("risk config: window_size must be positive, got %d", c.WindowSize)
	}
	if c.ConfidenceLevel <= 0 || c.ConfidenceLevel >= 1 {
		return fmt.Errorf("risk config: confidence_level must be in (0,1), got %.4f", c.ConfidenceLevel)
	}
	if c.Notional <= 0 {
		return fmt.Errorf("risk config: notional must be positive, got %.4f", c.Notional)
	}
	if c.SimulationCount <= 0 {
		return fmt.Errorf("risk config: simulation_count must be positive, got %d", c.SimulationCount)
	}
	switch c.SamplingModel {
	case SamplingNormal, SamplingBootstrap:
	default:
		return fmt.Errorf("risk config: unknown sampling_model %q", c.SamplingModel)
	}
	return nil
}
