package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/banrisk/fxvar/internal/risk"
)

// RunConfig is the full configuration for one fxvar invocation: where
// the rate data lives, where artifacts go, and the VaR parameters.
type RunConfig struct {
	Data    DataConfig  `yaml:"data"`
	VaR     risk.Config `yaml:"var"`
	Workers int         `yaml:"workers"` // 0 = GOMAXPROCS
}

// DataConfig locates inputs and outputs on disk.
type DataConfig struct {
	RawCSV    string `yaml:"raw_csv"`    // strict (date, rate) snapshot
	OutputDir string `yaml:"output_dir"` // JSONL table + markdown report
	ResultsDB string `yaml:"results_db"` // sqlite file for run history
}

// Default returns the standard run configuration.
func Default() *RunConfig {
	return &RunConfig{
		Data: DataConfig{
			RawCSV:    "data/raw/usd_gtq_daily.csv",
			OutputDir: "artifacts/backtest",
			ResultsDB: "data/fxvar.db",
		},
		VaR:     *risk.DefaultConfig(),
		Workers: 0,
	}
}

// Load reads a YAML run configuration, filling unset fields with
// defaults and validating the result.
func Load(path string) (*RunConfig, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration invariants.
func (c *RunConfig) Validate() error {
	if c.Data.RawCSV == "" {
		return fmt.Errorf("data.raw_csv must be set")
	}
	if c.Data.OutputDir == "" {
		return fmt.Errorf("data.output_dir must be set")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be >= 0, got %d", c.Workers)
	}
	return c.VaR.Validate()
}
