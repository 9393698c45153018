package risk

import "fmt"

// Historical estimates VaR as the empirical tail quantile of the
// trailing PnL window. Order-insensitive: any permutation of the window
// yields the same threshold.
type Historical struct {
	cfg *Config
}

// NewHistorical creates a historical-quantile VaR estimator.
func NewHistorical(cfg *Config) *Historical {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Historical{cfg: cfg}
}

func (h *Historical) Method() Method { return MethodHistorical }

// Estimate returns -quantile(window, 1-confidence) as a positive loss
// magnitude. The window must contain at least WindowSize observations.
func (h *Historical) Estimate(window []float64, _ int) (float64, error) {
	if len(window) < h.cfg.WindowSize {
		return 0, fmt.Errorf("historical estimator: %w (got %d, need %d)",
			ErrInsufficientWindow, len(window), h.cfg.WindowSize)
	}
	return -Quantile(window, 1-h.cfg.ConfidenceLevel), nil
}
