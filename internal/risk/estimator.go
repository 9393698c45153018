package risk

import (
	"errors"
	"time"
)

// ErrInsufficientWindow indicates an estimator received fewer PnL
// observations than the configured window size. The backtest driver
// bounds its index range so this should never fire mid-run; seeing it
// there means a broken invariant, not bad data.
var ErrInsufficientWindow = errors.New("insufficient window: fewer observations than window_size")

// Method identifies which estimator produced a VaR threshold.
type Method string

const (
	MethodHistorical Method = "historical"
	MethodMonteCarlo Method = "monte_carlo"
)

// Estimate is a single day's VaR threshold.
//
// Threshold follows the positive-loss-magnitude convention used across
// the whole engine: a breach occurs when pnl_next_day < -Threshold.
type Estimate struct {
	AsOf      time.Time `json:"as_of"`
	Threshold float64   `json:"threshold"`
	Method    Method    `json:"method"`
}

// Breached reports whether the realized next-day PnL violated this
// estimate's threshold.
func (e Estimate) Breached(pnlNextDay float64) bool {
	return pnlNextDay < -e.Threshold
}

// Estimator turns a trailing PnL window into a VaR loss threshold.
// index is the evaluation day's position in the PnL series; stochastic
// estimators mix it into their seed so every day draws from an
// independent, reproducible stream. Deterministic estimators ignore it.
type Estimator interface {
	Method() Method
	Estimate(window []float64, index int) (float64, error)
}
