package backtest

import (
	"errors"
	"time"

	"github.com/banrisk/fxvar/internal/risk"
)

// ErrInsufficientHistory indicates the PnL series is too short to
// produce even one backtest row. Reported instead of silently returning
// an empty table so callers can tell "no data" from "ran, zero rows".
var ErrInsufficientHistory = errors.New("insufficient history: series shorter than window_size + 1")

// Record is one evaluated day of the rolling backtest: both VaR
// thresholds, the realized PnL they were compared against, and the
// per-method breach indicators.
type Record struct {
	Date       time.Time `json:"date" db:"date"`
	VaRHist    float64   `json:"var_hist" db:"var_hist"`
	VaRMC      float64   `json:"var_mc" db:"var_mc"`
	PnLNextDay float64   `json:"pnl_next_day" db:"pnl_next_day"`
	BreachHist bool      `json:"breach_hist" db:"breach_hist"`
	BreachMC   bool      `json:"breach_mc" db:"breach_mc"`
}

// Table is the full ordered sequence of backtest records for one run.
// Append-only, built once, never mutated afterwards.
type Table []Record

// Breaches counts the breach column for the given method.
func (t Table) Breaches(method risk.Method) int {
	count := 0
	for _, rec := range t {
		switch method {
		case risk.MethodHistorical:
			if rec.BreachHist {
				count++
			}
		case risk.MethodMonteCarlo:
			if rec.BreachMC {
				count++
			}
		}
	}
	return count
}
