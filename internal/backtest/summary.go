package backtest

import (
	"fmt"

	"github.com/banrisk/fxvar/internal/risk"
)

// Summary aggregates per-method breach rates and Kupiec test results
// into a single report-ready structure.
type Summary struct {
	Observations int               `json:"n_observations"`
	ExpectedRate float64           `json:"expected_rate"`
	Historical   risk.KupiecResult `json:"historical"`
	MonteCarlo   risk.KupiecResult `json:"monte_carlo"`
}

// Summarize runs the Kupiec POF test per method over the table's breach
// columns. Breach counts come straight from summing the booleans the
// driver recorded, so method attribution cannot drift between the table
// and the test.
func Summarize(table Table, confidenceLevel float64) (*Summary, error) {
	expected := 1 - confidenceLevel

	hist, err := risk.Kupiec(risk.MethodHistorical, len(table), table.Breaches(risk.MethodHistorical), expected)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}
	mc, err := risk.Kupiec(risk.MethodMonteCarlo, len(table), table.Breaches(risk.MethodMonteCarlo), expected)
	if err != nil {
		return nil, fmt.Errorf("summarize: %w", err)
	}

	return &Summary{
		Observations: len(table),
		ExpectedRate: expected,
		Historical:   hist,
		MonteCarlo:   mc,
	}, nil
}
