package series

import "fmt"

// ToPnL converts a rate series into a daily PnL series at the given
// notional using simple returns:
//
//	pnl[t] = notional * (rate[t]/rate[t-1] - 1)
//
// The output has one fewer observation than the input and carries the
// date of the later rate in each pair. Returns ErrInsufficientData when
// fewer than two rate observations are supplied.
func ToPnL(rates RateSeries, notional float64) (PnLSeries, error) {
	if len(rates) < 2 {
		return nil, fmt.Errorf("pnl transform: %w (got %d)", ErrInsufficientData, len(rates))
	}
	if notional <= 0 {
		return nil, fmt.Errorf("pnl transform: notional must be positive, got %.4f", notional)
	}

	pnl := make(PnLSeries, 0, len(rates)-1)
	for t := 1; t < len(rates); t++ {
		ret := rates[t].Rate/rates[t-1].Rate - 1
		pnl = append(pnl, PnLPoint{
			Date: rates[t].Date,
			PnL:  notional * ret,
		})
	}
	return pnl, nil
}
