package series

import (
	"errors"
	"fmt"
	"time"
)

// ErrInsufficientData indicates the rate series is too short to derive
// even a single PnL observation.
var ErrInsufficientData = errors.New("insufficient data: need at least 2 rate observations")

// RatePoint is a single daily FX rate observation.
type RatePoint struct {
	Date time.Time `json:"date"`
	Rate float64   `json:"rate"`
}

// PnLPoint is a single daily profit-and-loss observation derived from
// consecutive rates at a fixed notional.
type PnLPoint struct {
	Date time.Time `json:"date"`
	PnL  float64   `json:"pnl"`
}

// RateSeries is a chronologically ordered sequence of rate observations.
// Construct through NewRateSeries so the ordering and positivity
// invariants hold for every downstream consumer.
type RateSeries []RatePoint

// PnLSeries is a chronologically ordered sequence of PnL observations,
// one fewer than the rate series it was derived from.
type PnLSeries []PnLPoint

// NewRateSeries validates and wraps raw rate points. Dates must be
// strictly increasing and every rate must be positive; upstream cleaning
// (dedupe, NaN drop) is assumed done before this point.
func NewRateSeries(points []RatePoint) (RateSeries, error) {
	for i, p := range points {
		if p.Rate <= 0 {
			return nil, fmt.Errorf("rate series: non-positive rate %.6f at %s",
				p.Rate, p.Date.Format("2006-01-02"))
		}
		if i > 0 && !points[i-1].Date.Before(p.Date) {
			return nil, fmt.Errorf("rate series: dates not strictly increasing at index %d (%s >= %s)",
				i, points[i-1].Date.Format("2006-01-02"), p.Date.Format("2006-01-02"))
		}
	}
	return RateSeries(points), nil
}

// Values extracts the PnL column in series order.
func (s PnLSeries) Values() []float64 {
	out := make([]float64, len(s))
	for i, p := range s {
		out[i] = p.PnL
	}
	return out
}

// Dates extracts the date column in series order.
func (s PnLSeries) Dates() []time.Time {
	out := make([]time.Time, len(s))
	for i, p := range s {
		out[i] = p.Date
	}
	return out
}
