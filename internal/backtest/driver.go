package backtest

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/banrisk/fxvar/internal/risk"
	"github.com/banrisk/fxvar/internal/series"
)

// Driver runs the rolling no-look-ahead backtest: for every evaluation
// day it feeds the trailing window to both estimators and compares each
// threshold against that day's realized PnL.
//
// Evaluation days are independent given their window slice, so the loop
// shards across workers. Each day derives its own RNG seed from the run
// seed and its index, which makes output ordering and values identical
// regardless of worker count.
type Driver struct {
	cfg        *risk.Config
	historical risk.Estimator
	monteCarlo risk.Estimator
	workers    int
}

// NewDriver creates a backtest driver with both standard estimators.
func NewDriver(cfg *risk.Config) *Driver {
	if cfg == nil {
		cfg = risk.DefaultConfig()
	}
	return &Driver{
		cfg:        cfg,
		historical: risk.NewHistorical(cfg),
		monteCarlo: risk.NewMonteCarlo(cfg),
		workers:    1,
	}
}

// SetWorkers sets the degree of parallelism across evaluation days.
// n <= 0 selects GOMAXPROCS.
func (d *Driver) SetWorkers(n int) {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	d.workers = n
}

// Run evaluates every day j in [window_size, len(pnl)-1]: the window is
// pnl[j-window_size : j] (strictly before j), the realized PnL is
// pnl[j], and a breach per method means pnl[j] < -var. A series of
// exactly window_size+1 observations yields one record; anything
// shorter yields an empty table and ErrInsufficientHistory.
func (d *Driver) Run(ctx context.Context, pnl series.PnLSeries) (Table, error) {
	window := d.cfg.WindowSize
	if len(pnl) < window+1 {
		return Table{}, fmt.Errorf("backtest driver: %w (series length %d, window %d)",
			ErrInsufficientHistory, len(pnl), window)
	}

	values := pnl.Values()
	rows := len(pnl) - window
	table := make(Table, rows)

	log.Debug().
		Int("rows", rows).
		Int("window", window).
		Int("workers", d.workers).
		Str("sampling_model", string(d.cfg.SamplingModel)).
		Msg("Starting rolling backtest")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	evaluate := func(k int) error {
		j := window + k
		slice := values[j-window : j]
		date := pnl[j].Date

		varHist, err := d.historical.Estimate(slice, j)
		if err != nil {
			return fmt.Errorf("day %s: %w", date.Format("2006-01-02"), err)
		}
		varMC, err := d.monteCarlo.Estimate(slice, j)
		if err != nil {
			return fmt.Errorf("day %s: %w", date.Format("2006-01-02"), err)
		}

		hist := risk.Estimate{AsOf: date, Threshold: varHist, Method: d.historical.Method()}
		mc := risk.Estimate{AsOf: date, Threshold: varMC, Method: d.monteCarlo.Method()}

		realized := values[j]
		table[k] = Record{
			Date:       date,
			VaRHist:    hist.Threshold,
			VaRMC:      mc.Threshold,
			PnLNextDay: realized,
			BreachHist: hist.Breached(realized),
			BreachMC:   mc.Breached(realized),
		}
		return nil
	}

	workers := d.workers
	if workers > rows {
		workers = rows
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(shard int) {
			defer wg.Done()
			for k := shard; k < rows; k += workers {
				select {
				case <-ctx.Done():
					mu.Lock()
					if firstErr == nil {
						firstErr = ctx.Err()
					}
					mu.Unlock()
					return
				default:
				}
				if err := evaluate(k); err != nil {
					mu.Lock()
					if firstErr == nil {
						firstErr = err
					}
					mu.Unlock()
					return
				}
			}
		}(w)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, fmt.Errorf("backtest driver: %w", firstErr)
	}

	log.Info().
		Int("rows", rows).
		Int("breaches_hist", table.Breaches(risk.MethodHistorical)).
		Int("breaches_mc", table.Breaches(risk.MethodMonteCarlo)).
		Str("first", table[0].Date.Format("2006-01-02")).
		Str("last", table[rows-1].Date.Format("2006-01-02")).
		Msg("Rolling backtest complete")

	return table, nil
}
