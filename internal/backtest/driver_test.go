package backtest

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/banrisk/fxvar/internal/risk"
	"github.com/banrisk/fxvar/internal/series"
)

func testConfig(window int) *risk.Config {
	cfg := risk.DefaultConfig()
	cfg.WindowSize = window
	cfg.SimulationCount = 500
	cfg.RandomSeed = 42
	return cfg
}

func syntheticPnL(seed uint64, n int, sigma float64) series.PnLSeries {
	rng := rand.New(rand.NewSource(seed))
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	pnl := make(series.PnLSeries, n)
	for i := range pnl {
		pnl[i] = series.PnLPoint{
			Date: start.AddDate(0, 0, i),
			PnL:  rng.NormFloat64() * sigma,
		}
	}
	return pnl
}

func TestDriver_WindowLengthBoundary(t *testing.T) {
	cfg := testConfig(5)

	// Exactly window_size+1 observations → exactly one record.
	table, err := NewDriver(cfg).Run(context.Background(), syntheticPnL(1, 6, 1000))
	require.NoError(t, err)
	assert.Len(t, table, 1)

	// Exactly window_size observations → empty table and a signal.
	table, err = NewDriver(cfg).Run(context.Background(), syntheticPnL(1, 5, 1000))
	assert.ErrorIs(t, err, ErrInsufficientHistory)
	assert.Empty(t, table)
}

func TestDriver_NoLookAhead(t *testing.T) {
	cfg := testConfig(5)
	pnl := syntheticPnL(2, 12, 1000)

	table, err := NewDriver(cfg).Run(context.Background(), pnl)
	require.NoError(t, err)
	require.Len(t, table, 7)

	// Record k evaluates day window+k: its realized PnL is that day's
	// observation, which sits strictly after the estimation window.
	for k, rec := range table {
		assert.Equal(t, pnl[cfg.WindowSize+k].Date, rec.Date)
		assert.Equal(t, pnl[cfg.WindowSize+k].PnL, rec.PnLNextDay)
	}
}

func TestDriver_BreachFlagsMatchThresholds(t *testing.T) {
	cfg := testConfig(10)
	pnl := syntheticPnL(3, 60, 1000)

	table, err := NewDriver(cfg).Run(context.Background(), pnl)
	require.NoError(t, err)

	for _, rec := range table {
		assert.Equal(t, rec.PnLNextDay < -rec.VaRHist, rec.BreachHist)
		assert.Equal(t, rec.PnLNextDay < -rec.VaRMC, rec.BreachMC)
	}
}

func TestDriver_ParallelMatchesSerial(t *testing.T) {
	cfg := testConfig(50)
	pnl := syntheticPnL(4, 400, 1000)

	serial := NewDriver(cfg)
	serial.SetWorkers(1)
	want, err := serial.Run(context.Background(), pnl)
	require.NoError(t, err)

	parallel := NewDriver(cfg)
	parallel.SetWorkers(8)
	got, err := parallel.Run(context.Background(), pnl)
	require.NoError(t, err)

	assert.Equal(t, want, got,
		"result ordering and values must be independent of worker count")
}

func TestDriver_RerunIsBitIdentical(t *testing.T) {
	cfg := testConfig(50)
	pnl := syntheticPnL(5, 300, 1000)

	first, err := NewDriver(cfg).Run(context.Background(), pnl)
	require.NoError(t, err)
	second, err := NewDriver(cfg).Run(context.Background(), pnl)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestDriver_BreachRateConverges(t *testing.T) {
	// i.i.d. Normal PnL: the historical-VaR breach rate should approach
	// 1-confidence. With ~1250 evaluations the binomial standard error
	// is ~0.0028, so a ±3 SE band is a safe deterministic bound for a
	// fixed generator seed.
	cfg := testConfig(250)
	pnl := syntheticPnL(6, 1500, 10_000)

	table, err := NewDriver(cfg).Run(context.Background(), pnl)
	require.NoError(t, err)
	require.Len(t, table, 1250)

	expected := 1 - cfg.ConfidenceLevel
	observed := float64(table.Breaches(risk.MethodHistorical)) / float64(len(table))
	standardError := math.Sqrt(expected * (1 - expected) / float64(len(table)))

	assert.InDelta(t, expected, observed, 3*standardError,
		"observed breach rate %.4f too far from expected %.4f", observed, expected)
}

func TestDriver_ContextCancellation(t *testing.T) {
	cfg := testConfig(250)
	pnl := syntheticPnL(7, 2000, 1000)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewDriver(cfg).Run(ctx, pnl)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSummarize_RoundTripBreachCounts(t *testing.T) {
	cfg := testConfig(100)
	pnl := syntheticPnL(8, 1200, 5000)

	table, err := NewDriver(cfg).Run(context.Background(), pnl)
	require.NoError(t, err)

	summary, err := Summarize(table, cfg.ConfidenceLevel)
	require.NoError(t, err)

	// Kupiec inputs must equal the sums of the table's breach columns.
	assert.Equal(t, table.Breaches(risk.MethodHistorical), summary.Historical.Breaches)
	assert.Equal(t, table.Breaches(risk.MethodMonteCarlo), summary.MonteCarlo.Breaches)
	assert.Equal(t, len(table), summary.Historical.Observations)
	assert.Equal(t, len(table), summary.MonteCarlo.Observations)
	assert.InDelta(t, 1-cfg.ConfidenceLevel, summary.ExpectedRate, 1e-12)
}

func TestSummarize_EmptyTable(t *testing.T) {
	_, err := Summarize(Table{}, 0.99)
	assert.ErrorIs(t, err, risk.ErrDegenerateSample)
}
