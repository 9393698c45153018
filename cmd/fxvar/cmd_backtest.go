package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/banrisk/fxvar/internal/backtest"
	"github.com/banrisk/fxvar/internal/series"
	"github.com/banrisk/fxvar/internal/snapshot"
	"github.com/banrisk/fxvar/internal/store"
)

func newBacktestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run the rolling VaR backtest over the snapshot",
		Long: `Load the rate snapshot, derive the PnL series at the configured
notional, run the rolling backtest with both estimators, score both
with the Kupiec POF test, and persist table + report + run history.`,
		RunE: runBacktest,
	}

	cmd.Flags().Int("workers", 0, "Parallel evaluation workers (0 = GOMAXPROCS)")
	return cmd
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}
	if workers, err := cmd.Flags().GetInt("workers"); err == nil && cmd.Flags().Changed("workers") {
		cfg.Workers = workers
	}

	rates, err := snapshot.LoadCSV(cfg.Data.RawCSV)
	if err != nil {
		return err
	}

	pnl, err := series.ToPnL(rates, cfg.VaR.Notional)
	if err != nil {
		return err
	}

	driver := backtest.NewDriver(&cfg.VaR)
	driver.SetWorkers(cfg.Workers)

	table, err := driver.Run(cmd.Context(), pnl)
	if err != nil {
		return err
	}

	summary, err := backtest.Summarize(table, cfg.VaR.ConfidenceLevel)
	if err != nil {
		return err
	}

	writer := backtest.NewWriter(cfg.Data.OutputDir)
	if err := writer.WriteTable(table); err != nil {
		return err
	}
	if err := writer.WriteReport(summary); err != nil {
		return err
	}

	db, err := store.Open(cfg.Data.ResultsDB)
	if err != nil {
		return err
	}
	defer db.Close()

	runID, err := db.SaveRun(cmd.Context(), cfg.VaR, table, summary)
	if err != nil {
		return err
	}

	log.Info().
		Str("run_id", runID).
		Int("rows", summary.Observations).
		Float64("expected_rate", summary.ExpectedRate).
		Float64("observed_hist", summary.Historical.ObservedRate).
		Float64("observed_mc", summary.MonteCarlo.ObservedRate).
		Float64("kupiec_p_hist", summary.Historical.PValue).
		Float64("kupiec_p_mc", summary.MonteCarlo.PValue).
		Str("artifacts", writer.OutputDir()).
		Msg("Backtest run complete")

	return nil
}
