package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/banrisk/fxvar/internal/config"
)

const (
	appName = "fxvar"
	version = "v1.1.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "USD/GTQ Value-at-Risk estimation and backtesting",
		Version: version,
		Long: `fxvar estimates 1-day Value-at-Risk for the USD/GTQ exchange rate with
two independent estimators (historical quantile, Monte Carlo simulation),
backtests both with a rolling no-look-ahead loop, and validates calibration
with the Kupiec proportion-of-failures test.`,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to YAML run configuration (optional)")

	rootCmd.AddCommand(newFetchCmd())
	rootCmd.AddCommand(newBacktestCmd())
	rootCmd.AddCommand(newReportCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

// loadRunConfig resolves the effective run configuration: the file named
// by --config when given, built-in defaults otherwise.
func loadRunConfig(cmd *cobra.Command) (*config.RunConfig, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}
