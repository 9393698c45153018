package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/banrisk/fxvar/internal/risk"
	"github.com/banrisk/fxvar/internal/store"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the Kupiec summary for a persisted run",
		Long: `Render the breach-rate and Kupiec test summary for a stored backtest
run as a table. Defaults to the most recent run.`,
		RunE: runReport,
	}

	cmd.Flags().String("run", "", "Run ID (default: latest)")
	return cmd
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	db, err := store.Open(cfg.Data.ResultsDB)
	if err != nil {
		return err
	}
	defer db.Close()

	runID, _ := cmd.Flags().GetString("run")
	if runID == "" {
		runs, err := db.ListRuns(cmd.Context())
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			return fmt.Errorf("no stored runs in %s, run `fxvar backtest` first", cfg.Data.ResultsDB)
		}
		runID = runs[0].ID
	}

	run, err := db.LoadRun(cmd.Context(), runID)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s (%s)\n", run.ID, run.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Window %d | Confidence %.2f | %s sampling | %d simulations | seed %d\n\n",
		run.Config.WindowSize, run.Config.ConfidenceLevel,
		run.Config.SamplingModel, run.Config.SimulationCount, run.Config.RandomSeed)

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Method", "Obs", "Breaches", "Expected", "Observed", "LR", "p-value", "Verdict")
	for _, k := range []risk.KupiecResult{run.Summary.Historical, run.Summary.MonteCarlo} {
		table.Append(
			string(k.Method),
			fmt.Sprintf("%d", k.Observations),
			fmt.Sprintf("%d", k.Breaches),
			fmt.Sprintf("%.4f", k.ExpectedRate),
			fmt.Sprintf("%.4f", k.ObservedRate),
			fmt.Sprintf("%.4f", k.LRStatistic),
			fmt.Sprintf("%.4f", k.PValue),
			verdict(k.PValue),
		)
	}
	table.Render()

	return nil
}

func verdict(pValue float64) string {
	if pValue < 0.05 {
		return "REJECT"
	}
	return "PASS"
}
