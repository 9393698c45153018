package main

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/banrisk/fxvar/internal/datasource/banguat"
	"github.com/banrisk/fxvar/internal/snapshot"
)

func newFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download USD/GTQ rates from Banguat and snapshot them",
		Long: `Fetch daily USD/GTQ reference rates from the Banguat TipoCambio SOAP
service, then write a strict (date, rate) CSV snapshot with a JSON
metadata sidecar (row count, date range, sha256).`,
		RunE: runFetch,
	}

	cmd.Flags().String("start", "1996-01-01", "Range start (YYYY-MM-DD)")
	cmd.Flags().String("end", time.Now().UTC().Format("2006-01-02"), "Range end (YYYY-MM-DD)")
	return cmd
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd)
	if err != nil {
		return err
	}

	startStr, _ := cmd.Flags().GetString("start")
	endStr, _ := cmd.Flags().GetString("end")

	start, err := time.Parse("2006-01-02", startStr)
	if err != nil {
		return fmt.Errorf("--start must be YYYY-MM-DD: %w", err)
	}
	end, err := time.Parse("2006-01-02", endStr)
	if err != nil {
		return fmt.Errorf("--end must be YYYY-MM-DD: %w", err)
	}

	client := banguat.NewClient(nil)
	rates, err := client.FetchRange(cmd.Context(), start, end)
	if err != nil {
		return err
	}

	if err := snapshot.WriteCSV(cfg.Data.RawCSV, rates); err != nil {
		return err
	}
	if err := snapshot.WriteMetadata(cfg.Data.RawCSV, banguat.DefaultEndpoint, rates, start, end); err != nil {
		return err
	}

	log.Info().
		Int("rows", len(rates)).
		Str("snapshot", cfg.Data.RawCSV).
		Str("requested_start", startStr).
		Str("requested_end", endStr).
		Msg("Snapshot written")

	return nil
}
