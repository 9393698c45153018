// Package snapshot persists rate series as strict-schema CSV snapshots
// with a JSON metadata sidecar for provenance.
package snapshot

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/banrisk/fxvar/internal/series"
)

// csv header is fixed: exactly these two columns, in this order.
var header = []string{"date", "rate"}

// WriteCSV writes the rate series to path with the strict (date, rate)
// schema, creating parent directories as needed.
func WriteCSV(path string, rates series.RateSeries) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("snapshot: create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("snapshot: write header: %w", err)
	}
	for _, p := range rates {
		row := []string{
			p.Date.Format("2006-01-02"),
			strconv.FormatFloat(p.Rate, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("snapshot: write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("snapshot: flush: %w", err)
	}
	return nil
}

// LoadCSV reads a snapshot back, enforcing the strict schema and the
// rate-series invariants (sorted unique dates, positive rates).
func LoadCSV(path string) (series.RateSeries, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s (expected strict columns date, rate): %w", path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("snapshot: %s is empty, expected header date, rate", path)
	}
	if len(rows[0]) != 2 || rows[0][0] != "date" || rows[0][1] != "rate" {
		return nil, fmt.Errorf("snapshot: %s has wrong schema %v, columns must be exactly: date, rate",
			path, rows[0])
	}

	points := make([]series.RatePoint, 0, len(rows)-1)
	for i, row := range rows[1:] {
		date, err := time.Parse("2006-01-02", row[0])
		if err != nil {
			return nil, fmt.Errorf("snapshot: %s line %d: bad date %q: %w", path, i+2, row[0], err)
		}
		value, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("snapshot: %s line %d: bad rate %q: %w", path, i+2, row[1], err)
		}
		points = append(points, series.RatePoint{Date: date, Rate: value})
	}

	rates, err := series.NewRateSeries(points)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %s: %w", path, err)
	}
	return rates, nil
}
