package backtest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Writer persists backtest artifacts (record table as JSONL, summary as
// a markdown report) under a date-stamped output directory.
type Writer struct {
	outputDir string
}

// NewWriter creates an artifact writer rooted at outputDir.
func NewWriter(outputDir string) *Writer {
	return &Writer{
		outputDir: filepath.Join(outputDir, time.Now().Format("2006-01-02")),
	}
}

// OutputDir returns the full output directory path.
func (w *Writer) OutputDir() string {
	return w.outputDir
}

// WriteTable writes each backtest record as one JSON line.
func (w *Writer) WriteTable(table Table) error {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.outputDir, "backtest.jsonl")
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create table file: %w", err)
	}
	defer file.Close()

	for _, rec := range table {
		line, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		if _, err := file.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	return nil
}

// WriteReport writes the summary as a markdown report.
func (w *Writer) WriteReport(summary *Summary) error {
	if err := os.MkdirAll(w.outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(w.outputDir, "report.md")
	if err := os.WriteFile(path, []byte(renderReport(summary)), 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func renderReport(s *Summary) string {
	var b strings.Builder

	b.WriteString("# VaR Backtest Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(&b, "- Observations: %d\n", s.Observations)
	fmt.Fprintf(&b, "- Expected breach rate: %.4f\n\n", s.ExpectedRate)

	b.WriteString("| Method | Breaches | Observed Rate | LR Statistic | p-value |\n")
	b.WriteString("|--------|----------|---------------|--------------|----------|\n")
	fmt.Fprintf(&b, "| %s | %d | %.4f | %.4f | %.4f |\n",
		s.Historical.Method, s.Historical.Breaches, s.Historical.ObservedRate,
		s.Historical.LRStatistic, s.Historical.PValue)
	fmt.Fprintf(&b, "| %s | %d | %.4f | %.4f | %.4f |\n",
		s.MonteCarlo.Method, s.MonteCarlo.Breaches, s.MonteCarlo.ObservedRate,
		s.MonteCarlo.LRStatistic, s.MonteCarlo.PValue)

	b.WriteString("\nA p-value below 0.05 rejects the hypothesis that the observed\n")
	b.WriteString("breach frequency matches the configured confidence level.\n")

	return b.String()
}
