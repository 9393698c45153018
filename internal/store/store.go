// Package store persists backtest runs in an embedded SQLite database
// so summaries can be compared across runs.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/banrisk/fxvar/internal/backtest"
	"github.com/banrisk/fxvar/internal/risk"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
    id          TEXT PRIMARY KEY,
    created_at  DATETIME NOT NULL,
    config_json TEXT     NOT NULL
);

CREATE TABLE IF NOT EXISTS backtest_records (
    run_id       TEXT    NOT NULL REFERENCES runs(id),
    date         DATE    NOT NULL,
    var_hist     REAL    NOT NULL,
    var_mc       REAL    NOT NULL,
    pnl_next_day REAL    NOT NULL,
    breach_hist  INTEGER NOT NULL,
    breach_mc    INTEGER NOT NULL,
    PRIMARY KEY (run_id, date)
);

CREATE TABLE IF NOT EXISTS kupiec_results (
    run_id         TEXT NOT NULL REFERENCES runs(id),
    method         TEXT NOT NULL,
    n_observations INTEGER NOT NULL,
    n_breaches     INTEGER NOT NULL,
    expected_rate  REAL NOT NULL,
    observed_rate  REAL NOT NULL,
    lr_statistic   REAL NOT NULL,
    p_value        REAL NOT NULL,
    PRIMARY KEY (run_id, method)
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
`

// Run bundles everything persisted for one backtest invocation.
type Run struct {
	ID        string
	CreatedAt time.Time
	Config    risk.Config
	Table     backtest.Table
	Summary   *backtest.Summary
}

// Store wraps the SQLite results database.
type Store struct {
	db *sqlx.DB
}

// Open opens (or creates) the results database and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // sqlite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun persists the run, its full backtest table, and both Kupiec
// results in one transaction. Returns the generated run ID.
func (s *Store) SaveRun(ctx context.Context, cfg risk.Config, table backtest.Table, summary *backtest.Summary) (string, error) {
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("store: marshal config: %w", err)
	}

	runID := uuid.NewString()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, config_json) VALUES (?, ?, ?)`,
		runID, time.Now().UTC(), string(cfgJSON),
	); err != nil {
		return "", fmt.Errorf("store: insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO backtest_records (run_id, date, var_hist, var_mc, pnl_next_day, breach_hist, breach_mc)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("store: prepare records: %w", err)
	}
	defer stmt.Close()

	for _, rec := range table {
		if _, err := stmt.ExecContext(ctx,
			runID, rec.Date.Format("2006-01-02"), rec.VaRHist, rec.VaRMC,
			rec.PnLNextDay, rec.BreachHist, rec.BreachMC,
		); err != nil {
			return "", fmt.Errorf("store: insert record %s: %w", rec.Date.Format("2006-01-02"), err)
		}
	}

	for _, k := range []risk.KupiecResult{summary.Historical, summary.MonteCarlo} {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kupiec_results (run_id, method, n_observations, n_breaches, expected_rate, observed_rate, lr_statistic, p_value)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, string(k.Method), k.Observations, k.Breaches,
			k.ExpectedRate, k.ObservedRate, k.LRStatistic, k.PValue,
		); err != nil {
			return "", fmt.Errorf("store: insert kupiec %s: %w", k.Method, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("store: commit: %w", err)
	}
	return runID, nil
}

// LoadRun reads a persisted run back, including its table and summary.
func (s *Store) LoadRun(ctx context.Context, runID string) (*Run, error) {
	var header struct {
		ID         string    `db:"id"`
		CreatedAt  time.Time `db:"created_at"`
		ConfigJSON string    `db:"config_json"`
	}
	if err := s.db.GetContext(ctx, &header,
		`SELECT id, created_at, config_json FROM runs WHERE id = ?`, runID); err != nil {
		return nil, fmt.Errorf("store: load run %s: %w", runID, err)
	}

	run := &Run{ID: header.ID, CreatedAt: header.CreatedAt}
	if err := json.Unmarshal([]byte(header.ConfigJSON), &run.Config); err != nil {
		return nil, fmt.Errorf("store: unmarshal config for %s: %w", runID, err)
	}

	// The date column is declared DATE, so the driver hands back
	// time.Time values; scan them directly.
	var rows []struct {
		Date       time.Time `db:"date"`
		VaRHist    float64   `db:"var_hist"`
		VaRMC      float64   `db:"var_mc"`
		PnLNextDay float64   `db:"pnl_next_day"`
		BreachHist bool      `db:"breach_hist"`
		BreachMC   bool      `db:"breach_mc"`
	}
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT date, var_hist, var_mc, pnl_next_day, breach_hist, breach_mc
		 FROM backtest_records WHERE run_id = ? ORDER BY date`, runID); err != nil {
		return nil, fmt.Errorf("store: load records for %s: %w", runID, err)
	}

	run.Table = make(backtest.Table, 0, len(rows))
	for _, r := range rows {
		run.Table = append(run.Table, backtest.Record{
			Date:       r.Date,
			VaRHist:    r.VaRHist,
			VaRMC:      r.VaRMC,
			PnLNextDay: r.PnLNextDay,
			BreachHist: r.BreachHist,
			BreachMC:   r.BreachMC,
		})
	}

	summary, err := s.loadSummary(ctx, runID, len(run.Table))
	if err != nil {
		return nil, err
	}
	run.Summary = summary
	return run, nil
}

// ListRuns returns run IDs and creation times, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	var rows []struct {
		ID        string    `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT id, created_at FROM runs ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}

	runs := make([]Run, 0, len(rows))
	for _, r := range rows {
		runs = append(runs, Run{ID: r.ID, CreatedAt: r.CreatedAt})
	}
	return runs, nil
}

func (s *Store) loadSummary(ctx context.Context, runID string, observations int) (*backtest.Summary, error) {
	var rows []struct {
		Method       string  `db:"method"`
		Observations int     `db:"n_observations"`
		Breaches     int     `db:"n_breaches"`
		ExpectedRate float64 `db:"expected_rate"`
		ObservedRate float64 `db:"observed_rate"`
		LRStatistic  float64 `db:"lr_statistic"`
		PValue       float64 `db:"p_value"`
	}
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT method, n_observations, n_breaches, expected_rate, observed_rate, lr_statistic, p_value
		 FROM kupiec_results WHERE run_id = ?`, runID); err != nil {
		return nil, fmt.Errorf("store: load kupiec for %s: %w", runID, err)
	}

	summary := &backtest.Summary{Observations: observations}
	for _, r := range rows {
		result := risk.KupiecResult{
			Method:       risk.Method(r.Method),
			Observations: r.Observations,
			Breaches:     r.Breaches,
			ExpectedRate: r.ExpectedRate,
			ObservedRate: r.ObservedRate,
			LRStatistic:  r.LRStatistic,
			PValue:       r.PValue,
		}
		summary.ExpectedRate = r.ExpectedRate
		switch result.Method {
		case risk.MethodHistorical:
			summary.Historical = result
		case risk.MethodMonteCarlo:
			summary.MonteCarlo = result
		}
	}
	return summary, nil
}
