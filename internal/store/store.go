// internal/store/store.go

// Package store persists evaluation runs so results can be compared across
// models and over time. SQLite (modernc) and Postgres (pgx) are supported.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite

	"github.com/mwiater/nutrieval/internal/appconfig"
	"github.com/mwiater/nutrieval/internal/evaluation"
)

// ErrDisabled is returned by Open when no driver is configured.
var ErrDisabled = errors.New("run history store is disabled")

// Store is the run-history database.
type Store struct {
	db     *sql.DB
	driver string
}

// RunSummary is one row of the run listing.
type RunSummary struct {
	RunID      string
	Host       string
	Model      string
	StartedAt  time.Time
	FinishedAt time.Time
	Prompts    int
	Failures   int
	Mean       float64
	Max        float64
	Min        float64
}

// ResultRow is one stored prompt result.
type ResultRow struct {
	RunID      string
	PromptID   string
	Category   string
	Earned     float64
	MaxPoints  float64
	Percentage float64
	DurationMs int64
	Failure    string
	Result     evaluation.PromptResult
}

// Open connects to the database and ensures the schema exists.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	var drvName string
	switch driver {
	case appconfig.StoreDriverNone:
		return nil, ErrDisabled
	case appconfig.StoreDriverSQLite:
		drvName = "sqlite"
	case appconfig.StoreDriverPostgres:
		drvName = "pgx"
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", driver)
	}
	if dsn == "" {
		return nil, fmt.Errorf("store: dsn is required for driver %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if driver == appconfig.StoreDriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	schema := schemaSQLite
	if driver == appconfig.StoreDriverPostgres {
		schema = schemaPostgres
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}
	return &Store{db: db, driver: driver}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// SaveReport stores a run and all its prompt results in one transaction.
func (s *Store) SaveReport(ctx context.Context, r evaluation.Report) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
INSERT INTO runs (id, host, model, started_at, finished_at, prompts, failures, mean_pct, max_pct, min_pct)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		r.RunID, r.Host, r.Model, r.StartedAt.UnixMilli(), r.FinishedAt.UnixMilli(),
		len(r.Results), r.Summary.Failures, r.Summary.Mean, r.Summary.Max, r.Summary.Min)
	if err != nil {
		return fmt.Errorf("store: insert run %s: %w", r.RunID, err)
	}

	for i, res := range r.Results {
		payload, mErr := json.Marshal(res)
		if mErr != nil {
			return fmt.Errorf("store: encode result %s: %w", res.PromptID, mErr)
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO results (run_id, seq, prompt_id, category, earned, max_points, percentage, duration_ms, failure, result_json)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			r.RunID, i, res.PromptID, res.Category.String(), res.Score.Earned, res.Score.Max,
			res.Score.Percentage, res.DurationMs, res.Failure, string(payload))
		if err != nil {
			return fmt.Errorf("store: insert result %s: %w", res.PromptID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs first. A model filter of "" lists
// every model.
func (s *Store) ListRuns(ctx context.Context, model string, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, host, model, started_at, finished_at, prompts, failures, mean_pct, max_pct, min_pct
FROM runs
WHERE ($1 = '' OR model = $1)
ORDER BY started_at DESC, id
LIMIT $2`, model, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			r               RunSummary
			started, finish int64
		)
		if err := rows.Scan(&r.RunID, &r.Host, &r.Model, &started, &finish, &r.Prompts, &r.Failures, &r.Mean, &r.Max, &r.Min); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		r.StartedAt = time.UnixMilli(started).UTC()
		r.FinishedAt = time.UnixMilli(finish).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

// RunResults returns the stored prompt results of one run in prompt order.
func (s *Store) RunResults(ctx context.Context, runID string) ([]ResultRow, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT run_id, prompt_id, category, earned, max_points, percentage, duration_ms, failure, result_json
FROM results
WHERE run_id = $1
ORDER BY seq`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: run results: %w", err)
	}
	defer rows.Close()

	var out []ResultRow
	for rows.Next() {
		var (
			r       ResultRow
			payload string
		)
		if err := rows.Scan(&r.RunID, &r.PromptID, &r.Category, &r.Earned, &r.MaxPoints, &r.Percentage, &r.DurationMs, &r.Failure, &payload); err != nil {
			return nil, fmt.Errorf("store: scan result: %w", err)
		}
		if err := json.Unmarshal([]byte(payload), &r.Result); err != nil {
			return nil, fmt.Errorf("store: decode result %s: %w", r.PromptID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  host TEXT NOT NULL,
  model TEXT NOT NULL,
  started_at INTEGER NOT NULL,
  finished_at INTEGER NOT NULL,
  prompts INTEGER NOT NULL,
  failures INTEGER NOT NULL DEFAULT 0,
  mean_pct REAL NOT NULL,
  max_pct REAL NOT NULL,
  min_pct REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
  run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  seq INTEGER NOT NULL,
  prompt_id TEXT NOT NULL,
  category TEXT NOT NULL,
  earned REAL NOT NULL,
  max_points REAL NOT NULL,
  percentage REAL NOT NULL,
  duration_ms INTEGER NOT NULL,
  failure TEXT NOT NULL DEFAULT '',
  result_json TEXT NOT NULL,
  PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS runs_model_started ON runs (model, started_at);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS runs (
  id TEXT PRIMARY KEY,
  host TEXT NOT NULL,
  model TEXT NOT NULL,
  started_at BIGINT NOT NULL,
  finished_at BIGINT NOT NULL,
  prompts INTEGER NOT NULL,
  failures INTEGER NOT NULL DEFAULT 0,
  mean_pct DOUBLE PRECISION NOT NULL,
  max_pct DOUBLE PRECISION NOT NULL,
  min_pct DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS results (
  run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
  seq INTEGER NOT NULL,
  prompt_id TEXT NOT NULL,
  category TEXT NOT NULL,
  earned DOUBLE PRECISION NOT NULL,
  max_points DOUBLE PRECISION NOT NULL,
  percentage DOUBLE PRECISION NOT NULL,
  duration_ms BIGINT NOT NULL,
  failure TEXT NOT NULL DEFAULT '',
  result_json TEXT NOT NULL,
  PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS runs_model_started ON runs (model, started_at);
`
