package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/medalline/enrich/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id           TEXT PRIMARY KEY,
	product_id   TEXT NOT NULL,
	product_type TEXT NOT NULL,
	success      INTEGER NOT NULL DEFAULT 0,
	result       TEXT,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_product_id ON runs(product_id);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// Migrate creates the schema if it does not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveRun persists one enrichment run.
func (s *SQLiteStore) SaveRun(ctx context.Context, productID, productType string, result *model.EnrichmentResult) (*RunRecord, error) {
	payload, err := json.Marshal(result)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal result")
	}

	rec := &RunRecord{
		ID:          uuid.NewString(),
		ProductID:   productID,
		ProductType: productType,
		Success:     result.Success,
		Result:      result,
		CreatedAt:   time.Now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, product_id, product_type, success, result, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ProductID, rec.ProductType, boolToInt(rec.Success), string(payload), rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}
	return rec, nil
}

// ListRuns returns the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, product_id, product_type, success, result, created_at FROM runs ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: query runs")
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var (
			rec     RunRecord
			success int
			payload sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.ProductID, &rec.ProductType, &success, &payload, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		rec.Success = success != 0
		if payload.Valid && payload.String != "" {
			var result model.EnrichmentResult
			if err := json.Unmarshal([]byte(payload.String), &result); err == nil {
				rec.Result = &result
			}
		}
		out = append(out, rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
