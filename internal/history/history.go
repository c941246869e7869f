// Package history keeps a local sqlite index of emitted reports so
// past runs stay queryable after the per-run artifacts are gone.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"testbridge/internal/model"
)

// Store is the run-history index backed by modernc.org/sqlite.
type Store struct {
	db *sql.DB
}

// Entry is one recorded run.
type Entry struct {
	JobID           string
	Suite           string
	Status          model.Status
	Total           int
	Passed          int
	Failed          int
	Skipped         int
	Passrate        string
	DurationSeconds float64
	Fingerprint     string
	CreatedAt       time.Time
}

// Open opens (creating if needed) the history database.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
    job_id TEXT PRIMARY KEY,
    suite TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    total INTEGER NOT NULL DEFAULT 0,
    passed INTEGER NOT NULL DEFAULT 0,
    failed INTEGER NOT NULL DEFAULT 0,
    skipped INTEGER NOT NULL DEFAULT 0,
    passrate TEXT NOT NULL DEFAULT '0.00%',
    duration_seconds REAL NOT NULL DEFAULT 0,
    fingerprint TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Record upserts one emitted report into the index.
func (s *Store) Record(ctx context.Context, r *model.CanonicalReport, fingerprint string) error {
	_, err := s.db.ExecContext(ctx, `
INSERT OR REPLACE INTO runs
    (job_id, suite, status, total, passed, failed, skipped, passrate, duration_seconds, fingerprint, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.JobID, suiteOf(r), string(r.Status),
		r.Summary.Total, r.Summary.Passed, r.Summary.Failed, r.Summary.Skipped,
		r.Passrate, r.DurationSeconds, fingerprint,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.JobID, err)
	}
	return nil
}

// Recent returns the most recently recorded runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT job_id, suite, status, total, passed, failed, skipped, passrate, duration_seconds, fingerprint, created_at
FROM runs ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var status, createdAt string
		if err := rows.Scan(&e.JobID, &e.Suite, &status, &e.Total, &e.Passed, &e.Failed, &e.Skipped,
			&e.Passrate, &e.DurationSeconds, &e.Fingerprint, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		e.Status = model.Status(status)
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			e.CreatedAt = ts
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// suiteOf extracts the first suite grouping key of the report.
func suiteOf(r *model.CanonicalReport) string {
	for _, group := range r.TestCases {
		for name := range group {
			return name
		}
	}
	return ""
}
