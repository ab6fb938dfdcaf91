// Package runlog persists run summaries in a local SQLite database so
// `favsync history` can show what past runs did. Reconciliation never reads
// this store; correctness depends only on the remote catalog and the sync
// root.
package runlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"favsync/internal/mirror"
)

// Store manages run-history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	keep int
}

// Record is one persisted run summary.
type Record struct {
	RunID     string
	Started   time.Time
	Finished  time.Time
	Remote    int
	Created   int
	Deleted   int
	Unchanged int
	Failed    int
	Failures  []mirror.Failure
	DryRun    bool
	Converged bool
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id    TEXT PRIMARY KEY,
	started   TEXT NOT NULL,
	finished  TEXT NOT NULL,
	remote    INTEGER NOT NULL,
	created   INTEGER NOT NULL,
	deleted   INTEGER NOT NULL,
	unchanged INTEGER NOT NULL,
	failed    INTEGER NOT NULL,
	failures  TEXT NOT NULL DEFAULT '[]',
	dry_run   INTEGER NOT NULL DEFAULT 0,
	converged INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started);
`

// Open initializes or connects to the history database.
func Open(path string, keep int) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Store{db: db, path: path, keep: keep}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record persists one run summary and trims history beyond the retention
// count.
func (s *Store) Record(ctx context.Context, summary *mirror.Summary) error {
	failures, err := json.Marshal(summary.Failures)
	if err != nil {
		return fmt.Errorf("marshal failures: %w", err)
	}
	err = s.execWithRetry(ctx,
		`INSERT OR REPLACE INTO runs
		 (run_id, started, finished, remote, created, deleted, unchanged, failed, failures, dry_run, converged)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID,
		summary.Started.UTC().Format(time.RFC3339Nano),
		summary.Finished.UTC().Format(time.RFC3339Nano),
		summary.Remote,
		summary.Created,
		summary.Deleted,
		summary.Unchanged,
		summary.Failed(),
		string(failures),
		boolToInt(summary.DryRun),
		boolToInt(summary.Converged),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", summary.RunID, err)
	}
	return s.trim(ctx)
}

// Recent returns up to limit run records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT run_id, started, finished, remote, created, deleted, unchanged, failed, failures, dry_run, converged
		 FROM runs ORDER BY started DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var started, finished, failures string
		var dryRun, converged int
		if err := rows.Scan(&rec.RunID, &started, &finished, &rec.Remote, &rec.Created,
			&rec.Deleted, &rec.Unchanged, &rec.Failed, &failures, &dryRun, &converged); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		rec.Started, _ = time.Parse(time.RFC3339Nano, started)
		rec.Finished, _ = time.Parse(time.RFC3339Nano, finished)
		rec.DryRun = dryRun != 0
		rec.Converged = converged != 0
		if err := json.Unmarshal([]byte(failures), &rec.Failures); err != nil {
			rec.Failures = nil
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *Store) trim(ctx context.Context) error {
	if s.keep <= 0 {
		return nil
	}
	return s.execWithRetry(ctx,
		`DELETE FROM runs WHERE run_id NOT IN
		 (SELECT run_id FROM runs ORDER BY started DESC LIMIT ?)`, s.keep)
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		_, lastErr = s.db.ExecContext(ctx, query, args...)
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
