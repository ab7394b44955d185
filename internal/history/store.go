// Package history records completed export runs in a small SQLite
// database so past exports can be listed from the CLI.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"luamaker/internal/config"
)

// Run is one recorded export.
type Run struct {
	ID           string
	AppID        uint32
	AppName      string
	Depots       int
	Skipped      int
	Copied       int
	CopyFailures int
	PluginMode   bool
	CreatedAt    time.Time
}

// Store persists export runs, backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	app_id        INTEGER NOT NULL,
	app_name      TEXT NOT NULL,
	depots        INTEGER NOT NULL,
	skipped       INTEGER NOT NULL,
	copied        INTEGER NOT NULL,
	copy_failures INTEGER NOT NULL,
	plugin_mode   INTEGER NOT NULL,
	created_at    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
`

// Open initializes or connects to the history database in the log dir.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "history.db")
	db, err := sql.Open("sqlite", dbPath)
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
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db, path: dbPath}, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts one run. A missing ID or timestamp is filled in.
func (s *Store) Record(ctx context.Context, run Run) error {
	if strings.TrimSpace(run.ID) == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	const query = `
INSERT INTO runs (id, app_id, app_name, depots, skipped, copied, copy_failures, plugin_mode, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query,
			run.ID, run.AppID, run.AppName,
			run.Depots, run.Skipped, run.Copied, run.CopyFailures,
			boolToInt(run.PluginMode), run.CreatedAt.Format(time.RFC3339Nano))
		return err
	})
}

// List returns the most recent runs, newest first. A limit of zero or
// less returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `
SELECT id, app_id, app_name, depots, skipped, copied, copy_failures, plugin_mode, created_at
FROM runs ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	var runs []Run
	err := retryOnBusy(ctx, func() error {
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		runs = runs[:0]
		for rows.Next() {
			var run Run
			var pluginMode int
			var createdAt string
			if err := rows.Scan(&run.ID, &run.AppID, &run.AppName,
				&run.Depots, &run.Skipped, &run.Copied, &run.CopyFailures,
				&pluginMode, &createdAt); err != nil {
				return err
			}
			run.PluginMode = pluginMode != 0
			if parsed, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
				run.CreatedAt = parsed
			}
			runs = append(runs, run)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return runs, nil
}

const (
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == 5 {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
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

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
