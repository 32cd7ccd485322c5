// Package history keeps an append-only journal of sync runs in a
// project-scoped sqlite database. Recording is best-effort: a journal
// failure never fails the sync it describes.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sync_runs (
	id          TEXT PRIMARY KEY,
	import_name TEXT NOT NULL,
	source      TEXT NOT NULL,
	started_at  TIMESTAMP NOT NULL,
	finished_at TIMESTAMP NOT NULL,
	success     INTEGER NOT NULL,
	added       INTEGER NOT NULL,
	updated     INTEGER NOT NULL,
	skipped     INTEGER NOT NULL,
	error       TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_sync_runs_import ON sync_runs(import_name, started_at);
`

// Run is one recorded sync attempt.
type Run struct {
	ID         string    `json:"id"`
	ImportName string    `json:"import_name"`
	Source     string    `json:"source"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Success    bool      `json:"success"`
	Added      int       `json:"added"`
	Updated    int       `json:"updated"`
	Skipped    int       `json:"skipped"`
	Error      string    `json:"error,omitempty"`
}

// Journal is a handle on the project's sync history database.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal at path.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error { return j.db.Close() }

// Record appends one run, assigning an ID when the caller left it empty.
func (j *Journal) Record(run Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	_, err := j.db.Exec(
		`INSERT INTO sync_runs (id, import_name, source, started_at, finished_at, success, added, updated, skipped, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.ImportName, run.Source, run.StartedAt.UTC(), run.FinishedAt.UTC(),
		boolToInt(run.Success), run.Added, run.Updated, run.Skipped, run.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record sync run: %w", err)
	}
	return nil
}

// List returns runs newest-first, optionally filtered by import name.
// limit <= 0 means no limit.
func (j *Journal) List(importName string, limit int) ([]Run, error) {
	query := `SELECT id, import_name, source, started_at, finished_at, success, added, updated, skipped, error
	          FROM sync_runs`
	var args []any
	if importName != "" {
		query += ` WHERE import_name = ?`
		args = append(args, importName)
	}
	query += ` ORDER BY started_at DESC, id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		var success int
		if err := rows.Scan(&r.ID, &r.ImportName, &r.Source, &r.StartedAt, &r.FinishedAt,
			&success, &r.Added, &r.Updated, &r.Skipped, &r.Error); err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		r.Success = success != 0
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sync runs: %w", err)
	}
	return runs, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
