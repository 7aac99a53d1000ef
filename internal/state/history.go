package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Status constants for recorded runs.
const (
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Run modes.
const (
	ModeContainer = "container"
	ModeNative    = "native"
)

// Run is one recorded invocation.
type Run struct {
	ID         int64
	Mode       string
	Status     string
	StartedAt  time.Time
	FinishedAt time.Time
	Docs       int64
	Error      string
}

// Store records run history in a sqlite database.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the history database path under an output directory.
func DefaultPath(outputDir string) string {
	return filepath.Join(outputDir, ".osextract", "history.db")
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	mode        TEXT NOT NULL,
	status      TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	finished_at TEXT,
	docs        INTEGER NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT ''
);`

// Open opens (creating if necessary) the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Begin records a new in-progress run and returns its id.
func (s *Store) Begin(mode string) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO runs (mode, status, started_at) VALUES (?, ?, ?)`,
		mode, StatusInProgress, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("record run start: %w", err)
	}
	return res.LastInsertId()
}

// Complete marks a run as completed with its document count.
func (s *Store) Complete(id, docs int64) error {
	return s.finish(id, StatusCompleted, docs, "")
}

// Fail marks a run as failed with its error text.
func (s *Store) Fail(id int64, errMsg string) error {
	return s.finish(id, StatusFailed, 0, errMsg)
}

func (s *Store) finish(id int64, status string, docs int64, errMsg string) error {
	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, finished_at = ?, docs = ?, error = ? WHERE id = ?`,
		status, time.Now().UTC().Format(time.RFC3339), docs, errMsg, id,
	)
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (s *Store) Recent(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT id, mode, status, started_at, COALESCE(finished_at, ''), docs, error
		 FROM runs ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			r                 Run
			started, finished string
		)
		if err := rows.Scan(&r.ID, &r.Mode, &r.Status, &started, &finished, &r.Docs, &r.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339, started)
		if finished != "" {
			r.FinishedAt, _ = time.Parse(time.RFC3339, finished)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
