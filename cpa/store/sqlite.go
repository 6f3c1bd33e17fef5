package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists results in a single-file SQLite database, using WAL
// mode for concurrent reads. Suitable for a local analysis tool tracking
// result history across system-description edits.
type SQLiteStore struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// NewSQLiteStore opens (and migrates) a SQLite-backed store at path. Use
// ":memory:" for a process-local database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite connection: %w", err)
	}
	db.SetMaxOpenConns(1)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.createTables(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) createTables(ctx context.Context) error {
	const runsTable = `
		CREATE TABLE IF NOT EXISTS analysis_runs (
			run_id TEXT PRIMARY KEY,
			results TEXT NOT NULL
		)
	`
	const checkpointsTable = `
		CREATE TABLE IF NOT EXISTS analysis_checkpoints (
			run_id TEXT NOT NULL,
			label TEXT NOT NULL,
			results TEXT NOT NULL,
			PRIMARY KEY (run_id, label)
		)
	`
	if _, err := s.db.ExecContext(ctx, runsTable); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, checkpointsTable)
	return err
}

func (s *SQLiteStore) SaveRun(ctx context.Context, runID string, results map[string]Snapshot) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analysis_runs (run_id, results) VALUES (?, ?)
		 ON CONFLICT(run_id) DO UPDATE SET results = excluded.results`,
		runID, data)
	return err
}

func (s *SQLiteStore) LoadPriorResults(ctx context.Context, runID string) (map[string]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT results FROM analysis_runs WHERE run_id = ?`, runID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var results map[string]Snapshot
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		return nil, fmt.Errorf("unmarshal results: %w", err)
	}
	return results, nil
}

func (s *SQLiteStore) SaveCheckpoint(ctx context.Context, runID, label string, results map[string]Snapshot) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analysis_checkpoints (run_id, label, results) VALUES (?, ?, ?)
		 ON CONFLICT(run_id, label) DO UPDATE SET results = excluded.results`,
		runID, label, data)
	return err
}

func (s *SQLiteStore) LoadCheckpoint(ctx context.Context, runID, label string) (map[string]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT results FROM analysis_checkpoints WHERE run_id = ? AND label = ?`, runID, label).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var results map[string]Snapshot
	if err := json.Unmarshal([]byte(data), &results); err != nil {
		return nil, fmt.Errorf("unmarshal results: %w", err)
	}
	return results, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
