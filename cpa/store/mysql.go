package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore persists results in a shared MySQL database, for analysis
// services that re-run on a schedule across multiple hosts.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens a MySQL-backed store using dsn (see
// github.com/go-sql-driver/mysql's DSN format) and migrates its tables.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql connection: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return s, nil
}

func (s *MySQLStore) createTables(ctx context.Context) error {
	const runsTable = `
		CREATE TABLE IF NOT EXISTS analysis_runs (
			run_id VARCHAR(255) PRIMARY KEY,
			results JSON NOT NULL
		)
	`
	const checkpointsTable = `
		CREATE TABLE IF NOT EXISTS analysis_checkpoints (
			run_id VARCHAR(255) NOT NULL,
			label VARCHAR(255) NOT NULL,
			results JSON NOT NULL,
			PRIMARY KEY (run_id, label)
		)
	`
	if _, err := s.db.ExecContext(ctx, runsTable); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, checkpointsTable)
	return err
}

func (s *MySQLStore) SaveRun(ctx context.Context, runID string, results map[string]Snapshot) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analysis_runs (run_id, results) VALUES (?, ?)
		 ON DUPLICATE KEY UPDATE results = VALUES(results)`,
		runID, data)
	return err
}

func (s *MySQLStore) LoadPriorResults(ctx context.Context, runID string) (map[string]Snapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT results FROM analysis_runs WHERE run_id = ?`, runID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var results map[string]Snapshot
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("unmarshal results: %w", err)
	}
	return results, nil
}

func (s *MySQLStore) SaveCheckpoint(ctx context.Context, runID, label string, results map[string]Snapshot) error {
	data, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO analysis_checkpoints (run_id, label, results) VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE results = VALUES(results)`,
		runID, label, data)
	return err
}

func (s *MySQLStore) LoadCheckpoint(ctx context.Context, runID, label string) (map[string]Snapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT results FROM analysis_checkpoints WHERE run_id = ? AND label = ?`, runID, label).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var results map[string]Snapshot
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("unmarshal results: %w", err)
	}
	return results, nil
}

// Close closes the underlying database connection.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
