package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bkyoung/doc-analyzer/internal/store"
	_ "github.com/mattn/go-sqlite3"
)

// Store implements the store.Store interface using SQLite.
type Store struct {
	db *sql.DB
}

// NewStore creates a new SQLite store at the given path.
// Use ":memory:" for in-memory database (useful for testing).
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Store{db: db}

	if err := s.createSchema(); err != nil {
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return s, nil
}

// createSchema creates all tables and indexes if they don't exist.
func (s *Store) createSchema() error {
	schema := `
	-- Stores metadata about each analysis run
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		tool TEXT NOT NULL,
		model TEXT NOT NULL,
		document TEXT NOT NULL,
		tokens_used INTEGER DEFAULT 0,
		request_count INTEGER DEFAULT 0
	);

	-- Individual backend invocations with token breakdown
	CREATE TABLE IF NOT EXISTS invocations (
		invocation_id TEXT PRIMARY KEY,
		run_id TEXT NOT NULL,
		attempts INTEGER NOT NULL,
		input_tokens INTEGER NOT NULL,
		cache_creation_input_tokens INTEGER NOT NULL,
		cache_read_input_tokens INTEGER NOT NULL,
		output_tokens INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);

	-- Indexes for performance
	CREATE INDEX IF NOT EXISTS idx_invocations_run ON invocations(run_id);
	CREATE INDEX IF NOT EXISTS idx_runs_timestamp ON runs(timestamp DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateRun stores a new analysis run.
func (s *Store) CreateRun(ctx context.Context, run store.Run) error {
	query := `
		INSERT INTO runs (run_id, timestamp, tool, model, document, tokens_used, request_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		run.RunID,
		run.Timestamp.Unix(),
		run.Tool,
		run.Model,
		run.Document,
		run.TokensUsed,
		run.RequestCount,
	)

	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	return nil
}

// UpdateRunUsage adds token and request counts to a run's totals.
func (s *Store) UpdateRunUsage(ctx context.Context, runID string, tokensUsed, requestCount int) error {
	query := `
		UPDATE runs
		SET tokens_used = tokens_used + ?, request_count = request_count + ?
		WHERE run_id = ?
	`

	result, err := s.db.ExecContext(ctx, query, tokensUsed, requestCount, runID)
	if err != nil {
		return fmt.Errorf("failed to update run usage: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}

	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(ctx context.Context, runID string) (store.Run, error) {
	query := `
		SELECT run_id, timestamp, tool, model, document, tokens_used, request_count
		FROM runs
		WHERE run_id = ?
	`

	var run store.Run
	var timestamp int64

	err := s.db.QueryRowContext(ctx, query, runID).Scan(
		&run.RunID,
		&timestamp,
		&run.Tool,
		&run.Model,
		&run.Document,
		&run.TokensUsed,
		&run.RequestCount,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return store.Run{}, fmt.Errorf("run not found: %s", runID)
		}
		return store.Run{}, fmt.Errorf("failed to get run: %w", err)
	}

	run.Timestamp = time.Unix(timestamp, 0)
	return run, nil
}

// ListRuns retrieves the most recent runs, limited by the given count.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]store.Run, error) {
	query := `
		SELECT run_id, timestamp, tool, model, document, tokens_used, request_count
		FROM runs
		ORDER BY timestamp DESC
		LIMIT ?
	`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []store.Run
	for rows.Next() {
		var run store.Run
		var timestamp int64

		if err := rows.Scan(
			&run.RunID,
			&timestamp,
			&run.Tool,
			&run.Model,
			&run.Document,
			&run.TokensUsed,
			&run.RequestCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.Timestamp = time.Unix(timestamp, 0)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}

// RecordInvocation stores one invocation outcome.
func (s *Store) RecordInvocation(ctx context.Context, inv store.InvocationRecord) error {
	query := `
		INSERT INTO invocations (invocation_id, run_id, attempts, input_tokens, cache_creation_input_tokens, cache_read_input_tokens, output_tokens, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		inv.InvocationID,
		inv.RunID,
		inv.Attempts,
		inv.Usage.InputTokens,
		inv.Usage.CacheCreationInputTokens,
		inv.Usage.CacheReadInputTokens,
		inv.Usage.OutputTokens,
		inv.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to record invocation: %w", err)
	}

	return nil
}

// GetInvocationsByRun retrieves all invocations for a given run.
func (s *Store) GetInvocationsByRun(ctx context.Context, runID string) ([]store.InvocationRecord, error) {
	query := `
		SELECT invocation_id, run_id, attempts, input_tokens, cache_creation_input_tokens, cache_read_input_tokens, output_tokens, created_at
		FROM invocations
		WHERE run_id = ?
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get invocations by run: %w", err)
	}
	defer rows.Close()

	var invs []store.InvocationRecord
	for rows.Next() {
		var inv store.InvocationRecord
		var createdAt int64

		if err := rows.Scan(
			&inv.InvocationID,
			&inv.RunID,
			&inv.Attempts,
			&inv.Usage.InputTokens,
			&inv.Usage.CacheCreationInputTokens,
			&inv.Usage.CacheReadInputTokens,
			&inv.Usage.OutputTokens,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan invocation: %w", err)
		}

		inv.CreatedAt = time.Unix(createdAt, 0)
		invs = append(invs, inv)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating invocations: %w", err)
	}

	return invs, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
