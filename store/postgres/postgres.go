// Package postgres implements store.SessionStore on PostgreSQL.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yuga-i2/DOCUFORGE-AI/store"
)

// DBPool defines the interface for the database connection pool.
type DBPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresSessionStore implements store.SessionStore using PostgreSQL.
type PostgresSessionStore struct {
	pool      DBPool
	tableName string
}

// PostgresOptions configuration for Postgres connection.
type PostgresOptions struct {
	ConnString string
	TableName  string // Default "session_results"
}

// NewPostgresSessionStore creates a store backed by a new connection pool.
func NewPostgresSessionStore(ctx context.Context, opts PostgresOptions) (*PostgresSessionStore, error) {
	pool, err := pgxpool.New(ctx, opts.ConnString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "session_results"
	}
	return &PostgresSessionStore{pool: pool, tableName: tableName}, nil
}

// NewPostgresSessionStoreWithPool creates a store with an existing pool.
// Useful for testing with mocks.
func NewPostgresSessionStoreWithPool(pool DBPool, tableName string) *PostgresSessionStore {
	if tableName == "" {
		tableName = "session_results"
	}
	return &PostgresSessionStore{pool: pool, tableName: tableName}
}

// InitSchema creates the results table if it doesn't exist.
func (s *PostgresSessionStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			session_id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			file_format TEXT,
			verified_report TEXT NOT NULL,
			faithfulness_score DOUBLE PRECISION NOT NULL,
			hallucination_score DOUBLE PRECISION NOT NULL,
			reflection_count INTEGER NOT NULL,
			agent_trace JSONB,
			error_log JSONB,
			created_at TIMESTAMPTZ NOT NULL
		);
	`, s.tableName)

	if _, err := s.pool.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (s *PostgresSessionStore) Close() {
	s.pool.Close()
}

// Save stores a run result, replacing any previous result for the session.
func (s *PostgresSessionStore) Save(ctx context.Context, result *store.Result) error {
	traceJSON, err := json.Marshal(result.AgentTrace)
	if err != nil {
		return fmt.Errorf("failed to marshal agent trace: %w", err)
	}
	errorsJSON, err := json.Marshal(result.ErrorLog)
	if err != nil {
		return fmt.Errorf("failed to marshal error log: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (session_id, query, file_format, verified_report,
			faithfulness_score, hallucination_score, reflection_count,
			agent_trace, error_log, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (session_id) DO UPDATE SET
			query = EXCLUDED.query,
			file_format = EXCLUDED.file_format,
			verified_report = EXCLUDED.verified_report,
			faithfulness_score = EXCLUDED.faithfulness_score,
			hallucination_score = EXCLUDED.hallucination_score,
			reflection_count = EXCLUDED.reflection_count,
			agent_trace = EXCLUDED.agent_trace,
			error_log = EXCLUDED.error_log,
			created_at = EXCLUDED.created_at
	`, s.tableName)

	_, err = s.pool.Exec(ctx, query,
		result.SessionID,
		result.Query,
		result.FileFormat,
		result.VerifiedReport,
		result.FaithfulnessScore,
		result.HallucinationScore,
		result.ReflectionCount,
		traceJSON,
		errorsJSON,
		result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session result: %w", err)
	}
	return nil
}

// Load retrieves a run result by session ID.
func (s *PostgresSessionStore) Load(ctx context.Context, sessionID string) (*store.Result, error) {
	query := fmt.Sprintf(`
		SELECT session_id, query, file_format, verified_report,
			faithfulness_score, hallucination_score, reflection_count,
			agent_trace, error_log, created_at
		FROM %s WHERE session_id = $1
	`, s.tableName)

	var result store.Result
	var traceJSON, errorsJSON []byte

	err := s.pool.QueryRow(ctx, query, sessionID).Scan(
		&result.SessionID,
		&result.Query,
		&result.FileFormat,
		&result.VerifiedReport,
		&result.FaithfulnessScore,
		&result.HallucinationScore,
		&result.ReflectionCount,
		&traceJSON,
		&errorsJSON,
		&result.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session result: %w", err)
	}

	if err := json.Unmarshal(traceJSON, &result.AgentTrace); err != nil {
		return nil, fmt.Errorf("failed to unmarshal agent trace: %w", err)
	}
	if err := json.Unmarshal(errorsJSON, &result.ErrorLog); err != nil {
		return nil, fmt.Errorf("failed to unmarshal error log: %w", err)
	}
	return &result, nil
}

// Delete removes a run result.
func (s *PostgresSessionStore) Delete(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE session_id = $1`, s.tableName)
	if _, err := s.pool.Exec(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete session result: %w", err)
	}
	return nil
}

// List returns all stored session IDs, newest first.
func (s *PostgresSessionStore) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT session_id FROM %s ORDER BY created_at DESC`, s.tableName)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan session id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
