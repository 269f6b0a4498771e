// Package sqlite implements store.SessionStore on SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/yuga-i2/DOCUFORGE-AI/store"
)

// SqliteSessionStore implements store.SessionStore using SQLite.
type SqliteSessionStore struct {
	db        *sql.DB
	tableName string
}

// SqliteOptions configuration for SQLite connection.
type SqliteOptions struct {
	Path      string
	TableName string // Default "session_results"
}

// NewSqliteSessionStore opens (or creates) the database and ensures the
// schema exists.
func NewSqliteSessionStore(opts SqliteOptions) (*SqliteSessionStore, error) {
	db, err := sql.Open("sqlite3", opts.Path)
	if err != nil {
		return nil, fmt.Errorf("unable to open database: %w", err)
	}

	tableName := opts.TableName
	if tableName == "" {
		tableName = "session_results"
	}

	s := &SqliteSessionStore{db: db, tableName: tableName}
	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// InitSchema creates the results table if it doesn't exist.
func (s *SqliteSessionStore) InitSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			session_id TEXT PRIMARY KEY,
			query TEXT NOT NULL,
			file_format TEXT,
			verified_report TEXT NOT NULL,
			faithfulness_score REAL NOT NULL,
			hallucination_score REAL NOT NULL,
			reflection_count INTEGER NOT NULL,
			agent_trace TEXT,
			error_log TEXT,
			created_at DATETIME NOT NULL
		);
	`, s.tableName)

	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SqliteSessionStore) Close() error {
	return s.db.Close()
}

// Save stores a run result, replacing any previous result for the session.
func (s *SqliteSessionStore) Save(ctx context.Context, result *store.Result) error {
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			query = excluded.query,
			file_format = excluded.file_format,
			verified_report = excluded.verified_report,
			faithfulness_score = excluded.faithfulness_score,
			hallucination_score = excluded.hallucination_score,
			reflection_count = excluded.reflection_count,
			agent_trace = excluded.agent_trace,
			error_log = excluded.error_log,
			created_at = excluded.created_at
	`, s.tableName)

	_, err = s.db.ExecContext(ctx, query,
		result.SessionID,
		result.Query,
		result.FileFormat,
		result.VerifiedReport,
		result.FaithfulnessScore,
		result.HallucinationScore,
		result.ReflectionCount,
		string(traceJSON),
		string(errorsJSON),
		result.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save session result: %w", err)
	}
	return nil
}

// Load retrieves a run result by session ID.
func (s *SqliteSessionStore) Load(ctx context.Context, sessionID string) (*store.Result, error) {
	query := fmt.Sprintf(`
		SELECT session_id, query, file_format, verified_report,
			faithfulness_score, hallucination_score, reflection_count,
			agent_trace, error_log, created_at
		FROM %s WHERE session_id = ?
	`, s.tableName)

	var result store.Result
	var traceJSON, errorsJSON string

	err := s.db.QueryRowContext(ctx, query, sessionID).Scan(
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
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session result: %w", err)
	}

	if err := json.Unmarshal([]byte(traceJSON), &result.AgentTrace); err != nil {
		return nil, fmt.Errorf("failed to unmarshal agent trace: %w", err)
	}
	if err := json.Unmarshal([]byte(errorsJSON), &result.ErrorLog); err != nil {
		return nil, fmt.Errorf("failed to unmarshal error log: %w", err)
	}
	return &result, nil
}

// Delete removes a run result.
func (s *SqliteSessionStore) Delete(ctx context.Context, sessionID string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE session_id = ?`, s.tableName)
	if _, err := s.db.ExecContext(ctx, query, sessionID); err != nil {
		return fmt.Errorf("failed to delete session result: %w", err)
	}
	return nil
}

// List returns all stored session IDs, newest first.
func (s *SqliteSessionStore) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT session_id FROM %s ORDER BY created_at DESC`, s.tableName)
	rows, err := s.db.QueryContext(ctx, query)
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
