// Package store persists completed analysis runs so verified reports and
// their provenance (scores, trace, errors) survive the process. Backends
// share the SessionStore interface; the in-memory implementation lives here,
// SQLite, Postgres, and Redis backends live in subpackages.
package store

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/yuga-i2/DOCUFORGE-AI/pipeline"
)

// ErrNotFound is returned when no result exists for a session ID.
var ErrNotFound = errors.New("session result not found")

// Result is the persisted record of one completed run.
type Result struct {
	SessionID          string    `json:"session_id"`
	Query              string    `json:"query"`
	FileFormat         string    `json:"file_format"`
	VerifiedReport     string    `json:"verified_report"`
	FaithfulnessScore  float64   `json:"faithfulness_score"`
	HallucinationScore float64   `json:"hallucination_score"`
	ReflectionCount    int       `json:"reflection_count"`
	AgentTrace         []string  `json:"agent_trace"`
	ErrorLog           []string  `json:"error_log"`
	CreatedAt          time.Time `json:"created_at"`
}

// FromState builds a persistable result from a terminal pipeline state.
func FromState(s pipeline.State) *Result {
	return &Result{
		SessionID:          s.SessionID,
		Query:              s.Query,
		FileFormat:         s.FileFormat,
		VerifiedReport:     s.VerifiedReport,
		FaithfulnessScore:  s.FaithfulnessScore,
		HallucinationScore: s.HallucinationScore,
		ReflectionCount:    s.ReflectionCount,
		AgentTrace:         s.AgentTrace,
		ErrorLog:           s.ErrorLog,
		CreatedAt:          time.Now().UTC(),
	}
}

// SessionStore persists run results keyed by session ID.
type SessionStore interface {
	Save(ctx context.Context, result *Result) error
	Load(ctx context.Context, sessionID string) (*Result, error)
	Delete(ctx context.Context, sessionID string) error
	List(ctx context.Context) ([]string, error)
}

// MemoryStore is an in-process SessionStore, suitable for tests and
// single-run CLI use.
type MemoryStore struct {
	mu      sync.RWMutex
	results map[string]*Result
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: make(map[string]*Result)}
}

// Save stores a result, replacing any previous result for the session.
func (m *MemoryStore) Save(ctx context.Context, result *Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *result
	m.results[result.SessionID] = &copied
	return nil
}

// Load retrieves a result by session ID.
func (m *MemoryStore) Load(ctx context.Context, sessionID string) (*Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result, ok := m.results[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *result
	return &copied, nil
}

// Delete removes a result. Deleting a missing session is not an error.
func (m *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.results, sessionID)
	return nil
}

// List returns all stored session IDs in lexical order.
func (m *MemoryStore) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.results))
	for id := range m.results {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
