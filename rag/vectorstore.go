package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// ScoredDocument pairs a document with its similarity score.
type ScoredDocument struct {
	Document Document
	Score    float64
}

// VectorStore is an in-memory vector index partitioned by session ID.
// Sessions are fully isolated: concurrent runs only need this store to key
// by their own session identifier, no cross-run locking required beyond the
// store's own mutex.
type VectorStore struct {
	mu       sync.RWMutex
	embedder Embedder
	sessions map[string][]storedEntry
}

type storedEntry struct {
	doc       Document
	embedding []float32
}

// NewVectorStore creates an empty store using the given embedder.
func NewVectorStore(embedder Embedder) *VectorStore {
	if embedder == nil {
		embedder = DefaultEmbedder()
	}
	return &VectorStore{
		embedder: embedder,
		sessions: make(map[string][]storedEntry),
	}
}

// Add embeds and indexes documents under a session.
func (vs *VectorStore) Add(ctx context.Context, sessionID string, docs []Document) error {
	entries := make([]storedEntry, 0, len(docs))
	for _, doc := range docs {
		emb, err := vs.embedder.Embed(ctx, doc.Content)
		if err != nil {
			return fmt.Errorf("embedding chunk %d: %w", doc.ChunkIndex, err)
		}
		entries = append(entries, storedEntry{doc: doc, embedding: emb})
	}

	vs.mu.Lock()
	vs.sessions[sessionID] = append(vs.sessions[sessionID], entries...)
	vs.mu.Unlock()
	return nil
}

// Search returns the k most similar documents within a session, descending
// by cosine similarity. An indexed-but-empty session returns an empty slice.
func (vs *VectorStore) Search(ctx context.Context, sessionID, query string, k int) ([]ScoredDocument, error) {
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	queryEmb, err := vs.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	vs.mu.RLock()
	entries := vs.sessions[sessionID]
	vs.mu.RUnlock()

	results := make([]ScoredDocument, 0, len(entries))
	for _, e := range entries {
		results = append(results, ScoredDocument{
			Document: e.doc,
			Score:    cosineSimilarity(queryEmb, e.embedding),
		})
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// Count returns the number of indexed documents for a session.
func (vs *VectorStore) Count(sessionID string) int {
	vs.mu.RLock()
	defer vs.mu.RUnlock()
	return len(vs.sessions[sessionID])
}

// Clear drops a session's index.
func (vs *VectorStore) Clear(sessionID string) {
	vs.mu.Lock()
	delete(vs.sessions, sessionID)
	vs.mu.Unlock()
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
