package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/yuga-i2/DOCUFORGE-AI/log"
)

// Retriever implements hybrid retrieval: semantic similarity from the vector
// store blended with keyword overlap, producing a ranked, deduplicated chunk
// list. Results are always non-nil so callers can distinguish "attempted,
// found nothing" from "never attempted".
type Retriever struct {
	Store    *VectorStore
	Splitter *Splitter
	TopK     int

	// Ensemble weights. They are normalized at scoring time, so any
	// positive pair works.
	VectorWeight  float64
	KeywordWeight float64

	Logger log.Logger
}

// NewRetriever builds a retriever with the original ensemble weighting of
// 0.6 semantic / 0.4 keyword.
func NewRetriever(store *VectorStore, splitter *Splitter, topK int, logger log.Logger) *Retriever {
	if logger == nil {
		logger = log.NoOpLogger{}
	}
	return &Retriever{
		Store:         store,
		Splitter:      splitter,
		TopK:          topK,
		VectorWeight:  0.6,
		KeywordWeight: 0.4,
		Logger:        logger,
	}
}

// Index chunks a document and adds the chunks to the session's vector index.
// Returns the number of chunks indexed.
func (r *Retriever) Index(ctx context.Context, sessionID, text string) (int, error) {
	docs := r.Splitter.SplitDocument(text, sessionID)
	if len(docs) == 0 {
		return 0, fmt.Errorf("document produced no usable chunks")
	}
	if err := r.Store.Add(ctx, sessionID, docs); err != nil {
		return 0, fmt.Errorf("indexing chunks: %w", err)
	}
	r.Logger.Debug("rag: indexed %d chunks for session %s", len(docs), sessionID)
	return len(docs), nil
}

// Retrieve returns the top-k chunk contents for a query, ranked by the
// weighted ensemble score and deduplicated. The returned slice is non-nil
// even when empty.
func (r *Retriever) Retrieve(ctx context.Context, sessionID, query string) ([]string, error) {
	// Over-fetch so keyword re-ranking has candidates to promote.
	candidates, err := r.Store.Search(ctx, sessionID, query, r.TopK*2)
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}

	total := r.VectorWeight + r.KeywordWeight
	if total <= 0 {
		total = 1
	}

	scored := make([]ScoredDocument, 0, len(candidates))
	for _, c := range candidates {
		blended := (r.VectorWeight*c.Score + r.KeywordWeight*keywordOverlap(query, c.Document.Content)) / total
		scored = append(scored, ScoredDocument{Document: c.Document, Score: blended})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	chunks := make([]string, 0, r.TopK)
	seen := make(map[string]bool)
	for _, s := range scored {
		if seen[s.Document.Content] {
			continue
		}
		seen[s.Document.Content] = true
		chunks = append(chunks, s.Document.Content)
		if len(chunks) == r.TopK {
			break
		}
	}
	return chunks, nil
}

// keywordOverlap computes the fraction of query terms present in the
// content, a cheap BM25 stand-in that anchors the ensemble on exact matches.
func keywordOverlap(query, content string) float64 {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return 0
	}
	haystack := strings.ToLower(content)
	matched := 0
	for _, term := range terms {
		term = strings.Trim(term, ".,;:!?()[]{}\"'")
		if len(term) < 2 {
			continue
		}
		if strings.Contains(haystack, term) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}
