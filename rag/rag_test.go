package rag_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuga-i2/DOCUFORGE-AI/rag"
)

func TestSplitterRespectsChunkSize(t *testing.T) {
	t.Parallel()

	s := rag.NewSplitter(100, 0, 10)
	text := strings.Repeat("The quarterly revenue figures improved again. ", 40)

	chunks := s.Split(text)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 100)
	}
}

func TestSplitterShortTextIsSingleChunk(t *testing.T) {
	t.Parallel()

	s := rag.NewSplitter(400, 50, 10)
	chunks := s.Split("short text")
	assert.Equal(t, []string{"short text"}, chunks)
}

func TestSplitterPrefersParagraphBoundaries(t *testing.T) {
	t.Parallel()

	s := rag.NewSplitter(60, 0, 5)
	text := "First paragraph about revenue.\n\nSecond paragraph about costs.\n\nThird paragraph about margins."

	chunks := s.Split(text)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Contains(t, chunks[0], "First paragraph")
}

func TestSplitDocumentFiltersShortChunks(t *testing.T) {
	t.Parallel()

	s := rag.NewSplitter(50, 0, 25)
	text := "ok\n\nThis chunk is clearly long enough to keep around."

	docs := s.SplitDocument(text, "session-1")
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Content, "long enough")
	assert.Equal(t, "session-1", docs[0].Source)
}

func TestVectorStoreSearchOrdering(t *testing.T) {
	t.Parallel()

	vs := rag.NewVectorStore(rag.NewHashEmbedder(128))
	ctx := context.Background()

	docs := []rag.Document{
		{Content: "the annual revenue grew twelve percent year over year", ChunkIndex: 0},
		{Content: "employees enjoyed the company picnic in the park", ChunkIndex: 1},
		{Content: "revenue growth outpaced costs in every region", ChunkIndex: 2},
	}
	require.NoError(t, vs.Add(ctx, "s1", docs))
	assert.Equal(t, 3, vs.Count("s1"))

	results, err := vs.Search(ctx, "s1", "revenue growth", 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Contains(t, results[0].Document.Content, "revenue")
	assert.GreaterOrEqual(t, results[0].Score, results[1].Score)
}

func TestVectorStoreSessionIsolation(t *testing.T) {
	t.Parallel()

	vs := rag.NewVectorStore(rag.NewHashEmbedder(128))
	ctx := context.Background()

	require.NoError(t, vs.Add(ctx, "a", []rag.Document{{Content: "alpha content"}}))

	results, err := vs.Search(ctx, "b", "alpha", 5)
	require.NoError(t, err)
	assert.Empty(t, results, "session b must not see session a's chunks")

	vs.Clear("a")
	assert.Zero(t, vs.Count("a"))
}

func TestVectorStoreRejectsNonPositiveK(t *testing.T) {
	t.Parallel()

	vs := rag.NewVectorStore(rag.NewHashEmbedder(64))
	_, err := vs.Search(context.Background(), "s", "q", 0)
	assert.Error(t, err)
}

func TestRetrieverIndexAndRetrieve(t *testing.T) {
	t.Parallel()

	vs := rag.NewVectorStore(rag.NewHashEmbedder(128))
	splitter := rag.NewSplitter(80, 10, 10)
	r := rag.NewRetriever(vs, splitter, 3, nil)
	ctx := context.Background()

	text := "Revenue grew 12 percent in the third quarter.\n\n" +
		"Operating costs were flat across all regions.\n\n" +
		"The company opened two new offices in Europe."

	n, err := r.Index(ctx, "s1", text)
	require.NoError(t, err)
	assert.Greater(t, n, 0)

	chunks, err := r.Retrieve(ctx, "s1", "revenue growth in the quarter")
	require.NoError(t, err)
	require.NotNil(t, chunks)
	require.NotEmpty(t, chunks)
	assert.Contains(t, chunks[0], "Revenue")
	assert.LessOrEqual(t, len(chunks), 3)
}

func TestRetrieverEmptySessionReturnsNonNil(t *testing.T) {
	t.Parallel()

	vs := rag.NewVectorStore(rag.NewHashEmbedder(64))
	r := rag.NewRetriever(vs, rag.NewSplitter(100, 0, 10), 5, nil)

	chunks, err := r.Retrieve(context.Background(), "never-indexed", "anything")
	require.NoError(t, err)
	assert.NotNil(t, chunks)
	assert.Empty(t, chunks)
}

func TestRetrieverIndexRejectsUnusableText(t *testing.T) {
	t.Parallel()

	vs := rag.NewVectorStore(rag.NewHashEmbedder(64))
	r := rag.NewRetriever(vs, rag.NewSplitter(100, 0, 50), 5, nil)

	_, err := r.Index(context.Background(), "s1", "tiny")
	assert.Error(t, err)
}

func TestRetrieverDeduplicates(t *testing.T) {
	t.Parallel()

	vs := rag.NewVectorStore(rag.NewHashEmbedder(128))
	r := rag.NewRetriever(vs, rag.NewSplitter(200, 0, 5), 10, nil)
	ctx := context.Background()

	dup := rag.Document{Content: "identical chunk about revenue", ChunkIndex: 0}
	require.NoError(t, vs.Add(ctx, "s1", []rag.Document{dup, dup, dup}))

	chunks, err := r.Retrieve(ctx, "s1", "revenue")
	require.NoError(t, err)
	assert.Len(t, chunks, 1)
}

func TestHashEmbedderDeterministic(t *testing.T) {
	t.Parallel()

	e := rag.NewHashEmbedder(64)
	a, err := e.Embed(context.Background(), "revenue grew twelve percent")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "revenue grew twelve percent")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	// Normalized vectors have unit length.
	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-5)
}
