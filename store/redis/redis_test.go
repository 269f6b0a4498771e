package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuga-i2/DOCUFORGE-AI/store"
)

func newTestStore(t *testing.T) *RedisSessionStore {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return NewRedisSessionStore(RedisOptions{Addr: mr.Addr()})
}

func sampleResult(sessionID string) *store.Result {
	return &store.Result{
		SessionID:          sessionID,
		Query:              "summarize the quarterly report",
		FileFormat:         "pdf",
		VerifiedReport:     "The quarter closed with revenue growth of 12%.",
		FaithfulnessScore:  0.91,
		HallucinationScore: 0.09,
		ReflectionCount:    1,
		AgentTrace:         []string{"supervisor", "ingestion", "retrieval", "analysis", "writer", "verifier"},
		ErrorLog:           []string{},
		CreatedAt:          time.Now().UTC().Truncate(time.Second),
	}
}

func TestRedisSessionStoreRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	result := sampleResult("sess-1")
	require.NoError(t, s.Save(ctx, result))

	loaded, err := s.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, result.Query, loaded.Query)
	assert.Equal(t, result.VerifiedReport, loaded.VerifiedReport)
	assert.Equal(t, result.FaithfulnessScore, loaded.FaithfulnessScore)
	assert.Equal(t, result.AgentTrace, loaded.AgentTrace)
	assert.True(t, result.CreatedAt.Equal(loaded.CreatedAt))
}

func TestRedisSessionStoreLoadMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRedisSessionStoreDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleResult("sess-1")))
	require.NoError(t, s.Delete(ctx, "sess-1"))

	_, err := s.Load(ctx, "sess-1")
	assert.ErrorIs(t, err, store.ErrNotFound)

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestRedisSessionStoreList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, sampleResult("sess-1")))
	require.NoError(t, s.Save(ctx, sampleResult("sess-2")))

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"sess-1", "sess-2"}, ids)
}

func TestRedisSessionStoreSaveOverwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first := sampleResult("sess-1")
	require.NoError(t, s.Save(ctx, first))

	second := sampleResult("sess-1")
	second.VerifiedReport = "updated report"
	require.NoError(t, s.Save(ctx, second))

	loaded, err := s.Load(ctx, "sess-1")
	require.NoError(t, err)
	assert.Equal(t, "updated report", loaded.VerifiedReport)

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 1)
}
