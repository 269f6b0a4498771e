package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuga-i2/DOCUFORGE-AI/pipeline"
	"github.com/yuga-i2/DOCUFORGE-AI/store"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	t.Parallel()

	m := store.NewMemoryStore()
	ctx := context.Background()

	result := &store.Result{
		SessionID:         "s1",
		Query:             "what changed",
		VerifiedReport:    "report body",
		FaithfulnessScore: 0.9,
		AgentTrace:        []string{"supervisor", "ingestion"},
	}
	require.NoError(t, m.Save(ctx, result))

	loaded, err := m.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, result.Query, loaded.Query)
	assert.Equal(t, result.VerifiedReport, loaded.VerifiedReport)
	assert.Equal(t, result.AgentTrace, loaded.AgentTrace)

	// The store hands out copies, not the stored record.
	loaded.VerifiedReport = "mutated"
	again, err := m.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "report body", again.VerifiedReport)
}

func TestMemoryStoreLoadMissing(t *testing.T) {
	t.Parallel()

	m := store.NewMemoryStore()
	_, err := m.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemoryStoreDeleteAndList(t *testing.T) {
	t.Parallel()

	m := store.NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, m.Save(ctx, &store.Result{SessionID: "b"}))
	require.NoError(t, m.Save(ctx, &store.Result{SessionID: "a"}))

	ids, err := m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	require.NoError(t, m.Delete(ctx, "a"))
	require.NoError(t, m.Delete(ctx, "missing"), "deleting a missing session is not an error")

	ids, err = m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestFromState(t *testing.T) {
	t.Parallel()

	s := pipeline.State{
		SessionID:          "sid",
		Query:              "q",
		FileFormat:         "pdf",
		VerifiedReport:     "report",
		FaithfulnessScore:  0.87,
		HallucinationScore: 0.13,
		ReflectionCount:    1,
		AgentTrace:         []string{"supervisor"},
		ErrorLog:           []string{"research: timeout"},
	}

	result := store.FromState(s)
	assert.Equal(t, "sid", result.SessionID)
	assert.Equal(t, 0.87, result.FaithfulnessScore)
	assert.Equal(t, 1, result.ReflectionCount)
	assert.Equal(t, s.ErrorLog, result.ErrorLog)
	assert.False(t, result.CreatedAt.IsZero())
}
