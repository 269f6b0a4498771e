package agents_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yuga-i2/DOCUFORGE-AI/agents"
	"github.com/yuga-i2/DOCUFORGE-AI/pipeline"
	"github.com/yuga-i2/DOCUFORGE-AI/verify"
	"github.com/yuga-i2/DOCUFORGE-AI/writer"
)

type fakeIngester struct {
	text, format string
	err          error
}

func (f fakeIngester) Ingest(path string) (string, string, error) {
	return f.text, f.format, f.err
}

type fakeRetriever struct {
	chunks      []string
	indexErr    error
	retrieveErr error
}

func (f fakeRetriever) Index(ctx context.Context, sessionID, text string) (int, error) {
	if f.indexErr != nil {
		return 0, f.indexErr
	}
	return 1, nil
}

func (f fakeRetriever) Retrieve(ctx context.Context, sessionID, query string) ([]string, error) {
	return f.chunks, f.retrieveErr
}

type fakeResearcher struct {
	context string
	err     error
}

func (f fakeResearcher) Gather(ctx context.Context, query string) (string, error) {
	return f.context, f.err
}

type fakeDrafter struct {
	draft     string
	lastInput writer.Input
}

func (f *fakeDrafter) Draft(ctx context.Context, in writer.Input) string {
	f.lastInput = in
	return f.draft
}

type fakeScorer struct {
	outcome verify.Outcome
}

func (f fakeScorer) Score(ctx context.Context, draft string, chunks []string) verify.Outcome {
	return f.outcome
}

var thresholds = verify.Thresholds{MinFaithfulness: 0.85, MaxReflectionLoops: 3}

func newAgents(t *testing.T) *agents.Agents {
	t.Helper()
	return agents.New(
		fakeIngester{text: "document text", format: "txt"},
		fakeRetriever{chunks: []string{"chunk one", "chunk two"}},
		fakeResearcher{context: "web context"},
		&fakeDrafter{draft: "a grounded draft"},
		fakeScorer{outcome: verify.Outcome{Faithfulness: 0.9, Hallucination: 0.1, TotalClaims: 10, SupportedClaims: 9}},
		thresholds,
		nil,
	)
}

func TestSupervisorPreservesErrorState(t *testing.T) {
	t.Parallel()

	a := newAgents(t)
	s := pipeline.State{
		RoutingDecision: pipeline.DecisionError,
		ErrorLog:        []string{"ingestion: boom"},
	}

	update, err := a.Supervisor(context.Background(), s)
	require.NoError(t, err)
	assert.Empty(t, update, "error state must pass through untouched")
}

func TestSupervisorRequestsResearchOnKeyword(t *testing.T) {
	t.Parallel()

	a := newAgents(t)
	s := pipeline.State{
		Query:           "compare against industry benchmarks",
		IngestedText:    "text",
		RetrievedChunks: []string{"chunk"},
	}

	update, err := a.Supervisor(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, pipeline.DecisionNeedsResearch, update[pipeline.FieldRoutingDecision])
}

func TestSupervisorResearchFiresOnce(t *testing.T) {
	t.Parallel()

	a := newAgents(t)
	s := pipeline.State{
		Query:             "industry trends",
		IngestedText:      "text",
		RetrievedChunks:   []string{"chunk"},
		ResearchAttempted: true,
	}

	update, err := a.Supervisor(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, pipeline.DecisionContinue, update[pipeline.FieldRoutingDecision])
}

func TestSupervisorNoResearchBeforeRetrieval(t *testing.T) {
	t.Parallel()

	a := newAgents(t)
	s := pipeline.State{Query: "industry trends", IngestedText: "text"}

	update, err := a.Supervisor(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, pipeline.DecisionContinue, update[pipeline.FieldRoutingDecision])
}

func TestIngestionSuccess(t *testing.T) {
	t.Parallel()

	a := newAgents(t)
	s := pipeline.NewState("q", "/tmp/f.txt", "sid")

	update, err := a.Ingestion(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "document text", update[pipeline.FieldIngestedText])
	assert.Equal(t, "txt", update[pipeline.FieldFileFormat])
}

func TestIngestionFailureIsFatal(t *testing.T) {
	t.Parallel()

	a := newAgents(t)
	a.Ingester = fakeIngester{err: errors.New("file does not exist")}

	update, err := a.Ingestion(context.Background(), pipeline.NewState("q", "/nope", "sid"))
	require.NoError(t, err, "fatal stage errors travel through the state, not the error return")

	assert.Equal(t, pipeline.DecisionError, update[pipeline.FieldRoutingDecision])
	errorLog, ok := update[pipeline.FieldErrorLog].([]string)
	require.True(t, ok)
	require.Len(t, errorLog, 1)
	assert.Contains(t, errorLog[0], "file does not exist")
}

func TestRetrievalAlwaysWritesNonNilChunks(t *testing.T) {
	t.Parallel()

	a := newAgents(t)
	a.Retriever = fakeRetriever{chunks: nil} // found nothing

	update, err := a.Retrieval(context.Background(), pipeline.State{IngestedText: "text"})
	require.NoError(t, err)

	chunks, ok := update[pipeline.FieldRetrievedChunks].([]string)
	require.True(t, ok)
	assert.NotNil(t, chunks)
	assert.Empty(t, chunks)
}

func TestRetrievalFailureIsFatal(t *testing.T) {
	t.Parallel()

	a := newAgents(t)
	a.Retriever = fakeRetriever{retrieveErr: errors.New("index corrupted")}

	update, err := a.Retrieval(context.Background(), pipeline.State{IngestedText: "text"})
	require.NoError(t, err)
	assert.Equal(t, pipeline.DecisionError, update[pipeline.FieldRoutingDecision])
}

func TestResearchDegradesGracefully(t *testing.T) {
	t.Parallel()

	a := newAgents(t)
	a.Researcher = fakeResearcher{err: errors.New("search quota exceeded")}

	update, err := a.Research(context.Background(), pipeline.State{Query: "q"})
	require.NoError(t, err)

	assert.Equal(t, pipeline.DecisionContinue, update[pipeline.FieldRoutingDecision])
	assert.Equal(t, true, update[pipeline.FieldResearchAttempted])
	assert.Equal(t, "", update[pipeline.FieldWebContext])

	errorLog, ok := update[pipeline.FieldErrorLog].([]string)
	require.True(t, ok)
	assert.Contains(t, errorLog[0], "research")
}

func TestResearchWithoutResearcherConfigured(t *testing.T) {
	t.Parallel()

	a := newAgents(t)
	a.Researcher = nil

	update, err := a.Research(context.Background(), pipeline.State{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, true, update[pipeline.FieldResearchAttempted])
	assert.Equal(t, pipeline.DecisionContinue, update[pipeline.FieldRoutingDecision])
}

func TestWriterPassesReflectionContext(t *testing.T) {
	t.Parallel()

	drafter := &fakeDrafter{draft: "revised draft"}
	a := newAgents(t)
	a.Drafter = drafter

	s := pipeline.State{
		Query:              "q",
		RetrievedChunks:    []string{"chunk"},
		DraftReport:        "previous draft",
		ReflectionCount:    1,
		HallucinationScore: 0.4,
	}

	update, err := a.Writer(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "revised draft", update[pipeline.FieldDraftReport])
	assert.Equal(t, 1, drafter.lastInput.Reflection)
	assert.Equal(t, "previous draft", drafter.lastInput.PreviousDraft)
	assert.InDelta(t, 0.4, drafter.lastInput.UnsupportedRatio, 1e-9)
}

func TestVerifierAcceptsGoodDraft(t *testing.T) {
	t.Parallel()

	a := newAgents(t)
	s := pipeline.State{DraftReport: "a grounded draft", RetrievedChunks: []string{"chunk"}}

	update, err := a.Verifier(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, "a grounded draft", update[pipeline.FieldVerifiedReport])
	assert.Equal(t, pipeline.DecisionDone, update[pipeline.FieldRoutingDecision])
	assert.Equal(t, 0.9, update[pipeline.FieldFaithfulnessScore])
	assert.InDelta(t, 0.1, update[pipeline.FieldHallucinationScore].(float64), 1e-9)
}

func TestVerifierRegeneratesLowScore(t *testing.T) {
	t.Parallel()

	a := newAgents(t)
	a.Scorer = fakeScorer{outcome: verify.Outcome{
		Faithfulness: 0.4, Hallucination: 0.6, TotalClaims: 10, SupportedClaims: 4,
	}}

	s := pipeline.State{DraftReport: "weak draft", RetrievedChunks: []string{"chunk"}, ReflectionCount: 0}
	update, err := a.Verifier(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, pipeline.DecisionRegenerate, update[pipeline.FieldRoutingDecision])
	assert.Equal(t, 1, update[pipeline.FieldReflectionCount])
	_, hasVerified := update[pipeline.FieldVerifiedReport]
	assert.False(t, hasVerified, "regeneration must not finalize the report")
}

func TestVerifierInsufficientSampleRegenerates(t *testing.T) {
	t.Parallel()

	// Five claims all supported is still below the minimum sample of eight:
	// the measurement is rejected and the draft regenerated.
	a := newAgents(t)
	a.Scorer = fakeScorer{outcome: verify.Outcome{
		Faithfulness: 0.0, Hallucination: 1.0,
		TotalClaims: 5, SupportedClaims: 5, InsufficientSample: true,
	}}

	s := pipeline.State{DraftReport: "vague draft", RetrievedChunks: []string{"chunk"}, ReflectionCount: 0}
	update, err := a.Verifier(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, pipeline.DecisionRegenerate, update[pipeline.FieldRoutingDecision])
	assert.Equal(t, 1, update[pipeline.FieldReflectionCount])
}

func TestVerifierBudgetExhaustionAcceptsWithWarning(t *testing.T) {
	t.Parallel()

	a := newAgents(t)
	a.Scorer = fakeScorer{outcome: verify.Outcome{
		Faithfulness: 0.4, Hallucination: 0.6, TotalClaims: 10, SupportedClaims: 4,
	}}

	s := pipeline.State{DraftReport: "still weak", RetrievedChunks: []string{"chunk"}, ReflectionCount: 3}
	update, err := a.Verifier(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, pipeline.DecisionDone, update[pipeline.FieldRoutingDecision])
	assert.Equal(t, "still weak", update[pipeline.FieldVerifiedReport])

	errorLog, ok := update[pipeline.FieldErrorLog].([]string)
	require.True(t, ok)
	assert.Contains(t, errorLog[0], "below threshold")
}

func TestVerifierEmptyDraftWritesPlaceholder(t *testing.T) {
	t.Parallel()

	a := newAgents(t)
	a.Scorer = fakeScorer{outcome: verify.Outcome{EmptyDraft: true, Hallucination: 1.0}}

	update, err := a.Verifier(context.Background(), pipeline.State{RetrievedChunks: []string{"c"}})
	require.NoError(t, err)
	assert.Equal(t, writer.Placeholder, update[pipeline.FieldVerifiedReport])
	assert.Equal(t, pipeline.DecisionDone, update[pipeline.FieldRoutingDecision])
}

func TestVerifierNoSourceAcceptsNeutral(t *testing.T) {
	t.Parallel()

	a := newAgents(t)
	a.Scorer = fakeScorer{outcome: verify.Outcome{
		Faithfulness: verify.NeutralScore, Hallucination: 1 - verify.NeutralScore, NoSource: true,
	}}

	s := pipeline.State{DraftReport: "draft", RetrievedChunks: []string{}}
	update, err := a.Verifier(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, pipeline.DecisionDone, update[pipeline.FieldRoutingDecision])
	assert.Equal(t, verify.NeutralScore, update[pipeline.FieldFaithfulnessScore])
	_, hasWarning := update[pipeline.FieldErrorLog]
	assert.False(t, hasWarning, "an unverifiable run is not a threshold failure")
}
