// Package agents implements the pipeline stages as graph node functions.
// Each agent reads the shared state, performs one unit of work through an
// injected collaborator, and returns a partial update. Agents never mutate
// the state directly; the graph schema merges their updates.
package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/yuga-i2/DOCUFORGE-AI/analysis"
	"github.com/yuga-i2/DOCUFORGE-AI/log"
	"github.com/yuga-i2/DOCUFORGE-AI/pipeline"
	"github.com/yuga-i2/DOCUFORGE-AI/verify"
	"github.com/yuga-i2/DOCUFORGE-AI/writer"
)

// Ingester parses and validates an uploaded document.
type Ingester interface {
	Ingest(path string) (text, format string, err error)
}

// Retriever indexes ingested text and retrieves query-relevant chunks.
type Retriever interface {
	Index(ctx context.Context, sessionID, text string) (int, error)
	Retrieve(ctx context.Context, sessionID, query string) ([]string, error)
}

// Researcher gathers external web context for a query.
type Researcher interface {
	Gather(ctx context.Context, query string) (string, error)
}

// Drafter writes a report draft from assembled context.
type Drafter interface {
	Draft(ctx context.Context, in writer.Input) string
}

// FaithfulnessScorer measures how well a draft is grounded in its sources.
type FaithfulnessScorer interface {
	Score(ctx context.Context, draft string, chunks []string) verify.Outcome
}

// researchKeywords trigger the optional research stage when they appear in
// the query. Matching is lowercase substring, same as the retrieval side.
var researchKeywords = []string{
	"industry", "market", "competitor", "trend", "benchmark", "external", "current",
}

// Agents bundles the stage collaborators and exposes each stage as a graph
// node function.
type Agents struct {
	Ingester   Ingester
	Retriever  Retriever
	Researcher Researcher
	Drafter    Drafter
	Scorer     FaithfulnessScorer

	Thresholds verify.Thresholds
	Logger     log.Logger
}

// New wires the agents. Researcher may be nil, in which case the research
// stage degrades to empty context.
func New(ing Ingester, ret Retriever, res Researcher, dr Drafter, sc FaithfulnessScorer, t verify.Thresholds, logger log.Logger) *Agents {
	if logger == nil {
		logger = log.NoOpLogger{}
	}
	return &Agents{
		Ingester:   ing,
		Retriever:  ret,
		Researcher: res,
		Drafter:    dr,
		Scorer:     sc,
		Thresholds: t,
		Logger:     logger,
	}
}

// Supervisor inspects the state and decides whether external research is
// needed before drafting. It is the graph's entry point and the hub every
// non-terminal stage returns to; the actual stage selection happens in the
// routing function, so the supervisor's only output is the routing decision
// plus its trace entry.
func (a *Agents) Supervisor(ctx context.Context, s pipeline.State) (pipeline.Update, error) {
	// An error set by a previous stage must survive untouched so the
	// router can reach the error handler.
	if s.RoutingDecision == pipeline.DecisionError {
		return pipeline.Update{}, nil
	}

	decision := pipeline.DecisionContinue
	if a.needsResearch(s) {
		decision = pipeline.DecisionNeedsResearch
	}

	return pipeline.MustUpdate(map[string]any{
		pipeline.FieldRoutingDecision: decision,
		pipeline.FieldAgentTrace:      []string{"supervisor"},
	}), nil
}

// needsResearch fires once per run, after retrieval: a research pass that
// already happened (attempted flag) or already produced context never
// repeats, so the supervisor cannot loop on the research stage.
func (a *Agents) needsResearch(s pipeline.State) bool {
	if s.ResearchAttempted || s.WebContext != "" || !s.RetrievalAttempted() {
		return false
	}
	query := strings.ToLower(s.Query)
	for _, kw := range researchKeywords {
		if strings.Contains(query, kw) {
			return true
		}
	}
	return false
}

// Ingestion parses the uploaded file. Ingestion failure is fatal: without a
// document there is nothing downstream to do, so the error decision sends
// the run to the error handler.
func (a *Agents) Ingestion(ctx context.Context, s pipeline.State) (pipeline.Update, error) {
	text, format, err := a.Ingester.Ingest(s.UploadedFilePath)
	if err != nil {
		a.Logger.Error("ingestion failed for %q: %v", s.UploadedFilePath, err)
		return a.fatal("ingestion", err), nil
	}

	a.Logger.Info("ingested %q: format=%s chars=%d", s.UploadedFilePath, format, len(text))
	return pipeline.MustUpdate(map[string]any{
		pipeline.FieldIngestedText:    text,
		pipeline.FieldFileFormat:      format,
		pipeline.FieldRoutingDecision: pipeline.DecisionContinue,
		pipeline.FieldAgentTrace:      []string{"ingestion"},
	}), nil
}

// Retrieval indexes the ingested text and retrieves chunks for the query.
// The chunks slice written back is always non-nil, including when nothing
// relevant was found: a nil slice means "never attempted" to the router, and
// writing one back would re-enter this stage forever.
func (a *Agents) Retrieval(ctx context.Context, s pipeline.State) (pipeline.Update, error) {
	if _, err := a.Retriever.Index(ctx, s.SessionID, s.IngestedText); err != nil {
		a.Logger.Error("indexing failed: %v", err)
		return a.fatal("retrieval", err), nil
	}

	chunks, err := a.Retriever.Retrieve(ctx, s.SessionID, s.Query)
	if err != nil {
		a.Logger.Error("retrieval failed: %v", err)
		return a.fatal("retrieval", err), nil
	}
	if chunks == nil {
		chunks = []string{}
	}

	a.Logger.Info("retrieved %d chunks for session %s", len(chunks), s.SessionID)
	return pipeline.MustUpdate(map[string]any{
		pipeline.FieldRetrievedChunks: chunks,
		pipeline.FieldRoutingDecision: pipeline.DecisionContinue,
		pipeline.FieldAgentTrace:      []string{"retrieval"},
	}), nil
}

// Research gathers external web context. Research is best-effort enrichment:
// failure degrades to empty context and the run continues, but the attempted
// flag is always set so the supervisor never requests research twice.
func (a *Agents) Research(ctx context.Context, s pipeline.State) (pipeline.Update, error) {
	fields := map[string]any{
		pipeline.FieldResearchAttempted: true,
		pipeline.FieldRoutingDecision:   pipeline.DecisionContinue,
		pipeline.FieldAgentTrace:        []string{"research"},
	}

	if a.Researcher == nil {
		a.Logger.Warn("research requested but no researcher configured")
		fields[pipeline.FieldWebContext] = ""
		return pipeline.MustUpdate(fields), nil
	}

	webContext, err := a.Researcher.Gather(ctx, s.Query)
	if err != nil {
		a.Logger.Warn("research failed, continuing without web context: %v", err)
		fields[pipeline.FieldWebContext] = ""
		fields[pipeline.FieldErrorLog] = []string{fmt.Sprintf("research: %v", err)}
		return pipeline.MustUpdate(fields), nil
	}

	a.Logger.Info("research gathered %d chars of web context", len(webContext))
	fields[pipeline.FieldWebContext] = webContext
	return pipeline.MustUpdate(fields), nil
}

// Analyst computes quantitative statistics over the retrieved chunks. It
// never fails: a document without numbers yields an empty-metrics result,
// which still satisfies the writer's precondition.
func (a *Agents) Analyst(ctx context.Context, s pipeline.State) (pipeline.Update, error) {
	result := analysis.Analyze(s.Query, s.RetrievedChunks)
	a.Logger.Info("analysis complete: %d metrics, %d anomalies",
		len(result.KeyMetrics), len(result.Anomalies))

	return pipeline.MustUpdate(map[string]any{
		pipeline.FieldAnalysisResult:  result,
		pipeline.FieldRoutingDecision: pipeline.DecisionContinue,
		pipeline.FieldAgentTrace:      []string{"analyst"},
	}), nil
}

// Writer drafts the report. On regeneration passes the previous draft and
// unsupported ratio feed the revision prompt.
func (a *Agents) Writer(ctx context.Context, s pipeline.State) (pipeline.Update, error) {
	in := writer.Input{
		Query:            s.Query,
		Chunks:           s.RetrievedChunks,
		WebContext:       s.WebContext,
		Analysis:         s.AnalysisResult,
		Reflection:       s.ReflectionCount,
		PreviousDraft:    s.DraftReport,
		UnsupportedRatio: s.HallucinationScore,
	}

	draft := a.Drafter.Draft(ctx, in)
	a.Logger.Info("writer produced draft (%d chars, reflection %d)", len(draft), s.ReflectionCount)

	return pipeline.MustUpdate(map[string]any{
		pipeline.FieldDraftReport:     draft,
		pipeline.FieldRoutingDecision: pipeline.DecisionContinue,
		pipeline.FieldAgentTrace:      []string{fmt.Sprintf("writer(reflection=%d)", s.ReflectionCount)},
	}), nil
}

// Verifier scores the draft's faithfulness and applies the bounded-retry
// reflection policy. It always writes both scores together and either
// finalizes the verified report or requests regeneration.
func (a *Agents) Verifier(ctx context.Context, s pipeline.State) (pipeline.Update, error) {
	out := a.Scorer.Score(ctx, s.DraftReport, s.RetrievedChunks)
	decision := verify.Decide(out, s.ReflectionCount, a.Thresholds)

	trace := fmt.Sprintf("verifier(faithfulness=%.3f claims=%d/%d decision=%s)",
		out.Faithfulness, out.SupportedClaims, out.TotalClaims, decision)

	if decision == verify.Regenerate {
		a.Logger.Info("verifier: regenerating (score %.3f, reflection %d/%d)",
			out.Faithfulness, s.ReflectionCount, a.Thresholds.MaxReflectionLoops)
		return pipeline.MustUpdate(map[string]any{
			pipeline.FieldFaithfulnessScore:  out.Faithfulness,
			pipeline.FieldHallucinationScore: out.Hallucination,
			pipeline.FieldReflectionCount:    s.ReflectionCount + 1,
			pipeline.FieldRoutingDecision:    pipeline.DecisionRegenerate,
			pipeline.FieldAgentTrace:         []string{trace},
		}), nil
	}

	verified := s.DraftReport
	if out.EmptyDraft {
		// Keep the terminal contract unambiguous even for a blank draft.
		verified = writer.Placeholder
	}

	fields := map[string]any{
		pipeline.FieldFaithfulnessScore:  out.Faithfulness,
		pipeline.FieldHallucinationScore: out.Hallucination,
		pipeline.FieldVerifiedReport:     verified,
		pipeline.FieldRoutingDecision:    pipeline.DecisionDone,
		pipeline.FieldAgentTrace:         []string{trace},
	}
	if out.Faithfulness < a.Thresholds.MinFaithfulness && !out.NoSource {
		fields[pipeline.FieldErrorLog] = []string{fmt.Sprintf(
			"verifier: accepted below threshold (%.3f < %.3f) after %d reflections",
			out.Faithfulness, a.Thresholds.MinFaithfulness, s.ReflectionCount)}
	}

	a.Logger.Info("verifier: accepted (score %.3f)", out.Faithfulness)
	return pipeline.MustUpdate(fields), nil
}

// ErrorHandler is the terminal stage for fatal errors. It only records its
// trace entry; the error itself is already in the log.
func (a *Agents) ErrorHandler(ctx context.Context, s pipeline.State) (pipeline.Update, error) {
	a.Logger.Error("pipeline terminated with error: %s", s.LastError())
	return pipeline.MustUpdate(map[string]any{
		pipeline.FieldAgentTrace: []string{"error_handler"},
	}), nil
}

// fatal builds the standard fatal-error update: error decision, log entry,
// trace entry.
func (a *Agents) fatal(stage string, err error) pipeline.Update {
	return pipeline.MustUpdate(map[string]any{
		pipeline.FieldRoutingDecision: pipeline.DecisionError,
		pipeline.FieldErrorLog:        []string{fmt.Sprintf("%s: %v", stage, err)},
		pipeline.FieldAgentTrace:      []string{stage},
	})
}
