package docuforge

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/yuga-i2/DOCUFORGE-AI/agents"
	"github.com/yuga-i2/DOCUFORGE-AI/config"
	"github.com/yuga-i2/DOCUFORGE-AI/graph"
	"github.com/yuga-i2/DOCUFORGE-AI/log"
	"github.com/yuga-i2/DOCUFORGE-AI/pipeline"
	"github.com/yuga-i2/DOCUFORGE-AI/store"
	"github.com/yuga-i2/DOCUFORGE-AI/verify"
)

// Request describes one analysis run.
type Request struct {
	Query    string
	FilePath string
	// SessionID isolates this run's retrieval index and keys the persisted
	// result. Empty means generate one.
	SessionID string
}

// Runner executes analysis runs over a compiled stage graph.
type Runner struct {
	agents   *agents.Agents
	store    store.SessionStore
	maxSteps int
	logger   log.Logger
}

// Option customizes a Runner.
type Option func(*Runner)

// WithSessionStore persists terminal states after each run.
func WithSessionStore(s store.SessionStore) Option {
	return func(r *Runner) { r.store = s }
}

// WithLogger overrides the default logger.
func WithLogger(l log.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithMaxSteps overrides the step ceiling.
func WithMaxSteps(n int) Option {
	return func(r *Runner) { r.maxSteps = n }
}

// NewRunner builds a runner around pre-wired stage agents.
func NewRunner(a *agents.Agents, cfg config.Config, opts ...Option) *Runner {
	r := &Runner{
		agents:   a,
		maxSteps: cfg.MaxSteps,
		logger:   log.GetDefaultLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.maxSteps <= 0 {
		r.maxSteps = graph.DefaultMaxSteps
	}
	return r
}

// Run executes the pipeline for one request and returns the terminal state.
// The returned state is never ambiguous: it carries either a verified report
// or an explicit error log entry with the error decision set. Run returns an
// error only for programming mistakes (graph construction); operational
// failures are expressed in the state.
func (r *Runner) Run(ctx context.Context, req Request) (pipeline.State, error) {
	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	runnable, err := r.buildGraph()
	if err != nil {
		return pipeline.State{}, fmt.Errorf("building pipeline graph: %w", err)
	}

	initial := pipeline.NewState(req.Query, req.FilePath, sessionID)
	r.logger.Info("run %s starting: query=%q file=%q", sessionID, req.Query, req.FilePath)

	final, err := runnable.InvokeWithConfig(ctx, initial, graph.Config{MaxSteps: r.maxSteps})
	if err != nil {
		if errors.Is(err, graph.ErrStepLimit) {
			// Best-effort delivery: surface the accumulated state with an
			// explicit error instead of discarding the run.
			final = pipeline.Merge(final, pipeline.MustUpdate(map[string]any{
				pipeline.FieldRoutingDecision: pipeline.DecisionError,
				pipeline.FieldErrorLog:        []string{fmt.Sprintf("driver: %v", err)},
			}))
		} else {
			return final, err
		}
	}

	r.logger.Info("run %s finished: faithfulness=%.3f reflections=%d errors=%d",
		sessionID, final.FaithfulnessScore, final.ReflectionCount, len(final.ErrorLog))

	if r.store != nil {
		if err := r.store.Save(ctx, store.FromState(final)); err != nil {
			r.logger.Error("run %s: persisting result failed: %v", sessionID, err)
		}
	}
	return final, nil
}

// buildGraph assembles the stage graph. The supervisor is the entry point
// and the hub: its conditional edge routes to the next incomplete stage, and
// every enrichment stage returns to it. The writer flows straight into the
// verifier, whose conditional edge closes the reflection loop.
func (r *Runner) buildGraph() (*graph.Runnable[pipeline.State, pipeline.Update], error) {
	g := graph.NewStateGraph[pipeline.State, pipeline.Update](pipeline.Schema{})

	g.AddNode("supervisor", "routes to the next incomplete stage", r.agents.Supervisor)
	g.AddNode(pipeline.StageIngestion, "parses and validates the uploaded document", r.agents.Ingestion)
	g.AddNode(pipeline.StageRetrieval, "indexes the document and retrieves relevant chunks", r.agents.Retrieval)
	g.AddNode(pipeline.StageResearch, "gathers external web context", r.agents.Research)
	g.AddNode(pipeline.StageAnalysis, "computes quantitative statistics", r.agents.Analyst)
	g.AddNode(pipeline.StageWriter, "drafts the report", r.agents.Writer)
	g.AddNode(pipeline.StageVerifier, "scores faithfulness and decides accept or regenerate", r.agents.Verifier)
	g.AddNode(pipeline.StageErrorHandler, "terminal stage for fatal errors", r.agents.ErrorHandler)

	g.SetEntryPoint("supervisor")

	g.AddConditionalEdge("supervisor", func(ctx context.Context, s pipeline.State) string {
		next := pipeline.Route(s)
		if next == pipeline.StageDone {
			return graph.END
		}
		return next
	})

	g.AddEdge(pipeline.StageIngestion, "supervisor")
	g.AddEdge(pipeline.StageRetrieval, "supervisor")
	g.AddEdge(pipeline.StageResearch, "supervisor")
	g.AddEdge(pipeline.StageAnalysis, "supervisor")
	g.AddEdge(pipeline.StageWriter, pipeline.StageVerifier)

	g.AddConditionalEdge(pipeline.StageVerifier, func(ctx context.Context, s pipeline.State) string {
		if s.RoutingDecision == pipeline.DecisionRegenerate {
			return pipeline.StageWriter
		}
		return "supervisor"
	})

	g.AddEdge(pipeline.StageErrorHandler, graph.END)

	return g.Compile()
}

// BuildAgents wires the production collaborators from configuration. Tests
// construct agents.Agents directly with fakes instead.
func BuildAgents(cfg config.Config, logger log.Logger) (*agents.Agents, error) {
	if logger == nil {
		logger = log.GetDefaultLogger()
	}

	ing := newIngester(cfg, logger)
	ret := newRetriever(cfg, logger)

	res, err := newResearcher(cfg, logger)
	if err != nil {
		return nil, err
	}

	dr, err := newWriter(cfg, logger)
	if err != nil {
		return nil, err
	}

	judge := verify.NewLLMJudge(cfg.OpenAIKey, cfg.JudgeModel, cfg.OpenAIBaseURL)
	scorer := verify.NewScorer(judge, cfg.MinClaimsToVerify, logger)

	thresholds := verify.Thresholds{
		MinFaithfulness:    cfg.MinFaithfulnessScore,
		MaxReflectionLoops: cfg.MaxReflectionLoops,
	}
	return agents.New(ing, ret, res, dr, scorer, thresholds, logger), nil
}
