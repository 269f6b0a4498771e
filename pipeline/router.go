package pipeline

// Stage names returned by Route. They double as graph node names.
const (
	StageIngestion    = "ingestion"
	StageRetrieval    = "retrieval"
	StageResearch     = "research"
	StageAnalysis     = "analysis"
	StageWriter       = "writer"
	StageVerifier     = "verifier"
	StageErrorHandler = "error_handler"
	StageDone         = "done"
)

// Route inspects the state and returns the next stage to execute. It is a
// pure function of the state: no I/O, no side effects, first matching rule
// wins.
//
// The strict ordering makes progress monotonic and auditable from the state
// alone: each stage's output is the precondition of the next, so a stage is
// never re-entered once its output exists (the writer excepted, which is
// re-entered only through an explicit regenerate decision that bypasses this
// router).
func Route(s State) string {
	// Errors short-circuit everything.
	if s.RoutingDecision == DecisionError {
		return StageErrorHandler
	}

	if s.IngestedText == "" {
		return StageIngestion
	}

	// Tri-state: only a nil slice means retrieval never ran. An attempted
	// retrieval that found nothing must not be re-attempted, or the run
	// would loop on it forever.
	if !s.RetrievalAttempted() {
		return StageRetrieval
	}

	if s.RoutingDecision == DecisionNeedsResearch {
		return StageResearch
	}

	if s.AnalysisResult == nil {
		return StageAnalysis
	}

	if s.DraftReport == "" {
		return StageWriter
	}

	if s.VerifiedReport == "" {
		return StageVerifier
	}

	return StageDone
}
