// Package pipeline defines the shared state record threaded through every
// stage of a document-analysis run, the merge semantics for partial stage
// updates, and the deterministic router that selects the next stage.
package pipeline

import (
	"github.com/yuga-i2/DOCUFORGE-AI/analysis"
)

// Decision is the routing signal written into the state by stages and read
// back by the router. It is the only cross-loop communication channel.
type Decision string

const (
	// DecisionUnset is the zero value before any stage has run.
	DecisionUnset Decision = ""
	// DecisionContinue means proceed to the next incomplete stage.
	DecisionContinue Decision = "continue"
	// DecisionNeedsResearch requests the optional research stage.
	DecisionNeedsResearch Decision = "needs_research"
	// DecisionError stops the pipeline at the error handler.
	DecisionError Decision = "error"
	// DecisionRegenerate sends the draft back to the writer.
	DecisionRegenerate Decision = "regenerate"
	// DecisionDone marks the run complete.
	DecisionDone Decision = "done"
)

// State is the sole shared record of one pipeline run. It is created once by
// the driver, mutated only through Merge with stage updates, and discarded
// when the run returns.
//
// RetrievedChunks is tri-state: nil means retrieval never ran, a non-nil
// empty slice means retrieval ran and found nothing, and a populated slice
// means retrieval succeeded. AnalysisResult uses nil as its unset sentinel.
type State struct {
	// Immutable identifiers, set at run start.
	Query            string `json:"query"`
	UploadedFilePath string `json:"uploaded_file_path"`
	FileFormat       string `json:"file_format"`
	SessionID        string `json:"session_id"`

	// Stage outputs.
	IngestedText      string           `json:"ingested_text"`
	RetrievedChunks   []string         `json:"retrieved_chunks"`
	WebContext        string           `json:"web_context"`
	ResearchAttempted bool             `json:"research_attempted"`
	AnalysisResult    *analysis.Result `json:"analysis_result"`
	DraftReport       string           `json:"draft_report"`
	VerifiedReport    string           `json:"verified_report"`

	// Verification scores. HallucinationScore is 1 - FaithfulnessScore by
	// construction; stages must always set the pair together.
	FaithfulnessScore  float64 `json:"faithfulness_score"`
	HallucinationScore float64 `json:"hallucination_score"`

	// Control fields.
	RoutingDecision Decision `json:"routing_decision"`
	ReflectionCount int      `json:"reflection_count"`

	// Append-only logs. Never truncated or reordered.
	AgentTrace []string `json:"agent_trace"`
	ErrorLog   []string `json:"error_log"`
}

// NewState creates the initial state for one run. Everything except the
// identifiers starts at its zero value.
func NewState(query, filePath, sessionID string) State {
	return State{
		Query:            query,
		UploadedFilePath: filePath,
		SessionID:        sessionID,
	}
}

// RetrievalAttempted reports whether the retrieval stage has run, regardless
// of whether it found anything.
func (s State) RetrievalAttempted() bool {
	return s.RetrievedChunks != nil
}

// LastError returns the most recent error log entry, or "" if none.
func (s State) LastError() string {
	if len(s.ErrorLog) == 0 {
		return ""
	}
	return s.ErrorLog[len(s.ErrorLog)-1]
}

// Terminal reports whether the state satisfies the never-ambiguous contract:
// either a verified report exists or an explicit error was recorded.
func (s State) Terminal() bool {
	return s.VerifiedReport != "" || (s.RoutingDecision == DecisionError && len(s.ErrorLog) > 0)
}
