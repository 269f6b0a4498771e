package pipeline

import (
	"fmt"

	"github.com/yuga-i2/DOCUFORGE-AI/analysis"
)

// Field names accepted in a partial update. These mirror the State fields;
// the immutable identifiers are included so the driver can seed the state
// through the same mechanism stages use.
const (
	FieldQuery              = "query"
	FieldUploadedFilePath   = "uploaded_file_path"
	FieldFileFormat         = "file_format"
	FieldSessionID          = "session_id"
	FieldIngestedText       = "ingested_text"
	FieldRetrievedChunks    = "retrieved_chunks"
	FieldWebContext         = "web_context"
	FieldResearchAttempted  = "research_attempted"
	FieldAnalysisResult     = "analysis_result"
	FieldDraftReport        = "draft_report"
	FieldVerifiedReport     = "verified_report"
	FieldFaithfulnessScore  = "faithfulness_score"
	FieldHallucinationScore = "hallucination_score"
	FieldRoutingDecision    = "routing_decision"
	FieldReflectionCount    = "reflection_count"
	FieldAgentTrace         = "agent_trace"
	FieldErrorLog           = "error_log"
)

// mergeStrategy selects how a field is combined with an existing value.
type mergeStrategy int

const (
	overwrite mergeStrategy = iota
	appendList
)

// fieldPolicies is the single source of truth for merge behavior. Fields not
// listed here are not part of the state schema and are rejected when an
// update is constructed.
var fieldPolicies = map[string]mergeStrategy{
	FieldQuery:              overwrite,
	FieldUploadedFilePath:   overwrite,
	FieldFileFormat:         overwrite,
	FieldSessionID:          overwrite,
	FieldIngestedText:       overwrite,
	FieldRetrievedChunks:    overwrite,
	FieldWebContext:         overwrite,
	FieldResearchAttempted:  overwrite,
	FieldAnalysisResult:     overwrite,
	FieldDraftReport:        overwrite,
	FieldVerifiedReport:     overwrite,
	FieldFaithfulnessScore:  overwrite,
	FieldHallucinationScore: overwrite,
	FieldRoutingDecision:    overwrite,
	FieldReflectionCount:    overwrite,
	FieldAgentTrace:         appendList,
	FieldErrorLog:           appendList,
}

// Update is a validated partial state update: a mapping from field name to
// new value. Construct it with NewUpdate so schema violations surface at the
// stage boundary instead of silently disappearing in the merge.
type Update map[string]any

// ErrUnknownField is wrapped into errors returned by NewUpdate for keys that
// are not part of the state schema.
var ErrUnknownField = fmt.Errorf("unknown state field")

// NewUpdate validates field names and value types, failing fast on schema
// violations.
func NewUpdate(fields map[string]any) (Update, error) {
	u := make(Update, len(fields))
	for key, value := range fields {
		if _, ok := fieldPolicies[key]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, key)
		}
		if err := checkFieldType(key, value); err != nil {
			return nil, err
		}
		u[key] = value
	}
	return u, nil
}

// MustUpdate is NewUpdate for literal updates whose keys are compile-time
// constants. It panics on schema violations, which for constant keys are
// programming errors.
func MustUpdate(fields map[string]any) Update {
	u, err := NewUpdate(fields)
	if err != nil {
		panic(err)
	}
	return u
}

func checkFieldType(key string, value any) error {
	var ok bool
	switch key {
	case FieldQuery, FieldUploadedFilePath, FieldFileFormat, FieldSessionID,
		FieldIngestedText, FieldWebContext, FieldDraftReport, FieldVerifiedReport:
		_, ok = value.(string)
	case FieldRetrievedChunks, FieldAgentTrace, FieldErrorLog:
		_, ok = value.([]string)
	case FieldResearchAttempted:
		_, ok = value.(bool)
	case FieldAnalysisResult:
		_, ok = value.(*analysis.Result)
	case FieldFaithfulnessScore, FieldHallucinationScore:
		_, ok = value.(float64)
	case FieldRoutingDecision:
		if _, isDecision := value.(Decision); isDecision {
			ok = true
		} else {
			_, ok = value.(string)
		}
	case FieldReflectionCount:
		_, ok = value.(int)
	}
	if !ok {
		return fmt.Errorf("invalid value type %T for state field %q", value, key)
	}
	return nil
}

// Merge applies a validated partial update to a state and returns the new
// state. Append-only fields have the update's entries appended; every other
// field present in the update overwrites the current value. The operation is
// pure and total: the inputs are never mutated, the empty update returns the
// state unchanged, and keys that somehow bypassed validation are skipped.
func Merge(s State, u Update) State {
	for key, value := range u {
		if fieldPolicies[key] == appendList {
			entries, ok := value.([]string)
			if !ok {
				continue
			}
			switch key {
			case FieldAgentTrace:
				s.AgentTrace = appendCopy(s.AgentTrace, entries)
			case FieldErrorLog:
				s.ErrorLog = appendCopy(s.ErrorLog, entries)
			}
			continue
		}

		switch key {
		case FieldQuery:
			s.Query, _ = value.(string)
		case FieldUploadedFilePath:
			s.UploadedFilePath, _ = value.(string)
		case FieldFileFormat:
			s.FileFormat, _ = value.(string)
		case FieldSessionID:
			s.SessionID, _ = value.(string)
		case FieldIngestedText:
			s.IngestedText, _ = value.(string)
		case FieldRetrievedChunks:
			s.RetrievedChunks, _ = value.([]string)
		case FieldWebContext:
			s.WebContext, _ = value.(string)
		case FieldResearchAttempted:
			s.ResearchAttempted, _ = value.(bool)
		case FieldAnalysisResult:
			s.AnalysisResult, _ = value.(*analysis.Result)
		case FieldDraftReport:
			s.DraftReport, _ = value.(string)
		case FieldVerifiedReport:
			s.VerifiedReport, _ = value.(string)
		case FieldFaithfulnessScore:
			s.FaithfulnessScore, _ = value.(float64)
		case FieldHallucinationScore:
			s.HallucinationScore, _ = value.(float64)
		case FieldRoutingDecision:
			if d, isDecision := value.(Decision); isDecision {
				s.RoutingDecision = d
			} else if str, isString := value.(string); isString {
				s.RoutingDecision = Decision(str)
			}
		case FieldReflectionCount:
			s.ReflectionCount, _ = value.(int)
		}
	}
	return s
}

// appendCopy appends without aliasing the input slices, so the caller's view
// of the previous state is never mutated through shared backing arrays.
func appendCopy(current, entries []string) []string {
	out := make([]string, 0, len(current)+len(entries))
	out = append(out, current...)
	out = append(out, entries...)
	return out
}

// Schema adapts the state and its merge semantics to the graph engine.
type Schema struct{}

// Init returns the zero-value state.
func (Schema) Init() State { return State{} }

// Apply validates then merges a stage update into the current state.
func (Schema) Apply(s State, u Update) (State, error) {
	validated, err := NewUpdate(u)
	if err != nil {
		return s, err
	}
	return Merge(s, validated), nil
}
