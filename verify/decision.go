package verify

// DecisionType is the verdict of the reflection controller after one
// verification pass.
type DecisionType string

const (
	// Accept finalizes the draft as the verified report.
	Accept DecisionType = "accept"
	// Regenerate sends the run back to the writer with the same retrieved
	// context.
	Regenerate DecisionType = "regenerate"
)

// Thresholds configures the reflection controller.
type Thresholds struct {
	// MinFaithfulness is the acceptance floor for the faithfulness score.
	MinFaithfulness float64
	// MaxReflectionLoops bounds the writer<->verifier retry cycle.
	MaxReflectionLoops int
}

// Decide applies the bounded-retry policy: regenerate iff the measurement
// warrants it AND reflection budget remains; otherwise accept, even when the
// score is still below threshold. Budget exhaustion is best-effort delivery,
// not silent failure — the low score stays visible in the final state.
//
// Two outcomes accept unconditionally:
//   - an empty draft: there is nothing to regenerate against;
//   - no source material: regeneration cannot conjure sources, so retrying
//     would only burn budget against the same neutral score.
//
// A failed measurement (extraction error) carries the neutral score, which
// sits below any sensible threshold; with budget remaining this retries the
// measurement, without it the neutral score is surfaced as-is.
func Decide(out Outcome, reflectionCount int, t Thresholds) DecisionType {
	if out.EmptyDraft || out.NoSource {
		return Accept
	}

	belowThreshold := out.Faithfulness < t.MinFaithfulness
	if !belowThreshold && !out.InsufficientSample {
		return Accept
	}

	if reflectionCount < t.MaxReflectionLoops {
		return Regenerate
	}
	return Accept
}
