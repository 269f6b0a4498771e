// Package verify measures how faithfully a draft report reflects its source
// material. The draft is decomposed into discrete factual claims, each claim
// receives a binary supported/unsupported verdict against the source, and
// the faithfulness score is the supported fraction — guarded by a minimum
// sample size so a vague draft with one trivially true claim cannot pass.
package verify

import (
	"context"
	"strings"

	"github.com/yuga-i2/DOCUFORGE-AI/log"
)

// Claim is a single factual assertion extracted from a draft report,
// independently checkable against source material.
type Claim struct {
	Text      string `json:"claim"`
	Supported bool   `json:"-"`
	Verdict   int    `json:"verdict"` // 1 supported, 0 unsupported
	Evidence  string `json:"evidence"`
}

// Extractor is the LLM-judge collaborator. It decomposes a report into
// claims with verdicts; the scorer only consumes this structured output and
// enforces the sample-size guard itself.
type Extractor interface {
	ExtractClaims(ctx context.Context, report, source string) ([]Claim, error)
}

// NeutralScore is used when faithfulness cannot be measured: either no
// source material exists or claim extraction itself failed. Neutral avoids
// both falsely failing and falsely passing an unmeasurable report.
const NeutralScore = 0.5

// Outcome is the result of one verification pass.
type Outcome struct {
	Faithfulness  float64
	Hallucination float64 // always exactly 1 - Faithfulness

	TotalClaims     int
	SupportedClaims int

	// EmptyDraft marks a blank report: there is nothing to regenerate
	// against, so the run accepts the failure terminally.
	EmptyDraft bool

	// NoSource marks runs with no retrieval context; the score is neutral
	// ("cannot verify") rather than zero ("definitely unfaithful").
	NoSource bool

	// InsufficientSample is set when fewer than the configured minimum
	// number of claims were extracted. This is a measurement failure
	// distinct from a low score; it forces regeneration while budget
	// remains.
	InsufficientSample bool

	// MeasurementFailed is set when claim extraction errored (malformed
	// response, parse failure) and the neutral fallback was applied.
	MeasurementFailed bool
}

// Scorer computes faithfulness outcomes for drafts.
type Scorer struct {
	Extractor Extractor
	MinClaims int
	Logger    log.Logger
}

// NewScorer builds a scorer around an extractor. minClaims at or below zero
// disables the sample-size guard.
func NewScorer(extractor Extractor, minClaims int, logger log.Logger) *Scorer {
	if logger == nil {
		logger = log.NoOpLogger{}
	}
	return &Scorer{Extractor: extractor, MinClaims: minClaims, Logger: logger}
}

// Score verifies a draft against the retrieved source chunks. It never
// returns an error: unmeasurable drafts degrade to the neutral score and the
// outcome flags record why.
func (s *Scorer) Score(ctx context.Context, draft string, chunks []string) Outcome {
	if strings.TrimSpace(draft) == "" {
		s.Logger.Warn("verifier: empty draft, accepting placeholder with zero score")
		return outcomeWithScore(0.0, Outcome{EmptyDraft: true})
	}

	source := joinSource(chunks)
	if source == "" {
		s.Logger.Warn("verifier: no source material, cannot verify")
		return outcomeWithScore(NeutralScore, Outcome{NoSource: true})
	}

	claims, err := s.Extractor.ExtractClaims(ctx, draft, source)
	if err != nil {
		s.Logger.Error("verifier: claim extraction failed: %v", err)
		return outcomeWithScore(NeutralScore, Outcome{MeasurementFailed: true})
	}

	supported := 0
	for _, c := range claims {
		if c.Supported || c.Verdict == 1 {
			supported++
		}
	}

	out := Outcome{
		TotalClaims:     len(claims),
		SupportedClaims: supported,
	}

	if len(claims) < s.MinClaims {
		// Too few claims to measure anything; an average over an
		// undersized sample is not a score.
		s.Logger.Warn("verifier: only %d claims extracted (minimum %d), rejecting sample",
			len(claims), s.MinClaims)
		out.InsufficientSample = true
		return outcomeWithScore(0.0, out)
	}

	score := float64(supported) / float64(len(claims))
	s.Logger.Info("verifier: %d/%d claims supported, faithfulness %.3f",
		supported, len(claims), score)
	return outcomeWithScore(score, out)
}

// outcomeWithScore sets the score pair, keeping the complement invariant in
// one place.
func outcomeWithScore(faithfulness float64, out Outcome) Outcome {
	out.Faithfulness = faithfulness
	out.Hallucination = 1 - faithfulness
	return out
}

func joinSource(chunks []string) string {
	var parts []string
	for _, c := range chunks {
		if strings.TrimSpace(c) != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, "\n\n")
}
