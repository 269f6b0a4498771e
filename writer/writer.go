// Package writer synthesizes retrieved chunks, optional web context, and
// analysis results into a markdown report draft. The writer never fails: any
// completion error yields a usable placeholder draft so the run proceeds to
// verification instead of crashing.
package writer

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"

	"github.com/yuga-i2/DOCUFORGE-AI/analysis"
	"github.com/yuga-i2/DOCUFORGE-AI/log"
)

// Placeholder is the draft produced when the completion collaborator fails.
// It is intentionally blank-equivalent content the verifier scores at zero.
const Placeholder = "Report generation failed; no grounded content is available for this query."

// Input carries everything one drafting pass needs.
type Input struct {
	Query      string
	Chunks     []string
	WebContext string
	Analysis   *analysis.Result

	// Reflection is the current regeneration iteration, zero on the first
	// pass. Retries get progressively stricter grounding instructions so
	// the loop applies a corrective signal instead of replaying an
	// identical prompt.
	Reflection int

	// PreviousDraft and UnsupportedRatio feed the revision prompt on
	// reflection passes.
	PreviousDraft    string
	UnsupportedRatio float64
}

// Writer drafts reports through a black-box completion model.
type Writer struct {
	Model           llms.Model
	MaxContextChars int
	Logger          log.Logger
}

// New creates a Writer. maxContextChars is the hard ceiling on prompt
// context; unbounded context growth across reflection iterations is a
// runaway-cost hazard, so the cap is enforced on every pass.
func New(model llms.Model, maxContextChars int, logger log.Logger) *Writer {
	if logger == nil {
		logger = log.NoOpLogger{}
	}
	if maxContextChars <= 0 {
		maxContextChars = 12000
	}
	return &Writer{
		Model:           model,
		MaxContextChars: maxContextChars,
		Logger:          logger,
	}
}

// Draft produces a report draft. It always returns non-empty text.
func (w *Writer) Draft(ctx context.Context, in Input) string {
	prompt := w.buildPrompt(in)

	completion, err := llms.GenerateFromSinglePrompt(ctx, w.Model, prompt)
	if err != nil {
		w.Logger.Error("writer: completion failed, returning placeholder: %v", err)
		return Placeholder
	}

	draft := strings.TrimSpace(completion)
	draft = strings.TrimPrefix(draft, "```markdown")
	draft = strings.TrimPrefix(draft, "```")
	draft = strings.TrimSuffix(draft, "```")
	draft = strings.TrimSpace(draft)

	if draft == "" {
		w.Logger.Warn("writer: model returned empty draft, returning placeholder")
		return Placeholder
	}
	return draft
}

func (w *Writer) buildPrompt(in Input) string {
	var sb strings.Builder

	sb.WriteString("You are a senior analyst writing a factual report strictly grounded in the provided source material. Use markdown with clear headings. Every statement must be traceable to the sources; do not add outside knowledge.\n")

	switch {
	case in.Reflection == 1:
		sb.WriteString("\nThis is a revision. A fact-check of your previous draft found ungrounded claims")
		if in.UnsupportedRatio > 0 {
			fmt.Fprintf(&sb, " (%.0f%% of claims unsupported)", in.UnsupportedRatio*100)
		}
		sb.WriteString(". Remove every statement you cannot point to in the sources, and make at least ten specific, checkable assertions.\n")
	case in.Reflection >= 2:
		sb.WriteString("\nThis is a final revision after repeated fact-check failures. Write ONLY sentences that paraphrase the source material directly. Quote figures verbatim. Omit any section you cannot ground.\n")
	}

	if in.PreviousDraft != "" && in.Reflection > 0 {
		sb.WriteString("\nPrevious draft (for reference, do not repeat its errors):\n")
		sb.WriteString(truncate(in.PreviousDraft, w.MaxContextChars/4))
		sb.WriteString("\n")
	}

	sb.WriteString("\n## Source material\n")
	sb.WriteString(w.boundedContext(in))

	if in.Analysis != nil && in.Analysis.Summary != "" {
		sb.WriteString("\n## Quantitative analysis\n")
		sb.WriteString(in.Analysis.Summary)
		sb.WriteString("\n")
		for name, value := range in.Analysis.KeyMetrics {
			fmt.Fprintf(&sb, "- %s: %g\n", name, value)
		}
		if len(in.Analysis.Anomalies) > 0 {
			fmt.Fprintf(&sb, "- anomalies: %s\n", strings.Join(in.Analysis.Anomalies, ", "))
		}
	}

	sb.WriteString("\n## Task\n")
	fmt.Fprintf(&sb, "Write the report answering: %s\n", in.Query)
	return sb.String()
}

// boundedContext assembles chunks and web context under the character
// ceiling, retrieved chunks first since they are the grounding material the
// verifier will check against.
func (w *Writer) boundedContext(in Input) string {
	var sb strings.Builder
	budget := w.MaxContextChars

	for i, chunk := range in.Chunks {
		entry := fmt.Sprintf("[chunk %d] %s\n\n", i+1, chunk)
		if len(entry) > budget {
			break
		}
		sb.WriteString(entry)
		budget -= len(entry)
	}

	if in.WebContext != "" && budget > 200 {
		sb.WriteString("### External context\n")
		sb.WriteString(truncate(in.WebContext, budget-20))
		sb.WriteString("\n")
	}

	if sb.Len() == 0 {
		return "(no source material retrieved)\n"
	}
	return sb.String()
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max]
}
