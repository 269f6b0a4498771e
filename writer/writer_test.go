package writer_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/yuga-i2/DOCUFORGE-AI/analysis"
	"github.com/yuga-i2/DOCUFORGE-AI/writer"
)

type mockLLM struct {
	response   string
	err        error
	lastPrompt string
}

func (m *mockLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	if len(messages) > 0 && len(messages[0].Parts) > 0 {
		if tc, ok := messages[0].Parts[0].(llms.TextContent); ok {
			m.lastPrompt = tc.Text
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.response}},
	}, nil
}

func (m *mockLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	m.lastPrompt = prompt
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func TestDraftReturnsModelOutput(t *testing.T) {
	t.Parallel()

	model := &mockLLM{response: "# Report\n\nRevenue grew 12%."}
	w := writer.New(model, 12000, nil)

	draft := w.Draft(context.Background(), writer.Input{
		Query:  "summarize revenue",
		Chunks: []string{"revenue grew 12% year over year"},
	})

	assert.Equal(t, "# Report\n\nRevenue grew 12%.", draft)
	assert.Contains(t, model.lastPrompt, "revenue grew 12% year over year")
	assert.Contains(t, model.lastPrompt, "summarize revenue")
}

func TestDraftStripsCodeFences(t *testing.T) {
	t.Parallel()

	model := &mockLLM{response: "```markdown\n# Report\n```"}
	w := writer.New(model, 12000, nil)

	draft := w.Draft(context.Background(), writer.Input{Query: "q", Chunks: []string{"c"}})
	assert.Equal(t, "# Report", draft)
}

func TestDraftNeverFails(t *testing.T) {
	t.Parallel()

	t.Run("model error yields placeholder", func(t *testing.T) {
		t.Parallel()
		w := writer.New(&mockLLM{err: errors.New("api down")}, 12000, nil)
		draft := w.Draft(context.Background(), writer.Input{Query: "q"})
		assert.Equal(t, writer.Placeholder, draft)
	})

	t.Run("empty completion yields placeholder", func(t *testing.T) {
		t.Parallel()
		w := writer.New(&mockLLM{response: "   "}, 12000, nil)
		draft := w.Draft(context.Background(), writer.Input{Query: "q"})
		assert.Equal(t, writer.Placeholder, draft)
	})
}

func TestDraftBoundsContext(t *testing.T) {
	t.Parallel()

	model := &mockLLM{response: "draft"}
	w := writer.New(model, 500, nil)

	huge := make([]string, 100)
	for i := range huge {
		huge[i] = strings.Repeat("filler content ", 20)
	}

	w.Draft(context.Background(), writer.Input{Query: "q", Chunks: huge})
	// Prompt scaffolding adds a fixed amount on top of the bounded context.
	assert.Less(t, len(model.lastPrompt), 2000)
}

func TestDraftReflectionPromptTightens(t *testing.T) {
	t.Parallel()

	model := &mockLLM{response: "revised"}
	w := writer.New(model, 12000, nil)

	w.Draft(context.Background(), writer.Input{
		Query:            "q",
		Chunks:           []string{"chunk"},
		Reflection:       1,
		PreviousDraft:    "the old draft",
		UnsupportedRatio: 0.4,
	})

	require.Contains(t, model.lastPrompt, "revision")
	assert.Contains(t, model.lastPrompt, "the old draft")
	assert.Contains(t, model.lastPrompt, "40%")

	first := model.lastPrompt
	w.Draft(context.Background(), writer.Input{Query: "q", Chunks: []string{"chunk"}, Reflection: 2})
	assert.NotEqual(t, first, model.lastPrompt)
	assert.Contains(t, model.lastPrompt, "final revision")
}

func TestDraftIncludesAnalysis(t *testing.T) {
	t.Parallel()

	model := &mockLLM{response: "draft"}
	w := writer.New(model, 12000, nil)

	w.Draft(context.Background(), writer.Input{
		Query:  "q",
		Chunks: []string{"chunk"},
		Analysis: &analysis.Result{
			Summary:    "Extracted 5 numeric values with mean 30.00.",
			KeyMetrics: map[string]float64{"mean": 30},
			Anomalies:  []string{"1000"},
		},
	})

	assert.Contains(t, model.lastPrompt, "mean 30.00")
	assert.Contains(t, model.lastPrompt, "anomalies: 1000")
}
