package verify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// chatClient is the slice of the OpenAI client the judge needs; it exists so
// tests can substitute a fake.
type chatClient interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// LLMJudge implements Extractor with an OpenAI-compatible chat model asked
// to decompose a report into claims and judge each one against the source.
type LLMJudge struct {
	client chatClient
	model  string
}

// NewLLMJudge creates a judge using the given API key, model, and optional
// base URL (for OpenAI-compatible endpoints).
func NewLLMJudge(apiKey, model, baseURL string) *LLMJudge {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &LLMJudge{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// NewLLMJudgeWithClient creates a judge around an existing client.
func NewLLMJudgeWithClient(client *openai.Client, model string) *LLMJudge {
	return &LLMJudge{client: client, model: model}
}

const judgeSystemPrompt = `You are a strict fact-checker. Decompose the given report into discrete, atomic factual claims. For every claim decide whether it is directly supported by the provided source material.

Respond with JSON only, in this exact shape:
{"claims": [{"claim": "...", "verdict": 1, "evidence": "quote from source or empty"}]}

verdict is 1 when the claim is supported by the source, 0 when it is not. Do not invent evidence. Opinions, hedged statements, and formatting text are not claims.`

type judgeResponse struct {
	Claims []Claim `json:"claims"`
}

// ExtractClaims asks the judge model for a claim list with verdicts. A
// malformed or unparseable response is returned as an error; the scorer
// degrades it to a neutral measurement.
func (j *LLMJudge) ExtractClaims(ctx context.Context, report, source string) ([]Claim, error) {
	user := fmt.Sprintf("Source material:\n%s\n\nReport to check:\n%s", source, report)

	resp, err := j.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       j.model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: judgeSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claim extraction request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("claim extraction returned no choices")
	}

	return parseClaims(resp.Choices[0].Message.Content)
}

// parseClaims decodes the judge's JSON, tolerating markdown code fences some
// models wrap around it.
func parseClaims(content string) ([]Claim, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	var parsed judgeResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("malformed claim extraction response: %w", err)
	}

	for i := range parsed.Claims {
		parsed.Claims[i].Supported = parsed.Claims[i].Verdict == 1
	}
	return parsed.Claims, nil
}
