package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "google.golang.org/genai"

	recaperr "github.com/recaplabs/recap/internal/errors"
)

// GeminiClient is a thin wrapper around the official genai client.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

// NewGeminiClient builds a client for the given API key and model name.
func NewGeminiClient(ctx context.Context, apiKey, model string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, recaperr.NewModelFailure(fmt.Errorf("creating model client: %w", err))
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

// Name identifies the backing model.
func (g *GeminiClient) Name() string { return "Gemini:" + g.model }

// Generate makes exactly one GenerateContent call. No retries: a failed
// or empty response surfaces as a model-failure error and the caller
// decides whether to degrade.
func (g *GeminiClient) Generate(ctx context.Context, prompt string, maxTokens int32) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{
			MaxOutputTokens: maxTokens,
			Temperature:     genai.Ptr[float32](0.3),
		},
	)
	if err != nil {
		return "", recaperr.NewModelFailure(fmt.Errorf("model call failed: %w", err))
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", recaperr.NewModelFailure(errors.New("model returned no candidates"))
	}
	text := strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text)
	if text == "" {
		return "", recaperr.NewModelFailure(errors.New("model returned empty text"))
	}
	return text, nil
}
