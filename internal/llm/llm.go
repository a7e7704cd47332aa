// Package llm provides the model client used to turn session digests
// into natural-language text. The rest of the codebase talks to the
// Client interface so tests can substitute a fake.
package llm

import "context"

// Client generates free-form text from a prompt. Implementations make
// at most one model call per Generate; callers that want graceful
// degradation fall back to rule-based text on error.
type Client interface {
	// Generate returns the model's text for prompt, bounded by
	// maxTokens output tokens.
	Generate(ctx context.Context, prompt string, maxTokens int32) (string, error)
}
