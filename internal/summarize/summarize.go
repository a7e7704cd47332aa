// Package summarize turns captured session context into short
// natural-language text: a one-line summary, suggested next steps, and
// a conversational "what was I doing" explanation.
//
// Two strategies exist: a model-backed one and a rule-based one. The
// model strategy is preferred when a client is configured; any model
// failure degrades silently to the rule strategy, so these operations
// never fail outright for lack of an API key or network.
package summarize

import (
	"context"
	"log/slog"

	"github.com/recaplabs/recap/internal/capsule"
	"github.com/recaplabs/recap/internal/llm"
)

// NoChangesSummary is returned when a capture holds no file changes.
const NoChangesSummary = "No code changes detected. Session captured for tracking."

type strategy interface {
	summary(ctx context.Context, c *capsule.Capsule) (string, error)
	nextSteps(ctx context.Context, c *capsule.Capsule) ([]string, error)
	why(ctx context.Context, c *capsule.Capsule, question string, fileContents map[string]string) (string, error)
}

// Summarizer produces summaries for capsules. The zero value is not
// usable; construct with New.
type Summarizer struct {
	ai   strategy // nil when no model is configured
	rule ruleStrategy
	log  *slog.Logger
}

// New builds a Summarizer. client may be nil, in which case every
// operation uses the rule-based strategy.
func New(client llm.Client, logger *slog.Logger) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Summarizer{log: logger}
	if client != nil {
		s.ai = &aiStrategy{client: client}
	}
	return s
}

// AIAvailable reports whether a model client is configured.
func (s *Summarizer) AIAvailable() bool { return s.ai != nil }

// Summary produces a one-line summary of the session. Sessions with no
// file changes return NoChangesSummary without touching the model.
func (s *Summarizer) Summary(ctx context.Context, c *capsule.Capsule) string {
	if len(c.Context.FileDiffs) == 0 {
		return NoChangesSummary
	}
	if s.ai != nil {
		text, err := s.ai.summary(ctx, c)
		if err == nil {
			return text
		}
		s.log.Warn("model summary failed, using rule-based fallback", "error", err)
	}
	text, _ := s.rule.summary(ctx, c)
	return text
}

// NextSteps suggests up to four next steps for the session.
func (s *Summarizer) NextSteps(ctx context.Context, c *capsule.Capsule) []string {
	if s.ai != nil {
		steps, err := s.ai.nextSteps(ctx, c)
		if err == nil && len(steps) > 0 {
			return steps
		}
		if err != nil {
			s.log.Warn("model next-steps failed, using rule-based fallback", "error", err)
		}
	}
	steps, _ := s.rule.nextSteps(ctx, c)
	return steps
}

// ExplainWhy answers "what was I doing" in two or three conversational
// sentences. question optionally focuses the answer; fileContents are
// files the user explicitly asked about, included verbatim in the model
// context.
func (s *Summarizer) ExplainWhy(ctx context.Context, c *capsule.Capsule, question string, fileContents map[string]string) string {
	if s.ai == nil {
		text, _ := s.rule.why(ctx, c, question, fileContents)
		return text
	}
	if len(c.Context.FileDiffs) == 0 && len(fileContents) == 0 {
		return "No code changes in this session - just tracking activity."
	}
	text, err := s.ai.why(ctx, c, question, fileContents)
	if err == nil {
		return text
	}
	s.log.Warn("model explanation failed, using rule-based fallback", "error", err)
	text, _ = s.rule.why(ctx, c, question, fileContents)
	return text
}
