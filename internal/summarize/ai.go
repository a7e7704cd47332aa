package summarize

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/recaplabs/recap/internal/capsule"
	"github.com/recaplabs/recap/internal/digest"
	"github.com/recaplabs/recap/internal/llm"
)

// Output token budgets per operation.
const (
	summaryMaxTokens   = 200
	nextStepsMaxTokens = 150
	whyMaxTokens       = 200
)

// minSummaryLen guards against degenerate model output; anything
// shorter is treated as a failure so the rule fallback runs.
const minSummaryLen = 10

// aiStrategy generates text with a single model call per operation.
type aiStrategy struct {
	client llm.Client
}

func (a *aiStrategy) summary(ctx context.Context, c *capsule.Capsule) (string, error) {
	d := digest.Build(&c.Context, c.Project.Branch)

	prompt := fmt.Sprintf(`Summarize the changes in ONE concise sentence.

CRITICAL: Only describe changes shown in the "Code changes:" section below.
DO NOT reference commit history, previous work, or anything not in the diffs.

%s

Read the changes:
- "Code changes:" = actual code modifications (REMOVED/ADDED lines)
- "Comment/TODO changes:" = comments and TODOs (NOT code!)

Rules:
- ONE sentence maximum (or two very short sentences)
- Be specific about what code changed in THIS session only
- Don't confuse comments with code
- Mention function names if functions were added/removed
- State facts only, no fluff
- NEVER mention "refactored", "previously added", or historical work

Examples:
- "Changed print statement from 'Hello' to 'Hello 2.0' and added TODO."
- "Added Lcm function to mathutil.go."
- "Modified database connection string."
- "Added CalculateVIPCashback method with tier-based cashback rates."

Your turn - ONE sentence describing ONLY the current session changes:`, d)

	text, err := a.client.Generate(ctx, prompt, summaryMaxTokens)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if len(text) < minSummaryLen {
		return "", errors.New("model response too short")
	}
	return text, nil
}

func (a *aiStrategy) nextSteps(ctx context.Context, c *capsule.Capsule) ([]string, error) {
	d := digest.Build(&c.Context, c.Project.Branch)

	prompt := fmt.Sprintf(`Based on this session, suggest 3-4 next steps.

%s

Return ONLY a list with "-" prefix, like:
- Complete authentication flow
- Add unit tests
- Handle edge cases`, d)

	text, err := a.client.Generate(ctx, prompt, nextStepsMaxTokens)
	if err != nil {
		return nil, err
	}
	steps := parseSteps(text)
	if len(steps) > 4 {
		steps = steps[:4]
	}
	return steps, nil
}

func (a *aiStrategy) why(ctx context.Context, c *capsule.Capsule, question string, fileContents map[string]string) (string, error) {
	d := digest.Build(&c.Context, c.Project.Branch)

	if len(fileContents) > 0 {
		var sb strings.Builder
		sb.WriteString(d)
		sb.WriteString("\n\nFile Contents (user asked about these files):")
		names := make([]string, 0, len(fileContents))
		for name := range fileContents {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&sb, "\n\nFile: %s\n```\n%s\n```", name, fileContents[name])
		}
		d = sb.String()
	}

	var task, detail string
	if question != "" {
		task = "Answer this specific question: " + question
		detail = "Focus your answer specifically on what the user asked about. If they asked about a file's contents and you have it under 'File Contents', describe what's actually in the file."
	} else {
		task = "Summarize what was done and what remains, like a mentor talking to a colleague."
		detail = `Write naturally, like you're catching someone up on their work. NO markdown formatting, NO asterisks, NO structured headings.

TONE: Casual, direct, conversational - like a senior dev checking in.

EXAMPLES:

GOOD: "You added a basic addition function to calculator.go. Two TODOs left: adding multiplication/division and implementing user input."

GOOD: "You refactored the auth module to use JWT tokens instead of sessions. Still need to add refresh token logic and test edge cases."

BAD: "**What you did:** You added..." (NO markdown formatting!)

BAD: "You implemented a fundamental arithmetic operation, laying the groundwork..." (Too flowery!)

RULES:
- Maximum 2-3 sentences
- Plain text only, no markdown, no asterisks, no formatting
- Conversational tone
- State what was done + what remains (if TODOs exist)
- No glorification, just facts`
	}

	prompt := fmt.Sprintf(`You are Recap, a direct and concise coding assistant. Use "You" to address the developer.

%s

%s

%s

CRITICAL RULES:
- Maximum 3 sentences
- No glorification or hype
- Just facts: what was done + what's next
- List TODOs if present
- Be professional but casual, like a colleague

WORD BANS: "laying groundwork", "paving the way", "enhancing capabilities", "fundamental", "revolutionary", "game-changing", "innovative", "groundbreaking", "likely", "probably", "may have", "might", "possibly"`, d, task, detail)

	text, err := a.client.Generate(ctx, prompt, whyMaxTokens)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// parseSteps extracts "-"-prefixed list items from model output,
// ignoring any surrounding prose.
func parseSteps(text string) []string {
	var steps []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") {
			continue
		}
		step := strings.TrimSpace(strings.TrimLeft(line, "- "))
		if step != "" {
			steps = append(steps, step)
		}
	}
	return steps
}
