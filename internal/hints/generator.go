package hints

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/noooah2000/solve-next/internal/attempts"
	"github.com/noooah2000/solve-next/internal/catalog"
	"github.com/noooah2000/solve-next/internal/llm"
	"github.com/noooah2000/solve-next/internal/proficiency"
)

// GenerateRequest carries everything a generator needs to produce a
// single hint tier for one problem.
type GenerateRequest struct {
	Problem catalog.Problem
	Tier    attempts.HintTier

	// PriorHints holds the tiers already unlocked in this session so a
	// later hint can build on them instead of repeating.
	PriorHints map[attempts.HintTier]string

	// Proficiency is the user's current estimate for the problem's
	// topics, used to pitch the hint at the right level.
	Proficiency []proficiency.TopicProficiency
}

// Generator produces hint text for one tier of one problem.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// LLMGenerator produces hints through a text generation provider with a
// per-tier content policy: Concept and Approach never reveal the
// solution, Implementation walks the key steps without complete code.
type LLMGenerator struct {
	provider llm.Provider
	timeout  time.Duration
}

// NewLLMGenerator wraps a provider. A non-positive timeout falls back to
// the default.
func NewLLMGenerator(provider llm.Provider, timeout time.Duration) *LLMGenerator {
	if timeout <= 0 {
		timeout = DefaultConfig().GenerateTimeout
	}
	return &LLMGenerator{provider: provider, timeout: timeout}
}

var hintSchema = &llm.Schema{
	Name:        "problem-hint",
	Description: "A single progressive hint for a coding problem",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"hint": map[string]any{
				"type":        "string",
				"description": "The hint text, two to four sentences",
			},
		},
		"required":             []any{"hint"},
		"additionalProperties": false,
	},
}

func (g *LLMGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	ctx = llm.WithPurpose(ctx, "hint-"+req.Tier.String())

	resp, err := g.provider.Generate(ctx, llm.Request{
		System:      tierSystemPrompt(req.Tier),
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: buildHintPrompt(req)}},
		Schema:      hintSchema,
		MaxTokens:   500,
		Temperature: 0.4,
	})
	if err != nil {
		return "", err
	}

	var out struct {
		Hint string `json:"hint"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return "", fmt.Errorf("decoding hint response: %w", err)
	}
	if strings.TrimSpace(out.Hint) == "" {
		return "", fmt.Errorf("generator returned an empty hint")
	}
	return strings.TrimSpace(out.Hint), nil
}

func tierSystemPrompt(tier attempts.HintTier) string {
	base := "You are a coding interview coach. Give one short hint for the problem. "
	switch tier {
	case attempts.TierConcept:
		return base + "Name only the concept or pattern family involved. Never mention a specific algorithm, data structure, or any part of the solution."
	case attempts.TierApproach:
		return base + "Name the data structure or algorithm to use and the key insight behind it. Do not give implementation steps or code."
	case attempts.TierImplementation:
		return base + "Walk through the key implementation steps in prose or brief pseudocode. Do not provide complete, runnable code."
	default:
		return base
	}
}

func buildHintPrompt(req GenerateRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Problem: %s (%s)\n", req.Problem.Title, req.Problem.Difficulty)
	if len(req.Problem.Topics) > 0 {
		names := make([]string, len(req.Problem.Topics))
		for i, t := range req.Problem.Topics {
			names[i] = string(t)
		}
		fmt.Fprintf(&b, "Topics: %s\n", strings.Join(names, ", "))
	}
	if req.Problem.URL != "" {
		fmt.Fprintf(&b, "URL: %s\n", req.Problem.URL)
	}

	for _, p := range req.Proficiency {
		fmt.Fprintf(&b, "User proficiency in %s/%s: %.2f over %d attempts\n",
			p.Topic, p.Difficulty, p.Score, p.SampleCount)
	}

	// Earlier tiers give the later hint something to build on.
	for _, tier := range []attempts.HintTier{attempts.TierConcept, attempts.TierApproach} {
		if prior, ok := req.PriorHints[tier]; ok && tier < req.Tier {
			fmt.Fprintf(&b, "Hint already given (%s): %s\n", tier, prior)
		}
	}

	fmt.Fprintf(&b, "\nGive the %s-level hint now. Do not repeat earlier hints.", req.Tier)
	return b.String()
}

// FallbackHint returns a deterministic hint when no generator is
// available. It is generic but tier-appropriate, leaning on the
// problem's topic tags where present.
func FallbackHint(problem catalog.Problem, tier attempts.HintTier) string {
	topic := "the problem's core pattern"
	if len(problem.Topics) > 0 {
		topic = string(problem.Topics[0])
	}
	switch tier {
	case attempts.TierConcept:
		return fmt.Sprintf("Think about what category of problem this is. The tags suggest %s; ask yourself what makes problems in that family tractable.", topic)
	case attempts.TierApproach:
		return fmt.Sprintf("Consider the standard technique for %s problems at %s difficulty. What data structure would let you answer the key question in better than brute-force time?", topic, problem.Difficulty)
	case attempts.TierImplementation:
		return "Sketch the solution in steps first: initialize your state, define the loop invariant, handle the update on each element, then work out the edge cases (empty input, single element, duplicates) before writing code."
	default:
		return "Re-read the problem statement and restate it in your own words before coding."
	}
}
