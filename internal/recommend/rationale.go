package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/noooah2000/solve-next/internal/llm"
)

// ErrRationaleUnavailable indicates the external rationale generator
// failed or timed out. The ranked result itself is unaffected; the caller
// may retry or fall back to the deterministic factor summary.
type ErrRationaleUnavailable struct {
	Err error
}

func (e *ErrRationaleUnavailable) Error() string {
	return fmt.Sprintf("rationale unavailable: %v", e.Err)
}

func (e *ErrRationaleUnavailable) Unwrap() error { return e.Err }

var rationaleSchema = &llm.Schema{
	Name:        "recommendation-rationale",
	Description: "A short natural-language explanation of why a problem was recommended.",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"rationale": map[string]any{
				"type":        "string",
				"description": "One or two sentences explaining the recommendation.",
			},
		},
		"required":             []any{"rationale"},
		"additionalProperties": false,
	},
}

// Explainer turns a candidate's contributing factors into a reader-facing
// rationale via the external generator. The deterministic core never
// depends on it: scores and factors are final before Explain is called.
type Explainer struct {
	provider llm.Provider
	timeout  time.Duration
}

// NewExplainer creates an explainer. A zero timeout defaults to 10s.
func NewExplainer(provider llm.Provider, timeout time.Duration) *Explainer {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Explainer{provider: provider, timeout: timeout}
}

// Explain generates rationale text for one ranked candidate. Failures and
// timeouts surface as ErrRationaleUnavailable; they are never retried
// here — that is the caller's decision.
func (e *Explainer) Explain(ctx context.Context, rc RankedCandidate) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	ctx = llm.WithPurpose(ctx, "rationale")

	resp, err := e.provider.Generate(ctx, llm.Request{
		System: "You are a coding interview coach. Explain recommendations in plain, " +
			"encouraging language. Never invent data beyond the factors you are given.",
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: rationalePrompt(rc)},
		},
		Schema:    rationaleSchema,
		MaxTokens: 256,
	})
	if err != nil {
		return "", &ErrRationaleUnavailable{Err: err}
	}

	var out struct {
		Rationale string `json:"rationale"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return "", &ErrRationaleUnavailable{Err: fmt.Errorf("decode rationale: %w", err)}
	}
	return out.Rationale, nil
}

func rationalePrompt(rc RankedCandidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Problem: %s (%s, %s)\n", rc.Problem.Title, rc.Problem.Difficulty, topicList(rc))
	fmt.Fprintf(&b, "Total score: %.3f\n", rc.Score)
	b.WriteString("Score breakdown:\n")
	fmt.Fprintf(&b, "- skill gap contribution: %.3f\n", rc.ContributingFactors[FactorGap])
	fmt.Fprintf(&b, "- novelty contribution: %.3f\n", rc.ContributingFactors[FactorNovelty])
	fmt.Fprintf(&b, "- filter match contribution: %.3f\n", rc.ContributingFactors[FactorMatch])
	b.WriteString("\nExplain in one or two sentences why this problem is a good next pick for the user.")
	return b.String()
}

func topicList(rc RankedCandidate) string {
	parts := make([]string, len(rc.Problem.Topics))
	for i, t := range rc.Problem.Topics {
		parts[i] = string(t)
	}
	return strings.Join(parts, ", ")
}

// FallbackRationale builds a deterministic explanation straight from the
// contributing factors, for when the generator is unavailable.
func FallbackRationale(rc RankedCandidate) string {
	dominant := FactorGap
	for _, f := range []FactorName{FactorNovelty, FactorMatch} {
		if rc.ContributingFactors[f] > rc.ContributingFactors[dominant] {
			dominant = f
		}
	}

	switch dominant {
	case FactorNovelty:
		return fmt.Sprintf("%s is fresh territory for you, which makes it a good way to broaden your practice.", rc.Problem.Title)
	case FactorMatch:
		return fmt.Sprintf("%s closely matches the filters you asked for.", rc.Problem.Title)
	default:
		return fmt.Sprintf("%s exercises topics where your recent results show the most room to grow.", rc.Problem.Title)
	}
}
