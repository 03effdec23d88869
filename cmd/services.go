package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/noooah2000/solve-next/internal/hints"
	"github.com/noooah2000/solve-next/internal/llm"
	"github.com/noooah2000/solve-next/internal/proficiency"
	"github.com/noooah2000/solve-next/internal/recommend"
	"github.com/noooah2000/solve-next/internal/store"
)

// newRecommendService builds the recommendation service over the store.
func newRecommendService(s *store.Store) (*recommend.Service, error) {
	profCfg := proficiency.ConfigFromEnv()
	if err := profCfg.Validate(); err != nil {
		return nil, fmt.Errorf("proficiency config: %w", err)
	}
	rankCfg := recommend.ConfigFromEnv()
	if err := rankCfg.Validate(); err != nil {
		return nil, fmt.Errorf("ranking config: %w", err)
	}
	est := proficiency.NewEstimator(profCfg, slog.Default())
	return recommend.NewService(est, rankCfg, s.AttemptRepo(), s.ProblemRepo()), nil
}

// newProvider builds the configured generator provider with request
// logging, or reports that none is configured.
func newProvider(ctx context.Context, s *store.Store) (llm.Provider, llm.Config, error) {
	cfg, ok := llm.DiscoverConfig()
	if !ok {
		return nil, cfg, fmt.Errorf("no generator API key configured (set GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY or OPENROUTER_API_KEY)")
	}
	p, err := llm.NewProvider(ctx, cfg, s.EventRepo())
	if err != nil {
		return nil, cfg, err
	}
	return p, cfg, nil
}

// newHintController builds the hint escalation controller. When no
// generator is configured the deterministic fallback hints serve
// instead.
func newHintController(ctx context.Context, s *store.Store, svc *recommend.Service) (*hints.Controller, error) {
	cfg := hints.ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("hint config: %w", err)
	}

	var gen hints.Generator
	if p, llmCfg, err := newProvider(ctx, s); err == nil {
		// Transient provider faults retry here, at the caller boundary.
		gen = hints.NewLLMGenerator(llm.WithRetry(p, llmCfg.Retry), cfg.GenerateTimeout)
	} else {
		slog.Info("no generator configured, using built-in hints", "reason", err)
		cfg.UseFallback = true
		gen = failingGenerator{}
	}
	return hints.NewController(cfg, s, gen, svc, slog.Default()), nil
}

// failingGenerator always fails, which routes every request to the
// controller's fallback hints.
type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, hints.GenerateRequest) (string, error) {
	return "", fmt.Errorf("no generator provider configured")
}
