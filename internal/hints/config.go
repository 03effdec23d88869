package hints

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds escalation gate parameters.
type Config struct {
	// ConceptDwell is the minimum time a user must sit with the Concept
	// hint before Approach unlocks (unless a failed submission arrives
	// first).
	ConceptDwell time.Duration

	// ApproachDwell is the analogous gate between Approach and
	// Implementation.
	ApproachDwell time.Duration

	// GenerateTimeout bounds a single hint generation call.
	GenerateTimeout time.Duration

	// UseFallback serves a deterministic built-in hint when the
	// external generator fails, instead of surfacing the failure. The
	// tier still unlocks normally.
	UseFallback bool
}

// DefaultConfig returns the standard escalation parameters.
func DefaultConfig() Config {
	return Config{
		ConceptDwell:    60 * time.Second,
		ApproachDwell:   120 * time.Second,
		GenerateTimeout: 15 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset or unparsable values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("SOLVENEXT_CONCEPT_DWELL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ConceptDwell = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("SOLVENEXT_APPROACH_DWELL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ApproachDwell = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("SOLVENEXT_HINT_FALLBACK"); v != "" {
		cfg.UseFallback = v == "1" || v == "true"
	}
	return cfg
}

// Validate rejects nonsensical gate parameters.
func (c Config) Validate() error {
	if c.ConceptDwell < 0 || c.ApproachDwell < 0 {
		return fmt.Errorf("dwell times must be non-negative")
	}
	if c.GenerateTimeout <= 0 {
		return fmt.Errorf("generate timeout must be positive, got %s", c.GenerateTimeout)
	}
	return nil
}
