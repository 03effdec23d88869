package proficiency

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds estimator parameters.
type Config struct {
	// Decay is the per-step exponential decay applied over attempt index.
	// Must be in (0, 1). Higher values weight history more evenly; lower
	// values let recent attempts dominate faster.
	Decay float64

	// HintedCredit is the partial success credit granted to a solve that
	// used hints. Range [0, 1].
	HintedCredit float64
}

// DefaultConfig returns the standard estimator parameters.
func DefaultConfig() Config {
	return Config{
		Decay:        0.85,
		HintedCredit: 0.5,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset or unparsable values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if v := os.Getenv("SOLVENEXT_PROFICIENCY_DECAY"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Decay = f
		}
	}
	if v := os.Getenv("SOLVENEXT_HINTED_CREDIT"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.HintedCredit = f
		}
	}
	return cfg
}

// Validate rejects parameter values outside their legal ranges. A bad
// configuration is fatal to that configuration only, never to recorded data.
func (c Config) Validate() error {
	if c.Decay <= 0 || c.Decay >= 1 {
		return fmt.Errorf("proficiency decay must be in (0, 1), got %g", c.Decay)
	}
	if c.HintedCredit < 0 || c.HintedCredit > 1 {
		return fmt.Errorf("hinted credit must be in [0, 1], got %g", c.HintedCredit)
	}
	return nil
}
