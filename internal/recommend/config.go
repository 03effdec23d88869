package recommend

import (
	"fmt"
	"math"
	"os"
	"strconv"
)

// weightEpsilon is the tolerance for the weights-sum-to-one check.
const weightEpsilon = 1e-9

// Config holds ranking parameters.
type Config struct {
	// WeightGap, WeightNovelty and WeightMatch blend the three scoring
	// factors. They must sum to 1.
	WeightGap     float64
	WeightNovelty float64
	WeightMatch   float64

	// NoveltyWindowDays is the span over which novelty recovers linearly
	// from 0 (attempted today) back to 1 (untouched for the full window).
	NoveltyWindowDays int
}

// DefaultConfig returns the standard ranking parameters.
func DefaultConfig() Config {
	return Config{
		WeightGap:         0.5,
		WeightNovelty:     0.2,
		WeightMatch:       0.3,
		NoveltyWindowDays: 30,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset or unparsable values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if f, ok := envFloat("SOLVENEXT_WEIGHT_GAP"); ok {
		cfg.WeightGap = f
	}
	if f, ok := envFloat("SOLVENEXT_WEIGHT_NOVELTY"); ok {
		cfg.WeightNovelty = f
	}
	if f, ok := envFloat("SOLVENEXT_WEIGHT_MATCH"); ok {
		cfg.WeightMatch = f
	}
	if v := os.Getenv("SOLVENEXT_NOVELTY_WINDOW_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.NoveltyWindowDays = n
		}
	}
	return cfg
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Validate rejects invalid weight combinations at configuration load.
// A rejected configuration is fatal to that configuration only.
func (c Config) Validate() error {
	for name, w := range map[string]float64{
		"gap":     c.WeightGap,
		"novelty": c.WeightNovelty,
		"match":   c.WeightMatch,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("weight %s must be in [0, 1], got %g", name, w)
		}
	}
	sum := c.WeightGap + c.WeightNovelty + c.WeightMatch
	if math.Abs(sum-1) > weightEpsilon {
		return fmt.Errorf("weights must sum to 1, got %g", sum)
	}
	if c.NoveltyWindowDays <= 0 {
		return fmt.Errorf("novelty window must be positive, got %d days", c.NoveltyWindowDays)
	}
	return nil
}
