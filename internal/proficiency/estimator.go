package proficiency

import (
	"log/slog"
	"time"

	"github.com/noooah2000/solve-next/internal/attempts"
	"github.com/noooah2000/solve-next/internal/catalog"
)

// Key identifies one proficiency bucket: a topic at a difficulty.
type Key struct {
	Topic      catalog.Topic
	Difficulty catalog.Difficulty
}

// TopicProficiency is the derived skill estimate for one bucket. It is
// recomputable from the attempt log at any time and never hand-edited.
type TopicProficiency struct {
	UserID      string
	Topic       catalog.Topic
	Difficulty  catalog.Difficulty
	Score       float64 // recency-weighted success rate, clamped to [0,1]
	SampleCount int     // undecayed number of contributing attempts
	LastUpdated time.Time
}

// Estimator converts an attempt log into per-(topic, difficulty) scores.
// Stateless: every call is a pure function over its inputs.
type Estimator struct {
	cfg    Config
	logger *slog.Logger
}

// NewEstimator creates an estimator. A nil logger falls back to the
// default slog logger.
func NewEstimator(cfg Config, logger *slog.Logger) *Estimator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{cfg: cfg, logger: logger}
}

// Estimate computes the proficiency map for one user from their
// chronological attempt log. Buckets with zero attempts are absent from
// the result: absence means "unknown", not "zero skill", and the ranker
// treats the two differently.
//
// A problem touching multiple topics contributes to every touched topic's
// bucket independently (shared attribution). Malformed attempts are
// skipped with an audit log entry and never abort the estimate.
func (e *Estimator) Estimate(userID string, log []attempts.Attempt) map[Key]TopicProficiency {
	type bucket struct {
		credits []float64 // per-attempt success credit, chronological
		last    time.Time
	}
	buckets := make(map[Key]*bucket)

	for _, a := range log {
		if a.Deleted {
			continue
		}
		if !a.Valid() {
			e.logger.Warn("skipping malformed attempt",
				"attempt_id", a.ID,
				"user_id", a.UserID,
				"problem_id", a.ProblemID,
				"topics", len(a.Topics),
				"difficulty", string(a.Difficulty))
			continue
		}

		credit := e.successCredit(&a)
		for _, topic := range a.Topics {
			k := Key{Topic: topic, Difficulty: a.Difficulty}
			b := buckets[k]
			if b == nil {
				b = &bucket{}
				buckets[k] = b
			}
			b.credits = append(b.credits, credit)
			if a.Timestamp.After(b.last) {
				b.last = a.Timestamp
			}
		}
	}

	result := make(map[Key]TopicProficiency, len(buckets))
	for k, b := range buckets {
		result[k] = TopicProficiency{
			UserID:      userID,
			Topic:       k.Topic,
			Difficulty:  k.Difficulty,
			Score:       e.decayedRate(b.credits),
			SampleCount: len(b.credits),
			LastUpdated: b.last,
		}
	}
	return result
}

// successCredit maps an attempt outcome to its contribution weight.
// An independent solve earns full credit; a solve that leaned on hints
// earns partial credit; failures and abandons earn none.
func (e *Estimator) successCredit(a *attempts.Attempt) float64 {
	if a.Outcome != attempts.OutcomeSolved {
		return 0
	}
	if len(a.HintsUsed) > 0 {
		return e.cfg.HintedCredit
	}
	return 1
}

// decayedRate computes the recency-weighted success rate over the bucket's
// chronological credits. The i-th attempt (1-based) of n gets weight
// decay^(n-i), so the most recent attempt always carries weight 1 and
// older attempts fade geometrically.
func (e *Estimator) decayedRate(credits []float64) float64 {
	n := len(credits)
	if n == 0 {
		return 0
	}

	var weightedSuccess, weightedTotal float64
	weight := 1.0
	for i := n - 1; i >= 0; i-- {
		weightedSuccess += credits[i] * weight
		weightedTotal += weight
		weight *= e.cfg.Decay
	}
	if weightedTotal == 0 {
		return 0
	}

	score := weightedSuccess / weightedTotal
	return clamp01(score)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
