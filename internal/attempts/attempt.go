package attempts

import (
	"time"

	"github.com/noooah2000/solve-next/internal/catalog"
)

// Outcome is the result of a single practice attempt.
type Outcome string

const (
	OutcomeSolved    Outcome = "solved"
	OutcomeFailed    Outcome = "failed"
	OutcomeAbandoned Outcome = "abandoned"
)

// HintTier is one of the three ordered hint levels. TierNone means no hint
// was unlocked.
type HintTier int

const (
	TierNone HintTier = iota
	TierConcept
	TierApproach
	TierImplementation
)

// String returns the tier's wire label.
func (t HintTier) String() string {
	switch t {
	case TierConcept:
		return "concept"
	case TierApproach:
		return "approach"
	case TierImplementation:
		return "implementation"
	}
	return "none"
}

// ParseTier maps a wire label back to a HintTier.
func ParseTier(s string) HintTier {
	switch s {
	case "concept":
		return TierConcept
	case "approach":
		return TierApproach
	case "implementation":
		return TierImplementation
	}
	return TierNone
}

// Attempt is one append-only practice log entry. Immutable once recorded;
// the attempt log store owns it.
type Attempt struct {
	ID         string
	UserID     string
	ProblemID  string
	Topics     []catalog.Topic
	Difficulty catalog.Difficulty
	Outcome    Outcome
	HintsUsed  []HintTier // tiers unlocked during this attempt, in unlock order
	Note       string
	Timestamp  time.Time
	Deleted    bool // soft delete; excluded from estimates and eligibility
}

// Solved reports whether this attempt ended in an independent solve.
func (a *Attempt) Solved() bool {
	return a.Outcome == OutcomeSolved
}

// Valid reports whether the attempt carries the fields the estimator
// needs. Malformed attempts are skipped, never fatal.
func (a *Attempt) Valid() bool {
	return len(a.Topics) > 0 && a.Difficulty != "" && a.Outcome != ""
}
