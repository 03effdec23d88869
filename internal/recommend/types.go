package recommend

import (
	"github.com/noooah2000/solve-next/internal/catalog"
)

// Request asks for ranked practice recommendations for one user.
type Request struct {
	UserID string

	// Filters are the user-supplied optional constraints. Empty fields
	// mean "no preference".
	Filters catalog.Filters

	// ExcludeRecentDays excludes problems the user solved within this
	// many days. Zero disables the exclusion.
	ExcludeRecentDays int

	// Limit caps the number of returned candidates. Zero means no cap.
	Limit int
}

// FactorName labels one scoring component of a ranked candidate.
type FactorName string

const (
	FactorGap     FactorName = "gap"
	FactorNovelty FactorName = "novelty"
	FactorMatch   FactorName = "match"
)

// RankedCandidate is one scored recommendation plus its rationale payload.
// ContributingFactors sums to Score within epsilon, so any consumer can
// reconstruct "why" deterministically.
type RankedCandidate struct {
	ProblemID           string
	Problem             catalog.Problem
	Score               float64
	ContributingFactors map[FactorName]float64
}

// Relaxation records which constraint groups the filter had to drop to
// produce a non-empty candidate set. The drop order is fixed: company
// first, then difficulty, then topic.
type Relaxation struct {
	Company    bool
	Difficulty bool
	Topic      bool
}

// Any reports whether any constraint was relaxed.
func (r Relaxation) Any() bool {
	return r.Company || r.Difficulty || r.Topic
}

// FilterResult is the candidate set plus the relaxation that produced it.
type FilterResult struct {
	Problems []catalog.Problem
	Relaxed  Relaxation
}
