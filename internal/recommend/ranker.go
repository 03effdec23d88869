package recommend

import (
	"sort"
	"time"

	"github.com/noooah2000/solve-next/internal/attempts"
	"github.com/noooah2000/solve-next/internal/catalog"
	"github.com/noooah2000/solve-next/internal/proficiency"
)

// unknownGap is the neutral prior used when a (topic, difficulty) bucket
// has no proficiency row. Unknown is not weak: unexplored skills are
// worth exercising moderately, so the gap contribution sits at the
// midpoint rather than 0 or 1.
const unknownGap = 0.5

// Ranker orders filtered candidates by a weighted blend of proficiency
// gap, novelty and filter match. Pure over its inputs: identical inputs
// always yield the identical ordered sequence, with ties broken by
// problem ID ascending, so callers may re-request for pagination.
type Ranker struct {
	cfg Config
}

// NewRanker creates a ranker. The config must already be validated.
func NewRanker(cfg Config) *Ranker {
	return &Ranker{cfg: cfg}
}

// Rank scores every candidate and returns them ordered best-first.
// An empty candidate set yields an empty result, not an error. Missing
// proficiency rows are absorbed by the neutral prior, never a failure.
func (r *Ranker) Rank(
	candidates []catalog.Problem,
	profs map[proficiency.Key]proficiency.TopicProficiency,
	req Request,
	history []attempts.Attempt,
	now time.Time,
) []RankedCandidate {
	if len(candidates) == 0 {
		return nil
	}

	lastAttempt := lastAttemptTimes(history)

	ranked := make([]RankedCandidate, 0, len(candidates))
	for _, p := range candidates {
		gap := r.gapFactor(&p, profs)
		novelty := r.noveltyFactor(p.ID, lastAttempt, now)
		match := r.matchFactor(&p, req.Filters)

		factors := map[FactorName]float64{
			FactorGap:     r.cfg.WeightGap * gap,
			FactorNovelty: r.cfg.WeightNovelty * novelty,
			FactorMatch:   r.cfg.WeightMatch * match,
		}

		ranked = append(ranked, RankedCandidate{
			ProblemID:           p.ID,
			Problem:             p,
			Score:               factors[FactorGap] + factors[FactorNovelty] + factors[FactorMatch],
			ContributingFactors: factors,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].ProblemID < ranked[j].ProblemID
	})

	if req.Limit > 0 && len(ranked) > req.Limit {
		ranked = ranked[:req.Limit]
	}
	return ranked
}

// gapFactor averages (1 − score) over the candidate's topics at its
// difficulty bucket. Unknown buckets contribute the neutral prior.
func (r *Ranker) gapFactor(p *catalog.Problem, profs map[proficiency.Key]proficiency.TopicProficiency) float64 {
	if len(p.Topics) == 0 {
		return unknownGap
	}

	var sum float64
	for _, topic := range p.Topics {
		k := proficiency.Key{Topic: topic, Difficulty: p.Difficulty}
		if prof, ok := profs[k]; ok {
			sum += 1 - prof.Score
		} else {
			sum += unknownGap
		}
	}
	return sum / float64(len(p.Topics))
}

// noveltyFactor is 1.0 for a problem the user never attempted and decays
// linearly toward 0.0 as the last attempt approaches "today" within the
// novelty window. A problem outside the exclusion window but recently
// touched therefore still scores lower novelty than an untouched one.
func (r *Ranker) noveltyFactor(problemID string, lastAttempt map[string]time.Time, now time.Time) float64 {
	last, ok := lastAttempt[problemID]
	if !ok {
		return 1.0
	}

	days := now.Sub(last).Hours() / 24
	if days < 0 {
		days = 0
	}
	window := float64(r.cfg.NoveltyWindowDays)
	if days >= window {
		return 1.0
	}
	return days / window
}

// matchFactor is the fraction of the request's provided optional filters
// the candidate satisfies exactly, as opposed to via relaxation. With no
// filters provided every candidate matches vacuously.
func (r *Ranker) matchFactor(p *catalog.Problem, f catalog.Filters) float64 {
	provided, satisfied := 0, 0

	if len(f.Topics) > 0 {
		provided++
		if matchesTopics(p, f.Topics) {
			satisfied++
		}
	}
	if len(f.Difficulties) > 0 {
		provided++
		if matchesDifficulty(p, f.Difficulties) {
			satisfied++
		}
	}
	if len(f.Companies) > 0 {
		provided++
		if p.HasAnyCompany(f.Companies) {
			satisfied++
		}
	}

	if provided == 0 {
		return 1.0
	}
	return float64(satisfied) / float64(provided)
}

// lastAttemptTimes indexes the most recent attempt timestamp per problem.
func lastAttemptTimes(history []attempts.Attempt) map[string]time.Time {
	out := make(map[string]time.Time)
	for _, a := range history {
		if a.Deleted {
			continue
		}
		if t, ok := out[a.ProblemID]; !ok || a.Timestamp.After(t) {
			out[a.ProblemID] = a.Timestamp
		}
	}
	return out
}
