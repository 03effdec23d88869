package recommend

import (
	"sort"
	"time"

	"github.com/noooah2000/solve-next/internal/attempts"
	"github.com/noooah2000/solve-next/internal/catalog"
)

// Filter narrows the catalog by the request's explicit filters and the
// solved-too-recently eligibility rule. If the full constraint set yields
// nothing, constraints are dropped in a fixed order until the result is
// non-empty: company first, then difficulty, then topic. The order is a
// deliberate dead-end-avoidance policy and must stay deterministic so
// results are reproducible.
//
// The returned problems are sorted by problem ID ascending. An empty
// result after all constraints are exhausted means "no matching problems";
// it is not an error.
func Filter(problems []catalog.Problem, req Request, history []attempts.Attempt, now time.Time) FilterResult {
	eligible := excludeRecentlySolved(problems, history, req.ExcludeRecentDays, now)

	steps := []Relaxation{
		{},
		{Company: true},
		{Company: true, Difficulty: true},
		{Company: true, Difficulty: true, Topic: true},
	}

	for _, relaxed := range steps {
		matched := applyFilters(eligible, req.Filters, relaxed)
		if len(matched) > 0 {
			sort.Slice(matched, func(i, j int) bool {
				return matched[i].ID < matched[j].ID
			})
			return FilterResult{Problems: matched, Relaxed: relaxed}
		}
	}

	return FilterResult{Relaxed: steps[len(steps)-1]}
}

func applyFilters(problems []catalog.Problem, f catalog.Filters, relaxed Relaxation) []catalog.Problem {
	var out []catalog.Problem
	for _, p := range problems {
		if !relaxed.Topic && !matchesTopics(&p, f.Topics) {
			continue
		}
		if !relaxed.Difficulty && !matchesDifficulty(&p, f.Difficulties) {
			continue
		}
		if !relaxed.Company && len(f.Companies) > 0 && !p.HasAnyCompany(f.Companies) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// matchesTopics requires every topic on the problem to be within the
// requested set (topic subset rule). No requested topics means no
// constraint.
func matchesTopics(p *catalog.Problem, requested []catalog.Topic) bool {
	if len(requested) == 0 {
		return true
	}
	allowed := make(map[catalog.Topic]bool, len(requested))
	for _, t := range requested {
		allowed[t] = true
	}
	for _, t := range p.Topics {
		if !allowed[t] {
			return false
		}
	}
	return len(p.Topics) > 0
}

func matchesDifficulty(p *catalog.Problem, requested []catalog.Difficulty) bool {
	if len(requested) == 0 {
		return true
	}
	for _, d := range requested {
		if p.Difficulty == d {
			return true
		}
	}
	return false
}

// excludeRecentlySolved drops problems the user solved within the
// exclusion window. Zero days disables the rule.
func excludeRecentlySolved(problems []catalog.Problem, history []attempts.Attempt, days int, now time.Time) []catalog.Problem {
	if days <= 0 {
		return problems
	}

	cutoff := now.AddDate(0, 0, -days)
	blocked := make(map[string]bool)
	for _, a := range history {
		if a.Deleted || !a.Solved() {
			continue
		}
		if a.Timestamp.After(cutoff) {
			blocked[a.ProblemID] = true
		}
	}
	if len(blocked) == 0 {
		return problems
	}

	out := make([]catalog.Problem, 0, len(problems))
	for _, p := range problems {
		if !blocked[p.ID] {
			out = append(out, p)
		}
	}
	return out
}
