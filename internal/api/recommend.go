package api

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/noooah2000/solve-next/internal/catalog"
	"github.com/noooah2000/solve-next/internal/recommend"
)

type candidateResponse struct {
	ProblemID  string             `json:"problem_id"`
	Title      string             `json:"title"`
	URL        string             `json:"url,omitempty"`
	Difficulty string             `json:"difficulty"`
	Topics     []string           `json:"topics"`
	Score      float64            `json:"score"`
	Factors    map[string]float64 `json:"contributing_factors"`
	Rationale  string             `json:"rationale,omitempty"`
}

type recommendationsResponse struct {
	Candidates []candidateResponse `json:"candidates"`
	Relaxed    []string            `json:"relaxed_constraints,omitempty"`
}

func handleRecommendations(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		req := recommend.Request{
			UserID: chi.URLParam(r, "userID"),
			Filters: catalog.Filters{
				Topics:    parseTopics(splitParam(q.Get("topics"))),
				Companies: splitParam(q.Get("companies")),
			},
		}
		for _, d := range splitParam(q.Get("difficulty")) {
			parsed := catalog.ParseDifficulty(d)
			if parsed == "" {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown difficulty %q", d)
				return
			}
			req.Filters.Difficulties = append(req.Filters.Difficulties, parsed)
		}
		if v := q.Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "limit must be a non-negative integer")
				return
			}
			req.Limit = n
		}
		if v := q.Get("exclude_recent_days"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "exclude_recent_days must be a non-negative integer")
				return
			}
			req.ExcludeRecentDays = n
		}

		ranked, relaxed, err := deps.Recommend.Recommend(r.Context(), req)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "computing recommendations: %v", err)
			return
		}

		explain := q.Get("explain") == "true"
		out := recommendationsResponse{Candidates: make([]candidateResponse, 0, len(ranked))}
		for i, rc := range ranked {
			c := toCandidateResponse(rc)
			// Rationale text only for the top pick; it costs a generator
			// call per candidate.
			if explain && i == 0 {
				c.Rationale = explainCandidate(deps, r, rc)
			}
			out.Candidates = append(out.Candidates, c)
		}
		out.Relaxed = relaxedNames(relaxed)
		writeJSON(w, http.StatusOK, out)
	}
}

func handleProficiency(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		profs, err := deps.Recommend.ProficiencySnapshot(r.Context(), userID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "estimating proficiency: %v", err)
			return
		}

		type entry struct {
			Topic       string  `json:"topic"`
			Difficulty  string  `json:"difficulty"`
			Score       float64 `json:"score"`
			SampleCount int     `json:"sample_count"`
		}
		out := make([]entry, 0, len(profs))
		for _, p := range profs {
			out = append(out, entry{
				Topic:       string(p.Topic),
				Difficulty:  string(p.Difficulty),
				Score:       p.Score,
				SampleCount: p.SampleCount,
			})
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Topic != out[j].Topic {
				return out[i].Topic < out[j].Topic
			}
			return out[i].Difficulty < out[j].Difficulty
		})
		writeJSON(w, http.StatusOK, map[string]any{"user_id": userID, "proficiency": out})
	}
}

func explainCandidate(deps Deps, r *http.Request, rc recommend.RankedCandidate) string {
	if deps.Explainer == nil {
		return recommend.FallbackRationale(rc)
	}
	text, err := deps.Explainer.Explain(r.Context(), rc)
	if err != nil {
		return recommend.FallbackRationale(rc)
	}
	return text
}

func toCandidateResponse(rc recommend.RankedCandidate) candidateResponse {
	topics := make([]string, len(rc.Problem.Topics))
	for i, t := range rc.Problem.Topics {
		topics[i] = string(t)
	}
	factors := make(map[string]float64, len(rc.ContributingFactors))
	for name, v := range rc.ContributingFactors {
		factors[string(name)] = v
	}
	return candidateResponse{
		ProblemID:  rc.ProblemID,
		Title:      rc.Problem.Title,
		URL:        rc.Problem.URL,
		Difficulty: string(rc.Problem.Difficulty),
		Topics:     topics,
		Score:      rc.Score,
		Factors:    factors,
	}
}

func relaxedNames(r recommend.Relaxation) []string {
	var names []string
	if r.Company {
		names = append(names, "company")
	}
	if r.Difficulty {
		names = append(names, "difficulty")
	}
	if r.Topic {
		names = append(names, "topic")
	}
	return names
}

func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
