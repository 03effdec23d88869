package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/noooah2000/solve-next/internal/attempts"
	"github.com/noooah2000/solve-next/internal/catalog"
)

type recordAttemptRequest struct {
	UserID    string   `json:"user_id"`
	Problem   string   `json:"problem"` // id, slug or URL
	Outcome   string   `json:"outcome"`
	HintsUsed []string `json:"hints_used"`
	Note      string   `json:"note"`

	// Topics and Difficulty override the catalog entry; required when the
	// problem is not in the catalog and no resolver is configured.
	Topics     []string `json:"topics"`
	Difficulty string   `json:"difficulty"`

	Timestamp *time.Time `json:"timestamp"`
}

type attemptResponse struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	ProblemID  string     `json:"problem_id"`
	Topics     []string   `json:"topics"`
	Difficulty string     `json:"difficulty"`
	Outcome    string     `json:"outcome"`
	HintsUsed  []string   `json:"hints_used"`
	Note       string     `json:"note,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
	Deleted    bool       `json:"deleted,omitempty"`
}

func handleRecordAttempt(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		var req recordAttemptRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.UserID == "" || req.Problem == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "user_id and problem are required")
			return
		}
		outcome := attempts.Outcome(req.Outcome)
		switch outcome {
		case attempts.OutcomeSolved, attempts.OutcomeFailed, attempts.OutcomeAbandoned:
		default:
			httpError(w, http.StatusBadRequest, "invalid_request_error", "outcome must be solved, failed or abandoned")
			return
		}

		ctx := r.Context()
		problem, err := resolveProblem(deps, r, req.Problem)
		if err != nil {
			httpError(w, http.StatusBadGateway, "api_error", "resolving problem %q: %v", req.Problem, err)
			return
		}
		if problem == nil {
			if len(req.Topics) == 0 || req.Difficulty == "" {
				httpError(w, http.StatusBadRequest, "invalid_request_error",
					"problem %q is not in the catalog; provide topics and difficulty", req.Problem)
				return
			}
			problem = &catalog.Problem{ID: req.Problem, Title: req.Problem}
		}
		if len(req.Topics) > 0 {
			problem.Topics = parseTopics(req.Topics)
		}
		if req.Difficulty != "" {
			d := catalog.ParseDifficulty(req.Difficulty)
			if d == "" {
				httpError(w, http.StatusBadRequest, "invalid_request_error", "unknown difficulty %q", req.Difficulty)
				return
			}
			problem.Difficulty = d
		}
		if err := deps.Store.ProblemRepo().Upsert(ctx, *problem); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "saving problem: %v", err)
			return
		}

		hintsUsed, err := parseTiers(req.HintsUsed)
		if err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "%v", err)
			return
		}

		ts := time.Now().UTC()
		if req.Timestamp != nil {
			ts = req.Timestamp.UTC()
		}
		a := attempts.Attempt{
			ID:         uuid.NewString(),
			UserID:     req.UserID,
			ProblemID:  problem.ID,
			Topics:     problem.Topics,
			Difficulty: problem.Difficulty,
			Outcome:    outcome,
			HintsUsed:  hintsUsed,
			Note:       req.Note,
			Timestamp:  ts,
		}
		if err := deps.Store.AttemptRepo().Append(ctx, a); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "recording attempt: %v", err)
			return
		}

		// A concluded attempt resets the hint escalation for the problem.
		if deps.Hints != nil {
			if err := deps.Hints.NoteOutcome(ctx, a.UserID, a.ProblemID, a.Outcome); err != nil {
				httpError(w, http.StatusInternalServerError, "api_error", "closing hint session: %v", err)
				return
			}
		}

		writeJSON(w, http.StatusCreated, toAttemptResponse(a))
	}
}

func handleListAttempts(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		list, err := deps.Store.AttemptRepo().ListByUser(r.Context(), userID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "listing attempts: %v", err)
			return
		}
		out := make([]attemptResponse, 0, len(list))
		for _, a := range list {
			if a.Deleted && r.URL.Query().Get("include_deleted") != "true" {
				continue
			}
			out = append(out, toAttemptResponse(a))
		}
		writeJSON(w, http.StatusOK, map[string]any{"attempts": out})
	}
}

func handleDeleteAttempt(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := deps.Store.AttemptRepo().SoftDelete(r.Context(), id); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "deleting attempt: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
	}
}

func handleRestoreAttempt(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := deps.Store.AttemptRepo().Restore(r.Context(), id); err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "restoring attempt: %v", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "restored", "id": id})
	}
}

// resolveProblem checks the local catalog first, then the external
// resolver when configured. A nil result with nil error means unknown.
func resolveProblem(deps Deps, r *http.Request, ref string) (*catalog.Problem, error) {
	ctx := r.Context()
	p, err := deps.Store.ProblemRepo().Get(ctx, ref)
	if err != nil {
		return nil, err
	}
	if p != nil {
		return p, nil
	}
	if deps.Resolver == nil {
		return nil, nil
	}
	return deps.Resolver.Resolve(ctx, ref)
}

func parseTopics(raw []string) []catalog.Topic {
	out := make([]catalog.Topic, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(strings.ToLower(t))
		if t != "" {
			out = append(out, catalog.Topic(t))
		}
	}
	return out
}

func parseTiers(raw []string) ([]attempts.HintTier, error) {
	out := make([]attempts.HintTier, 0, len(raw))
	for _, s := range raw {
		t := attempts.ParseTier(s)
		if t == attempts.TierNone && s != "none" && s != "" {
			return nil, &tierError{label: s}
		}
		if t != attempts.TierNone {
			out = append(out, t)
		}
	}
	return out, nil
}

type tierError struct{ label string }

func (e *tierError) Error() string {
	return "unknown hint tier " + e.label + " (want concept, approach or implementation)"
}

func toAttemptResponse(a attempts.Attempt) attemptResponse {
	topics := make([]string, len(a.Topics))
	for i, t := range a.Topics {
		topics[i] = string(t)
	}
	tiers := make([]string, len(a.HintsUsed))
	for i, t := range a.HintsUsed {
		tiers[i] = t.String()
	}
	return attemptResponse{
		ID:         a.ID,
		UserID:     a.UserID,
		ProblemID:  a.ProblemID,
		Topics:     topics,
		Difficulty: string(a.Difficulty),
		Outcome:    string(a.Outcome),
		HintsUsed:  tiers,
		Note:       a.Note,
		Timestamp:  a.Timestamp,
		Deleted:    a.Deleted,
	}
}
