package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/noooah2000/solve-next/internal/attempts"
	"github.com/noooah2000/solve-next/internal/hints"
)

type hintRequest struct {
	// Tier names the tier to request. Empty means "the next one".
	Tier string `json:"tier"`
}

type hintResponse struct {
	Tier    string `json:"tier"`
	Content string `json:"content"`
	Cached  bool   `json:"cached,omitempty"`
}

func handleRequestHint(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		problemID := chi.URLParam(r, "problemID")

		var req hintRequest
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		var (
			unlock *hints.Unlock
			err    error
		)
		if req.Tier == "" {
			unlock, err = deps.Hints.RequestNext(r.Context(), userID, problemID)
		} else {
			tier := attempts.ParseTier(req.Tier)
			if tier == attempts.TierNone {
				httpError(w, http.StatusBadRequest, "invalid_request_error",
					"tier must be concept, approach or implementation")
				return
			}
			unlock, err = deps.Hints.RequestTier(r.Context(), userID, problemID, tier)
		}
		if err != nil {
			writeHintError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, hintResponse{
			Tier:    unlock.Tier.String(),
			Content: unlock.Content,
			Cached:  unlock.Cached,
		})
	}
}

func handleHintSession(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		problemID := chi.URLParam(r, "problemID")

		sess, err := deps.Hints.Session(r.Context(), userID, problemID)
		if err != nil {
			httpError(w, http.StatusInternalServerError, "api_error", "loading hint session: %v", err)
			return
		}
		if sess == nil {
			writeJSON(w, http.StatusOK, map[string]any{
				"unlocked_tier": attempts.TierNone.String(),
				"hints":         map[string]string{},
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"unlocked_tier": sess.UnlockedTier,
			"hints":         sess.TierContent,
			"started_at":    sess.CreatedAt,
		})
	}
}

// writeHintError maps the controller's error types onto HTTP statuses: a
// closed gate is a client-visible conflict with retry timing, a
// generation failure is an upstream error.
func writeHintError(w http.ResponseWriter, err error) {
	var notReady *hints.ErrHintNotReady
	if errors.As(err, &notReady) {
		w.Header().Set("Content-Type", "application/json")
		if notReady.Remaining > 0 {
			w.Header().Set("Retry-After", formatSeconds(notReady.Remaining))
		}
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"message":             notReady.Error(),
				"type":                "hint_not_ready",
				"retry_after_seconds": int(notReady.Remaining.Seconds()),
			},
		})
		return
	}

	var genFailed *hints.ErrHintGenerationFailed
	if errors.As(err, &genFailed) {
		httpError(w, http.StatusBadGateway, "hint_generation_failed", "%v", genFailed)
		return
	}

	httpError(w, http.StatusInternalServerError, "api_error", "%v", err)
}

func formatSeconds(d time.Duration) string {
	secs := int(d.Seconds())
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}
