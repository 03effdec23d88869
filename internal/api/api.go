package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/noooah2000/solve-next/internal/catalog"
	"github.com/noooah2000/solve-next/internal/hints"
	"github.com/noooah2000/solve-next/internal/recommend"
	"github.com/noooah2000/solve-next/internal/store"
)

const maxBodySize = 1 << 20 // 1MB

// Deps wires the API handler to the engine's services.
type Deps struct {
	Store     *store.Store
	Recommend *recommend.Service
	Hints     *hints.Controller

	// Resolver fetches problem metadata for refs not yet in the local
	// catalog. Optional.
	Resolver *catalog.LeetCodeClient

	// Explainer produces recommendation rationale text. Optional; when
	// nil the deterministic fallback rationale is served.
	Explainer *recommend.Explainer
}

// NewHandler builds the HTTP API router.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/attempts", handleRecordAttempt(deps))
	r.Delete("/attempts/{id}", handleDeleteAttempt(deps))
	r.Post("/attempts/{id}/restore", handleRestoreAttempt(deps))

	r.Get("/users/{userID}/attempts", handleListAttempts(deps))
	r.Get("/users/{userID}/proficiency", handleProficiency(deps))
	r.Get("/users/{userID}/recommendations", handleRecommendations(deps))

	r.Post("/users/{userID}/problems/{problemID}/hints", handleRequestHint(deps))
	r.Get("/users/{userID}/problems/{problemID}/hints", handleHintSession(deps))

	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	msg := fmt.Sprintf(format, args...)
	json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
