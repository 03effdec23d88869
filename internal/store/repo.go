package store

import (
	"context"
	"errors"
	"time"

	"github.com/noooah2000/solve-next/internal/attempts"
	"github.com/noooah2000/solve-next/internal/catalog"
)

// ErrSessionConflict is returned when a hint session update loses a
// version race. The caller should re-read and retry its transition.
var ErrSessionConflict = errors.New("hint session was modified concurrently")

// AttemptRepo is the append-only attempt log store.
type AttemptRepo interface {
	// Append records a new attempt and bumps the user's log version in
	// the same transaction.
	Append(ctx context.Context, a attempts.Attempt) error

	// ListByUser returns the user's attempt log in chronological order,
	// including soft-deleted entries (flagged on the Attempt).
	ListByUser(ctx context.Context, userID string) ([]attempts.Attempt, error)

	// LogVersion returns the user's current log version. It increases
	// on every append, which is what makes cached estimates
	// read-your-writes safe.
	LogVersion(ctx context.Context, userID string) (int64, error)

	// FailedSince counts non-deleted failed attempts on a problem at or
	// after the given time.
	FailedSince(ctx context.Context, userID, problemID string, since time.Time) (int, error)

	// SoftDelete moves an attempt to the trash without losing it.
	SoftDelete(ctx context.Context, id string) error

	// Restore brings a soft-deleted attempt back.
	Restore(ctx context.Context, id string) error
}

// ProblemRepo is the local problem catalog.
type ProblemRepo interface {
	Upsert(ctx context.Context, p catalog.Problem) error
	Get(ctx context.Context, id string) (*catalog.Problem, error)
	List(ctx context.Context, f catalog.Filters) ([]catalog.Problem, error)
}

// HintSessionData is the persisted form of a hint escalation session.
// Tier maps are keyed by the tier's wire label.
type HintSessionData struct {
	ID              int64
	UserID          string
	ProblemID       string
	AttemptMarker   string
	UnlockedTier    string
	TierRequestedAt map[string]time.Time
	TierContent     map[string]string
	Version         int64
	Closed          bool
	CreatedAt       time.Time
}

// HintSessionRepo persists hint escalation sessions. One open session
// exists per (user, problem) at a time; closed sessions are retained
// for audit.
type HintSessionRepo interface {
	// GetOpen returns the open session for (user, problem), or nil.
	GetOpen(ctx context.Context, userID, problemID string) (*HintSessionData, error)

	// Create stores a new open session.
	Create(ctx context.Context, s *HintSessionData) error

	// Update persists session state guarded by a version compare-and-set.
	// Returns ErrSessionConflict when the stored version has moved on.
	Update(ctx context.Context, s *HintSessionData) error

	// CloseOpen marks the open session for (user, problem) as superseded.
	CloseOpen(ctx context.Context, userID, problemID string) error
}

// LLMRequestEventData captures one generator API call for the audit log.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// HintEventData captures one hint unlock for the audit log. Generated is
// false when the content was served from the session cache.
type HintEventData struct {
	UserID    string
	ProblemID string
	Tier      string
	Generated bool
}

// LLMRequestEvent is a stored generator request row.
type LLMRequestEvent struct {
	ID           int64
	Sequence     int64
	Timestamp    time.Time
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// LLMUsageStat aggregates generator usage for one purpose.
type LLMUsageStat struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// HintEvent is a stored hint event row.
type HintEvent struct {
	Sequence  int64
	Timestamp time.Time
	UserID    string
	ProblemID string
	Tier      string
	Generated bool
}

// EventRepo provides append access to the audit event log. All event
// types share one global sequence so cross-type ordering is total.
type EventRepo interface {
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error
	AppendHintEvent(ctx context.Context, data HintEventData) error

	// ListHintEvents returns a user's hint history for a problem,
	// oldest first.
	ListHintEvents(ctx context.Context, userID, problemID string) ([]HintEvent, error)

	// ListLLMRequests returns the most recent generator requests,
	// newest first.
	ListLLMRequests(ctx context.Context, limit int) ([]LLMRequestEvent, error)

	// LLMUsage sums request counts and token totals, for the llm
	// stats command.
	LLMUsage(ctx context.Context) (requests int64, inputTokens int64, outputTokens int64, err error)

	// LLMUsageByPurpose breaks usage down per request purpose.
	LLMUsageByPurpose(ctx context.Context) ([]LLMUsageStat, error)
}
