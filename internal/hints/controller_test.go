package hints

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/noooah2000/solve-next/internal/attempts"
	"github.com/noooah2000/solve-next/internal/catalog"
	"github.com/noooah2000/solve-next/internal/store"
)

type stubGenerator struct {
	content string
	err     error
	calls   int
}

func (g *stubGenerator) Generate(_ context.Context, req GenerateRequest) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return g.content + " (" + req.Tier.String() + ")", nil
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testController wires a controller with a controllable clock.
func testController(t *testing.T, s *store.Store, gen Generator) (*Controller, *time.Time) {
	t.Helper()
	c := NewController(DefaultConfig(), s, gen, nil, nil)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, &now
}

func recordFailedAttempt(t *testing.T, s *store.Store, userID, problemID string, ts time.Time) {
	t.Helper()
	err := s.AttemptRepo().Append(context.Background(), attempts.Attempt{
		ID:         uuid.NewString(),
		UserID:     userID,
		ProblemID:  problemID,
		Topics:     []catalog.Topic{catalog.TopicArray},
		Difficulty: catalog.DifficultyMedium,
		Outcome:    attempts.OutcomeFailed,
		Timestamp:  ts,
	})
	if err != nil {
		t.Fatalf("record failed attempt: %v", err)
	}
}

func TestRequestNext_FirstHintIsConcept(t *testing.T) {
	s := openTestStore(t)
	gen := &stubGenerator{content: "think about it"}
	c, _ := testController(t, s, gen)

	unlock, err := c.RequestNext(context.Background(), "u1", "p1")
	if err != nil {
		t.Fatalf("request next: %v", err)
	}
	if unlock.Tier != attempts.TierConcept {
		t.Errorf("tier = %s, want concept", unlock.Tier)
	}
	if unlock.Cached {
		t.Error("first unlock should not be cached")
	}
	if unlock.Content == "" {
		t.Error("expected hint content")
	}
	if gen.calls != 1 {
		t.Errorf("generator calls = %d, want 1", gen.calls)
	}
}

func TestRequestTier_SkipAheadRejected(t *testing.T) {
	s := openTestStore(t)
	c, _ := testController(t, s, &stubGenerator{content: "hint"})

	_, err := c.RequestTier(context.Background(), "u1", "p1", attempts.TierApproach)
	var notReady *ErrHintNotReady
	if !errors.As(err, &notReady) {
		t.Fatalf("expected ErrHintNotReady, got %v", err)
	}

	// The rejection must not have advanced the session.
	sess, err := c.Session(context.Background(), "u1", "p1")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if sess.UnlockedTier != attempts.TierNone.String() {
		t.Errorf("unlocked tier = %s, want none", sess.UnlockedTier)
	}
}

func TestRequestNext_DwellGateBlocksApproach(t *testing.T) {
	s := openTestStore(t)
	c, now := testController(t, s, &stubGenerator{content: "hint"})
	ctx := context.Background()

	if _, err := c.RequestNext(ctx, "u1", "p1"); err != nil {
		t.Fatalf("concept: %v", err)
	}

	*now = now.Add(10 * time.Second)
	_, err := c.RequestNext(ctx, "u1", "p1")
	var notReady *ErrHintNotReady
	if !errors.As(err, &notReady) {
		t.Fatalf("expected ErrHintNotReady, got %v", err)
	}
	if notReady.Tier != attempts.TierApproach {
		t.Errorf("blocked tier = %s, want approach", notReady.Tier)
	}
	if notReady.Remaining != 50*time.Second {
		t.Errorf("remaining = %s, want 50s", notReady.Remaining)
	}
}

func TestRequestNext_DwellElapsedUnlocksApproach(t *testing.T) {
	s := openTestStore(t)
	gen := &stubGenerator{content: "hint"}
	c, now := testController(t, s, gen)
	ctx := context.Background()

	if _, err := c.RequestNext(ctx, "u1", "p1"); err != nil {
		t.Fatalf("concept: %v", err)
	}

	*now = now.Add(DefaultConfig().ConceptDwell)
	unlock, err := c.RequestNext(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("approach: %v", err)
	}
	if unlock.Tier != attempts.TierApproach {
		t.Errorf("tier = %s, want approach", unlock.Tier)
	}
}

func TestRequestNext_FailedAttemptBypassesDwell(t *testing.T) {
	s := openTestStore(t)
	c, now := testController(t, s, &stubGenerator{content: "hint"})
	ctx := context.Background()

	if _, err := c.RequestNext(ctx, "u1", "p1"); err != nil {
		t.Fatalf("concept: %v", err)
	}

	// Fail an attempt 5 seconds in, well before the dwell elapses.
	*now = now.Add(5 * time.Second)
	recordFailedAttempt(t, s, "u1", "p1", *now)

	*now = now.Add(1 * time.Second)
	unlock, err := c.RequestNext(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("approach after failure: %v", err)
	}
	if unlock.Tier != attempts.TierApproach {
		t.Errorf("tier = %s, want approach", unlock.Tier)
	}
}

func TestRequestTier_IdempotentReRequest(t *testing.T) {
	s := openTestStore(t)
	gen := &stubGenerator{content: "hint"}
	c, _ := testController(t, s, gen)
	ctx := context.Background()

	first, err := c.RequestNext(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("concept: %v", err)
	}

	again, err := c.RequestTier(ctx, "u1", "p1", attempts.TierConcept)
	if err != nil {
		t.Fatalf("re-request: %v", err)
	}
	if !again.Cached {
		t.Error("re-request should be served from the session")
	}
	if again.Content != first.Content {
		t.Errorf("content changed on re-request: %q vs %q", again.Content, first.Content)
	}
	if gen.calls != 1 {
		t.Errorf("generator calls = %d, want 1 (no regeneration)", gen.calls)
	}
}

func TestRequestNext_GenerationFailureLeavesTierLocked(t *testing.T) {
	s := openTestStore(t)
	gen := &stubGenerator{err: errors.New("provider down")}
	c, _ := testController(t, s, gen)
	ctx := context.Background()

	_, err := c.RequestNext(ctx, "u1", "p1")
	var genFailed *ErrHintGenerationFailed
	if !errors.As(err, &genFailed) {
		t.Fatalf("expected ErrHintGenerationFailed, got %v", err)
	}

	sess, err := c.Session(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if sess.UnlockedTier != attempts.TierNone.String() {
		t.Errorf("unlocked tier = %s, want none after failure", sess.UnlockedTier)
	}

	// An explicit retry succeeds once the generator recovers.
	gen.err = nil
	gen.content = "recovered"
	unlock, err := c.RequestNext(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if unlock.Tier != attempts.TierConcept {
		t.Errorf("tier = %s, want concept", unlock.Tier)
	}
}

func TestRequestNext_FallbackServesWhenGeneratorFails(t *testing.T) {
	s := openTestStore(t)
	cfg := DefaultConfig()
	cfg.UseFallback = true
	c := NewController(cfg, s, &stubGenerator{err: errors.New("provider down")}, nil, nil)

	unlock, err := c.RequestNext(context.Background(), "u1", "p1")
	if err != nil {
		t.Fatalf("fallback request: %v", err)
	}
	if unlock.Tier != attempts.TierConcept || unlock.Content == "" {
		t.Errorf("expected non-empty concept fallback, got tier=%s content=%q", unlock.Tier, unlock.Content)
	}
}

func TestNoteOutcome_SolvedResetsEscalation(t *testing.T) {
	s := openTestStore(t)
	gen := &stubGenerator{content: "hint"}
	c, now := testController(t, s, gen)
	ctx := context.Background()

	if _, err := c.RequestNext(ctx, "u1", "p1"); err != nil {
		t.Fatalf("concept: %v", err)
	}
	if err := c.NoteOutcome(ctx, "u1", "p1", attempts.OutcomeSolved); err != nil {
		t.Fatalf("note outcome: %v", err)
	}

	// The next request starts a fresh session back at Concept.
	*now = now.Add(time.Hour)
	unlock, err := c.RequestNext(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("post-solve request: %v", err)
	}
	if unlock.Tier != attempts.TierConcept {
		t.Errorf("tier = %s, want concept (fresh session)", unlock.Tier)
	}
	if unlock.Cached {
		t.Error("fresh session should regenerate the concept hint")
	}
	if gen.calls != 2 {
		t.Errorf("generator calls = %d, want 2", gen.calls)
	}
}

func TestNoteOutcome_FailedKeepsSession(t *testing.T) {
	s := openTestStore(t)
	c, _ := testController(t, s, &stubGenerator{content: "hint"})
	ctx := context.Background()

	first, err := c.RequestNext(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("concept: %v", err)
	}
	if err := c.NoteOutcome(ctx, "u1", "p1", attempts.OutcomeFailed); err != nil {
		t.Fatalf("note outcome: %v", err)
	}

	again, err := c.RequestTier(ctx, "u1", "p1", attempts.TierConcept)
	if err != nil {
		t.Fatalf("re-request: %v", err)
	}
	if !again.Cached || again.Content != first.Content {
		t.Error("failed outcome must not reset the open session")
	}
}

func TestRequestNext_FullEscalationAndCap(t *testing.T) {
	s := openTestStore(t)
	gen := &stubGenerator{content: "hint"}
	c, now := testController(t, s, gen)
	ctx := context.Background()

	want := []attempts.HintTier{attempts.TierConcept, attempts.TierApproach, attempts.TierImplementation}
	for _, tier := range want {
		unlock, err := c.RequestNext(ctx, "u1", "p1")
		if err != nil {
			t.Fatalf("%s: %v", tier, err)
		}
		if unlock.Tier != tier {
			t.Fatalf("tier = %s, want %s", unlock.Tier, tier)
		}
		*now = now.Add(DefaultConfig().ApproachDwell)
	}

	// Past Implementation, RequestNext re-serves the last hint.
	unlock, err := c.RequestNext(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("capped request: %v", err)
	}
	if unlock.Tier != attempts.TierImplementation || !unlock.Cached {
		t.Errorf("got tier=%s cached=%v, want cached implementation", unlock.Tier, unlock.Cached)
	}
	if gen.calls != 3 {
		t.Errorf("generator calls = %d, want 3", gen.calls)
	}
}

func TestHintEventsRecorded(t *testing.T) {
	s := openTestStore(t)
	c, _ := testController(t, s, &stubGenerator{content: "hint"})
	ctx := context.Background()

	if _, err := c.RequestNext(ctx, "u1", "p1"); err != nil {
		t.Fatalf("concept: %v", err)
	}
	if _, err := c.RequestTier(ctx, "u1", "p1", attempts.TierConcept); err != nil {
		t.Fatalf("re-request: %v", err)
	}

	events, err := s.EventRepo().ListHintEvents(ctx, "u1", "p1")
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if !events[0].Generated || events[1].Generated {
		t.Errorf("generated flags = %v, %v; want true then false", events[0].Generated, events[1].Generated)
	}
	if events[1].Sequence <= events[0].Sequence {
		t.Error("event sequence should be strictly increasing")
	}
}
