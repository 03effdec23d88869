package recommend

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/noooah2000/solve-next/internal/attempts"
	"github.com/noooah2000/solve-next/internal/catalog"
	"github.com/noooah2000/solve-next/internal/proficiency"
)

// fakeAttemptSource is an in-memory attempt log with a manual version
// counter, so tests can control exactly when the cache must refresh.
type fakeAttemptSource struct {
	log       []attempts.Attempt
	version   int64
	listCalls int
}

func (f *fakeAttemptSource) ListByUser(ctx context.Context, userID string) ([]attempts.Attempt, error) {
	f.listCalls++
	out := make([]attempts.Attempt, 0, len(f.log))
	for _, a := range f.log {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAttemptSource) LogVersion(ctx context.Context, userID string) (int64, error) {
	return f.version, nil
}

func (f *fakeAttemptSource) append(a attempts.Attempt) {
	f.log = append(f.log, a)
	f.version++
}

type fakeCatalogSource struct {
	problems []catalog.Problem
}

func (f *fakeCatalogSource) List(ctx context.Context, _ catalog.Filters) ([]catalog.Problem, error) {
	return f.problems, nil
}

func newTestService(t *testing.T, as *fakeAttemptSource, cs *fakeCatalogSource) *Service {
	t.Helper()
	est := proficiency.NewEstimator(proficiency.DefaultConfig(), slog.Default())
	return NewService(est, DefaultConfig(), as, cs)
}

func serviceAttempt(user, problem string, topic catalog.Topic, outcome attempts.Outcome, ago time.Duration) attempts.Attempt {
	return attempts.Attempt{
		ID:         problem + "-" + string(outcome),
		UserID:     user,
		ProblemID:  problem,
		Topics:     []catalog.Topic{topic},
		Difficulty: catalog.DifficultyMedium,
		Outcome:    outcome,
		Timestamp:  time.Now().Add(-ago),
	}
}

func TestService_CacheHitOnSameVersion(t *testing.T) {
	as := &fakeAttemptSource{}
	as.append(serviceAttempt("u1", "two-sum", catalog.TopicArray, attempts.OutcomeSolved, 24*time.Hour))
	svc := newTestService(t, as, &fakeCatalogSource{})

	ctx := context.Background()
	if _, err := svc.ProficiencySnapshot(ctx, "u1"); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if _, err := svc.ProficiencySnapshot(ctx, "u1"); err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if as.listCalls != 1 {
		t.Errorf("expected one log read, got %d", as.listCalls)
	}
}

func TestService_RecomputesAfterAppend(t *testing.T) {
	as := &fakeAttemptSource{}
	as.append(serviceAttempt("u1", "two-sum", catalog.TopicArray, attempts.OutcomeFailed, 24*time.Hour))
	svc := newTestService(t, as, &fakeCatalogSource{})

	ctx := context.Background()
	before, err := svc.ProficiencySnapshot(ctx, "u1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	key := proficiency.Key{Topic: catalog.TopicArray, Difficulty: catalog.DifficultyMedium}
	beforeScore := before[key].Score

	// A new solve must be visible on the very next read.
	as.append(serviceAttempt("u1", "three-sum", catalog.TopicArray, attempts.OutcomeSolved, 0))
	after, err := svc.ProficiencySnapshot(ctx, "u1")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if after[key].Score <= beforeScore {
		t.Errorf("score did not rise after solve: before %.4f after %.4f", beforeScore, after[key].Score)
	}
	if as.listCalls != 2 {
		t.Errorf("expected two log reads, got %d", as.listCalls)
	}
}

func TestService_RecommendDeterministic(t *testing.T) {
	as := &fakeAttemptSource{}
	as.append(serviceAttempt("u1", "two-sum", catalog.TopicArray, attempts.OutcomeSolved, 48*time.Hour))
	cs := &fakeCatalogSource{problems: []catalog.Problem{
		{ID: "course-schedule", Title: "Course Schedule", Topics: []catalog.Topic{catalog.TopicGraph}, Difficulty: catalog.DifficultyMedium},
		{ID: "three-sum", Title: "3Sum", Topics: []catalog.Topic{catalog.TopicArray}, Difficulty: catalog.DifficultyMedium},
		{ID: "word-ladder", Title: "Word Ladder", Topics: []catalog.Topic{catalog.TopicBFS}, Difficulty: catalog.DifficultyHard},
	}}
	svc := newTestService(t, as, cs)

	req := Request{UserID: "u1", Limit: 3}
	first, _, err := svc.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if len(first) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(first))
	}
	for i := 0; i < 5; i++ {
		again, _, err := svc.Recommend(context.Background(), req)
		if err != nil {
			t.Fatalf("recommend: %v", err)
		}
		for j := range first {
			if again[j].ProblemID != first[j].ProblemID {
				t.Fatalf("run %d position %d: got %s, want %s", i, j, again[j].ProblemID, first[j].ProblemID)
			}
		}
	}
}

func TestService_RecommendSurfacesRelaxation(t *testing.T) {
	as := &fakeAttemptSource{}
	cs := &fakeCatalogSource{problems: []catalog.Problem{
		{ID: "three-sum", Topics: []catalog.Topic{catalog.TopicArray}, Difficulty: catalog.DifficultyMedium},
	}}
	svc := newTestService(t, as, cs)

	// No problem carries this company tag, so the company constraint
	// must be dropped and reported.
	req := Request{
		UserID:  "u1",
		Filters: catalog.Filters{Companies: []string{"initech"}},
	}
	ranked, relaxed, err := svc.Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("recommend: %v", err)
	}
	if !relaxed.Company {
		t.Error("expected company relaxation to be reported")
	}
	if len(ranked) == 0 {
		t.Error("expected candidates after relaxation")
	}
}
