package recommend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/noooah2000/solve-next/internal/attempts"
	"github.com/noooah2000/solve-next/internal/catalog"
	"github.com/noooah2000/solve-next/internal/proficiency"
)

// AttemptSource is the attempt log collaborator as the service sees it.
type AttemptSource interface {
	// ListByUser returns the user's chronological attempt log.
	ListByUser(ctx context.Context, userID string) ([]attempts.Attempt, error)

	// LogVersion returns a per-user counter that increases on every
	// append. It keys the proficiency cache so a stale estimate can
	// never be served after a new attempt is recorded.
	LogVersion(ctx context.Context, userID string) (int64, error)
}

// CatalogSource is the problem catalog collaborator.
type CatalogSource interface {
	List(ctx context.Context, f catalog.Filters) ([]catalog.Problem, error)
}

// Service glues the estimator, filter and ranker together. The estimator,
// filter and ranker themselves are pure; the only state here is the
// version-keyed proficiency cache.
type Service struct {
	estimator *proficiency.Estimator
	ranker    *Ranker
	attempts  AttemptSource
	catalog   CatalogSource

	mu    sync.Mutex
	cache map[string]*cachedEstimate
	group singleflight.Group
}

type cachedEstimate struct {
	version int64
	profs   map[proficiency.Key]proficiency.TopicProficiency
	history []attempts.Attempt
}

// NewService creates the recommendation service. The config must already
// be validated.
func NewService(est *proficiency.Estimator, cfg Config, attemptSrc AttemptSource, catalogSrc CatalogSource) *Service {
	return &Service{
		estimator: est,
		ranker:    NewRanker(cfg),
		attempts:  attemptSrc,
		catalog:   catalogSrc,
		cache:     make(map[string]*cachedEstimate),
	}
}

// Recommend produces the ranked candidate list for a request. Identical
// inputs yield identical output; re-requesting for pagination is safe.
func (s *Service) Recommend(ctx context.Context, req Request) ([]RankedCandidate, Relaxation, error) {
	est, err := s.estimateFor(ctx, req.UserID)
	if err != nil {
		return nil, Relaxation{}, err
	}

	problems, err := s.catalog.List(ctx, catalog.Filters{})
	if err != nil {
		return nil, Relaxation{}, fmt.Errorf("list catalog: %w", err)
	}

	now := time.Now()
	fr := Filter(problems, req, est.history, now)
	ranked := s.ranker.Rank(fr.Problems, est.profs, req, est.history, now)
	return ranked, fr.Relaxed, nil
}

// ProficiencySnapshot returns the user's current proficiency map, served
// from the version-keyed cache.
func (s *Service) ProficiencySnapshot(ctx context.Context, userID string) (map[proficiency.Key]proficiency.TopicProficiency, error) {
	est, err := s.estimateFor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return est.profs, nil
}

// estimateFor returns the cached estimate for the user's current log
// version, recomputing when the log has advanced. Concurrent recomputes
// for the same (user, version) collapse into a single estimator run.
func (s *Service) estimateFor(ctx context.Context, userID string) (*cachedEstimate, error) {
	version, err := s.attempts.LogVersion(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("attempt log version: %w", err)
	}

	s.mu.Lock()
	if c, ok := s.cache[userID]; ok && c.version == version {
		s.mu.Unlock()
		return c, nil
	}
	s.mu.Unlock()

	key := fmt.Sprintf("%s@%d", userID, version)
	v, err, _ := s.group.Do(key, func() (any, error) {
		log, err := s.attempts.ListByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("read attempt log: %w", err)
		}
		c := &cachedEstimate{
			version: version,
			profs:   s.estimator.Estimate(userID, log),
			history: log,
		}
		s.mu.Lock()
		if prev, ok := s.cache[userID]; !ok || prev.version <= version {
			s.cache[userID] = c
		}
		s.mu.Unlock()
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*cachedEstimate), nil
}
