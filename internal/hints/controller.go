package hints

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noooah2000/solve-next/internal/attempts"
	"github.com/noooah2000/solve-next/internal/catalog"
	"github.com/noooah2000/solve-next/internal/proficiency"
	"github.com/noooah2000/solve-next/internal/store"
)

// ProficiencySource supplies the current proficiency estimate, used to
// pitch hint text at the user's level. Optional; a nil source means
// hints are generated without it.
type ProficiencySource interface {
	ProficiencySnapshot(ctx context.Context, userID string) (map[proficiency.Key]proficiency.TopicProficiency, error)
}

// Unlock is the result of a hint request.
type Unlock struct {
	Tier    attempts.HintTier
	Content string

	// Cached is true when the tier was already unlocked and the stored
	// content was returned without a generator call.
	Cached bool
}

// Controller runs progressive hint escalation per (user, problem). Tiers
// unlock strictly in order None, Concept, Approach, Implementation; the
// last two are gated behind a dwell time or a failed submission.
// Re-requesting an unlocked tier returns the stored content.
type Controller struct {
	cfg       Config
	sessions  store.HintSessionRepo
	attempts  store.AttemptRepo
	problems  store.ProblemRepo
	events    store.EventRepo
	generator Generator
	prof      ProficiencySource
	logger    *slog.Logger

	now func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewController wires a controller. prof may be nil.
func NewController(cfg Config, st *store.Store, gen Generator, prof ProficiencySource, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		cfg:       cfg,
		sessions:  st.HintSessionRepo(),
		attempts:  st.AttemptRepo(),
		problems:  st.ProblemRepo(),
		events:    st.EventRepo(),
		generator: gen,
		prof:      prof,
		logger:    logger,
		now:       time.Now,
		locks:     make(map[string]*sync.Mutex),
	}
}

// RequestNext requests the tier after the currently unlocked one. At
// Implementation it re-returns the Implementation hint.
func (c *Controller) RequestNext(ctx context.Context, userID, problemID string) (*Unlock, error) {
	unlock := c.lockKey(userID + "|" + problemID)
	defer unlock()

	sess, err := c.openSession(ctx, userID, problemID)
	if err != nil {
		return nil, err
	}
	current := attempts.ParseTier(sess.UnlockedTier)
	target := current + 1
	if target > attempts.TierImplementation {
		target = attempts.TierImplementation
	}
	return c.request(ctx, sess, target)
}

// RequestTier requests a specific tier. Requests at or below the
// unlocked tier return the stored content; a request more than one step
// ahead is rejected because escalation never skips tiers.
func (c *Controller) RequestTier(ctx context.Context, userID, problemID string, tier attempts.HintTier) (*Unlock, error) {
	if tier < attempts.TierConcept || tier > attempts.TierImplementation {
		return nil, fmt.Errorf("invalid hint tier %d", tier)
	}
	unlock := c.lockKey(userID + "|" + problemID)
	defer unlock()

	sess, err := c.openSession(ctx, userID, problemID)
	if err != nil {
		return nil, err
	}
	return c.request(ctx, sess, tier)
}

// Session returns the open session state for (user, problem), or nil
// when no hints have been requested in the current attempt.
func (c *Controller) Session(ctx context.Context, userID, problemID string) (*store.HintSessionData, error) {
	return c.sessions.GetOpen(ctx, userID, problemID)
}

// NoteOutcome closes the open session when an attempt concludes. A
// solved or abandoned attempt ends the escalation; the next hint request
// starts fresh at None. Failed attempts leave the session open, since a
// failure is exactly what should accelerate the next tier.
func (c *Controller) NoteOutcome(ctx context.Context, userID, problemID string, outcome attempts.Outcome) error {
	if outcome == attempts.OutcomeFailed {
		return nil
	}
	unlock := c.lockKey(userID + "|" + problemID)
	defer unlock()
	return c.sessions.CloseOpen(ctx, userID, problemID)
}

func (c *Controller) request(ctx context.Context, sess *store.HintSessionData, target attempts.HintTier) (*Unlock, error) {
	current := attempts.ParseTier(sess.UnlockedTier)

	// Idempotent re-request of an unlocked tier.
	if target <= current {
		content, ok := sess.TierContent[target.String()]
		if !ok {
			return nil, fmt.Errorf("session has no content for unlocked tier %s", target)
		}
		c.appendEvent(ctx, sess, target, false)
		return &Unlock{Tier: target, Content: content, Cached: true}, nil
	}

	if target != current+1 {
		return nil, &ErrHintNotReady{
			Tier:   target,
			Reason: fmt.Sprintf("%s tier must be unlocked first", current + 1),
		}
	}

	if err := c.checkGate(ctx, sess, target); err != nil {
		return nil, err
	}

	content, generated, err := c.generate(ctx, sess, target)
	if err != nil {
		// Session untouched; an explicit retry goes through the gate
		// again, which is already open.
		return nil, &ErrHintGenerationFailed{Tier: target, Err: err}
	}

	now := c.now().UTC()
	sess.UnlockedTier = target.String()
	sess.TierRequestedAt[target.String()] = now
	sess.TierContent[target.String()] = content
	if err := c.sessions.Update(ctx, sess); err != nil {
		return nil, fmt.Errorf("persisting hint unlock: %w", err)
	}

	c.appendEvent(ctx, sess, target, generated)
	c.logger.Info("hint unlocked",
		"user", sess.UserID,
		"problem", sess.ProblemID,
		"tier", target.String(),
		"generated", generated)
	return &Unlock{Tier: target, Content: content}, nil
}

// checkGate enforces the dwell-or-failure gate for target. Concept is
// always available; Approach and Implementation require the user to
// have sat with the previous hint, or to have failed an attempt since
// unlocking it.
func (c *Controller) checkGate(ctx context.Context, sess *store.HintSessionData, target attempts.HintTier) error {
	if target == attempts.TierConcept {
		return nil
	}

	prev := target - 1
	unlockedAt, ok := sess.TierRequestedAt[prev.String()]
	if !ok {
		return &ErrHintNotReady{Tier: target, Reason: fmt.Sprintf("%s tier must be unlocked first", prev)}
	}

	dwell := c.cfg.ConceptDwell
	if target == attempts.TierImplementation {
		dwell = c.cfg.ApproachDwell
	}

	elapsed := c.now().UTC().Sub(unlockedAt)
	if elapsed >= dwell {
		return nil
	}

	failed, err := c.attempts.FailedSince(ctx, sess.UserID, sess.ProblemID, unlockedAt)
	if err != nil {
		return fmt.Errorf("checking failed attempts: %w", err)
	}
	if failed > 0 {
		return nil
	}

	return &ErrHintNotReady{
		Tier:      target,
		Remaining: dwell - elapsed,
		Reason:    fmt.Sprintf("spend more time with the %s hint or record a failed attempt", prev),
	}
}

func (c *Controller) generate(ctx context.Context, sess *store.HintSessionData, target attempts.HintTier) (content string, generated bool, err error) {
	req := GenerateRequest{
		Tier:       target,
		PriorHints: make(map[attempts.HintTier]string, len(sess.TierContent)),
	}
	for label, text := range sess.TierContent {
		if t := attempts.ParseTier(label); t != attempts.TierNone {
			req.PriorHints[t] = text
		}
	}

	problem, err := c.problems.Get(ctx, sess.ProblemID)
	if err != nil {
		return "", false, fmt.Errorf("loading problem: %w", err)
	}
	if problem == nil {
		problem = &catalog.Problem{ID: sess.ProblemID, Title: sess.ProblemID}
	}
	req.Problem = *problem

	if c.prof != nil {
		profs, err := c.prof.ProficiencySnapshot(ctx, sess.UserID)
		if err != nil {
			c.logger.Warn("proficiency snapshot unavailable, generating without it", "error", err)
		} else {
			for _, topic := range problem.Topics {
				if p, ok := profs[proficiency.Key{Topic: topic, Difficulty: problem.Difficulty}]; ok {
					req.Proficiency = append(req.Proficiency, p)
				}
			}
		}
	}

	content, err = c.generator.Generate(ctx, req)
	if err == nil {
		return content, true, nil
	}
	if c.cfg.UseFallback {
		c.logger.Warn("hint generation failed, serving fallback", "tier", target.String(), "error", err)
		return FallbackHint(req.Problem, target), false, nil
	}
	return "", false, err
}

func (c *Controller) openSession(ctx context.Context, userID, problemID string) (*store.HintSessionData, error) {
	sess, err := c.sessions.GetOpen(ctx, userID, problemID)
	if err != nil {
		return nil, fmt.Errorf("loading hint session: %w", err)
	}
	if sess != nil {
		return sess, nil
	}

	sess = &store.HintSessionData{
		UserID:          userID,
		ProblemID:       problemID,
		AttemptMarker:   uuid.NewString(),
		UnlockedTier:    attempts.TierNone.String(),
		TierRequestedAt: make(map[string]time.Time),
		TierContent:     make(map[string]string),
		CreatedAt:       c.now().UTC(),
	}
	if err := c.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("creating hint session: %w", err)
	}
	return sess, nil
}

func (c *Controller) appendEvent(ctx context.Context, sess *store.HintSessionData, tier attempts.HintTier, generated bool) {
	err := c.events.AppendHintEvent(ctx, store.HintEventData{
		UserID:    sess.UserID,
		ProblemID: sess.ProblemID,
		Tier:      tier.String(),
		Generated: generated,
	})
	if err != nil {
		c.logger.Warn("failed to record hint event", "error", err)
	}
}

func (c *Controller) lockKey(key string) func() {
	c.mu.Lock()
	m, ok := c.locks[key]
	if !ok {
		m = &sync.Mutex{}
		c.locks[key] = m
	}
	c.mu.Unlock()
	m.Lock()
	return m.Unlock
}
