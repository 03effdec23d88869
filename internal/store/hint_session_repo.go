package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

type hintSessionRepo struct {
	db *sql.DB
}

func (r *hintSessionRepo) GetOpen(ctx context.Context, userID, problemID string) (*HintSessionData, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, problem_id, attempt_marker, unlocked_tier,
		       tier_requested_at, tier_content, version, closed, created_at
		FROM hint_sessions
		WHERE user_id = ? AND problem_id = ? AND closed = 0
		ORDER BY id DESC LIMIT 1`, userID, problemID)

	s, err := scanHintSession(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *hintSessionRepo) Create(ctx context.Context, s *HintSessionData) error {
	requestedAt, content, err := marshalTierMaps(s)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO hint_sessions
			(user_id, problem_id, attempt_marker, unlocked_tier, tier_requested_at, tier_content, version, closed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, 0, ?)`,
		s.UserID, s.ProblemID, s.AttemptMarker, s.UnlockedTier,
		requestedAt, content, s.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert hint session: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = id
	s.Version = 0
	return nil
}

// Update writes the session back guarded by a version compare-and-set:
// the row is only touched while its stored version still matches the one
// this session was read at. A lost race surfaces as ErrSessionConflict
// so the controller can re-read instead of double-unlocking a tier.
func (r *hintSessionRepo) Update(ctx context.Context, s *HintSessionData) error {
	requestedAt, content, err := marshalTierMaps(s)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE hint_sessions
		SET unlocked_tier = ?, tier_requested_at = ?, tier_content = ?, closed = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		s.UnlockedTier, requestedAt, content, boolToInt(s.Closed), s.ID, s.Version)
	if err != nil {
		return fmt.Errorf("update hint session: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSessionConflict
	}
	s.Version++
	return nil
}

func (r *hintSessionRepo) CloseOpen(ctx context.Context, userID, problemID string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE hint_sessions SET closed = 1, version = version + 1
		WHERE user_id = ? AND problem_id = ? AND closed = 0`, userID, problemID)
	if err != nil {
		return fmt.Errorf("close hint session: %w", err)
	}
	return nil
}

func marshalTierMaps(s *HintSessionData) (string, string, error) {
	requestedAt, err := json.Marshal(s.TierRequestedAt)
	if err != nil {
		return "", "", fmt.Errorf("marshal tier timestamps: %w", err)
	}
	content, err := json.Marshal(s.TierContent)
	if err != nil {
		return "", "", fmt.Errorf("marshal tier content: %w", err)
	}
	return string(requestedAt), string(content), nil
}

func scanHintSession(scan func(...any) error) (*HintSessionData, error) {
	var s HintSessionData
	var requestedAtJSON, contentJSON string
	var closed int

	err := scan(&s.ID, &s.UserID, &s.ProblemID, &s.AttemptMarker, &s.UnlockedTier,
		&requestedAtJSON, &contentJSON, &s.Version, &closed, &s.CreatedAt)
	if err != nil {
		return nil, err
	}

	s.TierRequestedAt = make(map[string]time.Time)
	if err := json.Unmarshal([]byte(requestedAtJSON), &s.TierRequestedAt); err != nil {
		return nil, fmt.Errorf("unmarshal tier timestamps: %w", err)
	}
	s.TierContent = make(map[string]string)
	if err := json.Unmarshal([]byte(contentJSON), &s.TierContent); err != nil {
		return nil, fmt.Errorf("unmarshal tier content: %w", err)
	}
	s.Closed = closed != 0
	return &s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
