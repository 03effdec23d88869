package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/noooah2000/solve-next/internal/attempts"
	"github.com/noooah2000/solve-next/internal/catalog"
)

type attemptRepo struct {
	db *sql.DB
}

func (r *attemptRepo) Append(ctx context.Context, a attempts.Attempt) error {
	topics, err := json.Marshal(a.Topics)
	if err != nil {
		return fmt.Errorf("marshal topics: %w", err)
	}
	hints, err := json.Marshal(tierLabels(a.HintsUsed))
	if err != nil {
		return fmt.Errorf("marshal hints: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO attempts (id, user_id, problem_id, topics, difficulty, outcome, hints_used, note, timestamp, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		a.ID, a.UserID, a.ProblemID, string(topics), string(a.Difficulty),
		string(a.Outcome), string(hints), a.Note, a.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}

	// Bump the log version in the same transaction so a reader that
	// observes the new version also observes the new attempt.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO attempt_log_versions (user_id, version) VALUES (?, 1)
		ON CONFLICT (user_id) DO UPDATE SET version = version + 1`,
		a.UserID)
	if err != nil {
		return fmt.Errorf("bump log version: %w", err)
	}

	return tx.Commit()
}

func (r *attemptRepo) ListByUser(ctx context.Context, userID string) ([]attempts.Attempt, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, problem_id, topics, difficulty, outcome, hints_used, note, timestamp, deleted
		FROM attempts
		WHERE user_id = ?
		ORDER BY timestamp ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query attempts: %w", err)
	}
	defer rows.Close()

	var out []attempts.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *attemptRepo) LogVersion(ctx context.Context, userID string) (int64, error) {
	var v int64
	err := r.db.QueryRowContext(ctx,
		`SELECT version FROM attempt_log_versions WHERE user_id = ?`, userID).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query log version: %w", err)
	}
	return v, nil
}

func (r *attemptRepo) FailedSince(ctx context.Context, userID, problemID string, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM attempts
		WHERE user_id = ? AND problem_id = ? AND outcome = ? AND deleted = 0 AND timestamp >= ?`,
		userID, problemID, string(attempts.OutcomeFailed), since.UTC()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count failed attempts: %w", err)
	}
	return n, nil
}

func (r *attemptRepo) SoftDelete(ctx context.Context, id string) error {
	return r.setDeleted(ctx, id, 1)
}

func (r *attemptRepo) Restore(ctx context.Context, id string) error {
	return r.setDeleted(ctx, id, 0)
}

func (r *attemptRepo) setDeleted(ctx context.Context, id string, deleted int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE attempts SET deleted = ? WHERE id = ?`, deleted, id)
	if err != nil {
		return fmt.Errorf("update attempt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("attempt %q not found", id)
	}
	return nil
}

func scanAttempt(rows *sql.Rows) (attempts.Attempt, error) {
	var a attempts.Attempt
	var topicsJSON, hintsJSON string
	var deleted int

	err := rows.Scan(&a.ID, &a.UserID, &a.ProblemID, &topicsJSON, &a.Difficulty,
		&a.Outcome, &hintsJSON, &a.Note, &a.Timestamp, &deleted)
	if err != nil {
		return a, fmt.Errorf("scan attempt: %w", err)
	}

	var topics []catalog.Topic
	if err := json.Unmarshal([]byte(topicsJSON), &topics); err != nil {
		return a, fmt.Errorf("unmarshal topics: %w", err)
	}
	a.Topics = topics

	var labels []string
	if err := json.Unmarshal([]byte(hintsJSON), &labels); err != nil {
		return a, fmt.Errorf("unmarshal hints: %w", err)
	}
	for _, l := range labels {
		a.HintsUsed = append(a.HintsUsed, attempts.ParseTier(l))
	}

	a.Deleted = deleted != 0
	return a, nil
}

func tierLabels(tiers []attempts.HintTier) []string {
	out := make([]string, len(tiers))
	for i, t := range tiers {
		out[i] = t.String()
	}
	return out
}
