package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/amorlink/engage/internal/domain"
)

// OutcomeRepo stores immutable delivery outcomes. It implements both
// campaign.OutcomeStore (claim/finish) and guard.OutcomeReader (history
// reads) so the runner and the guard see the same rows.
type OutcomeRepo struct{ db *sql.DB }

// NewOutcomeRepo creates a Postgres-backed outcome store.
func NewOutcomeRepo(db *sql.DB) *OutcomeRepo { return &OutcomeRepo{db: db} }

// Claim inserts the (user, category, window) slot. The unique index on
// those three columns makes the insert the atomic send-once decision:
// whichever run inserts first owns the send, every later claim sees
// ON CONFLICT DO NOTHING and skips.
func (r *OutcomeRepo) Claim(ctx context.Context, userID string, category domain.CampaignCategory, windowKey string) (string, bool, error) {
	id := uuid.New().String()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO delivery_outcomes (id, user_id, category, window_key, success, created_at)
		VALUES ($1, $2, $3, $4, false, NOW())
		ON CONFLICT (user_id, category, window_key) DO NOTHING
	`, id, userID, category, windowKey)
	if err != nil {
		return "", false, fmt.Errorf("claim outcome: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return "", false, fmt.Errorf("claim outcome: %w", err)
	}
	if n == 0 {
		return "", false, nil
	}
	return id, true, nil
}

// Finish finalizes a claimed outcome with the transport's answer.
func (r *OutcomeRepo) Finish(ctx context.Context, id string, success bool, externalID, failReason string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE delivery_outcomes
		SET success = $1, external_id = $2, fail_reason = $3, sent_at = NOW()
		WHERE id = $4 AND sent_at IS NULL
	`, success, externalID, failReason, id)
	if err != nil {
		return fmt.Errorf("finish outcome: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// LastSendAt returns the most recent outcome time for the user and
// category. Unfinished claims count from their creation time so a crashed
// run still holds the cooldown.
func (r *OutcomeRepo) LastSendAt(ctx context.Context, userID string, category domain.CampaignCategory) (time.Time, bool, error) {
	var at time.Time
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(sent_at, created_at)
		FROM delivery_outcomes
		WHERE user_id = $1 AND category = $2
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, category).Scan(&at)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("last send: %w", err)
	}
	return at, true, nil
}

// CountSince counts the user's outcomes across all categories since the
// given instant. Failed attempts count too.
func (r *OutcomeRepo) CountSince(ctx context.Context, userID string, since time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM delivery_outcomes
		WHERE user_id = $1 AND created_at >= $2
	`, userID, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count outcomes: %w", err)
	}
	return n, nil
}
