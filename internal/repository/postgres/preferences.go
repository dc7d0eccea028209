package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/amorlink/engage/internal/domain"
)

// PreferenceRepo reads per-user contact preferences. It implements
// guard.PreferenceReader. No row means no opt-out.
type PreferenceRepo struct{ db *sql.DB }

// NewPreferenceRepo creates a Postgres-backed preference reader.
func NewPreferenceRepo(db *sql.DB) *PreferenceRepo { return &PreferenceRepo{db: db} }

func (r *PreferenceRepo) OptedOut(ctx context.Context, userID string, category domain.CampaignCategory) (bool, error) {
	var optedOut bool
	err := r.db.QueryRowContext(ctx, `
		SELECT opted_out
		FROM contact_preferences
		WHERE user_id = $1 AND category = $2
	`, userID, category).Scan(&optedOut)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read preference: %w", err)
	}
	return optedOut, nil
}
