package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/amorlink/engage/internal/domain"
)

// MatchRepo reads matches for typing-signal participant checks.
type MatchRepo struct{ db *sql.DB }

// NewMatchRepo creates a Postgres-backed match reader.
func NewMatchRepo(db *sql.DB) *MatchRepo { return &MatchRepo{db: db} }

// Match returns the match by id, ErrNotFound when it does not exist.
func (r *MatchRepo) Match(ctx context.Context, id string) (domain.Match, error) {
	var m domain.Match
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_a_id, user_b_id, made_at
		FROM matches
		WHERE id = $1
	`, id).Scan(&m.ID, &m.UserAID, &m.UserBID, &m.MadeAt)
	if err == sql.ErrNoRows {
		return domain.Match{}, ErrNotFound
	}
	if err != nil {
		return domain.Match{}, fmt.Errorf("get match: %w", err)
	}
	return m, nil
}
