package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/amorlink/engage/internal/domain"
)

// ExperimentRepo is the A/B experiment store. It implements
// campaign.ExperimentStore.
type ExperimentRepo struct{ db *sql.DB }

// NewExperimentRepo creates a Postgres-backed experiment store.
func NewExperimentRepo(db *sql.DB) *ExperimentRepo { return &ExperimentRepo{db: db} }

func (r *ExperimentRepo) Running(ctx context.Context) ([]domain.Experiment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, status, COALESCE(winner_variant, ''), started_at, ended_at
		FROM experiments
		WHERE status = 'running'
		ORDER BY started_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list running experiments: %w", err)
	}
	defer rows.Close()

	var out []domain.Experiment
	for rows.Next() {
		var e domain.Experiment
		var endedAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.Name, &e.Status, &e.WinnerVariant, &e.StartedAt, &endedAt); err != nil {
			return nil, fmt.Errorf("scan experiment: %w", err)
		}
		if endedAt.Valid {
			e.EndedAt = &endedAt.Time
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// VariantMetrics aggregates sends and conversions per variant from the
// variant assignment rows.
func (r *ExperimentRepo) VariantMetrics(ctx context.Context, experimentID string) ([]domain.VariantMetrics, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT variant_id,
		       COUNT(*) AS sends,
		       COUNT(*) FILTER (WHERE converted) AS conversions
		FROM experiment_assignments
		WHERE experiment_id = $1
		GROUP BY variant_id
		ORDER BY variant_id
	`, experimentID)
	if err != nil {
		return nil, fmt.Errorf("variant metrics: %w", err)
	}
	defer rows.Close()

	var out []domain.VariantMetrics
	for rows.Next() {
		var m domain.VariantMetrics
		if err := rows.Scan(&m.VariantID, &m.Sends, &m.Conversions); err != nil {
			return nil, fmt.Errorf("scan variant metrics: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// End records the winner. The status predicate makes ending idempotent:
// an already-ended experiment is left untouched.
func (r *ExperimentRepo) End(ctx context.Context, experimentID, winnerVariant string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE experiments
		SET status = 'ended', winner_variant = $1, ended_at = NOW()
		WHERE id = $2 AND status = 'running'
	`, winnerVariant, experimentID)
	if err != nil {
		return fmt.Errorf("end experiment: %w", err)
	}
	return nil
}
