package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/amorlink/engage/internal/domain"
)

// UserRepo is the recipient-selection read model over the platform's user
// tables. It implements campaign.UserStore.
type UserRepo struct{ db *sql.DB }

// NewUserRepo creates a Postgres-backed user read model.
func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

// recipientColumns is the shared projection for selection queries. Bindings
// beyond first_name are stamped per query.
const recipientColumns = `u.id, u.email, COALESCE(u.first_name, '')`

func scanRecipients(rows *sql.Rows) ([]domain.Recipient, error) {
	defer rows.Close()
	var out []domain.Recipient
	for rows.Next() {
		var r domain.Recipient
		var firstName string
		if err := rows.Scan(&r.UserID, &r.Email, &firstName); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		r.Bindings = map[string]any{"first_name": firstName}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (r *UserRepo) BirthdaysOn(ctx context.Context, month time.Month, day int) ([]domain.Recipient, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recipientColumns+`
		FROM users u
		WHERE u.birth_date IS NOT NULL
		  AND EXTRACT(MONTH FROM u.birth_date) = $1
		  AND EXTRACT(DAY FROM u.birth_date) = $2
		  AND u.deleted_at IS NULL
	`, int(month), day)
	if err != nil {
		return nil, fmt.Errorf("select birthdays: %w", err)
	}
	return scanRecipients(rows)
}

func (r *UserRepo) InactiveSince(ctx context.Context, cutoff time.Time) ([]domain.Recipient, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recipientColumns+`
		FROM users u
		WHERE u.last_activity_at < $1
		  AND u.deleted_at IS NULL
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("select inactive users: %w", err)
	}
	return scanRecipients(rows)
}

func (r *UserRepo) DormantBetween(ctx context.Context, from, to time.Time) ([]domain.Recipient, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recipientColumns+`
		FROM users u
		WHERE u.last_activity_at >= $1 AND u.last_activity_at < $2
		  AND u.deleted_at IS NULL
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("select dormant users: %w", err)
	}
	return scanRecipients(rows)
}

// WithEventsSince joins the activity event counts a digest interpolates.
// Digest opt-outs are not filtered here; the frequency guard drops them
// like any other opted-out category, so skips show up in the run summary.
func (r *UserRepo) WithEventsSince(ctx context.Context, since time.Time) ([]domain.Recipient, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.id, u.email, COALESCE(u.first_name, ''),
		       COUNT(*) AS event_count,
		       COUNT(*) FILTER (WHERE e.kind = 'profile_view') AS profile_views,
		       COUNT(*) FILTER (WHERE e.kind = 'like') AS likes,
		       COUNT(*) FILTER (WHERE e.kind = 'match') AS new_matches
		FROM users u
		JOIN activity_events e ON e.target_user_id = u.id
		WHERE e.occurred_at >= $1
		  AND e.kind IN ('profile_view', 'like', 'match', 'message')
		  AND u.deleted_at IS NULL
		GROUP BY u.id, u.email, u.first_name
		HAVING COUNT(*) > 0
	`, since)
	if err != nil {
		return nil, fmt.Errorf("select digest users: %w", err)
	}
	defer rows.Close()

	var out []domain.Recipient
	for rows.Next() {
		var r domain.Recipient
		var firstName string
		var eventCount, profileViews, likes, newMatches int
		if err := rows.Scan(&r.UserID, &r.Email, &firstName,
			&eventCount, &profileViews, &likes, &newMatches); err != nil {
			return nil, fmt.Errorf("scan digest recipient: %w", err)
		}
		r.Bindings = map[string]any{
			"first_name":    firstName,
			"event_count":   eventCount,
			"profile_views": profileViews,
			"likes":         likes,
			"new_matches":   newMatches,
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (r *UserRepo) SignedUpBetween(ctx context.Context, from, to time.Time) ([]domain.Recipient, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recipientColumns+`
		FROM users u
		WHERE u.signup_at >= $1 AND u.signup_at < $2
		  AND u.deleted_at IS NULL
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("select signups: %w", err)
	}
	return scanRecipients(rows)
}

func (r *UserRepo) ActiveUsers(ctx context.Context, activeSince time.Time) ([]domain.Recipient, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recipientColumns+`
		FROM users u
		WHERE u.last_activity_at >= $1
		  AND u.deleted_at IS NULL
	`, activeSince)
	if err != nil {
		return nil, fmt.Errorf("select active users: %w", err)
	}
	return scanRecipients(rows)
}
