package campaign

import (
	"context"
	"time"

	"github.com/amorlink/engage/internal/domain"
	"github.com/amorlink/engage/internal/guard"
)

// Job is one schedulable mail campaign. Implementations are stateless
// between runs; all idempotence lives in the outcome store.
type Job interface {
	// Name identifies the job in the trigger URL and in logs.
	Name() string

	// Category tags the sends for the frequency guard.
	Category() domain.CampaignCategory

	// InWindow reports whether the job is live at the given instant.
	// Outside the window a run is a deliberate no-op, not an error.
	InWindow(now time.Time) bool

	// Select computes the eligible recipient set. Called exactly once per
	// run; the runner iterates the returned slice and never re-selects.
	Select(ctx context.Context) ([]domain.Recipient, error)

	// WindowKey scopes the outcome claim: two runs sharing a key cannot
	// both send to the same recipient.
	WindowKey(now time.Time, r domain.Recipient) string

	// Render produces the recipient's message. A missing personalization
	// binding returns ErrMissingBinding and skips only that recipient.
	Render(r domain.Recipient) (domain.Message, error)
}

// Summary aggregates one run's per-recipient outcomes.
type Summary struct {
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// Gate is the frequency/suppression check, satisfied by *guard.Service.
type Gate interface {
	MayContact(ctx context.Context, userID string, category domain.CampaignCategory) (guard.Decision, error)
}

// OutcomeStore claims and finalizes delivery outcomes.
type OutcomeStore interface {
	// Claim atomically reserves the (user, category, window) slot and
	// returns the new outcome id. claimed is false when another run
	// already holds the slot; that recipient is skipped, not errored.
	Claim(ctx context.Context, userID string, category domain.CampaignCategory, windowKey string) (id string, claimed bool, err error)

	// Finish records the send result on a claimed outcome. Called exactly
	// once per claim; outcomes are immutable afterwards.
	Finish(ctx context.Context, id string, success bool, externalID, failReason string) error
}

// UserStore is the recipient-selection read model the jobs query.
type UserStore interface {
	// BirthdaysOn returns users whose birth month/day matches, excluding
	// nothing: the birthday window key handles once-per-year.
	BirthdaysOn(ctx context.Context, month time.Month, day int) ([]domain.Recipient, error)

	// InactiveSince returns users whose last activity is before cutoff.
	InactiveSince(ctx context.Context, cutoff time.Time) ([]domain.Recipient, error)

	// DormantBetween returns users whose last activity falls inside
	// [from, to): the dormancy bucket of a re-engagement segment.
	DormantBetween(ctx context.Context, from, to time.Time) ([]domain.Recipient, error)

	// WithEventsSince returns users with at least one qualifying event
	// (profile view, like, match, message) since the given instant, with
	// per-user event counts in the bindings.
	WithEventsSince(ctx context.Context, since time.Time) ([]domain.Recipient, error)

	// SignedUpBetween returns users who signed up inside [from, to).
	SignedUpBetween(ctx context.Context, from, to time.Time) ([]domain.Recipient, error)

	// ActiveUsers returns users active since the cutoff (seasonal sends
	// go to the live population, not to dormant accounts).
	ActiveUsers(ctx context.Context, activeSince time.Time) ([]domain.Recipient, error)
}
