package guard

import (
	"context"
	"time"

	"github.com/amorlink/engage/internal/domain"
)

// OutcomeReader is the delivery-outcome read model the guard evaluates.
type OutcomeReader interface {
	// LastSendAt returns when the user last received mail in the category.
	// The bool is false when there is no prior outcome.
	LastSendAt(ctx context.Context, userID string, category domain.CampaignCategory) (time.Time, bool, error)

	// CountSince counts outcomes for the user across all categories since
	// the given instant. Failed attempts count too: an address we tried to
	// contact was contacted for capping purposes.
	CountSince(ctx context.Context, userID string, since time.Time) (int, error)
}

// PreferenceReader resolves per-user category opt-outs.
type PreferenceReader interface {
	OptedOut(ctx context.Context, userID string, category domain.CampaignCategory) (bool, error)
}
