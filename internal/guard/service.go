package guard

import (
	"context"
	"fmt"
	"time"

	"github.com/amorlink/engage/internal/domain"
)

// Denial reasons reported in Decision.Reason and in batch summaries.
const (
	ReasonOptedOut  = "opted_out"
	ReasonCooldown  = "category_cooldown"
	ReasonWeeklyCap = "weekly_cap"
)

// Decision is the outcome of one MayContact evaluation.
type Decision struct {
	Allowed bool
	Reason  string // set when denied
}

// Policy holds the configured contact limits.
type Policy struct {
	// Cooldowns is the minimum gap between two sends of the same category
	// to the same user. Categories without an entry fall back to Default.
	Cooldowns map[domain.CampaignCategory]time.Duration
	Default   time.Duration
	// WeeklyCap limits total sends per user across all categories in any
	// trailing 7 days. Zero disables the cap.
	WeeklyCap int
}

// CooldownFor resolves the cooldown window for a category.
func (p Policy) CooldownFor(category domain.CampaignCategory) time.Duration {
	if d, ok := p.Cooldowns[category]; ok {
		return d
	}
	return p.Default
}

// Service evaluates the contact policy. Safe for concurrent use.
type Service struct {
	outcomes OutcomeReader
	prefs    PreferenceReader
	policy   Policy

	// now is swappable for tests.
	now func() time.Time
}

// NewService creates a guard over the given read models.
func NewService(outcomes OutcomeReader, prefs PreferenceReader, policy Policy) *Service {
	return &Service{outcomes: outcomes, prefs: prefs, policy: policy, now: time.Now}
}

// MayContact decides whether userID may receive a send in category right
// now. Campaign jobs call this per recipient immediately before dispatch,
// never batched ahead: earlier sends in the same run count against the
// weekly cap.
func (s *Service) MayContact(ctx context.Context, userID string, category domain.CampaignCategory) (Decision, error) {
	optedOut, err := s.prefs.OptedOut(ctx, userID, category)
	if err != nil {
		return Decision{}, fmt.Errorf("read preference: %w", err)
	}
	if optedOut {
		return Decision{Reason: ReasonOptedOut}, nil
	}

	if cooldown := s.policy.CooldownFor(category); cooldown > 0 {
		last, found, err := s.outcomes.LastSendAt(ctx, userID, category)
		if err != nil {
			return Decision{}, fmt.Errorf("read last send: %w", err)
		}
		if found && s.now().Sub(last) < cooldown {
			return Decision{Reason: ReasonCooldown}, nil
		}
	}

	if s.policy.WeeklyCap > 0 {
		count, err := s.outcomes.CountSince(ctx, userID, s.now().Add(-7*24*time.Hour))
		if err != nil {
			return Decision{}, fmt.Errorf("count recent sends: %w", err)
		}
		if count >= s.policy.WeeklyCap {
			return Decision{Reason: ReasonWeeklyCap}, nil
		}
	}

	return Decision{Allowed: true}, nil
}
