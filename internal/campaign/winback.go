package campaign

import (
	"context"
	"time"

	"github.com/amorlink/engage/internal/domain"
)

// WinbackJob targets users inactive for longer than the configured
// threshold (90 days by default). The guard's category cooldown keeps the
// contact frequency down; the per-day window key only dedupes overlapping
// runs of the same trigger.
type WinbackJob struct {
	users        UserStore
	renderer     *Renderer
	template     Template
	inactiveDays int
	now          func() time.Time
}

// NewWinbackJob creates the win-back campaign.
func NewWinbackJob(users UserStore, renderer *Renderer, inactiveDays int) *WinbackJob {
	if inactiveDays <= 0 {
		inactiveDays = 90
	}
	return &WinbackJob{
		users:    users,
		renderer: renderer,
		template: Template{
			Subject:  "We missen je, {{ first_name | default: \"daar\" }}",
			HTML:     "<p>Hoi {{ first_name }}, er wachten nieuwe profielen op je. Kom eens kijken!</p>",
			Text:     "Hoi {{ first_name }}, er wachten nieuwe profielen op je. Kom eens kijken!",
			Required: []string{"first_name"},
		},
		inactiveDays: inactiveDays,
		now:          time.Now,
	}
}

func (j *WinbackJob) Name() string                      { return "winback" }
func (j *WinbackJob) Category() domain.CampaignCategory { return domain.CategoryWinback }
func (j *WinbackJob) InWindow(time.Time) bool           { return true }

func (j *WinbackJob) Select(ctx context.Context) ([]domain.Recipient, error) {
	cutoff := j.now().AddDate(0, 0, -j.inactiveDays)
	return j.users.InactiveSince(ctx, cutoff)
}

func (j *WinbackJob) WindowKey(now time.Time, _ domain.Recipient) string {
	return "winback:" + now.Format("2006-01-02")
}

func (j *WinbackJob) Render(r domain.Recipient) (domain.Message, error) {
	return j.renderer.Render(j.template, j.Category(), r)
}
