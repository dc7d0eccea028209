package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/amorlink/engage/internal/domain"
)

// DigestJob mails users a weekly summary of activity on their profile
// (views, likes, matches, messages). Only users with at least one
// qualifying event since the lookback are selected; the opt-out
// preference is enforced by the guard like every other category.
type DigestJob struct {
	users        UserStore
	renderer     *Renderer
	template     Template
	lookbackDays int
	now          func() time.Time
}

// NewDigestJob creates the digest campaign.
func NewDigestJob(users UserStore, renderer *Renderer, lookbackDays int) *DigestJob {
	if lookbackDays <= 0 {
		lookbackDays = 7
	}
	return &DigestJob{
		users:    users,
		renderer: renderer,
		template: Template{
			Subject: "Je week op een rij: {{ event_count }} nieuwe gebeurtenissen",
			HTML: "<p>Hoi {{ first_name }},</p>" +
				"<p>Deze week: {{ profile_views | default: \"0\" }} profielweergaven, " +
				"{{ likes | default: \"0\" }} likes en {{ new_matches | default: \"0\" }} nieuwe matches.</p>",
			Text: "Hoi {{ first_name }}, deze week: {{ profile_views | default: \"0\" }} profielweergaven, " +
				"{{ likes | default: \"0\" }} likes en {{ new_matches | default: \"0\" }} nieuwe matches.",
			Required: []string{"first_name", "event_count"},
		},
		lookbackDays: lookbackDays,
		now:          time.Now,
	}
}

func (j *DigestJob) Name() string                      { return "digest" }
func (j *DigestJob) Category() domain.CampaignCategory { return domain.CategoryDigest }
func (j *DigestJob) InWindow(time.Time) bool           { return true }

func (j *DigestJob) Select(ctx context.Context) ([]domain.Recipient, error) {
	since := j.now().AddDate(0, 0, -j.lookbackDays)
	return j.users.WithEventsSince(ctx, since)
}

// WindowKey keys on the ISO week so one digest goes out per user per week
// even when the trigger fires daily.
func (j *DigestJob) WindowKey(now time.Time, _ domain.Recipient) string {
	year, week := now.ISOWeek()
	return fmt.Sprintf("digest:%d-W%02d", year, week)
}

func (j *DigestJob) Render(r domain.Recipient) (domain.Message, error) {
	return j.renderer.Render(j.template, j.Category(), r)
}
