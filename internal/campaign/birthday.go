package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/amorlink/engage/internal/domain"
)

// BirthdayJob mails users whose birthday is today in the platform's
// reference timezone. The calendar-year window key makes it fire at most
// once per user per year, no matter how often the trigger retries.
type BirthdayJob struct {
	users    UserStore
	renderer *Renderer
	template Template
	loc      *time.Location
	now      func() time.Time
}

// NewBirthdayJob creates the birthday campaign.
func NewBirthdayJob(users UserStore, renderer *Renderer, loc *time.Location) *BirthdayJob {
	return &BirthdayJob{
		users:    users,
		renderer: renderer,
		template: Template{
			Subject:  "Gefeliciteerd, {{ first_name | default: \"daar\" }}! 🎉",
			HTML:     "<h1>Fijne verjaardag, {{ first_name }}!</h1><p>Vier je dag met een kijkje bij je nieuwe matches.</p>",
			Text:     "Fijne verjaardag, {{ first_name }}! Vier je dag met een kijkje bij je nieuwe matches.",
			Required: []string{"first_name"},
		},
		loc: loc,
		now: time.Now,
	}
}

func (j *BirthdayJob) Name() string                      { return "birthday" }
func (j *BirthdayJob) Category() domain.CampaignCategory { return domain.CategoryBirthday }
func (j *BirthdayJob) InWindow(time.Time) bool           { return true }

func (j *BirthdayJob) Select(ctx context.Context) ([]domain.Recipient, error) {
	today := j.now().In(j.loc)
	return j.users.BirthdaysOn(ctx, today.Month(), today.Day())
}

func (j *BirthdayJob) WindowKey(now time.Time, _ domain.Recipient) string {
	return fmt.Sprintf("birthday:%d", now.In(j.loc).Year())
}

func (j *BirthdayJob) Render(r domain.Recipient) (domain.Message, error) {
	return j.renderer.Render(j.template, j.Category(), r)
}
