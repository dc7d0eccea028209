package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/amorlink/engage/internal/config"
	"github.com/amorlink/engage/internal/domain"
)

// SeasonalJob is live only inside its configured date window (optionally
// narrowed to a weekday past a given hour). Outside the window a run
// selects normally and skips everyone: a deliberate no-op, not an error.
type SeasonalJob struct {
	users      UserStore
	renderer   *Renderer
	window     config.DateWindow
	loc        *time.Location
	activeDays int
	template   Template
	now        func() time.Time
}

// NewSeasonalJob creates one seasonal campaign for the given window.
func NewSeasonalJob(users UserStore, renderer *Renderer, window config.DateWindow, loc *time.Location) *SeasonalJob {
	return &SeasonalJob{
		users:    users,
		renderer: renderer,
		window:   window,
		loc:      loc,
		// Seasonal mail goes to the live population only.
		activeDays: 30,
		template: Template{
			Subject:  "Een speciaal moment, {{ first_name | default: \"daar\" }}",
			HTML:     "<p>Hoi {{ first_name }}, vier het seizoen met iemand nieuw. Kijk wie er online is!</p>",
			Text:     "Hoi {{ first_name }}, vier het seizoen met iemand nieuw. Kijk wie er online is!",
			Required: []string{"first_name"},
		},
		now: time.Now,
	}
}

func (j *SeasonalJob) Name() string                      { return "seasonal-" + j.window.Name }
func (j *SeasonalJob) Category() domain.CampaignCategory { return domain.CategorySeasonal }

// InWindow checks the month/day range and the optional weekday/hour rule
// in the platform timezone.
func (j *SeasonalJob) InWindow(now time.Time) bool {
	t := now.In(j.loc)

	day := monthDay(t.Month(), t.Day())
	from := monthDay(time.Month(j.window.FromMonth), j.window.FromDay)
	to := monthDay(time.Month(j.window.ToMonth), j.window.ToDay)
	var inRange bool
	if from <= to {
		inRange = day >= from && day <= to
	} else {
		// Window wraps the year boundary (e.g. Dec 28 – Jan 2).
		inRange = day >= from || day <= to
	}
	if !inRange {
		return false
	}

	if j.window.Weekday >= 0 && time.Weekday(j.window.Weekday) != t.Weekday() {
		return false
	}
	if j.window.AfterHour > 0 && t.Hour() < j.window.AfterHour {
		return false
	}
	return true
}

// monthDay flattens a month/day pair for range comparison.
func monthDay(m time.Month, d int) int { return int(m)*100 + d }

func (j *SeasonalJob) Select(ctx context.Context) ([]domain.Recipient, error) {
	cutoff := j.now().AddDate(0, 0, -j.activeDays)
	return j.users.ActiveUsers(ctx, cutoff)
}

func (j *SeasonalJob) WindowKey(now time.Time, _ domain.Recipient) string {
	return fmt.Sprintf("seasonal:%s:%d", j.window.Name, now.In(j.loc).Year())
}

func (j *SeasonalJob) Render(r domain.Recipient) (domain.Message, error) {
	return j.renderer.Render(j.template, j.Category(), r)
}
