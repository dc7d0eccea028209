package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/amorlink/engage/internal/domain"
)

// milestoneDays are the tenure boundaries that earn a milestone email.
var milestoneDays = []int{7, 30}

// MilestoneJob congratulates users crossing a fixed tenure boundary. The
// per-boundary window key ("milestone:day7") makes each boundary fire at
// most once per user, ever: a user who already crossed never re-fires.
type MilestoneJob struct {
	users    UserStore
	renderer *Renderer
	now      func() time.Time
}

// NewMilestoneJob creates the milestone campaign.
func NewMilestoneJob(users UserStore, renderer *Renderer) *MilestoneJob {
	return &MilestoneJob{users: users, renderer: renderer, now: time.Now}
}

func (j *MilestoneJob) Name() string                      { return "milestone" }
func (j *MilestoneJob) Category() domain.CampaignCategory { return domain.CategoryMilestone }
func (j *MilestoneJob) InWindow(time.Time) bool           { return true }

// Select picks users whose signup falls exactly on a boundary day. A
// two-day selection band tolerates a missed trigger; the window key keeps
// the band from causing duplicates.
func (j *MilestoneJob) Select(ctx context.Context) ([]domain.Recipient, error) {
	now := j.now()
	var all []domain.Recipient
	for _, days := range milestoneDays {
		from := now.AddDate(0, 0, -(days + 2))
		to := now.AddDate(0, 0, -days)
		recipients, err := j.users.SignedUpBetween(ctx, from, to)
		if err != nil {
			return nil, err
		}
		for _, r := range recipients {
			// Copy before stamping: the store may hand out shared maps.
			bindings := make(map[string]any, len(r.Bindings)+1)
			for k, v := range r.Bindings {
				bindings[k] = v
			}
			bindings["milestone_days"] = days
			r.Bindings = bindings
			all = append(all, r)
		}
	}
	return all, nil
}

func (j *MilestoneJob) WindowKey(_ time.Time, r domain.Recipient) string {
	days, _ := r.Bindings["milestone_days"].(int)
	return fmt.Sprintf("milestone:day%d", days)
}

func (j *MilestoneJob) Render(r domain.Recipient) (domain.Message, error) {
	if _, ok := r.Bindings["milestone_days"].(int); !ok {
		return domain.Message{}, fmt.Errorf("%w: milestone_days", ErrMissingBinding)
	}
	tpl := Template{
		Subject:  "Al {{ milestone_days }} dagen lid, {{ first_name | default: \"daar\" }}!",
		HTML:     "<p>Hoi {{ first_name }}, je bent nu {{ milestone_days }} dagen lid. Tijd om je profiel een boost te geven!</p>",
		Text:     "Hoi {{ first_name }}, je bent nu {{ milestone_days }} dagen lid. Tijd om je profiel een boost te geven!",
		Required: []string{"first_name"},
	}
	return j.renderer.Render(tpl, j.Category(), r)
}
