package campaign

import (
	"context"
	"time"

	"github.com/amorlink/engage/internal/domain"
)

// dormancyBucket is one re-engagement segment with its own copy.
type dormancyBucket struct {
	name     string
	fromDays int // dormant at least this long
	toDays   int // but less than this
	subject  string
}

// reengagementBuckets segments dormant users. Users dormant past the last
// bucket belong to win-back, not re-engagement.
var reengagementBuckets = []dormancyBucket{
	{name: "two_weeks", fromDays: 14, toDays: 30,
		subject: "Nieuwe matches wachten op je, {{ first_name | default: \"daar\" }}"},
	{name: "one_month", fromDays: 30, toDays: 60,
		subject: "{{ first_name | default: \"Daar\" }}, je profiel wordt nog steeds bekeken"},
	{name: "two_months", fromDays: 60, toDays: 90,
		subject: "Eén bericht kan alles veranderen, {{ first_name | default: \"daar\" }}"},
}

// ReengagementJob nudges recently dormant users with copy tailored to how
// long they have been away.
type ReengagementJob struct {
	users    UserStore
	renderer *Renderer
	now      func() time.Time
}

// NewReengagementJob creates the re-engagement campaign.
func NewReengagementJob(users UserStore, renderer *Renderer) *ReengagementJob {
	return &ReengagementJob{users: users, renderer: renderer, now: time.Now}
}

func (j *ReengagementJob) Name() string                      { return "reengagement" }
func (j *ReengagementJob) Category() domain.CampaignCategory { return domain.CategoryReengagement }
func (j *ReengagementJob) InWindow(time.Time) bool           { return true }

// Select unions the dormancy buckets, stamping each recipient with the
// bucket that owns them so Render can pick the matching copy.
func (j *ReengagementJob) Select(ctx context.Context) ([]domain.Recipient, error) {
	now := j.now()
	var all []domain.Recipient
	for _, b := range reengagementBuckets {
		from := now.AddDate(0, 0, -b.toDays)
		to := now.AddDate(0, 0, -b.fromDays)
		recipients, err := j.users.DormantBetween(ctx, from, to)
		if err != nil {
			return nil, err
		}
		for _, r := range recipients {
			// Copy before stamping: the store may hand out shared maps.
			bindings := make(map[string]any, len(r.Bindings)+1)
			for k, v := range r.Bindings {
				bindings[k] = v
			}
			bindings["dormancy_bucket"] = b.name
			r.Bindings = bindings
			all = append(all, r)
		}
	}
	return all, nil
}

func (j *ReengagementJob) WindowKey(now time.Time, _ domain.Recipient) string {
	return "reengagement:" + now.Format("2006-01-02")
}

func (j *ReengagementJob) Render(r domain.Recipient) (domain.Message, error) {
	bucketName, _ := r.Bindings["dormancy_bucket"].(string)
	var bucket *dormancyBucket
	for i := range reengagementBuckets {
		if reengagementBuckets[i].name == bucketName {
			bucket = &reengagementBuckets[i]
			break
		}
	}
	if bucket == nil {
		return domain.Message{}, ErrMissingBinding
	}

	tpl := Template{
		Subject:  bucket.subject,
		HTML:     "<p>Hoi {{ first_name }}, we hebben je gemist. Log in en ontdek wie er naar je profiel keek.</p>",
		Text:     "Hoi {{ first_name }}, we hebben je gemist. Log in en ontdek wie er naar je profiel keek.",
		Required: []string{"first_name"},
	}
	return j.renderer.Render(tpl, j.Category(), r)
}
