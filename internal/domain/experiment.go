package domain

import "time"

// ExperimentStatus enumerates the lifecycle of an A/B experiment.
type ExperimentStatus string

const (
	ExperimentRunning ExperimentStatus = "running"
	ExperimentEnded   ExperimentStatus = "ended"
)

// Experiment is a running A/B test over campaign content. The evaluation job
// ends it once a variant wins with statistical confidence.
type Experiment struct {
	ID            string           `json:"id" db:"id"`
	Name          string           `json:"name" db:"name"`
	Status        ExperimentStatus `json:"status" db:"status"`
	WinnerVariant string           `json:"winner_variant,omitempty" db:"winner_variant"`
	StartedAt     time.Time        `json:"started_at" db:"started_at"`
	EndedAt       *time.Time       `json:"ended_at,omitempty" db:"ended_at"`
}

// VariantMetrics are the observed counts for one experiment variant.
type VariantMetrics struct {
	VariantID   string `json:"variant_id" db:"variant_id"`
	Sends       int    `json:"sends" db:"sends"`
	Conversions int    `json:"conversions" db:"conversions"`
}

// ConversionRate returns conversions/sends, 0 for an unsampled variant.
func (v VariantMetrics) ConversionRate() float64 {
	if v.Sends == 0 {
		return 0
	}
	return float64(v.Conversions) / float64(v.Sends)
}
