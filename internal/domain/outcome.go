package domain

import "time"

// DeliveryOutcome records one send attempt. Rows are created by claiming a
// (user, category, window) slot before dispatch and finalized exactly once
// after the transport answers; they are never mutated afterwards. The guard
// and the analytics queries read these rows, nothing deletes them.
type DeliveryOutcome struct {
	ID         string           `json:"id" db:"id"`
	UserID     string           `json:"user_id" db:"user_id"`
	Category   CampaignCategory `json:"category" db:"category"`
	WindowKey  string           `json:"window_key" db:"window_key"`
	Success    bool             `json:"success" db:"success"`
	ExternalID string           `json:"external_id,omitempty" db:"external_id"`
	FailReason string           `json:"fail_reason,omitempty" db:"fail_reason"`
	SentAt     time.Time        `json:"sent_at" db:"sent_at"`
	CreatedAt  time.Time        `json:"created_at" db:"created_at"`
}

// ContactPreference is a per-user, per-category opt-out flag.
type ContactPreference struct {
	UserID    string           `json:"user_id" db:"user_id"`
	Category  CampaignCategory `json:"category" db:"category"`
	OptedOut  bool             `json:"opted_out" db:"opted_out"`
	UpdatedAt time.Time        `json:"updated_at" db:"updated_at"`
}
