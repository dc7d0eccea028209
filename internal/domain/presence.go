package domain

import "time"

// UserPresence is the derived online state for one user. It is never stored
// as-is: Online and LastSeenText are computed from LastSeenAt at read time.
type UserPresence struct {
	UserID       string    `json:"user_id"`
	Online       bool      `json:"is_online"`
	LastSeenAt   time.Time `json:"last_seen_at"`
	LastSeenText string    `json:"last_seen_text"`
}
