package domain

import "time"

// User is the read model for a platform member, limited to the fields the
// engagement service selects on. The full profile lives with the platform's
// user service and is out of scope here.
type User struct {
	ID             string     `json:"id" db:"id"`
	Email          string     `json:"email" db:"email"`
	FirstName      string     `json:"first_name" db:"first_name"`
	BirthDate      *time.Time `json:"birth_date,omitempty" db:"birth_date"`
	SignupAt       time.Time  `json:"signup_at" db:"signup_at"`
	LastActivityAt time.Time  `json:"last_activity_at" db:"last_activity_at"`
}

// Match is a mutual connection between two users. Typing signals are only
// accepted from one of the two participants.
type Match struct {
	ID      string    `json:"id" db:"id"`
	UserAID string    `json:"user_a_id" db:"user_a_id"`
	UserBID string    `json:"user_b_id" db:"user_b_id"`
	MadeAt  time.Time `json:"made_at" db:"made_at"`
}

// HasParticipant reports whether userID is one of the two match members.
func (m Match) HasParticipant(userID string) bool {
	return m.UserAID == userID || m.UserBID == userID
}

// OtherParticipant returns the counterpart of userID in the match, or ""
// if userID is not a participant.
func (m Match) OtherParticipant(userID string) string {
	switch userID {
	case m.UserAID:
		return m.UserBID
	case m.UserBID:
		return m.UserAID
	}
	return ""
}
