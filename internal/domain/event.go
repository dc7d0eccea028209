package domain

import "time"

// EventType enumerates the ephemeral real-time signals carried by the bus.
type EventType string

const (
	EventTypingStart  EventType = "typing_start"
	EventTypingStop   EventType = "typing_stop"
	EventMatchCreated EventType = "match_created"
	EventNewMessage   EventType = "new_message"
)

// Event is a transient pub/sub message. Events are never persisted: an event
// published with no live subscriber is dropped, by design.
type Event struct {
	Channel   string         `json:"channel"`
	Type      EventType      `json:"type"`
	SenderID  string         `json:"sender_id"`
	Payload   map[string]any `json:"payload,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}
