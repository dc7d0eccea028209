package bus

import "fmt"

// ConversationChannel names the typing-indicator channel for one match.
func ConversationChannel(matchID string) string {
	return fmt.Sprintf("conv:%s:typing", matchID)
}

// UserChannel names a user's private notification channel (match created,
// new message, typing in one of their conversations).
func UserChannel(userID string) string {
	return fmt.Sprintf("user:%s:events", userID)
}
