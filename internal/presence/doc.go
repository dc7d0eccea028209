// Package presence tracks whether users are currently online.
//
// A user's presence is a single heartbeat-refreshed timestamp in a Redis
// sorted set; "online" is derived at read time from a staleness threshold.
// Losing the Redis state is tolerable: presence self-heals on the next
// heartbeat, so nothing here is ever backed up or migrated.
package presence
