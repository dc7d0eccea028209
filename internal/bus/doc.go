// Package bus is the channel-addressed fan-out for ephemeral real-time
// events (typing indicators, personal notification signals).
//
// Delivery is fire-and-forget over Redis pub/sub: no persistence, no retry,
// no backlog. An event published while nobody subscribes is dropped, by
// design. Within one channel, a subscriber sees events in publish order;
// there is no ordering across channels.
package bus
