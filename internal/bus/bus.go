package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/amorlink/engage/internal/domain"
	"github.com/amorlink/engage/internal/pkg/logger"
)

// Bus publishes and subscribes ephemeral events over Redis pub/sub.
// Safe for concurrent use.
type Bus struct {
	rdb *redis.Client
}

// New creates a bus on the given Redis client.
func New(rdb *redis.Client) *Bus {
	return &Bus{rdb: rdb}
}

// Publish hands the event to Redis and returns once accepted by the
// transport, not once delivered. Zero subscribers is not an error.
func (b *Bus) Publish(ctx context.Context, channel string, evt domain.Event) error {
	evt.Channel = channel
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.rdb.Publish(ctx, channel, body).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	return nil
}

// Subscription is a live listener on one or more channels. Close it when
// the owning connection goes away, or the listener slot leaks.
type Subscription struct {
	pubsub *redis.PubSub
	events chan domain.Event
}

// Subscribe registers interest in the given channels. The returned
// subscription's Events channel yields events until Close is called or
// ctx is canceled.
func (b *Bus) Subscribe(ctx context.Context, channels ...string) (*Subscription, error) {
	pubsub := b.rdb.Subscribe(ctx, channels...)
	// Force the SUBSCRIBE round trip so a broken connection fails here,
	// not silently in the receive loop.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("subscribe %v: %w", channels, err)
	}

	sub := &Subscription{
		pubsub: pubsub,
		events: make(chan domain.Event, 16),
	}
	go sub.pump(ctx)
	return sub, nil
}

// Events yields the incoming events in per-channel publish order.
func (s *Subscription) Events() <-chan domain.Event {
	return s.events
}

// Close releases the listener slot. Idempotent via the underlying PubSub.
func (s *Subscription) Close() error {
	return s.pubsub.Close()
}

func (s *Subscription) pump(ctx context.Context) {
	defer close(s.events)
	ch := s.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			s.pubsub.Close()
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var evt domain.Event
			if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
				logger.Warn("bus: dropping malformed event", "channel", msg.Channel, "error", err)
				continue
			}
			select {
			case s.events <- evt:
			case <-ctx.Done():
				s.pubsub.Close()
				return
			}
		}
	}
}
