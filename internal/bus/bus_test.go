package bus

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/amorlink/engage/internal/domain"
)

func setupBus(t *testing.T) *Bus {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return New(rdb)
}

func receiveOne(t *testing.T, sub *Subscription) domain.Event {
	t.Helper()
	select {
	case evt := <-sub.Events():
		return evt
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return domain.Event{}
	}
}

func TestPublish_ReachesAllSubscribersOnChannel(t *testing.T) {
	b := setupBus(t)
	ctx := context.Background()
	channel := ConversationChannel("match-1")

	sub1, err := b.Subscribe(ctx, channel)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub1.Close()
	sub2, err := b.Subscribe(ctx, channel)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub2.Close()

	evt := domain.Event{
		Type:      domain.EventTypingStart,
		SenderID:  "user-a",
		Timestamp: time.Now().UTC(),
	}
	if err := b.Publish(ctx, channel, evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	for _, sub := range []*Subscription{sub1, sub2} {
		got := receiveOne(t, sub)
		if got.Type != domain.EventTypingStart || got.SenderID != "user-a" {
			t.Errorf("unexpected event: %+v", got)
		}
		if got.Channel != channel {
			t.Errorf("event channel = %q, want %q", got.Channel, channel)
		}
	}
}

func TestPublish_DoesNotCrossChannels(t *testing.T) {
	b := setupBus(t)
	ctx := context.Background()

	mine, err := b.Subscribe(ctx, ConversationChannel("match-1"))
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer mine.Close()
	other, err := b.Subscribe(ctx, ConversationChannel("match-2"))
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer other.Close()

	if err := b.Publish(ctx, ConversationChannel("match-1"), domain.Event{Type: domain.EventTypingStart, SenderID: "a"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	receiveOne(t, mine)
	select {
	case evt := <-other.Events():
		t.Errorf("subscriber on match-2 received foreign event: %+v", evt)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestPublish_ZeroSubscribersIsSilent(t *testing.T) {
	b := setupBus(t)
	err := b.Publish(context.Background(), ConversationChannel("empty"), domain.Event{Type: domain.EventTypingStop})
	if err != nil {
		t.Fatalf("Publish with zero subscribers should not error: %v", err)
	}
}

func TestSubscribe_PerChannelOrder(t *testing.T) {
	b := setupBus(t)
	ctx := context.Background()
	channel := UserChannel("user-1")

	sub, err := b.Subscribe(ctx, channel)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer sub.Close()

	types := []domain.EventType{domain.EventTypingStart, domain.EventNewMessage, domain.EventTypingStop}
	for _, typ := range types {
		if err := b.Publish(ctx, channel, domain.Event{Type: typ, SenderID: "x"}); err != nil {
			t.Fatalf("Publish(%s): %v", typ, err)
		}
	}

	for i, want := range types {
		got := receiveOne(t, sub)
		if got.Type != want {
			t.Errorf("event %d: got %s, want %s", i, got.Type, want)
		}
	}
}

func TestSubscription_CloseStopsEvents(t *testing.T) {
	b := setupBus(t)
	ctx := context.Background()
	channel := UserChannel("user-2")

	sub, err := b.Subscribe(ctx, channel)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	if err := sub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// The events channel must terminate rather than hang forever.
	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Error("received event after Close")
		}
	case <-time.After(2 * time.Second):
		t.Error("events channel not closed after Close")
	}
}
