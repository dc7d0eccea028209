package presence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupService(t *testing.T) (*Service, *time.Time) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	svc := NewService(rdb, 5*time.Minute)
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	return svc, &now
}

func TestTouchThenIsOnline(t *testing.T) {
	svc, now := setupService(t)
	ctx := context.Background()

	if err := svc.Touch(ctx, "user-1"); err != nil {
		t.Fatalf("Touch: %v", err)
	}

	online, err := svc.IsOnline(ctx, "user-1")
	if err != nil {
		t.Fatalf("IsOnline: %v", err)
	}
	if !online {
		t.Error("user should be online immediately after Touch")
	}

	// Advance past the threshold without another heartbeat.
	*now = now.Add(5*time.Minute + time.Second)
	online, err = svc.IsOnline(ctx, "user-1")
	if err != nil {
		t.Fatalf("IsOnline after threshold: %v", err)
	}
	if online {
		t.Error("user should be offline once the threshold has elapsed")
	}
}

func TestIsOnline_UnknownUserIsOfflineNotError(t *testing.T) {
	svc, _ := setupService(t)

	online, err := svc.IsOnline(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("IsOnline: %v", err)
	}
	if online {
		t.Error("unknown user must be offline")
	}
}

func TestTouch_RequiresUserID(t *testing.T) {
	svc, _ := setupService(t)
	if err := svc.Touch(context.Background(), ""); err == nil {
		t.Error("Touch with empty user id should fail")
	}
}

func TestTouch_DoesNotRegressLastSeen(t *testing.T) {
	svc, now := setupService(t)
	ctx := context.Background()

	if err := svc.Touch(ctx, "user-1"); err != nil {
		t.Fatalf("Touch: %v", err)
	}

	// A write with an older wall clock must not move the record backwards.
	*now = now.Add(-time.Hour)
	if err := svc.Touch(ctx, "user-1"); err != nil {
		t.Fatalf("Touch with older clock: %v", err)
	}

	*now = now.Add(time.Hour) // back to the original instant
	online, err := svc.IsOnline(ctx, "user-1")
	if err != nil {
		t.Fatalf("IsOnline: %v", err)
	}
	if !online {
		t.Error("stale-clock Touch regressed the last-seen timestamp")
	}
}

func TestStatusFor_ConsistentWithIsOnline(t *testing.T) {
	svc, now := setupService(t)
	ctx := context.Background()

	if err := svc.Touch(ctx, "fresh"); err != nil {
		t.Fatalf("Touch: %v", err)
	}
	*now = now.Add(10 * time.Minute)
	if err := svc.Touch(ctx, "online-now"); err != nil {
		t.Fatalf("Touch: %v", err)
	}

	ids := []string{"fresh", "online-now", "ghost"}
	statuses, err := svc.StatusFor(ctx, ids)
	if err != nil {
		t.Fatalf("StatusFor: %v", err)
	}
	if len(statuses) != len(ids) {
		t.Fatalf("StatusFor returned %d entries, want %d", len(statuses), len(ids))
	}

	for _, id := range ids {
		individual, err := svc.IsOnline(ctx, id)
		if err != nil {
			t.Fatalf("IsOnline(%s): %v", id, err)
		}
		if statuses[id].Online != individual {
			t.Errorf("StatusFor(%s).Online = %v, IsOnline = %v", id, statuses[id].Online, individual)
		}
	}

	if statuses["fresh"].LastSeenText != "10 minuten geleden" {
		t.Errorf("fresh LastSeenText = %q", statuses["fresh"].LastSeenText)
	}
	if statuses["online-now"].LastSeenText != "nu online" {
		t.Errorf("online-now LastSeenText = %q", statuses["online-now"].LastSeenText)
	}
	if statuses["ghost"].Online || statuses["ghost"].LastSeenText != "" {
		t.Errorf("ghost should be offline with empty text, got %+v", statuses["ghost"])
	}
}

func TestStatusFor_EmptyInput(t *testing.T) {
	svc, _ := setupService(t)
	statuses, err := svc.StatusFor(context.Background(), nil)
	if err != nil {
		t.Fatalf("StatusFor: %v", err)
	}
	if len(statuses) != 0 {
		t.Errorf("expected empty result, got %d entries", len(statuses))
	}
}

func TestOnlineCount(t *testing.T) {
	svc, now := setupService(t)
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		if err := svc.Touch(ctx, id); err != nil {
			t.Fatalf("Touch(%s): %v", id, err)
		}
	}

	count, err := svc.OnlineCount(ctx)
	if err != nil {
		t.Fatalf("OnlineCount: %v", err)
	}
	if count != 3 {
		t.Errorf("OnlineCount = %d, want 3", count)
	}

	// Let two of them go stale, refresh one.
	*now = now.Add(10 * time.Minute)
	if err := svc.Touch(ctx, "b"); err != nil {
		t.Fatalf("Touch(b): %v", err)
	}
	count, err = svc.OnlineCount(ctx)
	if err != nil {
		t.Fatalf("OnlineCount: %v", err)
	}
	if count != 1 {
		t.Errorf("OnlineCount = %d, want 1", count)
	}
}

func TestStorageUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	svc := NewService(rdb, 5*time.Minute)
	mr.Close()

	if err := svc.Touch(context.Background(), "u"); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("Touch after redis down: got %v, want ErrStorageUnavailable", err)
	}
	if _, err := svc.OnlineCount(context.Background()); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("OnlineCount after redis down: got %v, want ErrStorageUnavailable", err)
	}
}
