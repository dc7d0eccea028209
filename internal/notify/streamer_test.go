package notify

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type stubCounter struct {
	mu    sync.Mutex
	count int
	err   error
	calls int
}

func (c *stubCounter) UnreadCount(_ context.Context, _ string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.err != nil {
		return 0, c.err
	}
	return c.count, nil
}

func (c *stubCounter) set(count int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count, c.err = count, err
}

func (c *stubCounter) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func runStream(t *testing.T, s *Streamer, d time.Duration) *httptest.ResponseRecorder {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/notifications/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		s.Stream(rec, req, "user-1")
		close(done)
	}()

	time.Sleep(d)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not terminate after client disconnect")
	}
	return rec
}

func TestStream_EmitsImmediateSnapshotAndPeriodicFrames(t *testing.T) {
	counter := &stubCounter{count: 3}
	s := NewStreamer(counter, 20*time.Millisecond)

	rec := runStream(t, s, 70*time.Millisecond)

	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	frames := strings.Count(rec.Body.String(), "data: {\"unreadCount\": 3}\n\n")
	if frames < 2 {
		t.Errorf("expected an immediate frame plus periodic frames, got %d:\n%s", frames, rec.Body.String())
	}
}

func TestStream_TerminatesOnDisconnect(t *testing.T) {
	counter := &stubCounter{count: 1}
	s := NewStreamer(counter, 10*time.Millisecond)

	rec := runStream(t, s, 30*time.Millisecond)
	callsAtDisconnect := counter.callCount()

	// The per-connection timer must be freed: no further reads after the
	// stream handler returned.
	time.Sleep(50 * time.Millisecond)
	if got := counter.callCount(); got != callsAtDisconnect {
		t.Errorf("counter still being polled after disconnect: %d -> %d", callsAtDisconnect, got)
	}
	if !strings.Contains(rec.Body.String(), "unreadCount") {
		t.Error("expected at least one frame before disconnect")
	}
}

func TestStream_SkipsTickOnReadFailure(t *testing.T) {
	counter := &stubCounter{count: 2}
	s := NewStreamer(counter, 15*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/api/notifications/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		s.Stream(rec, req, "user-1")
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	counter.set(0, errors.New("storage down"))
	time.Sleep(40 * time.Millisecond)
	counter.set(7, nil)
	time.Sleep(40 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	if !strings.Contains(body, "data: {\"unreadCount\": 2}\n\n") {
		t.Errorf("missing pre-failure frame:\n%s", body)
	}
	if !strings.Contains(body, "data: {\"unreadCount\": 7}\n\n") {
		t.Errorf("stream did not recover after transient failure:\n%s", body)
	}
}
