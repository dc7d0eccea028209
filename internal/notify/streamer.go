package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/amorlink/engage/internal/pkg/logger"
)

// UnreadCounter reads the current unread-notification count for a user.
type UnreadCounter interface {
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// Streamer writes the SSE unread-count stream for one connection at a time.
type Streamer struct {
	counter  UnreadCounter
	interval time.Duration
}

// NewStreamer creates a streamer pushing every interval (30s by default
// from config).
func NewStreamer(counter UnreadCounter, interval time.Duration) *Streamer {
	return &Streamer{counter: counter, interval: interval}
}

// Stream serves one SSE connection: an immediate snapshot frame, then one
// per interval until the client disconnects. A failed count read logs and
// skips that tick; it never terminates the stream.
func (s *Streamer) Stream(w http.ResponseWriter, r *http.Request, userID string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	s.emit(ctx, w, flusher, userID)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.emit(ctx, w, flusher, userID)
		}
	}
}

func (s *Streamer) emit(ctx context.Context, w http.ResponseWriter, flusher http.Flusher, userID string) {
	count, err := s.counter.UnreadCount(ctx, userID)
	if err != nil {
		if ctx.Err() == nil {
			logger.Warn("notify: unread count read failed, skipping tick", "user_id", userID, "error", err)
		}
		return
	}
	fmt.Fprintf(w, "data: {\"unreadCount\": %d}\n\n", count)
	flusher.Flush()
}
