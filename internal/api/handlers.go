package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/amorlink/engage/internal/auth"
	"github.com/amorlink/engage/internal/bus"
	"github.com/amorlink/engage/internal/domain"
	"github.com/amorlink/engage/internal/pkg/httputil"
	"github.com/amorlink/engage/internal/pkg/logger"
	"github.com/amorlink/engage/internal/presence"
	"github.com/amorlink/engage/internal/repository/postgres"
)

// PresenceService is the presence tracker surface the handlers use.
type PresenceService interface {
	Touch(ctx context.Context, userID string) error
	StatusFor(ctx context.Context, userIDs []string) (map[string]domain.UserPresence, error)
	OnlineCount(ctx context.Context) (int64, error)
}

// MatchReader resolves matches for typing-signal participant checks.
type MatchReader interface {
	Match(ctx context.Context, id string) (domain.Match, error)
}

// Publisher is the fan-out side of the bus.
type Publisher interface {
	Publish(ctx context.Context, channel string, evt domain.Event) error
}

// Streamer writes the long-lived notification stream onto a connection.
type Streamer interface {
	Stream(w http.ResponseWriter, r *http.Request, userID string)
}

// Handlers carries the wired services behind the HTTP surface.
type Handlers struct {
	presence PresenceService
	matches  MatchReader
	bus      Publisher
	stream   Streamer
	jobs     *JobRegistry
	health   *HealthChecker

	verifier      auth.Verifier
	triggerSecret string
}

// NewHandlers wires the HTTP handlers.
func NewHandlers(
	presenceSvc PresenceService,
	matches MatchReader,
	bus Publisher,
	stream Streamer,
	jobs *JobRegistry,
	verifier auth.Verifier,
	triggerSecret string,
) *Handlers {
	return &Handlers{
		presence:      presenceSvc,
		matches:       matches,
		bus:           bus,
		stream:        stream,
		jobs:          jobs,
		verifier:      verifier,
		triggerSecret: triggerSecret,
	}
}

// Heartbeat records the authenticated user as seen now.
//
//	POST /api/presence/heartbeat
func (h *Handlers) Heartbeat(w http.ResponseWriter, r *http.Request) {
	if err := h.presence.Touch(r.Context(), auth.UserID(r.Context())); err != nil {
		httputil.InternalError(w, err)
		return
	}
	httputil.OK(w, map[string]any{"success": true})
}

type presenceEntry struct {
	IsOnline     bool   `json:"isOnline"`
	LastSeenText string `json:"lastSeenText"`
}

// lastSeenUnknown is the degraded answer when the presence store is down.
const lastSeenUnknown = "onbekend"

// PresenceStatus answers a batch presence query. Without ids it returns
// only the live online count. A presence-store outage degrades the batch
// answer to unknown instead of failing the request; presence is a
// secondary read on the pages that embed it.
//
//	GET /api/presence/status?ids=a,b,c
func (h *Handlers) PresenceStatus(w http.ResponseWriter, r *http.Request) {
	ids := splitIDs(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		count, err := h.presence.OnlineCount(r.Context())
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
		httputil.OK(w, map[string]any{"onlineCount": count})
		return
	}

	statuses, err := h.presence.StatusFor(r.Context(), ids)
	if err != nil {
		if !errors.Is(err, presence.ErrStorageUnavailable) {
			httputil.InternalError(w, err)
			return
		}
		logger.Warn("presence store unavailable, degrading to unknown", "error", err)
		out := make(map[string]presenceEntry, len(ids))
		for _, id := range ids {
			out[id] = presenceEntry{LastSeenText: lastSeenUnknown}
		}
		httputil.OK(w, out)
		return
	}

	out := make(map[string]presenceEntry, len(statuses))
	for id, s := range statuses {
		out[id] = presenceEntry{IsOnline: s.Online, LastSeenText: s.LastSeenText}
	}
	httputil.OK(w, out)
}

func splitIDs(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, id := range strings.Split(raw, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}

type typingRequest struct {
	MatchID  string `json:"matchId"`
	IsTyping bool   `json:"isTyping"`
}

// Typing publishes a typing signal to the conversation channel and to the
// other participant's private channel. Only match participants may signal.
//
//	POST /api/typing
func (h *Handlers) Typing(w http.ResponseWriter, r *http.Request) {
	var req typingRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.MatchID == "" {
		httputil.BadRequest(w, "matchId is required")
		return
	}

	userID := auth.UserID(r.Context())
	match, err := h.matches.Match(r.Context(), req.MatchID)
	if errors.Is(err, postgres.ErrNotFound) {
		httputil.NotFound(w, "match not found")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	if !match.HasParticipant(userID) {
		httputil.Forbidden(w, "not a participant of this match")
		return
	}

	evt := domain.Event{
		Type:      domain.EventTypingStart,
		SenderID:  userID,
		Payload:   map[string]any{"matchId": match.ID, "isTyping": req.IsTyping},
		Timestamp: time.Now().UTC(),
	}
	if !req.IsTyping {
		evt.Type = domain.EventTypingStop
	}

	for _, channel := range []string{
		bus.ConversationChannel(match.ID),
		bus.UserChannel(match.OtherParticipant(userID)),
	} {
		if err := h.bus.Publish(r.Context(), channel, evt); err != nil {
			httputil.InternalError(w, err)
			return
		}
	}
	httputil.OK(w, map[string]any{"success": true})
}

// NotificationStream opens the per-connection unread-count stream.
//
//	GET /api/notifications/stream
func (h *Handlers) NotificationStream(w http.ResponseWriter, r *http.Request) {
	h.stream.Stream(w, r, auth.UserID(r.Context()))
}
