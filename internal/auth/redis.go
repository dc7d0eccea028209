package auth

import (
	"context"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
)

// DefaultCookieName is the session cookie the platform frontend sets.
const DefaultCookieName = "amor_session"

// RedisVerifier resolves session tokens against the shared session store.
// The platform writes "session:<token>" -> userID with its own TTL; this
// verifier only reads.
type RedisVerifier struct {
	rdb        *redis.Client
	cookieName string
}

// NewRedisVerifier creates a verifier over the shared Redis session store.
// An empty cookieName falls back to DefaultCookieName.
func NewRedisVerifier(rdb *redis.Client, cookieName string) *RedisVerifier {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	return &RedisVerifier{rdb: rdb, cookieName: cookieName}
}

func sessionKey(token string) string { return "session:" + token }

// Verify looks up the session cookie's token. A bearer token in the
// Authorization header is accepted as well for non-browser clients.
func (v *RedisVerifier) Verify(ctx context.Context, r *http.Request) (Session, error) {
	token := bearerToken(r)
	if token == "" {
		cookie, err := r.Cookie(v.cookieName)
		if err != nil {
			return Session{}, ErrNoSession
		}
		token = cookie.Value
	}
	if token == "" {
		return Session{}, ErrNoSession
	}

	userID, err := v.rdb.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return Session{}, ErrNoSession
	}
	if err != nil {
		return Session{}, fmt.Errorf("session lookup: %w", err)
	}
	return Session{UserID: userID}, nil
}

func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && h[:len(prefix)] == prefix {
		return h[len(prefix):]
	}
	return ""
}
