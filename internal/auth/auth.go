// Package auth resolves platform sessions for incoming requests. The
// engagement service does not own login; the main platform issues session
// cookies and this package only verifies them and exposes the caller's
// user ID to handlers.
package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/amorlink/engage/internal/pkg/httputil"
)

// ErrNoSession is returned when a request carries no valid session.
var ErrNoSession = errors.New("no valid session")

// Session identifies the authenticated platform user behind a request.
type Session struct {
	UserID string
}

// Verifier resolves a request to a platform session. Implementations must
// return ErrNoSession for missing/expired credentials and reserve other
// errors for backend failures.
type Verifier interface {
	Verify(ctx context.Context, r *http.Request) (Session, error)
}

type ctxKey struct{}

// WithSession stores the session on the context.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, s)
}

// FromContext returns the session placed by RequireSession.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(ctxKey{}).(Session)
	return s, ok
}

// UserID is a convenience accessor for handlers behind RequireSession.
func UserID(ctx context.Context) string {
	s, _ := FromContext(ctx)
	return s.UserID
}

// RequireSession is middleware that rejects unauthenticated requests with
// a 401 JSON envelope and otherwise stores the session on the context.
func RequireSession(v Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := v.Verify(r.Context(), r)
			if errors.Is(err, ErrNoSession) {
				httputil.Unauthorized(w, "unauthorized")
				return
			}
			if err != nil {
				httputil.InternalError(w, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
		})
	}
}
