package api

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/amorlink/engage/internal/pkg/httputil"
)

// TriggerSourceHeader identifies the platform's internal scheduler. It is
// honored instead of the bearer secret outside production only, so local
// and staging cron setups work without distributing the secret.
const TriggerSourceHeader = "X-Trigger-Source"

const triggerSourceScheduler = "scheduler"

// TriggerAuth authenticates job-trigger requests with the shared secret.
func TriggerAuth(secret string, production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bearerMatches(r.Header.Get("Authorization"), secret) {
				next.ServeHTTP(w, r)
				return
			}
			if !production && r.Header.Get(TriggerSourceHeader) == triggerSourceScheduler {
				next.ServeHTTP(w, r)
				return
			}
			httputil.Unauthorized(w, "unauthorized")
		})
	}
}

func bearerMatches(header, secret string) bool {
	if secret == "" {
		return false
	}
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
}
