package api

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/amorlink/engage/internal/pkg/httputil"
)

// HealthChecker pings the service's two stateful dependencies.
type HealthChecker struct {
	db  *sql.DB
	rdb *redis.Client
}

// NewHealthChecker creates a health checker. Nil dependencies report
// "not_configured" rather than failing.
func NewHealthChecker(db *sql.DB, rdb *redis.Client) *HealthChecker {
	return &HealthChecker{db: db, rdb: rdb}
}

// SetHealthChecker attaches dependency checks to the health endpoint.
func (h *Handlers) SetHealthChecker(hc *HealthChecker) { h.health = hc }

// Health reports overall service health.
//
//	GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.health == nil {
		httputil.OK(w, map[string]any{"status": "healthy"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := map[string]string{}
	status := "healthy"

	if h.health.db == nil {
		checks["postgres"] = "not_configured"
	} else if err := h.health.db.PingContext(ctx); err != nil {
		checks["postgres"] = "down"
		status = "unhealthy"
	} else {
		checks["postgres"] = "up"
	}

	if h.health.rdb == nil {
		checks["redis"] = "not_configured"
	} else if err := h.health.rdb.Ping(ctx).Err(); err != nil {
		checks["redis"] = "down"
		// Presence and the bus self-heal when Redis returns; mail paths
		// stay up. Degraded, not dead.
		if status == "healthy" {
			status = "degraded"
		}
	} else {
		checks["redis"] = "up"
	}

	code := http.StatusOK
	if status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	httputil.JSON(w, code, map[string]any{"status": status, "checks": checks})
}
