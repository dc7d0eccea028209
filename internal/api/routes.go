package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/amorlink/engage/internal/auth"
	"github.com/amorlink/engage/internal/config"
)

// SetupRoutes configures the route tree. Session-authenticated user
// endpoints live under /api; job triggers carry their own shared-secret
// auth and are mounted separately so the external scheduler needs no
// session.
func SetupRoutes(cfg config.ServerConfig, h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSession(h.verifier))

			r.Post("/presence/heartbeat", h.Heartbeat)
			r.Get("/presence/status", h.PresenceStatus)
			r.Post("/typing", h.Typing)
			r.Get("/notifications/stream", h.NotificationStream)
		})

		r.Group(func(r chi.Router) {
			r.Use(TriggerAuth(h.triggerSecret, cfg.IsProduction()))
			r.Post("/jobs/{name}/run", h.RunJob)
		})
	})

	return r
}
