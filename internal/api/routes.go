package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures the router: an open health check plus the /api
// surface. Everything under /api/jobs and /api/strategies mutates; the rest
// is read-only.
func SetupRoutes(h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/communities", h.ListCommunities)
		r.Get("/users", h.ListUsers)
		r.Get("/users/{id}", h.GetUser)
		r.Get("/leaderboard", h.GetLeaderboard)
		r.Get("/campaigns", h.ListCampaigns)
		r.Get("/campaigns/{id}/stats", h.GetCampaignStats)
		r.Get("/dashboard", h.GetDashboard)
		r.Get("/metrics/history", h.GetMetricsHistory)

		r.Post("/jobs/{name}/run", h.RunJob)

		r.Route("/strategies", func(r chi.Router) {
			r.Get("/", h.ListStrategies)
			r.Post("/", h.CreateStrategy)
			r.Post("/{id}/execute", h.ExecuteStrategy)
			r.Post("/{id}/optimize", h.OptimizeStrategy)
		})
	})

	return r
}
