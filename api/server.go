/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the admin frontend

ROUTE GROUPS:
  /api/plans/*      Plan generation, queries, lifecycle, export
  /api/periods/*    Roster periods and summaries
  /api/admin/*      Certification and capacity registration
  /api/audit        Audit trail
  /api/scenarios/*  Demo scenarios

SECURITY NOTE:
  No authentication middleware here. The service sits behind the fleet
  portal, which handles authentication and passes X-Actor-Id through.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Actor-Id"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Plan routes
		r.Route("/plans", func(r chi.Router) {
			r.Post("/generate", h.GeneratePlan)
			r.Delete("/", h.ClearPlans)
			r.Get("/", h.ListPlans)
			r.Get("/export", h.ExportPlans)
			r.Get("/{id}", h.GetPlan)
			r.Post("/{id}/status", h.UpdatePlanStatus)
		})

		// Period routes
		r.Route("/periods", func(r chi.Router) {
			r.Get("/", h.ListPeriods)
			r.Get("/{code}/summary", h.GetPeriodSummary)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/certifications", h.SaveCertification)
			r.Post("/capacity", h.SaveCapacity)
		})

		// Audit trail
		r.Get("/audit", h.ListAudit)

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
