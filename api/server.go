/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the dashboard

ROUTE GROUPS:
  /api/workers/*     Roster, rates, locks
  /api/selection     Admin worker selection
  /api/accounts/*    Balances and statements
  /api/histories/*   The four dated histories
  /api/reports/*     Company drawings
  /api/login/*       Admin and worker logins
  /api/revision      Change counter

SECURITY NOTE:
  Logins only check credentials. No session is issued and the other
  endpoints are not guarded.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

var defaultOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured. An empty
// origins list allows the local dashboard origins.
func NewRouter(h *Handler, origins []string) *chi.Mux {
	if len(origins) == 0 {
		origins = defaultOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/workers", func(r chi.Router) {
			r.Get("/", h.ListWorkers)
			r.Post("/", h.CreateWorker)
			r.Delete("/{name}", h.DeleteWorker)
			r.Post("/{name}/lock", h.ToggleLock)
			r.Put("/{name}/rate", h.SetRate)
		})
		r.Get("/rates", h.ListRates)
		r.Get("/selection", h.GetSelection)
		r.Put("/selection", h.PutSelection)

		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", h.ListAccounts)
			r.Get("/{name}", h.GetStatement)
		})

		r.Route("/histories/{kind}", func(r chi.Router) {
			r.Get("/", h.ListEntries)
			r.Post("/", h.CreateEntry)
			r.Delete("/{id}", h.DeleteEntry)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/", h.ListReports)
			r.Post("/", h.CreateReport)
			r.Get("/summary", h.GetSummary)
			r.Delete("/{id}", h.DeleteReport)
		})

		r.Route("/login", func(r chi.Router) {
			r.Post("/admin", h.AdminLogin)
			r.Post("/worker", h.WorkerLogin)
		})

		r.Get("/revision", h.GetRevision)
	})

	return r
}
