/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/workers/*        Worker catalog, transactions, balances
  /api/tasks/*          Task catalog
  /api/evaluations/*    Daily evaluations
  /api/reports/*        Monthly aggregates
  /api/attendance/*     Attendance and deduction reconciliation
  /api/admin/*          Admin operations

SECURITY NOTE:
  No authentication middleware. The engine performs no authorization;
  the deployment in front of it does.

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
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		// Worker routes
		r.Route("/workers", func(r chi.Router) {
			r.Get("/", h.ListWorkers)
			r.Post("/", h.CreateWorker)
			r.Put("/{id}", h.UpdateWorker)
			r.Delete("/{id}", h.DeleteWorker)
			r.Get("/{id}/transactions", h.ListTransactions)
			r.Post("/{id}/transactions", h.AddTransaction)
			r.Get("/{id}/balance", h.GetBalance)
		})

		// Task routes
		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", h.ListTasks)
			r.Post("/", h.CreateTask)
			r.Delete("/{id}", h.DeleteTask)
		})

		// Evaluation routes
		r.Route("/evaluations", func(r chi.Router) {
			r.Get("/", h.ListEvaluations)
			r.Post("/", h.SubmitEvaluation)
			r.Get("/{id}", h.GetEvaluation)
			r.Put("/{id}", h.UpdateEvaluation)
			r.Delete("/{id}", h.DeleteEvaluation)
		})

		// Reports
		r.Get("/reports/monthly", h.MonthlyReport)

		// Attendance routes
		r.Route("/attendance", func(r chi.Router) {
			r.Get("/", h.ListAttendance)
			r.Post("/", h.UpsertAttendance)
			r.Get("/sheet", h.AttendanceSheet)
		})

		// Standalone transaction deletion
		r.Delete("/transactions/{id}", h.DeleteTransaction)

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/migrate-scores", h.RunScoreMigration)
		})
	})

	return r
}
