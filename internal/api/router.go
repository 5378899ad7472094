package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/HiroshiOkada/update-notes/internal/runservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *runservice.Service, authEnabled bool, token string) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Consolidation runs.
	r.Post("/runs", h.TriggerRun)
	r.Get("/runs", h.ListRuns)
	r.Get("/runs/{id}/notes", h.RunNotes)

	return r
}
