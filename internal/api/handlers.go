package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/HiroshiOkada/update-notes/internal/history"
	"github.com/HiroshiOkada/update-notes/internal/models"
	"github.com/HiroshiOkada/update-notes/internal/runservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc *runservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *runservice.Service) *Handler {
	return &Handler{svc: svc}
}

// TriggerRun handles POST /runs: executes one consolidation run and
// returns its report. Runs are serialized by the service.
func (h *Handler) TriggerRun(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Trigger(r.Context())
	if err != nil {
		slog.Error("run failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("run failed"))
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// ListRuns handles GET /runs.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	runs, err := h.svc.ListRuns(r.Context(), limit)
	if err != nil {
		slog.Error("list runs failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if runs == nil {
		runs = []history.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"runs": runs,
	})
}

// RunNotes handles GET /runs/{id}/notes.
func (h *Handler) RunNotes(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid run id"))
		return
	}
	notes, err := h.svc.RunNotes(r.Context(), id)
	if err != nil {
		slog.Error("run notes failed", slog.Int64("run_id", id), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	if notes == nil {
		notes = []models.NoteOutcome{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"notes": notes,
	})
}
