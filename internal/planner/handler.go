// internal/planner/handler.go
package planner

import (
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"heritage/internal/platform/httpx"
	"heritage/internal/platform/observability"
)

type Handler struct {
	sessions *Sessions
}

func NewHandler(sessions *Sessions) *Handler {
	return &Handler{sessions: sessions}
}

// Routes mounts the planner endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/sessions", h.handleCreate)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.handleSnapshot)
		r.Delete("/", h.handleDelete)
		r.Put("/base", h.handleSelectBase)
		r.Post("/stops", h.handleAddStop)
		r.Post("/stops/custom", h.handleAddCustomStop)
		r.Delete("/stops/{stopID}", h.handleRemoveStop)
		r.Put("/stops/order", h.handleReorder)
		r.Post("/optimize", h.handleOptimize)
		r.Post("/route", h.handleRoute)
		r.Post("/save", h.handleSave)
		r.Get("/download", h.handleDownload)
		r.Get("/notices", h.handleNotices)
	})
	r.Get("/itineraries", h.handleItineraries)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

type sessionResponse struct {
	ID string `json:"id"`
	Snapshot
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	sess, err := h.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return nil, false
	}
	return sess, true
}

func writeSnapshot(w http.ResponseWriter, status int, sess *Session) {
	httpx.WriteJSON(w, status, sessionResponse{ID: sess.ID, Snapshot: sess.Planner.Snapshot()})
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var e *httpx.Error
	switch {
	case errors.Is(err, ErrSessionNotFound):
		e = httpx.NewError("session_not_found", err.Error(), http.StatusNotFound).WithFallback("/sessions")
	case errors.Is(err, ErrBaseNotFound):
		e = httpx.NewError("base_not_found", err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrBaseUnavailable):
		e = httpx.NewError("base_unavailable", "monastery data could not be loaded, please try again", http.StatusServiceUnavailable).AsRetryable()
	case errors.Is(err, ErrCandidateNotFound):
		e = httpx.NewError("candidate_not_found", err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrStopNotFound):
		e = httpx.NewError("stop_not_found", err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrDuplicateStop):
		e = httpx.NewError("duplicate_stop", err.Error(), http.StatusConflict)
	case errors.Is(err, ErrSuperseded):
		e = httpx.NewError("superseded", err.Error(), http.StatusConflict)
	case errors.Is(err, ErrInvalidOrder), errors.Is(err, ErrInvalidStop):
		e = httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrNameRequired):
		e = httpx.NewError("name_required", err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrNoStops), errors.Is(err, ErrTooFewStops):
		e = httpx.NewError("not_enough_stops", err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, ErrRouteUnavailable):
		e = httpx.NewError("route_unavailable", "route could not be calculated, please try again", http.StatusBadGateway).AsRetryable()
	default:
		observability.FromContext(r.Context()).Error("planner request failed", zap.Error(err))
		e = httpx.NewError("internal_server_error", "internal server error", http.StatusInternalServerError)
	}
	httpx.WriteError(w, e)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	writeSnapshot(w, http.StatusCreated, h.sessions.Create())
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeSnapshot(w, http.StatusOK, sess)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSelectBase(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		BaseID string `json:"base_id"`
	}
	if e := httpx.DecodeJSON(r, &req); e != nil {
		httpx.WriteError(w, e)
		return
	}
	if req.BaseID == "" {
		httpx.WriteError(w, httpx.NewError("invalid_request", "base_id is required", http.StatusBadRequest))
		return
	}
	if err := sess.Planner.SelectBase(r.Context(), req.BaseID); err != nil {
		writeError(w, r, err)
		return
	}
	writeSnapshot(w, http.StatusOK, sess)
}

func (h *Handler) handleAddStop(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		CandidateID string `json:"candidate_id"`
	}
	if e := httpx.DecodeJSON(r, &req); e != nil {
		httpx.WriteError(w, e)
		return
	}
	if err := sess.Planner.AddStop(r.Context(), req.CandidateID); err != nil {
		writeError(w, r, err)
		return
	}
	writeSnapshot(w, http.StatusOK, sess)
}

func (h *Handler) handleAddCustomStop(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req CustomStop
	if e := httpx.DecodeJSON(r, &req); e != nil {
		httpx.WriteError(w, e)
		return
	}
	if _, err := sess.Planner.AddCustomStop(r.Context(), req); err != nil {
		writeError(w, r, err)
		return
	}
	writeSnapshot(w, http.StatusOK, sess)
}

func (h *Handler) handleRemoveStop(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Planner.RemoveStop(r.Context(), chi.URLParam(r, "stopID")); err != nil {
		writeError(w, r, err)
		return
	}
	writeSnapshot(w, http.StatusOK, sess)
}

func (h *Handler) handleReorder(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		StopIDs []string `json:"stop_ids"`
	}
	if e := httpx.DecodeJSON(r, &req); e != nil {
		httpx.WriteError(w, e)
		return
	}
	if err := sess.Planner.ReorderStops(r.Context(), req.StopIDs); err != nil {
		writeError(w, r, err)
		return
	}
	writeSnapshot(w, http.StatusOK, sess)
}

func (h *Handler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := sess.Planner.Optimize(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeSnapshot(w, http.StatusOK, sess)
}

func (h *Handler) handleRoute(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if _, err := sess.Planner.ComputeRoute(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	writeSnapshot(w, http.StatusOK, sess)
}

func (h *Handler) handleSave(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if e := httpx.DecodeOptionalJSON(r, &req); e != nil {
		httpx.WriteError(w, e)
		return
	}
	it, err := sess.Planner.Save(r.Context(), req.Name)
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, it)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	exp, err := sess.Planner.Download(r.URL.Query().Get("name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", exp.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": exp.Filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(exp.Data)
}

func (h *Handler) handleNotices(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string][]Notice{"notices": sess.Inbox.Drain()})
}

func (h *Handler) handleItineraries(w http.ResponseWriter, r *http.Request) {
	items, err := h.sessions.Saved(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []Itinerary{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string][]Itinerary{"items": items})
}
