// internal/catalog/handler.go
package catalog

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"heritage/internal/filter"
	"heritage/internal/platform/httpx"
	"heritage/internal/platform/observability"
)

type Handler struct {
	service Service
	now     func() time.Time
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service, now: time.Now}
}

// Routes mounts the catalog endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/monasteries", h.handleMonasteries)
	r.Get("/monasteries/{id}", h.handleMonastery)
	r.Get("/archives", h.handleArchives)
	r.Get("/archives/{id}", h.handleArchiveItem)
	r.Get("/events", h.handleEvents)
	r.Get("/events.ics", h.handleCalendar)
	r.Get("/events/{id}", h.handleEvent)
	r.Get("/tours", h.handleTours)
	r.Get("/tours/{id}", h.handleTour)
	r.Get("/bases", h.handleBases)
	r.Get("/bases/{id}", h.handleBase)
	r.Get("/facets", h.handleFacets)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func criteriaFrom(r *http.Request, collection string) filter.Criteria {
	q := r.URL.Query()
	c := filter.Criteria{Text: q.Get("q"), Dimensions: map[string]string{}}
	for _, d := range Dimensions[collection] {
		if v := q.Get(d); v != "" {
			c.Dimensions[d] = v
		}
	}
	return c
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.WriteError(w, httpx.NewError("not_found", err.Error(), http.StatusNotFound).WithFallback(fallback))
	case errors.Is(err, ErrNoVirtualTour):
		httpx.WriteError(w, httpx.NewError("no_virtual_tour", err.Error(), http.StatusNotFound).WithFallback(fallback))
	case errors.Is(err, ErrUnavailable):
		httpx.WriteError(w, httpx.NewError("catalog_unavailable", "catalog data could not be loaded, please retry", http.StatusServiceUnavailable).AsRetryable())
	default:
		observability.FromContext(r.Context()).Error("catalog request failed", zap.Error(err))
		httpx.WriteError(w, httpx.NewError("internal_server_error", "internal server error", http.StatusInternalServerError))
	}
}

func (h *Handler) handleMonasteries(w http.ResponseWriter, r *http.Request) {
	l, err := h.service.Monasteries(r.Context(), criteriaFrom(r, CollectionMonasteries))
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, l)
}

func (h *Handler) handleMonastery(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Monastery(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err, "/monasteries")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleArchives(w http.ResponseWriter, r *http.Request) {
	l, err := h.service.Archives(r.Context(), criteriaFrom(r, CollectionArchives))
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, l)
}

func (h *Handler) handleArchiveItem(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.ArchiveItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err, "/archives")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	l, err := h.service.Events(r.Context(), criteriaFrom(r, CollectionEvents))
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, l)
}

func (h *Handler) handleEvent(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Event(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err, "/events")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	year := h.now().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			httpx.WriteError(w, httpx.NewError("invalid_year", "year must be a number between 1 and 9999", http.StatusBadRequest))
			return
		}
		year = y
	}

	data, err := h.service.Calendar(r.Context(), year, criteriaFrom(r, CollectionEvents))
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="festivals-`+strconv.Itoa(year)+`.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *Handler) handleTours(w http.ResponseWriter, r *http.Request) {
	l, err := h.service.Tours(r.Context(), criteriaFrom(r, CollectionMonasteries))
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, l)
}

func (h *Handler) handleTour(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.Tour(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err, "/tours")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) handleBases(w http.ResponseWriter, r *http.Request) {
	bases, err := h.service.Bases(r.Context())
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string][]Location{"items": bases})
}

func (h *Handler) handleBase(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Base(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err, "/bases")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) handleFacets(w http.ResponseWriter, r *http.Request) {
	f, err := h.service.Facets(r.Context())
	if err != nil {
		h.writeError(w, r, err, "")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, f)
}
