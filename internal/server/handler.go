package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jfenske/worldwise/internal/domain"
	"github.com/jfenske/worldwise/internal/middleware"
)

// Options configures the dev server handler.
type Options struct {
	CORSOrigins  []string
	MaxBodyBytes int64
	// Registry, when non-nil, is served at /metrics.
	Registry *prometheus.Registry
}

// Handler serves the city service contract from a MemRepo.
type Handler struct {
	repo *MemRepo
	log  *slog.Logger
}

// errorResponse is the error body shape: {"error":{"code","message"}}.
type errorResponse struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewHandler builds the chi router for the dev city server.
// Middleware order: RequestID → RealIP → slog logger → Recoverer → CORS →
// body size limit, mirroring how the production service is fronted.
func NewHandler(repo *MemRepo, log *slog.Logger, opts Options) http.Handler {
	h := &Handler{repo: repo, log: log}

	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1 << 20
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(log))
	r.Use(chimiddleware.Recoverer)
	if len(opts.CORSOrigins) > 0 {
		r.Use(middleware.NewCORSHandler(opts.CORSOrigins))
	}
	r.Use(middleware.NewMaxBodySizeHandler(opts.MaxBodyBytes))

	r.Get("/healthz", h.health)
	r.Get("/cities", h.listCities)
	r.Post("/cities", h.createCity)
	r.Get("/cities/{id}", h.getCity)
	r.Delete("/cities/{id}", h.deleteCity)

	if opts.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(opts.Registry, promhttp.HandlerOpts{}))
	}

	return r
}

// health handles GET /healthz.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listCities handles GET /cities.
func (h *Handler) listCities(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.repo.List())
}

// getCity handles GET /cities/{id}.
func (h *Handler) getCity(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	city, err := h.repo.Get(id)
	if errors.Is(err, domain.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", "city not found")
		return
	}
	h.writeJSON(w, http.StatusOK, city)
}

// createCity handles POST /cities.
func (h *Handler) createCity(w http.ResponseWriter, r *http.Request) {
	var draft domain.CityDraft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		h.writeError(w, http.StatusBadRequest, "bad_request", "malformed request body")
		return
	}
	if draft.CityName == "" {
		h.writeError(w, http.StatusUnprocessableEntity, "validation_error", "cityName is required")
		return
	}
	if draft.Position == nil {
		h.writeError(w, http.StatusUnprocessableEntity, "validation_error", "position is required")
		return
	}

	city := h.repo.Create(draft)
	h.writeJSON(w, http.StatusCreated, city)
}

// deleteCity handles DELETE /cities/{id}.
func (h *Handler) deleteCity(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.repo.Delete(id); errors.Is(err, domain.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "not_found", "city not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseID reads the {id} URL parameter; a malformed ID is reported as 404
// because it cannot name any existing city.
func (h *Handler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusNotFound, "not_found", "city not found")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}
