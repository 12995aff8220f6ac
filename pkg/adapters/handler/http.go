package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wadjakorntonsri/tinylink/pkg/config"
	"github.com/wadjakorntonsri/tinylink/pkg/core/domain"
	"github.com/wadjakorntonsri/tinylink/pkg/ports"
)

type HTTPHandler struct {
	service ports.LinkService
	started time.Time
}

func NewHTTPHandler(service ports.LinkService) *HTTPHandler {
	return &HTTPHandler{service: service, started: time.Now()}
}

// CreateLinkRequest payload
type CreateLinkRequest struct {
	URL  string `json:"url"`
	Code string `json:"code,omitempty"`
}

// Create Link
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	link, err := h.service.Create(r.Context(), req.URL, req.Code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, link)
}

// Redirect to the target URL and record the click
func (h *HTTPHandler) Redirect(w http.ResponseWriter, r *http.Request) {
	code := r.PathValue("code")

	targetURL, err := h.service.ResolveAndRecord(r.Context(), code)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	http.Redirect(w, r, targetURL, http.StatusFound)
}

// Get a single Link
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	link, err := h.service.Get(r.Context(), r.PathValue("code"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, link)
}

// List all Links, newest first
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	links, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if links == nil {
		links = []domain.Link{}
	}

	writeJSON(w, http.StatusOK, links)
}

// Delete a Link
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("code")); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Healthz liveness probe
func (h *HTTPHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":      true,
		"version": config.Version,
		"uptime":  time.Since(h.started).Seconds(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps the domain error taxonomy onto HTTP statuses.
// Unrecognized errors are store-level failures: logged with context, surfaced
// as an opaque 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidURL), errors.Is(err, domain.ErrInvalidCode):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrCodeTaken):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrCodeSpaceExhausted):
		log.Error().Err(err).Str("path", r.URL.Path).Msg("code space exhausted")
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
