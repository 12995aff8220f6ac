package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/tinylink/pkg/config"
	"github.com/wadjakorntonsri/tinylink/pkg/ports"
)

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, service ports.LinkService) http.Handler {
	h := NewHTTPHandler(service)
	mw := NewMiddleware()

	mux := http.NewServeMux()

	// Dashboard and probes. Literal segments take precedence over the
	// /{code} redirect pattern.
	mux.HandleFunc("GET /{$}", h.Dashboard)
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.Handle("GET /metrics", mw.MetricsHandler())

	// Management API
	mux.HandleFunc("POST /api/links", h.Create)
	mux.HandleFunc("GET /api/links", h.List)
	mux.HandleFunc("GET /api/links/{code}", h.Get)
	mux.HandleFunc("DELETE /api/links/{code}", h.Delete)

	// Redirect
	mux.HandleFunc("GET /{code}", h.Redirect)

	return mw.Instrument(mux)
}
