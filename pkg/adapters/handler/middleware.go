package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Middleware carries the request instrumentation: an access log line per
// request and prometheus counters by method, path and status.
type Middleware struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	responses *prometheus.CounterVec
}

func NewMiddleware() *Middleware {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Requests received",
	}, []string{"method", "path"})

	responses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_responses_total",
		Help: "Responses sent by status code",
	}, []string{"method", "path", "code"})

	registry.MustRegister(requests, responses)

	return &Middleware{
		registry:  registry,
		requests:  requests,
		responses: responses,
	}
}

// MetricsHandler serves the prometheus exposition endpoint.
func (m *Middleware) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Instrument wraps a handler with metrics and access logging. Labels use the
// matched route pattern when the mux provides one, keeping /{code} traffic
// from exploding label cardinality.
func (m *Middleware) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		path := r.Pattern
		if path == "" {
			path = r.URL.Path
		}
		m.requests.WithLabelValues(r.Method, path).Inc()
		m.responses.WithLabelValues(r.Method, path, strconv.Itoa(sw.status)).Inc()

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", sw.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
