package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shortlink/internal/ratelimit"
)

// NewRouter builds the route table. The bare /{shortCode} redirect
// pattern sits alongside the /api/v1 tree; the mux prefers the more
// specific patterns, so API routes never shadow short codes or vice
// versa. The rate limiter, when enabled, guards only the mutating
// shorten endpoint — redirects stay unthrottled.
func NewRouter(h *Handler, limiter *ratelimit.Limiter) *http.ServeMux {
	mux := http.NewServeMux()

	shorten := http.Handler(http.HandlerFunc(h.Shorten))
	if limiter != nil {
		shorten = RateLimitMiddleware(limiter)(shorten)
	}

	mux.Handle("POST /api/v1/shorten", shorten)
	mux.HandleFunc("POST /api/v1/check-code", h.CheckCode)
	mux.HandleFunc("POST /api/v1/validate-url", h.ValidateURL)
	mux.HandleFunc("POST /api/v1/fetch-title", h.FetchTitle)
	mux.HandleFunc("GET /api/v1/links", h.ListLinks)
	mux.HandleFunc("PATCH /api/v1/links/{id}", h.UpdateLink)
	mux.HandleFunc("DELETE /api/v1/links/{id}", h.DeleteLink)
	mux.HandleFunc("GET /api/v1/stats/{shortCode}", h.Stats)
	mux.HandleFunc("GET /api/v1/resolve/{shortCode}", h.Resolve)

	mux.HandleFunc("GET /health/live", h.HealthCheck)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /{shortCode}", h.Redirect)

	return mux
}
