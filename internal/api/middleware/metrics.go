package middleware

import (
	"net/http"
	"time"

	"github.com/interestmap/engine/internal/observability"
)

// Metrics records request count and duration per route. When metrics is nil,
// recording is skipped. Routes are the mux patterns, not raw paths, so
// cardinality stays bounded. Put Metrics outermost so duration covers the
// whole chain.
func Metrics(metrics observability.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if metrics == nil {
				next.ServeHTTP(w, r)

				return
			}

			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			metrics.RecordRequest(r.Context(), r.Method, routeFor(r.URL.Path),
				statusClass(rw.statusCode), time.Since(start))
		})
	}
}

// routeFor maps a request path onto the small fixed route set this API serves.
func routeFor(path string) string {
	switch path {
	case "/health", "/metrics", "/v1/content", "/v1/feedback":
		return path
	default:
		return "other"
	}
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
