package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/prometheus"
)

// Metrics records per-request counters and latency. The path label uses the
// chi route pattern rather than the raw URL so parameterized routes do not
// explode label cardinality.
func Metrics(metrics *prometheus.AppMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if metrics == nil {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			metrics.HTTPActiveRequests.WithLabelValues().Inc()
			defer metrics.HTTPActiveRequests.WithLabelValues().Dec()

			wrapped := newWrappedResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			path := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				path = rctx.RoutePattern()
			}
			prometheus.RecordHTTPRequest(metrics, r.Method, path, wrapped.statusCode, time.Since(start))
		})
	}
}
