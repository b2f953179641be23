package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/prometheus"
)

func newMetricsRouter(t *testing.T) (chi.Router, prometheus.MetricsCollector) {
	t.Helper()
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "test"}, logging.NewNopLogger())
	require.NoError(t, err)
	metrics := prometheus.NewAppMetrics(collector)

	r := chi.NewRouter()
	r.Use(Metrics(metrics))
	r.Get("/api/v1/screenings/{requestID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r, collector
}

func scrape(t *testing.T, collector prometheus.MetricsCollector) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, req)
	return w.Body.String()
}

func TestMetrics_RecordsRoutePatternNotRawPath(t *testing.T) {
	r, collector := newMetricsRouter(t)

	for _, id := range []string{"req-1", "req-2"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/screenings/"+id, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	output := scrape(t, collector)
	assert.Contains(t, output, `test_http_requests_total{method="GET",path="/api/v1/screenings/{requestID}",status="200"} 2`)
	assert.NotContains(t, output, "req-1")
}

func TestMetrics_CountsErrorsByStatus(t *testing.T) {
	r, collector := newMetricsRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusNotFound, w.Code)

	assert.Contains(t, scrape(t, collector), `status="404"`)
}

func TestMetrics_ActiveGaugeReturnsToZero(t *testing.T) {
	r, collector := newMetricsRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/screenings/req-1", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Contains(t, scrape(t, collector), "test_http_active_requests 0")
}
