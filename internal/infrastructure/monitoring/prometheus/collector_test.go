package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsx0855/cosco-comprehensive-query/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "test"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrapeMetrics(t *testing.T, collector MetricsCollector) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewMetricsCollector_RequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestNewMetricsCollector_ProcessMetrics(t *testing.T) {
	c, err := NewMetricsCollector(CollectorConfig{
		Namespace:            "test",
		EnableProcessMetrics: true,
	}, logging.NewNopLogger())
	require.NoError(t, err)
	assert.Contains(t, scrapeMetrics(t, c), "process_cpu_seconds_total")
}

func TestRegisterCounter_IncrementsAndScrapes(t *testing.T) {
	c := newTestCollector(t)
	counter := c.RegisterCounter("events_total", "Events", "kind")
	counter.WithLabelValues("screening").Inc()
	counter.WithLabelValues("screening").Add(2)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_events_total{kind="screening"} 3`)
}

func TestRegisterCounter_DuplicateReturnsSameVec(t *testing.T) {
	c := newTestCollector(t)
	first := c.RegisterCounter("dup_total", "Dup", "kind")
	second := c.RegisterCounter("dup_total", "Dup", "kind")

	first.WithLabelValues("a").Inc()
	second.WithLabelValues("a").Inc()

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_dup_total{kind="a"} 2`)
}

func TestRegisterCounter_TypeClashDegradesToNoop(t *testing.T) {
	c := newTestCollector(t)
	c.RegisterGauge("clash", "Gauge first")
	counter := c.RegisterCounter("clash", "Counter second")

	// Must not panic; increments go nowhere.
	counter.WithLabelValues().Inc()
}

func TestRegisterGauge_SetAndScrape(t *testing.T) {
	c := newTestCollector(t)
	gauge := c.RegisterGauge("pool_active", "Active", "db")
	gauge.WithLabelValues("postgres").Set(7)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_pool_active{db="postgres"} 7`)
}

func TestRegisterHistogram_ObserveAndScrape(t *testing.T) {
	c := newTestCollector(t)
	hist := c.RegisterHistogram("latency_seconds", "Latency", []float64{0.1, 1}, "op")
	hist.WithLabelValues("fetch").Observe(0.05)

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, `test_latency_seconds_count{op="fetch"} 1`)
}

func TestTimer_ObservesElapsed(t *testing.T) {
	c := newTestCollector(t)
	hist := c.RegisterHistogram("timed_seconds", "Timed", []float64{10})

	timer := NewTimer(hist.WithLabelValues())
	time.Sleep(time.Millisecond)
	timer.ObserveDuration()

	output := scrapeMetrics(t, c)
	assert.Contains(t, output, "test_timed_seconds_count 1")
}

func TestTimer_NilHistogramIsNoop(t *testing.T) {
	timer := NewTimer(nil)
	timer.ObserveDuration()
}
