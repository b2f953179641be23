package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics groups every metric the screening service emits.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Screening
	ScreeningsTotal         CounterVec
	ScreeningDuration       HistogramVec
	VerdictChangesTotal     CounterVec
	ProbeEvaluationsTotal   CounterVec
	ProbeEvaluationDuration HistogramVec

	// Provider fetches
	ProviderRequestsTotal   CounterVec
	ProviderRequestDuration HistogramVec
	FetchCacheHitsTotal     CounterVec
	FetchCacheMissesTotal   CounterVec

	// Bulk resolver
	ResolverRunsTotal       CounterVec
	ResolverRunDuration     HistogramVec
	ResolverEntitiesTotal   CounterVec
	ResolverSignalRowsTotal CounterVec

	// Background jobs
	JobsTotal          CounterVec
	JobProcessDuration HistogramVec

	// Infrastructure
	DBPoolActive      GaugeVec
	DBQueryDuration   HistogramVec
	CacheHitsTotal    CounterVec
	CacheMissesTotal  CounterVec
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

var (
	DefaultHTTPDurationBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultRunDurationBuckets  = []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800}
	DefaultDBDurationBuckets   = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// NewAppMetrics registers every application metric on the collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "In-flight HTTP requests")

	m.ScreeningsTotal = collector.RegisterCounter("screenings_total", "Completed screenings by verdict", "verdict")
	m.ScreeningDuration = collector.RegisterHistogram("screening_duration_seconds", "End-to-end screening duration", DefaultHTTPDurationBuckets)
	m.VerdictChangesTotal = collector.RegisterCounter("verdict_changes_total", "Screenings whose verdict differed from the subject's previous one")
	m.ProbeEvaluationsTotal = collector.RegisterCounter("probe_evaluations_total", "Probe evaluations by check and level", "check_id", "level")
	m.ProbeEvaluationDuration = collector.RegisterHistogram("probe_evaluation_duration_seconds", "Single probe evaluation duration", DefaultHTTPDurationBuckets, "check_id")

	m.ProviderRequestsTotal = collector.RegisterCounter("provider_requests_total", "Upstream provider requests", "provider", "status")
	m.ProviderRequestDuration = collector.RegisterHistogram("provider_request_duration_seconds", "Upstream provider request duration", DefaultHTTPDurationBuckets, "provider")
	m.FetchCacheHitsTotal = collector.RegisterCounter("fetch_cache_hits_total", "Session fetch cache hits", "provider")
	m.FetchCacheMissesTotal = collector.RegisterCounter("fetch_cache_misses_total", "Session fetch cache misses", "provider")

	m.ResolverRunsTotal = collector.RegisterCounter("resolver_runs_total", "Bulk resolver runs", "status")
	m.ResolverRunDuration = collector.RegisterHistogram("resolver_run_duration_seconds", "Bulk resolver run duration", DefaultRunDurationBuckets)
	m.ResolverEntitiesTotal = collector.RegisterCounter("resolver_entities_total", "Entities resolved across runs")
	m.ResolverSignalRowsTotal = collector.RegisterCounter("resolver_signal_rows_total", "Signal rows consumed across runs")

	m.JobsTotal = collector.RegisterCounter("jobs_total", "Background jobs by type and outcome", "type", "status")
	m.JobProcessDuration = collector.RegisterHistogram("job_process_duration_seconds", "Background job processing duration", DefaultRunDurationBuckets, "type")

	m.DBPoolActive = collector.RegisterGauge("db_pool_active", "Active database connections", "db")
	m.DBQueryDuration = collector.RegisterHistogram("db_query_duration_seconds", "Database query duration", DefaultDBDurationBuckets, "operation")
	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Redis cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Redis cache misses", "cache")
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Errors by component and code", "component", "code")

	return m
}

// Helpers keep label arity mistakes out of call sites.

func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordScreening(m *AppMetrics, verdict string, changed bool, duration time.Duration) {
	m.ScreeningsTotal.WithLabelValues(verdict).Inc()
	m.ScreeningDuration.WithLabelValues().Observe(duration.Seconds())
	if changed {
		m.VerdictChangesTotal.WithLabelValues().Inc()
	}
}

func RecordProbe(m *AppMetrics, checkID, level string, duration time.Duration) {
	m.ProbeEvaluationsTotal.WithLabelValues(checkID, level).Inc()
	m.ProbeEvaluationDuration.WithLabelValues(checkID).Observe(duration.Seconds())
}

func RecordProviderCall(m *AppMetrics, provider string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.ProviderRequestsTotal.WithLabelValues(provider, status).Inc()
	m.ProviderRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func RecordFetchCache(m *AppMetrics, provider string, hit bool) {
	if hit {
		m.FetchCacheHitsTotal.WithLabelValues(provider).Inc()
	} else {
		m.FetchCacheMissesTotal.WithLabelValues(provider).Inc()
	}
}

func RecordResolverRun(m *AppMetrics, err error, rows, entities int, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.ResolverRunsTotal.WithLabelValues(status).Inc()
	m.ResolverRunDuration.WithLabelValues().Observe(duration.Seconds())
	if err == nil {
		m.ResolverSignalRowsTotal.WithLabelValues().Add(float64(rows))
		m.ResolverEntitiesTotal.WithLabelValues().Add(float64(entities))
	}
}

func RecordJob(m *AppMetrics, jobType, status string, duration time.Duration) {
	m.JobsTotal.WithLabelValues(jobType, status).Inc()
	m.JobProcessDuration.WithLabelValues(jobType).Observe(duration.Seconds())
}

func RecordCacheAccess(m *AppMetrics, cache string, hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
	} else {
		m.CacheMissesTotal.WithLabelValues(cache).Inc()
	}
}

func RecordError(m *AppMetrics, component, code string) {
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}
