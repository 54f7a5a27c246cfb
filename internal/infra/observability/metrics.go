package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"github.com/granadev/grana-go/internal/domain"
)

// Metrics holds all Prometheus metrics for the tracker.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	queryDuration  *prometheus.HistogramVec
	cacheHits      *prometheus.CounterVec
	cacheMisses    *prometheus.CounterVec
	storeErrors    *prometheus.CounterVec
	externalErrors *prometheus.CounterVec
	requestsTotal  *prometheus.CounterVec
	importedTxns   prometheus.Counter
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		queryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "grana_query_duration_seconds",
				Help:    "Duration of engine queries by operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grana_cache_hits_total",
				Help: "Total memoization cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grana_cache_misses_total",
				Help: "Total memoization cache misses.",
			},
			[]string{"cache"},
		),
		storeErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grana_store_errors_total",
				Help: "Total errors from the local state store.",
			},
			[]string{"op"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grana_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "grana_requests_total",
				Help: "Total query requests processed.",
			},
			[]string{"status"},
		),
		importedTxns: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "grana_imported_transactions_total",
				Help: "Total transactions created by statement import.",
			},
		),
	}
}

// RecordQueryDuration records the duration of an engine query.
func (m *Metrics) RecordQueryDuration(operation string, d time.Duration) {
	m.queryDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrStoreError increments the store error counter.
func (m *Metrics) IncrStoreError(op string) {
	m.storeErrors.WithLabelValues(op).Inc()
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// AddImportedTransactions counts transactions created by statement import.
func (m *Metrics) AddImportedTransactions(n int) {
	m.importedTxns.Add(float64(n))
}

// GetOpsSnapshot returns a snapshot of operational metrics suitable for the
// GET /v1/metrics/ops endpoint.
func (m *Metrics) GetOpsSnapshot() *domain.OpsMetrics {
	totalRequests := getCounterValue(m.requestsTotal, "success") +
		getCounterValue(m.requestsTotal, "error")
	errorCount := getCounterValue(m.requestsTotal, "error")
	cacheHits := getCounterValue(m.cacheHits, "summaries")
	cacheMisses := getCounterValue(m.cacheMisses, "summaries")

	errorRate := float64(0)
	cacheHitRate := float64(0)
	if totalRequests > 0 {
		errorRate = errorCount / totalRequests
	}
	if cacheHits+cacheMisses > 0 {
		cacheHitRate = cacheHits / (cacheHits + cacheMisses)
	}

	return &domain.OpsMetrics{
		TotalQueries: int64(totalRequests),
		ErrorRate:    errorRate,
		CacheHitRate: cacheHitRate,
		Period:       "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
