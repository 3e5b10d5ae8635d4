// Package metrics provides Prometheus metrics collection for the
// memory assistant. It tracks memory writes, searches, integrity
// warnings, and HTTP request latency.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "recollect"

var (
	// MemoriesStored counts stored memories by category.
	MemoriesStored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memories_stored_total",
			Help:      "Total number of memories stored",
		},
		[]string{"category"},
	)

	// MemorySearches counts search operations and whether they hit.
	MemorySearches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_searches_total",
			Help:      "Total number of memory search operations",
		},
		[]string{"result"}, // hit, miss
	)

	// IntegrityWarnings counts index entries with no matching record.
	IntegrityWarnings = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_integrity_warnings_total",
			Help:      "Total index entries observed without a matching record",
		},
	)

	// StorageErrors counts failed store reads and writes by operation.
	StorageErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_errors_total",
			Help:      "Total storage failures by operation",
		},
		[]string{"op"},
	)

	// RequestLatency tracks HTTP request latency distribution.
	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_latency_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"route", "status"},
	)

	// RateLimitRejections counts requests rejected by the rate limiter.
	RateLimitRejections = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_rejections_total",
			Help:      "Total requests rejected by the rate limiter",
		},
	)

	// CompletionLatency tracks upstream completion call latency.
	CompletionLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "completion_latency_seconds",
			Help:      "Upstream completion latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"model"},
	)
)

// RecordMemoryStored records a successful memory write.
func RecordMemoryStored(category string) {
	if category == "" {
		category = "general"
	}
	MemoriesStored.WithLabelValues(category).Inc()
}

// RecordSearch records a search operation.
func RecordSearch(hits int) {
	result := "miss"
	if hits > 0 {
		result = "hit"
	}
	MemorySearches.WithLabelValues(result).Inc()
}

// RecordIntegrityWarning records an orphaned index entry.
func RecordIntegrityWarning() {
	IntegrityWarnings.Inc()
}

// RecordStorageError records a failed store operation.
func RecordStorageError(op string) {
	StorageErrors.WithLabelValues(op).Inc()
}

// RecordCompletion records an upstream completion call.
func RecordCompletion(model string, latency time.Duration) {
	CompletionLatency.WithLabelValues(model).Observe(latency.Seconds())
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.statusCode = code
	r.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher for streaming responses.
func (r *statusRecorder) Flush() {
	if flusher, ok := r.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(recorder, r)

		RequestLatency.
			WithLabelValues(r.URL.Path, strconv.Itoa(recorder.statusCode)).
			Observe(time.Since(start).Seconds())
	})
}
