// Package telemetry exposes the Prometheus metrics for the ingestion
// engine and the HTTP instrumentation used by the ops API.
package telemetry

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ingestItemsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_items_total",
			Help: "Items seen per run stage, labeled by source and stage.",
		},
		[]string{"source", "stage"},
	)

	ingestRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_runs_total",
			Help: "Completed ingestion runs, labeled by source and final status.",
		},
		[]string{"source", "status"},
	)

	ingestRunDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ingest_run_duration_seconds",
			Help:    "Histogram of ingestion run durations.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"source"},
	)

	ingestActiveRuns = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingest_active_runs",
			Help: "Number of ingestion runs currently executing.",
		},
	)

	fetchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_requests_total",
			Help: "Outbound fetches, labeled by host and outcome.",
		},
		[]string{"host", "outcome"},
	)

	fetchBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_bytes_total",
			Help: "Bytes fetched, labeled by host.",
		},
		[]string{"host"},
	)

	fetchRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_retries_total",
			Help: "Fetch retry attempts, labeled by host.",
		},
		[]string{"host"},
	)

	rateLimitDelaysSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fetch_rate_limit_delay_seconds",
			Help:    "Histogram of per-host politeness wait durations.",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"host"},
	)

	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests, labeled by method and code.",
		},
		[]string{"method", "code"},
	)

	httpRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies, labeled by method and route.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"method", "route"},
	)
)

// Handler returns the standard Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware is a chi middleware that records HTTP request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(ww, r)

		routePattern := chi.RouteContext(r.Context()).RoutePattern()
		if routePattern == "" {
			routePattern = "unknown"
		}
		ObserveHTTPRequest(r.Method, routePattern, ww.statusCode, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.statusCode = code
	rec.ResponseWriter.WriteHeader(code)
}

// SanitizeHost extracts the lowercased hostname from a URL.
func SanitizeHost(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// ObserveFetch records one outbound fetch and its payload size.
func ObserveFetch(rawURL, outcome string, bytesFetched int) {
	host := SanitizeHost(rawURL)
	fetchRequestsTotal.WithLabelValues(host, outcome).Inc()
	if bytesFetched > 0 {
		fetchBytesTotal.WithLabelValues(host).Add(float64(bytesFetched))
	}
}

// ObserveFetchRetry records one retry attempt against a host.
func ObserveFetchRetry(rawURL string) {
	fetchRetriesTotal.WithLabelValues(SanitizeHost(rawURL)).Inc()
}

// ObserveRateLimitDelay records the duration of a politeness wait.
func ObserveRateLimitDelay(host string, duration time.Duration) {
	rateLimitDelaysSeconds.WithLabelValues(host).Observe(duration.Seconds())
}

// ObserveItem records one item passing an ingestion stage.
func ObserveItem(source, stage string) {
	ingestItemsTotal.WithLabelValues(source, stage).Inc()
}

// ObserveRun records a finished ingestion run.
func ObserveRun(source, status string, duration time.Duration) {
	ingestRunsTotal.WithLabelValues(source, status).Inc()
	ingestRunDurationSeconds.WithLabelValues(source).Observe(duration.Seconds())
}

// IncActiveRuns increments the active run count.
func IncActiveRuns() {
	ingestActiveRuns.Inc()
}

// DecActiveRuns decrements the active run count.
func DecActiveRuns() {
	ingestActiveRuns.Dec()
}

// ObserveHTTPRequest records metrics for an HTTP request.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
