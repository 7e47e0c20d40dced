package svgmaker

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsCollector provides Prometheus metrics for the request pipeline.
// It is safe for concurrent use.
type MetricsCollector struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec

	retriesTotal *prometheus.CounterVec

	rateLimiterWait *prometheus.HistogramVec

	streamEventsTotal *prometheus.CounterVec

	errorsTotal *prometheus.CounterVec
}

// NewMetricsCollector creates a metrics collector on the default registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector using the supplied
// registerer, which keeps tests and multi-client setups collision-free.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		requestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "svgmaker_requests_total",
				Help: "Total number of API requests made",
			},
			[]string{"endpoint", "status_code"},
		),
		requestDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "svgmaker_request_duration_seconds",
				Help:    "Duration of API requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint", "status_code"},
		),
		requestsInFlight: promauto.With(registry).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "svgmaker_requests_in_flight",
				Help: "Number of API requests currently in flight",
			},
			[]string{"endpoint"},
		),
		retriesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "svgmaker_retries_total",
				Help: "Total number of retry attempts",
			},
			[]string{"endpoint"},
		),
		rateLimiterWait: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "svgmaker_rate_limiter_wait_seconds",
				Help:    "Time spent waiting for rate limiter admission",
				Buckets: []float64{.01, .1, .5, 1, 5, 15, 30, 60},
			},
			[]string{"endpoint"},
		),
		streamEventsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "svgmaker_stream_events_total",
				Help: "Total number of streaming events decoded",
			},
			[]string{"status"},
		),
		errorsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "svgmaker_errors_total",
				Help: "Total number of errors by kind",
			},
			[]string{"kind", "endpoint"},
		),
	}
}

// RecordRequestStart increments the in-flight gauge.
func (mc *MetricsCollector) RecordRequestStart(endpoint string) {
	mc.requestsInFlight.WithLabelValues(endpoint).Inc()
}

// RecordRequestEnd decrements the in-flight gauge.
func (mc *MetricsCollector) RecordRequestEnd(endpoint string) {
	mc.requestsInFlight.WithLabelValues(endpoint).Dec()
}

// RecordRequest records one completed operation.
func (mc *MetricsCollector) RecordRequest(endpoint string, statusCode int, duration time.Duration) {
	code := strconv.Itoa(statusCode)
	mc.requestsTotal.WithLabelValues(endpoint, code).Inc()
	mc.requestDuration.WithLabelValues(endpoint, code).Observe(duration.Seconds())
}

// RecordRetry records one retry attempt.
func (mc *MetricsCollector) RecordRetry(endpoint string) {
	mc.retriesTotal.WithLabelValues(endpoint).Inc()
}

// RecordRateLimiterWait records a delay imposed by the rate limiter.
func (mc *MetricsCollector) RecordRateLimiterWait(endpoint string, waited time.Duration) {
	mc.rateLimiterWait.WithLabelValues(endpoint).Observe(waited.Seconds())
}

// RecordStreamEvent records one decoded streaming event by status.
func (mc *MetricsCollector) RecordStreamEvent(status string) {
	mc.streamEventsTotal.WithLabelValues(status).Inc()
}

// RecordError records an error by taxonomy kind.
func (mc *MetricsCollector) RecordError(kind, endpoint string) {
	mc.errorsTotal.WithLabelValues(kind, endpoint).Inc()
}
