package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values shared by callers.
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheStale = "stale"

	OutcomeOK      = "ok"
	OutcomeTimeout = "timeout"
	OutcomeEmpty   = "empty"
	OutcomeMissing = "missing"
	OutcomeError   = "error"

	ChannelSSH  = "ssh"
	ChannelMQTT = "mqtt"
)

var (
	// Device directory
	DirectoryCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roicore_directory_cache_total",
			Help: "External device cache lookups by result",
		},
		[]string{"result"}, // hit, miss, stale
	)

	UpstreamSchemaFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roicore_upstream_schema_failures_total",
			Help: "Tenant schemas skipped during a directory refresh because their query failed",
		},
		[]string{"schema"},
	)

	DirectoryRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roicore_directory_refresh_duration_seconds",
			Help:    "Duration of a full upstream schema scan",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Snapshots
	SnapshotCaptures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roicore_snapshot_captures_total",
			Help: "Frame-grab attempts by outcome",
		},
		[]string{"outcome"},
	)

	SnapshotCaptureDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "roicore_snapshot_capture_duration_seconds",
			Help:    "Frame-grab wall time from process start to result",
			Buckets: []float64{0.25, 0.5, 1, 2, 4, 8, 15, 30},
		},
	)

	// Actuation
	Actuations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roicore_actuation_total",
			Help: "Device notifications by channel and outcome",
		},
		[]string{"channel", "outcome"},
	)

	// Circuit breakers
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "roicore_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roicore_circuit_breaker_state_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "roicore_api_requests_total",
			Help: "API requests by route pattern and status",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "roicore_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"method", "route"},
	)
)

// RecordCacheLookup counts one directory cache lookup.
func RecordCacheLookup(result string) {
	DirectoryCache.WithLabelValues(result).Inc()
}

// RecordSchemaFailure counts one skipped tenant schema.
func RecordSchemaFailure(schema string) {
	UpstreamSchemaFailures.WithLabelValues(schema).Inc()
}

// RecordDirectoryRefresh observes one upstream scan.
func RecordDirectoryRefresh(duration time.Duration) {
	DirectoryRefreshDuration.Observe(duration.Seconds())
}

// RecordSnapshotCapture records a capture outcome and its duration.
func RecordSnapshotCapture(outcome string, duration time.Duration) {
	SnapshotCaptures.WithLabelValues(outcome).Inc()
	SnapshotCaptureDuration.Observe(duration.Seconds())
}

// RecordActuation records a device notification result.
func RecordActuation(channel string, ok bool) {
	outcome := OutcomeOK
	if !ok {
		outcome = OutcomeError
	}
	Actuations.WithLabelValues(channel, outcome).Inc()
}

// RecordBreakerTransition updates the state gauge and counts the transition.
// States use gobreaker's String() form: "closed", "half-open", "open".
func RecordBreakerTransition(name, from, to string) {
	CircuitBreakerState.WithLabelValues(name).Set(BreakerStateValue(to))
	CircuitBreakerTransitions.WithLabelValues(name, from, to).Inc()
}

// BreakerStateValue maps a breaker state name to the gauge encoding.
func BreakerStateValue(state string) float64 {
	switch state {
	case "half-open":
		return 1
	case "open":
		return 2
	default:
		return 0
	}
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route string, status int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
