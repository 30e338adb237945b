package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	// Upstream adapter calls
	UpstreamCalls   *prometheus.CounterVec
	UpstreamLatency *prometheus.HistogramVec
	UpstreamErrors  *prometheus.CounterVec

	// Dual-mode sync
	SecondarySyncAttempts *prometheus.CounterVec
	PartialSyncFailures   *prometheus.CounterVec

	// Dispatch
	DispatchResolutions *prometheus.CounterVec
}

// NewMetrics creates and registers all application metrics
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		UpstreamCalls: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_calls_total",
			Help:      "Total number of calls issued to third-party integrations",
		}, []string{"integration", "operation", "outcome"}),
		UpstreamLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_call_duration_seconds",
			Help:      "Duration of third-party integration calls",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20},
		}, []string{"integration", "operation"}),
		UpstreamErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_errors_total",
			Help:      "Upstream call failures by error kind",
		}, []string{"integration", "operation", "kind"}),
		SecondarySyncAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "secondary_sync_attempts_total",
			Help:      "Best-effort secondary writes attempted in dual mode",
		}, []string{"integration", "operation"}),
		PartialSyncFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "partial_sync_failures_total",
			Help:      "Dual-mode writes that succeeded on the primary but failed on the secondary",
		}, []string{"integration", "operation"}),
		DispatchResolutions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_resolutions_total",
			Help:      "Dispatch resolver outcomes by capability",
		}, []string{"capability", "outcome"}),
	}
}

// ObserveUpstreamCall records one adapter call.
func (m *Metrics) ObserveUpstreamCall(integration, operation string, seconds float64, err error, kind string) {
	outcome := "success"
	if err != nil {
		outcome = "error"
		m.UpstreamErrors.WithLabelValues(integration, operation, kind).Inc()
	}
	m.UpstreamCalls.WithLabelValues(integration, operation, outcome).Inc()
	m.UpstreamLatency.WithLabelValues(integration, operation).Observe(seconds)
}
