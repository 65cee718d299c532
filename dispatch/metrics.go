package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Dispatch outcome label values.
const (
	outcomeSuccess       = "success"
	outcomeFailure       = "failure"
	outcomeNoCredentials = "no_credentials"
	outcomeExhausted     = "exhausted"
)

// MetricsCollector holds the Prometheus metrics for the dispatch
// lifecycle. A nil collector records nothing, so metrics stay optional.
type MetricsCollector struct {
	dispatchesTotal *prometheus.CounterVec
	attemptsTotal   *prometheus.CounterVec
	attemptDuration *prometheus.HistogramVec
	refreshesTotal  *prometheus.CounterVec
}

// NewMetricsCollector creates a collector registered on the default
// Prometheus registerer.
func NewMetricsCollector() *MetricsCollector {
	return NewMetricsCollectorWithRegistry(prometheus.DefaultRegisterer)
}

// NewMetricsCollectorWithRegistry creates a collector registered on the
// given registerer.
func NewMetricsCollectorWithRegistry(registry prometheus.Registerer) *MetricsCollector {
	return &MetricsCollector{
		dispatchesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyfall_dispatches_total",
				Help: "Total dispatch calls by outcome",
			},
			[]string{"outcome"},
		),
		attemptsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyfall_attempts_total",
				Help: "Total credential attempts by outcome",
			},
			[]string{"outcome"},
		),
		attemptDuration: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "keyfall_attempt_duration_seconds",
				Help:    "Duration of individual credential attempts",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		refreshesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyfall_credential_refreshes_total",
				Help: "Total credential refreshes by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (m *MetricsCollector) recordDispatch(outcome string) {
	if m == nil {
		return
	}
	m.dispatchesTotal.WithLabelValues(outcome).Inc()
}

func (m *MetricsCollector) recordAttempt(success bool, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := outcomeFailure
	if success {
		outcome = outcomeSuccess
	}
	m.attemptsTotal.WithLabelValues(outcome).Inc()
	m.attemptDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *MetricsCollector) recordRefresh(success bool) {
	if m == nil {
		return
	}
	outcome := outcomeFailure
	if success {
		outcome = outcomeSuccess
	}
	m.refreshesTotal.WithLabelValues(outcome).Inc()
}
