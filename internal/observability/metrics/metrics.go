package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomePublished = "published"
	OutcomeFailed    = "failed"
	OutcomeSkipped   = "skipped"
	OutcomeError     = "error"

	RetryOutcomePublished = "published"
	RetryOutcomeRetried   = "retried"
	RetryOutcomeAborted   = "aborted"
)

// Metrics captures integration pipeline health signals.
type Metrics struct {
	eventsPublished *prometheus.CounterVec
	publishFailures *prometheus.CounterVec
	eventsConsumed  *prometheus.CounterVec
	retryRows       *prometheus.CounterVec
	retryRuns       prometheus.Counter
}

var (
	metricsOnce sync.Once
	metrics     *Metrics
)

// Pipeline returns the singleton pipeline metrics registry.
func Pipeline() *Metrics {
	metricsOnce.Do(func() {
		metrics = newMetrics(prometheus.DefaultRegisterer)
	})
	return metrics
}

func newMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		eventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "purchasegw",
			Name:      "integration_events_published_total",
			Help:      "Integration events handed to the service bus, by event type.",
		}, []string{"event_type"}),
		publishFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "purchasegw",
			Name:      "integration_publish_failures_total",
			Help:      "Publish attempts that failed, by event type.",
		}, []string{"event_type"}),
		eventsConsumed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "purchasegw",
			Name:      "purchase_outcomes_consumed_total",
			Help:      "Inbound purchase outcome events, by handler and outcome.",
		}, []string{"handler", "outcome"}),
		retryRows: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "purchasegw",
			Name:      "retry_rows_total",
			Help:      "Failed-publish ledger rows processed, by outcome.",
		}, []string{"outcome"}),
		retryRuns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "purchasegw",
			Name:      "retry_runs_total",
			Help:      "Retry coordinator batch runs.",
		}),
	}
}

func (m *Metrics) IncPublished(eventType string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(eventType).Inc()
}

func (m *Metrics) IncPublishFailure(eventType string) {
	if m == nil {
		return
	}
	m.publishFailures.WithLabelValues(eventType).Inc()
}

func (m *Metrics) IncConsumed(handler, outcome string) {
	if m == nil {
		return
	}
	m.eventsConsumed.WithLabelValues(handler, outcome).Inc()
}

func (m *Metrics) IncRetryRow(outcome string) {
	if m == nil {
		return
	}
	m.retryRows.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncRetryRun() {
	if m == nil {
		return
	}
	m.retryRuns.Inc()
}
