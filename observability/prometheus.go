package observability

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/kbukum/pspkit/resilience"
)

var (
	timerLabels   = []string{resilience.TagProvider, resilience.TagOperation, resilience.TagStatus, resilience.TagInstance}
	counterLabels = []string{resilience.TagProvider, resilience.TagOperation, resilience.TagStatus, resilience.TagInstance, resilience.TagError}
)

// PrometheusSink exports resilience executor outcomes and circuit breaker
// state as Prometheus collectors. Metric names are the executor names with
// dots replaced by underscores, so "psp.operation" becomes
// psp_operation_duration_seconds and "psp.operation.count" becomes
// psp_operation_count_total.
type PrometheusSink struct {
	durations *prometheus.HistogramVec
	counts    *prometheus.CounterVec
	breaker   *prometheus.GaugeVec
}

// NewPrometheusSink registers the collectors on reg. A nil reg uses the
// default registerer.
func NewPrometheusSink(reg prometheus.Registerer) *PrometheusSink {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &PrometheusSink{
		durations: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    promName(resilience.MetricOperation) + "_duration_seconds",
				Help:    "Duration of payment provider operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			timerLabels,
		),
		counts: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: promName(resilience.MetricOperationCount) + "_total",
				Help: "Total number of payment provider operations by outcome",
			},
			counterLabels,
		),
		breaker: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "psp_circuit_breaker_state",
				Help: "Circuit breaker state per policy instance (0 closed, 1 open, 2 half-open)",
			},
			[]string{resilience.TagInstance},
		),
	}
}

// RecordTimer observes d. Only the executor's operation timer is exported.
func (s *PrometheusSink) RecordTimer(name string, tags map[string]string, d time.Duration) {
	if name != resilience.MetricOperation {
		return
	}
	s.durations.WithLabelValues(labelValues(timerLabels, tags)...).Observe(d.Seconds())
}

// IncrementCounter increments the operation counter.
func (s *PrometheusSink) IncrementCounter(name string, tags map[string]string) {
	if name != resilience.MetricOperationCount {
		return
	}
	s.counts.WithLabelValues(labelValues(counterLabels, tags)...).Inc()
}

// ObserveTransition sets the breaker gauge. Register it with
// Registry.OnTransition.
func (s *PrometheusSink) ObserveTransition(t resilience.StateTransition) {
	s.breaker.WithLabelValues(t.Name).Set(float64(t.To))
}

func labelValues(labels []string, tags map[string]string) []string {
	values := make([]string, len(labels))
	for i, l := range labels {
		values[i] = tags[l]
	}
	return values
}

func promName(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}
