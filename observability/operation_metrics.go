package observability

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/kbukum/pspkit/logger"
)

// OperationMetrics records resilience executor outcomes as OpenTelemetry
// instruments. Timers become float64 histograms in seconds and counters
// become int64 counters. Instruments are created on first use and cached by
// name.
type OperationMetrics struct {
	meter metric.Meter

	mu         sync.RWMutex
	histograms map[string]metric.Float64Histogram
	counters   map[string]metric.Int64Counter
}

// NewOperationMetrics creates an OperationMetrics on meter.
func NewOperationMetrics(meter metric.Meter) *OperationMetrics {
	return &OperationMetrics{
		meter:      meter,
		histograms: make(map[string]metric.Float64Histogram),
		counters:   make(map[string]metric.Int64Counter),
	}
}

// RecordTimer records d on the histogram called name.
func (m *OperationMetrics) RecordTimer(name string, tags map[string]string, d time.Duration) {
	h, err := m.histogram(name)
	if err != nil {
		logger.Warn("operation histogram unavailable", logger.ErrorFields(name, err))
		return
	}
	h.Record(context.Background(), d.Seconds(), metric.WithAttributes(attributes(tags)...))
}

// IncrementCounter adds one to the counter called name.
func (m *OperationMetrics) IncrementCounter(name string, tags map[string]string) {
	c, err := m.counter(name)
	if err != nil {
		logger.Warn("operation counter unavailable", logger.ErrorFields(name, err))
		return
	}
	c.Add(context.Background(), 1, metric.WithAttributes(attributes(tags)...))
}

func (m *OperationMetrics) histogram(name string) (metric.Float64Histogram, error) {
	m.mu.RLock()
	h, ok := m.histograms[name]
	m.mu.RUnlock()
	if ok {
		return h, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if h, ok := m.histograms[name]; ok {
		return h, nil
	}
	h, err := m.meter.Float64Histogram(name,
		metric.WithDescription("Duration of payment provider operations in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", name, err)
	}
	m.histograms[name] = h
	return h, nil
}

func (m *OperationMetrics) counter(name string) (metric.Int64Counter, error) {
	m.mu.RLock()
	c, ok := m.counters[name]
	m.mu.RUnlock()
	if ok {
		return c, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.counters[name]; ok {
		return c, nil
	}
	c, err := m.meter.Int64Counter(name,
		metric.WithDescription("Number of payment provider operations by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", name, err)
	}
	m.counters[name] = c
	return c, nil
}

// attributes converts tags to attributes in key order.
func attributes(tags map[string]string) []attribute.KeyValue {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]attribute.KeyValue, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, attribute.String(k, tags[k]))
	}
	return attrs
}
