package resilience

import (
	"sync"
	"time"
)

// Metric names emitted by the Executor.
const (
	MetricOperation      = "psp.operation"
	MetricOperationCount = "psp.operation.count"
)

// Metric tag keys.
const (
	TagProvider  = "provider"
	TagOperation = "operation"
	TagStatus    = "status"
	TagError     = "error"
	TagInstance  = "instance"
)

// Status tag values.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// MetricsSink receives one timer and one counter per terminal outcome.
// Implementations must be safe for concurrent use.
type MetricsSink interface {
	RecordTimer(name string, tags map[string]string, d time.Duration)
	IncrementCounter(name string, tags map[string]string)
}

// NopSink discards all metrics.
type NopSink struct{}

func (NopSink) RecordTimer(string, map[string]string, time.Duration) {}
func (NopSink) IncrementCounter(string, map[string]string)            {}

// MultiSink fans metrics out to several sinks.
type MultiSink []MetricsSink

func (m MultiSink) RecordTimer(name string, tags map[string]string, d time.Duration) {
	for _, s := range m {
		s.RecordTimer(name, tags, d)
	}
}

func (m MultiSink) IncrementCounter(name string, tags map[string]string) {
	for _, s := range m {
		s.IncrementCounter(name, tags)
	}
}

// RecordedMetric is one emission captured by MemorySink.
type RecordedMetric struct {
	Name     string
	Tags     map[string]string
	Duration time.Duration
	Counter  bool
}

// MemorySink keeps every emission in memory. It backs tests and the
// in-process stats exposed by the health endpoint.
type MemorySink struct {
	mu      sync.Mutex
	records []RecordedMetric
}

// NewMemorySink creates an empty MemorySink.
func NewMemorySink() *MemorySink { return &MemorySink{} }

func (m *MemorySink) RecordTimer(name string, tags map[string]string, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, RecordedMetric{Name: name, Tags: copyTags(tags), Duration: d})
}

func (m *MemorySink) IncrementCounter(name string, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, RecordedMetric{Name: name, Tags: copyTags(tags), Counter: true})
}

// Records returns a copy of everything recorded so far.
func (m *MemorySink) Records() []RecordedMetric {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedMetric(nil), m.records...)
}

// Timers returns the recorded timers with the given name.
func (m *MemorySink) Timers(name string) []RecordedMetric {
	var out []RecordedMetric
	for _, r := range m.Records() {
		if !r.Counter && r.Name == name {
			out = append(out, r)
		}
	}
	return out
}

// Count returns how many counter increments matched name and every tag in
// match.
func (m *MemorySink) Count(name string, match map[string]string) int {
	n := 0
	for _, r := range m.Records() {
		if !r.Counter || r.Name != name {
			continue
		}
		if tagsMatch(r.Tags, match) {
			n++
		}
	}
	return n
}

// Reset discards all records.
func (m *MemorySink) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
}

// Outcome is the result of one logical call as seen by metrics.
type Outcome struct {
	Duration  time.Duration
	Succeeded bool
	// ErrorKind is empty on success.
	ErrorKind string
}

// NewOutcome builds the outcome of a call that took d and returned err.
func NewOutcome(d time.Duration, err error) Outcome {
	return Outcome{Duration: d, Succeeded: err == nil, ErrorKind: ErrorKind(err)}
}

// operationTags returns the timer tags and the counter tags for one outcome.
// Only the counter carries the error kind.
func operationTags(instance, provider, operation string, o Outcome) (timer, counter map[string]string) {
	timer = map[string]string{
		TagProvider:  provider,
		TagOperation: operation,
		TagStatus:    StatusSuccess,
	}
	if instance != "" {
		timer[TagInstance] = instance
	}
	if !o.Succeeded {
		timer[TagStatus] = StatusFailure
	}
	counter = copyTags(timer)
	if !o.Succeeded {
		counter[TagError] = o.ErrorKind
	}
	return timer, counter
}

func copyTags(tags map[string]string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[k] = v
	}
	return out
}

func tagsMatch(tags, match map[string]string) bool {
	for k, v := range match {
		if tags[k] != v {
			return false
		}
	}
	return true
}
