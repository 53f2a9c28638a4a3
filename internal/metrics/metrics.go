// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the ingestion run.
//
// A global, pluggable Backend defaults to a no-op, so instrumentation calls
// are always safe even when nothing is configured. Concrete systems live in
// subpackages (prompush, datadog) and are installed once at startup via
// SetBackend.
package metrics

import (
	"sync"
	"time"
)

// Metric names shared by every backend.
const (
	StepTotal    = "ingest_step_total"
	StepDuration = "ingest_step_duration_seconds"
	RecordsTotal = "ingest_records_total"
	RunsTotal    = "ingest_runs_total"
	AgeShare     = "ingest_age_group_percent"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// SetGauge records the current value of a level metric.
	SetGauge(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) SetGauge(string, float64, Labels)         {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error { return current().Flush() }

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

// RecordStep records latency and success/failure for one step of a run
// (parse, load, aggregate).
func RecordStep(job, step string, err error, d time.Duration) {
	lbls := Labels{"job": job, "step": step, "status": status(err)}
	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow increments a record-level counter for the given job and kind
// ("decoded", "short", "surplus", "inserted").
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RecordsTotal, float64(delta), Labels{"job": job, "kind": kind})
}

// RecordRun counts a finished run.
func RecordRun(job string, err error) {
	current().IncCounter(RunsTotal, 1, Labels{"job": job, "status": status(err)})
}

// RecordShare publishes the latest percentage for one age group.
func RecordShare(job, group string, percent float64) {
	current().SetGauge(AgeShare, percent, Labels{"job": job, "group": group})
}
