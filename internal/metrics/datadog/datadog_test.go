package datadog

import (
	"reflect"
	"testing"

	"agereport/internal/metrics"
)

type sent struct {
	kind  string
	name  string
	value float64
	tags  []string
}

type fakeClient struct {
	sent   []sent
	closed bool
}

func (f *fakeClient) Count(name string, v int64, tags []string, _ float64) error {
	f.sent = append(f.sent, sent{"count", name, float64(v), tags})
	return nil
}

func (f *fakeClient) Histogram(name string, v float64, tags []string, _ float64) error {
	f.sent = append(f.sent, sent{"histogram", name, v, tags})
	return nil
}

func (f *fakeClient) Gauge(name string, v float64, tags []string, _ float64) error {
	f.sent = append(f.sent, sent{"gauge", name, v, tags})
	return nil
}

func (f *fakeClient) Close() error { f.closed = true; return nil }

func TestNewBackend_RequiresAddr(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend(Config{}); err == nil {
		t.Fatal("NewBackend without Addr: want error")
	}
}

func TestBackend_Forwards(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	b := &Backend{client: fc}

	b.IncCounter(metrics.RecordsTotal, 4, metrics.Labels{"kind": "inserted", "job": "j"})
	b.ObserveHistogram(metrics.StepDuration, 0.5, metrics.Labels{"step": "load"})
	b.SetGauge(metrics.AgeShare, 25, metrics.Labels{"group": "<20"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	want := []sent{
		{"count", metrics.RecordsTotal, 4, []string{"job:j", "kind:inserted"}},
		{"histogram", metrics.StepDuration, 0.5, []string{"step:load"}},
		{"gauge", metrics.AgeShare, 25, []string{"group:<20"}},
	}
	if !reflect.DeepEqual(fc.sent, want) {
		t.Fatalf("sent = %+v\nwant %+v", fc.sent, want)
	}
	if !fc.closed {
		t.Fatal("Flush did not close the client")
	}
}

func TestBackend_NilClientIsSafe(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter("x", 1, nil)
	b.ObserveHistogram("x", 1, nil)
	b.SetGauge("x", 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}
