package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	counters   []call
	histograms []call
	gauges     []call
	flushCount int
}

type call struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counters = append(f.counters, call{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.histograms = append(f.histograms, call{name, value, labels})
}

func (f *fakeBackend) SetGauge(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gauges = append(f.gauges, call{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

func install(t *testing.T) *fakeBackend {
	t.Helper()
	orig := current()
	fb := &fakeBackend{}
	SetBackend(fb)
	t.Cleanup(func() { SetBackend(orig) })
	return fb
}

func TestRecordStep_SuccessAndFailure(t *testing.T) {
	fb := install(t)

	RecordStep("jobA", "parse", nil, 2*time.Second)
	RecordStep("jobB", "load", errors.New("boom"), 1500*time.Millisecond)

	if len(fb.counters) != 2 || len(fb.histograms) != 2 {
		t.Fatalf("counters=%d histograms=%d, want 2/2", len(fb.counters), len(fb.histograms))
	}
	c0 := fb.counters[0]
	if c0.name != StepTotal || c0.value != 1 {
		t.Fatalf("counter[0] = %#v", c0)
	}
	if c0.labels["job"] != "jobA" || c0.labels["step"] != "parse" || c0.labels["status"] != "success" {
		t.Fatalf("counter[0] labels = %v", c0.labels)
	}
	if h := fb.histograms[0]; h.name != StepDuration || h.value < 1.999 || h.value > 2.001 {
		t.Fatalf("hist[0] = %#v, want ~2s", h)
	}
	if got := fb.counters[1].labels["status"]; got != "failure" {
		t.Fatalf("counter[1] status = %q, want failure", got)
	}
}

func TestRecordRowRunAndShare(t *testing.T) {
	fb := install(t)

	RecordRow("job", "decoded", 3)
	RecordRow("job", "short", 0) // ignored
	RecordRun("job", nil)
	RecordShare("job", "<20", 25)

	if len(fb.counters) != 2 {
		t.Fatalf("expected 2 counter calls, got %d", len(fb.counters))
	}
	if c := fb.counters[0]; c.name != RecordsTotal || c.value != 3 || c.labels["kind"] != "decoded" {
		t.Fatalf("records counter = %#v", c)
	}
	if c := fb.counters[1]; c.name != RunsTotal || c.labels["status"] != "success" {
		t.Fatalf("runs counter = %#v", c)
	}
	if len(fb.gauges) != 1 || fb.gauges[0].labels["group"] != "<20" || fb.gauges[0].value != 25 {
		t.Fatalf("gauges = %#v", fb.gauges)
	}
}

func TestSetBackendAndFlush(t *testing.T) {
	fb := install(t)

	if err := Flush(); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if fb.flushCount != 1 {
		t.Fatalf("expected flushCount=1, got %d", fb.flushCount)
	}

	SetBackend(nil)
	if current() != Backend(fb) {
		t.Fatal("SetBackend(nil) should not change backend")
	}
}
