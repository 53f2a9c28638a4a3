package monitor

import (
	"errors"
	"sync"
	"testing"
	"time"

	sentry "github.com/getsentry/sentry-go"
)

func TestNew_EmptyDSNIsNoop(t *testing.T) {
	t.Parallel()

	m, err := New(Options{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if m.IsOn() {
		t.Fatal("monitor without DSN reports IsOn")
	}
	m.CaptureError(errors.New("ignored"), nil)
	m.Flush(time.Millisecond)

	var nilMon *Monitor
	nilMon.CaptureError(errors.New("ignored"), nil)
}

func TestNew_BadDSN(t *testing.T) {
	t.Parallel()

	if _, err := New(Options{DSN: "::not a dsn::"}); err == nil {
		t.Fatal("New with malformed DSN: want error")
	}
}

func TestCaptureError_TagsAndException(t *testing.T) {
	t.Parallel()

	var (
		mu     sync.Mutex
		events []*sentry.Event
	)
	m, err := New(Options{
		DSN:     "https://public@sentry.example.com/1",
		Release: "test",
		beforeSend: func(e *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
			return nil // drop: never hits the network
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !m.IsOn() {
		t.Fatal("IsOn = false")
	}

	m.CaptureError(errors.New("load failed"), map[string]string{"run_id": "r1"})
	m.CaptureError(nil, nil)

	mu.Lock()
	defer mu.Unlock()
	if len(events) != 1 {
		t.Fatalf("captured %d events, want 1", len(events))
	}
	e := events[0]
	if e.Tags["run_id"] != "r1" {
		t.Fatalf("tags = %v", e.Tags)
	}
	if len(e.Exception) == 0 || e.Exception[len(e.Exception)-1].Value != "load failed" {
		t.Fatalf("exception = %+v", e.Exception)
	}
	if e.Release != "test" {
		t.Fatalf("release = %q", e.Release)
	}
}
