// Package monitor reports failures to Sentry. A Monitor built without a DSN
// is a no-op, as is a nil *Monitor.
package monitor

import (
	"fmt"
	"time"

	sentry "github.com/getsentry/sentry-go"
)

// Options configure a Monitor.
type Options struct {
	DSN         string
	Release     string
	Environment string

	// beforeSend intercepts events before transport (tests).
	beforeSend func(*sentry.Event, *sentry.EventHint) *sentry.Event
}

// Monitor wraps a private Sentry hub so nothing else in the process touches
// the global one.
type Monitor struct {
	hub *sentry.Hub
}

// New initializes the Sentry client. An empty DSN disables reporting.
func New(opts Options) (*Monitor, error) {
	if opts.DSN == "" {
		return &Monitor{}, nil
	}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              opts.DSN,
		Release:          opts.Release,
		Environment:      opts.Environment,
		AttachStacktrace: true,
		BeforeSend:       opts.beforeSend,
	})
	if err != nil {
		return nil, fmt.Errorf("monitor: sentry init: %w", err)
	}
	return &Monitor{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

// IsOn reports whether events are being sent.
func (m *Monitor) IsOn() bool { return m != nil && m.hub != nil }

// CaptureError sends err with the given tags.
func (m *Monitor) CaptureError(err error, tags map[string]string) {
	if !m.IsOn() || err == nil {
		return
	}
	m.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		m.hub.CaptureException(err)
	})
}

// Flush waits up to timeout for buffered events to be delivered.
func (m *Monitor) Flush(timeout time.Duration) {
	if !m.IsOn() {
		return
	}
	m.hub.Flush(timeout)
}
