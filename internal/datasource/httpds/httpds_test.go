package httpds

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func fastConfig(retries int) Config {
	return Config{MaxRetries: retries, InitialBackoff: time.Millisecond, MaxBackoff: 2 * time.Millisecond}
}

func TestOpen_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, "age\n34\n")
	}))
	defer srv.Close()

	rc, err := New(srv.URL, fastConfig(3)).Open(context.Background())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "age\n34\n" || calls.Load() != 3 {
		t.Fatalf("body=%q calls=%d", b, calls.Load())
	}
}

func TestOpen_NonRetryableStatus(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := New(srv.URL, fastConfig(3)).Open(context.Background())
	if err == nil || !strings.Contains(err.Error(), "status 404") {
		t.Fatalf("err = %v, want status 404", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("calls = %d, want 1", calls.Load())
	}
}

func TestOpen_ExhaustsRetries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := New(srv.URL, fastConfig(2)).Open(context.Background())
	if err == nil || !strings.Contains(err.Error(), "retryable status 429") {
		t.Fatalf("err = %v", err)
	}
}

func TestOpen_CancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New("http://127.0.0.1:1", fastConfig(0)).Open(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestBackoffAndIsURL(t *testing.T) {
	t.Parallel()

	if got := backoff(100*time.Millisecond, 3, time.Second); got != 800*time.Millisecond {
		t.Fatalf("backoff = %v", got)
	}
	if got := backoff(100*time.Millisecond, 10, time.Second); got != time.Second {
		t.Fatalf("clamped backoff = %v", got)
	}
	for loc, want := range map[string]bool{
		"https://x/data.csv": true, "HTTP://x": true, "data.csv": false, "/tmp/http.csv": false,
	} {
		if IsURL(loc) != want {
			t.Errorf("IsURL(%q) = %v", loc, !want)
		}
	}
}
