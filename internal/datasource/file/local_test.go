package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalOpen(t *testing.T) {
	t.Parallel()

	type tc struct {
		name            string
		prepare         func(t *testing.T) string
		ctx             func() context.Context
		wantErrIs       error
		wantErrContains string
		wantContent     string
	}
	write := func(t *testing.T, body string) string {
		t.Helper()
		p := filepath.Join(t.TempDir(), "data.csv")
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatalf("write test file: %v", err)
		}
		return p
	}
	cancelled := func() context.Context {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}

	cases := []tc{
		{
			name:        "success_reads_content",
			prepare:     func(t *testing.T) string { return write(t, "age\n1\n") },
			ctx:         context.Background,
			wantContent: "age\n1\n",
		},
		{
			name:            "missing_file_wraps_not_exist",
			prepare:         func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.csv") },
			ctx:             context.Background,
			wantErrIs:       os.ErrNotExist,
			wantErrContains: "missing.csv",
		},
		{
			name:      "cancelled_context_short_circuits",
			prepare:   func(t *testing.T) string { return write(t, "ignored") },
			ctx:       cancelled,
			wantErrIs: context.Canceled,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Parallel()
			l := NewLocal(c.prepare(t))
			rc, err := l.Open(c.ctx())
			if c.wantErrIs != nil {
				if !errors.Is(err, c.wantErrIs) {
					t.Fatalf("Open err = %v, want %v", err, c.wantErrIs)
				}
				if c.wantErrContains != "" && !strings.Contains(err.Error(), c.wantErrContains) {
					t.Fatalf("Open err = %q, want it to mention %q", err, c.wantErrContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer rc.Close()
			b, err := io.ReadAll(rc)
			if err != nil {
				t.Fatalf("ReadAll: %v", err)
			}
			if string(b) != c.wantContent {
				t.Fatalf("content = %q, want %q", b, c.wantContent)
			}
		})
	}
}
