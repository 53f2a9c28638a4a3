// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local opens a file from the local disk.
type Local struct{ path string }

// NewLocal returns a Local bound to path. It is safe for concurrent use.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the configured path.
func (l *Local) Path() string { return l.path }

// Open returns the context error if ctx is already done; otherwise it opens
// the file and hints the kernel that it will be read sequentially. Filesystem
// errors are wrapped with the path and still match errors.Is(err,
// os.ErrNotExist).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	adviseSequential(f)
	return f, nil
}
