// Package lines turns an arbitrary byte stream into complete, trimmed,
// non-empty text lines.
//
// The reader pulls fixed-size chunks from the underlying io.Reader and keeps
// a carry buffer of bytes that have not yet been terminated by '\n'. A line
// is only emitted once its terminator has been observed, so chunk boundaries
// may split lines (or "\r\n" pairs) anywhere. Memory stays bounded by the
// chunk size plus the longest line.
package lines

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"agereport/internal/domain"
)

// DefaultChunkSize matches the 64 KiB read size used by the CSV scrubber.
const DefaultChunkSize = 64 * 1024

// TrailingPolicy decides what happens to bytes left in the carry buffer when
// the stream ends without a final '\n'.
type TrailingPolicy int

const (
	// TrailingEmit returns the leftover bytes as a final line.
	TrailingEmit TrailingPolicy = iota
	// TrailingDiscard drops them.
	TrailingDiscard
)

// ParseTrailingPolicy maps "emit" / "discard" to a TrailingPolicy.
func ParseTrailingPolicy(s string) (TrailingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "emit":
		return TrailingEmit, nil
	case "discard":
		return TrailingDiscard, nil
	}
	return TrailingEmit, fmt.Errorf("unknown trailing line policy %q", s)
}

func (p TrailingPolicy) String() string {
	if p == TrailingDiscard {
		return "discard"
	}
	return "emit"
}

// Options configures a Reader. The zero value is valid.
type Options struct {
	// ChunkSize is the number of bytes requested per Read. <= 0 selects
	// DefaultChunkSize.
	ChunkSize int

	// Trailing selects the end-of-stream policy for an unterminated line.
	Trailing TrailingPolicy
}

// Reader yields lines from an underlying stream. It is not safe for
// concurrent use.
type Reader struct {
	r     io.Reader
	opt   Options
	chunk []byte
	carry []byte // unconsumed bytes; carry[off:] is pending
	off   int
	eof   bool
	err   error // sticky read error
	n     int   // lines emitted
}

// NewReader wraps r.
func NewReader(r io.Reader, opt Options) *Reader {
	if opt.ChunkSize <= 0 {
		opt.ChunkSize = DefaultChunkSize
	}
	return &Reader{
		r:     r,
		opt:   opt,
		chunk: make([]byte, opt.ChunkSize),
	}
}

// Next returns the next trimmed, non-empty line. It returns io.EOF once the
// stream is exhausted. A failing underlying Read yields an error wrapping
// domain.ErrIO; the same error is returned on every later call.
func (lr *Reader) Next() (string, error) {
	return lr.NextContext(context.Background())
}

// NextContext is Next with a cancellation check before every chunk read.
func (lr *Reader) NextContext(ctx context.Context) (string, error) {
	if lr.err != nil {
		return "", lr.err
	}
	for {
		// Drain complete lines already sitting in the carry buffer.
		for {
			pending := lr.carry[lr.off:]
			i := bytes.IndexByte(pending, '\n')
			if i < 0 {
				break
			}
			lr.off += i + 1
			if line := strings.TrimSpace(string(pending[:i])); line != "" {
				lr.n++
				return line, nil
			}
		}

		if lr.eof {
			rest := lr.carry[lr.off:]
			lr.carry, lr.off = lr.carry[:0], 0
			if len(rest) > 0 && lr.opt.Trailing == TrailingEmit {
				if line := strings.TrimSpace(string(rest)); line != "" {
					lr.n++
					return line, nil
				}
			}
			return "", io.EOF
		}

		if err := ctx.Err(); err != nil {
			lr.err = err
			return "", err
		}
		if err := lr.fill(); err != nil {
			lr.err = err
			return "", err
		}
	}
}

// fill compacts the carry buffer and appends the next chunk to it.
func (lr *Reader) fill() error {
	if lr.off > 0 {
		n := copy(lr.carry, lr.carry[lr.off:])
		lr.carry, lr.off = lr.carry[:n], 0
	}
	n, err := lr.r.Read(lr.chunk)
	if n > 0 {
		lr.carry = append(lr.carry, lr.chunk[:n]...)
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		lr.eof = true
		return nil
	default:
		return fmt.Errorf("read input after %d lines: %w: %w", lr.n, domain.ErrIO, err)
	}
}

// All returns a lazy sequence over the remaining lines. Iteration ends at
// EOF; a read error is yielded once as the final element.
func (lr *Reader) All() iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for {
			line, err := lr.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", err)
				return
			}
			if !yield(line, nil) {
				return
			}
		}
	}
}

// Count returns the number of lines emitted so far.
func (lr *Reader) Count() int { return lr.n }
