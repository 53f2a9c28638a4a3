// Package csv decodes header-first, comma-delimited lines into RawRows.
//
// The format is deliberately simple: the delimiter is fixed at ',', there is
// no quoting or escaping, and a value containing a comma is split like any
// other. Lines come pre-trimmed from a LineSource (normally *lines.Reader).
//
// Shape anomalies never abort decoding:
//   - a row with fewer fields than the header maps the missing columns to
//     records.Absent;
//   - fields beyond the header width are dropped and counted in Stats;
//   - duplicate header names overwrite each other left to right.
package csv

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"golang.org/x/text/unicode/norm"

	"agereport/internal/records"
)

// Comma is the only supported field delimiter.
const Comma = ","

// LineSource yields trimmed, non-empty lines and io.EOF at the end.
type LineSource interface {
	NextContext(ctx context.Context) (string, error)
}

// Stats counts shape anomalies seen while decoding.
type Stats struct {
	Rows    int // data rows decoded
	Short   int // rows with fewer fields than the header
	Surplus int // rows with more fields than the header
}

// Decoder reads the header on first use and then one RawRow per line.
type Decoder struct {
	src     LineSource
	header  []string
	started bool
	stats   Stats
}

// NewDecoder returns a Decoder over src.
func NewDecoder(src LineSource) *Decoder { return &Decoder{src: src} }

// Header returns the normalized header, reading it if needed. An input with
// no lines at all yields a nil header and io.EOF.
func (d *Decoder) Header(ctx context.Context) ([]string, error) {
	if d.started {
		if d.header == nil {
			return nil, io.EOF
		}
		return d.header, nil
	}
	d.started = true
	line, err := d.src.NextContext(ctx)
	if err != nil {
		return nil, err
	}
	d.header = ParseHeader(line)
	return d.header, nil
}

// Next returns the next data row, or io.EOF.
func (d *Decoder) Next(ctx context.Context) (records.RawRow, error) {
	header, err := d.Header(ctx)
	if err != nil {
		return records.RawRow{}, err
	}
	line, err := d.src.NextContext(ctx)
	if err != nil {
		return records.RawRow{}, err
	}
	fields := strings.Split(line, Comma)
	switch {
	case len(fields) < len(header):
		d.stats.Short++
	case len(fields) > len(header):
		d.stats.Surplus++
	}
	d.stats.Rows++
	return RowFromFields(header, fields), nil
}

// DecodeAll drains the source. Input without a header yields no rows and no
// error; any other source error is returned as is.
func (d *Decoder) DecodeAll(ctx context.Context) ([]records.RawRow, error) {
	var out []records.RawRow
	for {
		row, err := d.Next(ctx)
		if errors.Is(err, io.EOF) {
			if d.stats.Surplus > 0 {
				log.Printf("csv: %d of %d rows had more fields than the header; extra fields dropped", d.stats.Surplus, d.stats.Rows)
			}
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, row)
	}
}

// Stats returns the anomaly counters accumulated so far.
func (d *Decoder) Stats() Stats { return d.stats }

// ParseHeader splits a header line into trimmed, NFC-normalized column names.
// A leading UTF-8 BOM on the first column is removed.
func ParseHeader(line string) []string {
	cols := strings.Split(line, Comma)
	for i, c := range cols {
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		cols[i] = norm.NFC.String(strings.TrimSpace(c))
	}
	return cols
}

// RowFromFields zips header and fields into a RawRow. Values are trimmed;
// header positions past the end of fields are Absent.
func RowFromFields(header, fields []string) records.RawRow {
	row := records.NewRawRow(len(header))
	for i, h := range header {
		if i < len(fields) {
			row.Set(h, records.Str(strings.TrimSpace(fields[i])))
			continue
		}
		row.Set(h, records.Absent)
	}
	return row
}
