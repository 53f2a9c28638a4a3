// Package datasource abstracts where the input bytes come from.
package datasource

import (
	"context"
	"io"

	"agereport/internal/datasource/file"
	"agereport/internal/datasource/httpds"
)

// Source opens a fresh stream of the input. Callers must close it.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// For picks the source implementation for loc: http(s) URLs are fetched with
// httpds, anything else is a local path.
func For(loc string, hc httpds.Config) Source {
	if httpds.IsURL(loc) {
		return httpds.New(loc, hc)
	}
	return file.NewLocal(loc)
}
