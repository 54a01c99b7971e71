// Package datasource resolves the configured input location to a byte
// source: a local file, or an HTTP(S) resource when the location is a URL.
package datasource

import (
	"context"
	"io"

	"diagetl/internal/datasource/file"
	"diagetl/internal/datasource/httpds"
)

// Source yields fresh streams over the input and can verify it up front.
type Source interface {
	// Open returns a stream positioned at the first byte.
	Open(ctx context.Context) (io.ReadCloser, error)
	// Check fails when the input cannot be read.
	Check(ctx context.Context) error
	// Path returns the location the source was built from.
	Path() string
}

var (
	_ Source = (*file.Local)(nil)
	_ Source = (*httpds.Source)(nil)
)

// New returns the Source for location. http:// and https:// locations use
// an HTTP client built from hc; anything else is a local path.
func New(location string, hc httpds.Config) Source {
	if httpds.IsURL(location) {
		return httpds.NewSource(location, hc)
	}
	return file.NewLocal(location)
}
