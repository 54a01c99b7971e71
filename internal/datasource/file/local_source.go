// Package file implements a local filesystem-backed data source.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local opens a file from the local disk. Each Open returns an independent
// handle positioned at the start of the file, so a reader can rewind by
// opening again.
type Local struct{ path string }

// NewLocal returns a Local bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the configured filesystem path.
func (l *Local) Path() string { return l.path }

// Open opens the configured path for reading.
//
// A canceled context is reported before the filesystem is touched. Filesystem
// errors are wrapped with the path and still match errors.Is(err,
// os.ErrNotExist) and friends.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	adviseSequential(f)
	return f, nil
}

// Check verifies that the path exists, is a regular file and can be opened.
// The driver calls it during setup so an unreadable source fails the run
// before any chunk is processed.
func (l *Local) Check(ctx context.Context) error {
	st, err := os.Stat(l.path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", l.path, err)
	}
	if !st.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", l.path)
	}
	rc, err := l.Open(ctx)
	if err != nil {
		return err
	}
	return rc.Close()
}
