// Package skiplog writes the run-scoped error log: one CSV line per
// validation violation, so every row dropped before the warehouse can be
// traced back to its chunk, row and column.
package skiplog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"diagetl/internal/schema"
)

// header is written at the start of every Record call.
var header = []string{"", "errors"}

// FileName returns the error log name for a run started at start, e.g.
// errors_2021-03-01-10-11-12.csv. The timestamp is UTC, second precision.
func FileName(start time.Time) string {
	return "errors_" + start.UTC().Format("2006-01-02-15-04-05") + ".csv"
}

// Sink appends violations to a single error log for the lifetime of a run.
// The file is created on the first Record call and only ever appended to.
type Sink struct {
	path string
	log  *zap.Logger

	f     *os.File
	w     *csv.Writer
	total int
}

// NewSink returns a Sink writing to dir/FileName(start). Nothing touches the
// filesystem until the first Record.
func NewSink(dir string, start time.Time, log *zap.Logger) *Sink {
	if log == nil {
		log = zap.NewNop()
	}
	if dir == "" {
		dir = "."
	}
	return &Sink{path: filepath.Join(dir, FileName(start)), log: log}
}

// Path returns the error log path.
func (s *Sink) Path() string { return s.path }

// Record appends one chunk's violations. The first column is a running index
// that starts again at 0 on every call, so indices restart per chunk.
func (s *Sink) Record(violations []schema.Violation) error {
	if err := s.open(); err != nil {
		return err
	}
	if err := s.w.Write(header); err != nil {
		return fmt.Errorf("skiplog: write header: %w", err)
	}
	for i, v := range violations {
		if err := s.w.Write([]string{strconv.Itoa(i), v.String()}); err != nil {
			return fmt.Errorf("skiplog: write violation %d: %w", i, err)
		}
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("skiplog: flush %s: %w", s.path, err)
	}
	s.total += len(violations)
	if len(violations) > 0 {
		s.log.Debug("violations recorded",
			zap.String("path", s.path),
			zap.Int("count", len(violations)),
			zap.Int("run_total", s.total))
	}
	return nil
}

func (s *Sink) open() error {
	if s.f != nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("skiplog: create dir %s: %w", filepath.Dir(s.path), err)
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("skiplog: open %s: %w", s.path, err)
	}
	s.f = f
	s.w = csv.NewWriter(f)
	return nil
}

// Close flushes and closes the log. It is safe to call more than once and on
// a Sink that never recorded anything.
func (s *Sink) Close() error {
	if s.f == nil {
		return nil
	}
	s.w.Flush()
	werr := s.w.Error()
	cerr := s.f.Close()
	s.f, s.w = nil, nil
	if werr != nil {
		return fmt.Errorf("skiplog: flush %s: %w", s.path, werr)
	}
	if cerr != nil {
		return fmt.Errorf("skiplog: close %s: %w", s.path, cerr)
	}
	return nil
}
