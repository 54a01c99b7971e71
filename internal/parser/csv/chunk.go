// Package csv reads delimited text files in fixed-size chunks. Memory use is
// bounded by one chunk regardless of the file size.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"diagetl/pkg/records"
)

// Opener yields a fresh stream positioned at the start of the source.
type Opener interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Options configures the chunk reader. The zero value reads comma separated
// input with strict quoting.
type Options struct {
	// Comma is the field delimiter. When zero, ',' is used.
	Comma rune

	// LazyQuotes relaxes quote handling (see encoding/csv).
	LazyQuotes bool
}

// Reader returns consecutive chunks of a delimited file.
//
// ReadChunk(n, off) skips off records, takes the next record as the chunk's
// label row, then reads up to n rows. With off == 0 the label row is the file
// header. For later offsets the label row is the last row of the previous
// chunk, which is why callers must relabel every chunk after the first with
// the header captured from the first one.
//
// Sequential calls reuse one open stream; a backwards offset reopens the
// source. Reader is not safe for concurrent use.
type Reader struct {
	src Opener
	opt Options

	rc    io.ReadCloser
	cr    *csv.Reader
	pos   int      // records consumed from the current stream
	last  []string // most recently consumed record
	width int      // field count of the first record
}

// NewReader returns a Reader over src.
func NewReader(src Opener, opt Options) *Reader {
	return &Reader{src: src, opt: opt}
}

// ReadChunk reads up to rowCount rows following the label row at rowOffset.
// A chunk with fewer than rowCount rows means the source is exhausted; there
// is no other end-of-input signal.
func (r *Reader) ReadChunk(ctx context.Context, rowCount, rowOffset int) (records.Chunk, error) {
	if rowCount <= 0 {
		return records.Chunk{}, fmt.Errorf("csv: rowCount must be > 0, got %d", rowCount)
	}
	if rowOffset < 0 {
		return records.Chunk{}, fmt.Errorf("csv: rowOffset must be >= 0, got %d", rowOffset)
	}
	chunk := records.Chunk{Offset: rowOffset}

	label, err := r.seekLabel(ctx, rowOffset)
	if errors.Is(err, io.EOF) {
		return chunk, nil
	}
	if err != nil {
		return chunk, err
	}
	chunk.Header = normalizeHeader(label)

	for i := 0; i < rowCount; i++ {
		rec, err := r.next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return chunk, err
		}
		chunk.Rows = append(chunk.Rows, records.Row{Index: i, Line: r.pos, Values: rec})
	}
	return chunk, nil
}

// seekLabel positions the stream so that the record at rowOffset has just
// been consumed and returns it.
func (r *Reader) seekLabel(ctx context.Context, rowOffset int) ([]string, error) {
	if r.cr != nil && r.last != nil && rowOffset == r.pos-1 {
		return r.last, nil
	}
	if r.cr == nil || rowOffset < r.pos {
		if err := r.reopen(ctx); err != nil {
			return nil, err
		}
	}
	for r.pos < rowOffset {
		if _, err := r.next(); err != nil {
			return nil, err
		}
	}
	return r.next()
}

func (r *Reader) next() ([]string, error) {
	rec, err := r.cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("csv: record %d: %w", r.pos+1, err)
	}
	// Short rows read as empty trailing cells; extra cells are an error.
	if r.pos == 0 {
		r.width = len(rec)
	} else if len(rec) > r.width {
		return nil, fmt.Errorf("csv: record %d: expected %d fields, saw %d: %w",
			r.pos+1, r.width, len(rec), csv.ErrFieldCount)
	}
	r.pos++
	r.last = rec
	return rec, nil
}

func (r *Reader) reopen(ctx context.Context) error {
	if err := r.Close(); err != nil {
		return err
	}
	rc, err := r.src.Open(ctx)
	if err != nil {
		return fmt.Errorf("csv: open source: %w", err)
	}

	// Strip a UTF-8 BOM if present.
	body := transform.NewReader(rc, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(body)
	if r.opt.Comma != 0 {
		cr.Comma = r.opt.Comma
	}
	cr.LazyQuotes = r.opt.LazyQuotes
	cr.FieldsPerRecord = -1

	r.rc, r.cr, r.pos, r.last, r.width = rc, cr, 0, nil, 0
	return nil
}

// Close releases the underlying stream. The Reader can be used again; the
// next ReadChunk reopens the source.
func (r *Reader) Close() error {
	if r.rc == nil {
		return nil
	}
	err := r.rc.Close()
	r.rc, r.cr, r.pos, r.last, r.width = nil, nil, 0, nil, 0
	return err
}
