// Package records defines the in-memory shapes that flow between the ETL
// stages: a Chunk of positional rows labelled by a Header, and the Record map
// produced once a row has been cleaned and is ready for loading.
package records

import (
	"strconv"

	"github.com/zeebo/xxh3"
)

// Record maps a column name to a value. Raw values read from the source are
// strings; derived fields (e.g. date_formatted) may carry other types.
type Record map[string]any

// Row is a single source row inside a Chunk.
type Row struct {
	// Index is the 0-based position of the row inside its chunk. Violations
	// reference rows by this number.
	Index int

	// Line is the 1-based record number in the source file (header = 1).
	// Diagnostic only.
	Line int

	// Values are aligned with Chunk.Header.
	Values []string
}

// Chunk is one bounded batch of rows read from the source in a single
// extract call.
type Chunk struct {
	// Offset is the row offset the chunk was read at.
	Offset int

	// Header labels Values positionally. For every chunk after the first one
	// in a run the driver replaces it with the canonical header.
	Header []string

	Rows []Row
}

// Len returns the number of rows in the chunk.
func (c Chunk) Len() int { return len(c.Rows) }

// Column returns the position of name in the header, or -1.
func (c Chunk) Column(name string) int {
	for i, h := range c.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Value returns the raw value of column name in row r. ok is false when the
// header has no such column or the row is too short to hold it.
func (c Chunk) Value(r Row, name string) (string, bool) {
	i := c.Column(name)
	if i < 0 || i >= len(r.Values) {
		return "", false
	}
	return r.Values[i], true
}

// Record converts r into a column-keyed Record using the chunk header.
func (c Chunk) Record(r Row) Record {
	rec := make(Record, len(c.Header))
	for i, h := range c.Header {
		if i < len(r.Values) {
			rec[h] = r.Values[i]
		} else {
			rec[h] = ""
		}
	}
	return rec
}

// Relabel returns a copy of c whose Header is replaced by header. Rows are
// shared, not copied.
func (c Chunk) Relabel(header []string) Chunk {
	h := make([]string, len(header))
	copy(h, header)
	c.Header = h
	return c
}

// Digest returns an xxh3 fingerprint of the chunk's header and values. It is
// logged next to each chunk so two runs over the same input can be compared.
func (c Chunk) Digest() uint64 {
	h := xxh3.New()
	for _, col := range c.Header {
		_, _ = h.WriteString(col)
		_, _ = h.WriteString("\x1f")
	}
	for _, r := range c.Rows {
		_, _ = h.WriteString(strconv.Itoa(r.Index))
		for _, v := range r.Values {
			_, _ = h.WriteString("\x1f")
			_, _ = h.WriteString(v)
		}
		_, _ = h.WriteString("\x1e")
	}
	return h.Sum64()
}
