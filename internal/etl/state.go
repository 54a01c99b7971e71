package etl

import "diagetl/pkg/records"

// State is the driver's explicit position in a run.
type State struct {
	// ChunkSize is the configured number of rows per extract call.
	ChunkSize int
	// Offset is the row offset of the next extract call.
	Offset int
	// Header is the canonical header captured from the first chunk.
	Header []string
	// Chunks counts chunks seen so far.
	Chunks int
	// Done is set once a chunk shorter than ChunkSize has been seen.
	Done bool
}

// NewState returns the starting state of a run.
func NewState(chunkSize int) State {
	return State{ChunkSize: chunkSize}
}

// Advance folds one raw chunk into the state. The first chunk's header
// becomes canonical; every later chunk is relabelled with it, because its own
// label row is really the previous chunk's last data row. The offset moves by
// ChunkSize and Done is set when raw is short.
func Advance(s State, raw records.Chunk) (State, records.Chunk) {
	chunk := raw
	if s.Chunks == 0 {
		s.Header = append([]string(nil), raw.Header...)
	} else {
		chunk = raw.Relabel(s.Header)
	}
	s.Chunks++
	s.Offset += s.ChunkSize
	if raw.Len() < s.ChunkSize {
		s.Done = true
	}
	return s, chunk
}
