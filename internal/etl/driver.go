// Package etl drives the chunked extract, validate, clean and load cycle over
// one diagnosis input file.
//
// A run is a loop over State: extract a chunk at the current offset, relabel
// it with the canonical header, validate it against the contract, append its
// violations to the error log, drop the rejected rows and load the rest.
// The loop ends after processing the first chunk shorter than the chunk size.
package etl

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"diagetl/internal/metrics"
	"diagetl/internal/schema"
	"diagetl/internal/storage"
	"diagetl/internal/transformer"
	"diagetl/pkg/records"
)

// ChunkReader extracts one chunk; see csv.Reader.ReadChunk for the offset
// and label-row semantics.
type ChunkReader interface {
	ReadChunk(ctx context.Context, rowCount, rowOffset int) (records.Chunk, error)
}

// ViolationSink receives each chunk's violations, including empty batches.
type ViolationSink interface {
	Record(violations []schema.Violation) error
}

// ChunkLoader appends a chunk's cleaned records to the warehouse.
type ChunkLoader interface {
	Load(ctx context.Context, recs []records.Record) (storage.LoadStats, error)
}

// Driver runs the chunk loop. All fields except Log are required.
type Driver struct {
	Reader    ChunkReader
	Contract  schema.Contract
	Sink      ViolationSink
	Loader    ChunkLoader
	ChunkSize int
	Job       string
	Log       *zap.Logger
}

// Summary reports the totals of a completed (or aborted) run.
type Summary struct {
	Chunks      int
	RowsRead    int
	Violations  int
	RowsDropped int
	RowsLoaded  int64

	// ViolationsByColumn counts violations per column name.
	ViolationsByColumn map[string]int

	// ErrorLog is the path of the run's error log, when known.
	ErrorLog string

	Elapsed time.Duration
}

// Run processes chunks until the input is exhausted. Any extract, error log
// or load failure stops the run; chunks already loaded stay in the warehouse.
// The returned Summary covers every chunk fully processed before the failure.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	sum := Summary{ViolationsByColumn: make(map[string]int)}
	if d.ChunkSize < 1 {
		return sum, fmt.Errorf("chunk size must be at least 1, got %d", d.ChunkSize)
	}
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}

	st := NewState(d.ChunkSize)
	for !st.Done {
		if err := ctx.Err(); err != nil {
			sum.Elapsed = time.Since(start)
			return sum, err
		}
		offset := st.Offset
		t0 := time.Now()

		done := metrics.Track(d.Job, metrics.StepExtract)
		raw, err := d.Reader.ReadChunk(ctx, st.ChunkSize, offset)
		done(err)
		if err != nil {
			sum.Elapsed = time.Since(start)
			return sum, fmt.Errorf("extract offset=%d: %w", offset, err)
		}

		var chunk records.Chunk
		st, chunk = Advance(st, raw)

		done = metrics.Track(d.Job, metrics.StepTransform)
		violations := transformer.Validate(chunk, d.Contract)
		if err := d.Sink.Record(violations); err != nil {
			done(err)
			sum.Elapsed = time.Since(start)
			return sum, fmt.Errorf("error log offset=%d: %w", offset, err)
		}
		recs := transformer.Clean(chunk, violations)
		done(nil)

		done = metrics.Track(d.Job, metrics.StepLoad)
		stats, err := d.Loader.Load(ctx, recs)
		done(err)
		if err != nil {
			sum.Elapsed = time.Since(start)
			return sum, fmt.Errorf("offset=%d: %w", offset, err)
		}

		drop := transformer.RejectedRows(violations, chunk.Len())
		dropped := drop.Count()
		if dropped > 0 {
			log.Debug("rows rejected",
				zap.Int("offset", offset),
				zap.Ints("rows", drop.Indices()))
		}
		sum.Chunks++
		sum.RowsRead += chunk.Len()
		sum.Violations += len(violations)
		sum.RowsDropped += dropped
		sum.RowsLoaded += stats.Facts
		perColumn := make(map[string]int)
		for _, v := range violations {
			perColumn[v.Column]++
			sum.ViolationsByColumn[v.Column]++
		}

		metrics.RecordChunks(d.Job, 1)
		metrics.RecordRow(d.Job, metrics.KindRead, int64(chunk.Len()))
		metrics.RecordRow(d.Job, metrics.KindViolations, int64(len(violations)))
		metrics.RecordRow(d.Job, metrics.KindDropped, int64(dropped))
		metrics.RecordRow(d.Job, metrics.KindLoaded, stats.Facts)
		for col, n := range perColumn {
			metrics.RecordViolations(d.Job, col, int64(n))
		}

		log.Info("chunk processed",
			zap.Int("chunk", st.Chunks),
			zap.Int("offset", offset),
			zap.Int("rows", chunk.Len()),
			zap.Int("violations", len(violations)),
			zap.Int("dropped", dropped),
			zap.Int64("loaded", stats.Facts),
			zap.String("digest", fmt.Sprintf("%016x", chunk.Digest())),
			zap.Duration("elapsed", time.Since(t0)),
		)
	}

	sum.Elapsed = time.Since(start)
	return sum, nil
}
