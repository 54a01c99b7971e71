package etl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"diagetl/internal/datasource/file"
	csvparser "diagetl/internal/parser/csv"
	"diagetl/internal/schema"
	"diagetl/internal/storage"
	"diagetl/pkg/records"
)

const scenarioFile = "testdata/diagnosis_10.csv"

/*
Fakes
*/

type memSink struct {
	calls [][]schema.Violation
	err   error
}

func (s *memSink) Record(v []schema.Violation) error {
	if s.err != nil {
		return s.err
	}
	s.calls = append(s.calls, v)
	return nil
}

type memLoader struct {
	batches [][]records.Record
	failAt  int // 1-based call that fails; 0 never
	calls   int
}

func (l *memLoader) Load(_ context.Context, recs []records.Record) (storage.LoadStats, error) {
	l.calls++
	if l.failAt != 0 && l.calls == l.failAt {
		return storage.LoadStats{}, errors.New("load FactDiagnosis: disk full")
	}
	l.batches = append(l.batches, recs)
	n := int64(len(recs))
	return storage.LoadStats{Procedures: n, Providers: n, Facts: n}, nil
}

type failingReader struct{ err error }

func (r failingReader) ReadChunk(context.Context, int, int) (records.Chunk, error) {
	return records.Chunk{}, r.err
}

func newDriver(t *testing.T, chunkSize int) (*Driver, *memSink, *memLoader) {
	t.Helper()
	reader := csvparser.NewReader(file.NewLocal(scenarioFile), csvparser.Options{})
	t.Cleanup(func() { _ = reader.Close() })
	sink := &memSink{}
	loader := &memLoader{}
	return &Driver{
		Reader:    reader,
		Contract:  schema.DiagnosisContract(),
		Sink:      sink,
		Loader:    loader,
		ChunkSize: chunkSize,
		Job:       "test",
	}, sink, loader
}

/*
Unit tests
*/

// TestRun_ChunkSizes walks the ten-row scenario with different chunk sizes.
// Whatever the split, four rows are rejected and six are loaded, and the sink
// is called once per chunk including the trailing empty one.
func TestRun_ChunkSizes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		size   int
		chunks int
	}{
		{1000, 1},
		{10, 2},
		{5, 3},
		{3, 4},
		{1, 11},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(fmt.Sprintf("size=%d", tc.size), func(t *testing.T) {
			t.Parallel()

			d, sink, loader := newDriver(t, tc.size)
			sum, err := d.Run(context.Background())
			if err != nil {
				t.Fatalf("Run(size=%d): %v", tc.size, err)
			}
			if sum.Chunks != tc.chunks || len(sink.calls) != tc.chunks || loader.calls != tc.chunks {
				t.Fatalf("size=%d: chunks=%d sink=%d loader=%d want %d",
					tc.size, sum.Chunks, len(sink.calls), loader.calls, tc.chunks)
			}
			if sum.RowsRead != 10 || sum.Violations != 4 || sum.RowsDropped != 4 || sum.RowsLoaded != 6 {
				t.Fatalf("size=%d: summary = %+v", tc.size, sum)
			}
			want := map[string]int{schema.ServiceDate: 1, schema.DiagnosisCode: 2, schema.ProcedureCode: 1}
			if !reflect.DeepEqual(sum.ViolationsByColumn, want) {
				t.Fatalf("size=%d: by column = %v", tc.size, sum.ViolationsByColumn)
			}
		})
	}
}

// TestRun_DroppedRowsCountedOnce checks a row with several violations is
// dropped once and that the rejected indices are logged.
func TestRun_DroppedRowsCountedOnce(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "twice.csv")
	body := strings.Join(schema.DiagnosisContract().Columns(), ",") + "\n" +
		"Good,Date,H5213,Myopia,92012,Eye exam,1234567890,,TROTCHIE,2021-03-01\n" +
		"Bad,Twice,S52515S,Fracture,491801234,Biopsy,1184889901,,HARDEBECK,2021-03-02\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	core, logs := observer.New(zap.DebugLevel)
	reader := csvparser.NewReader(file.NewLocal(path), csvparser.Options{})
	t.Cleanup(func() { _ = reader.Close() })
	d := &Driver{
		Reader:    reader,
		Contract:  schema.DiagnosisContract(),
		Sink:      &memSink{},
		Loader:    &memLoader{},
		ChunkSize: 10,
		Log:       zap.New(core),
	}

	sum, err := d.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if sum.Violations != 2 || sum.RowsDropped != 1 || sum.RowsLoaded != 1 {
		t.Fatalf("summary = %+v", sum)
	}
	rejected := logs.FilterMessage("rows rejected").All()
	if len(rejected) != 1 {
		t.Fatalf("rows rejected logged %d times want 1", len(rejected))
	}
	if got := fmt.Sprint(rejected[0].ContextMap()["rows"]); got != "[1]" {
		t.Fatalf("rejected rows = %s want [1]", got)
	}
}

// TestRun_RelabelsLaterChunks checks every loaded record is keyed by the
// file header, not by the data row the reader used as a label.
func TestRun_RelabelsLaterChunks(t *testing.T) {
	t.Parallel()

	d, _, loader := newDriver(t, 3)
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var got []string
	for _, b := range loader.batches {
		for _, rec := range b {
			code, ok := rec[schema.ProcedureCode].(string)
			if !ok {
				t.Fatalf("record without %s: %v", schema.ProcedureCode, rec)
			}
			got = append(got, code)
		}
	}
	want := []string{"92012", "49181", "A1234", "1234F", "00012", "00013"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("procedure codes = %v want %v", got, want)
	}
}

// TestRun_ChunkRelativeRows checks violation rows are positions inside their
// own chunk.
func TestRun_ChunkRelativeRows(t *testing.T) {
	t.Parallel()

	d, sink, _ := newDriver(t, 3)
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var got []string
	for i, call := range sink.calls {
		for _, v := range call {
			got = append(got, fmt.Sprintf("%d:%d:%s", i, v.Row, v.Column))
		}
	}
	want := []string{
		"0:0:service_date",
		"0:2:diagnosis_code",
		"2:2:diagnosis_code",
		"3:0:procedure_code",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("chunk:row:column = %v want %v", got, want)
	}
}

func TestRun_CleanedRecordsCarryDateKey(t *testing.T) {
	t.Parallel()

	d, _, loader := newDriver(t, 1000)
	if _, err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	var got []int
	for _, rec := range loader.batches[0] {
		got = append(got, rec[schema.DateFormatted].(int))
	}
	want := []int{20210301, 20210304, 20200323, 20210306, 20210307, 20210308}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("date keys = %v want %v", got, want)
	}
}

func TestRun_Failures(t *testing.T) {
	t.Parallel()

	t.Run("extract", func(t *testing.T) {
		t.Parallel()

		d, sink, _ := newDriver(t, 5)
		cause := errors.New("boom")
		d.Reader = failingReader{err: cause}
		_, err := d.Run(context.Background())
		if !errors.Is(err, cause) || !strings.Contains(err.Error(), "extract offset=0") {
			t.Fatalf("err = %v", err)
		}
		if len(sink.calls) != 0 {
			t.Fatalf("sink called after extract failure")
		}
	})

	t.Run("error log", func(t *testing.T) {
		t.Parallel()

		d, sink, loader := newDriver(t, 5)
		sink.err = errors.New("read-only file system")
		if _, err := d.Run(context.Background()); !errors.Is(err, sink.err) {
			t.Fatalf("err = %v", err)
		}
		if loader.calls != 0 {
			t.Fatalf("loader called after error log failure")
		}
	})

	t.Run("load", func(t *testing.T) {
		t.Parallel()

		d, _, loader := newDriver(t, 5)
		loader.failAt = 2
		sum, err := d.Run(context.Background())
		if err == nil || !strings.Contains(err.Error(), "offset=5: load FactDiagnosis") {
			t.Fatalf("err = %v", err)
		}
		if sum.Chunks != 1 || sum.RowsLoaded != 3 {
			t.Fatalf("summary after abort = %+v", sum)
		}
	})

	t.Run("chunk size", func(t *testing.T) {
		t.Parallel()

		d, _, _ := newDriver(t, 0)
		if _, err := d.Run(context.Background()); err == nil {
			t.Fatalf("expected error for chunk size 0")
		}
	})

	t.Run("canceled", func(t *testing.T) {
		t.Parallel()

		d, _, _ := newDriver(t, 5)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := d.Run(ctx); !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v", err)
		}
	})
}
