package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	callsCounters   []counterCall
	callsHistograms []histCall
	flushCount      int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsCounters = append(f.callsCounters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsHistograms = append(f.callsHistograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

// install swaps the global backend for the duration of the test. Tests in
// this package are not parallel because of it.
func install(t *testing.T) *fakeBackend {
	t.Helper()
	orig := backend
	t.Cleanup(func() { backend = orig })
	fb := &fakeBackend{}
	backend = fb
	return fb
}

func TestRecordStep_SuccessAndFailure(t *testing.T) {
	fb := install(t)

	RecordStep("diagnosis_etl", StepExtract, nil, 2*time.Second)
	RecordStep("diagnosis_etl", StepLoad, errors.New("boom"), 1500*time.Millisecond)

	if len(fb.callsCounters) != 2 || len(fb.callsHistograms) != 2 {
		t.Fatalf("calls: counters=%d hist=%d, want 2/2", len(fb.callsCounters), len(fb.callsHistograms))
	}

	cc0 := fb.callsCounters[0]
	if cc0.name != StepTotal || cc0.delta != 1 {
		t.Fatalf("counter[0] = %#v", cc0)
	}
	if cc0.labels["step"] != StepExtract || cc0.labels["status"] != "success" || cc0.labels["job"] != "diagnosis_etl" {
		t.Fatalf("counter[0].labels = %v", cc0.labels)
	}

	h0 := fb.callsHistograms[0]
	if h0.name != StepDuration || h0.value < 1.999 || h0.value > 2.001 {
		t.Fatalf("hist[0] = %#v; want ~2s", h0)
	}

	if fb.callsCounters[1].labels["status"] != "failure" {
		t.Fatalf("counter[1].labels = %v", fb.callsCounters[1].labels)
	}
	if h1 := fb.callsHistograms[1]; h1.value < 1.499 || h1.value > 1.501 {
		t.Fatalf("hist[1].value=%v; want ~1.5", h1.value)
	}
}

func TestTrack(t *testing.T) {
	fb := install(t)

	done := Track("job", StepTransform)
	done(nil)

	if len(fb.callsCounters) != 1 || fb.callsCounters[0].labels["step"] != StepTransform {
		t.Fatalf("Track did not record the step: %#v", fb.callsCounters)
	}
	if fb.callsHistograms[0].value < 0 {
		t.Fatalf("negative duration")
	}
}

func TestRecordCounters(t *testing.T) {
	fb := install(t)

	RecordRow("job", KindRead, 10)
	RecordRow("job", KindDropped, 0) // ignored
	RecordViolations("job", "diagnosis_code", 2)
	RecordViolations("job", "provider_id", -1) // ignored
	RecordChunks("job", 1)

	want := []counterCall{
		{RecordsTotal, 10, Labels{"job": "job", "kind": KindRead}},
		{ViolationsTotal, 2, Labels{"job": "job", "column": "diagnosis_code"}},
		{ChunksTotal, 1, Labels{"job": "job"}},
	}
	if len(fb.callsCounters) != len(want) {
		t.Fatalf("got %d counter calls, want %d: %#v", len(fb.callsCounters), len(want), fb.callsCounters)
	}
	for i, w := range want {
		g := fb.callsCounters[i]
		if g.name != w.name || g.delta != w.delta {
			t.Errorf("counter[%d] = %s/%v want %s/%v", i, g.name, g.delta, w.name, w.delta)
		}
		for k, v := range w.labels {
			if g.labels[k] != v {
				t.Errorf("counter[%d].labels[%s] = %q want %q", i, k, g.labels[k], v)
			}
		}
	}
}

func TestSetBackendAndFlush(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	SetBackend(fb)
	if backend != fb {
		t.Fatal("SetBackend did not replace global backend")
	}

	if err := Flush(); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if fb.flushCount != 1 {
		t.Fatalf("expected flushCount=1, got %d", fb.flushCount)
	}

	SetBackend(nil)
	if backend != fb {
		t.Fatal("SetBackend(nil) should not change backend")
	}
}
