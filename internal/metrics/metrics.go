// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from the ETL run.
//
// The package exposes a narrow Backend interface (counters and timing data)
// behind a global, pluggable backend that defaults to a no-op, so metrics are
// always safe to call even when nothing is configured. Concrete systems live
// in subpackages (prompush, datadog) and are installed with SetBackend.
package metrics

import "time"

// Metric names shared by every backend.
const (
	StepTotal       = "etl_step_total"
	StepDuration    = "etl_step_duration_seconds"
	RecordsTotal    = "etl_records_total"
	ViolationsTotal = "etl_violations_total"
	ChunksTotal     = "etl_chunks_total"
)

// Steps of one chunk cycle.
const (
	StepExtract   = "extract"
	StepTransform = "transform"
	StepLoad      = "load"
)

// Record kinds for RecordRow.
const (
	KindRead       = "read"
	KindViolations = "violations"
	KindDropped    = "dropped"
	KindLoaded     = "loaded"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep records latency and success/failure of one ETL step.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}

	backend.IncCounter(StepTotal, 1, lbls)
	backend.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// Track starts timing step and returns the function that records it:
//
//	done := metrics.Track(job, metrics.StepLoad)
//	_, err := loader.Load(ctx, recs)
//	done(err)
func Track(job, step string) func(error) {
	start := time.Now()
	return func(err error) { RecordStep(job, step, err, time.Since(start)) }
}

// RecordRow increments a record-level counter for the given job and kind
// (KindRead, KindViolations, KindDropped, KindLoaded).
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordViolations increments the per-column violation counter.
func RecordViolations(job, column string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(ViolationsTotal, float64(delta), Labels{
		"job":    job,
		"column": column,
	})
}

// RecordChunks increments the processed chunk counter for the given job.
func RecordChunks(job string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter(ChunksTotal, float64(delta), Labels{
		"job": job,
	})
}
