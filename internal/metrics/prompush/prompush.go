// Package prompush implements a Prometheus Pushgateway backend for the
// metrics package. A batch run has no scrape endpoint, so collected metrics
// are pushed to a Pushgateway when the run flushes.
//
// The job label is used as the Pushgateway grouping key; remaining labels map
// onto client_golang collectors.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"diagetl/internal/metrics"
)

// Backend is a Prometheus Pushgateway metrics backend.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway "job" group
	reg        *prometheus.Registry

	stepCounter      *prometheus.CounterVec // etl_step_total{step,status}
	stepDuration     *prometheus.SummaryVec // etl_step_duration_seconds{step,status}
	recordCounter    *prometheus.CounterVec // etl_records_total{kind}
	violationCounter *prometheus.CounterVec // etl_violations_total{column}
	chunkCounter     prometheus.Counter     // etl_chunks_total
}

// NewBackend constructs a Prometheus Pushgateway backend.
// jobName: the Pushgateway "job" name (usually the configured job).
// gatewayURL: base URL of the Pushgateway server.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "diagnosis_etl"
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),
		stepCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.StepTotal,
				Help: "Total number of ETL step executions, partitioned by step and status.",
			},
			[]string{"step", "status"},
		),
		stepDuration: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       metrics.StepDuration,
				Help:       "Duration of ETL steps in seconds, partitioned by step and status.",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{"step", "status"},
		),
		recordCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.RecordsTotal,
				Help: "Record counts per kind (read, violations, dropped, loaded).",
			},
			[]string{"kind"},
		),
		violationCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metrics.ViolationsTotal,
				Help: "Validation violations per input column.",
			},
			[]string{"column"},
		),
		chunkCounter: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: metrics.ChunksTotal,
				Help: "Total number of chunks processed by this run.",
			},
		),
	}

	for name, c := range map[string]prometheus.Collector{
		"step counter":      b.stepCounter,
		"step summary":      b.stepDuration,
		"record counter":    b.recordCounter,
		"violation counter": b.violationCounter,
		"chunk counter":     b.chunkCounter,
	} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register %s: %w", name, err)
		}
	}
	return b, nil
}

// Gatherer exposes the backend registry, mainly for tests.
func (b *Backend) Gatherer() prometheus.Gatherer { return b.reg }

func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case metrics.StepTotal:
		if b.stepCounter == nil {
			return
		}
		b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)

	case metrics.RecordsTotal:
		if b.recordCounter == nil {
			return
		}
		b.recordCounter.WithLabelValues(labels["kind"]).Add(delta)

	case metrics.ViolationsTotal:
		if b.violationCounter == nil {
			return
		}
		b.violationCounter.WithLabelValues(labels["column"]).Add(delta)

	case metrics.ChunksTotal:
		if b.chunkCounter == nil {
			return
		}
		b.chunkCounter.Add(delta)
	}
}

func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != metrics.StepDuration || b.stepDuration == nil {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the current registry to the Pushgateway.
func (b *Backend) Flush() error {
	if err := push.New(b.gatewayURL, b.jobName).Gatherer(b.reg).Push(); err != nil {
		return fmt.Errorf("prompush: push to %s: %w", b.gatewayURL, err)
	}
	return nil
}
