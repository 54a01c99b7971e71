// This file implements the star-schema loader. Each cleaned chunk is projected
// onto DimProcedure, DimProvider and FactDiagnosis and appended through the
// backend's bulk path (Postgres COPY, SQL Server bulk copy, multi-row INSERT).
//
// Logging: on every successful flush a concise progress line is emitted with
// running totals and instantaneous rows/sec since the previous flush.

package storage

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"diagetl/internal/schema"
	"diagetl/pkg/records"
)

// Table is a warehouse table and the record fields projected onto it, in
// insert order. Column names equal record field names.
type Table struct {
	Name    string
	Columns []string
}

var (
	DimProcedure = Table{
		Name:    "DimProcedure",
		Columns: []string{schema.ProcedureCode, schema.ProcedureDescription},
	}
	DimProvider = Table{
		Name:    "DimProvider",
		Columns: []string{schema.ProviderID, schema.ProviderOrgName, schema.ProviderLastName},
	}
	FactDiagnosis = Table{
		Name: "FactDiagnosis",
		Columns: []string{
			schema.DiagnosisCode, schema.ProcedureCode, schema.ProviderID,
			schema.MemberFirstName, schema.MemberLastName, schema.DiagnosisDescription,
			schema.DateFormatted,
		},
	}
)

// Tables returns the warehouse tables in load order.
func Tables() []Table {
	return []Table{DimProcedure, DimProvider, FactDiagnosis}
}

// Project maps recs onto t's columns. Missing fields and empty strings become
// nil so backends write SQL NULL.
func Project(t Table, recs []records.Record) [][]any {
	rows := make([][]any, len(recs))
	for i, rec := range recs {
		row := make([]any, len(t.Columns))
		for j, c := range t.Columns {
			row[j] = nullable(rec[c])
		}
		rows[i] = row
	}
	return rows
}

func nullable(v any) any {
	if s, ok := v.(string); ok && s == "" {
		return nil
	}
	return v
}

// LoadStats reports rows appended per table for one Load call.
type LoadStats struct {
	Procedures int64
	Providers  int64
	Facts      int64
}

// Loader appends cleaned records to the warehouse.
type Loader struct {
	repo      Repository
	log       *zap.Logger
	batchSize int

	batches     int64
	total       int64
	start       time.Time
	lastFlushTS time.Time
	lastTotal   int64
}

// NewLoader returns a Loader writing through repo in batches of at most
// batchSize rows per CopyFrom call. batchSize <= 0 sends each table in one call.
func NewLoader(repo Repository, batchSize int, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	now := time.Now()
	return &Loader{repo: repo, log: log, batchSize: batchSize, start: now, lastFlushTS: now}
}

// Load appends recs to DimProcedure, DimProvider and FactDiagnosis, in that
// order. Rows are appended as-is: no deduplication, update or delete. The
// first write failure aborts the load and is returned as "load <table>: ...";
// tables already written for this call are not rolled back.
func (l *Loader) Load(ctx context.Context, recs []records.Record) (LoadStats, error) {
	var st LoadStats
	if len(recs) == 0 {
		return st, nil
	}
	for _, t := range Tables() {
		n, err := l.copyTable(ctx, t, Project(t, recs))
		switch t.Name {
		case DimProcedure.Name:
			st.Procedures = n
		case DimProvider.Name:
			st.Providers = n
		case FactDiagnosis.Name:
			st.Facts = n
		}
		if err != nil {
			return st, fmt.Errorf("load %s: %w", t.Name, err)
		}
	}
	return st, nil
}

func (l *Loader) copyTable(ctx context.Context, t Table, rows [][]any) (int64, error) {
	size := l.batchSize
	if size <= 0 || size > len(rows) {
		size = len(rows)
	}

	var copied int64
	for lo := 0; lo < len(rows); lo += size {
		hi := min(lo+size, len(rows))
		n, err := l.repo.CopyFrom(ctx, t.Name, t.Columns, rows[lo:hi])
		copied += n
		l.total += n
		if err != nil {
			l.log.Error("copy failed",
				zap.String("table", t.Name),
				zap.Int64("after", n),
				zap.Int64("total", l.total),
				zap.Error(err))
			return copied, err
		}
		l.progress(t.Name, n)
	}
	return copied, nil
}

func (l *Loader) progress(table string, n int64) {
	l.batches++
	now := time.Now()
	sinceLast := now.Sub(l.lastFlushTS)
	rps := float64(0)
	if sinceLast > 0 {
		rps = float64(l.total-l.lastTotal) / sinceLast.Seconds()
	}
	l.log.Debug("batch copied",
		zap.Int64("batch", l.batches),
		zap.String("table", table),
		zap.Float64("rps", rps),
		zap.Int64("inserted", n),
		zap.Int64("total_inserted", l.total),
		zap.Duration("elapsed", now.Sub(l.start).Truncate(time.Millisecond)),
		zap.Duration("since_last", sinceLast.Truncate(time.Millisecond)))
	l.lastFlushTS = now
	l.lastTotal = l.total
}
