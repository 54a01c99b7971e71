// Package transformer validates chunks against a schema.Contract and turns
// the surviving rows into cleaned records ready for loading.
package transformer

import (
	"diagetl/internal/bitmap"
	"diagetl/internal/schema"
	"diagetl/pkg/records"
)

// RejectedRows returns the set of row indices referenced by violations in a
// chunk of n rows.
func RejectedRows(violations []schema.Violation, n int) *bitmap.Bitmap {
	out := bitmap.New(n)
	for _, v := range violations {
		out.Add(v.Row)
	}
	return out
}

// Clean drops every row referenced by a violation and converts the rest into
// records carrying the derived date_formatted field (YYYYMMDD integer).
//
// Surviving rows already passed the service_date rule, so the date is not
// re-validated here; a row whose date still fails to parse keeps a zero key.
func Clean(chunk records.Chunk, violations []schema.Violation) []records.Record {
	drop := RejectedRows(violations, chunk.Len())

	out := make([]records.Record, 0, len(chunk.Rows))
	for _, row := range chunk.Rows {
		if drop.Has(row.Index) {
			continue
		}
		rec := chunk.Record(row)
		raw, _ := chunk.Value(row, schema.ServiceDate)
		key := 0
		if t, ok := ParseDate(raw); ok {
			key = DateKey(t)
		}
		rec[schema.DateFormatted] = key
		out = append(out, rec)
	}
	return out
}
