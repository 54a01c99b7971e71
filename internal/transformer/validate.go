package transformer

import (
	"diagetl/internal/schema"
	"diagetl/pkg/records"
)

// Validate applies every rule of c to every row of chunk and returns the
// violations ordered by row index, then by declared column order. Validation
// failures are data; Validate never fails.
func Validate(chunk records.Chunk, c schema.Contract) []schema.Violation {
	cols := make([]int, len(c.Rules))
	for i, r := range c.Rules {
		cols[i] = chunk.Column(r.Column)
	}

	var out []schema.Violation
	for _, row := range chunk.Rows {
		for i, rule := range c.Rules {
			var v string
			if j := cols[i]; j >= 0 && j < len(row.Values) {
				v = row.Values[j]
			}
			if reason, ok := checkCell(rule, v); !ok {
				out = append(out, schema.Violation{
					Row:    row.Index,
					Column: rule.Column,
					Value:  v,
					Reason: reason,
				})
			}
		}
	}
	return out
}

// checkCell is the single dispatch point for rule kinds. The empty check runs
// first so an empty required cell yields exactly one violation.
func checkCell(rule schema.Rule, v string) (string, bool) {
	if v == "" {
		if rule.AllowEmpty {
			return "", true
		}
		return schema.EmptyMessage, false
	}

	switch rule.Kind {
	case schema.KindPattern:
		if !rule.Match(v) {
			return schema.PatternReason(rule.Pattern), false
		}
	case schema.KindDate:
		if _, ok := ParseDate(v); !ok {
			return rule.Message, false
		}
	}
	return "", true
}
