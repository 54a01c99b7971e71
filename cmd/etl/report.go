package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"diagetl/internal/probe"
	"diagetl/internal/storage"
)

// printReport writes rs as an aligned table, one line per row. NULLs print
// as NULL.
func printReport(w io.Writer, rs storage.ResultSet) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(rs.Columns, "\t"))
	cells := make([]string, len(rs.Columns))
	for _, row := range rs.Rows {
		for i := range cells {
			cells[i] = ""
			if i < len(row) {
				cells[i] = formatCell(row[i])
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	fmt.Fprintf(tw, "(%d rows)\n", len(rs.Rows))
	return tw.Flush()
}

func formatCell(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprint(v)
}

func printProbe(w io.Writer, path string, comma rune, res probe.Result) {
	fmt.Fprintf(w, "input:       %s\n", path)
	fmt.Fprintf(w, "delimiter:   %q (guessed %q)\n", comma, res.GuessedComma)
	fmt.Fprintf(w, "header:      %s\n", strings.Join(res.Header, ","))
	if len(res.Missing) > 0 {
		fmt.Fprintf(w, "missing:     %s\n", strings.Join(res.Missing, ","))
	}
	if len(res.Extra) > 0 {
		fmt.Fprintf(w, "extra:       %s\n", strings.Join(res.Extra, ","))
	}
	fmt.Fprintf(w, "sampled:     %d rows, %d violations\n", res.SampledRows, len(res.Violations))
	for _, v := range res.Violations {
		fmt.Fprintf(w, "  %s\n", v)
	}
}
