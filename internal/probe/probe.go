// Package probe previews an input file before a run: it reads the first rows
// with the chunk reader, compares the header with the contract, guesses the
// delimiter and validates the sample.
package probe

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	csvparser "diagetl/internal/parser/csv"
	"diagetl/internal/schema"
	"diagetl/internal/transformer"
)

// candidates are the delimiters GuessDelimiter considers, in tie-break order.
var candidates = []rune{',', ';', '|', '\t'}

// Options configures Inspect.
type Options struct {
	// Comma is the configured delimiter; zero means ','.
	Comma rune
	// SampleRows caps the rows validated; <= 0 means 100.
	SampleRows int
}

// Result is what Inspect found.
type Result struct {
	Header  []string
	Missing []string // contract columns absent from the header
	Extra   []string // header columns the contract does not know

	// GuessedComma is the most frequent candidate delimiter on the first line.
	GuessedComma rune

	SampledRows int
	Violations  []schema.Violation
}

// HeaderOK reports whether every contract column is present.
func (r Result) HeaderOK() bool { return len(r.Missing) == 0 }

// Inspect reads up to opt.SampleRows rows from src and checks them against c.
func Inspect(ctx context.Context, src csvparser.Opener, c schema.Contract, opt Options) (Result, error) {
	if opt.SampleRows <= 0 {
		opt.SampleRows = 100
	}
	var res Result

	first, err := firstLine(ctx, src)
	if err != nil {
		return res, err
	}
	res.GuessedComma = GuessDelimiter(first)

	rd := csvparser.NewReader(src, csvparser.Options{Comma: opt.Comma, LazyQuotes: true})
	defer rd.Close()
	chunk, err := rd.ReadChunk(ctx, opt.SampleRows, 0)
	if err != nil {
		return res, fmt.Errorf("probe: %w", err)
	}

	res.Header = chunk.Header
	res.SampledRows = chunk.Len()
	res.Missing, res.Extra = diff(c.Columns(), chunk.Header)
	res.Violations = transformer.Validate(chunk, c)
	return res, nil
}

// GuessDelimiter returns the candidate occurring most often in line, or ','
// when none occurs.
func GuessDelimiter(line string) rune {
	best, bestN := ',', 0
	for _, d := range candidates {
		if n := strings.Count(line, string(d)); n > bestN {
			best, bestN = d, n
		}
	}
	return best
}

func firstLine(ctx context.Context, src csvparser.Opener) (string, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return "", fmt.Errorf("probe: %w", err)
	}
	defer rc.Close()
	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	if sc.Scan() {
		return sc.Text(), nil
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("probe: read first line: %w", err)
	}
	return "", nil
}

// diff returns want columns missing from have, and have columns not in want,
// each in input order.
func diff(want, have []string) (missing, extra []string) {
	in := func(s string, set []string) bool {
		for _, x := range set {
			if x == s {
				return true
			}
		}
		return false
	}
	for _, w := range want {
		if !in(w, have) {
			missing = append(missing, w)
		}
	}
	for _, h := range have {
		if !in(h, want) {
			extra = append(extra, h)
		}
	}
	return missing, extra
}
