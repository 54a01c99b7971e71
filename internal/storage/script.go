package storage

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// SplitStatements splits a SQL script into individual statements. Line
// comments ("-- ...") and block comments ("/* ... */") are dropped, a ';'
// outside single or double quotes ends a statement, and blank statements are
// skipped. Returned statements carry no trailing ';'.
func SplitStatements(script string) []string {
	var (
		out   []string
		cur   strings.Builder
		quote rune
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	rs := []rune(script)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if quote != 0 {
			cur.WriteRune(r)
			if r == quote {
				// Doubled quote is an escaped quote inside the literal.
				if i+1 < len(rs) && rs[i+1] == quote {
					cur.WriteRune(rs[i+1])
					i++
					continue
				}
				quote = 0
			}
			continue
		}
		switch {
		case r == '\'' || r == '"':
			quote = r
			cur.WriteRune(r)
		case r == '-' && i+1 < len(rs) && rs[i+1] == '-':
			for i < len(rs) && rs[i] != '\n' {
				i++
			}
			cur.WriteRune('\n')
		case r == '/' && i+1 < len(rs) && rs[i+1] == '*':
			i += 2
			for i+1 < len(rs) && !(rs[i] == '*' && rs[i+1] == '/') {
				i++
			}
			i++
			cur.WriteRune(' ')
		case r == ';':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

// ReadScript loads a DDL script from path and splits it. A script with no
// statements is an error.
func ReadScript(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sql script: %w", err)
	}
	stmts := SplitStatements(string(b))
	if len(stmts) == 0 {
		return nil, fmt.Errorf("sql script %s: no statements", path)
	}
	return stmts, nil
}

// ApplyScript executes stmts in order and stops at the first failure.
func ApplyScript(ctx context.Context, repo Repository, stmts []string) error {
	for i, s := range stmts {
		if err := repo.Exec(ctx, s); err != nil {
			return fmt.Errorf("sql script statement %d: %w", i+1, err)
		}
	}
	return nil
}
