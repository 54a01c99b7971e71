package csv

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

const utf8BOM = "\uFEFF"

// normalizeHeader trims each label, drops a stray BOM from the first one and
// applies Unicode NFC so visually identical names compare equal.
func normalizeHeader(h []string) []string {
	out := make([]string, len(h))
	for i, col := range h {
		c := strings.TrimSpace(col)
		if i == 0 {
			c = strings.TrimPrefix(c, utf8BOM)
		}
		out[i] = norm.NFC.String(c)
	}
	return out
}
