package transformer

import (
	"regexp"
	"strings"
	"time"
)

// dateLayouts are tried in order by ParseDate. Month names match
// case-insensitively, so "23 MAR 20" parses with "2 Jan 06".
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006/01/02",
	"2006/1/2",
	"2006-1-2",
	"01/02/2006",
	"1/2/2006",
	"02/01/2006", // day-first once month-first fails
	"2/1/2006",
	"01/02/2006 15:04:05",
	"1/2/2006 15:04",
	"01-02-2006",
	"02-01-2006",
	"1/2/06",
	"01/02/06",
	"02.01.2006",
	"2.1.2006",
	"2006.01.02",
	"20060102",
	"2 Jan 2006",
	"2 Jan 06",
	"2 January 2006",
	"2 January 06",
	"2 Jan, 2006",
	"2 January, 2006",
	"2-Jan-2006",
	"2-Jan-06",
	"Jan-02-2006",
	"Jan-2-2006",
	"Jan 2 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"January 2, 2006",
	"Mon Jan 2 2006",
	"Mon, 2 Jan 2006",
	"Monday, January 2, 2006",
	time.RFC1123,
	time.RFC1123Z,
	time.RFC822,
	time.ANSIC,
}

// ordinal matches a day number's suffix, as in "1st" or "23rd".
var ordinal = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)

// ParseDate is a best-effort calendar date parser. It never panics; ok is
// false when no known layout accepts s.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	s = ordinal.ReplaceAllString(s, "$1")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DateKey encodes t's calendar date as a YYYYMMDD integer, e.g. 20210301.
func DateKey(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}
