package domain

import (
	"regexp"
	"strings"
	"time"
)

// dateLayouts are tried in order against the full cell value. US slash order
// precedes day-first order, so ambiguous dates like "3/4/2024" resolve as
// March 4. Go's "1"/"2" verbs accept both padded and unpadded digits.
var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"2/1/2006",
	"2006-01-02 15:04:05",
	"1/2/2006 15:04:05",
}

var (
	// isoDateRe extracts a YYYY-MM-DD substring from noisy cells,
	// e.g. "recorded 2024-01-15 by sensor 7".
	isoDateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

	// slashDateRe extracts an M/D/YYYY substring.
	slashDateRe = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}`)
)

// ParseDate parses a CSV date cell. It tries each layout against the trimmed
// value, then falls back to extracting a date-shaped substring. Returns false
// when no method yields a date.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}

	if m := isoDateRe.FindString(value); m != "" {
		if t, err := time.Parse("2006-01-02", m); err == nil {
			return t, true
		}
	}
	if m := slashDateRe.FindString(value); m != "" {
		if t, err := time.Parse("1/2/2006", m); err == nil {
			return t, true
		}
		if t, err := time.Parse("2/1/2006", m); err == nil {
			return t, true
		}
	}

	return time.Time{}, false
}
