package domain

import (
	"fmt"
	"strings"
	"time"
)

// RawRow is one validated CSV data row with field values keyed by header name.
// Values are whitespace-trimmed; emptiness checks therefore treat "  " as
// empty.
type RawRow struct {
	Line   int // 1-based line number in the source file (header is line 1)
	Values map[string]string
}

// NewRawRow builds a RawRow from parallel header and field slices. The field
// count must match the header count exactly; short or long rows are rejected
// here so consumers never see a partially keyed row.
func NewRawRow(headers, fields []string, line int) (RawRow, error) {
	if len(fields) != len(headers) {
		return RawRow{}, fmt.Errorf("line %d: %d fields for %d headers", line, len(fields), len(headers))
	}

	values := make(map[string]string, len(headers))
	for i, h := range headers {
		values[h] = strings.TrimSpace(fields[i])
	}
	return RawRow{Line: line, Values: values}, nil
}

// HasDateValue reports whether any date-like column holds a non-empty value
// in this row. Rows without one carry no usable observation time.
func (r RawRow) HasDateValue(headers []string) bool {
	for _, h := range headers {
		if IsDateColumn(h) && r.Values[h] != "" {
			return true
		}
	}
	return false
}

// RawFile is the parsed form of one CSV file. It is created on parse,
// replaced wholesale when the file's fingerprint changes, and discarded on
// cache clear.
type RawFile struct {
	Filename string
	Headers  []string
	Rows     []RawRow
	RowCount int
	LoadedAt time.Time
}

// NewRawFile assembles a RawFile and stamps it with the package clock.
func NewRawFile(filename string, headers []string, rows []RawRow) *RawFile {
	return &RawFile{
		Filename: filename,
		Headers:  headers,
		Rows:     rows,
		RowCount: len(rows),
		LoadedAt: clock.Now(),
	}
}
