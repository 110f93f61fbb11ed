package domain

import "time"

// MetricMapping maps raw CSV headers to canonical metric keys. It covers
// exactly the headers that are neither date-like nor location-like and that
// matched the alias vocabulary.
type MetricMapping map[string]string

// MonthKey identifies a calendar month as "YYYY-MM". The fixed-width form
// means lexical order is chronological order.
type MonthKey string

// MonthKeyOf renders the calendar month of t.
func MonthKeyOf(t time.Time) MonthKey {
	return MonthKey(t.Format("2006-01"))
}

// MonthlyAggregate holds the per-column means for one (city, month) group.
// A column appears in Values only if at least one numeric, non-empty cell
// contributed to it in that group; absent metrics are never recorded as zero.
type MonthlyAggregate struct {
	City   string
	Month  MonthKey
	Values map[string]float64 // raw column header → mean
}

// NormalizedFile is the monthly per-city aggregation of one RawFile. It is
// invalidated whenever the underlying file is re-parsed.
type NormalizedFile struct {
	Filename   string
	Headers    []string
	Aggregates []MonthlyAggregate
	DateColumn string
	CityColumn string   // empty when the file has no city-like header
	Columns    []string // raw columns that aggregated at least one value, sorted
	Cities     []string // distinct cities seen, sorted

	ProcessedAt time.Time
}

// CityMonths returns city's aggregates keyed by month. The second return is
// false when the city does not appear in this file.
func (n *NormalizedFile) CityMonths(city string) (map[MonthKey]MonthlyAggregate, bool) {
	var months map[MonthKey]MonthlyAggregate
	for _, agg := range n.Aggregates {
		if agg.City != city {
			continue
		}
		if months == nil {
			months = make(map[MonthKey]MonthlyAggregate)
		}
		months[agg.Month] = agg
	}
	return months, months != nil
}

// HasColumn reports whether column aggregated at least one value in this
// file.
func (n *NormalizedFile) HasColumn(column string) bool {
	for _, c := range n.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// CityColumnValues returns city's monthly means for one raw column. Months
// whose aggregate omits the column are absent, so an empty result means the
// file holds no data for that (city, column) pair.
func (n *NormalizedFile) CityColumnValues(city, column string) map[MonthKey]float64 {
	var values map[MonthKey]float64
	for _, agg := range n.Aggregates {
		if agg.City != city {
			continue
		}
		v, ok := agg.Values[column]
		if !ok {
			continue
		}
		if values == nil {
			values = make(map[MonthKey]float64)
		}
		values[agg.Month] = v
	}
	return values
}

// ChartSeries is the chart-ready answer to a metric/city query: a shared
// month axis plus one aligned value array, color, and label per included
// file. Gaps are nil, never zero.
type ChartSeries struct {
	Months   []MonthKey
	Values   [][]*float64
	Colors   []string
	Labels   []string
	Included []string
	Missing  []string // enabled files exposing the metric but lacking the city
}
