package comparison

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/couchcryptid/weather-csv-compare/internal/domain"
)

var (
	// ErrNotLoaded is returned when a series is requested before any
	// data has been loaded and the request does not carry a window to
	// load with.
	ErrNotLoaded = errors.New("no comparison data loaded")

	// ErrInvalidMetric rejects an empty metric name.
	ErrInvalidMetric = errors.New("metric must not be empty")

	// ErrInvalidCity rejects an empty city name.
	ErrInvalidCity = errors.New("city must not be empty")

	// ErrInvalidMonthWindow rejects unusable month windows.
	ErrInvalidMonthWindow = errors.New("invalid month window")
)

// SeriesRequest selects one metric for one city across the loaded files.
//
// MonthWindow zero keeps the currently loaded window. A positive window
// that differs from the loaded one triggers a reload; a negative one is
// rejected. EnabledFiles nil means every loaded file; otherwise only the
// named files participate.
type SeriesRequest struct {
	Metric       string
	City         string
	EnabledFiles []string
	MonthWindow  int
}

// GetSeries builds the chart series for one metric and city. Files with
// no aggregated data for the metric drop out of the response entirely;
// files that have the metric but no values for the city are listed in
// Missing. The month axis is the sorted union of the months the included
// files carry a value for, with nil marking each file's gaps.
func (m *Manager) GetSeries(req SeriesRequest) (*domain.ChartSeries, error) {
	m.metrics.SeriesRequests.Inc()
	start := time.Now()
	defer func() { m.metrics.SeriesBuildDuration.Observe(time.Since(start).Seconds()) }()

	if req.Metric == "" {
		return nil, ErrInvalidMetric
	}
	if req.City == "" {
		return nil, ErrInvalidCity
	}

	switch {
	case req.MonthWindow < 0:
		return nil, fmt.Errorf("%w: must not be negative, got %d", ErrInvalidMonthWindow, req.MonthWindow)
	case !m.loaded:
		if req.MonthWindow == 0 {
			return nil, ErrNotLoaded
		}
		if _, err := m.LoadAll(req.MonthWindow); err != nil {
			return nil, err
		}
	case req.MonthWindow > 0 && req.MonthWindow != m.monthWindow:
		if _, err := m.LoadAll(req.MonthWindow); err != nil {
			return nil, err
		}
	}

	var enabled map[string]bool
	if req.EnabledFiles != nil {
		enabled = make(map[string]bool, len(req.EnabledFiles))
		for _, name := range req.EnabledFiles {
			enabled[name] = true
		}
	}

	type fileSeries struct {
		name   string
		color  string
		values map[domain.MonthKey]float64
	}

	var (
		included []fileSeries
		missing  []string
		monthSet = make(map[domain.MonthKey]bool)
	)

	for _, name := range m.sortedFilenames() {
		if enabled != nil && !enabled[name] {
			continue
		}
		rec := m.records[name]

		column, ok := metricColumn(rec, req.Metric)
		if !ok {
			continue
		}
		values := rec.Normalized.CityColumnValues(req.City, column)
		if len(values) == 0 {
			missing = append(missing, name)
			continue
		}

		for month := range values {
			monthSet[month] = true
		}
		included = append(included, fileSeries{
			name:   name,
			color:  rec.Color,
			values: values,
		})
	}

	months := make([]domain.MonthKey, 0, len(monthSet))
	for month := range monthSet {
		months = append(months, month)
	}
	sort.Slice(months, func(i, j int) bool { return months[i] < months[j] })

	series := &domain.ChartSeries{
		Months:   months,
		Values:   make([][]*float64, 0, len(included)),
		Colors:   make([]string, 0, len(included)),
		Labels:   make([]string, 0, len(included)),
		Included: make([]string, 0, len(included)),
		Missing:  missing,
	}
	for _, fs := range included {
		points := make([]*float64, len(months))
		for i, month := range months {
			if v, ok := fs.values[month]; ok {
				points[i] = &v
			}
		}
		series.Values = append(series.Values, points)
		series.Colors = append(series.Colors, fs.color)
		series.Labels = append(series.Labels, fs.name)
		series.Included = append(series.Included, fs.name)
	}

	m.logger.Debug("series built",
		"metric", req.Metric,
		"city", req.City,
		"included", len(series.Included),
		"missing", len(series.Missing),
		"months", len(series.Months),
	)
	return series, nil
}

// metricColumn returns the first header, in file order, that maps to the
// requested metric and aggregated at least one value.
func metricColumn(rec *FileRecord, metric string) (string, bool) {
	for _, header := range rec.Normalized.Headers {
		if rec.Mapping[header] == metric && rec.Normalized.HasColumn(header) {
			return header, true
		}
	}
	return "", false
}
