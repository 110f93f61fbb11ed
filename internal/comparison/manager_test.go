package comparison

import (
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-csv-compare/internal/adapter/csvfs"
	"github.com/couchcryptid/weather-csv-compare/internal/domain"
	"github.com/couchcryptid/weather-csv-compare/internal/mapping"
	"github.com/couchcryptid/weather-csv-compare/internal/normalize"
	"github.com/couchcryptid/weather-csv-compare/internal/observability"
	"github.com/couchcryptid/weather-csv-compare/internal/palette"
)

func newTestManager(t *testing.T, dir string) (*Manager, *observability.Metrics) {
	t.Helper()
	metrics := observability.NewMetricsForTesting()
	logger := slog.Default()
	return New(
		csvfs.New(dir, logger, metrics),
		mapping.New(mapping.DefaultThreshold, logger, metrics),
		normalize.New(logger, metrics),
		palette.New(rand.New(rand.NewSource(1)), logger, metrics),
		logger,
		metrics,
	), metrics
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

// usEuDir holds two files with disjoint cities and partly disjoint
// metrics: us.csv has temperature and humidity for NYC and Boston, eu.csv
// has temperature and pressure for Paris.
func usEuDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "us.csv",
		"date,city,avg_temp_f,humidity\n"+
			"2024-01-05,NYC,30,40\n"+
			"2024-02-07,NYC,35,45\n"+
			"2024-01-09,Boston,25,50\n")
	writeFile(t, dir, "eu.csv",
		"datetime,location,temperature,pressure\n"+
			"2024-01-03 00:00:00,Paris,5,1012\n"+
			"2024-02-11 00:00:00,Paris,7,1013\n")
	return dir
}

// berlinDir holds two files that overlap on one city so their series
// merge onto a shared month axis. a.csv also carries a humidity column
// with a gap in February.
func berlinDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "a.csv",
		"date,city,temp,hum\n"+
			"2024-01-05,Berlin,10,50\n"+
			"2024-02-05,Berlin,20,\n")
	writeFile(t, dir, "b.csv",
		"datetime,location,temperature\n"+
			"2024-02-01 00:00:00,Berlin,30\n"+
			"2024-03-01 00:00:00,Berlin,40\n")
	return dir
}

func fptr(v float64) *float64 { return &v }

func TestLoadAll_LoadsAndMapsFiles(t *testing.T) {
	m, _ := newTestManager(t, usEuDir(t))

	result, err := m.LoadAll(12)
	require.NoError(t, err)
	require.Len(t, result.Files, 2)
	assert.Empty(t, result.Failed)

	eu, us := result.Files[0], result.Files[1]
	assert.Equal(t, "eu.csv", eu.Raw.Filename)
	assert.Equal(t, "us.csv", us.Raw.Filename)

	assert.Equal(t, "temperature", us.Mapping["avg_temp_f"])
	assert.Equal(t, "humidity", us.Mapping["humidity"])
	assert.NotContains(t, us.Mapping, "date")
	assert.NotContains(t, us.Mapping, "city")
	assert.Empty(t, us.Unmapped)

	assert.Equal(t, "pressure", eu.Mapping["pressure"])
	assert.Equal(t, []string{"Paris"}, eu.Normalized.Cities)
	assert.Equal(t, []string{"Boston", "NYC"}, us.Normalized.Cities)

	assert.Equal(t, []string{"pressure", "temperature"}, eu.Metrics)
	assert.Equal(t, []string{"humidity", "temperature"}, us.Metrics)
	assert.Equal(t, []string{"humidity", "pressure", "temperature"}, result.Metrics)

	assert.Equal(t, "#1f77b4", eu.Color)
	assert.Equal(t, "#ff7f0e", us.Color)
}

func TestLoadAll_SkipsBadFilesAndKeepsGood(t *testing.T) {
	dir := usEuDir(t)
	writeFile(t, dir, "bad.csv", "a,b\n1,2\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "binary.csv"), []byte{0xff, 0xfe, 0x41}, 0o644))

	m, _ := newTestManager(t, dir)

	result, err := m.LoadAll(12)
	require.NoError(t, err)

	assert.Len(t, result.Files, 2)
	require.Len(t, result.Failed, 2)
	assert.ErrorIs(t, result.Failed["bad.csv"], csvfs.ErrNoValidRows)
	assert.ErrorIs(t, result.Failed["binary.csv"], csvfs.ErrInvalidEncoding)
}

func TestLoadAll_RejectsNonPositiveWindow(t *testing.T) {
	m, _ := newTestManager(t, t.TempDir())

	_, err := m.LoadAll(0)
	assert.ErrorIs(t, err, ErrInvalidMonthWindow)
}

func TestLoadAll_SecondCallServesFromCache(t *testing.T) {
	m, metrics := newTestManager(t, usEuDir(t))

	_, err := m.LoadAll(12)
	require.NoError(t, err)
	_, err = m.LoadAll(12)
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.FilesParsed))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("hit")))
}

func TestGetSeries_MergesFilesOntoSharedAxis(t *testing.T) {
	m, _ := newTestManager(t, berlinDir(t))
	_, err := m.LoadAll(12)
	require.NoError(t, err)

	got, err := m.GetSeries(SeriesRequest{Metric: "temperature", City: "Berlin"})
	require.NoError(t, err)

	assert.Equal(t, []domain.MonthKey{"2024-01", "2024-02", "2024-03"}, got.Months)
	assert.Equal(t, []string{"a.csv", "b.csv"}, got.Included)
	assert.Equal(t, []string{"a.csv", "b.csv"}, got.Labels)
	assert.Equal(t, []string{"#1f77b4", "#ff7f0e"}, got.Colors)
	assert.Empty(t, got.Missing)

	want := [][]*float64{
		{fptr(10), fptr(20), nil},
		{nil, fptr(30), fptr(40)},
	}
	if diff := cmp.Diff(want, got.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestGetSeries_AxisSkipsMonthsWithoutTheMetric(t *testing.T) {
	m, _ := newTestManager(t, berlinDir(t))
	_, err := m.LoadAll(12)
	require.NoError(t, err)

	got, err := m.GetSeries(SeriesRequest{Metric: "humidity", City: "Berlin"})
	require.NoError(t, err)

	// Only a.csv maps humidity, and its February aggregate carries no
	// humidity value, so February never reaches the axis. b.csv has no
	// humidity column at all and drops out without being reported missing.
	assert.Equal(t, []string{"a.csv"}, got.Included)
	assert.Empty(t, got.Missing)
	assert.Equal(t, []domain.MonthKey{"2024-01"}, got.Months)

	want := [][]*float64{{fptr(50)}}
	if diff := cmp.Diff(want, got.Values); diff != "" {
		t.Errorf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestGetSeries_MissingListsOnlyCityGaps(t *testing.T) {
	m, _ := newTestManager(t, usEuDir(t))
	_, err := m.LoadAll(12)
	require.NoError(t, err)

	// eu.csv has no humidity column, so it is left out of the response
	// entirely rather than reported missing.
	got, err := m.GetSeries(SeriesRequest{Metric: "humidity", City: "NYC"})
	require.NoError(t, err)
	assert.Equal(t, []string{"us.csv"}, got.Included)
	assert.Empty(t, got.Missing)

	// us.csv has temperature but no Paris rows, so it is missing.
	got, err = m.GetSeries(SeriesRequest{Metric: "temperature", City: "Paris"})
	require.NoError(t, err)
	assert.Equal(t, []string{"eu.csv"}, got.Included)
	assert.Equal(t, []string{"us.csv"}, got.Missing)
}

func TestGetSeries_CityWithoutMetricValuesIsMissing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "d.csv",
		"date,city,temp,hum\n"+
			"2024-01-05,NYC,10,40\n"+
			"2024-01-09,Boston,,55\n")
	m, _ := newTestManager(t, dir)
	_, err := m.LoadAll(12)
	require.NoError(t, err)

	// Boston has aggregates, but none with a temperature value.
	got, err := m.GetSeries(SeriesRequest{Metric: "temperature", City: "Boston"})
	require.NoError(t, err)
	assert.Empty(t, got.Included)
	assert.Equal(t, []string{"d.csv"}, got.Missing)
	assert.Empty(t, got.Months)
}

func TestGetSeries_UnknownCityEverywhere(t *testing.T) {
	m, _ := newTestManager(t, usEuDir(t))
	_, err := m.LoadAll(12)
	require.NoError(t, err)

	got, err := m.GetSeries(SeriesRequest{Metric: "temperature", City: "Atlantis"})
	require.NoError(t, err)

	assert.Empty(t, got.Months)
	assert.Empty(t, got.Values)
	assert.Empty(t, got.Included)
	assert.Equal(t, []string{"eu.csv", "us.csv"}, got.Missing)
}

func TestGetSeries_FileWithoutCityColumnGroupsUnderUnknown(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "us.csv",
		"date,city,temp\n"+
			"2024-01-05,NYC,30\n"+
			"2024-01-09,LA,60\n")
	writeFile(t, dir, "eu.csv",
		"datetime,temperature\n"+
			"2024-01-03 00:00:00,5\n")
	m, metrics := newTestManager(t, dir)
	_, err := m.LoadAll(12)
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FilesMissingCity))

	got, err := m.GetSeries(SeriesRequest{Metric: "temperature", City: "NYC"})
	require.NoError(t, err)
	assert.Equal(t, []string{"us.csv"}, got.Included)
	assert.Equal(t, []string{"eu.csv"}, got.Missing)

	// The city-less file is queryable under the sentinel.
	got, err = m.GetSeries(SeriesRequest{Metric: "temperature", City: domain.UnknownCity})
	require.NoError(t, err)
	assert.Equal(t, []string{"eu.csv"}, got.Included)
	assert.Equal(t, []string{"us.csv"}, got.Missing)
}

func TestGetSeries_Validation(t *testing.T) {
	m, _ := newTestManager(t, usEuDir(t))
	_, err := m.LoadAll(12)
	require.NoError(t, err)

	tests := []struct {
		name    string
		req     SeriesRequest
		wantErr error
	}{
		{"empty metric", SeriesRequest{City: "NYC"}, ErrInvalidMetric},
		{"empty city", SeriesRequest{Metric: "temperature"}, ErrInvalidCity},
		{"negative window", SeriesRequest{Metric: "temperature", City: "NYC", MonthWindow: -1}, ErrInvalidMonthWindow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.GetSeries(tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestGetSeries_NotLoadedWithoutWindow(t *testing.T) {
	m, _ := newTestManager(t, usEuDir(t))

	_, err := m.GetSeries(SeriesRequest{Metric: "temperature", City: "NYC"})
	assert.ErrorIs(t, err, ErrNotLoaded)
}

func TestGetSeries_LoadsOnFirstUseWithWindow(t *testing.T) {
	m, metrics := newTestManager(t, usEuDir(t))

	got, err := m.GetSeries(SeriesRequest{Metric: "temperature", City: "NYC", MonthWindow: 12})
	require.NoError(t, err)

	assert.Equal(t, []string{"us.csv"}, got.Included)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.FilesParsed))
}

func TestGetSeries_WindowChangeReloadsWithoutReparsing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "c.csv",
		"date,city,temp\n"+
			"2024-01-01,Berlin,1\n"+
			"2024-02-01,Berlin,2\n"+
			"2024-03-01,Berlin,3\n")
	m, metrics := newTestManager(t, dir)

	_, err := m.LoadAll(12)
	require.NoError(t, err)

	got, err := m.GetSeries(SeriesRequest{Metric: "temperature", City: "Berlin", MonthWindow: 2})
	require.NoError(t, err)
	assert.Equal(t, []domain.MonthKey{"2024-02", "2024-03"}, got.Months)

	// Window zero keeps whatever is loaded.
	got, err = m.GetSeries(SeriesRequest{Metric: "temperature", City: "Berlin"})
	require.NoError(t, err)
	assert.Equal(t, []domain.MonthKey{"2024-02", "2024-03"}, got.Months)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.FilesParsed))
}

func TestGetSeries_EnabledFilesFilter(t *testing.T) {
	m, _ := newTestManager(t, berlinDir(t))
	_, err := m.LoadAll(12)
	require.NoError(t, err)

	got, err := m.GetSeries(SeriesRequest{
		Metric:       "temperature",
		City:         "Berlin",
		EnabledFiles: []string{"a.csv"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.csv"}, got.Included)
	assert.Empty(t, got.Missing)
	assert.Equal(t, []domain.MonthKey{"2024-01", "2024-02"}, got.Months)

	got, err = m.GetSeries(SeriesRequest{
		Metric:       "temperature",
		City:         "Berlin",
		EnabledFiles: []string{},
	})
	require.NoError(t, err)
	assert.Empty(t, got.Included)
	assert.Empty(t, got.Months)
	assert.Empty(t, got.Missing)
}

func TestAvailableMetrics(t *testing.T) {
	m, _ := newTestManager(t, usEuDir(t))

	assert.Empty(t, m.AvailableMetrics())

	_, err := m.LoadAll(12)
	require.NoError(t, err)
	assert.Equal(t, []string{"humidity", "pressure", "temperature"}, m.AvailableMetrics())
}

func TestAvailableMetrics_OnlyDataBackedKeys(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "e.csv",
		"date,city,temp,wind\n"+
			"2024-01-05,NYC,10,NNE\n"+
			"2024-02-05,NYC,12,SW\n")
	m, _ := newTestManager(t, dir)
	_, err := m.LoadAll(12)
	require.NoError(t, err)

	// The wind column maps to wind_speed but holds compass directions, so
	// it never aggregates and the key is not offered.
	assert.Equal(t, []string{"temperature"}, m.AvailableMetrics())
}

func TestCityAvailability(t *testing.T) {
	m, _ := newTestManager(t, usEuDir(t))
	_, err := m.LoadAll(12)
	require.NoError(t, err)

	want := map[string]bool{"us.csv": true, "eu.csv": false}
	assert.Equal(t, want, m.CityAvailability("NYC"))
}

func TestClearCache_ResetsStateStoreAndColors(t *testing.T) {
	m, metrics := newTestManager(t, usEuDir(t))

	first, err := m.LoadAll(12)
	require.NoError(t, err)
	assert.Equal(t, "#1f77b4", first.Files[0].Color)

	m.ClearCache()

	_, err = m.GetSeries(SeriesRequest{Metric: "temperature", City: "NYC"})
	assert.ErrorIs(t, err, ErrNotLoaded)

	again, err := m.LoadAll(12)
	require.NoError(t, err)
	assert.Equal(t, "#1f77b4", again.Files[0].Color)
	assert.Equal(t, 4.0, testutil.ToFloat64(metrics.FilesParsed))
}
