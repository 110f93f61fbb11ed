package mapping

import (
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/weather-csv-compare/internal/observability"
)

func newTestMapper(threshold float64) (*Mapper, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	return New(threshold, slog.Default(), metrics), metrics
}

func TestMapColumns_ExactMatches(t *testing.T) {
	m, _ := newTestMapper(0)

	tests := []struct {
		header string
		key    string
	}{
		{"temp", "temperature"},
		{"Temperature", "temperature"},
		{"avg_temp_F", "temperature"},
		{"humidity_percent", "humidity"},
		{"hPa", "pressure"},
		{"wind_mph", "wind_speed"},
		{"precipitation", "rain"},
		{"AQI", "air_quality_index"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			mapping, unmapped := m.MapColumns([]string{tt.header})
			assert.Empty(t, unmapped)
			assert.Equal(t, tt.key, mapping[tt.header])
		})
	}
}

func TestMapColumns_DuplicateAliasesResolveToLastDeclaration(t *testing.T) {
	// "min_temp", "max_temp" and "dew_point" are each spelled under two
	// canonical keys; the later declaration owns them.
	m, _ := newTestMapper(0)

	mapping, unmapped := m.MapColumns([]string{"min_temp", "max_temp", "dew_point"})
	require.Empty(t, unmapped)
	assert.Equal(t, "temp_min", mapping["min_temp"])
	assert.Equal(t, "temp_max", mapping["max_temp"])
	assert.Equal(t, "dew_point", mapping["dew_point"])
}

func TestMapColumns_ExcludesDateAndLocationHeaders(t *testing.T) {
	m, _ := newTestMapper(0)

	mapping, unmapped := m.MapColumns([]string{"date", "City", "lat", "lon", "temp"})

	assert.Equal(t, map[string]string{"temp": "temperature"}, map[string]string(mapping))
	assert.Empty(t, unmapped, "excluded headers must not surface as unmapped")
}

func TestMapColumns_SubstringExclusionQuirk(t *testing.T) {
	// "relative_humidity" contains "lat", so the exclusion pass removes it
	// even though it is a spelled-out humidity alias.
	m, _ := newTestMapper(0)

	mapping, unmapped := m.MapColumns([]string{"relative_humidity", "rh"})

	assert.Empty(t, unmapped)
	assert.NotContains(t, mapping, "relative_humidity")
	assert.Equal(t, "humidity", mapping["rh"])
}

func TestMapColumns_FuzzyMatches(t *testing.T) {
	m, metrics := newTestMapper(0)

	tests := []struct {
		header string
		key    string
	}{
		{"temprature", "temperature"}, // common typo
		{"windgust", "wind_gust"},
		{"cloudcover", "cloud_cover"},
		{"humidty", "humidity"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			mapping, unmapped := m.MapColumns([]string{tt.header})
			assert.Empty(t, unmapped)
			assert.Equal(t, tt.key, mapping[tt.header])
		})
	}

	assert.Equal(t, float64(len(tests)), testutil.ToFloat64(metrics.HeadersMapped.WithLabelValues("fuzzy")))
}

func TestMapColumns_FuzzyTieResolvesToEarliestTablePosition(t *testing.T) {
	// "mh" scores 0.5 against both "rh" (humidity) and "mb" (pressure);
	// "rh" is declared first, so humidity must win every run.
	m, _ := newTestMapper(0.5)

	for i := 0; i < 50; i++ {
		mapping, _ := m.MapColumns([]string{"mh"})
		require.Equal(t, "humidity", mapping["mh"])
	}
}

func TestMapColumns_BelowThresholdIsUnmapped(t *testing.T) {
	m, metrics := newTestMapper(0)

	mapping, unmapped := m.MapColumns([]string{"xyzzy", "q"})

	assert.Empty(t, mapping)
	assert.Equal(t, []string{"xyzzy", "q"}, unmapped)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.HeadersUnmapped))
}

func TestMapColumns_ThresholdIsConfigurable(t *testing.T) {
	// "tempx" vs "temp": similarity 0.8. A strict mapper rejects it.
	lenient, _ := newTestMapper(0.8)
	strict, _ := newTestMapper(0.9)

	mapping, _ := lenient.MapColumns([]string{"tempx"})
	assert.Equal(t, "temperature", mapping["tempx"])

	mapping, unmapped := strict.MapColumns([]string{"tempx"})
	assert.Empty(t, mapping)
	assert.Equal(t, []string{"tempx"}, unmapped)
}

func TestNew_NonPositiveThresholdUsesDefault(t *testing.T) {
	m, _ := newTestMapper(-1)
	assert.Equal(t, DefaultThreshold, m.threshold)
}

func TestBuildAliasIndex(t *testing.T) {
	pairs, exact := buildAliasIndex()

	t.Run("no duplicate scan positions", func(t *testing.T) {
		seen := make(map[string]bool, len(pairs))
		for _, p := range pairs {
			assert.False(t, seen[p.alias], "alias %q appears twice", p.alias)
			seen[p.alias] = true
		}
	})

	t.Run("exact map mirrors pair list", func(t *testing.T) {
		require.Len(t, exact, len(pairs))
		for _, p := range pairs {
			assert.Equal(t, p.key, exact[p.alias])
		}
	})

	t.Run("repeated alias keeps first position with last key", func(t *testing.T) {
		for i, p := range pairs {
			if p.alias == "min_temp" {
				assert.Equal(t, "temp_min", p.key)
				// Declared first under temperature, so it scans early.
				assert.Less(t, i, 13)
				return
			}
		}
		t.Fatal("min_temp not found in alias index")
	})
}
