package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the comparison core.
type Metrics struct {
	// Ingestion metrics.
	FilesParsed   prometheus.Counter
	ParseFailures prometheus.Counter
	RowsRejected  prometheus.Counter
	CacheLookups  *prometheus.CounterVec // labels: result={hit,miss}

	// Header mapping metrics.
	HeadersMapped   *prometheus.CounterVec // labels: match={exact,fuzzy}
	HeadersUnmapped prometheus.Counter

	// Normalization metrics.
	RowsDroppedNoDate prometheus.Counter
	NormalizeFailures prometheus.Counter

	// Color assignment metrics.
	ColorsAssigned *prometheus.CounterVec // labels: source={base,generated,fallback}

	// Query metrics.
	LoadDuration        prometheus.Histogram
	SeriesRequests      prometheus.Counter
	SeriesBuildDuration prometheus.Histogram
	FilesMissingCity    prometheus.Counter
}

// NewMetrics creates and registers all comparison metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		FilesParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "csv_compare",
			Name:      "files_parsed_total",
			Help:      "Total CSV file parse attempts, i.e. cache misses.",
		}),
		ParseFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "csv_compare",
			Name:      "parse_failures_total",
			Help:      "Total files excluded for encoding, header, or row-validation failures.",
		}),
		RowsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "csv_compare",
			Name:      "rows_rejected_total",
			Help:      "Total data rows skipped during parse validation.",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "csv_compare",
			Name:      "cache_lookups_total",
			Help:      "Fingerprint cache lookups by result.",
		}, []string{"result"}),
		HeadersMapped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "csv_compare",
			Name:      "headers_mapped_total",
			Help:      "Headers mapped to a canonical metric key, by match kind.",
		}, []string{"match"}),
		HeadersUnmapped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "csv_compare",
			Name:      "headers_unmapped_total",
			Help:      "Headers that matched no alias above the similarity threshold.",
		}),
		RowsDroppedNoDate: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "csv_compare",
			Name:      "rows_dropped_no_date_total",
			Help:      "Rows dropped because their date cell could not be parsed.",
		}),
		NormalizeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "csv_compare",
			Name:      "normalize_failures_total",
			Help:      "Files rejected during normalization, for a missing date column or zero usable rows.",
		}),
		ColorsAssigned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "csv_compare",
			Name:      "colors_assigned_total",
			Help:      "Series colors assigned, by source.",
		}, []string{"source"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "csv_compare",
			Name:      "load_duration_seconds",
			Help:      "Duration of a full discover-parse-normalize pass.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
		SeriesRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "csv_compare",
			Name:      "series_requests_total",
			Help:      "Total chart series requests.",
		}),
		SeriesBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "csv_compare",
			Name:      "series_build_duration_seconds",
			Help:      "Duration of assembling one aligned chart series.",
			Buckets:   []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1},
		}),
		FilesMissingCity: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "csv_compare",
			Name:      "files_missing_city_total",
			Help:      "Files loaded without a city-like column, aggregated under Unknown.",
		}),
	}

	prometheus.MustRegister(
		m.FilesParsed,
		m.ParseFailures,
		m.RowsRejected,
		m.CacheLookups,
		m.HeadersMapped,
		m.HeadersUnmapped,
		m.RowsDroppedNoDate,
		m.NormalizeFailures,
		m.ColorsAssigned,
		m.LoadDuration,
		m.SeriesRequests,
		m.SeriesBuildDuration,
		m.FilesMissingCity,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		FilesParsed:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "csv_compare", Name: "files_parsed_total"}),
		ParseFailures:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "csv_compare", Name: "parse_failures_total"}),
		RowsRejected:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "csv_compare", Name: "rows_rejected_total"}),
		CacheLookups:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "csv_compare", Name: "cache_lookups_total"}, []string{"result"}),
		HeadersMapped:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "csv_compare", Name: "headers_mapped_total"}, []string{"match"}),
		HeadersUnmapped:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "csv_compare", Name: "headers_unmapped_total"}),
		RowsDroppedNoDate:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "csv_compare", Name: "rows_dropped_no_date_total"}),
		NormalizeFailures:   prometheus.NewCounter(prometheus.CounterOpts{Namespace: "csv_compare", Name: "normalize_failures_total"}),
		ColorsAssigned:      prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "csv_compare", Name: "colors_assigned_total"}, []string{"source"}),
		LoadDuration:        prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "csv_compare", Name: "load_duration_seconds"}),
		SeriesRequests:      prometheus.NewCounter(prometheus.CounterOpts{Namespace: "csv_compare", Name: "series_requests_total"}),
		SeriesBuildDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "csv_compare", Name: "series_build_duration_seconds"}),
		FilesMissingCity:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "csv_compare", Name: "files_missing_city_total"}),
	}
}
