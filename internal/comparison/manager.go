// Package comparison orchestrates the weather history pipeline: it loads
// CSV files, maps their headers onto canonical metrics, normalizes rows
// into monthly aggregates and serves chart-ready series.
package comparison

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/couchcryptid/weather-csv-compare/internal/domain"
	"github.com/couchcryptid/weather-csv-compare/internal/observability"
)

// FileStore lists and parses the CSV files under comparison.
type FileStore interface {
	ListAvailableFiles() []string
	Load(filename string) (*domain.RawFile, error)
	ClearCache()
}

// HeaderMapper resolves raw CSV headers to canonical metric names.
type HeaderMapper interface {
	MapColumns(headers []string) (domain.MetricMapping, []string)
}

// Normalizer aggregates a raw file into monthly per-city means.
type Normalizer interface {
	Normalize(raw *domain.RawFile, monthWindow int) (*domain.NormalizedFile, error)
}

// ColorSource hands out a stable chart color per key.
type ColorSource interface {
	GetColor(key string) string
	ClearCache()
}

// FileRecord is one successfully loaded file with everything derived
// from it. Metrics lists the canonical keys that actually carry data: a
// key appears only when some header mapping to it aggregated at least one
// value.
type FileRecord struct {
	Raw        *domain.RawFile
	Normalized *domain.NormalizedFile
	Mapping    domain.MetricMapping
	Unmapped   []string
	Metrics    []string
	Color      string
}

// LoadResult reports the outcome of a LoadAll pass. Files holds the
// successes sorted by filename and Metrics the union of their available
// metrics; Failed maps each skipped filename to the reason it was
// skipped.
type LoadResult struct {
	Files   []*FileRecord
	Metrics []string
	Failed  map[string]error
}

// Manager owns the loaded comparison state. It is not safe for concurrent
// use; callers serialize access.
type Manager struct {
	store      FileStore
	mapper     HeaderMapper
	normalizer Normalizer
	colors     ColorSource
	logger     *slog.Logger
	metrics    *observability.Metrics

	records     map[string]*FileRecord
	monthWindow int
	loaded      bool
}

// New creates a Manager around the given collaborators.
func New(store FileStore, mapper HeaderMapper, normalizer Normalizer, colors ColorSource, logger *slog.Logger, metrics *observability.Metrics) *Manager {
	return &Manager{
		store:      store,
		mapper:     mapper,
		normalizer: normalizer,
		colors:     colors,
		logger:     logger,
		metrics:    metrics,
	}
}

// LoadAll loads every available file with the given month window. A file
// that fails to parse or normalize is skipped and reported in the result;
// only a non-positive window fails the whole call. The previously loaded
// state is replaced wholesale.
func (m *Manager) LoadAll(monthWindow int) (*LoadResult, error) {
	if monthWindow <= 0 {
		return nil, fmt.Errorf("%w: must be positive, got %d", ErrInvalidMonthWindow, monthWindow)
	}

	start := time.Now()
	defer func() { m.metrics.LoadDuration.Observe(time.Since(start).Seconds()) }()

	names := m.store.ListAvailableFiles()
	fresh := make(map[string]*FileRecord, len(names))
	failed := make(map[string]error)

	for _, name := range names {
		rec, err := m.loadFile(name, monthWindow)
		if err != nil {
			failed[name] = err
			m.logger.Warn("skipping file", "file", name, "error", err)
			continue
		}
		fresh[name] = rec
	}

	m.records = fresh
	m.monthWindow = monthWindow
	m.loaded = true

	files := make([]*FileRecord, 0, len(fresh))
	for _, name := range names {
		if rec, ok := fresh[name]; ok {
			files = append(files, rec)
		}
	}
	available := m.AvailableMetrics()

	m.logger.Info("comparison data loaded",
		"files", len(files),
		"failed", len(failed),
		"metrics", len(available),
		"month_window", monthWindow,
	)
	return &LoadResult{Files: files, Metrics: available, Failed: failed}, nil
}

func (m *Manager) loadFile(name string, monthWindow int) (*FileRecord, error) {
	raw, err := m.store.Load(name)
	if err != nil {
		return nil, err
	}

	normalized, err := m.normalizer.Normalize(raw, monthWindow)
	if err != nil {
		return nil, err
	}
	if normalized.CityColumn == "" {
		m.metrics.FilesMissingCity.Inc()
	}

	mapping, unmapped := m.mapper.MapColumns(raw.Headers)

	metricSet := make(map[string]bool)
	for _, column := range normalized.Columns {
		if metric, ok := mapping[column]; ok {
			metricSet[metric] = true
		}
	}

	return &FileRecord{
		Raw:        raw,
		Normalized: normalized,
		Mapping:    mapping,
		Unmapped:   unmapped,
		Metrics:    sortedKeys(metricSet),
		Color:      m.colors.GetColor(name),
	}, nil
}

// AvailableMetrics returns the sorted union of canonical metrics carrying
// data in any loaded file. Empty until LoadAll has run.
func (m *Manager) AvailableMetrics() []string {
	set := make(map[string]bool)
	for _, rec := range m.records {
		for _, metric := range rec.Metrics {
			set[metric] = true
		}
	}
	return sortedKeys(set)
}

// CityAvailability reports, per loaded filename, whether the file has any
// aggregate for the given city.
func (m *Manager) CityAvailability(city string) map[string]bool {
	out := make(map[string]bool, len(m.records))
	for name, rec := range m.records {
		_, ok := rec.Normalized.CityMonths(city)
		out[name] = ok
	}
	return out
}

// ClearCache drops all loaded state, the store's parse cache and the
// color assignments. The next LoadAll starts from scratch.
func (m *Manager) ClearCache() {
	m.store.ClearCache()
	m.colors.ClearCache()
	m.records = nil
	m.monthWindow = 0
	m.loaded = false
	m.logger.Debug("caches cleared")
}

func (m *Manager) sortedFilenames() []string {
	names := make([]string, 0, len(m.records))
	for name := range m.records {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
