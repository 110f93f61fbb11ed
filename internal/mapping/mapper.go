// Package mapping translates free-form CSV column headers into the canonical
// metric vocabulary via exact alias lookup and fuzzy fallback.
package mapping

import (
	"log/slog"
	"strings"

	"github.com/adrg/strutil"
	levmetrics "github.com/adrg/strutil/metrics"

	"github.com/couchcryptid/weather-csv-compare/internal/domain"
	"github.com/couchcryptid/weather-csv-compare/internal/observability"
)

// DefaultThreshold is the minimum normalized similarity for a fuzzy match.
const DefaultThreshold = 0.6

// Mapper maps headers to canonical metric keys.
type Mapper struct {
	threshold float64
	pairs     []aliasPair
	exact     map[string]string
	lev       *levmetrics.Levenshtein
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Mapper. A non-positive threshold selects DefaultThreshold.
func New(threshold float64, logger *slog.Logger, metrics *observability.Metrics) *Mapper {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	pairs, exact := buildAliasIndex()
	return &Mapper{
		threshold: threshold,
		pairs:     pairs,
		exact:     exact,
		lev:       levmetrics.NewLevenshtein(),
		logger:    logger,
		metrics:   metrics,
	}
}

// MapColumns translates headers into canonical metric keys. Date-like and
// location-like headers are dropped from consideration entirely: they appear
// neither in the mapping nor in the unmapped list. Unmapped headers are not
// an error; they are returned for diagnostics.
func (m *Mapper) MapColumns(headers []string) (domain.MetricMapping, []string) {
	mapping := make(domain.MetricMapping)
	var unmapped []string

	for _, header := range headers {
		if domain.IsDateColumn(header) || domain.IsLocationColumn(header) {
			continue
		}

		lower := strings.ToLower(strings.TrimSpace(header))

		if key, ok := m.exact[lower]; ok {
			mapping[header] = key
			m.metrics.HeadersMapped.WithLabelValues("exact").Inc()
			continue
		}

		if key, score, ok := m.fuzzyMatch(lower); ok {
			mapping[header] = key
			m.metrics.HeadersMapped.WithLabelValues("fuzzy").Inc()
			m.logger.Debug("fuzzy-mapped header", "header", header, "key", key, "score", score)
			continue
		}

		unmapped = append(unmapped, header)
		m.metrics.HeadersUnmapped.Inc()
		m.logger.Debug("unmapped header", "header", header)
	}

	return mapping, unmapped
}

// fuzzyMatch scans the alias index in declaration order and keeps the first
// strictly best score, so ties resolve to the earliest table position rather
// than to map iteration order.
func (m *Mapper) fuzzyMatch(header string) (string, float64, bool) {
	var bestKey string
	var bestScore float64

	for _, p := range m.pairs {
		score := strutil.Similarity(header, p.alias, m.lev)
		if score > bestScore {
			bestScore = score
			bestKey = p.key
		}
	}

	if bestScore < m.threshold {
		return "", 0, false
	}
	return bestKey, bestScore, true
}
