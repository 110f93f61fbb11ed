// Package normalize turns parsed CSV files into monthly per-city aggregates.
package normalize

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/couchcryptid/weather-csv-compare/internal/domain"
	"github.com/couchcryptid/weather-csv-compare/internal/observability"
)

var (
	// ErrNoDateColumn marks files without any date-like header. The whole
	// file is unusable.
	ErrNoDateColumn = errors.New("no date-like column")

	// ErrNoUsableRows marks files where no row's date could be parsed.
	ErrNoUsableRows = errors.New("no rows with a parseable date")
)

// Normalizer aggregates raw rows by (city, calendar month).
type Normalizer struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates a Normalizer.
func New(logger *slog.Logger, metrics *observability.Metrics) *Normalizer {
	return &Normalizer{logger: logger, metrics: metrics}
}

type groupKey struct {
	city  string
	month domain.MonthKey
}

// groupAcc accumulates per-column sums independently: one column may have 3
// contributing values while another has 7 in the same group.
type groupAcc struct {
	sums   map[string]float64
	counts map[string]int
}

// Normalize aggregates raw into monthly per-city means, keeping the most
// recent monthWindow months per city. Rows with unparseable dates are dropped
// individually; the file fails only when no usable row remains.
func (n *Normalizer) Normalize(raw *domain.RawFile, monthWindow int) (*domain.NormalizedFile, error) {
	if monthWindow <= 0 {
		return nil, fmt.Errorf("month window must be positive, got %d", monthWindow)
	}

	dateCol, ok := domain.FindDateColumn(raw.Headers)
	if !ok {
		n.metrics.NormalizeFailures.Inc()
		return nil, fmt.Errorf("%s: %w", raw.Filename, ErrNoDateColumn)
	}
	cityCol, hasCity := domain.FindCityColumn(raw.Headers)

	groups := make(map[groupKey]*groupAcc)
	dropped := 0

	for _, row := range raw.Rows {
		obsTime, ok := domain.ParseDate(row.Values[dateCol])
		if !ok {
			dropped++
			n.metrics.RowsDroppedNoDate.Inc()
			continue
		}

		city := domain.UnknownCity
		if hasCity {
			if c := strings.TrimSpace(row.Values[cityCol]); c != "" {
				city = c
			}
		}

		key := groupKey{city: city, month: domain.MonthKeyOf(obsTime)}
		acc := groups[key]
		if acc == nil {
			acc = &groupAcc{sums: make(map[string]float64), counts: make(map[string]int)}
			groups[key] = acc
		}

		for _, h := range raw.Headers {
			if h == dateCol || h == cityCol {
				continue
			}
			v := row.Values[h]
			if v == "" {
				continue
			}
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			acc.sums[h] += f
			acc.counts[h]++
		}
	}

	if len(groups) == 0 {
		n.metrics.NormalizeFailures.Inc()
		return nil, fmt.Errorf("%s: %w", raw.Filename, ErrNoUsableRows)
	}

	kept := retainRecentMonths(groups, monthWindow)
	aggregates, columns, cities := buildAggregates(groups, kept)

	n.logger.Debug("normalized file",
		"file", raw.Filename,
		"cities", len(cities),
		"aggregates", len(aggregates),
		"rows_dropped", dropped,
	)

	return &domain.NormalizedFile{
		Filename:    raw.Filename,
		Headers:     raw.Headers,
		Aggregates:  aggregates,
		DateColumn:  dateCol,
		CityColumn:  cityCol,
		Columns:     columns,
		Cities:      cities,
		ProcessedAt: domain.Now(),
	}, nil
}

// retainRecentMonths selects, per city, the monthWindow most recent month
// keys, truncating from the oldest end.
func retainRecentMonths(groups map[groupKey]*groupAcc, monthWindow int) map[groupKey]bool {
	cityMonths := make(map[string][]domain.MonthKey)
	for key := range groups {
		cityMonths[key.city] = append(cityMonths[key.city], key.month)
	}

	kept := make(map[groupKey]bool, len(groups))
	for city, months := range cityMonths {
		sort.Slice(months, func(i, j int) bool { return months[i] < months[j] })
		if len(months) > monthWindow {
			months = months[len(months)-monthWindow:]
		}
		for _, m := range months {
			kept[groupKey{city: city, month: m}] = true
		}
	}
	return kept
}

// buildAggregates materializes the kept groups in deterministic order
// (city, then month) and collects the distinct contributing columns and
// cities, both sorted.
func buildAggregates(groups map[groupKey]*groupAcc, kept map[groupKey]bool) ([]domain.MonthlyAggregate, []string, []string) {
	keys := make([]groupKey, 0, len(kept))
	for key := range groups {
		if kept[key] {
			keys = append(keys, key)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].city != keys[j].city {
			return keys[i].city < keys[j].city
		}
		return keys[i].month < keys[j].month
	})

	columnSet := make(map[string]bool)
	citySet := make(map[string]bool)

	aggregates := make([]domain.MonthlyAggregate, 0, len(keys))
	for _, key := range keys {
		acc := groups[key]
		values := make(map[string]float64, len(acc.sums))
		for col, sum := range acc.sums {
			values[col] = round2(sum / float64(acc.counts[col]))
			columnSet[col] = true
		}
		citySet[key.city] = true
		aggregates = append(aggregates, domain.MonthlyAggregate{
			City:   key.city,
			Month:  key.month,
			Values: values,
		})
	}

	return aggregates, sortedKeys(columnSet), sortedKeys(citySet)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// round2 rounds half away from zero to two decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
