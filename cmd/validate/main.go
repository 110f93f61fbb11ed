// Command validate runs end-to-end integrity checks over a directory of
// weather history CSVs: every discovered file either loads or is accounted
// for as a failure, header mapping partitions each file's headers cleanly,
// normalized aggregates respect ordering, rounding and the month window,
// and every chart series stays aligned with its month axis.
//
// Usage:
//
//	go run ./cmd/validate -dir data/comparison -months 12
package main

import (
	"flag"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/couchcryptid/weather-csv-compare/internal/adapter/csvfs"
	"github.com/couchcryptid/weather-csv-compare/internal/comparison"
	"github.com/couchcryptid/weather-csv-compare/internal/domain"
	"github.com/couchcryptid/weather-csv-compare/internal/mapping"
	"github.com/couchcryptid/weather-csv-compare/internal/normalize"
	"github.com/couchcryptid/weather-csv-compare/internal/observability"
	"github.com/couchcryptid/weather-csv-compare/internal/palette"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dir := flag.String("dir", "data/comparison", "directory containing comparison CSV files")
	months := flag.Int("months", 12, "month window to validate with")
	flag.Parse()

	if code := run(*dir, *months); code != 0 {
		os.Exit(code)
	}
}

func run(dir string, months int) int {
	logger := observability.NewLogger("warn", "text")
	metrics := observability.NewMetrics()

	store := csvfs.New(dir, logger, metrics)
	manager := comparison.New(
		store,
		mapping.New(mapping.DefaultThreshold, logger, metrics),
		normalize.New(logger, metrics),
		palette.New(nil, logger, metrics),
		logger,
		metrics,
	)

	fmt.Println("=== Weather CSV Integrity Validation ===")
	fmt.Println()

	listed := store.ListAvailableFiles()
	if len(listed) == 0 {
		fmt.Fprintf(os.Stderr, "FATAL: no CSV files found in %s\n", dir)
		return 1
	}

	result, err := manager.LoadAll(months)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load comparison data: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateDiscovery(listed, result),
		validateMapping(result),
		validateNormalization(result, months),
		validateSeries(manager, result),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Files: %d discovered, %d loaded, %d failed\n",
		len(listed), len(result.Files), len(result.Failed))
	if len(result.Failed) > 0 {
		names := make([]string, 0, len(result.Failed))
		for name := range result.Failed {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			fmt.Printf("  skipped %s: %v\n", name, result.Failed[name])
		}
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Discovery & Parsing ──
// Every discovered file must either load or appear as a failure, never
// both, and loaded files must carry usable structure.

func validateDiscovery(listed []string, result *comparison.LoadResult) *phase {
	p := &phase{name: "Phase 1: Discovery & Parsing"}

	loaded := make(map[string]*comparison.FileRecord, len(result.Files))
	for _, rec := range result.Files {
		loaded[rec.Raw.Filename] = rec
	}

	for _, name := range listed {
		_, ok := loaded[name]
		_, failed := result.Failed[name]
		switch {
		case ok && failed:
			p.errorf("%s: both loaded and failed", name)
		case !ok && !failed:
			p.errorf("%s: discovered but not accounted for", name)
		}
	}

	for name, rec := range loaded {
		if rec.Raw.RowCount < 1 {
			p.errorf("%s: loaded with zero rows", name)
		}
		if rec.Normalized.DateColumn == "" {
			p.errorf("%s: loaded without an elected date column", name)
		}
		if len(rec.Color) != 7 || !strings.HasPrefix(rec.Color, "#") {
			p.errorf("%s: malformed color %q", name, rec.Color)
		}
	}
	return p
}

// ── Phase 2: Header Mapping ──
// Mapped, unmapped and excluded headers must partition each file's header
// set, no excluded header may carry a mapping, and every advertised metric
// must trace back to a mapped column with aggregated data.

func validateMapping(result *comparison.LoadResult) *phase {
	p := &phase{name: "Phase 2: Header Mapping"}

	for _, rec := range result.Files {
		name := rec.Raw.Filename
		seen := make(map[string]bool)

		for header, metric := range rec.Mapping {
			if metric == "" {
				p.errorf("%s: header %q mapped to empty metric", name, header)
			}
			if domain.IsDateColumn(header) || domain.IsLocationColumn(header) {
				p.errorf("%s: excluded header %q carries mapping %q", name, header, metric)
			}
			seen[header] = true
		}

		for _, header := range rec.Unmapped {
			if seen[header] {
				p.errorf("%s: header %q both mapped and unmapped", name, header)
			}
			seen[header] = true
		}

		for _, header := range rec.Raw.Headers {
			if domain.IsDateColumn(header) || domain.IsLocationColumn(header) {
				continue
			}
			if !seen[header] {
				p.errorf("%s: header %q neither mapped, unmapped nor excluded", name, header)
			}
		}

		for _, metric := range rec.Metrics {
			backed := false
			for _, column := range rec.Normalized.Columns {
				if rec.Mapping[column] == metric {
					backed = true
					break
				}
			}
			if !backed {
				p.errorf("%s: metric %q has no aggregated mapped column", name, metric)
			}
		}
	}
	return p
}

// ── Phase 3: Normalization ──
// Aggregates must be ordered by (city, month), stay within the month
// window per city, and carry finite two-decimal means.

func validateNormalization(result *comparison.LoadResult, window int) *phase {
	p := &phase{name: "Phase 3: Normalization"}

	for _, rec := range result.Files {
		name := rec.Raw.Filename
		n := rec.Normalized

		cityMonths := make(map[string]int)
		colSet := make(map[string]bool)
		citySet := make(map[string]bool)

		for i, agg := range n.Aggregates {
			if i > 0 {
				prev := n.Aggregates[i-1]
				if prev.City > agg.City || (prev.City == agg.City && prev.Month >= agg.Month) {
					p.errorf("%s: aggregates out of order at %d: (%s, %s) then (%s, %s)",
						name, i, prev.City, prev.Month, agg.City, agg.Month)
				}
			}
			cityMonths[agg.City]++
			citySet[agg.City] = true

			for col, v := range agg.Values {
				colSet[col] = true
				if math.IsNaN(v) || math.IsInf(v, 0) {
					p.errorf("%s: %s/%s %s is not finite", name, agg.City, agg.Month, col)
				} else if v != math.Round(v*100)/100 {
					p.errorf("%s: %s/%s %s=%v is not rounded to two decimals", name, agg.City, agg.Month, col, v)
				}
			}
		}

		for city, count := range cityMonths {
			if count > window {
				p.errorf("%s: city %s has %d months, window is %d", name, city, count, window)
			}
		}

		if !slices.Equal(n.Columns, sortedKeys(colSet)) {
			p.errorf("%s: Columns %v does not match aggregated columns %v", name, n.Columns, sortedKeys(colSet))
		}
		if !slices.Equal(n.Cities, sortedKeys(citySet)) {
			p.errorf("%s: Cities %v does not match aggregated cities %v", name, n.Cities, sortedKeys(citySet))
		}
	}
	return p
}

// ── Phase 4: Series Alignment ──
// Every (metric, city) combination must produce a series whose per-file
// point slices align with the month axis, where every included file
// carries data, every axis month is carried by some file, and the file
// lists stay consistent with what was loaded.

func validateSeries(manager *comparison.Manager, result *comparison.LoadResult) *phase {
	p := &phase{name: "Phase 4: Series Alignment"}

	records := make(map[string]*comparison.FileRecord, len(result.Files))
	citySet := make(map[string]bool)
	for _, rec := range result.Files {
		records[rec.Raw.Filename] = rec
		for _, city := range rec.Normalized.Cities {
			citySet[city] = true
		}
	}

	for _, metric := range result.Metrics {
		for _, city := range sortedKeys(citySet) {
			s, err := manager.GetSeries(comparison.SeriesRequest{Metric: metric, City: city})
			if err != nil {
				p.errorf("%s/%s: %v", metric, city, err)
				continue
			}

			if len(s.Values) != len(s.Included) || len(s.Colors) != len(s.Included) || len(s.Labels) != len(s.Included) {
				p.errorf("%s/%s: values/colors/labels out of step with included files", metric, city)
			}
			covered := make([]bool, len(s.Months))
			for i, points := range s.Values {
				if len(points) != len(s.Months) {
					p.errorf("%s/%s: file %s has %d points for %d months", metric, city, s.Included[i], len(points), len(s.Months))
					continue
				}
				carries := false
				for j, v := range points {
					if v != nil {
						covered[j] = true
						carries = true
					}
				}
				if !carries {
					p.errorf("%s/%s: included file %s has no values at all", metric, city, s.Included[i])
				}
			}
			for j, ok := range covered {
				if !ok {
					p.errorf("%s/%s: axis month %s carried by no file", metric, city, s.Months[j])
				}
			}
			for i := 1; i < len(s.Months); i++ {
				if s.Months[i-1] >= s.Months[i] {
					p.errorf("%s/%s: month axis not strictly ascending at %d", metric, city, i)
				}
			}

			inIncluded := make(map[string]bool, len(s.Included))
			for _, name := range s.Included {
				if records[name] == nil {
					p.errorf("%s/%s: included file %s was never loaded", metric, city, name)
				}
				inIncluded[name] = true
			}
			for _, name := range s.Missing {
				if inIncluded[name] {
					p.errorf("%s/%s: file %s both included and missing", metric, city, name)
				}
				rec := records[name]
				switch {
				case rec == nil:
					p.errorf("%s/%s: missing file %s was never loaded", metric, city, name)
				case !slices.Contains(rec.Metrics, metric):
					p.errorf("%s/%s: file %s reported missing but does not carry the metric", metric, city, name)
				}
			}
		}
	}
	return p
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
