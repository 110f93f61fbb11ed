// Command compare loads every weather history CSV in the comparison
// directory and prints a report: per-file load outcomes, the canonical
// metrics found, and, when a metric and city are selected, the aligned
// monthly series across files.
//
// Usage:
//
//	go run ./cmd/compare
//	go run ./cmd/compare -metric temperature -city Boston
//	go run ./cmd/compare -metric humidity -city NYC -files us_cities.csv -months 6
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sort"
	"strings"

	"github.com/couchcryptid/weather-csv-compare/internal/adapter/csvfs"
	"github.com/couchcryptid/weather-csv-compare/internal/comparison"
	"github.com/couchcryptid/weather-csv-compare/internal/config"
	"github.com/couchcryptid/weather-csv-compare/internal/domain"
	"github.com/couchcryptid/weather-csv-compare/internal/mapping"
	"github.com/couchcryptid/weather-csv-compare/internal/normalize"
	"github.com/couchcryptid/weather-csv-compare/internal/observability"
	"github.com/couchcryptid/weather-csv-compare/internal/palette"
)

func main() {
	metric := flag.String("metric", "", "canonical metric to chart (e.g. temperature)")
	city := flag.String("city", "", "city to chart")
	files := flag.String("files", "", "comma-separated filenames to enable (default: all)")
	months := flag.Int("months", 0, "month window override (default: MONTH_WINDOW)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	// A fixed COLOR_SEED makes chart colors reproducible across runs.
	var rng *rand.Rand
	if cfg.ColorSeedSet {
		rng = rand.New(rand.NewSource(cfg.ColorSeed))
	}

	manager := comparison.New(
		csvfs.New(cfg.CompareDir, logger, metrics),
		mapping.New(cfg.SimilarityThreshold, logger, metrics),
		normalize.New(logger, metrics),
		palette.New(rng, logger, metrics),
		logger,
		metrics,
	)

	window := cfg.MonthWindow
	if *months > 0 {
		window = *months
	}

	if code := run(manager, window, *metric, *city, *files); code != 0 {
		os.Exit(code)
	}
}

func run(manager *comparison.Manager, window int, metric, city, files string) int {
	result, err := manager.LoadAll(window)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load comparison data: %v\n", err)
		return 1
	}

	printLoadReport(result, window)
	fmt.Printf("\nAvailable metrics: %s\n", strings.Join(result.Metrics, ", "))

	if metric == "" || city == "" {
		return 0
	}

	req := comparison.SeriesRequest{Metric: metric, City: city}
	if files != "" {
		req.EnabledFiles = strings.Split(files, ",")
	}

	series, err := manager.GetSeries(req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: build series: %v\n", err)
		return 1
	}

	printSeries(series, metric, city)
	return 0
}

func printLoadReport(result *comparison.LoadResult, window int) {
	fmt.Printf("=== Weather CSV Comparison (last %d months) ===\n\n", window)

	for _, rec := range result.Files {
		n := rec.Normalized
		fmt.Printf("  \033[32mOK\033[0m    %-22s color=%s rows=%d cities=%s\n",
			n.Filename, rec.Color, rec.Raw.RowCount, strings.Join(n.Cities, ","))
		if len(rec.Unmapped) > 0 {
			fmt.Printf("        unmapped headers: %s\n", strings.Join(rec.Unmapped, ", "))
		}
	}

	names := make([]string, 0, len(result.Failed))
	for name := range result.Failed {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  \033[31mSKIP\033[0m  %-22s %v\n", name, result.Failed[name])
	}
}

func printSeries(s *domain.ChartSeries, metric, city string) {
	fmt.Printf("\n=== %s in %s ===\n\n", metric, city)

	if len(s.Included) == 0 {
		fmt.Println("  no enabled file has this metric for this city")
	} else {
		fmt.Printf("  %-8s", "month")
		for _, label := range s.Labels {
			fmt.Printf(" %16s", label)
		}
		fmt.Println()

		for i, month := range s.Months {
			fmt.Printf("  %-8s", month)
			for j := range s.Values {
				if v := s.Values[j][i]; v != nil {
					fmt.Printf(" %16.2f", *v)
				} else {
					fmt.Printf(" %16s", "-")
				}
			}
			fmt.Println()
		}
	}

	if len(s.Missing) > 0 {
		fmt.Printf("\n  %d file(s) missing data for this city: %s\n",
			len(s.Missing), strings.Join(s.Missing, ", "))
	}
}
