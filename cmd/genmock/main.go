// Command genmock writes a directory of deliberately heterogeneous weather
// history CSV fixtures for exercising the comparison pipeline: each file
// uses a different header vocabulary, date format and data quality, and one
// file is not valid UTF-8 at all.
//
// Usage:
//
//	go run ./cmd/genmock -out data/comparison -months 6 -seed 1
package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"
)

// baseMonth anchors the generated history; fixtures run backward from it.
var baseMonth = time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

type cityClimate struct {
	name     string
	baseTemp float64
	baseHum  float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "data/comparison", "output directory for fixture CSVs")
	months := flag.Int("months", 6, "months of history per file")
	seed := flag.Int64("seed", 1, "random seed for generated values")
	flag.Parse()

	if *months <= 0 {
		return fmt.Errorf("months must be positive, got %d", *months)
	}
	if err := os.MkdirAll(*out, 0o755); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(*seed))

	fixtures := []struct {
		name    string
		records [][]string
	}{
		{"us_cities.csv", usCities(rng, *months)},
		{"europe.csv", europe(rng, *months)},
		{"station_log.csv", stationLog(rng, *months)},
	}

	for _, f := range fixtures {
		if err := writeCSV(filepath.Join(*out, f.name), f.records); err != nil {
			return fmt.Errorf("writing %s: %w", f.name, err)
		}
		log.Printf("%s: %d rows", f.name, len(f.records)-1)
	}

	corrupt := filepath.Join(*out, "corrupt.csv")
	if err := os.WriteFile(corrupt, append([]byte{0xff, 0xfe}, "date,temp\n"...), 0o600); err != nil {
		return fmt.Errorf("writing corrupt.csv: %w", err)
	}
	log.Printf("corrupt.csv: invalid UTF-8 on purpose")

	log.Printf("fixtures written to %s", *out)
	return nil
}

// usCities is a clean multi-city file: ISO dates, imperial units, aliased
// headers, and the occasional blank humidity cell.
func usCities(rng *rand.Rand, months int) [][]string {
	cities := []cityClimate{
		{name: "NYC", baseTemp: 55, baseHum: 62},
		{name: "Boston", baseTemp: 50, baseHum: 65},
		{name: "Chicago", baseTemp: 48, baseHum: 60},
	}

	records := [][]string{{"Date", "City", "Avg_Temp_F", "Humidity_Percent", "Wind_MPH"}}
	forEachMonth(months, func(month time.Time) {
		for _, day := range []int{3, 12, 21} {
			date := month.AddDate(0, 0, day-1)
			for _, c := range cities {
				humidity := fmt.Sprintf("%.0f", c.baseHum+rng.Float64()*20-10)
				if rng.Float64() < 0.08 {
					humidity = "" // sensors drop out now and then
				}
				records = append(records, []string{
					date.Format("2006-01-02"),
					c.name,
					fmt.Sprintf("%.1f", c.baseTemp+seasonal(20, date)+rng.Float64()*6-3),
					humidity,
					fmt.Sprintf("%.1f", 4+rng.Float64()*14),
				})
			}
		}
	})
	return records
}

// europe uses datetime stamps, a location column and metric units.
func europe(rng *rand.Rand, months int) [][]string {
	cities := []cityClimate{
		{name: "Paris", baseTemp: 12},
		{name: "Berlin", baseTemp: 10},
	}

	records := [][]string{{"datetime", "location", "temperature", "pressure", "rainfall"}}
	forEachMonth(months, func(month time.Time) {
		for _, day := range []int{5, 19} {
			date := time.Date(month.Year(), month.Month(), day, 6, 0, 0, 0, time.UTC)
			for _, c := range cities {
				rainfall := "0.0"
				if rng.Float64() > 0.4 {
					rainfall = fmt.Sprintf("%.1f", rng.Float64()*25)
				}
				records = append(records, []string{
					date.Format("2006-01-02 15:04:05"),
					c.name,
					fmt.Sprintf("%.1f", c.baseTemp+seasonal(8, date)+rng.Float64()*3-1.5),
					fmt.Sprintf("%.1f", 1013+rng.Float64()*16-8),
					rainfall,
				})
			}
		}
	})
	return records
}

// stationLog has misspelled headers that only fuzzy matching can place,
// US slash dates, a station column standing in for the city, and a tail
// of junk rows the pipeline must survive.
func stationLog(rng *rand.Rand, months int) [][]string {
	notes := []string{"auto", "auto", "manual check", "sensor ok"}

	records := [][]string{{"timestamp", "station", "temprature", "windgust", "notes"}}
	forEachMonth(months, func(month time.Time) {
		for _, day := range []int{2, 9, 16, 23} {
			date := month.AddDate(0, 0, day-1)
			records = append(records, []string{
				date.Format("1/2/2006"),
				"KBOS",
				fmt.Sprintf("%.1f", 52+seasonal(18, date)+rng.Float64()*5-2.5),
				fmt.Sprintf("%.1f", 10+rng.Float64()*28),
				notes[rng.Intn(len(notes))],
			})
		}
	})

	records = append(records,
		[]string{"", "KBOS", "48.2", "12.0", "clock fault"},
		[]string{"around noon", "KBOS", "48.9", "14.5", "clock fault"},
		[]string{"truncated", "row"},
	)
	return records
}

func forEachMonth(months int, fn func(month time.Time)) {
	for offset := months - 1; offset >= 0; offset-- {
		fn(baseMonth.AddDate(0, -offset, 0))
	}
}

// seasonal is a northern-hemisphere temperature swing peaking in July.
func seasonal(amplitude float64, date time.Time) float64 {
	return amplitude * math.Sin(2*math.Pi*float64(int(date.Month())-4)/12)
}

func writeCSV(path string, records [][]string) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}
