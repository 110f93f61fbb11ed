package domain

import "strings"

// UnknownCity is the sentinel assigned to every row of a file that has no
// city-like column, and to rows whose city cell is blank.
const UnknownCity = "Unknown"

// Column vocabulary. All checks are case-insensitive substring matches, so
// "Date_Recorded" is date-like and "coordinates" is location-like.
var (
	// dateKeywords identify columns holding observation timestamps.
	dateKeywords = []string{"date", "time", "datetime", "timestamp"}

	// locationKeywords identify columns the metric mapper must never map.
	locationKeywords = []string{"city", "location", "place", "town", "latitude", "longitude", "lat", "lon", "coord"}

	// cityKeywords identify the column the normalizer groups rows by. The
	// set differs from locationKeywords: "station" names a grouping column
	// but is a perfectly good metric prefix, while "lat"/"lon" can never
	// name a city.
	cityKeywords = []string{"city", "location", "place", "town", "station"}
)

// IsDateColumn reports whether header names a date-like column.
func IsDateColumn(header string) bool {
	return containsAny(header, dateKeywords)
}

// IsLocationColumn reports whether header names a location-like column.
func IsLocationColumn(header string) bool {
	return containsAny(header, locationKeywords)
}

// FindDateColumn returns the first date-like header, in header order.
func FindDateColumn(headers []string) (string, bool) {
	return findFirst(headers, dateKeywords)
}

// FindCityColumn returns the first city-like header, in header order.
func FindCityColumn(headers []string) (string, bool) {
	return findFirst(headers, cityKeywords)
}

func findFirst(headers []string, keywords []string) (string, bool) {
	for _, h := range headers {
		if containsAny(h, keywords) {
			return h, true
		}
	}
	return "", false
}

func containsAny(s string, keywords []string) bool {
	s = strings.ToLower(s)
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
