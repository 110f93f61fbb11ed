// Package domain models user-supplied CSV weather-history files and the
// monthly per-city series derived from them.
//
// # File Conventions
//
// Input files are plain CSV with a header row. Column naming is not
// standardized: the same metric appears as "temp", "Temperature", "avg_temp_f"
// and so on across files. The only structural requirements are:
//
//	- at least one date-like column (header contains "date", "time",
//	  "datetime" or "timestamp"), holding the observation timestamp
//	- optionally one city-like column (header contains "city", "location",
//	  "place", "town" or "station"); files without one are treated as a
//	  single anonymous city named "Unknown"
//	- every other column is a candidate weather metric
//
// Keyword checks are case-insensitive substring matches over the header.
// Substring matching is deliberately loose and has known consequences:
// "relative_humidity" contains "lat" and is therefore treated as
// location-like by the metric mapper, which keeps it out of the canonical
// vocabulary. Callers get better results from headers like "humidity" or
// "rh".
//
// # Date Parsing
//
// Date cells are parsed by trying an ordered list of layouts:
//
//	2006-01-02
//	1/2/2006            (US order, unpadded or padded)
//	2/1/2006            (day-first order)
//	2006-01-02 15:04:05
//	1/2/2006 15:04:05
//
// Ambiguous slash dates ("3/4/2024") resolve in US order because that layout
// is tried first. When no layout matches the full cell, a YYYY-MM-DD or
// M/D/YYYY substring is extracted and re-tried, which salvages values like
// "recorded 2024-01-15 by sensor 7". Rows whose date cannot be recovered by
// any method are dropped by the normalizer.
//
// # Month Keys
//
// Aggregation happens per calendar month. A MonthKey is the "YYYY-MM"
// rendering of the observation date; keys sort chronologically as plain
// strings, which the retention window and chart axis rely on.
package domain
