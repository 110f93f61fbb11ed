// Package csvfs discovers and parses CSV files in one directory, caching
// parsed structure per file until the file's fingerprint changes.
package csvfs

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/couchcryptid/weather-csv-compare/internal/domain"
	"github.com/couchcryptid/weather-csv-compare/internal/observability"
)

var (
	// ErrInvalidEncoding marks files that are not valid UTF-8 text. The
	// whole file is excluded; other files are unaffected.
	ErrInvalidEncoding = errors.New("not valid UTF-8 text")

	// ErrEmptyHeader marks files whose header row is missing or blank.
	ErrEmptyHeader = errors.New("empty header row")

	// ErrNoValidRows marks files where every data row failed validation.
	ErrNoValidRows = errors.New("no rows survived validation")
)

// Fingerprint is the cheap change signal for a file: modification time plus
// byte size, from stat alone. A rewrite that preserves both goes undetected
// and the cache serves the stale parse until either value moves.
type Fingerprint struct {
	ModTimeNano int64
	Size        int64
}

type cacheEntry struct {
	fingerprint Fingerprint
	file        *domain.RawFile
}

// Store is the ingestion service for one CSV directory.
type Store struct {
	dir     string
	logger  *slog.Logger
	metrics *observability.Metrics
	cache   map[string]cacheEntry
}

// New creates a Store over dir. The directory does not need to exist yet;
// listing simply returns nothing until it does.
func New(dir string, logger *slog.Logger, metrics *observability.Metrics) *Store {
	return &Store{
		dir:     dir,
		logger:  logger,
		metrics: metrics,
		cache:   make(map[string]cacheEntry),
	}
}

// ListAvailableFiles returns the sorted .csv filenames in the store
// directory. A directory read failure is logged and yields an empty list.
func (s *Store) ListAvailableFiles() []string {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("read comparison directory failed", "dir", s.dir, "error", err)
		return nil
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files
}

// Load returns the parsed form of filename. When the file's fingerprint is
// unchanged since the prior load the cached structure is returned without
// touching the file contents; otherwise the file is re-parsed and re-cached.
func (s *Store) Load(filename string) (*domain.RawFile, error) {
	path := filepath.Join(s.dir, filename)
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", filename, err)
	}
	fp := Fingerprint{ModTimeNano: info.ModTime().UnixNano(), Size: info.Size()}

	if entry, ok := s.cache[filename]; ok && entry.fingerprint == fp {
		s.metrics.CacheLookups.WithLabelValues("hit").Inc()
		s.logger.Debug("fingerprint unchanged, serving cached parse", "file", filename)
		return entry.file, nil
	}
	s.metrics.CacheLookups.WithLabelValues("miss").Inc()

	file, err := s.parse(path, filename)
	if err != nil {
		s.metrics.ParseFailures.Inc()
		// Drop any stale entry so a later fix is picked up cleanly.
		delete(s.cache, filename)
		return nil, err
	}

	s.cache[filename] = cacheEntry{fingerprint: fp, file: file}
	return file, nil
}

// ClearCache drops every cached parse. The next Load of each file re-reads it.
func (s *Store) ClearCache() {
	s.cache = make(map[string]cacheEntry)
	s.logger.Debug("file cache cleared")
}

func (s *Store) parse(path, filename string) (*domain.RawFile, error) {
	s.metrics.FilesParsed.Inc()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("%s: %w", filename, ErrInvalidEncoding)
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1 // ragged rows are rejected per row, not per file

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", filename, ErrEmptyHeader)
	}

	headers := make([]string, len(records[0]))
	blank := true
	for i, h := range records[0] {
		headers[i] = strings.TrimSpace(h)
		if headers[i] != "" {
			blank = false
		}
	}
	if blank {
		return nil, fmt.Errorf("%s: %w", filename, ErrEmptyHeader)
	}

	rows := make([]domain.RawRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		line := i + 2 // header is line 1

		row, err := domain.NewRawRow(headers, rec, line)
		if err != nil {
			s.metrics.RowsRejected.Inc()
			s.logger.Warn("skipping malformed row", "file", filename, "error", err)
			continue
		}
		if !row.HasDateValue(headers) {
			s.metrics.RowsRejected.Inc()
			s.logger.Warn("skipping row without a date value", "file", filename, "line", line)
			continue
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", filename, ErrNoValidRows)
	}

	s.logger.Debug("parsed file", "file", filename, "rows", len(rows), "skipped", len(records)-1-len(rows))
	return domain.NewRawFile(filename, headers, rows), nil
}
