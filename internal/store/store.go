// Package store loads, migrates, validates and persists the watchlist's
// psm_v4 document, either as a JSON file on disk or as a single JSONB row
// in Postgres, selected by the location string's scheme. Grounded on
// original_source/storage/positions_store.py, with the relational
// backend's shape grounded on other_examples' Kirusshenkin-mark
// database/sql + lib/pq storage file.
package store

import (
	"sort"
	"time"

	"psm_watchlist/internal/models"
)

// Load reads the document at location, a filesystem path or a
// postgres://.../postgresql://... DSN, migrating and validating it.
func Load(location string) (*models.Store, error) {
	if isPostgresTarget(location) {
		return loadPostgresBlob(location)
	}
	return loadFile(location)
}

// Save persists s to location using the backend selected by its scheme.
func Save(location string, s *models.Store) error {
	if isPostgresTarget(location) {
		return savePostgresBlob(location, s)
	}
	return saveFile(location, s)
}

// TouchMeta stamps the document's as-of bar date and last-run timestamp,
// grounded on touch_meta: last_run_utc is a UTC ISO timestamp truncated to
// whole seconds with a literal "Z" suffix, never with a timezone offset.
func TouchMeta(s *models.Store, asofBarDate string) {
	s.Meta.AsofBarDate = &asofBarDate
	now := time.Now().UTC().Truncate(time.Second).Format("2006-01-02T15:04:05") + "Z"
	s.Meta.LastRunUTC = &now
}

// EnsurePosition returns the existing position for key, creating a fresh
// WATCH/EXITED_COOLDOWN baseline via positionDefaults if absent.
func EnsurePosition(s *models.Store, ticker, exchange string) models.Position {
	key := models.Key(ticker, exchange)
	if pos, ok := s.Positions[key]; ok {
		return pos
	}
	pos := positionDefaults(ticker, exchange)
	s.Positions[key] = pos
	return pos
}

// IterPositions returns store keys in sorted order, matching
// iter_positions' deterministic iteration (important for reproducible
// daily-run output and tests).
func IterPositions(s *models.Store) []string {
	keys := make([]string, 0, len(s.Positions))
	for k := range s.Positions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
