package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"

	"psm_watchlist/internal/models"
)

// isPostgresTarget reports whether location names a postgres DSN rather
// than a filesystem path, grounded on _is_postgres_target.
func isPostgresTarget(location string) bool {
	return hasAnyPrefix(location, "postgres://", "postgresql://")
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if len(s) >= len(p) && s[:len(p)] == p {
			return true
		}
	}
	return false
}

// pgSchema holds the single JSONB-blob table the relational backend uses:
// one row, one document, simplified from the multi-table/multi-repository
// pattern in other_examples' Kirusshenkin-mark postgres storage to the
// single-blob shape spec.md §4.1/§6 call for.
const pgSchema = `
CREATE TABLE IF NOT EXISTS psm_store (
	id INTEGER PRIMARY KEY DEFAULT 1,
	doc JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT psm_store_singleton CHECK (id = 1)
)`

func openPostgres(dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: opening postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: pinging postgres: %w", err)
	}
	if _, err := db.Exec(pgSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrating postgres schema: %w", err)
	}
	return db, nil
}

// loadPostgresBlob reads the singleton document row, migrating it onto
// the current Store exactly as the file backend does. A missing row
// yields an empty, freshly scaffolded store.
func loadPostgresBlob(dsn string) (*models.Store, error) {
	db, err := openPostgres(dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var raw []byte
	err = db.QueryRow(`SELECT doc FROM psm_store WHERE id = 1`).Scan(&raw)
	if err == sql.ErrNoRows {
		s := models.EmptyStore()
		return &s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: querying postgres: %w", err)
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("store: parsing postgres document: %w", err)
	}
	s, err := MigrateBlob(decoded)
	if err != nil {
		return nil, fmt.Errorf("store: migrating postgres document: %w", err)
	}
	if err := Validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// savePostgresBlob upserts the singleton document row.
func savePostgresBlob(dsn string, s *models.Store) error {
	db, err := openPostgres(dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("store: marshaling: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO psm_store (id, doc, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`, b)
	if err != nil {
		return fmt.Errorf("store: upserting postgres document: %w", err)
	}
	return nil
}
