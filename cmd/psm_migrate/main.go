// Command psm_migrate loads a store document (file or Postgres DSN),
// migrating any legacy shape onto the current schema, validates it, and
// writes it back. A thin CLI wrapper around internal/store's own
// migration path, grounded on original_source's load_positions/
// save_positions used standalone as a one-shot upgrade tool.
package main

import (
	"flag"
	"log"

	"psm_watchlist/internal/store"
)

func main() {
	location := flag.String("store", "psm_store.json", "store file path or postgres:// DSN to migrate in place")
	flag.Parse()

	s, err := store.Load(*location)
	if err != nil {
		log.Fatalf("psm_migrate: loading %s: %v", *location, err)
	}

	if err := store.Save(*location, s); err != nil {
		log.Fatalf("psm_migrate: saving %s: %v", *location, err)
	}

	log.Printf("psm_migrate: %s migrated to schema %s with %d positions", *location, s.Meta.SchemaVersion, len(s.Positions))
}
