package models

// SchemaVersion is the current store document shape, written into every
// saved document's meta.schema_version and checked on load by
// internal/store's migration path.
const SchemaVersion = "psm_v4"

// Meta carries document-level bookkeeping, not any one position's state.
type Meta struct {
	SchemaVersion string  `json:"schema_version"`
	AsofBarDate   *string `json:"asof_bar_date"`
	LastRunUTC    *string `json:"last_run_utc"`
}

// Store is the full persisted document: one file (or one JSONB row)
// holds every watched/owned symbol plus the shared settings that govern
// them, matching original_source/storage/positions_store.py's top-level
// shape (meta/global/positions/research_rows/research_import_meta).
type Store struct {
	Meta               Meta                `json:"meta"`
	Global             Global              `json:"global"`
	Positions          map[string]Position `json:"positions"`
	ResearchRows       []map[string]any    `json:"research_rows"`
	ResearchImportMeta map[string]any      `json:"research_import_meta"`
}

// EmptyStore returns a freshly scaffolded document: current schema version,
// default settings, no positions. Grounded on empty_store() in
// original_source/storage/positions_store.py.
func EmptyStore() Store {
	return Store{
		Meta: Meta{
			SchemaVersion: SchemaVersion,
			AsofBarDate:   nil,
			LastRunUTC:    nil,
		},
		Global:             DefaultGlobalSettings(),
		Positions:          make(map[string]Position),
		ResearchRows:       []map[string]any{},
		ResearchImportMeta: map[string]any{},
	}
}
