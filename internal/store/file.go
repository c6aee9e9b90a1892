package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"psm_watchlist/internal/models"
)

// loadFile reads location, migrates whatever shape it finds onto the
// current Store, writes a one-time pre-migration backup if the on-disk
// shape differed from the current schema, and validates the result.
// Grounded on load_positions in original_source/storage/positions_store.py
// and on the teacher's atomic-write convention in internal/storage/storage.go.
func loadFile(location string) (*models.Store, error) {
	raw, err := os.ReadFile(location)
	if os.IsNotExist(err) {
		s := models.EmptyStore()
		return &s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: reading %s: %w", location, err)
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("store: parsing %s: %w", location, err)
	}

	wasCurrentShape := false
	if m, ok := decoded.(map[string]any); ok {
		wasCurrentShape = isCurrentShape(rawDoc(m))
	}

	s, err := MigrateBlob(decoded)
	if err != nil {
		return nil, fmt.Errorf("store: migrating %s: %w", location, err)
	}

	if !wasCurrentShape {
		if err := writeBackup(location, raw); err != nil {
			return nil, fmt.Errorf("store: writing pre-migration backup for %s: %w", location, err)
		}
	}

	if err := Validate(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// writeBackup preserves the exact on-disk bytes before they are ever
// overwritten by a migrated save, grounded on _backup_path.
func writeBackup(location string, raw []byte) error {
	backupPath := location + ".pre_migration.json"
	if _, err := os.Stat(backupPath); err == nil {
		return nil
	}
	return os.WriteFile(backupPath, raw, 0o644)
}

// saveFile writes s to location atomically: marshal to a temp file in the
// same directory, fsync, then rename over the target. Grounded on the
// teacher's SaveState in internal/storage/storage.go.
func saveFile(location string, s *models.Store) error {
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("store: marshaling: %w", err)
	}

	dir := filepath.Dir(location)
	tmp, err := os.CreateTemp(dir, ".store-*.tmp")
	if err != nil {
		return fmt.Errorf("store: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return fmt.Errorf("store: writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("store: syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("store: closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, location); err != nil {
		return fmt.Errorf("store: renaming temp file onto %s: %w", location, err)
	}
	return nil
}
