package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"psm_watchlist/internal/models"
)

func TestSaveLoadFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	location := filepath.Join(dir, "psm_store.json")

	s := models.EmptyStore()
	s.Positions["AAA:US"] = positionDefaults("AAA", "US")

	if err := Save(location, &s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(location)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Meta.SchemaVersion != models.SchemaVersion {
		t.Fatalf("schema version = %q, want %q", loaded.Meta.SchemaVersion, models.SchemaVersion)
	}
	if _, ok := loaded.Positions["AAA:US"]; !ok {
		t.Fatalf("expected AAA:US to round-trip")
	}
}

func TestLoadFile_MissingFileReturnsEmptyStore(t *testing.T) {
	dir := t.TempDir()
	location := filepath.Join(dir, "does-not-exist.json")

	s, err := Load(location)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(s.Positions) != 0 {
		t.Fatalf("expected an empty store, got %d positions", len(s.Positions))
	}
}

func TestLoadFile_MigratesFlatLegacyMapAndWritesBackup(t *testing.T) {
	dir := t.TempDir()
	location := filepath.Join(dir, "legacy.json")

	legacy := map[string]any{
		"BBB:US": map[string]any{
			"state":      "ACTIVE",
			"entry":      50.0,
			"hwm_close":  55.0,
			"trigger":    "warn",
		},
	}
	raw, _ := json.Marshal(legacy)
	if err := os.WriteFile(location, raw, 0o644); err != nil {
		t.Fatalf("seeding legacy file: %v", err)
	}

	s, err := Load(location)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	pos, ok := s.Positions["BBB:US"]
	if !ok {
		t.Fatalf("expected migrated position under key BBB:US")
	}
	if pos.Mode != models.ModeOwned || pos.State != models.StateNormalRun {
		t.Fatalf("mode/state = %v/%v, want OWNED/NORMAL_RUN", pos.Mode, pos.State)
	}
	if pos.Execution.EntryPrice == nil {
		t.Fatalf("expected entry price to be migrated")
	}

	if _, err := os.Stat(location + ".pre_migration.json"); err != nil {
		t.Fatalf("expected a pre-migration backup file, stat error: %v", err)
	}
}

func TestLoadFile_MigratesLegacyList(t *testing.T) {
	dir := t.TempDir()
	location := filepath.Join(dir, "legacy_list.json")

	legacy := []any{
		map[string]any{"ticker": "CCC", "exchange": "NASDAQ", "state": "ACTIVE", "entry_price": 20.0},
	}
	raw, _ := json.Marshal(legacy)
	if err := os.WriteFile(location, raw, 0o644); err != nil {
		t.Fatalf("seeding legacy list: %v", err)
	}

	s, err := Load(location)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := s.Positions["CCC:NASDAQ"]; !ok {
		t.Fatalf("expected migrated position under key CCC:NASDAQ")
	}
}

func TestValidate_RejectsOwnedWithoutEntryPrice(t *testing.T) {
	s := models.EmptyStore()
	pos := positionDefaults("DDD", "US")
	pos.Mode = models.ModeOwned
	pos.State = models.StateNormalRun
	s.Positions["DDD:US"] = pos

	err := Validate(&s)
	if err == nil {
		t.Fatalf("expected Validate to reject an OWNED position without an entry price")
	}
	if _, ok := err.(*InvalidStoreError); !ok {
		t.Fatalf("expected *InvalidStoreError, got %T", err)
	}
}

func TestValidate_RejectsDuplicateBarDates(t *testing.T) {
	s := models.EmptyStore()
	pos := positionDefaults("EEE", "US")
	pos.Buffers.OHLC = []models.Bar{
		{Date: "2026-07-29"},
		{Date: "2026-07-29"},
	}
	s.Positions["EEE:US"] = pos

	if err := Validate(&s); err == nil {
		t.Fatalf("expected Validate to reject duplicate bar dates")
	}
}

func TestNormalizePosition_DemotesInconsistentOwnedState(t *testing.T) {
	pos := positionDefaults("FFF", "US")
	pos.Mode = models.ModeOwned
	pos.State = models.StateNormalRun
	pos.Execution.EntryPrice = nil

	out := normalizePosition("FFF:US", pos)
	if out.Mode != models.ModeWatch || out.State != models.StateExitedCooldown {
		t.Fatalf("mode/state = %v/%v, want WATCH/EXITED_COOLDOWN", out.Mode, out.State)
	}
}

func TestDedupSortTruncate(t *testing.T) {
	bars := []models.Bar{
		{Date: "2026-07-10"},
		{Date: "2026-07-08"},
		{Date: "2026-07-10"},
		{Date: "2026-07-09"},
	}
	out := dedupSortTruncate(bars, 2)
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].Date != "2026-07-09" || out[1].Date != "2026-07-10" {
		t.Fatalf("got %v, want last two dates ascending", out)
	}
}
