package store

import (
	"encoding/json"
	"sort"

	"github.com/shopspring/decimal"

	"psm_watchlist/internal/models"
)

// remarshalOnto deep-merges raw JSON-shaped data onto an already
// defaults-populated target by round-tripping through encoding/json:
// fields present in raw overwrite the defaults, fields absent keep them.
// This is the struct-oriented equivalent of original_source's recursive
// _deep_merge over dicts.
func remarshalOnto(target any, raw any) error {
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, target)
}

func decimalFromFloat(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

// normalizePosition dedups/sorts/truncates the OHLC buffer and re-coerces
// mode/state combinations that would otherwise violate the store's
// invariants, grounded on _normalize_position.
func normalizePosition(key string, pos models.Position) models.Position {
	pos.Buffers.OHLC = dedupSortTruncate(pos.Buffers.OHLC, 260)

	switch pos.Mode {
	case models.ModeOwned:
		ownedStateOK := pos.State == models.StateNormalRun || pos.State == models.StateSpikeLock
		if !ownedStateOK || pos.Execution.EntryPrice == nil {
			pos.Mode = models.ModeWatch
			pos.State = models.StateExitedCooldown
		}
	case models.ModeWatch:
		watchStateOK := pos.State == models.StateExitedCooldown || pos.State == models.StateReentryWindow
		if !watchStateOK {
			pos.State = models.StateExitedCooldown
		}
	default:
		pos.Mode = models.ModeWatch
		pos.State = models.StateExitedCooldown
	}

	_ = key
	return pos
}

// dedupSortTruncate keeps at most one bar per date (last write wins),
// sorts ascending by date, and truncates to the most recent max bars.
func dedupSortTruncate(bars []models.Bar, max int) []models.Bar {
	byDate := make(map[string]models.Bar, len(bars))
	for _, b := range bars {
		byDate[b.Date] = b
	}
	out := make([]models.Bar, 0, len(byDate))
	for _, b := range byDate {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	if max > 0 && len(out) > max {
		out = out[len(out)-max:]
	}
	return out
}
