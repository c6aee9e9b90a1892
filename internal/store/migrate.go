package store

import (
	"fmt"
	"sort"
	"strings"

	"psm_watchlist/internal/models"
)

// legacyStateMap maps the pre-psm_v4 single-state vocabulary onto the
// current Mode/State pair, grounded on original_source's LEGACY_STATE_MAP.
var legacyStateMap = map[string]models.State{
	"ACTIVE": models.StateNormalRun,
}

// rawDoc is what we unmarshal an arbitrary stored blob into before we know
// which of the three legacy shapes (or the current shape) it is.
type rawDoc map[string]any

// isCurrentShape reports whether a raw decoded document already carries
// the psm_v4 top-level keys.
func isCurrentShape(raw rawDoc) bool {
	_, hasMeta := raw["meta"]
	_, hasPositions := raw["positions"]
	return hasMeta && hasPositions
}

// MigrateBlob turns an arbitrary decoded JSON value into a current Store,
// dispatching on shape exactly as original_source's migrate_legacy_blob
// does: a psm_v4-shaped map, a flat ticker-keyed map of legacy positions,
// or a list of legacy position dicts.
func MigrateBlob(decoded any) (models.Store, error) {
	switch v := decoded.(type) {
	case map[string]any:
		if isCurrentShape(rawDoc(v)) {
			return mergeCurrentShape(rawDoc(v))
		}
		return migrateFlatLegacyMap(v)
	case []any:
		return migrateLegacyList(v)
	case nil:
		return models.EmptyStore(), nil
	default:
		return models.Store{}, fmt.Errorf("store: unrecognized document shape %T", decoded)
	}
}

// mergeCurrentShape deep-merges a decoded psm_v4 document onto the
// defaults scaffold: defaults are authoritative, anything present in raw
// overrides leaf by leaf. Re-marshaling through JSON and unmarshaling onto
// a defaults-seeded struct gives us this merge for free per field, the Go
// analogue of original_source's _deep_merge.
func mergeCurrentShape(raw rawDoc) (models.Store, error) {
	out := models.EmptyStore()
	if err := remarshalOnto(&out, raw); err != nil {
		return models.Store{}, err
	}
	for key, pos := range out.Positions {
		out.Positions[key] = normalizePosition(key, pos)
	}
	return out, nil
}

// migrateFlatLegacyMap handles shape (b): a dict keyed by ticker (or
// ticker:exchange) whose values are legacy single-state position records.
func migrateFlatLegacyMap(v map[string]any) (models.Store, error) {
	out := models.EmptyStore()
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		posRaw, ok := v[key].(map[string]any)
		if !ok {
			continue
		}
		ticker, exchange := splitKey(key)
		pos, err := migrateLegacyPosition(ticker, exchange, posRaw)
		if err != nil {
			return models.Store{}, err
		}
		out.Positions[models.Key(ticker, exchange)] = pos
	}
	return out, nil
}

// migrateLegacyList handles shape (c): a list of legacy position dicts,
// each carrying its own ticker/exchange fields.
func migrateLegacyList(v []any) (models.Store, error) {
	out := models.EmptyStore()
	for _, item := range v {
		posRaw, ok := item.(map[string]any)
		if !ok {
			continue
		}
		ticker, _ := posRaw["ticker"].(string)
		exchange, _ := posRaw["exchange"].(string)
		if exchange == "" {
			exchange = "US"
		}
		pos, err := migrateLegacyPosition(ticker, exchange, posRaw)
		if err != nil {
			return models.Store{}, err
		}
		out.Positions[models.Key(ticker, exchange)] = pos
	}
	return out, nil
}

// splitKey parses a "TICKER:EXCHANGE" store key, defaulting to exchange
// "US" for bare legacy ticker keys.
func splitKey(key string) (ticker, exchange string) {
	parts := strings.SplitN(key, ":", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return parts[0], "US"
}

// migrateLegacyPosition maps one legacy flat position record onto the
// current Position shape, grounded on _migrate_legacy_position.
func migrateLegacyPosition(ticker, exchange string, raw map[string]any) (models.Position, error) {
	pos := positionDefaults(ticker, exchange)

	if legacyState, ok := raw["state"].(string); ok {
		if mapped, known := legacyStateMap[legacyState]; known {
			pos.Mode = models.ModeOwned
			pos.State = mapped
		} else if s := models.State(legacyState); s.Valid() {
			pos.State = s
		}
	}

	if entry, ok := firstNumeric(raw, "entry", "entry_price"); ok {
		d := decimalFromFloat(entry)
		pos.Execution.EntryPrice = &d
		pos.Mode = models.ModeOwned
	}
	if hwm, ok := firstNumeric(raw, "hwm", "hwm_close"); ok {
		d := decimalFromFloat(hwm)
		pos.Runtime.HWMClose = &d
	}
	if trig, ok := raw["trigger"].(string); ok && trig != "" {
		t := trig
		pos.FundamentalTriggers.PendingTrigger = &t
	}
	if bars, ok := raw["ohlc"].([]any); ok {
		pos.Buffers.OHLC = legacyBuffersToOHLC(bars)
	} else if bars, ok := raw["bars"].([]any); ok {
		pos.Buffers.OHLC = legacyBuffersToOHLC(bars)
	}

	return normalizePosition(models.Key(ticker, exchange), pos), nil
}

// legacyBuffersToOHLC coerces a loosely-typed decoded bars list into Bar
// values, skipping anything malformed rather than failing the whole load.
func legacyBuffersToOHLC(raw []any) []models.Bar {
	out := make([]models.Bar, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		date, _ := m["date"].(string)
		if !models.ValidCivilDate(date) {
			continue
		}
		o, _ := firstNumeric(m, "open")
		h, _ := firstNumeric(m, "high")
		l, _ := firstNumeric(m, "low")
		c, _ := firstNumeric(m, "close")
		v, _ := firstNumeric(m, "volume")
		out = append(out, models.Bar{
			Date:   date,
			Open:   decimalFromFloat(o),
			High:   decimalFromFloat(h),
			Low:    decimalFromFloat(l),
			Close:  decimalFromFloat(c),
			Volume: int64(v),
		})
	}
	return out
}

func firstNumeric(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok {
			switch n := v.(type) {
			case float64:
				return n, true
			case int:
				return float64(n), true
			}
		}
	}
	return 0, false
}
