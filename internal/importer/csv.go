// Package importer ingests a research watchlist CSV (ticker, exchange,
// thesis targets, KPIs) into store positions, creating a WATCH baseline
// for any ticker not already tracked. Grounded on
// original_source/engine/daily_run.py's _find_or_create_key, generalized
// from a single ad-hoc ticker to a whole CSV batch per SPEC_FULL.md §4.9.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"psm_watchlist/internal/models"
)

// Row is one parsed, not-yet-merged research watchlist entry.
type Row struct {
	Ticker    string
	Exchange  string
	BearTotal *decimal.Decimal
	BaseTotal *decimal.Decimal
	BullTotal *decimal.Decimal
	KPIs      map[string]any
}

// Result is the outcome of one import pass.
type Result struct {
	Rows         []Row
	CreatedKeys  []string
	UpdatedKeys  []string
	SkippedLines []int
}

var requiredHeaders = []string{"ticker", "exchange"}

// ImportCSV parses r (a header row plus one row per ticker: ticker,
// exchange, bear_total, base_total, bull_total, then arbitrary KPI
// columns) into Rows. Malformed lines are skipped and recorded rather
// than failing the whole import, matching the forgiving, best-effort
// ingestion style of the stooq CSV parser.
func ImportCSV(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return Result{}, fmt.Errorf("importer: parsing csv: %w", err)
	}
	if len(rows) == 0 {
		return Result{}, nil
	}

	header := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, req := range requiredHeaders {
		if _, ok := header[req]; !ok {
			return Result{}, fmt.Errorf("importer: missing required column %q", req)
		}
	}

	var out Result
	for lineNum, row := range rows[1:] {
		parsed, ok := parseRow(row, header)
		if !ok {
			out.SkippedLines = append(out.SkippedLines, lineNum+2)
			continue
		}
		out.Rows = append(out.Rows, parsed)
	}
	return out, nil
}

func parseRow(row []string, header map[string]int) (Row, bool) {
	ticker := field(row, header, "ticker")
	exchange := field(row, header, "exchange")
	if ticker == "" || exchange == "" {
		return Row{}, false
	}

	r := Row{
		Ticker:   strings.ToUpper(ticker),
		Exchange: strings.ToUpper(exchange),
		KPIs:     map[string]any{},
	}
	r.BearTotal = decimalField(row, header, "bear_total")
	r.BaseTotal = decimalField(row, header, "base_total")
	r.BullTotal = decimalField(row, header, "bull_total")

	known := map[string]bool{"ticker": true, "exchange": true, "bear_total": true, "base_total": true, "bull_total": true}
	for name, idx := range header {
		if known[name] || idx >= len(row) {
			continue
		}
		v := strings.TrimSpace(row[idx])
		if v == "" {
			continue
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			r.KPIs[name] = f
		} else {
			r.KPIs[name] = v
		}
	}
	return r, true
}

func field(row []string, header map[string]int, name string) string {
	if i, ok := header[name]; ok && i < len(row) {
		return strings.TrimSpace(row[i])
	}
	return ""
}

func decimalField(row []string, header map[string]int, name string) *decimal.Decimal {
	v := field(row, header, name)
	if v == "" {
		return nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil
	}
	return &d
}

// ApplyToStore merges parsed rows into s: existing positions have their
// Targets and ThesisKPIs updated in place, new tickers get a freshly
// scaffolded WATCH/EXITED_COOLDOWN position.
func ApplyToStore(s *models.Store, rows []Row, makeDefault func(ticker, exchange string) models.Position) Result {
	var out Result
	for _, r := range rows {
		key := models.Key(r.Ticker, r.Exchange)
		pos, existed := s.Positions[key]
		if !existed {
			pos = makeDefault(r.Ticker, r.Exchange)
			out.CreatedKeys = append(out.CreatedKeys, key)
		} else {
			out.UpdatedKeys = append(out.UpdatedKeys, key)
		}
		pos.Targets.BearTotal = r.BearTotal
		pos.Targets.BaseTotal = r.BaseTotal
		pos.Targets.BullTotal = r.BullTotal
		for k, v := range r.KPIs {
			if pos.ThesisKPIs == nil {
				pos.ThesisKPIs = map[string]any{}
			}
			pos.ThesisKPIs[k] = v
		}
		s.Positions[key] = pos
	}
	return out
}
