package importer

import (
	"strings"
	"testing"

	"psm_watchlist/internal/models"
)

func TestImportCSV_ParsesTargetsAndKPIs(t *testing.T) {
	csv := "ticker,exchange,bear_total,base_total,bull_total,moat_score\n" +
		"AAPL,NASDAQ,150,180,220,8.5\n"

	result, err := ImportCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("len(Rows) = %d, want 1", len(result.Rows))
	}
	row := result.Rows[0]
	if row.Ticker != "AAPL" || row.Exchange != "NASDAQ" {
		t.Fatalf("got ticker=%q exchange=%q", row.Ticker, row.Exchange)
	}
	if row.BaseTotal == nil || row.BaseTotal.String() != "180" {
		t.Fatalf("base_total = %v, want 180", row.BaseTotal)
	}
	if row.KPIs["moat_score"] != 8.5 {
		t.Fatalf("moat_score = %v, want 8.5", row.KPIs["moat_score"])
	}
}

func TestImportCSV_SkipsRowsMissingRequiredFields(t *testing.T) {
	csv := "ticker,exchange,bear_total\n" +
		",NASDAQ,100\n" +
		"MSFT,NASDAQ,200\n"

	result, err := ImportCSV(strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportCSV: %v", err)
	}
	if len(result.Rows) != 1 || result.Rows[0].Ticker != "MSFT" {
		t.Fatalf("expected only MSFT to parse, got %+v", result.Rows)
	}
	if len(result.SkippedLines) != 1 || result.SkippedLines[0] != 2 {
		t.Fatalf("skipped lines = %v, want [2]", result.SkippedLines)
	}
}

func TestImportCSV_MissingRequiredHeaderErrors(t *testing.T) {
	csv := "ticker\nAAPL\n"
	if _, err := ImportCSV(strings.NewReader(csv)); err == nil {
		t.Fatalf("expected an error when the exchange column is missing")
	}
}

func TestApplyToStore_CreatesNewAndUpdatesExisting(t *testing.T) {
	s := models.EmptyStore()
	s.Positions["MSFT:NASDAQ"] = models.Position{Identity: models.Identity{Ticker: "MSFT", Exchange: "NASDAQ"}}

	rows := []Row{
		{Ticker: "AAPL", Exchange: "NASDAQ", KPIs: map[string]any{}},
		{Ticker: "MSFT", Exchange: "NASDAQ", KPIs: map[string]any{}},
	}
	makeDefault := func(ticker, exchange string) models.Position {
		return models.Position{Identity: models.Identity{Ticker: ticker, Exchange: exchange}, Mode: models.ModeWatch, State: models.StateExitedCooldown}
	}

	result := ApplyToStore(&s, rows, makeDefault)
	if len(result.CreatedKeys) != 1 || result.CreatedKeys[0] != "AAPL:NASDAQ" {
		t.Fatalf("created = %v, want [AAPL:NASDAQ]", result.CreatedKeys)
	}
	if len(result.UpdatedKeys) != 1 || result.UpdatedKeys[0] != "MSFT:NASDAQ" {
		t.Fatalf("updated = %v, want [MSFT:NASDAQ]", result.UpdatedKeys)
	}
	if _, ok := s.Positions["AAPL:NASDAQ"]; !ok {
		t.Fatalf("expected AAPL:NASDAQ to be created in the store")
	}
}
