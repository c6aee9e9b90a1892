package marketdata

import (
	"testing"

	"github.com/shopspring/decimal"

	"psm_watchlist/internal/models"
)

func bar(date string, close float64) models.Bar {
	return models.Bar{Date: date, Close: decimal.NewFromFloat(close)}
}

func TestMergeBars_SortsDedupsAndDetectsChangedDates(t *testing.T) {
	existing := []models.Bar{bar("2026-07-28", 10), bar("2026-07-29", 11)}
	fetched := []models.Bar{bar("2026-07-29", 12), bar("2026-07-30", 13)}

	merged, changed := MergeBars(existing, fetched, 0)
	if len(merged) != 3 {
		t.Fatalf("len(merged) = %d, want 3", len(merged))
	}
	wantDates := []string{"2026-07-28", "2026-07-29", "2026-07-30"}
	for i, d := range wantDates {
		if merged[i].Date != d {
			t.Fatalf("merged[%d].Date = %q, want %q", i, merged[i].Date, d)
		}
	}
	if len(changed) != 1 || changed[0] != "2026-07-29" {
		t.Fatalf("changed = %v, want [2026-07-29]", changed)
	}
}

func TestMergeBars_TruncatesToMaxBars(t *testing.T) {
	existing := []models.Bar{bar("2026-07-01", 1), bar("2026-07-02", 2), bar("2026-07-03", 3)}
	merged, _ := MergeBars(existing, nil, 2)
	if len(merged) != 2 {
		t.Fatalf("len(merged) = %d, want 2", len(merged))
	}
	if merged[0].Date != "2026-07-02" || merged[1].Date != "2026-07-03" {
		t.Fatalf("got %v, want the last two dates", merged)
	}
}

func TestDetectCorpActionSuspected_FlagsLargeRatioJump(t *testing.T) {
	bars := []models.Bar{bar("2026-07-29", 100), bar("2026-07-30", 40)}
	if !DetectCorpActionSuspected(bars) {
		t.Fatalf("expected a 0.4 ratio drop to be flagged as a suspected corp action")
	}
}

func TestDetectCorpActionSuspected_OrdinaryMoveNotFlagged(t *testing.T) {
	bars := []models.Bar{bar("2026-07-29", 100), bar("2026-07-30", 95)}
	if DetectCorpActionSuspected(bars) {
		t.Fatalf("expected an ordinary move not to be flagged")
	}
}
