package marketdata

import (
	"sort"

	"psm_watchlist/internal/models"
)

// MergeBars combines an existing buffer with newly fetched bars, keyed by
// date (a fetched bar with the same date as an existing one replaces it,
// detecting restated sessions), sorted ascending, truncated to maxBars.
// Grounded on merge_bars.
func MergeBars(existing, fetched []models.Bar, maxBars int) (merged []models.Bar, changedDates []string) {
	byDate := make(map[string]models.Bar, len(existing)+len(fetched))
	for _, b := range existing {
		byDate[b.Date] = b
	}
	for _, b := range fetched {
		if old, ok := byDate[b.Date]; ok && !old.Equal(b) {
			changedDates = append(changedDates, b.Date)
		}
		byDate[b.Date] = b
	}

	merged = make([]models.Bar, 0, len(byDate))
	for _, b := range byDate {
		merged = append(merged, b)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].Date < merged[j].Date })

	if maxBars > 0 && len(merged) > maxBars {
		merged = merged[len(merged)-maxBars:]
	}
	return merged, changedDates
}

// DetectCorpActionSuspected flags a day-over-day close ratio outside
// [0.5, 1.5] as a likely corporate action (split/reverse split) rather
// than a genuine spike, grounded on detect_corp_action_suspected.
func DetectCorpActionSuspected(bars []models.Bar) bool {
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close.InexactFloat64()
		curr := bars[i].Close.InexactFloat64()
		if prev <= 0 {
			continue
		}
		ratio := curr / prev
		if ratio < 0.5 || ratio > 1.5 {
			return true
		}
	}
	return false
}
