// Package engine is the deterministic, allocation-light core of the
// position state machine: indicators, levels, anomaly classification and
// the state machine itself operate purely on value snapshots and
// settings, with no I/O, grounded on original_source/engine/*.py.
package engine

import "math"

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func stdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := mean(xs)
	sumSq := 0.0
	for _, x := range xs {
		d := x - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)-1))
}

// TrueRangeAt computes the true range for bar i given the previous close,
// grounded on true_range_at.
func TrueRangeAt(high, low, prevClose float64) float64 {
	hl := high - low
	hc := math.Abs(high - prevClose)
	lc := math.Abs(low - prevClose)
	return math.Max(hl, math.Max(hc, lc))
}

// TrueRangeSeries computes the true range series over closes[1:], each
// entry needing the prior bar's close, grounded on compute_true_range_series.
func TrueRangeSeries(highs, lows, closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		out = append(out, TrueRangeAt(highs[i], lows[i], closes[i-1]))
	}
	return out
}

// ATREMA computes Wilder's ATR: the seed is the mean of the first
// effectivePeriod true-range values, then an EMA with alpha = 1/period is
// applied to the remainder. Returns (0, false) if there isn't enough
// history for at least max(2, minPeriod) true-range values, grounded on
// compute_atr_ema.
func ATREMA(trueRanges []float64, period, minPeriod int) (float64, bool) {
	effectivePeriod := period
	if effectivePeriod > len(trueRanges) {
		effectivePeriod = len(trueRanges)
	}
	floor := minPeriod
	if floor < 2 {
		floor = 2
	}
	if effectivePeriod < floor {
		return 0, false
	}

	atr := mean(trueRanges[:effectivePeriod])
	alpha := 1.0 / float64(effectivePeriod)
	for i := effectivePeriod; i < len(trueRanges); i++ {
		atr = alpha*trueRanges[i] + (1-alpha)*atr
	}
	return atr, true
}

// SMA computes the simple moving average of the last window closes,
// returning (0, false) if fewer than window values are available.
func SMA(closes []float64, window int) (float64, bool) {
	if len(closes) < window || window <= 0 {
		return 0, false
	}
	return mean(closes[len(closes)-window:]), true
}

// FiveDMove is the percent move over the trailing 5 sessions, grounded on
// compute_5d_move.
func FiveDMove(closes []float64) (float64, bool) {
	if len(closes) < 6 {
		return 0, false
	}
	base := closes[len(closes)-6]
	last := closes[len(closes)-1]
	if base == 0 {
		return 0, false
	}
	return (last - base) / base * 100.0, true
}

// R3Pct is the percent move over the trailing 3 sessions, grounded on
// compute_r3_pct.
func R3Pct(closes []float64) (float64, bool) {
	if len(closes) < 4 {
		return 0, false
	}
	base := closes[len(closes)-4]
	last := closes[len(closes)-1]
	if base == 0 {
		return 0, false
	}
	return (last - base) / base * 100.0, true
}

// UpStreak counts the number of consecutive trailing up-closes ending at
// the last bar, grounded on compute_up_streak.
func UpStreak(closes []float64) int {
	streak := 0
	for i := len(closes) - 1; i > 0; i-- {
		if closes[i] > closes[i-1] {
			streak++
		} else {
			break
		}
	}
	return streak
}

// SMA200Slope classifies the direction of the 200-day SMA over lookback
// sessions as "rising" or "flat_or_falling", or returns (``, false) if
// there isn't enough SMA history, grounded on compute_sma200_slope.
func SMA200Slope(sma200Series []float64, lookback int) (string, bool) {
	if len(sma200Series) < lookback+1 {
		return "", false
	}
	past := sma200Series[len(sma200Series)-1-lookback]
	curr := sma200Series[len(sma200Series)-1]
	if curr > past {
		return "rising", true
	}
	return "flat_or_falling", true
}

// Zscore computes an adaptively windowed z-score of the last close
// against the trailing window (falling back to as few as minWindow
// samples when a full window isn't yet available), grounded on
// compute_zscore.
func Zscore(closes []float64, window, minWindow int) (float64, bool) {
	n := len(closes)
	if n < minWindow+1 {
		return 0, false
	}
	w := window
	if w > n-1 {
		w = n - 1
	}
	sample := closes[n-1-w : n-1]
	sd := stdev(sample)
	if sd == 0 {
		return 0, false
	}
	m := mean(sample)
	return (closes[n-1] - m) / sd, true
}

// IndicatorSnapshot is the engine's pure indicator output for one bar,
// grounded on compute_indicator_snapshot's return dict.
type IndicatorSnapshot struct {
	PriceClose  float64
	PrevClose   float64
	PrevHigh    float64
	PrevSMA50   *float64
	ATRDaily    *float64
	ATRWeekly   *float64
	SMA50       *float64
	SMA200      *float64
	SMA200Slope *string
	TrendUp     *bool
	FiveDMove   *float64
	Z20         *float64
	UpStreak    int
	R3Pct       *float64
	Overheated  *bool
}

// ComputeIndicatorSnapshot aggregates every indicator for the latest bar
// in bars, given the settings that govern periods/windows. Grounded on
// compute_indicator_snapshot.
func ComputeIndicatorSnapshot(closes, highs, lows []float64, atrPeriod, atrMinPeriod, atrDailyToWeeklyPeriods int, atrDailyToWeeklyMult float64, sma50Period, sma200Period, sma200SlopeLookback, z20Window, z20MinWindow, overheatUpstreak int, overheatR3Pct float64) IndicatorSnapshot {
	n := len(closes)
	snap := IndicatorSnapshot{}
	if n == 0 {
		return snap
	}
	snap.PriceClose = closes[n-1]
	if n >= 2 {
		snap.PrevClose = closes[n-2]
		snap.PrevHigh = highs[n-2]
	}

	trs := TrueRangeSeries(highs, lows, closes)
	if atrD, ok := ATREMA(trs, atrPeriod, atrMinPeriod); ok {
		snap.ATRDaily = &atrD
		atrW := atrD * atrDailyToWeeklyMult
		snap.ATRWeekly = &atrW
	}

	if sma50, ok := SMA(closes, sma50Period); ok {
		snap.SMA50 = &sma50
		if n >= 2 {
			if prevSMA50, ok := SMA(closes[:n-1], sma50Period); ok {
				snap.PrevSMA50 = &prevSMA50
			}
		}
	}

	var sma200Series []float64
	if sma200, ok := SMA(closes, sma200Period); ok {
		snap.SMA200 = &sma200
		for i := sma200Period; i <= n; i++ {
			if v, ok := SMA(closes[:i], sma200Period); ok {
				sma200Series = append(sma200Series, v)
			}
		}
		if slope, ok := SMA200Slope(sma200Series, sma200SlopeLookback); ok {
			snap.SMA200Slope = &slope
			up := slope == "rising"
			snap.TrendUp = &up
		}
	}

	if move, ok := FiveDMove(closes); ok {
		snap.FiveDMove = &move
	}
	if z, ok := Zscore(closes, z20Window, z20MinWindow); ok {
		snap.Z20 = &z
	}
	snap.UpStreak = UpStreak(closes)
	if r3, ok := R3Pct(closes); ok {
		snap.R3Pct = &r3
		overheated := snap.UpStreak >= overheatUpstreak && r3 >= overheatR3Pct
		snap.Overheated = &overheated
	}

	return snap
}

// SetupOversold reports whether z20 is at/below the entry z-score
// threshold, the "pullback deep enough" half of the WATCH entry gates.
func SetupOversold(z20 *float64, threshold float64) bool {
	return z20 != nil && *z20 <= threshold
}

// Reversal reports a breakout above the prior session's high, or a
// reclaim of the 50-day SMA after closing below it the prior session,
// grounded on _reversal_signal.
func Reversal(priceClose, prevClose, prevHigh float64, prevSMA50, sma50 *float64) bool {
	if priceClose > prevHigh {
		return true
	}
	if prevSMA50 != nil && sma50 != nil && prevClose < *prevSMA50 && priceClose > *sma50 {
		return true
	}
	return false
}
