package orchestrator

import (
	"psm_watchlist/internal/engine"
	"psm_watchlist/internal/models"
)

// snapshotToComputed flattens one bar's indicator/level/anomaly/metrics
// outputs into the persisted Computed snapshot attached to a position.
func snapshotToComputed(ind engine.IndicatorSnapshot, lv engine.Levels, anomaly engine.AnomalyResult, m engine.Metrics, vixClose *float64) models.Computed {
	c := models.Computed{
		PriceClose:          floatPtr(ind.PriceClose),
		PrevClose:           floatPtr(ind.PrevClose),
		DayChangePct:        lv.DayChangePct,
		ATRDaily:            ind.ATRDaily,
		ATRWeekly:           ind.ATRWeekly,
		ATRPct:              m.ATRPct,
		FiveDMove:           ind.FiveDMove,
		SpikeThreshold:      lv.SpikeThreshold,
		SMA50:               ind.SMA50,
		SMA200:              ind.SMA200,
		SMA200Slope:         ind.SMA200Slope,
		SMA50Slope10d:       m.SMA50Slope10d,
		TrendUp:             ind.TrendUp,
		Z20:                 ind.Z20,
		R3Pct:               ind.R3Pct,
		ROC5Norm:            m.ROC5Norm,
		ROC20Norm:           m.ROC20Norm,
		DrawdownInATR:       m.DrawdownInATR,
		Overheated:          ind.Overheated,
		EntryRefPrice:       lv.EntryRefPrice,
		StopLossPrice:       lv.StopLossPrice,
		StopDistanceForSize: lv.StopDistanceForSize,
		TimeStopDays:        lv.TimeStopDays,
		SharesHint:          lv.SharesHint,
		ChandelierK:         floatPtr(lv.ChandelierK),
		ChandelierStop:      lv.ChandelierStop,
		GivebackLock:        lv.GivebackLock,
		CatastropheFloor:    lv.CatastropheFloor,
		EffectiveStop:       lv.EffectiveStop,
		PullbackMin:         lv.PullbackMin,
		PullbackMax:         lv.PullbackMax,
		InBand:              lv.InBand,
		IsSpike:             lv.IsSpike,
		VIXClose:            vixClose,
		RegimeMult:          floatPtr(lv.RegimeMult),
		UnrealizedPnLPct:    lv.UnrealizedPnLPct,
		ReturnFromHWMPct:    lv.ReturnFromHWMPct,
		PricedInPct:         lv.PricedInPct,
		GapToBasePct:        lv.GapToBasePct,
		GapToBullPct:        lv.GapToBullPct,
	}
	up := ind.UpStreak
	c.UpStreak = &up
	return c
}

func floatPtr(f float64) *float64 { return &f }
