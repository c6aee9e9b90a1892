package engine

import "psm_watchlist/internal/models"

// ChandelierK picks the state-dependent chandelier multiplier: SPIKE_LOCK
// always uses 2.0; NORMAL_RUN scales with how far price has run past the
// base/bull targets; anything else defaults to 3.0. A first warn trims
// 0.5 off the multiplier, with a 1.5 floor. Grounded on compute_chandelier_k.
func ChandelierK(state models.State, priceClose float64, baseTotal, bullTotal *float64, warnCount int) float64 {
	var k float64
	switch state {
	case models.StateSpikeLock:
		k = 2.0
	case models.StateNormalRun:
		switch {
		case bullTotal != nil && priceClose >= *bullTotal:
			k = 3.5
		case baseTotal != nil && priceClose >= *baseTotal:
			k = 3.0
		default:
			k = 2.5
		}
	default:
		k = 3.0
	}
	if warnCount >= 1 {
		k -= 0.5
	}
	if k < 1.5 {
		k = 1.5
	}
	return k
}

// RegimeMultiplier scales the spike threshold up in elevated/high VIX
// regimes, grounded on _resolve_regime_multiplier.
func RegimeMultiplier(vixClose *float64, midThreshold, highThreshold, midMult, highMult float64) float64 {
	if vixClose == nil {
		return 1.0
	}
	switch {
	case *vixClose >= highThreshold:
		return highMult
	case *vixClose >= midThreshold:
		return midMult
	default:
		return 1.0
	}
}

// Levels is the full set of derived price levels and ratios for one bar,
// grounded on compute_levels's return dict.
type Levels struct {
	ChandelierK         float64
	ChandelierStop      *float64
	GivebackLock        *float64
	CatastropheFloor    *float64
	EffectiveStop       *float64
	PullbackMin         *float64
	PullbackMax         *float64
	InBand              *bool
	UnrealizedPnLPct    *float64
	ReturnFromHWMPct    *float64
	PricedInPct         *float64
	GapToBasePct        *float64
	GapToBullPct        *float64
	DayChangePct        *float64
	EntryRefPrice       *float64
	StopLossPrice       *float64
	StopDistanceForSize *float64
	TimeStopDays        *int
	SharesHint          *float64
	SpikeThreshold      *float64
	IsSpike             *bool
	RegimeMult          float64
}

// LevelInputs bundles the position/settings fields ComputeLevels needs,
// kept separate from models.Position so the engine stays free of storage
// concerns.
type LevelInputs struct {
	Mode       models.Mode
	State      models.State
	PriceClose float64
	PrevClose  *float64
	HWMClose   *float64
	ATRWeekly  *float64
	FiveDMove  *float64
	EntryPrice *float64
	BaseTotal  *float64
	BullTotal  *float64
	BearTotal  *float64
	WarnCount  int
	VIXClose   *float64

	MaxGivebackSpikeLock float64
	MaxGivebackOther     float64
	CatastropheFloorPct  float64
	BearTotalFloorPct    float64
	ReentryPullbackMinW  float64
	ReentryPullbackMaxW  float64
	VIXMidThreshold      float64
	VIXHighThreshold     float64
	VIXMidRegimeMult     float64
	VIXHighRegimeMult    float64
	SpikeMult            float64

	EntrySizingATRMult   float64
	EntryCatStopATRMult  float64
	EntryRiskPerTradePct float64
	EntryTimeStopDays    int
	EntryCapitalBase     *float64
}

// ComputeLevels derives every stop/target/ratio level for one bar.
// Grounded on compute_levels.
func ComputeLevels(in LevelInputs) Levels {
	out := Levels{RegimeMult: 1.0}

	if in.PrevClose != nil {
		dayChange := (in.PriceClose - *in.PrevClose) / *in.PrevClose * 100.0
		out.DayChangePct = &dayChange
	}

	out.RegimeMult = RegimeMultiplier(in.VIXClose, in.VIXMidThreshold, in.VIXHighThreshold, in.VIXMidRegimeMult, in.VIXHighRegimeMult)
	if in.ATRWeekly != nil && in.FiveDMove != nil {
		threshold := in.SpikeMult * (*in.ATRWeekly) * out.RegimeMult
		out.SpikeThreshold = &threshold
		isSpike := *in.FiveDMove > 0 && *in.FiveDMove > threshold
		out.IsSpike = &isSpike
	}

	if in.Mode == models.ModeOwned && in.HWMClose != nil && in.ATRWeekly != nil {
		baseF := ptrOrNil(in.BaseTotal)
		bullF := ptrOrNil(in.BullTotal)
		k := ChandelierK(in.State, in.PriceClose, baseF, bullF, in.WarnCount)
		out.ChandelierK = k
		stop := *in.HWMClose - k*(*in.ATRWeekly)
		out.ChandelierStop = &stop

		maxGiveback := in.MaxGivebackOther
		if in.State == models.StateSpikeLock {
			maxGiveback = in.MaxGivebackSpikeLock
		}
		lock := *in.HWMClose * (1 - maxGiveback)
		out.GivebackLock = &lock

		if in.EntryPrice != nil {
			entryFloor := *in.EntryPrice * in.CatastropheFloorPct
			floor := entryFloor
			if in.BearTotal != nil {
				bearFloor := *in.BearTotal * in.BearTotalFloorPct
				if bearFloor > floor {
					floor = bearFloor
				}
			}
			out.CatastropheFloor = &floor
		}

		effective := stop
		if out.GivebackLock != nil && *out.GivebackLock > effective {
			effective = *out.GivebackLock
		}
		if out.CatastropheFloor != nil && *out.CatastropheFloor > effective {
			effective = *out.CatastropheFloor
		}
		out.EffectiveStop = &effective

		unrealized := (in.PriceClose - *in.EntryPrice) / (*in.EntryPrice) * 100.0
		out.UnrealizedPnLPct = &unrealized
	}

	if in.HWMClose != nil {
		ret := (in.PriceClose - *in.HWMClose) / *in.HWMClose * 100.0
		out.ReturnFromHWMPct = &ret
	}

	if in.Mode == models.ModeWatch && in.HWMClose != nil && in.ATRWeekly != nil {
		pmin := *in.HWMClose - in.ReentryPullbackMinW*(*in.ATRWeekly)
		pmax := *in.HWMClose - in.ReentryPullbackMaxW*(*in.ATRWeekly)
		out.PullbackMin = &pmin
		out.PullbackMax = &pmax
		inBand := in.PriceClose >= pmax && in.PriceClose <= pmin
		out.InBand = &inBand
	}

	if in.BaseTotal != nil {
		gap := (*in.BaseTotal - in.PriceClose) / in.PriceClose * 100.0
		out.GapToBasePct = &gap
	}
	if in.BullTotal != nil {
		gap := (*in.BullTotal - in.PriceClose) / in.PriceClose * 100.0
		out.GapToBullPct = &gap
	}
	if in.BearTotal != nil && in.BullTotal != nil && *in.BullTotal != *in.BearTotal {
		priced := (in.PriceClose - *in.BearTotal) / (*in.BullTotal - *in.BearTotal) * 100.0
		out.PricedInPct = &priced
	}

	if in.Mode == models.ModeWatch && in.ATRWeekly != nil {
		stopDistance := in.EntrySizingATRMult * (*in.ATRWeekly)
		out.StopDistanceForSize = &stopDistance
		entryRef := in.PriceClose
		out.EntryRefPrice = &entryRef
		stopLoss := entryRef - in.EntryCatStopATRMult*(*in.ATRWeekly)
		out.StopLossPrice = &stopLoss
		timeStop := in.EntryTimeStopDays
		out.TimeStopDays = &timeStop
		if in.EntryCapitalBase != nil && stopDistance > 0 {
			shares := (*in.EntryCapitalBase * in.EntryRiskPerTradePct / 100.0) / stopDistance
			out.SharesHint = &shares
		}
	}

	return out
}

func ptrOrNil(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
