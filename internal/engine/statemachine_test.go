package engine

import (
	"testing"

	"github.com/shopspring/decimal"

	"psm_watchlist/internal/models"
)

func baseSettings() StateMachineSettings {
	return StateMachineSettings{
		CooldownSessions:      5,
		SpikeLockSessions:     3,
		ReentryWindowSessions: 10,
		ProfitAtBasePct:       0.3,
		ProfitAtBullPct:       0.3,
		SpikeSellPctFirst:     0.5,
		SpikeSellPctLow:       0.25,
		SpikeSellPctMid:       0.4,
		SpikeSellPctHigh:      0.6,
		SpikeSellPnlMidPct:    0.10,
		SpikeSellPnlHighPct:   0.25,
		WarnSellPct:           0.3,
		ReentryPositionPct:    0.5,
		TrendBreakBufferPct:   0.02,
		EntryMVPEnabled:       true,
		EntryMinPrice:         5.0,
		EntryZ20Threshold:     -1.5,
	}
}

func decPtr(v float64) *decimal.Decimal {
	d := decimal.NewFromFloat(v)
	return &d
}

func TestApply_FalsifierOverridesOwnedPosition(t *testing.T) {
	in := Inputs{
		Key: "AAA:US", BarDate: "2026-07-30", Mode: models.ModeOwned, State: models.StateNormalRun,
		Trigger:  models.TriggerFalsifier,
		Settings: baseSettings(),
	}
	out := Apply(in)
	if out.Decision.Action.Type != models.ActionSellAll {
		t.Fatalf("action = %v, want SELL_ALL", out.Decision.Action.Type)
	}
	if out.Decision.Reason.Code != models.ReasonFalsifier {
		t.Fatalf("reason = %v, want FALSIFIER", out.Decision.Reason.Code)
	}
	if out.Mode != models.ModeWatch || out.State != models.StateExitedCooldown {
		t.Fatalf("mode/state = %v/%v, want WATCH/EXITED_COOLDOWN", out.Mode, out.State)
	}
	if !out.Runtime.PermanentExit {
		t.Fatalf("expected PermanentExit=true")
	}
}

func TestApply_StopHitExitsOwnedPosition(t *testing.T) {
	stop := 95.0
	entryPrice := 100.0
	in := Inputs{
		Key: "AAA:US", BarDate: "2026-07-30", Mode: models.ModeOwned, State: models.StateNormalRun,
		PriceClose: 94,
		EntryPrice: &entryPrice,
		Levels:     Levels{EffectiveStop: &stop},
		Settings:   baseSettings(),
	}
	out := Apply(in)
	if out.Decision.Action.Type != models.ActionSellAll || out.Decision.Reason.Code != models.ReasonStopHit {
		t.Fatalf("got action=%v reason=%v, want SELL_ALL/STOP_HIT", out.Decision.Action.Type, out.Decision.Reason.Code)
	}
	if out.State != models.StateExitedCooldown {
		t.Fatalf("state = %v, want EXITED_COOLDOWN", out.State)
	}
}

func TestApply_SpikeDetectionLocksPosition(t *testing.T) {
	isSpike := true
	pnl := 0.05
	entryPrice := 140.0
	in := Inputs{
		Key: "AAA:US", BarDate: "2026-07-30", Mode: models.ModeOwned, State: models.StateNormalRun,
		PriceClose: 150,
		EntryPrice: &entryPrice,
		Levels:     Levels{IsSpike: &isSpike, UnrealizedPnLPct: &pnl},
		Settings:   baseSettings(),
	}
	out := Apply(in)
	if out.Decision.Action.Type != models.ActionSellPartial || out.Decision.Reason.Code != models.ReasonSpikeDetected {
		t.Fatalf("got action=%v reason=%v, want SELL_PARTIAL/SPIKE_DETECTED", out.Decision.Action.Type, out.Decision.Reason.Code)
	}
	if out.State != models.StateSpikeLock {
		t.Fatalf("state = %v, want SPIKE_LOCK", out.State)
	}
	if out.Decision.Action.SellPct == nil || *out.Decision.Action.SellPct != baseSettings().SpikeSellPctLow {
		t.Fatalf("sell pct = %v, want low tier for 5%% pnl", out.Decision.Action.SellPct)
	}
}

func TestApply_TwoStageWarnTriggerClosesOnSecondWarn(t *testing.T) {
	s := baseSettings()
	entryPrice := 100.0
	first := Inputs{
		Key: "AAA:US", BarDate: "2026-07-30", Mode: models.ModeOwned, State: models.StateNormalRun,
		EntryPrice: &entryPrice,
		Trigger:    models.TriggerWarn, Settings: s,
	}
	out1 := Apply(first)
	if out1.Decision.Action.Type != models.ActionSellPartial || out1.Runtime.WarnCount != 1 {
		t.Fatalf("first warn: action=%v warnCount=%d, want SELL_PARTIAL/1", out1.Decision.Action.Type, out1.Runtime.WarnCount)
	}
	if out1.State != models.StateNormalRun {
		t.Fatalf("first warn should not change state, got %v", out1.State)
	}

	second := Inputs{
		Key: "AAA:US", BarDate: "2026-07-31", Mode: models.ModeOwned, State: models.StateNormalRun,
		EntryPrice: &entryPrice,
		Runtime:    out1.Runtime, Trigger: models.TriggerWarn, Settings: s,
	}
	out2 := Apply(second)
	if out2.Decision.Action.Type != models.ActionSellAll {
		t.Fatalf("second warn: action = %v, want SELL_ALL", out2.Decision.Action.Type)
	}
	if out2.State != models.StateExitedCooldown {
		t.Fatalf("second warn: state = %v, want EXITED_COOLDOWN", out2.State)
	}
}

func TestApply_ProfitTargetScheduleSellsBaseBeforeBull(t *testing.T) {
	entryPrice := 90.0
	in := Inputs{
		Key: "AAA:US", BarDate: "2026-07-30", Mode: models.ModeOwned, State: models.StateNormalRun,
		PriceClose: 110,
		EntryPrice: &entryPrice,
		Targets:    models.Targets{BaseTotal: decPtr(100), BullTotal: decPtr(130)},
		Settings:   baseSettings(),
	}
	out := Apply(in)
	if out.Decision.Action.Type != models.ActionSellPartial || out.Decision.Reason.Code != models.ReasonBaseHit {
		t.Fatalf("got action=%v reason=%v, want SELL_PARTIAL/BASE_HIT", out.Decision.Action.Type, out.Decision.Reason.Code)
	}
	if !out.Runtime.BaseSold {
		t.Fatalf("expected BaseSold=true")
	}
}

func TestApply_DuplicateActionBlockedSameBar(t *testing.T) {
	barDate := "2026-07-30"
	in := Inputs{
		Key: "AAA:US", BarDate: barDate, Mode: models.ModeOwned, State: models.StateNormalRun,
		Runtime:  models.Runtime{LastActionBarDate: &barDate},
		Settings: baseSettings(),
	}
	out := Apply(in)
	if out.Decision.Action.Type != models.ActionHold || out.Decision.Reason.Code != models.ReasonDuplicateBlocked {
		t.Fatalf("got action=%v reason=%v, want HOLD/DUPLICATE_ACTION_BLOCKED", out.Decision.Action.Type, out.Decision.Reason.Code)
	}
}

func TestApply_WatchEntryMVPInsufficientHistoryWaits(t *testing.T) {
	in := Inputs{
		Key: "AAA:US", BarDate: "2026-07-30", Mode: models.ModeWatch, State: models.StateExitedCooldown,
		Runtime:    models.Runtime{CooldownBarsLeft: 0},
		Indicators: IndicatorSnapshot{},
		Settings:   baseSettings(),
	}
	out := Apply(in)
	if out.Decision.Action.Type != models.ActionWait || out.Decision.Reason.Code != models.ReasonEntryWaitData {
		t.Fatalf("got action=%v reason=%v, want WAIT/ENTRY_WAIT_DATA", out.Decision.Action.Type, out.Decision.Reason.Code)
	}
}

func TestApply_WatchEntryMVPFullGateSequencePasses(t *testing.T) {
	atrW := 2.0
	sma50 := 100.0
	prevSMA50 := 99.0
	sma200 := 90.0
	trendUp := true
	overheated := false
	z20 := -2.0
	in := Inputs{
		Key: "AAA:US", BarDate: "2026-07-30", Mode: models.ModeWatch, State: models.StateExitedCooldown,
		Runtime:    models.Runtime{CooldownBarsLeft: 0},
		PriceClose: 105,
		Indicators: IndicatorSnapshot{
			ATRWeekly: &atrW, SMA50: &sma50, SMA200: &sma200, TrendUp: &trendUp,
			Overheated: &overheated, Z20: &z20, PriceClose: 105, PrevClose: 99, PrevHigh: 104, PrevSMA50: &prevSMA50,
		},
		Settings: baseSettings(),
	}
	out := Apply(in)
	if out.Decision.Action.Type != models.ActionBuyAlert || out.Decision.Reason.Code != models.ReasonBuyTrigger {
		t.Fatalf("got action=%v reason=%v, want BUY_ALERT/BUY_TRIGGER", out.Decision.Action.Type, out.Decision.Reason.Code)
	}
	if out.Runtime.LastActionBarDate == nil || *out.Runtime.LastActionBarDate != in.BarDate {
		t.Fatalf("expected idempotence latch to be set to the bar date")
	}
}

func TestApply_SpikeLockMaintenanceCountsDownThenExpires(t *testing.T) {
	s := baseSettings()
	start := "2026-07-28"
	in := Inputs{
		Key: "AAA:US", BarDate: "2026-08-01", Mode: models.ModeOwned, State: models.StateSpikeLock,
		Runtime: models.Runtime{SpikeLockStartBarDate: &start},
		BarDates: []string{
			"2026-07-28", "2026-07-29", "2026-07-30", "2026-07-31", "2026-08-01",
		},
		Settings: s,
	}
	out := Apply(in)
	if out.Decision.Reason.Code != models.ReasonSpikeLockTimeout {
		t.Fatalf("reason = %v, want SPIKE_LOCK_TIMEOUT", out.Decision.Reason.Code)
	}
	if out.Runtime.SpikeLockStartBarDate != nil {
		t.Fatalf("expected spike lock start to be cleared")
	}
}

func TestApply_SpikeLockAbsorbedReturnsToNormalRun(t *testing.T) {
	s := baseSettings()
	start := "2026-07-29"
	fiveDMove := 0.01
	spikeThreshold := 0.05
	trendUp := true
	in := Inputs{
		Key: "AAA:US", BarDate: "2026-07-30", Mode: models.ModeOwned, State: models.StateSpikeLock,
		Runtime:    models.Runtime{SpikeLockStartBarDate: &start},
		BarDates:   []string{"2026-07-29", "2026-07-30"},
		Indicators: IndicatorSnapshot{FiveDMove: &fiveDMove, TrendUp: &trendUp},
		Levels:     Levels{SpikeThreshold: &spikeThreshold},
		Settings:   s,
	}
	out := Apply(in)
	if out.State != models.StateNormalRun || out.Decision.Reason.Code != models.ReasonSpikeAbsorbed {
		t.Fatalf("got state=%v reason=%v, want NORMAL_RUN/SPIKE_ABSORBED", out.State, out.Decision.Reason.Code)
	}
}

func TestApply_ExitedCooldownOpensReentryWindowWhenElapsed(t *testing.T) {
	trendUp := true
	in := Inputs{
		Key: "AAA:US", BarDate: "2026-07-30", Mode: models.ModeWatch, State: models.StateExitedCooldown,
		Runtime:    models.Runtime{CooldownBarsLeft: 0},
		Indicators: IndicatorSnapshot{TrendUp: &trendUp},
		Settings:   StateMachineSettings{EntryMVPEnabled: false, ReentryWindowSessions: 10},
	}
	out := Apply(in)
	if out.State != models.StateReentryWindow {
		t.Fatalf("state = %v, want REENTRY_WINDOW", out.State)
	}
	if out.Decision.Reason.Code != models.ReasonOpenReentryWindow {
		t.Fatalf("reason = %v, want OPEN_REENTRY_WINDOW", out.Decision.Reason.Code)
	}
	if out.Runtime.ReentryBarsLeft != 10 {
		t.Fatalf("reentry bars left = %d, want 10", out.Runtime.ReentryBarsLeft)
	}
}

func TestApply_ExitedCooldownStaysPermanentExit(t *testing.T) {
	trendUp := true
	in := Inputs{
		Key: "AAA:US", BarDate: "2026-07-30", Mode: models.ModeWatch, State: models.StateExitedCooldown,
		Runtime:    models.Runtime{CooldownBarsLeft: 0, PermanentExit: true},
		Indicators: IndicatorSnapshot{TrendUp: &trendUp},
		Settings:   StateMachineSettings{EntryMVPEnabled: false, ReentryWindowSessions: 10},
	}
	out := Apply(in)
	if out.State != models.StateExitedCooldown || out.Decision.Reason.Code != models.ReasonPermanentExit {
		t.Fatalf("got state=%v reason=%v, want EXITED_COOLDOWN/PERMANENT_EXIT", out.State, out.Decision.Reason.Code)
	}
	if out.Decision.Action.Type != models.ActionWait {
		t.Fatalf("action = %v, want WAIT", out.Decision.Action.Type)
	}
}

func TestApply_ReentryWindowExpiresBackToCooldown(t *testing.T) {
	trendUp := true
	in := Inputs{
		Key: "AAA:US", BarDate: "2026-07-30", Mode: models.ModeWatch, State: models.StateReentryWindow,
		Runtime:    models.Runtime{ReentryBarsLeft: 1},
		Indicators: IndicatorSnapshot{TrendUp: &trendUp},
		Settings:   StateMachineSettings{EntryMVPEnabled: false},
	}
	out := Apply(in)
	if out.State != models.StateExitedCooldown || out.Decision.Reason.Code != models.ReasonReentryExpired {
		t.Fatalf("got state=%v reason=%v, want EXITED_COOLDOWN/REENTRY_EXPIRED", out.State, out.Decision.Reason.Code)
	}
}

func TestApply_ReentryWindowInvalidatedByTrendGateBackToCooldown(t *testing.T) {
	trendUp := false
	in := Inputs{
		Key: "AAA:US", BarDate: "2026-07-30", Mode: models.ModeWatch, State: models.StateReentryWindow,
		Runtime:    models.Runtime{ReentryBarsLeft: 5},
		Indicators: IndicatorSnapshot{TrendUp: &trendUp},
		Settings:   StateMachineSettings{EntryMVPEnabled: false, CooldownSessions: 5},
	}
	out := Apply(in)
	if out.State != models.StateExitedCooldown || out.Decision.Reason.Code != models.ReasonCooldownActive {
		t.Fatalf("got state=%v reason=%v, want EXITED_COOLDOWN/COOLDOWN_ACTIVE", out.State, out.Decision.Reason.Code)
	}
}

func TestApply_ReentryWindowTriggersOnInBand(t *testing.T) {
	inBand := true
	trendUp := true
	sma50 := 100.0
	prevSMA50 := 99.0
	targetWeight := 0.10
	in := Inputs{
		Key: "AAA:US", BarDate: "2026-07-30", Mode: models.ModeWatch, State: models.StateReentryWindow,
		Runtime:    models.Runtime{ReentryBarsLeft: 5},
		PriceClose: 105,
		Execution:  models.Execution{TargetWeightPct: &targetWeight},
		Indicators: IndicatorSnapshot{
			TrendUp: &trendUp, PriceClose: 105, PrevClose: 99, PrevHigh: 104,
			SMA50: &sma50, PrevSMA50: &prevSMA50,
		},
		Levels:   Levels{InBand: &inBand},
		Settings: baseSettings(),
	}
	out := Apply(in)
	if out.Decision.Action.Type != models.ActionBuyReenter || out.Decision.Reason.Code != models.ReasonReentryTriggered {
		t.Fatalf("got action=%v reason=%v, want BUY_REENTER/REENTRY_TRIGGERED", out.Decision.Action.Type, out.Decision.Reason.Code)
	}
	if out.Mode != models.ModeOwned || out.State != models.StateNormalRun {
		t.Fatalf("got mode=%v state=%v, want OWNED/NORMAL_RUN", out.Mode, out.State)
	}
	if out.Execution.EntryPrice == nil || !out.Execution.EntryPrice.Equal(decimal.NewFromFloat(105)) {
		t.Fatalf("expected entry price to be set to the close")
	}
	if out.Execution.CurrentWeightPct != targetWeight*baseSettings().ReentryPositionPct {
		t.Fatalf("current weight pct = %v, want %v", out.Execution.CurrentWeightPct, targetWeight*baseSettings().ReentryPositionPct)
	}
}
