package engine

import "psm_watchlist/internal/models"

// StateMachineSettings bundles the global settings the state machine's
// transitions consult, mirrored field-for-field from models.Global.
type StateMachineSettings struct {
	CooldownSessions      int
	SpikeLockSessions     int
	ReentryWindowSessions int
	ProfitAtBasePct       float64
	ProfitAtBullPct       float64
	SpikeSellPctFirst     float64
	SpikeSellPctLow       float64
	SpikeSellPctMid       float64
	SpikeSellPctHigh      float64
	SpikeSellPnlMidPct    float64
	SpikeSellPnlHighPct   float64
	WarnSellPct           float64
	ReentryPositionPct    float64
	TrendBreakBufferPct   float64

	EntryMVPEnabled   bool
	EntryMinPrice     float64
	EntryZ20Threshold float64
}

// Inputs bundles everything apply_state_machine needs for one bar: the
// position's current runtime state, the bar's indicators/levels/anomaly
// classification, and the day's external trigger.
type Inputs struct {
	Key        string
	Symbol     string
	BarDate    string
	Mode       models.Mode
	State      models.State
	Runtime    models.Runtime
	Targets    models.Targets
	Execution  models.Execution
	EntryPrice *float64
	HWMClose   *float64

	// BarDates is the ascending list of bar dates processed so far
	// (including the current bar), used to count trading sessions since
	// spike-lock entry, grounded on _trading_days_since.
	BarDates []string

	PriceClose float64
	Indicators IndicatorSnapshot
	Levels     Levels
	AnomalyHit bool
	Trigger    models.Trigger

	Settings StateMachineSettings
}

// Result is apply_state_machine's output: the updated runtime/execution
// fields plus the assembled decision.
type Result struct {
	Runtime   models.Runtime
	Execution models.Execution
	Mode      models.Mode
	State     models.State
	Decision  models.DecisionOfDay
}

func canExecuteAction(rt models.Runtime, barDate string) bool {
	return rt.LastActionBarDate == nil || *rt.LastActionBarDate != barDate
}

func registerAction(rt *models.Runtime, barDate string) {
	d := barDate
	rt.LastActionBarDate = &d
}

// updateRuntimeCounters runs once per new bar date, before the decision
// ladder: it decrements the cooldown/re-entry countdowns and refreshes
// the consecutive-closes-below-SMA200 trend-break counter for any OWNED
// position, regardless of state. Grounded on _update_runtime_counters.
func updateRuntimeCounters(rt models.Runtime, mode models.Mode, state models.State, priceClose float64, sma200 *float64, barDate string, trendBreakBufferPct float64) models.Runtime {
	if rt.LastProcessedBarDate != nil && *rt.LastProcessedBarDate == barDate {
		return rt
	}
	if state == models.StateExitedCooldown && rt.CooldownBarsLeft > 0 {
		rt.CooldownBarsLeft--
	}
	if state == models.StateReentryWindow && rt.ReentryBarsLeft > 0 {
		rt.ReentryBarsLeft--
	}

	if mode == models.ModeOwned && sma200 != nil {
		buffer := trendBreakBufferPct
		if buffer < 0 {
			buffer = 0
		}
		threshold := *sma200 * (1 - buffer)
		if priceClose < threshold {
			rt.ConsecutiveClosesBelowSMA200++
		} else {
			rt.ConsecutiveClosesBelowSMA200 = 0
		}
	} else if mode == models.ModeOwned {
		rt.ConsecutiveClosesBelowSMA200 = 0
	}
	return rt
}

// tradingDaysSince counts the bar dates strictly after start, grounded on
// _trading_days_since.
func tradingDaysSince(start *string, dates []string) int {
	if start == nil || *start == "" {
		return 0
	}
	n := 0
	for _, d := range dates {
		if d > *start {
			n++
		}
	}
	return n
}

// setExitState resets a position to WATCH/EXITED_COOLDOWN, grounded on
// _set_exit_state: clears entry bookkeeping, starts the cooldown counter,
// clears re-entry/spike-lock/sold flags, and records whether the exit is
// permanent (only true for a falsifier override).
func setExitState(rt models.Runtime, exec models.Execution, mode models.Mode, hwmClose *float64, barDate string, cooldownSessions int, permanentExit bool) (models.Mode, models.State, models.Runtime, models.Execution) {
	if mode == models.ModeOwned && hwmClose != nil {
		rt.HWMAtExit = floatToDecimalPtr(hwmClose)
	}
	rt.CooldownStartBarDate = strPtr(barDate)
	rt.CooldownBarsLeft = cooldownSessions
	rt.ReentryWindowStartBarDate = nil
	rt.ReentryBarsLeft = 0
	rt.SpikeLockStartBarDate = nil
	rt.LastSpikeBarDate = nil
	rt.BaseSold = false
	rt.BullSold = false
	rt.ConsecutiveClosesBelowSMA200 = 0
	rt.PermanentExit = permanentExit

	exec.EntryPrice = nil
	exec.EntryBarDate = nil
	exec.CurrentWeightPct = 0

	return models.ModeWatch, models.StateExitedCooldown, rt, exec
}

func strPtr(s string) *string     { return &s }
func floatPtr(f float64) *float64 { return &f }

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// resolveSpikeSellPct tiers the spike sell percentage by unrealized PnL:
// strictly above the high tier sells high, strictly above mid sells mid,
// otherwise low. A missing entry price (nil PnL) falls back to the first
// spike's own percentage rather than the low tier. Grounded on
// _resolve_spike_sell_pct.
func resolveSpikeSellPct(unrealizedPnLPct *float64, s StateMachineSettings) float64 {
	if unrealizedPnLPct == nil {
		return clamp01(s.SpikeSellPctFirst)
	}
	switch {
	case *unrealizedPnLPct > s.SpikeSellPnlHighPct:
		return clamp01(s.SpikeSellPctHigh)
	case *unrealizedPnLPct > s.SpikeSellPnlMidPct:
		return clamp01(s.SpikeSellPctMid)
	default:
		return clamp01(s.SpikeSellPctLow)
	}
}

func buildDecision(in Inputs, action models.ActionPayload, reason models.ReasonPayload, stateBefore, stateAfter models.State, mode models.Mode) models.DecisionOfDay {
	triggered := (action.Type != models.ActionHold && action.Type != models.ActionWait) || stateBefore != stateAfter
	return models.DecisionOfDay{
		Schema:      models.DecisionSchema,
		BarDate:     in.BarDate,
		Key:         in.Key,
		Symbol:      in.Symbol,
		Mode:        mode,
		StateBefore: stateBefore,
		StateAfter:  stateAfter,
		Action:      action,
		Reason:      reason,
		Targets:     in.Targets,
		Transitions: models.Transitions{
			Triggered:   triggered,
			StateBefore: stateBefore,
			StateAfter:  stateAfter,
		},
	}
}

// evaluateWatchEntryMVP runs the 6-gate sequential WATCH-mode entry check:
// data readiness, minimum price, uptrend, not overheated, oversold setup,
// reversal confirmation. The first failing gate produces a WAIT decision
// with that gate's reason code; success produces BUY_ALERT and latches the
// idempotence guard. Grounded on _evaluate_watch_entry_mvp.
func evaluateWatchEntryMVP(in Inputs) (models.ActionPayload, models.ReasonPayload, models.Runtime) {
	rt := in.Runtime
	ind := in.Indicators

	wait := func(code models.ReasonCode, text string) (models.ActionPayload, models.ReasonPayload, models.Runtime) {
		return models.ActionPayload{Type: models.ActionWait}, models.ReasonPayload{Code: code, Text: text}, rt
	}

	if ind.ATRWeekly == nil || ind.SMA50 == nil || ind.SMA200 == nil {
		return wait(models.ReasonEntryWaitData, "Insufficient history to evaluate entry.")
	}
	if in.PriceClose < in.Settings.EntryMinPrice {
		return wait(models.ReasonEntryWatch, "Price below minimum entry threshold.")
	}
	if ind.TrendUp == nil || !*ind.TrendUp {
		return wait(models.ReasonEntryNoBuyTrend, "200-day trend is not rising.")
	}
	if ind.Overheated != nil && *ind.Overheated {
		return wait(models.ReasonEntryNoBuyOverheat, "Momentum is overheated.")
	}
	setupOversold := SetupOversold(ind.Z20, in.Settings.EntryZ20Threshold)
	if !setupOversold {
		return wait(models.ReasonEntryWatch, "Pullback not deep enough yet.")
	}
	var prevSMA50 *float64
	if ind.PrevSMA50 != nil {
		prevSMA50 = ind.PrevSMA50
	}
	reversal := Reversal(ind.PriceClose, ind.PrevClose, ind.PrevHigh, prevSMA50, ind.SMA50)
	if !reversal {
		return wait(models.ReasonEntrySetup, "Waiting for a reversal confirmation.")
	}
	if !canExecuteAction(rt, in.BarDate) {
		return wait(models.ReasonDuplicateBlocked, "Action already registered for this bar.")
	}

	registerAction(&rt, in.BarDate)
	return models.ActionPayload{Type: models.ActionBuyAlert}, models.ReasonPayload{Code: models.ReasonBuyTrigger, Text: "Entry conditions satisfied."}, rt
}

// Apply runs the full decision ladder for one bar and returns the
// updated runtime/execution state plus the decision. Grounded on
// apply_state_machine, preserving its priority order:
//  1. falsifier trigger overrides everything, any mode, forcing a full exit
//  2. stop-hit / trend-break exits for OWNED positions with an entry price
//  3. spike detection in NORMAL_RUN
//  4. two-stage warn trigger (first warn partial sell, second full exit)
//  5. profit-target schedule (base before bull, NORMAL_RUN only)
//  6. WATCH-mode entry MVP (alert-only)
//  7. state-specific maintenance transitions (SPIKE_LOCK / EXITED_COOLDOWN / REENTRY_WINDOW)
func Apply(in Inputs) Result {
	mode := in.Mode
	state := in.State
	s := in.Settings
	exec := in.Execution

	rt := updateRuntimeCounters(in.Runtime, mode, state, in.PriceClose, in.Indicators.SMA200, in.BarDate, s.TrendBreakBufferPct)

	if !canExecuteAction(rt, in.BarDate) {
		actionType := models.ActionWait
		if mode == models.ModeOwned {
			actionType = models.ActionHold
		}
		action := models.ActionPayload{Type: actionType}
		reason := models.ReasonPayload{Code: models.ReasonDuplicateBlocked, Text: "Action already registered for this bar."}
		return Result{Runtime: rt, Execution: exec, Mode: mode, State: state, Decision: buildDecision(in, action, reason, state, state, mode)}
	}

	// Priority 1: fundamental falsifier override, any mode.
	if in.Trigger == models.TriggerFalsifier {
		registerAction(&rt, in.BarDate)
		newMode, newState, rt2, exec2 := setExitState(rt, exec, mode, in.HWMClose, in.BarDate, s.CooldownSessions, true)
		action := models.ActionPayload{Type: models.ActionSellAll, SellPct: floatPtr(1.0)}
		reason := models.ReasonPayload{Code: models.ReasonFalsifier, Text: "Fundamental falsifier triggered full exit."}
		return Result{Runtime: rt2, Execution: exec2, Mode: newMode, State: newState, Decision: buildDecision(in, action, reason, state, newState, newMode)}
	}

	if mode == models.ModeOwned && in.EntryPrice != nil {
		stopHit := in.Levels.EffectiveStop != nil && in.PriceClose < *in.Levels.EffectiveStop
		trendBreak := rt.ConsecutiveClosesBelowSMA200 >= 2

		switch {
		case stopHit:
			registerAction(&rt, in.BarDate)
			newMode, newState, rt2, exec2 := setExitState(rt, exec, mode, in.HWMClose, in.BarDate, s.CooldownSessions, false)
			action := models.ActionPayload{Type: models.ActionSellAll, SellPct: floatPtr(1.0)}
			reason := models.ReasonPayload{Code: models.ReasonStopHit, Text: "Close dropped below effective stop."}
			return Result{Runtime: rt2, Execution: exec2, Mode: newMode, State: newState, Decision: buildDecision(in, action, reason, state, newState, newMode)}

		case trendBreak:
			registerAction(&rt, in.BarDate)
			newMode, newState, rt2, exec2 := setExitState(rt, exec, mode, in.HWMClose, in.BarDate, s.CooldownSessions, false)
			action := models.ActionPayload{Type: models.ActionSellAll, SellPct: floatPtr(1.0)}
			reason := models.ReasonPayload{Code: models.ReasonTrendBreak, Text: "Two consecutive closes below SMA200."}
			return Result{Runtime: rt2, Execution: exec2, Mode: newMode, State: newState, Decision: buildDecision(in, action, reason, state, newState, newMode)}

		default:
			// Priority 3: spike detection in NORMAL_RUN.
			if state == models.StateNormalRun && in.Levels.IsSpike != nil && *in.Levels.IsSpike {
				registerAction(&rt, in.BarDate)
				rt.SpikeLockStartBarDate = strPtr(in.BarDate)
				rt.LastSpikeBarDate = strPtr(in.BarDate)
				pct := resolveSpikeSellPct(in.Levels.UnrealizedPnLPct, s)
				action := models.ActionPayload{Type: models.ActionSellPartial, SellPct: floatPtr(pct)}
				reason := models.ReasonPayload{Code: models.ReasonSpikeDetected, Text: "Spike detected in NORMAL_RUN."}
				return Result{Runtime: rt, Execution: exec, Mode: mode, State: models.StateSpikeLock, Decision: buildDecision(in, action, reason, state, models.StateSpikeLock, mode)}
			}

			// Priority 4: two-stage warn trigger.
			if in.Trigger == models.TriggerWarn {
				if rt.WarnCount == 0 {
					rt.WarnCount = 1
					registerAction(&rt, in.BarDate)
					action := models.ActionPayload{Type: models.ActionSellPartial, SellPct: floatPtr(s.WarnSellPct)}
					reason := models.ReasonPayload{Code: models.ReasonWarn, Text: "Warn #1: partial risk reduction."}
					return Result{Runtime: rt, Execution: exec, Mode: mode, State: state, Decision: buildDecision(in, action, reason, state, state, mode)}
				}
				rt.WarnCount = 2
				registerAction(&rt, in.BarDate)
				newMode, newState, rt2, exec2 := setExitState(rt, exec, mode, in.HWMClose, in.BarDate, s.CooldownSessions, false)
				rt2.WarnCount = 2
				action := models.ActionPayload{Type: models.ActionSellAll, SellPct: floatPtr(1.0)}
				reason := models.ReasonPayload{Code: models.ReasonWarn, Text: "Warn #2: full exit, cooldown, re-entry still allowed."}
				return Result{Runtime: rt2, Execution: exec2, Mode: newMode, State: newState, Decision: buildDecision(in, action, reason, state, newState, newMode)}
			}

			// Priority 5: profit-target schedule, base before bull, NORMAL_RUN only.
			if state == models.StateNormalRun {
				if !rt.BaseSold && in.Targets.BaseTotal != nil && in.PriceClose >= decimalToFloat(in.Targets.BaseTotal) {
					rt.BaseSold = true
					registerAction(&rt, in.BarDate)
					action := models.ActionPayload{Type: models.ActionSellPartial, SellPct: floatPtr(s.ProfitAtBasePct)}
					reason := models.ReasonPayload{Code: models.ReasonBaseHit, Text: "Base target reached."}
					return Result{Runtime: rt, Execution: exec, Mode: mode, State: state, Decision: buildDecision(in, action, reason, state, state, mode)}
				}
				if !rt.BullSold && in.Targets.BullTotal != nil && in.PriceClose >= decimalToFloat(in.Targets.BullTotal) {
					rt.BullSold = true
					registerAction(&rt, in.BarDate)
					action := models.ActionPayload{Type: models.ActionSellPartial, SellPct: floatPtr(s.ProfitAtBullPct)}
					reason := models.ReasonPayload{Code: models.ReasonBullHit, Text: "Bull target reached."}
					return Result{Runtime: rt, Execution: exec, Mode: mode, State: state, Decision: buildDecision(in, action, reason, state, state, mode)}
				}
			}

			action := models.ActionPayload{Type: models.ActionHold}
			reason := models.ReasonPayload{Code: models.ReasonNoTrigger, Text: "No rule matched."}
			return Result{Runtime: rt, Execution: exec, Mode: mode, State: state, Decision: buildDecision(in, action, reason, state, state, mode)}
		}
	}

	// Priority 6: WATCH-mode entry MVP (alert-only), restricted to a
	// position whose cooldown has elapsed so REENTRY_WINDOW/EXITED_COOLDOWN
	// maintenance below always stays reachable. A failed gate's WAIT reason
	// is reported when EXITED_COOLDOWN maintenance would otherwise only say
	// the trend gate is still closed.
	var entryWaitReason *models.ReasonPayload
	if s.EntryMVPEnabled && state == models.StateExitedCooldown && rt.CooldownBarsLeft <= 0 {
		actionPayload, reasonPayload, rt2 := evaluateWatchEntryMVP(in)
		if actionPayload.Type == models.ActionBuyAlert {
			return Result{Runtime: rt2, Execution: exec, Mode: mode, State: state, Decision: buildDecision(in, actionPayload, reasonPayload, state, state, mode)}
		}
		entryWaitReason = &reasonPayload
	}

	// Priority 7: state-specific maintenance transitions.
	switch state {
	case models.StateSpikeLock:
		sessions := tradingDaysSince(rt.SpikeLockStartBarDate, in.BarDates)
		trendUp := in.Indicators.TrendUp != nil && *in.Indicators.TrendUp
		spikeAbsorbed := in.Indicators.FiveDMove != nil && in.Levels.SpikeThreshold != nil &&
			*in.Indicators.FiveDMove > 0 && *in.Indicators.FiveDMove < *in.Levels.SpikeThreshold && trendUp

		switch {
		case spikeAbsorbed:
			rt.SpikeLockStartBarDate = nil
			rt.LastSpikeBarDate = nil
			action := models.ActionPayload{Type: models.ActionHold}
			reason := models.ReasonPayload{Code: models.ReasonSpikeAbsorbed, Text: "Spike conditions normalized and trend gate is open."}
			return Result{Runtime: rt, Execution: exec, Mode: mode, State: models.StateNormalRun, Decision: buildDecision(in, action, reason, state, models.StateNormalRun, mode)}
		case sessions >= s.SpikeLockSessions:
			rt.SpikeLockStartBarDate = nil
			rt.LastSpikeBarDate = nil
			action := models.ActionPayload{Type: models.ActionHold}
			reason := models.ReasonPayload{Code: models.ReasonSpikeLockTimeout, Text: "Spike lock timeout reached; returning to NORMAL_RUN."}
			return Result{Runtime: rt, Execution: exec, Mode: mode, State: models.StateNormalRun, Decision: buildDecision(in, action, reason, state, models.StateNormalRun, mode)}
		}

	case models.StateExitedCooldown:
		trendUp := in.Indicators.TrendUp != nil && *in.Indicators.TrendUp
		switch {
		case rt.PermanentExit:
			action := models.ActionPayload{Type: models.ActionWait}
			reason := models.ReasonPayload{Code: models.ReasonPermanentExit, Text: "Permanent exit active."}
			return Result{Runtime: rt, Execution: exec, Mode: mode, State: state, Decision: buildDecision(in, action, reason, state, state, mode)}
		case rt.CooldownBarsLeft > 0:
			action := models.ActionPayload{Type: models.ActionWait}
			reason := models.ReasonPayload{Code: models.ReasonCooldownActive, Text: "Cooldown still in effect."}
			return Result{Runtime: rt, Execution: exec, Mode: mode, State: state, Decision: buildDecision(in, action, reason, state, state, mode)}
		case trendUp:
			rt.ReentryWindowStartBarDate = strPtr(in.BarDate)
			rt.ReentryBarsLeft = s.ReentryWindowSessions
			action := models.ActionPayload{Type: models.ActionWait}
			reason := models.ReasonPayload{Code: models.ReasonOpenReentryWindow, Text: "Trend recovered; opening re-entry window."}
			return Result{Runtime: rt, Execution: exec, Mode: mode, State: models.StateReentryWindow, Decision: buildDecision(in, action, reason, state, models.StateReentryWindow, mode)}
		default:
			action := models.ActionPayload{Type: models.ActionWait}
			reason := models.ReasonPayload{Code: models.ReasonCooldownActive, Text: "Cooldown complete but trend gate is still closed."}
			if entryWaitReason != nil {
				reason = *entryWaitReason
			}
			return Result{Runtime: rt, Execution: exec, Mode: mode, State: state, Decision: buildDecision(in, action, reason, state, state, mode)}
		}

	case models.StateReentryWindow:
		var prevSMA50 *float64
		if in.Indicators.PrevSMA50 != nil {
			prevSMA50 = in.Indicators.PrevSMA50
		}
		reversalSignal := Reversal(in.Indicators.PriceClose, in.Indicators.PrevClose, in.Indicators.PrevHigh, prevSMA50, in.Indicators.SMA50)
		inBand := in.Levels.InBand != nil && *in.Levels.InBand
		trendUp := in.Indicators.TrendUp != nil && *in.Indicators.TrendUp
		reentryTrigger := inBand && reversalSignal && trendUp && !rt.PermanentExit

		switch {
		case reentryTrigger:
			if !canExecuteAction(rt, in.BarDate) {
				action := models.ActionPayload{Type: models.ActionWait}
				reason := models.ReasonPayload{Code: models.ReasonDuplicateBlocked, Text: "Action already registered for this bar."}
				return Result{Runtime: rt, Execution: exec, Mode: mode, State: state, Decision: buildDecision(in, action, reason, state, state, mode)}
			}
			registerAction(&rt, in.BarDate)
			buyPct := s.ReentryPositionPct
			priceClose := in.PriceClose

			rt.HWMClose = floatToDecimalPtr(&priceClose)
			rt.HWMBarDate = strPtr(in.BarDate)
			rt.HWMAtExit = nil
			rt.CooldownStartBarDate = nil
			rt.CooldownBarsLeft = 0
			rt.ReentryWindowStartBarDate = nil
			rt.ReentryBarsLeft = 0
			rt.ConsecutiveClosesBelowSMA200 = 0

			exec.EntryPrice = floatToDecimalPtr(&priceClose)
			exec.EntryBarDate = strPtr(in.BarDate)
			if exec.TargetWeightPct != nil {
				exec.CurrentWeightPct = *exec.TargetWeightPct * buyPct
			}

			action := models.ActionPayload{Type: models.ActionBuyReenter, BuyPctOfTarget: floatPtr(buyPct)}
			reason := models.ReasonPayload{Code: models.ReasonReentryTriggered, Text: "Re-entry trigger confirmed."}
			return Result{Runtime: rt, Execution: exec, Mode: models.ModeOwned, State: models.StateNormalRun, Decision: buildDecision(in, action, reason, state, models.StateNormalRun, models.ModeOwned)}

		case (in.Levels.PullbackMax != nil && in.PriceClose < *in.Levels.PullbackMax) || !trendUp:
			rt.ReentryWindowStartBarDate = nil
			rt.ReentryBarsLeft = 0
			rt.CooldownStartBarDate = strPtr(in.BarDate)
			rt.CooldownBarsLeft = s.CooldownSessions
			action := models.ActionPayload{Type: models.ActionWait}
			reason := models.ReasonPayload{Code: models.ReasonCooldownActive, Text: "Re-entry window invalidated; back to cooldown."}
			return Result{Runtime: rt, Execution: exec, Mode: mode, State: models.StateExitedCooldown, Decision: buildDecision(in, action, reason, state, models.StateExitedCooldown, mode)}

		case rt.ReentryBarsLeft == 0:
			rt.ReentryWindowStartBarDate = nil
			rt.CooldownStartBarDate = strPtr(in.BarDate)
			rt.CooldownBarsLeft = s.CooldownSessions
			action := models.ActionPayload{Type: models.ActionWait}
			reason := models.ReasonPayload{Code: models.ReasonReentryExpired, Text: "Re-entry window expired."}
			return Result{Runtime: rt, Execution: exec, Mode: mode, State: models.StateExitedCooldown, Decision: buildDecision(in, action, reason, state, models.StateExitedCooldown, mode)}

		default:
			action := models.ActionPayload{Type: models.ActionWait}
			reason := models.ReasonPayload{Code: models.ReasonNoTrigger, Text: "Waiting for re-entry trigger."}
			return Result{Runtime: rt, Execution: exec, Mode: mode, State: state, Decision: buildDecision(in, action, reason, state, state, mode)}
		}
	}

	finalAction := models.ActionPayload{Type: models.ActionWait}
	if mode == models.ModeOwned {
		finalAction = models.ActionPayload{Type: models.ActionHold}
	}
	reason := models.ReasonPayload{Code: models.ReasonNoTrigger, Text: "No rule matched."}
	return Result{Runtime: rt, Execution: exec, Mode: mode, State: state, Decision: buildDecision(in, finalAction, reason, state, state, mode)}
}
