// Package orchestrator runs one daily cycle: fetch new bars for every
// watchlist symbol, feed each new bar through the engine in date order,
// and persist the result. Formatting and sending the notification digest
// is left to the caller (cmd/psm_runner). Grounded on
// original_source/engine/daily_run.py's run_daily.
package orchestrator

import (
	"context"
	"log"

	"github.com/shopspring/decimal"

	"psm_watchlist/internal/engine"
	"psm_watchlist/internal/marketdata"
	"psm_watchlist/internal/models"
	"psm_watchlist/internal/store"
)

// Fetcher is the subset of marketdata.Client's behavior the orchestrator
// depends on, kept as an interface so tests can substitute a mock
// provider in the teacher's MockProvider style.
type Fetcher interface {
	FetchLatestQuotesBatched(ctx context.Context, symbols []string) (map[string]marketdata.Quote, error)
	FetchLastDays(ctx context.Context, symbol string, n int) ([]models.Bar, error)
}

// Runner drives one daily cycle against a store location and a market
// data fetcher.
type Runner struct {
	Fetcher       Fetcher
	StoreLocation string
}

// resolveVIXClose fetches the most recent VIX close for the spike-regime
// multiplier, swallowing any fetch error into a nil result rather than
// failing the whole run, grounded on _resolve_vix_close.
func (r *Runner) resolveVIXClose(ctx context.Context, vixSymbol string) *float64 {
	bars, err := r.Fetcher.FetchLastDays(ctx, vixSymbol, 1)
	if err != nil || len(bars) == 0 {
		return nil
	}
	v := bars[len(bars)-1].Close.InexactFloat64()
	return &v
}

// resolveNewDates returns the bar dates in merged strictly after
// lastProcessed, or every date if lastProcessed is unset. Grounded on
// _resolve_new_dates.
func resolveNewDates(merged []models.Bar, lastProcessed *string) []string {
	var out []string
	for _, b := range merged {
		if lastProcessed == nil || b.Date > *lastProcessed {
			out = append(out, b.Date)
		}
	}
	return out
}

// findOrCreateKey resolves a ticker to its store key, creating a fresh
// WATCH baseline position if it isn't already tracked. Grounded on
// _find_or_create_key.
func findOrCreateKey(s *models.Store, ticker, exchange string) string {
	key := models.Key(ticker, exchange)
	if _, ok := s.Positions[key]; !ok {
		store.EnsurePosition(s, ticker, exchange)
	}
	return key
}

func settingsFromGlobal(g models.Global) (engine.AnomalySettings, engine.StateMachineSettings) {
	as := engine.AnomalySettings{
		ROCShortPeriod:       g.AnomalyMomentumROCShortPeriod,
		ROCLongPeriod:        g.AnomalyMomentumROCLongPeriod,
		MomentumWarnShort:    g.AnomalyMomentumWarnShortThreshold,
		MomentumWarnLong:     g.AnomalyMomentumWarnLongThreshold,
		DrawdownLookback:     g.AnomalyDrawdownLookback,
		DrawdownAbnormal:     g.AnomalyDrawdownAbnormalThreshold,
		DrawdownExtreme:      g.AnomalyDrawdownExtremeThreshold,
		FixedDailyDropPct:    g.AnomalyFixedDailyDropThresholdPct,
		MultidayAvgWindow:    g.AnomalyMultidayAvgWindow,
		MultidayRatioAbn:     g.AnomalyMultidayDropRatioAbnormal,
		MultidayRatioExtreme: g.AnomalyMultidayDropRatioExtreme,
		MultidayFocusEnabled: g.AnomalyMultidayDropFocusEnabled,
		MultidayMin3dPct:     g.AnomalyMultidayDropMin3dPct,
		MultidayMin5dPct:     g.AnomalyMultidayDropMin5dPct,
		MultidayMinDownDays:  g.AnomalyMultidayDropMinDownDays,
		MultidayMinRatio:     g.AnomalyMultidayDropMinRatio,
		StdWindow:            g.AnomalyStdWindow,
		StdMinWindow:         g.AnomalyStdMinWindow,
		DrawdownMinLookback:  g.AnomalyDrawdownMinLookback,
		SmaFallbackMinWindow: g.AnomalySmaFallbackMinWindow,
		RecentTrendSigma:     g.AnomalyRecentTrendSigmaThreshold,
		RecentTrendDays:      g.AnomalyRecentTrendConsistentDays,
		StdPullbackSigma:     g.AnomalyStdPullbackSigmaThreshold,
		TrendSMA50Lookback:   g.AnomalyTrendSMA50SlopeLookback,
		TrendSMA50Threshold:  g.AnomalyTrendSMA50SlopeThreshold,
		TrendDrawdownMin:     g.AnomalyTrendDrawdownMin,
	}
	sm := engine.StateMachineSettings{
		CooldownSessions:      g.CooldownSessions,
		SpikeLockSessions:     g.SpikeLockSessions,
		ReentryWindowSessions: g.ReentryWindowSessions,
		ProfitAtBasePct:       g.ProfitAtBasePct,
		ProfitAtBullPct:       g.ProfitAtBullPct,
		SpikeSellPctFirst:     g.SpikeSellPctFirst,
		SpikeSellPctLow:       g.SpikeSellPctLow,
		SpikeSellPctMid:       g.SpikeSellPctMid,
		SpikeSellPctHigh:      g.SpikeSellPctHigh,
		SpikeSellPnlMidPct:    g.SpikeSellPnlMidPct,
		SpikeSellPnlHighPct:   g.SpikeSellPnlHighPct,
		WarnSellPct:           g.WarnSellPct,
		ReentryPositionPct:    g.ReentryPositionPct,
		TrendBreakBufferPct:   g.TrendBreakBufferPct,
		EntryMVPEnabled:       g.EntryMVPEnabled,
		EntryMinPrice:         g.EntryMinPrice,
		EntryZ20Threshold:     g.EntryZ20Threshold,
	}
	return as, sm
}

// processPosition replays every new bar date through
// indicators→levels→anomaly→state-machine in order, mutating pos in
// place and accumulating decisions/anomaly events. Grounded on
// _process_position.
func processPosition(key, symbol string, pos models.Position, newDates []string, g models.Global, vixClose *float64) (models.Position, []models.DecisionOfDay, []models.AnomalyEvent) {
	as, sm := settingsFromGlobal(g)
	var decisions []models.DecisionOfDay
	var events []models.AnomalyEvent

	for _, date := range newDates {
		modeBefore := pos.Mode
		stateBefore := pos.State

		var upTo []models.Bar
		for _, b := range pos.Buffers.OHLC {
			upTo = append(upTo, b)
			if b.Date == date {
				break
			}
		}
		if len(upTo) == 0 {
			continue
		}
		closes := models.Closes(upTo)
		highs := make([]float64, len(upTo))
		lows := make([]float64, len(upTo))
		for i, b := range upTo {
			highs[i] = b.High.InexactFloat64()
			lows[i] = b.Low.InexactFloat64()
		}

		ind := engine.ComputeIndicatorSnapshot(closes, highs, lows,
			g.ATRPeriod, g.EntryATRMinPeriod, 5, g.ATRDailyToWeekly,
			g.SMA50Period, g.SMA200Period, g.SMA200SlopeLookback,
			g.EntryZ20Window, g.EntryZ20MinWindow, g.EntryOverheatUpstreak, g.EntryOverheatR3Pct)

		var entryPrice, hwmClose *float64
		if pos.Execution.EntryPrice != nil {
			v := pos.Execution.EntryPrice.InexactFloat64()
			entryPrice = &v
		}
		if pos.Runtime.HWMClose != nil {
			v := pos.Runtime.HWMClose.InexactFloat64()
			hwmClose = &v
		} else {
			hwmClose = &ind.PriceClose
		}
		if *hwmClose < ind.PriceClose {
			v := ind.PriceClose
			hwmClose = &v
		}

		levelsIn := engine.LevelInputs{
			Mode:                 pos.Mode,
			State:                pos.State,
			PriceClose:           ind.PriceClose,
			PrevClose:            nonZeroOrNil(ind.PrevClose),
			HWMClose:             hwmClose,
			ATRWeekly:            ind.ATRWeekly,
			FiveDMove:            ind.FiveDMove,
			EntryPrice:           entryPrice,
			BaseTotal:            decimalToFloatPtr(pos.Targets.BaseTotal),
			BullTotal:            decimalToFloatPtr(pos.Targets.BullTotal),
			BearTotal:            decimalToFloatPtr(pos.Targets.BearTotal),
			WarnCount:            pos.Runtime.WarnCount,
			VIXClose:             vixClose,
			MaxGivebackSpikeLock: 0.20,
			MaxGivebackOther:     0.35,
			CatastropheFloorPct:  g.CatastropheFloorPct,
			BearTotalFloorPct:    g.BearTotalFloorPct,
			ReentryPullbackMinW:  g.ReentryPullbackMinATRw,
			ReentryPullbackMaxW:  g.ReentryPullbackMaxATRw,
			VIXMidThreshold:      g.VIXMidThreshold,
			VIXHighThreshold:     g.VIXHighThreshold,
			VIXMidRegimeMult:     g.VIXMidRegimeMult,
			VIXHighRegimeMult:    g.VIXHighRegimeMult,
			SpikeMult:            g.SpikeMult,
			EntrySizingATRMult:   g.EntrySizingATRMult,
			EntryCatStopATRMult:  g.EntryCatStopATRMult,
			EntryRiskPerTradePct: g.EntryRiskPerTradePct,
			EntryTimeStopDays:    g.EntryTimeStopDays,
			EntryCapitalBase:     g.EntryCapitalBase,
		}
		lv := engine.ComputeLevels(levelsIn)

		snap := engine.ComputeAnomalySnapshot(closes, ind.PriceClose, ind.ATRDaily, ind.SMA50, as)
		anomaly := engine.ComputeAnomalyEvent(snap, as)

		trigger := models.TriggerNone
		if pos.FundamentalTriggers.PendingTrigger != nil {
			trigger = models.ParseTrigger(*pos.FundamentalTriggers.PendingTrigger)
		}

		barDates := make([]string, len(upTo))
		for i, b := range upTo {
			barDates[i] = b.Date
		}

		smIn := engine.Inputs{
			Key:        key,
			Symbol:     symbol,
			BarDate:    date,
			Mode:       pos.Mode,
			State:      pos.State,
			Runtime:    pos.Runtime,
			Targets:    pos.Targets,
			Execution:  pos.Execution,
			EntryPrice: entryPrice,
			HWMClose:   hwmClose,
			BarDates:   barDates,
			PriceClose: ind.PriceClose,
			Indicators: ind,
			Levels:     lv,
			AnomalyHit: anomaly.Fired,
			Trigger:    trigger,
			Settings:   sm,
		}
		result := engine.Apply(smIn)

		pos.Mode = result.Mode
		pos.State = result.State
		pos.Runtime = result.Runtime
		pos.Execution = result.Execution
		pos.Runtime.LastProcessedBarDate = strPtr(date)
		pos.FundamentalTriggers.PendingTrigger = nil
		if hwmClose != nil && modeBefore == models.ModeOwned &&
			(stateBefore == models.StateNormalRun || stateBefore == models.StateSpikeLock) {
			hv := *hwmClose
			hd := decimalToDecimal(hv)
			pos.Runtime.HWMClose = &hd
		}
		pos.Computed = snapshotToComputed(ind, lv, anomaly, snap.Metrics, vixClose)

		decisions = append(decisions, result.Decision)
		if anomaly.Fired {
			events = append(events, models.AnomalyEvent{
				Schema:   models.AnomalySchema,
				BarDate:  date,
				Key:      key,
				Symbol:   symbol,
				Code:     anomaly.Code,
				Severity: anomaly.Severity,
				Metrics:  engine.MetricsToMap(snap.Metrics),
				Text:     anomaly.Text,
			})
			ac := string(anomaly.Code)
			as := string(anomaly.Severity)
			pos.Computed.AnomalyCodeLast = &ac
			pos.Computed.AnomalySeverityLast = &as
		}
	}

	return pos, decisions, events
}

func nonZeroOrNil(f float64) *float64 {
	if f == 0 {
		return nil
	}
	return &f
}

func decimalToFloatPtr(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	v := d.InexactFloat64()
	return &v
}

func decimalToDecimal(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func strPtr(s string) *string { return &s }

// RunDaily loads the store, fetches and merges new bars for every
// position, replays new bars through the engine, persists the result,
// and returns the aggregated run summary. Grounded on run_daily.
func RunDaily(ctx context.Context, r *Runner) (models.DailyRunResult, error) {
	s, err := store.Load(r.StoreLocation)
	if err != nil {
		return models.DailyRunResult{}, err
	}

	vixClose := r.resolveVIXClose(ctx, s.Global.VIXSymbol)

	keys := store.IterPositions(s)
	symbols := make([]string, 0, len(keys))
	symbolForKey := make(map[string]string, len(keys))
	for _, key := range keys {
		pos := s.Positions[key]
		candidates := marketdata.BuildStooqSymbolCandidates(pos.Identity.StooqSymbol, pos.Identity.Ticker, pos.Identity.Exchange)
		symbol := candidates[0]
		symbolForKey[key] = symbol
		symbols = append(symbols, symbol)
	}

	quotes, err := r.Fetcher.FetchLatestQuotesBatched(ctx, symbols)
	if err != nil {
		log.Printf("orchestrator: batched quote fetch failed: %v", err)
		quotes = map[string]marketdata.Quote{}
	}

	var allDecisions []models.DecisionOfDay
	var allEvents []models.AnomalyEvent
	latestBarDate := ""

	for _, key := range keys {
		pos := s.Positions[key]
		symbol := symbolForKey[key]

		q, found := quotes[symbol]
		var fetched []models.Bar
		if found && q.Found {
			fetched = []models.Bar{q.Bar}
		} else {
			bars, ferr := r.Fetcher.FetchLastDays(ctx, symbol, s.Global.StooqFetchDays)
			if ferr != nil {
				allDecisions = append(allDecisions, noNewBarDecision(key, symbol, pos, models.ReasonDataFetchError))
				continue
			}
			fetched = bars
		}

		if marketdata.DetectCorpActionSuspected(append(pos.Buffers.OHLC, fetched...)) {
			allDecisions = append(allDecisions, noNewBarDecision(key, symbol, pos, models.ReasonDataSuspected))
			continue
		}

		merged, _ := marketdata.MergeBars(pos.Buffers.OHLC, fetched, s.Global.BarsBufferMax)
		pos.Buffers.OHLC = merged

		newDates := resolveNewDates(merged, pos.Runtime.LastProcessedBarDate)
		if len(newDates) == 0 {
			allDecisions = append(allDecisions, noNewBarDecision(key, symbol, pos, models.ReasonNoNewBar))
			s.Positions[key] = pos
			continue
		}

		updated, decisions, events := processPosition(key, symbol, pos, newDates, s.Global, vixClose)
		s.Positions[key] = updated
		allDecisions = append(allDecisions, decisions...)
		allEvents = append(allEvents, events...)
		if len(newDates) > 0 && newDates[len(newDates)-1] > latestBarDate {
			latestBarDate = newDates[len(newDates)-1]
		}
	}

	store.TouchMeta(s, latestBarDate)
	if err := store.Save(r.StoreLocation, s); err != nil {
		return models.DailyRunResult{}, err
	}

	result := models.DailyRunResult{
		BarDate:       latestBarDate,
		Decisions:     allDecisions,
		AnomalyEvents: allEvents,
		Summary:       buildSummary(allDecisions, allEvents),
	}
	return result, nil
}

func noNewBarDecision(key, symbol string, pos models.Position, code models.ReasonCode) models.DecisionOfDay {
	return models.DecisionOfDay{
		Schema:      models.DecisionSchema,
		Key:         key,
		Symbol:      symbol,
		Mode:        pos.Mode,
		StateBefore: pos.State,
		StateAfter:  pos.State,
		Action:      models.ActionPayload{Type: models.ActionHold},
		Reason:      models.ReasonPayload{Code: code},
		Targets:     pos.Targets,
		Transitions: models.Transitions{StateBefore: pos.State, StateAfter: pos.State},
	}
}

func buildSummary(decisions []models.DecisionOfDay, events []models.AnomalyEvent) models.Summary {
	var s models.Summary
	s.TotalPositions = len(decisions)
	for _, d := range decisions {
		if d.Transitions.Triggered {
			s.ActionableCount++
		}
	}
	s.AnomalyCountTotal = len(events)
	for _, e := range events {
		switch e.Severity {
		case models.SeverityHigh:
			s.AnomalyCountHigh++
		case models.SeverityInfo:
			s.AnomalyCountInfo++
		}
		if e.Code == models.AnomalyMultidayDrop {
			s.AnomalyCountMultiday++
		}
		if e.Code == models.AnomalyStdPullback {
			s.AnomalyCountStdPullback++
		}
	}
	return s
}
