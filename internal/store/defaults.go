package store

import "psm_watchlist/internal/models"

// positionDefaults is the scaffold every freshly created or migrated
// position is normalized against, grounded on _position_defaults() in
// original_source/storage/positions_store.py.
func positionDefaults(ticker, exchange string) models.Position {
	return models.Position{
		Identity: models.Identity{
			Ticker:      ticker,
			Exchange:    exchange,
			StooqSymbol: "",
			Currency:    "USD",
		},
		Mode:  models.ModeWatch,
		State: models.StateExitedCooldown,
		Targets: models.Targets{
			BearTotal: nil,
			BaseTotal: nil,
			BullTotal: nil,
		},
		Execution: models.Execution{
			EntryPrice:       nil,
			EntryBarDate:     nil,
			TargetWeightPct:  nil,
			CurrentWeightPct: 0,
		},
		EntryProfile: models.EntryProfile{
			Enabled: true,
			Mode:    "PULLBACK",
		},
		ThesisKPIs: map[string]any{},
		FundamentalTriggers: models.FundamentalTriggers{
			PendingTrigger:     nil,
			LastTriggerBarDate: nil,
		},
		Runtime: models.Runtime{
			HWMClose:                     nil,
			HWMBarDate:                   nil,
			HWMAtExit:                    nil,
			CooldownStartBarDate:         nil,
			CooldownBarsLeft:             0,
			SpikeLockStartBarDate:        nil,
			LastSpikeBarDate:             nil,
			ReentryWindowStartBarDate:    nil,
			ReentryBarsLeft:              0,
			BaseSold:                     false,
			BullSold:                     false,
			WarnCount:                    0,
			PermanentExit:                false,
			ConsecutiveClosesBelowSMA200: 0,
			LastProcessedBarDate:         nil,
			LastActionBarDate:            nil,
		},
		Buffers:  models.Buffers{OHLC: []models.Bar{}},
		Computed: models.Computed{},
	}
}
