package models

import "github.com/shopspring/decimal"

// Identity is the static identity of a watched/owned symbol.
type Identity struct {
	Ticker      string `json:"ticker"`
	Exchange    string `json:"exchange"`
	StooqSymbol string `json:"stooq_symbol"`
	Currency    string `json:"currency"`
}

// Targets are the thesis price targets for a position.
type Targets struct {
	BearTotal *decimal.Decimal `json:"bear_total"`
	BaseTotal *decimal.Decimal `json:"base_total"`
	BullTotal *decimal.Decimal `json:"bull_total"`
}

// Execution tracks the live entry of an OWNED position.
type Execution struct {
	EntryPrice        *decimal.Decimal `json:"entry_price"`
	EntryBarDate      *string          `json:"entry_bar_date"`
	TargetWeightPct   *float64         `json:"target_weight_pct"`
	CurrentWeightPct  float64          `json:"current_weight_pct"`
}

// EntryProfile configures the WATCH-mode entry engine for this symbol.
type EntryProfile struct {
	Enabled bool   `json:"enabled"`
	Mode    string `json:"mode"`
}

// FundamentalTriggers is the one-shot external signal inbox the state
// machine consumes once per bar (spec.md §3 invariant: pending_trigger is
// cleared the bar it is read, regardless of whether it changed anything).
type FundamentalTriggers struct {
	PendingTrigger     *string `json:"pending_trigger"`
	LastTriggerBarDate *string `json:"last_trigger_bar_date"`
}

// Runtime holds the mutable bookkeeping the state machine reads and writes
// on every bar: high-water marks, cooldown/re-entry countdowns, the
// same-bar idempotence latch, and sell/warn counters.
type Runtime struct {
	HWMClose                     *decimal.Decimal `json:"hwm_close"`
	HWMBarDate                   *string          `json:"hwm_bar_date"`
	HWMAtExit                    *decimal.Decimal `json:"hwm_at_exit"`
	CooldownStartBarDate         *string          `json:"cooldown_start_bar_date"`
	CooldownBarsLeft             int              `json:"cooldown_bars_left"`
	SpikeLockStartBarDate        *string          `json:"spike_lock_start_bar_date"`
	LastSpikeBarDate             *string          `json:"last_spike_bar_date"`
	ReentryWindowStartBarDate    *string          `json:"reentry_window_start_bar_date"`
	ReentryBarsLeft              int              `json:"reentry_bars_left"`
	BaseSold                     bool             `json:"base_sold"`
	BullSold                     bool             `json:"bull_sold"`
	WarnCount                    int              `json:"warn_count"`
	PermanentExit                bool             `json:"permanent_exit"`
	ConsecutiveClosesBelowSMA200 int              `json:"consecutive_closes_below_sma200"`
	LastProcessedBarDate         *string          `json:"last_processed_bar_date"`
	LastActionBarDate            *string          `json:"last_action_bar_date"`
}

// Buffers holds the rolling OHLC history for a symbol.
type Buffers struct {
	OHLC []Bar `json:"ohlc"`
}

// Computed is the latest indicator/level snapshot, persisted so a reader
// of the store can see "what the engine thinks" without recomputing it.
// All fields are float64 (nullable via pointer): this is derived analytics,
// not a money contract, so it carries the engine's own numeric type all
// the way to rest, matching original_source's plain-float computed dict.
type Computed struct {
	PriceClose           *float64 `json:"price_close"`
	PrevClose            *float64 `json:"prev_close"`
	DayChangePct         *float64 `json:"day_change_pct"`
	HWMClose             *float64 `json:"hwm_close"`
	ATRDaily             *float64 `json:"atr_d"`
	ATRWeekly            *float64 `json:"atr_w"`
	FiveDMove            *float64 `json:"five_d_move"`
	SpikeThreshold       *float64 `json:"spike_threshold"`
	SMA50                *float64 `json:"sma50"`
	SMA200               *float64 `json:"sma200"`
	SMA200Slope          *string  `json:"sma200_slope"`
	TrendUp              *bool    `json:"trend_up"`
	Z20                  *float64 `json:"z20"`
	UpStreak             *int     `json:"up_streak"`
	R3Pct                *float64 `json:"r3_pct"`
	Overheated           *bool    `json:"overheated"`
	SetupOversold        *bool    `json:"setup_oversold"`
	Reversal             *bool    `json:"reversal"`
	EntryRefPrice        *float64 `json:"entry_ref_price"`
	StopLossPrice        *float64 `json:"stop_loss_price"`
	StopDistanceForSize  *float64 `json:"stop_distance_for_size"`
	TimeStopDays         *int     `json:"time_stop_days"`
	SharesHint           *float64 `json:"shares_hint"`
	ChandelierK          *float64 `json:"chandelier_k"`
	ChandelierStop       *float64 `json:"chandelier_stop"`
	GivebackLock         *float64 `json:"giveback_lock"`
	CatastropheFloor     *float64 `json:"catastrophe_floor"`
	EffectiveStop        *float64 `json:"effective_stop"`
	PullbackMin          *float64 `json:"pullback_min"`
	PullbackMax          *float64 `json:"pullback_max"`
	InBand               *bool    `json:"in_band"`
	IsSpike              *bool    `json:"is_spike"`
	VIXClose             *float64 `json:"vix_close"`
	RegimeMult           *float64 `json:"regime_mult"`
	UnrealizedPnLPct     *float64 `json:"unrealized_pnl_pct"`
	ReturnFromHWMPct     *float64 `json:"return_from_hwm_pct"`
	PricedInPct          *float64 `json:"priced_in_pct"`
	GapToBasePct         *float64 `json:"gap_to_base_pct"`
	GapToBullPct         *float64 `json:"gap_to_bull_pct"`
	ROC5Norm             *float64 `json:"roc_5_norm"`
	ROC20Norm            *float64 `json:"roc_20_norm"`
	DrawdownInATR        *float64 `json:"drawdown_in_atr"`
	SMA50Slope10d        *float64 `json:"sma50_slope_10d"`
	ATRPct               *float64 `json:"atr_pct"`
	AnomalyCodeLast      *string  `json:"anomaly_code_last"`
	AnomalySeverityLast  *string  `json:"anomaly_severity_last"`
}

// Position is one watchlist symbol's full persisted record.
type Position struct {
	Identity            Identity            `json:"identity"`
	Mode                Mode                `json:"mode"`
	State               State               `json:"state"`
	Targets             Targets             `json:"targets"`
	Execution           Execution           `json:"execution"`
	EntryProfile        EntryProfile        `json:"entry_profile"`
	ThesisKPIs          map[string]any      `json:"thesis_kpis"`
	FundamentalTriggers FundamentalTriggers `json:"fundamental_triggers"`
	Runtime             Runtime             `json:"runtime"`
	Buffers             Buffers             `json:"buffers"`
	Computed            Computed            `json:"computed"`
}

// Key formats the store's ticker:exchange position key.
func Key(ticker, exchange string) string {
	return ticker + ":" + exchange
}
