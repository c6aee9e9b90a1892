package models

// Global is the store's deep-merged tunable settings document. It is a
// concrete struct rather than a raw map: Go's idiom (per the teacher's
// config.Config) is a typed settings struct with named defaults, and
// unmarshaling a persisted store blob into a DefaultGlobalSettings()-seeded
// struct already gives every field the deep-merge behavior the original
// Python's _deep_merge provides (any field absent from the stored JSON
// keeps its default, any field present overrides it).
type Global struct {
	ATRPeriod                          int      `json:"atr_period"`
	ATRDailyToWeekly                   float64  `json:"atr_daily_to_weekly"`
	SpikeMult                          float64  `json:"spike_mult"`
	VIXSymbol                          string   `json:"vix_symbol"`
	VIXMidThreshold                    float64  `json:"vix_mid_threshold"`
	VIXHighThreshold                   float64  `json:"vix_high_threshold"`
	VIXMidRegimeMult                   float64  `json:"vix_mid_regime_mult"`
	VIXHighRegimeMult                  float64  `json:"vix_high_regime_mult"`
	SMA50Period                        int      `json:"sma50_period"`
	SMA200Period                       int      `json:"sma200_period"`
	SMA200SlopeLookback                int      `json:"sma200_slope_lookback"`
	TrendBreakBufferPct                float64  `json:"trend_break_buffer_pct"`
	CooldownSessions                   int      `json:"cooldown_sessions"`
	SpikeLockSessions                  int      `json:"spike_lock_sessions"`
	ReentryWindowSessions              int      `json:"reentry_window_sessions"`
	ReentryPullbackMinATRw             float64  `json:"reentry_pullback_min_atrw"`
	ReentryPullbackMaxATRw             float64  `json:"reentry_pullback_max_atrw"`
	CatastropheFloorPct                float64  `json:"catastrophe_floor_pct"`
	BearTotalFloorPct                  float64  `json:"bear_total_floor_pct"`
	ProfitAtBasePct                    float64  `json:"profit_at_base_pct"`
	ProfitAtBullPct                    float64  `json:"profit_at_bull_pct"`
	SpikeSellPctFirst                  float64  `json:"spike_sell_pct_first"`
	SpikeSellPctLow                    float64  `json:"spike_sell_pct_low"`
	SpikeSellPctMid                    float64  `json:"spike_sell_pct_mid"`
	SpikeSellPctHigh                   float64  `json:"spike_sell_pct_high"`
	SpikeSellPnlMidPct                 float64  `json:"spike_sell_pnl_mid_pct"`
	SpikeSellPnlHighPct                float64  `json:"spike_sell_pnl_high_pct"`
	WarnSellPct                        float64  `json:"warn_sell_pct"`
	ReentryPositionPct                 float64  `json:"reentry_position_pct"`
	AnomalyMomentumROCShortPeriod      int      `json:"anomaly_momentum_roc_short_period"`
	AnomalyMomentumROCLongPeriod       int      `json:"anomaly_momentum_roc_long_period"`
	AnomalyMomentumWarnShortThreshold  float64  `json:"anomaly_momentum_warn_short_threshold"`
	AnomalyMomentumWarnLongThreshold   float64  `json:"anomaly_momentum_warn_long_threshold"`
	AnomalyDrawdownLookback            int      `json:"anomaly_drawdown_lookback"`
	AnomalyDrawdownAbnormalThreshold   float64  `json:"anomaly_drawdown_abnormal_threshold"`
	AnomalyDrawdownExtremeThreshold    float64  `json:"anomaly_drawdown_extreme_threshold"`
	AnomalyFixedDailyDropThresholdPct  float64  `json:"anomaly_fixed_daily_drop_threshold_pct"`
	AnomalyMultidayAvgWindow           int      `json:"anomaly_multiday_avg_window"`
	AnomalyMultidayDropRatioAbnormal   float64  `json:"anomaly_multiday_drop_ratio_abnormal"`
	AnomalyMultidayDropRatioExtreme    float64  `json:"anomaly_multiday_drop_ratio_extreme"`
	AnomalyMultidayDropFocusEnabled    bool     `json:"anomaly_multiday_drop_focus_enabled"`
	AnomalyMultidayDropMin3dPct        float64  `json:"anomaly_multiday_drop_min_3d_pct"`
	AnomalyMultidayDropMin5dPct        float64  `json:"anomaly_multiday_drop_min_5d_pct"`
	AnomalyMultidayDropMinDownDays     int      `json:"anomaly_multiday_drop_min_down_days"`
	AnomalyMultidayDropMinRatio        float64  `json:"anomaly_multiday_drop_min_ratio"`
	AnomalyStdWindow                   int      `json:"anomaly_std_window"`
	AnomalyStdMinWindow                int      `json:"anomaly_std_min_window"`
	AnomalyDrawdownMinLookback         int      `json:"anomaly_drawdown_min_lookback"`
	AnomalySmaFallbackMinWindow        int      `json:"anomaly_sma_fallback_min_window"`
	AnomalyRecentTrendSigmaThreshold   float64  `json:"anomaly_recent_trend_sigma_threshold"`
	AnomalyRecentTrendConsistentDays   int      `json:"anomaly_recent_trend_consistent_days"`
	AnomalyStdPullbackSigmaThreshold   float64  `json:"anomaly_std_pullback_sigma_threshold"`
	AnomalyTrendSMA50SlopeLookback     int      `json:"anomaly_trend_sma50_slope_lookback"`
	AnomalyTrendSMA50SlopeThreshold    float64  `json:"anomaly_trend_sma50_slope_threshold"`
	AnomalyTrendDrawdownMin            float64  `json:"anomaly_trend_drawdown_min"`
	BarsBufferMax                      int      `json:"bars_buffer_max"`
	StooqFetchDays                     int      `json:"stooq_fetch_days"`
	StooqQuotesBatchSize               int      `json:"stooq_quotes_batch_size"`
	StooqSeedDays                      int      `json:"stooq_seed_days"`
	StooqFallbackDays                  int      `json:"stooq_fallback_days"`
	EntryMVPEnabled                    bool     `json:"entry_mvp_enabled"`
	EntryModeDefault                   string   `json:"entry_mode_default"`
	EntrySetupMetric                   string   `json:"entry_setup_metric"`
	EntryZ20Window                     int      `json:"entry_z20_window"`
	EntryZ20MinWindow                  int      `json:"entry_z20_min_window"`
	EntryZ20Threshold                  float64  `json:"entry_z20_threshold"`
	EntryATRMinPeriod                  int      `json:"entry_atr_min_period"`
	EntryOverheatUpstreak              int      `json:"entry_overheat_upstreak"`
	EntryOverheatR3Pct                 float64  `json:"entry_overheat_r3_pct"`
	EntryMinPrice                      float64  `json:"entry_min_price"`
	EntryTimeStopDays                  int      `json:"entry_time_stop_days"`
	EntrySizingATRMult                 float64  `json:"entry_sizing_atr_mult"`
	EntryCatStopATRMult                float64  `json:"entry_cat_stop_atr_mult"`
	EntryRiskPerTradePct               float64  `json:"entry_risk_per_trade_pct"`
	EntryCapitalBase                   *float64 `json:"entry_capital_base"`
}

// DefaultGlobalSettings returns the authoritative defaults, exact values
// grounded on original_source/storage/positions_store.py's
// default_global_settings().
func DefaultGlobalSettings() Global {
	return Global{
		ATRPeriod:                         14,
		ATRDailyToWeekly:                  2.2,
		SpikeMult:                         2.5,
		VIXSymbol:                         "^vix",
		VIXMidThreshold:                   25.0,
		VIXHighThreshold:                  30.0,
		VIXMidRegimeMult:                  1.15,
		VIXHighRegimeMult:                 1.30,
		SMA50Period:                       50,
		SMA200Period:                      200,
		SMA200SlopeLookback:               20,
		TrendBreakBufferPct:               0.005,
		CooldownSessions:                  5,
		SpikeLockSessions:                 10,
		ReentryWindowSessions:             40,
		ReentryPullbackMinATRw:            1.5,
		ReentryPullbackMaxATRw:            4.0,
		CatastropheFloorPct:               0.70,
		BearTotalFloorPct:                 0.90,
		ProfitAtBasePct:                   0.25,
		ProfitAtBullPct:                   0.25,
		SpikeSellPctFirst:                 0.25,
		SpikeSellPctLow:                   0.20,
		SpikeSellPctMid:                   0.25,
		SpikeSellPctHigh:                  0.30,
		SpikeSellPnlMidPct:                20.0,
		SpikeSellPnlHighPct:               40.0,
		WarnSellPct:                       0.30,
		ReentryPositionPct:                0.50,
		AnomalyMomentumROCShortPeriod:     5,
		AnomalyMomentumROCLongPeriod:      20,
		AnomalyMomentumWarnShortThreshold: -2.0,
		AnomalyMomentumWarnLongThreshold:  -1.5,
		AnomalyDrawdownLookback:           20,
		AnomalyDrawdownAbnormalThreshold:  2.8,
		AnomalyDrawdownExtremeThreshold:   4.5,
		AnomalyFixedDailyDropThresholdPct: 8.0,
		AnomalyMultidayAvgWindow:          20,
		AnomalyMultidayDropRatioAbnormal:  1.8,
		AnomalyMultidayDropRatioExtreme:   2.6,
		AnomalyMultidayDropFocusEnabled:   false,
		AnomalyMultidayDropMin3dPct:       4.0,
		AnomalyMultidayDropMin5dPct:       6.0,
		AnomalyMultidayDropMinDownDays:    3,
		AnomalyMultidayDropMinRatio:       0.9,
		AnomalyStdWindow:                  20,
		AnomalyStdMinWindow:               8,
		AnomalyDrawdownMinLookback:        5,
		AnomalySmaFallbackMinWindow:       10,
		AnomalyRecentTrendSigmaThreshold:  2.8,
		AnomalyRecentTrendConsistentDays:  4,
		AnomalyStdPullbackSigmaThreshold:  -1.0,
		AnomalyTrendSMA50SlopeLookback:    10,
		AnomalyTrendSMA50SlopeThreshold:   -0.002,
		AnomalyTrendDrawdownMin:           2.0,
		BarsBufferMax:                     260,
		StooqFetchDays:                    10,
		StooqQuotesBatchSize:              8,
		StooqSeedDays:                     400,
		StooqFallbackDays:                 400,
		EntryMVPEnabled:                   true,
		EntryModeDefault:                  "PULLBACK",
		EntrySetupMetric:                  "z20",
		EntryZ20Window:                    20,
		EntryZ20MinWindow:                 10,
		EntryZ20Threshold:                 -1.5,
		EntryATRMinPeriod:                 5,
		EntryOverheatUpstreak:             5,
		EntryOverheatR3Pct:                12.0,
		EntryMinPrice:                     5.0,
		EntryTimeStopDays:                 7,
		EntrySizingATRMult:                2.0,
		EntryCatStopATRMult:               3.0,
		EntryRiskPerTradePct:              1.0,
		EntryCapitalBase:                  nil,
	}
}
