package models

// ActionPayload is the recommended action attached to a DecisionOfDay.
type ActionPayload struct {
	Type           Action   `json:"type"`
	SellPct        *float64 `json:"sell_pct"`
	BuyPctOfTarget *float64 `json:"buy_pct_of_target"`
	PriceHint      *float64 `json:"price_hint"`
}

// ReasonPayload pairs a ReasonCode with its human-readable text.
type ReasonPayload struct {
	Code ReasonCode `json:"code"`
	Text string     `json:"text"`
}

// Transitions records whether a decision actually moved the state machine,
// the signal the orchestrator and the notifier use to decide what is
// actionable versus routine HOLD/WAIT noise.
type Transitions struct {
	Triggered    bool  `json:"triggered"`
	StateBefore  State `json:"state_before"`
	StateAfter   State `json:"state_after"`
}

// DecisionOfDay is one state-machine evaluation for one symbol on one bar.
type DecisionOfDay struct {
	Schema      string         `json:"schema"`
	BarDate     string         `json:"bar_date"`
	Key         string         `json:"key"`
	Symbol      string         `json:"symbol"`
	Mode        Mode           `json:"mode"`
	StateBefore State          `json:"state_before"`
	StateAfter  State          `json:"state_after"`
	Action      ActionPayload  `json:"action"`
	Reason      ReasonPayload  `json:"reason"`
	Levels      Computed       `json:"levels"`
	Targets     Targets        `json:"targets"`
	KPI         map[string]any `json:"kpi"`
	Transitions Transitions    `json:"transitions"`
}

// DecisionSchema is the fixed schema tag for DecisionOfDay documents,
// matching original_source's "psm_v4.decision.v1".
const DecisionSchema = "psm_v4.decision.v1"

// AnomalySchema is the fixed schema tag for AnomalyEvent documents,
// matching original_source's "psm_v4.anomaly.v1".
const AnomalySchema = "psm_v4.anomaly.v1"

// AnomalyEvent is one fired statistical anomaly rule for one symbol/bar.
type AnomalyEvent struct {
	Schema   string                 `json:"schema"`
	BarDate  string                 `json:"bar_date"`
	Key      string                 `json:"key"`
	Symbol   string                 `json:"symbol"`
	Code     AnomalyCode            `json:"code"`
	Severity AnomalySeverity        `json:"severity"`
	Metrics  map[string]any         `json:"metrics"`
	Text     string                 `json:"text"`
}

// Summary aggregates one daily run's headline counters for reporting.
type Summary struct {
	TotalPositions        int  `json:"total_positions"`
	ActionableCount       int  `json:"actionable_count"`
	AnomalyCountTotal     int  `json:"anomaly_count_total"`
	AnomalyCountHigh      int  `json:"anomaly_count_high"`
	AnomalyCountInfo      int  `json:"anomaly_count_info"`
	AnomalyCountMultiday  int  `json:"anomaly_count_multiday_drop"`
	AnomalyCountStdPullback int `json:"anomaly_count_std_pullback"`
	TelegramSent          bool `json:"telegram_sent"`
}

// DailyRunResult is the full output of one orchestrator.RunDaily call.
type DailyRunResult struct {
	BarDate          string          `json:"bar_date"`
	Decisions        []DecisionOfDay `json:"decisions"`
	TelegramMessage  *string         `json:"telegram_message"`
	TelegramMessages []string        `json:"telegram_messages"`
	AnomalyEvents    []AnomalyEvent  `json:"anomaly_events"`
	Summary          Summary         `json:"summary"`
}
