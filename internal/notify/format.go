package notify

import (
	"fmt"
	"strings"

	"psm_watchlist/internal/models"
)

// FormatDecisionLine renders one decision as a single Markdown line for
// the daily Telegram digest. Only actionable decisions (per
// Transitions.Triggered) are normally passed in, but the function itself
// makes no such filtering decision.
func FormatDecisionLine(d models.DecisionOfDay) string {
	return fmt.Sprintf("*%s* `%s` → %s (%s)", d.Symbol, d.BarDate, d.Action.Type, d.Reason.Code)
}

// FormatSummary renders a DailyRunResult's headline counters as the
// opening block of the daily digest.
func FormatSummary(r models.DailyRunResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*Daily run — %s*\n", r.BarDate)
	fmt.Fprintf(&b, "Positions: %d, actionable: %d\n", r.Summary.TotalPositions, r.Summary.ActionableCount)
	fmt.Fprintf(&b, "Anomalies: %d (high: %d, info: %d)\n",
		r.Summary.AnomalyCountTotal, r.Summary.AnomalyCountHigh, r.Summary.AnomalyCountInfo)
	return b.String()
}

// FormatDailyMessage assembles the full digest: the summary block
// followed by one line per actionable decision.
func FormatDailyMessage(r models.DailyRunResult) string {
	var b strings.Builder
	b.WriteString(FormatSummary(r))
	for _, d := range r.Decisions {
		if !d.Transitions.Triggered {
			continue
		}
		b.WriteString(FormatDecisionLine(d))
		b.WriteString("\n")
	}
	return b.String()
}
