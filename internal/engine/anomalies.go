package engine

import (
	"math"

	"psm_watchlist/internal/models"
)

// AnomalySettings bundles the anomaly-detection windows and thresholds from
// models.Global the classifier needs, kept separate from the storage
// layer so the engine package has no dependency on it beyond models.
type AnomalySettings struct {
	ROCShortPeriod       int
	ROCLongPeriod        int
	MomentumWarnShort    float64
	MomentumWarnLong     float64
	DrawdownLookback     int
	DrawdownAbnormal     float64
	DrawdownExtreme      float64
	FixedDailyDropPct    float64
	MultidayAvgWindow    int
	MultidayRatioAbn     float64
	MultidayRatioExtreme float64
	MultidayFocusEnabled bool
	MultidayMin3dPct     float64
	MultidayMin5dPct     float64
	MultidayMinDownDays  int
	MultidayMinRatio     float64
	StdWindow            int
	StdMinWindow         int
	DrawdownMinLookback  int
	SmaFallbackMinWindow int
	RecentTrendSigma     float64
	RecentTrendDays      int
	StdPullbackSigma     float64
	TrendSMA50Lookback   int
	TrendSMA50Threshold  float64
	TrendDrawdownMin     float64
}

// Metrics is the full computed-metrics bag the classifier reasons over,
// also persisted verbatim as an AnomalyEvent's Metrics payload. Grounded
// on _build_metrics.
type Metrics struct {
	Close                *float64
	ATRPct               *float64
	OneDayReturnPct      *float64
	ROC5                 *float64
	ROC20                *float64
	ROC5Norm             *float64
	ROC20Norm            *float64
	SigmaLog20           *float64
	OneDayReturnInSigma  *float64
	Return3dPct          *float64
	Return3dInSigma      *float64
	Return5dPct          *float64
	Return5dInSigma      *float64
	RecentTrendSigmaAbs  *float64
	RecentTrendDirection *string
	UpDays5d             int
	DownDays5d           int
	AvgAbsDailyChangePct *float64
	Drop3dPct            *float64
	Drop5dPct            *float64
	MultidayDropRatio    *float64
	DrawdownPct          *float64
	DrawdownInATR        *float64
	SMA50                *float64
	SMA50Slope10d        *float64
}

func logReturns(closes []float64) []float64 {
	out := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] <= 0 || closes[i] <= 0 {
			continue
		}
		out = append(out, math.Log(closes[i]/closes[i-1]))
	}
	return out
}

func roc(closes []float64, period int) (float64, bool) {
	n := len(closes)
	if n < period+1 {
		return 0, false
	}
	base := closes[n-1-period]
	if base == 0 {
		return 0, false
	}
	return (closes[n-1] - base) / base * 100.0, true
}

func cumulativeReturn(closes []float64, days int) (float64, bool) {
	n := len(closes)
	if n < days+1 {
		return 0, false
	}
	base := closes[n-1-days]
	if base == 0 {
		return 0, false
	}
	return (closes[n-1] - base) / base * 100.0, true
}

// populationStdev computes the population standard deviation (divides by
// n, not n-1), distinct from the sample-variance stdev used by Zscore.
// Grounded on _stdev.
func populationStdev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mu := mean(xs)
	sumSq := 0.0
	for _, x := range xs {
		d := x - mu
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(xs)))
}

func smaLookbackAgo(closes []float64, period, lookback int) (float64, bool) {
	if lookback <= 0 {
		return 0, false
	}
	cutoff := len(closes) - lookback
	if cutoff < period {
		return 0, false
	}
	return SMA(closes[:cutoff], period)
}

// BuildMetrics computes the full metrics bag for the latest bar, grounded
// on _build_metrics. priceClose/atrDaily are today's indicator readings;
// sma50 is the indicator-computed 50-day average, with a mean-of-closes
// fallback (matching the Python reference) when it isn't available yet.
func BuildMetrics(closes []float64, priceClose float64, atrDaily *float64, sma50In *float64, s AnomalySettings) Metrics {
	m := Metrics{}
	n := len(closes)
	if n == 0 {
		return m
	}

	closeVal := priceClose
	m.Close = &closeVal

	sma50 := sma50In
	if sma50 == nil {
		window := n
		if window > 50 {
			window = 50
		}
		if window >= s.SmaFallbackMinWindow {
			v := mean(closes[n-window:])
			sma50 = &v
		}
	}
	m.SMA50 = sma50

	var atrPct *float64
	if closeVal > 0 && atrDaily != nil {
		v := *atrDaily / closeVal * 100.0
		atrPct = &v
	}
	m.ATRPct = atrPct

	if v, ok := roc(closes, s.ROCShortPeriod); ok {
		m.ROC5 = &v
		if atrPct != nil && *atrPct > 0 {
			norm := v / *atrPct
			m.ROC5Norm = &norm
		}
	}
	if v, ok := roc(closes, s.ROCLongPeriod); ok {
		m.ROC20 = &v
		if atrPct != nil && *atrPct > 0 {
			norm := v / *atrPct
			m.ROC20Norm = &norm
		}
	}

	if n >= 2 && closes[n-2] != 0 {
		v := (closes[n-1] - closes[n-2]) / closes[n-2] * 100.0
		m.OneDayReturnPct = &v
	}

	logs := logReturns(closes)
	window := s.StdWindow
	if window > len(logs) {
		window = len(logs)
	}
	var sigma *float64
	if window >= s.StdMinWindow {
		sample := logs[len(logs)-window:]
		sd := populationStdev(sample)
		if sd > 0 {
			sigma = &sd
			m.SigmaLog20 = sigma
		}
	}

	if len(logs) > 0 && sigma != nil {
		v := logs[len(logs)-1] / *sigma
		m.OneDayReturnInSigma = &v
	}

	if v, ok := cumulativeReturn(closes, 3); ok {
		m.Return3dPct = &v
		m.Drop3dPct = &v
	}
	if v, ok := cumulativeReturn(closes, 5); ok {
		m.Return5dPct = &v
		m.Drop5dPct = &v
	}

	if sigma != nil && len(logs) >= 3 {
		sum := 0.0
		for _, lr := range logs[len(logs)-3:] {
			sum += lr
		}
		v := sum / (*sigma * math.Sqrt(3.0))
		m.Return3dInSigma = &v
	}
	if sigma != nil && len(logs) >= 5 {
		sum := 0.0
		for _, lr := range logs[len(logs)-5:] {
			sum += lr
		}
		v := sum / (*sigma * math.Sqrt(5.0))
		m.Return5dInSigma = &v
	}

	type candidate struct {
		value float64
	}
	var candidates []candidate
	if m.Return3dInSigma != nil {
		candidates = append(candidates, candidate{*m.Return3dInSigma})
	}
	if m.Return5dInSigma != nil {
		candidates = append(candidates, candidate{*m.Return5dInSigma})
	}
	if len(candidates) > 0 {
		best := candidates[0].value
		for _, c := range candidates[1:] {
			if math.Abs(c.value) > math.Abs(best) {
				best = c.value
			}
		}
		abs := math.Abs(best)
		m.RecentTrendSigmaAbs = &abs
		dir := "FLAT"
		if best > 0 {
			dir = "UP"
		} else if best < 0 {
			dir = "DOWN"
		}
		m.RecentTrendDirection = &dir
	}

	dailyChangePct := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		if closes[i-1] == 0 {
			continue
		}
		dailyChangePct = append(dailyChangePct, (closes[i]-closes[i-1])/closes[i-1]*100.0)
	}

	recentWindow := dailyChangePct
	if len(recentWindow) > 5 {
		recentWindow = recentWindow[len(recentWindow)-5:]
	}
	up, down := 0, 0
	for _, v := range recentWindow {
		if v > 0 {
			up++
		} else if v < 0 {
			down++
		}
	}
	m.UpDays5d = up
	m.DownDays5d = down

	if len(dailyChangePct) > 0 {
		avgWindow := dailyChangePct
		if s.MultidayAvgWindow > 0 && len(avgWindow) > s.MultidayAvgWindow {
			avgWindow = avgWindow[len(avgWindow)-s.MultidayAvgWindow:]
		}
		sumAbs := 0.0
		for _, v := range avgWindow {
			sumAbs += math.Abs(v)
		}
		avg := sumAbs / float64(len(avgWindow))
		m.AvgAbsDailyChangePct = &avg
	}

	var dropRatio3d, dropRatio5d *float64
	if m.AvgAbsDailyChangePct != nil && *m.AvgAbsDailyChangePct > 0 {
		if m.Drop3dPct != nil && *m.Drop3dPct < 0 {
			v := math.Abs(*m.Drop3dPct) / (*m.AvgAbsDailyChangePct * 3.0)
			dropRatio3d = &v
		}
		if m.Drop5dPct != nil && *m.Drop5dPct < 0 {
			v := math.Abs(*m.Drop5dPct) / (*m.AvgAbsDailyChangePct * 5.0)
			dropRatio5d = &v
		}
	}
	if dropRatio3d != nil || dropRatio5d != nil {
		best := 0.0
		set := false
		if dropRatio3d != nil {
			best = *dropRatio3d
			set = true
		}
		if dropRatio5d != nil && (!set || *dropRatio5d > best) {
			best = *dropRatio5d
			set = true
		}
		if set {
			m.MultidayDropRatio = &best
		}
	}

	lookback := s.DrawdownLookback
	if lookback > n {
		lookback = n
	}
	if lookback >= s.DrawdownMinLookback {
		peakWindow := closes[n-lookback:]
		peak := peakWindow[0]
		for _, c := range peakWindow {
			if c > peak {
				peak = c
			}
		}
		if peak > 0 {
			dd := (closeVal - peak) / peak * 100.0
			m.DrawdownPct = &dd
			if atrPct != nil && *atrPct > 0 {
				ddATR := math.Abs(dd) / *atrPct
				m.DrawdownInATR = &ddATR
			}
		}
	}

	if sma50 != nil {
		if past, ok := smaLookbackAgo(closes, 50, s.TrendSMA50Lookback); ok && past != 0 {
			slope := (*sma50 - past) / past
			m.SMA50Slope10d = &slope
		}
	}

	return m
}

// Snapshot is the anomaly detector's full metrics bag for one bar, kept
// alongside the classification result so both can be attached to a
// DecisionOfDay/AnomalyEvent.
type Snapshot struct {
	Metrics Metrics
}

// ComputeAnomalySnapshot wraps BuildMetrics for the detector's entrypoint
// shape, grounded on compute_anomaly_snapshot.
func ComputeAnomalySnapshot(closes []float64, priceClose float64, atrDaily *float64, sma50 *float64, s AnomalySettings) Snapshot {
	return Snapshot{Metrics: BuildMetrics(closes, priceClose, atrDaily, sma50, s)}
}

func eventText(code models.AnomalyCode) string {
	switch code {
	case models.AnomalyFixedDailyDrop:
		return "Fixed daily drop threshold breached."
	case models.AnomalyMultidayDrop:
		return "Multi-day decline ratio above threshold."
	case models.AnomalyExtremeDrawdown:
		return "Extreme drawdown from recent peak."
	case models.AnomalyAbnormalDrawdown:
		return "Abnormal drawdown from recent peak."
	case models.AnomalyMomentumWarn:
		return "Short and long-term momentum both deteriorating."
	case models.AnomalyTrendDeterioration:
		return "50-day trend slope turned down alongside a drawdown."
	case models.AnomalyRecentAbnormalTrend:
		return "Recent consistent-direction move is statistically abnormal."
	case models.AnomalyStdPullback:
		return "One-day return pulled back beyond the standard deviation threshold."
	default:
		return ""
	}
}

func severityFor(code models.AnomalyCode) models.AnomalySeverity {
	switch code {
	case models.AnomalyFixedDailyDrop, models.AnomalyMultidayDrop, models.AnomalyExtremeDrawdown,
		models.AnomalyAbnormalDrawdown, models.AnomalyMomentumWarn:
		return models.SeverityHigh
	default:
		return models.SeverityInfo
	}
}

// ClassifyAnomaly runs the 8-code priority chain against one bar's
// metrics, returning (code, ok) with ok false if nothing fired. Grounded
// on compute_anomaly_event's if/elif chain, preserved in exact priority
// order: fixed daily drop, multiday drop focus, extreme drawdown,
// abnormal drawdown, momentum warn, trend deterioration, recent abnormal
// trend, std pullback.
func ClassifyAnomaly(m Metrics, s AnomalySettings) (models.AnomalyCode, bool) {
	atrPctPositive := m.ATRPct != nil && *m.ATRPct > 0

	fixedDailyDrop := m.OneDayReturnPct != nil && *m.OneDayReturnPct <= -math.Abs(s.FixedDailyDropPct)

	multidayAbnormal := atrPctPositive && m.MultidayDropRatio != nil && *m.MultidayDropRatio >= s.MultidayRatioAbn
	multidayExtreme := atrPctPositive && m.MultidayDropRatio != nil && *m.MultidayDropRatio >= s.MultidayRatioExtreme

	multidayDropFocus := s.MultidayFocusEnabled && m.DownDays5d >= s.MultidayMinDownDays &&
		((m.Drop3dPct != nil && *m.Drop3dPct <= -math.Abs(s.MultidayMin3dPct)) ||
			(m.Drop5dPct != nil && *m.Drop5dPct <= -math.Abs(s.MultidayMin5dPct))) &&
		(m.MultidayDropRatio == nil || *m.MultidayDropRatio >= s.MultidayMinRatio)

	extremeDrawdown := (m.DrawdownInATR != nil && *m.DrawdownInATR >= s.DrawdownExtreme) || multidayExtreme

	abnormalDrawdown := m.Close != nil && m.SMA50 != nil && *m.Close < *m.SMA50 &&
		((m.DrawdownInATR != nil && *m.DrawdownInATR >= s.DrawdownAbnormal) || multidayAbnormal)

	momentumWarn := m.ROC5Norm != nil && m.ROC20Norm != nil &&
		*m.ROC5Norm < s.MomentumWarnShort && *m.ROC20Norm < s.MomentumWarnLong

	trendDeterioration := m.Close != nil && m.SMA50 != nil && m.SMA50Slope10d != nil && m.DrawdownInATR != nil &&
		*m.Close < *m.SMA50 && *m.SMA50Slope10d < s.TrendSMA50Threshold && *m.DrawdownInATR >= s.TrendDrawdownMin

	recentAbnormalTrend := atrPctPositive && m.RecentTrendSigmaAbs != nil && *m.RecentTrendSigmaAbs >= s.RecentTrendSigma &&
		m.RecentTrendDirection != nil && (*m.RecentTrendDirection == "UP" || *m.RecentTrendDirection == "DOWN") &&
		(m.UpDays5d >= s.RecentTrendDays || m.DownDays5d >= s.RecentTrendDays)

	stdPullback := atrPctPositive && m.OneDayReturnInSigma != nil && *m.OneDayReturnInSigma <= s.StdPullbackSigma &&
		m.OneDayReturnPct != nil && *m.OneDayReturnPct < 0

	switch {
	case fixedDailyDrop:
		return models.AnomalyFixedDailyDrop, true
	case multidayDropFocus:
		return models.AnomalyMultidayDrop, true
	case extremeDrawdown:
		return models.AnomalyExtremeDrawdown, true
	case abnormalDrawdown:
		return models.AnomalyAbnormalDrawdown, true
	case momentumWarn:
		return models.AnomalyMomentumWarn, true
	case trendDeterioration:
		return models.AnomalyTrendDeterioration, true
	case recentAbnormalTrend:
		return models.AnomalyRecentAbnormalTrend, true
	case stdPullback:
		return models.AnomalyStdPullback, true
	}
	return "", false
}

// AnomalyResult pairs a fired code with its severity and display text.
type AnomalyResult struct {
	Code     models.AnomalyCode
	Severity models.AnomalySeverity
	Text     string
	Fired    bool
}

// ComputeAnomalyEvent runs ClassifyAnomaly and assembles the full result,
// grounded on compute_anomaly_event.
func ComputeAnomalyEvent(snap Snapshot, s AnomalySettings) AnomalyResult {
	code, ok := ClassifyAnomaly(snap.Metrics, s)
	if !ok {
		return AnomalyResult{}
	}
	return AnomalyResult{
		Code:     code,
		Severity: severityFor(code),
		Text:     eventText(code),
		Fired:    true,
	}
}

// MetricsToMap flattens Metrics into a map for AnomalyEvent.Metrics,
// matching original_source's dict-of-floats persisted metrics payload.
func MetricsToMap(m Metrics) map[string]any {
	out := map[string]any{}
	put := func(k string, v *float64) {
		if v != nil {
			out[k] = *v
		}
	}
	put("close", m.Close)
	put("atr_pct", m.ATRPct)
	put("one_day_return_pct", m.OneDayReturnPct)
	put("roc_5", m.ROC5)
	put("roc_20", m.ROC20)
	put("roc_5_norm", m.ROC5Norm)
	put("roc_20_norm", m.ROC20Norm)
	put("sigma_log_20", m.SigmaLog20)
	put("one_day_return_in_sigma", m.OneDayReturnInSigma)
	put("return_3d_pct", m.Return3dPct)
	put("return_3d_in_sigma", m.Return3dInSigma)
	put("return_5d_pct", m.Return5dPct)
	put("return_5d_in_sigma", m.Return5dInSigma)
	put("recent_trend_sigma_abs", m.RecentTrendSigmaAbs)
	put("avg_abs_daily_change_pct", m.AvgAbsDailyChangePct)
	put("drop_3d_pct", m.Drop3dPct)
	put("drop_5d_pct", m.Drop5dPct)
	put("multiday_drop_ratio", m.MultidayDropRatio)
	put("drawdown_pct", m.DrawdownPct)
	put("drawdown_in_atr", m.DrawdownInATR)
	put("sma50", m.SMA50)
	put("sma50_slope_10d", m.SMA50Slope10d)
	out["up_days_5d"] = m.UpDays5d
	out["down_days_5d"] = m.DownDays5d
	if m.RecentTrendDirection != nil {
		out["recent_trend_direction"] = *m.RecentTrendDirection
	}
	return out
}
