package engine

import (
	"testing"

	"psm_watchlist/internal/models"
)

func defaultAnomalySettings() AnomalySettings {
	return AnomalySettings{
		ROCShortPeriod:       5,
		ROCLongPeriod:        20,
		MomentumWarnShort:    -2.0,
		MomentumWarnLong:     -1.5,
		DrawdownLookback:     20,
		DrawdownAbnormal:     2.8,
		DrawdownExtreme:      4.5,
		FixedDailyDropPct:    8.0,
		MultidayAvgWindow:    20,
		MultidayRatioAbn:     1.5,
		MultidayRatioExtreme: 2.5,
		MultidayMinRatio:     0.9,
		MultidayMin3dPct:     4.0,
		MultidayMin5dPct:     6.0,
		MultidayMinDownDays:  3,
		MultidayFocusEnabled: true,
		StdWindow:            20,
		StdMinWindow:         8,
		DrawdownMinLookback:  5,
		SmaFallbackMinWindow: 10,
		RecentTrendSigma:     2.8,
		RecentTrendDays:      4,
		StdPullbackSigma:     -1.0,
		TrendSMA50Lookback:   10,
		TrendSMA50Threshold:  -0.002,
		TrendDrawdownMin:     2.0,
	}
}

func floatp(f float64) *float64 { return &f }

func TestClassifyAnomaly_FixedDailyDropTakesPriority(t *testing.T) {
	m := Metrics{OneDayReturnPct: floatp(-9.0)}
	code, ok := ClassifyAnomaly(m, defaultAnomalySettings())
	if !ok || code != models.AnomalyFixedDailyDrop {
		t.Fatalf("code = %v ok=%v, want FIXED_DAILY_DROP/true", code, ok)
	}
}

func TestClassifyAnomaly_ExtremeBeatsAbnormalDrawdown(t *testing.T) {
	m := Metrics{
		Close:         floatp(90),
		SMA50:         floatp(100),
		ATRPct:        floatp(2.0),
		DrawdownInATR: floatp(5.0),
	}
	code, ok := ClassifyAnomaly(m, defaultAnomalySettings())
	if !ok || code != models.AnomalyExtremeDrawdown {
		t.Fatalf("code = %v ok=%v, want EXTREME_DRAWDOWN/true", code, ok)
	}
}

func TestClassifyAnomaly_AbnormalDrawdownWhenBelowExtremeThreshold(t *testing.T) {
	m := Metrics{
		Close:         floatp(90),
		SMA50:         floatp(100),
		ATRPct:        floatp(2.0),
		DrawdownInATR: floatp(3.2),
	}
	code, ok := ClassifyAnomaly(m, defaultAnomalySettings())
	if !ok || code != models.AnomalyAbnormalDrawdown {
		t.Fatalf("code = %v ok=%v, want ABNORMAL_DRAWDOWN/true", code, ok)
	}
}

func TestClassifyAnomaly_AbnormalDrawdownRequiresCloseBelowSMA50(t *testing.T) {
	m := Metrics{
		Close:         floatp(110),
		SMA50:         floatp(100),
		ATRPct:        floatp(2.0),
		DrawdownInATR: floatp(3.2),
	}
	if _, ok := ClassifyAnomaly(m, defaultAnomalySettings()); ok {
		t.Fatalf("expected no anomaly when close is above sma50")
	}
}

func TestClassifyAnomaly_MomentumWarn(t *testing.T) {
	m := Metrics{ROC5Norm: floatp(-2.5), ROC20Norm: floatp(-2.0)}
	code, ok := ClassifyAnomaly(m, defaultAnomalySettings())
	if !ok || code != models.AnomalyMomentumWarn {
		t.Fatalf("code = %v ok=%v, want MOMENTUM_WARN/true", code, ok)
	}
}

func TestClassifyAnomaly_TrendDeterioration(t *testing.T) {
	m := Metrics{
		Close:         floatp(90),
		SMA50:         floatp(100),
		SMA50Slope10d: floatp(-0.01),
		DrawdownInATR: floatp(2.5),
	}
	code, ok := ClassifyAnomaly(m, defaultAnomalySettings())
	if !ok || code != models.AnomalyTrendDeterioration {
		t.Fatalf("code = %v ok=%v, want TREND_DETERIORATION/true", code, ok)
	}
}

func TestClassifyAnomaly_TrendDeteriorationRequiresCloseBelowSMA50(t *testing.T) {
	m := Metrics{
		Close:         floatp(110),
		SMA50:         floatp(100),
		SMA50Slope10d: floatp(-0.01),
		DrawdownInATR: floatp(2.5),
	}
	if _, ok := ClassifyAnomaly(m, defaultAnomalySettings()); ok {
		t.Fatalf("expected no anomaly when close is above sma50")
	}
}

func TestClassifyAnomaly_RecentAbnormalTrendFiresOnUp(t *testing.T) {
	dir := "UP"
	m := Metrics{
		ATRPct:               floatp(2.0),
		RecentTrendSigmaAbs:  floatp(3.0),
		RecentTrendDirection: &dir,
		UpDays5d:             4,
	}
	code, ok := ClassifyAnomaly(m, defaultAnomalySettings())
	if !ok || code != models.AnomalyRecentAbnormalTrend {
		t.Fatalf("code = %v ok=%v, want RECENT_ABNORMAL_TREND/true", code, ok)
	}
}

func TestClassifyAnomaly_RecentAbnormalTrendFiresOnDown(t *testing.T) {
	dir := "DOWN"
	m := Metrics{
		ATRPct:               floatp(2.0),
		RecentTrendSigmaAbs:  floatp(3.0),
		RecentTrendDirection: &dir,
		DownDays5d:           4,
	}
	code, ok := ClassifyAnomaly(m, defaultAnomalySettings())
	if !ok || code != models.AnomalyRecentAbnormalTrend {
		t.Fatalf("code = %v ok=%v, want RECENT_ABNORMAL_TREND/true", code, ok)
	}
}

func TestClassifyAnomaly_StdPullbackIsLowestPriority(t *testing.T) {
	m := Metrics{
		ATRPct:              floatp(2.0),
		OneDayReturnInSigma: floatp(-1.2),
		OneDayReturnPct:     floatp(-0.5),
	}
	code, ok := ClassifyAnomaly(m, defaultAnomalySettings())
	if !ok || code != models.AnomalyStdPullback {
		t.Fatalf("code = %v ok=%v, want STD_PULLBACK/true", code, ok)
	}
}

func TestClassifyAnomaly_StdPullbackRequiresNegativeOneDayReturn(t *testing.T) {
	m := Metrics{
		ATRPct:              floatp(2.0),
		OneDayReturnInSigma: floatp(-1.2),
		OneDayReturnPct:     floatp(0.5),
	}
	if _, ok := ClassifyAnomaly(m, defaultAnomalySettings()); ok {
		t.Fatalf("expected no anomaly when one-day return is non-negative")
	}
}

func TestClassifyAnomaly_MultidayDropFocus(t *testing.T) {
	m := Metrics{
		DownDays5d: 3,
		Drop3dPct:  floatp(-5.0),
	}
	code, ok := ClassifyAnomaly(m, defaultAnomalySettings())
	if !ok || code != models.AnomalyMultidayDrop {
		t.Fatalf("code = %v ok=%v, want MULTIDAY_DROP/true", code, ok)
	}
}

func TestClassifyAnomaly_NothingFires(t *testing.T) {
	if _, ok := ClassifyAnomaly(Metrics{}, defaultAnomalySettings()); ok {
		t.Fatalf("expected no anomaly to fire on an empty metrics bag")
	}
}

func TestSeverityFor(t *testing.T) {
	if severityFor(models.AnomalyFixedDailyDrop) != models.SeverityHigh {
		t.Fatalf("expected FIXED_DAILY_DROP to be HIGH severity")
	}
	if severityFor(models.AnomalyStdPullback) != models.SeverityInfo {
		t.Fatalf("expected STD_PULLBACK to be INFO severity")
	}
}

func TestComputeAnomalyEvent_NoFireReturnsZeroValue(t *testing.T) {
	snap := Snapshot{Metrics: Metrics{}}
	result := ComputeAnomalyEvent(snap, defaultAnomalySettings())
	if result.Fired {
		t.Fatalf("expected Fired=false on an empty metrics bag")
	}
}

func TestComputeAnomalyEvent_FiresWithSeverityAndText(t *testing.T) {
	snap := Snapshot{Metrics: Metrics{OneDayReturnPct: floatp(-9.0)}}
	result := ComputeAnomalyEvent(snap, defaultAnomalySettings())
	if !result.Fired || result.Code != models.AnomalyFixedDailyDrop {
		t.Fatalf("expected FIXED_DAILY_DROP to fire, got %+v", result)
	}
	if result.Severity != models.SeverityHigh {
		t.Fatalf("expected HIGH severity, got %v", result.Severity)
	}
	if result.Text == "" {
		t.Fatalf("expected non-empty event text")
	}
}

func TestBuildMetrics_ComputesATRPctAndNormalizedROC(t *testing.T) {
	closes := make([]float64, 0, 30)
	base := 100.0
	for i := 0; i < 25; i++ {
		closes = append(closes, base)
		base += 0.1
	}
	atr := 2.0
	m := BuildMetrics(closes, closes[len(closes)-1], &atr, nil, defaultAnomalySettings())
	if m.ATRPct == nil {
		t.Fatalf("expected atr_pct to be computed")
	}
	want := atr / closes[len(closes)-1] * 100.0
	if *m.ATRPct != want {
		t.Fatalf("atr_pct = %v, want %v", *m.ATRPct, want)
	}
	if m.ROC5Norm == nil {
		t.Fatalf("expected roc_5_norm to be computed once atr_pct>0")
	}
}

func TestBuildMetrics_SMA50FallbackWhenNil(t *testing.T) {
	closes := make([]float64, 0, 12)
	for i := 0; i < 12; i++ {
		closes = append(closes, 100.0+float64(i))
	}
	m := BuildMetrics(closes, closes[len(closes)-1], nil, nil, defaultAnomalySettings())
	if m.SMA50 == nil {
		t.Fatalf("expected sma50 fallback to mean-of-closes when indicator value is nil")
	}
}

func TestBuildMetrics_RecentTrendDirectionIsUppercase(t *testing.T) {
	closes := make([]float64, 0, 30)
	base := 100.0
	for i := 0; i < 25; i++ {
		closes = append(closes, base)
		base += 1.0
	}
	m := BuildMetrics(closes, closes[len(closes)-1], nil, nil, defaultAnomalySettings())
	if m.RecentTrendDirection == nil {
		t.Fatalf("expected recent trend direction to be computed")
	}
	switch *m.RecentTrendDirection {
	case "UP", "DOWN", "FLAT":
	default:
		t.Fatalf("recent trend direction = %q, want UP/DOWN/FLAT", *m.RecentTrendDirection)
	}
}
