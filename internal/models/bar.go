package models

import "github.com/shopspring/decimal"

// Bar is one OHLCV daily candle. Dates are ISO strings (see civildate.go);
// price fields are decimal.Decimal, matching the teacher's models.Bar
// convention of never using float64 for money at rest. The engine package
// converts to float64 at its boundary for indicator/statistical math.
type Bar struct {
	Date   string          `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// Closes extracts the float64 close series in bar order, the entry point
// every indicator/anomaly computation uses.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close.InexactFloat64()
	}
	return out
}

// Equal reports whether two bars describe the same session identically,
// used by the merge step to detect a changed (restated) bar.
func (b Bar) Equal(other Bar) bool {
	return b.Date == other.Date &&
		b.Open.Equal(other.Open) &&
		b.High.Equal(other.High) &&
		b.Low.Equal(other.Low) &&
		b.Close.Equal(other.Close) &&
		b.Volume == other.Volume
}
