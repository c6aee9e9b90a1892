package engine

import "github.com/shopspring/decimal"

// floatToDecimalPtr converts an engine-side float64 pointer (e.g. a
// computed HWM close) into a decimal.Decimal pointer suitable for a
// models.Runtime money field.
func floatToDecimalPtr(f *float64) *decimal.Decimal {
	if f == nil {
		return nil
	}
	d := decimal.NewFromFloat(*f)
	return &d
}

// decimalToFloat reads a *decimal.Decimal target (e.g. Targets.BaseTotal)
// as a plain float64 for comparison against engine-side price math.
func decimalToFloat(d *decimal.Decimal) float64 {
	if d == nil {
		return 0
	}
	return d.InexactFloat64()
}
