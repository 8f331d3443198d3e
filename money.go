package cashcow

import "github.com/shopspring/decimal"

// RoundToCents rounds a monetary float64 to two decimal places at the
// display boundary. Internal arithmetic throughout the engine and
// calculators stays float64 (spec §4.3 "Numeric semantics"); decimal is
// used only here, where a presented number needs to stop accumulating
// binary-floating-point noise.
func RoundToCents(v float64) float64 {
	d := decimal.NewFromFloat(v).Round(2)
	f, _ := d.Float64()
	return f
}
