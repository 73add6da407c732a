package calculator

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round2 rounds half away from zero to 2 decimal places.
// NaN and infinities are returned unchanged.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
