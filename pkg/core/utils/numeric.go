package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// SafeDiv returns numerator/denominator, or 0 when the denominator is zero or
// the quotient is not a finite number.
func SafeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	q := numerator / denominator
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0
	}
	return q
}

// Round rounds half away from zero to the given number of decimal places.
// Non-finite input rounds to 0.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
