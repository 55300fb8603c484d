package mathutil

import (
	"math"
	"strconv"
)

// Round rounds x to the given number of decimal places.
// The exact binary value of x is rounded, with exact ties going to the even digit,
// so Round(2.675, 2) = 2.67 (2.675 is stored as 2.67499999...) and Round(0.125, 2) = 0.12.
func Round(x float64, places int) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	if places < 0 {
		places = 0
	}

	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', places, 64), 64)
	if err != nil {
		return x
	}
	return r
}

// Round2 rounds to two decimal places (price/currency display precision).
func Round2(x float64) float64 {
	return Round(x, 2)
}

// AlmostEqual reports whether a and b differ by at most delta.
func AlmostEqual(a, b, delta float64) bool {
	return math.Abs(a-b) <= delta
}
