// Package money provides the currency arithmetic shared by every pipeline stage.
//
// All amounts are float64 values in major units (e.g. 12.34 EUR). Every
// multiplication or summation that produces a currency value is passed through
// Round2 before it is stored or compared; rounded values are never compounded
// without re-rounding.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// Epsilon is added before scaling to counteract binary representation error
// (e.g. 1.005 is stored as 1.00499999999999989...).
const Epsilon = 2.220446049250313e-16

// Round2 rounds x to two decimals: floor((x + Epsilon) * 100 + 0.5) / 100.
// Round2(Round2(x)) == Round2(x) for all finite x.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	r := math.Floor((x+Epsilon)*100+0.5) / 100
	if r == 0 {
		// normalize -0
		return 0
	}
	return r
}

// IsZero reports whether x rounds to zero cents.
func IsZero(x float64) bool {
	return Round2(x) == 0
}

// Equal compares two amounts after rounding both.
func Equal(a, b float64) bool {
	return Round2(a) == Round2(b)
}

// Sub returns round2(round2(a) - round2(b)).
func Sub(a, b float64) float64 {
	return Round2(Round2(a) - Round2(b))
}

// Mul returns round2(a * b).
func Mul(a, b float64) float64 {
	return Round2(a * b)
}

// Add adds b to a running total and re-rounds.
func Add(total, b float64) float64 {
	return Round2(total + b)
}

// Sum adds values left to right, re-rounding after every addition.
func Sum(values ...float64) float64 {
	var total float64
	for _, v := range values {
		total = Add(total, v)
	}
	return total
}

// Abs returns the rounded absolute value of x.
func Abs(x float64) float64 {
	return Round2(math.Abs(x))
}

// Fixed2 renders x rounded to exactly two decimals ("10.00").
func Fixed2(x float64) string {
	return decimal.NewFromFloat(Round2(x)).StringFixed(2)
}

// Canonical renders x in its shortest decimal form ("10", "10.5", "0.1").
// It is the number format used for hashing.
func Canonical(x float64) string {
	return decimal.NewFromFloat(x).String()
}
