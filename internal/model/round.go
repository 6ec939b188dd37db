package model

import "github.com/shopspring/decimal"

// Round2 rounds a quantity to two decimal places for storage. Calculations
// chain on unrounded values and round once at the point a value is stored.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}
