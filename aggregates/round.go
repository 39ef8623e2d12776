package aggregates

import "math"

// Round rounds value to the given number of decimals, halves away from zero.
// Only apply it to final averages, never to running sums.
func Round(value float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(value*p) / p
}

// Round1 rounds to one decimal, the precision of every reported average
func Round1(value float64) float64 {
	return Round(value, 1)
}
