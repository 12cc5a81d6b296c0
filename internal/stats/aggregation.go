package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Mean calculates the arithmetic mean of a slice of float64 values.
// ok is false for an empty slice.
func Mean(values []float64) (mean float64, ok bool) {
	if len(values) == 0 {
		return 0, false
	}
	return stat.Mean(values, nil), true
}

// StdDev calculates the sample standard deviation (n-1 denominator).
// ok is false when fewer than two values are supplied.
func StdDev(values []float64) (stddev float64, ok bool) {
	if len(values) < 2 {
		return 0, false
	}
	return stat.StdDev(values, nil), true
}

// Round rounds v to the given number of decimal places, half away from zero.
func Round(v float64, decimals int) float64 {
	scale := math.Pow10(decimals)
	return math.Round(v*scale) / scale
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
