package spatial

import (
	"math"
)

// BearingDiff returns the smallest angle between two bearings in degrees.
// The result is in [0, 180] and handles the 0/360 wrap, so BearingDiff(350, 10) == 20.
func BearingDiff(b1, b2 float64) float64 {
	diff := math.Mod(math.Abs(b1-b2), 360)
	return math.Min(diff, 360-diff)
}

// BearingVolatility returns the mean BearingDiff over consecutive pairs, in input order.
// ok is false when fewer than two bearings are supplied.
func BearingVolatility(bearings []float64) (volatility float64, ok bool) {
	if len(bearings) < 2 {
		return 0, false
	}

	var sum float64
	for i := 0; i < len(bearings)-1; i++ {
		sum += BearingDiff(bearings[i], bearings[i+1])
	}
	return sum / float64(len(bearings)-1), true
}
