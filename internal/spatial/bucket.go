package spatial

import (
	"math"
	"strconv"
)

// Bucket precisions used for cache partitioning.
const (
	BucketPrecisionKm    = 2 // ~1 km
	BucketPrecisionBlock = 3 // ~100 m
	maxBucketPrecision   = 8
	bucketSeparator      = ":"
)

// BucketKey rounds both coordinates to precision decimal places and joins them,
// e.g. BucketKey(32.0712, 34.7801, 2) == "32.07:34.78". Coordinates that round to
// the same pair always produce the same key.
func BucketKey(lat, lon float64, precision int) string {
	if precision < 0 {
		precision = 0
	}
	if precision > maxBucketPrecision {
		precision = maxBucketPrecision
	}
	return formatBucket(roundTo(lat, precision)) + bucketSeparator + formatBucket(roundTo(lon, precision))
}

func roundTo(v float64, precision int) float64 {
	scale := math.Pow10(precision)
	return math.Round(v*scale) / scale
}

func formatBucket(v float64) string {
	if v == 0 {
		// fold -0 into 0
		v = 0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
