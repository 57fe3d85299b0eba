package simulation

import (
	"math"
	"sort"
)

// meanInts returns the arithmetic mean of values, 0 for an empty slice.
func meanInts(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0
	for _, v := range values {
		sum += v
	}
	return float64(sum) / float64(len(values))
}

// medianInts returns the median of values, averaging the two middle
// elements for even-length input. 0 for an empty slice.
func medianInts(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]int, len(values))
	copy(sorted, values)
	sort.Ints(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return float64(sorted[mid-1]+sorted[mid]) / 2
}

// sampleStdDev returns the sample standard deviation (n-1 denominator)
// of values, 0 when fewer than two samples exist.
func sampleStdDev(values []int) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := meanInts(values)
	varianceSum := 0.0
	for _, v := range values {
		diff := float64(v) - mean
		varianceSum += diff * diff
	}
	return math.Sqrt(varianceSum / float64(len(values)-1))
}
