package calculator

import "math"

// windowStart returns the first index of a window of size days ending at end (inclusive).
func windowStart(end, size int) int {
	start := end - size + 1
	if start < 0 {
		start = 0
	}
	return start
}

// HighestClose scans the size closes ending at index end (inclusive) and returns the highest.
// Returns -Inf for an empty window.
func HighestClose(prices []float64, end, size int) float64 {
	high := math.Inf(-1)
	if end >= len(prices) {
		end = len(prices) - 1
	}
	for i := windowStart(end, size); i <= end; i++ {
		if prices[i] > high {
			high = prices[i]
		}
	}
	return high
}

// LowestClose scans the size closes ending at index end (inclusive) and returns the lowest.
// Returns +Inf for an empty window.
func LowestClose(prices []float64, end, size int) float64 {
	low := math.Inf(1)
	if end >= len(prices) {
		end = len(prices) - 1
	}
	for i := windowStart(end, size); i <= end; i++ {
		if prices[i] < low {
			low = prices[i]
		}
	}
	return low
}
