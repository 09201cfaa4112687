package evo

import (
	"math"
	"slices"
)

// compareLoss orders losses ascending with NaN after every comparable value.
// Two NaNs compare equal, which keeps the ordering a strict weak order.
func compareLoss(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)
	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return 1
	case bNaN:
		return -1
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// SortLosses sorts losses in place, NaN last.
func SortLosses(losses []float64) {
	slices.SortStableFunc(losses, compareLoss)
}

// SpawnCount is the number of individuals replaced per generation: the
// floored fraction of size, clamped to size-1 so the elite survives, rounded
// down to an even number because children are bred in pairs.
func SpawnCount(size int, percentage float32) int {
	if size <= 0 {
		return 0
	}
	n := int(float32(size) * percentage)
	n = min(n, size-1)
	return n &^ 1
}
