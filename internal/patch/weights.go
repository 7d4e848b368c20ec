package patch

import "math"

// weightEpsilon is the largest drift between two weights still treated as
// equal. Renormalizing already normalized weights moves them by a few ULPs.
const weightEpsilon = 1e-9

// NormalizeWeights rescales ws so they sum to 1. The bool is false, and ws
// is returned as is, when ws is empty or its sum is not positive.
func NormalizeWeights(ws []float64) ([]float64, bool) {
	if len(ws) == 0 {
		return ws, false
	}
	var sum float64
	for _, w := range ws {
		sum += w
	}
	if !(sum > 0) || math.IsInf(sum, 0) {
		return ws, false
	}
	out := make([]float64, len(ws))
	for i, w := range ws {
		out[i] = w / sum
	}
	return out, true
}

// weightsMoved reports whether any weight differs beyond weightEpsilon.
func weightsMoved(a, b []float64) bool {
	if len(a) != len(b) {
		return true
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > weightEpsilon {
			return true
		}
	}
	return false
}
