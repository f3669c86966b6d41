package negflo

import "math"

// Redistribute absorbs the (non-positive) deficit acc into block, whose
// values are all at or above flowLimit.
//
// If the block's excess over the limit exceeds |acc|, the excess is scaled
// down by 1 - |acc|/excess and the returned deficit is zero. Otherwise every
// value is flattened to flowLimit and the excess is added to the deficit,
// which is returned for carry-over. In both cases
// Σ block' = Σ block + acc - acc'.
//
// block is modified in place and returned.
func Redistribute(acc float64, block []float64, flowLimit float64) (float64, []float64) {
	total := excess(block, flowLimit)
	if deficit := math.Abs(acc); total > deficit {
		rf := 1 - deficit/total
		for i, v := range block {
			block[i] = flowLimit + (v-flowLimit)*rf
		}
		return 0, block
	}

	for i := range block {
		block[i] = flowLimit
	}
	return acc + total, block
}

func excess(values []float64, limit float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v - limit
	}
	return sum
}
