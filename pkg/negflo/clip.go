package negflo

// Clip zeroes negative values. The discarded volume is reported in
// [Pass.Clipped]; nothing is redistributed.
type Clip struct{}

func (Clip) Smooth(series []float64, _ float64, _ bool) Pass {
	clipped := 0.0
	for i, v := range series {
		if v < 0 {
			clipped += v
			series[i] = 0
		}
	}
	return Pass{Series: series, Clipped: clipped}
}
