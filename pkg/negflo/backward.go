package negflo

// Backward pulls each deficit back onto the preceding donor block. Negative
// values are accumulated first; the deficit is redistributed at the next
// non-negative value, or at the end of the series, before that value joins a
// new block.
type Backward struct{}

func (Backward) Smooth(series []float64, flowLimit float64, carry bool) Pass {
	var (
		block  Tracker
		acc    float64
		events []Event
		ev     Event
	)
	last := len(series) - 1
	for i, v := range series {
		if v < 0 {
			acc += v
			series[i] = 0
		}
		if (v >= 0 || i == last) && acc != 0 && block.IsTracking() {
			acc, ev = absorb(series, &block, acc, flowLimit)
			events = append(events, ev)
			block.Reset()
			if !carry {
				acc = 0
			}
		}
		if v >= flowLimit {
			block.Add(i, v)
		}
	}
	return Pass{Series: series, Leftover: acc, Events: events}
}
