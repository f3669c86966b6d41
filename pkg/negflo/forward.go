package negflo

// Forward pushes each deficit onto the next donor block. A block is
// redistributed when the first value below the limit after it is reached, or
// at the end of the series.
type Forward struct{}

func (Forward) Smooth(series []float64, flowLimit float64, carry bool) Pass {
	var (
		block  Tracker
		acc    float64
		events []Event
		ev     Event
	)
	last := len(series) - 1
	for i, v := range series {
		if v >= flowLimit {
			block.Add(i, v)
		}
		if (v < flowLimit || i == last) && acc != 0 && block.IsTracking() {
			acc, ev = absorb(series, &block, acc, flowLimit)
			events = append(events, ev)
			block.Reset()
			if !carry {
				acc = 0
			}
		}
		if v < 0 {
			acc += v
			series[i] = 0
		}
	}
	return Pass{Series: series, Leftover: acc, Events: events}
}
