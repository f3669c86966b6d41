package negflo

// Bidirectional keeps the donor block on each side of a run of low values
// and hands the deficit to whichever block has the greater excess over the
// limit. Ties go to the right-hand block.
//
// The right block is redistributed into as soon as it ends, so a deficit
// that follows a block is weighed against the block before the gap. The
// final value closes both sides.
type Bidirectional struct{}

func (Bidirectional) Smooth(series []float64, flowLimit float64, carry bool) Pass {
	var (
		left, right Tracker
		acc         float64
		events      []Event
		ev          Event
	)
	last := len(series) - 1
	for i, v := range series {
		final := i == last
		if final {
			if v >= flowLimit {
				right.Add(i, v)
			} else if v < 0 {
				acc += v
				series[i] = 0
			}
		}

		closing := final || (v < flowLimit && right.IsMember(i))
		if closing && acc != 0 && (left.IsTracking() || right.IsTracking()) {
			acc, ev = absorb(series, larger(&left, &right, flowLimit), acc, flowLimit)
			events = append(events, ev)
			if !carry {
				acc = 0
			}
		}
		if final {
			break
		}

		if v >= flowLimit {
			right.Add(i, v)
		} else if right.IsTracking() {
			left = right
			right = Tracker{}
		}
		if v < 0 {
			acc += v
			series[i] = 0
		}
	}
	return Pass{Series: series, Leftover: acc, Events: events}
}

// larger picks the tracking block with the greater excess, preferring right.
func larger(left, right *Tracker, limit float64) *Tracker {
	switch {
	case !left.IsTracking():
		return right
	case !right.IsTracking():
		return left
	case left.Excess(limit) > right.Excess(limit):
		return left
	default:
		return right
	}
}
