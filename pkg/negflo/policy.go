package negflo

// Policy smooths a single column of realized (non-missing) values.
//
// Implementations modify series in place and return it in the [Pass]
// together with the deficit left unresolved when the series ends. carry
// selects whether an unresolved deficit survives past a redistribution
// event; policies without block structure ignore it.
type Policy interface {
	Smooth(series []float64, flowLimit float64, carry bool) Pass
}

// Pass is the result of smoothing one column.
type Pass struct {
	Series   []float64
	Leftover float64 // unresolved deficit, always <= 0
	Clipped  float64 // negative volume discarded without redistribution
	Events   []Event
}

// Event records one redistribution of a deficit into a donor block.
type Event struct {
	Start     int     `json:"start"`  // first donor index
	End       int     `json:"end"`    // one past the last donor index
	Donors    int     `json:"donors"` // donor count, less than End-Start for sm1
	Deficit   float64 `json:"deficit"`
	Excess    float64 `json:"excess"`
	Remaining float64 `json:"remaining"`
	From      string  `json:"from,omitempty"`
	To        string  `json:"to,omitempty"`
}

// Absorbed returns the volume moved out of the donors by the event.
func (ev Event) Absorbed() float64 {
	return ev.Remaining - ev.Deficit
}

// absorb redistributes acc into the block held by t and writes the smoothed
// values back into series. The tracker keeps the smoothed values.
func absorb(series []float64, t *Tracker, acc, limit float64) (float64, Event) {
	block, _ := t.Get()
	start, end := t.Indices()
	ev := Event{
		Start:   start,
		End:     end,
		Donors:  len(block),
		Deficit: acc,
		Excess:  excess(block, limit),
	}
	acc, block = Redistribute(acc, block, limit)
	copy(series[start:end], block)
	ev.Remaining = acc
	return acc, ev
}
