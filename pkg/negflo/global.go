package negflo

// Global sums every negative value in the series into one deficit and
// redistributes it in a single step over all donors, contiguous or not.
type Global struct{}

func (Global) Smooth(series []float64, flowLimit float64, _ bool) Pass {
	acc := 0.0
	for i, v := range series {
		if v < 0 {
			acc += v
			series[i] = 0
		}
	}
	if acc == 0 {
		return Pass{Series: series}
	}

	var (
		index  []int
		donors []float64
	)
	for i, v := range series {
		if v >= flowLimit {
			index = append(index, i)
			donors = append(donors, v)
		}
	}
	if len(donors) == 0 {
		return Pass{Series: series, Leftover: acc}
	}

	ev := Event{
		Start:   index[0],
		End:     index[len(index)-1] + 1,
		Donors:  len(donors),
		Deficit: acc,
		Excess:  excess(donors, flowLimit),
	}
	acc, donors = Redistribute(acc, donors, flowLimit)
	for j, i := range index {
		series[i] = donors[j]
	}
	ev.Remaining = acc
	return Pass{Series: series, Leftover: acc, Events: []Event{ev}}
}
