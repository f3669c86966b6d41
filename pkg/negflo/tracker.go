package negflo

import "github.com/hydrokit/negflo/pkg/errors"

// Tracker accumulates one contiguous run of (index, value) pairs.
//
// The tracker owns copies of the values it holds; callers write smoothed
// values back to the series through [Tracker.Indices]. The zero value is an
// empty tracker ready for use.
type Tracker struct {
	start    int
	last     int
	values   []float64
	tracking bool
}

// Add appends v at index i. An untracked tracker starts a new run at i; an
// index adjacent to the current run extends it; any other index silently
// discards the run and starts a new one, so callers must redistribute before
// adding a non-adjacent index.
func (t *Tracker) Add(i int, v float64) {
	switch {
	case !t.tracking:
		t.ResetTo(i, v)
	case t.IsMember(i):
		t.last = i
		t.values = append(t.values, v)
	default:
		t.ResetTo(i, v)
	}
}

// IsTracking reports whether a value has been added since the last reset.
func (t *Tracker) IsTracking() bool {
	return t.tracking
}

// IsMember reports whether i lies in or immediately next to the current run.
func (t *Tracker) IsMember(i int) bool {
	return t.tracking && t.start-1 <= i && i <= t.last+1
}

// Get returns the tracked values in index order. The slice is the tracker's
// own buffer: redistributing it in place updates the tracker.
func (t *Tracker) Get() ([]float64, error) {
	if !t.tracking {
		return nil, errors.New(errors.ErrCodeInvalidState, "tracker is not tracking anything")
	}
	return t.values, nil
}

// Indices returns the half-open index range [start, end) of the run.
func (t *Tracker) Indices() (start, end int) {
	return t.start, t.start + len(t.values)
}

// Len returns the number of tracked values.
func (t *Tracker) Len() int {
	return len(t.values)
}

// Excess returns Σ(v - limit) over the tracked values.
func (t *Tracker) Excess(limit float64) float64 {
	return excess(t.values, limit)
}

// Reset clears the tracker.
func (t *Tracker) Reset() {
	*t = Tracker{}
}

// ResetTo re-seeds the tracker with a run of values starting at index i.
// With no values it behaves like Reset.
func (t *Tracker) ResetTo(i int, values ...float64) {
	if len(values) == 0 {
		t.Reset()
		return
	}
	t.start = i
	t.last = i + len(values) - 1
	t.values = append(make([]float64, 0, len(values)), values...)
	t.tracking = true
}
