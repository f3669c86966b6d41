package negflo

import (
	"sort"

	"github.com/hydrokit/negflo/pkg/errors"
)

// Overflow maps each column to the negative volume its last pass could not
// redistribute. A zero entry means the column was fully resolved.
type Overflow map[string]float64

// Unresolved returns the sorted names of columns with leftover volume.
func (o Overflow) Unresolved() []string {
	var names []string
	for name, v := range o {
		if v != 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Total returns the summed leftover across columns.
func (o Overflow) Total() float64 {
	total := 0.0
	for _, v := range o {
		total += v
	}
	return total
}

// Err returns an [errors.OverflowError] listing unresolved columns, or nil.
// Callers that treat leftover volume as fatal use it; the engine never does.
func (o Overflow) Err() error {
	names := o.Unresolved()
	if len(names) == 0 {
		return nil
	}
	leftover := make(map[string]float64, len(names))
	for _, name := range names {
		leftover[name] = o[name]
	}
	return &errors.OverflowError{Leftover: leftover}
}

func (o Overflow) clone() Overflow {
	out := make(Overflow, len(o))
	for k, v := range o {
		out[k] = v
	}
	return out
}
