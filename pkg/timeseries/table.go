package timeseries

import (
	"math"
	"sort"
	"time"

	"github.com/hydrokit/negflo/pkg/errors"
)

// Table is a column-oriented time series table.
// Values[c][r] is the value of column Columns[c] at Dates[r].
type Table struct {
	Name    string
	Dates   []time.Time
	Columns []string
	Values  [][]float64
}

// NewTable builds a table and checks its shape: dates strictly increasing,
// column names unique and non-empty, and one value per date in every column.
func NewTable(dates []time.Time, columns []string, values [][]float64) (*Table, error) {
	t := &Table{Dates: dates, Columns: columns, Values: values}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the table invariants.
func (t *Table) Validate() error {
	if len(t.Columns) != len(t.Values) {
		return errors.New(errors.ErrCodeInvalidInput, "%d column names for %d columns", len(t.Columns), len(t.Values))
	}
	seen := make(map[string]bool, len(t.Columns))
	for c, name := range t.Columns {
		if name == "" {
			return errors.New(errors.ErrCodeInvalidInput, "column %d has no name", c)
		}
		if seen[name] {
			return errors.New(errors.ErrCodeInvalidInput, "duplicate column %q", name)
		}
		seen[name] = true
		if len(t.Values[c]) != len(t.Dates) {
			return errors.New(errors.ErrCodeInvalidInput, "column %q has %d values for %d dates", name, len(t.Values[c]), len(t.Dates))
		}
	}
	for i := 1; i < len(t.Dates); i++ {
		if !t.Dates[i].After(t.Dates[i-1]) {
			return errors.New(errors.ErrCodeInvalidInput, "dates not strictly increasing at row %d (%s)", i, t.Dates[i].Format(DateFormat))
		}
	}
	return nil
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Dates)
}

// Width returns the number of columns.
func (t *Table) Width() int {
	return len(t.Columns)
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Column returns the values of the named column. The slice is shared with
// the table.
func (t *Table) Column(name string) ([]float64, bool) {
	i := t.ColumnIndex(name)
	if i < 0 {
		return nil, false
	}
	return t.Values[i], true
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{
		Name:    t.Name,
		Dates:   append([]time.Time(nil), t.Dates...),
		Columns: append([]string(nil), t.Columns...),
		Values:  make([][]float64, len(t.Values)),
	}
	for i, col := range t.Values {
		out.Values[i] = append([]float64(nil), col...)
	}
	return out
}

// Between returns a copy of the rows whose dates fall in [start, end].
// A zero start or end leaves that side open.
func (t *Table) Between(start, end time.Time) *Table {
	lo := 0
	if !start.IsZero() {
		lo = sort.Search(len(t.Dates), func(i int) bool { return !t.Dates[i].Before(start) })
	}
	hi := len(t.Dates)
	if !end.IsZero() {
		hi = sort.Search(len(t.Dates), func(i int) bool { return t.Dates[i].After(end) })
	}
	if hi < lo {
		hi = lo
	}

	out := &Table{
		Name:    t.Name,
		Dates:   append([]time.Time(nil), t.Dates[lo:hi]...),
		Columns: append([]string(nil), t.Columns...),
		Values:  make([][]float64, len(t.Values)),
	}
	for i, col := range t.Values {
		out.Values[i] = append([]float64(nil), col[lo:hi]...)
	}
	return out
}

// Residual returns observed minus modelled.
//
// Rows are aligned on the dates present in both tables. Every observed column
// must exist in the modelled table; the result keeps the observed column
// order and takes its name from the observed table. A missing value on
// either side yields a missing residual.
func Residual(observed, modelled *Table) (*Table, error) {
	colIdx := make([]int, len(observed.Columns))
	for c, name := range observed.Columns {
		j := modelled.ColumnIndex(name)
		if j < 0 {
			return nil, errors.New(errors.ErrCodeColumnMismatch, "column %q missing from modelled series", name)
		}
		colIdx[c] = j
	}

	var obsRows, modRows []int
	i, j := 0, 0
	for i < len(observed.Dates) && j < len(modelled.Dates) {
		switch a, b := observed.Dates[i], modelled.Dates[j]; {
		case a.Equal(b):
			obsRows = append(obsRows, i)
			modRows = append(modRows, j)
			i++
			j++
		case a.Before(b):
			i++
		default:
			j++
		}
	}

	out := &Table{
		Name:    observed.Name,
		Dates:   make([]time.Time, len(obsRows)),
		Columns: append([]string(nil), observed.Columns...),
		Values:  make([][]float64, len(observed.Columns)),
	}
	for r, row := range obsRows {
		out.Dates[r] = observed.Dates[row]
	}
	for c := range observed.Columns {
		col := make([]float64, len(obsRows))
		for r := range obsRows {
			col[r] = observed.Values[c][obsRows[r]] - modelled.Values[colIdx[c]][modRows[r]]
		}
		out.Values[c] = col
	}
	return out, nil
}

// Missing is the value stored for a missing observation.
var Missing = math.NaN()

// IsMissing reports whether v represents a missing observation.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}
