package negflo

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/montanaflynn/stats"

	"github.com/hydrokit/negflo/pkg/errors"
)

// Report summarizes one pass over every column of a table.
type Report struct {
	Name      string         `json:"name,omitempty"`
	Mode      Mode           `json:"mode"`
	FlowLimit float64        `json:"flow_limit"`
	Columns   []ColumnReport `json:"columns"`
}

// ColumnReport summarizes one column. Totals describe the residual before
// the pass; means are taken over realized values only.
type ColumnReport struct {
	Column        string  `json:"column"`
	Values        int     `json:"values"`
	Missing       int     `json:"missing"`
	TotalPositive float64 `json:"total_positive"`
	TotalNegative float64 `json:"total_negative"`
	AboveLimit    float64 `json:"above_limit"`
	MeanBefore    float64 `json:"mean_before"`
	MeanAfter     float64 `json:"mean_after"`
	Clipped       float64 `json:"clipped,omitempty"`
	Leftover      float64 `json:"leftover"`
	Events        []Event `json:"events,omitempty"`
}

// Column returns the report for the named column.
func (r *Report) Column(name string) (ColumnReport, bool) {
	for _, c := range r.Columns {
		if c.Column == name {
			return c, true
		}
	}
	return ColumnReport{}, false
}

// Unresolved returns the number of columns with leftover negative volume.
func (r *Report) Unresolved() int {
	n := 0
	for _, c := range r.Columns {
		if c.Leftover != 0 {
			n++
		}
	}
	return n
}

// Overflow rebuilds the leftover map from the column reports.
func (r *Report) Overflow() Overflow {
	o := make(Overflow, len(r.Columns))
	for _, c := range r.Columns {
		o[c.Column] = c.Leftover
	}
	return o
}

// WriteFile writes the report as indented JSON.
func (r *Report) WriteFile(path string) error {
	return writeJSON(path, r)
}

func newColumnReport(column string, missing int, before []float64, limit float64, pass Pass) ColumnReport {
	var pos, neg, above []float64
	for _, v := range before {
		switch {
		case v > 0:
			pos = append(pos, v)
		case v < 0:
			neg = append(neg, v)
		}
		if v >= limit {
			above = append(above, v-limit)
		}
	}
	return ColumnReport{
		Column:        column,
		Values:        len(before),
		Missing:       missing,
		TotalPositive: sum(pos),
		TotalNegative: sum(neg),
		AboveLimit:    sum(above),
		MeanBefore:    mean(before),
		MeanAfter:     mean(pass.Series),
		Clipped:       pass.Clipped,
		Leftover:      pass.Leftover,
		Events:        pass.Events,
	}
}

// sum and mean return 0 for empty input so reports always encode as JSON.
func sum(data []float64) float64 {
	s, err := stats.Sum(data)
	if err != nil {
		return 0
	}
	return s
}

func mean(data []float64) float64 {
	m, err := stats.Mean(data)
	if err != nil {
		return 0
	}
	return m
}

// RunLog is the record written next to the artifacts of [Engine.RunAll].
type RunLog struct {
	RunID     string              `json:"run_id"`
	Name      string              `json:"name,omitempty"`
	FlowLimit float64             `json:"flow_limit"`
	Created   time.Time           `json:"created"`
	Modes     map[string]*Report  `json:"modes"`
	Overflow  map[string]Overflow `json:"overflow"`
}

// NewRunLog starts a run log with a fresh run ID.
func NewRunLog(name string, flowLimit float64) *RunLog {
	return &RunLog{
		RunID:     uuid.NewString(),
		Name:      name,
		FlowLimit: flowLimit,
		Created:   time.Now().UTC(),
		Modes:     make(map[string]*Report),
		Overflow:  make(map[string]Overflow),
	}
}

// Add records the report of one mode.
func (l *RunLog) Add(r *Report) {
	l.Modes[r.Mode.String()] = r
	l.Overflow[r.Mode.String()] = r.Overflow()
}

// WriteFile writes the run log as indented JSON.
func (l *RunLog) WriteFile(path string) error {
	return writeJSON(path, l)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "encode %s", path)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "create directory %s", dir)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
	}
	return nil
}
