package negflo

import (
	"context"
	"io"
	"math"
	"path/filepath"
	"runtime"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/hydrokit/negflo/pkg/errors"
	"github.com/hydrokit/negflo/pkg/observability"
	"github.com/hydrokit/negflo/pkg/timeseries"
)

// DefaultName is used for output files when the residual table has no name.
const DefaultName = "result"

// Engine owns a residual table and applies smoothing modes to it.
//
// Each mode smooths the current residual state, so passes build on one
// another: CL1 followed by SM2 smooths the clipped series. RW1 and [Engine.Reset]
// return to the residual captured by [New]. An Engine is not safe for
// concurrent use; columns within a single pass are smoothed in parallel.
type Engine struct {
	name      string
	flowLimit float64
	original  *timeseries.Table
	residual  *timeseries.Table
	mode      Mode
	overflow  Overflow
	report    *Report
	workers   int
	logger    *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for pass diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithWorkers limits how many columns are smoothed concurrently.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithName overrides the series name used to derive output file names.
func WithName(name string) Option {
	return func(e *Engine) {
		if name != "" {
			e.name = name
		}
	}
}

// New returns an engine over a copy of residual, reset to the raw state.
//
// The copy has exactly one value slice per column name: surplus slices are
// dropped and columns without values are filled with missing values.
func New(residual *timeseries.Table, flowLimit float64, opts ...Option) *Engine {
	if residual == nil {
		residual = &timeseries.Table{}
	}
	e := &Engine{
		name:      residual.Name,
		flowLimit: flowLimit,
		original:  residual.Clone(),
		workers:   runtime.GOMAXPROCS(0),
		logger:    log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.name == "" {
		e.name = DefaultName
	}
	if conform(e.original) {
		e.logger.Warn("residual columns reshaped to match column names",
			"series", e.name,
			"columns", e.original.Width())
	}
	e.Reset()
	return e
}

// conform gives t one value slice per column, each as long as t.Dates.
// It reports whether anything had to change.
func conform(t *timeseries.Table) bool {
	changed := false
	if len(t.Values) != len(t.Columns) {
		values := make([][]float64, len(t.Columns))
		copy(values, t.Values)
		t.Values = values
		changed = true
	}
	for c, col := range t.Values {
		if len(col) == len(t.Dates) {
			continue
		}
		fixed := make([]float64, len(t.Dates))
		n := copy(fixed, col)
		for i := n; i < len(fixed); i++ {
			fixed[i] = math.NaN()
		}
		t.Values[c] = fixed
		changed = true
	}
	return changed
}

// Reset restores the original residual and clears the overflow map.
func (e *Engine) Reset() {
	e.residual = e.original.Clone()
	e.mode = ModeRaw
	e.overflow = make(Overflow, e.original.Width())
	e.report = nil
}

// Residual returns a copy of the current residual state.
func (e *Engine) Residual() *timeseries.Table {
	return e.residual.Clone()
}

// Original returns a copy of the residual the engine was built with.
func (e *Engine) Original() *timeseries.Table {
	return e.original.Clone()
}

// Overflow returns a copy of the leftover map from the last pass.
func (e *Engine) Overflow() Overflow {
	return e.overflow.clone()
}

// Mode returns the mode applied last.
func (e *Engine) Mode() Mode {
	return e.mode
}

// FlowLimit returns the engine's flow limit.
func (e *Engine) FlowLimit() float64 {
	return e.flowLimit
}

// Name returns the series name used for output files.
func (e *Engine) Name() string {
	return e.name
}

// Report returns the summary of the last pass, or nil after a reset.
func (e *Engine) Report() *Report {
	return e.report
}

// RW1 resets the engine to the raw residual.
func (e *Engine) RW1() error { return e.Apply(context.Background(), ModeRaw) }

// CL1 clips negative values to zero.
func (e *Engine) CL1() error { return e.Apply(context.Background(), ModeClip) }

// SM1 applies global smoothing.
func (e *Engine) SM1() error { return e.Apply(context.Background(), ModeGlobal) }

// SM2 applies forward smoothing with carry-over.
func (e *Engine) SM2() error { return e.Apply(context.Background(), ModeForward) }

// SM3 applies forward smoothing without carry-over.
func (e *Engine) SM3() error { return e.Apply(context.Background(), ModeForwardNoCarry) }

// SM4 applies backward smoothing with carry-over.
func (e *Engine) SM4() error { return e.Apply(context.Background(), ModeBackward) }

// SM5 applies backward smoothing without carry-over.
func (e *Engine) SM5() error { return e.Apply(context.Background(), ModeBackwardNoCarry) }

// SM6 is segmented smoothing, which is not implemented.
func (e *Engine) SM6() error { return e.Apply(context.Background(), ModeSegmented) }

// SM7 applies bidirectional smoothing.
func (e *Engine) SM7() error { return e.Apply(context.Background(), ModeBidirectional) }

// Apply smooths every column of the current residual with mode and
// replaces the engine state with the result. ModeRaw resets instead.
//
// Preconditions are checked before anything is touched, and results are only
// committed once every column has finished: on error, including
// cancellation, the engine state is unchanged.
func (e *Engine) Apply(ctx context.Context, mode Mode) error {
	if err := e.check(mode); err != nil {
		return err
	}
	if mode == ModeRaw {
		e.Reset()
		e.report = e.rawReport()
		return nil
	}
	policy, _ := mode.Policy()

	start := time.Now()
	columns := e.residual.Width()
	observability.Smooth().OnPassStart(ctx, mode.String(), columns)

	results, err := e.run(ctx, policy, mode.Carry())
	if err != nil {
		observability.Smooth().OnPassComplete(ctx, mode.String(), columns, 0, time.Since(start), err)
		return err
	}
	e.commit(mode, results)

	unresolved := e.report.Unresolved()
	observability.Smooth().OnPassComplete(ctx, mode.String(), columns, unresolved, time.Since(start), nil)
	e.logger.Debug("pass complete", "mode", mode, "columns", columns, "unresolved", unresolved, "duration", time.Since(start))
	return nil
}

func (e *Engine) check(mode Mode) error {
	if !mode.Valid() {
		return errors.New(errors.ErrCodeInvalidMode, "unknown mode %d", int(mode))
	}
	if mode == ModeSegmented {
		return errors.New(errors.ErrCodeNotImplemented, "%s: segmented smoothing is not implemented", mode)
	}
	if !mode.RequiresNonNegativeLimit() {
		return nil
	}
	if mode == ModeBidirectional && e.flowLimit < 0 {
		return errors.New(errors.ErrCodeInvalidState, "%s: negative flow limit %g is not supported", mode, e.flowLimit)
	}
	return errors.ValidateFlowLimit(e.flowLimit)
}

type columnResult struct {
	values  []float64
	before  []float64
	missing int
	pass    Pass
}

func (e *Engine) run(ctx context.Context, policy Policy, carry bool) ([]columnResult, error) {
	results := make([]columnResult, e.residual.Width())

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for c := range e.residual.Columns {
		col := e.residual.Values[c]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[c] = smoothColumn(col, policy, e.flowLimit, carry)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// smoothColumn runs policy over the realized values of col. Missing values
// keep their position and are skipped, so donors on either side of a gap
// form one block. Event indices are translated back to table rows.
func smoothColumn(col []float64, policy Policy, limit float64, carry bool) columnResult {
	rows := make([]int, 0, len(col))
	series := make([]float64, 0, len(col))
	for i, v := range col {
		if !timeseries.IsMissing(v) {
			rows = append(rows, i)
			series = append(series, v)
		}
	}
	before := append([]float64(nil), series...)

	pass := policy.Smooth(series, limit, carry)

	values := append([]float64(nil), col...)
	for j, i := range rows {
		values[i] = pass.Series[j]
	}
	for k := range pass.Events {
		ev := &pass.Events[k]
		ev.Start = rows[ev.Start]
		ev.End = rows[ev.End-1] + 1
	}
	return columnResult{
		values:  values,
		before:  before,
		missing: len(col) - len(rows),
		pass:    pass,
	}
}

// commit is the single post-step of every pass: it swaps in the smoothed
// columns, records overflow, and warns about unresolved columns.
func (e *Engine) commit(mode Mode, results []columnResult) {
	residual := e.residual.Clone()
	overflow := make(Overflow, len(results))
	report := &Report{Name: e.name, Mode: mode, FlowLimit: e.flowLimit}

	for c, res := range results {
		name := residual.Columns[c]
		residual.Values[c] = res.values
		overflow[name] = res.pass.Leftover
		e.dateEvents(res.pass.Events)
		report.Columns = append(report.Columns, newColumnReport(name, res.missing, res.before, e.flowLimit, res.pass))

		if res.pass.Leftover != 0 {
			e.logger.Warn("negative flow remaining after pass",
				"series", e.name,
				"column", name,
				"mode", mode,
				"leftover", res.pass.Leftover)
		}
	}

	e.residual = residual
	e.overflow = overflow
	e.mode = mode
	e.report = report
}

func (e *Engine) dateEvents(events []Event) {
	dates := e.original.Dates
	for k := range events {
		ev := &events[k]
		if ev.End <= len(dates) && ev.Start < ev.End {
			ev.From = dates[ev.Start].Format(timeseries.DateFormat)
			ev.To = dates[ev.End-1].Format(timeseries.DateFormat)
		}
	}
}

func (e *Engine) rawReport() *Report {
	report := &Report{Name: e.name, Mode: ModeRaw, FlowLimit: e.flowLimit}
	for c, col := range e.original.Values {
		var realized []float64
		for _, v := range col {
			if !timeseries.IsMissing(v) {
				realized = append(realized, v)
			}
		}
		pass := Pass{Series: realized}
		report.Columns = append(report.Columns,
			newColumnReport(e.original.Columns[c], len(col)-len(realized), realized, e.flowLimit, pass))
		e.overflow[e.original.Columns[c]] = 0
	}
	return report
}

// Artifact is one file written by [Engine.RunAll].
type Artifact struct {
	Mode Mode
	Path string
}

// RunAll applies every mode in [RunAllModes] in turn, resetting to the
// original residual before each, and writes <prefix><ext> for each. Segmented smoothing
// is skipped with an error-level diagnostic. A JSON run log is written to
// <prefix>.log. The engine is reset when RunAll returns.
func (e *Engine) RunAll(ctx context.Context, prefix string) ([]Artifact, error) {
	defer e.Reset()

	runLog := NewRunLog(e.name, e.flowLimit)

	var artifacts []Artifact
	for _, mode := range RunAllModes() {
		if mode == ModeSegmented {
			e.logger.Error("SM6 not implemented", "mode", mode)
			continue
		}
		e.Reset()
		if err := e.Apply(ctx, mode); err != nil {
			return artifacts, err
		}
		path, err := e.ToFile(prefix + mode.Extension())
		if err != nil {
			return artifacts, err
		}
		artifacts = append(artifacts, Artifact{Mode: mode, Path: path})
		runLog.Add(e.report)
		e.logger.Info("wrote artifact", "mode", mode, "path", path)
	}

	if err := runLog.WriteFile(prefix + ".log"); err != nil {
		return artifacts, err
	}
	return artifacts, nil
}

// ToFile writes the current residual as CSV. An empty name derives one from
// the series name and the current mode; a name without an extension gets the
// mode's extension appended. It returns the path written.
func (e *Engine) ToFile(name string) (string, error) {
	if name == "" {
		name = e.name + e.mode.Extension()
	}
	if err := errors.ValidateOutputPath(name); err != nil {
		return "", err
	}
	if filepath.Ext(name) == "" {
		name += e.mode.Extension()
	}
	if err := timeseries.WriteCSV(e.residual, name, nil); err != nil {
		return "", err
	}
	return name, nil
}

// Encode writes the current residual as CSV to w.
func (e *Engine) Encode(w io.Writer) error {
	return timeseries.WriteCSVTo(w, e.residual, nil)
}

// WriteReport writes the last pass's report as JSON.
func (e *Engine) WriteReport(path string) error {
	if e.report == nil {
		return errors.New(errors.ErrCodeInvalidState, "no pass has been applied")
	}
	return e.report.WriteFile(path)
}
