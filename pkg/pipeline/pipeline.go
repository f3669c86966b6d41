// Package pipeline runs negflo end to end: load the inputs, build the
// residual, smooth it in one or more modes, and write the artifacts.
//
// The CLI and the API server both go through a Runner so that defaults,
// caching, and logging behave the same everywhere.
//
// # Stages
//
//  1. Load: read a residual CSV, or observed and modelled CSVs and subtract
//     them, then crop to the date window
//  2. Smooth: apply each requested mode, reusing cached artifacts
//  3. Write: save each artifact (and optionally its JSON report)
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    Observed:  "gauged.csv",
//	    Modelled:  "model.csv",
//	    FlowLimit: 0.5,
//	    Modes:     []negflo.Mode{negflo.ModeForward},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, out := range result.Outputs {
//	    fmt.Println(out.Path, out.Overflow.Unresolved())
//	}
package pipeline

import (
	"math"
	"runtime"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hydrokit/negflo/pkg/cache"
	"github.com/hydrokit/negflo/pkg/config"
	"github.com/hydrokit/negflo/pkg/errors"
	"github.com/hydrokit/negflo/pkg/negflo"
	"github.com/hydrokit/negflo/pkg/timeseries"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and API
// =============================================================================

const (
	// DefaultFlowLimit is the flow limit used when none is given.
	DefaultFlowLimit = 0.0

	// DefaultPrefix is the output prefix for run-all.
	DefaultPrefix = "./residual"

	// DefaultMode is the smoothing mode used when none is given.
	DefaultMode = negflo.ModeForward

	// DefaultTTL is how long cached artifacts live.
	DefaultTTL = cache.DefaultTTL
)

// DefaultWorkers returns the default number of columns smoothed in parallel.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Load options
	Observed string    `json:"observed,omitempty"`
	Modelled string    `json:"modelled,omitempty"`
	Residual string    `json:"residual,omitempty"`
	Start    time.Time `json:"start,omitzero"`
	End      time.Time `json:"end,omitzero"`
	Name     string    `json:"name,omitempty"` // Series name used in derived output names

	// Smooth options
	FlowLimit float64       `json:"flow_limit"`
	Modes     []negflo.Mode `json:"modes,omitempty"`
	Workers   int           `json:"workers,omitempty"`
	Refresh   bool          `json:"refresh,omitempty"` // Skip cache reads

	// Write options
	Output string `json:"output,omitempty"` // File for one mode, prefix for several
	Report bool   `json:"report,omitempty"` // Also write <output>.json reports
	Strict bool   `json:"strict,omitempty"` // Fail when negative flow is left over

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// FromConfig builds options from a run file. Modes default to DefaultMode
// when the file lists none.
func FromConfig(cfg *config.Config) (Options, error) {
	modes, err := cfg.ParsedModes()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Observed:  cfg.Observed,
		Modelled:  cfg.Modelled,
		Residual:  cfg.Residual,
		Start:     cfg.Start,
		End:       cfg.End,
		FlowLimit: cfg.FlowLimit,
		Modes:     modes,
		Output:    cfg.Output,
	}, nil
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// RunID identifies the run in logs and run logs.
	RunID string

	// Residual is the loaded (and cropped) residual table.
	Residual *timeseries.Table

	// InputHash is the content hash of the residual.
	InputHash string

	// Outputs holds one entry per smoothed mode, in order.
	Outputs []Output

	// Stats contains timing and size information.
	Stats Stats
}

// Output is the artifact of one mode.
type Output struct {
	Mode     negflo.Mode
	Path     string // empty when nothing was written
	Data     []byte // CSV
	Report   *negflo.Report
	Overflow negflo.Overflow
	CacheHit bool
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Rows       int
	Columns    int
	LoadTime   time.Duration
	SmoothTime time.Duration
	WriteTime  time.Duration
}

// Unresolved returns the outputs that left negative volume behind.
func (r *Result) Unresolved() []Output {
	var out []Output
	for _, o := range r.Outputs {
		if len(o.Overflow.Unresolved()) > 0 {
			out = append(out, o)
		}
	}
	return out
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForLoad(); err != nil {
		return err
	}
	o.SetSmoothDefaults()
	if err := o.validateSmooth(); err != nil {
		return err
	}
	if o.Output != "" {
		if err := errors.ValidateOutputPath(o.Output); err != nil {
			return err
		}
	}
	o.validated = true
	return nil
}

// ValidateForLoad checks the input options.
func (o *Options) ValidateForLoad() error {
	switch {
	case o.Residual != "" && (o.Observed != "" || o.Modelled != ""):
		return errors.New(errors.ErrCodeConfiguration, "give either a residual or observed and modelled series, not both")
	case o.Residual == "" && o.Observed == "" && o.Modelled == "":
		return errors.New(errors.ErrCodeConfiguration, "no input: give a residual or observed and modelled series")
	case o.Residual == "" && (o.Observed == "" || o.Modelled == ""):
		return errors.New(errors.ErrCodeConfiguration, "observed and modelled series are both required")
	}
	if !o.Start.IsZero() && !o.End.IsZero() && o.End.Before(o.Start) {
		return errors.New(errors.ErrCodeConfiguration, "end date %s is before start date %s",
			o.End.Format(timeseries.DateFormat), o.Start.Format(timeseries.DateFormat))
	}
	if o.Name != "" {
		if err := errors.ValidateSeriesName(o.Name); err != nil {
			return err
		}
	}
	return nil
}

// SetSmoothDefaults sets default values for smoothing.
func (o *Options) SetSmoothDefaults() {
	if len(o.Modes) == 0 {
		o.Modes = []negflo.Mode{DefaultMode}
	}
	if o.Workers <= 0 {
		o.Workers = DefaultWorkers()
	}
}

func (o *Options) validateSmooth() error {
	if math.IsNaN(o.FlowLimit) || math.IsInf(o.FlowLimit, 0) {
		return errors.New(errors.ErrCodeConfiguration, "flow limit must be a finite number")
	}
	for _, m := range o.Modes {
		if !m.Valid() {
			return errors.New(errors.ErrCodeInvalidMode, "unknown mode %d", int(m))
		}
	}
	return nil
}

// ArtifactKeyOpts returns the cache key options for one mode.
func (o *Options) ArtifactKeyOpts(mode negflo.Mode) cache.ArtifactKeyOpts {
	opts := cache.ArtifactKeyOpts{Mode: mode.String(), FlowLimit: o.FlowLimit}
	if !o.Start.IsZero() {
		opts.Start = o.Start.Format(timeseries.DateFormat)
	}
	if !o.End.IsZero() {
		opts.End = o.End.Format(timeseries.DateFormat)
	}
	return opts
}
