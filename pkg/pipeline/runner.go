package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/hydrokit/negflo/pkg/cache"
	"github.com/hydrokit/negflo/pkg/errors"
	"github.com/hydrokit/negflo/pkg/negflo"
	"github.com/hydrokit/negflo/pkg/observability"
	"github.com/hydrokit/negflo/pkg/timeseries"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Close releases the runner's cache.
func (r *Runner) Close() error {
	return r.Cache.Close()
}

// Execute runs the complete load → smooth → write pipeline.
//
// With one mode the artifact is written to opts.Output (a name without an
// extension gets the mode's extension; an empty name is derived from the
// series name). With several modes opts.Output is a prefix.
//
// In strict mode leftover negative volume fails the run with a
// RESIDUAL_OVERFLOW error after the artifacts are written.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	loadStart := time.Now()
	tbl, err := r.Load(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	loadTime := time.Since(loadStart)

	result, err := r.Process(ctx, tbl, opts)
	if err != nil {
		return nil, err
	}
	result.Stats.LoadTime = loadTime

	writeStart := time.Now()
	if err := r.Write(ctx, result, opts); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	result.Stats.WriteTime = time.Since(writeStart)

	if opts.Strict {
		if err := strictError(result); err != nil {
			return result, err
		}
	}
	return result, nil
}

// RunAll smooths with every implemented mode and writes <prefix><ext> for
// each plus a JSON run log at <prefix>.log. Segmented smoothing is skipped
// with an error-level diagnostic.
func (r *Runner) RunAll(ctx context.Context, opts Options) (*Result, error) {
	logger := r.logger(opts)

	opts.Modes = nil
	for _, mode := range negflo.RunAllModes() {
		if mode == negflo.ModeSegmented {
			logger.Error("SM6 not implemented", "mode", mode)
			continue
		}
		opts.Modes = append(opts.Modes, mode)
	}
	if opts.Output == "" {
		opts.Output = DefaultPrefix
	}
	strict := opts.Strict
	opts.Strict = false

	result, err := r.Execute(ctx, opts)
	if err != nil {
		return nil, err
	}

	runLog := negflo.NewRunLog(result.Residual.Name, opts.FlowLimit)
	runLog.RunID = result.RunID
	for _, out := range result.Outputs {
		runLog.Add(out.Report)
	}
	if err := runLog.WriteFile(opts.Output + ".log"); err != nil {
		return nil, fmt.Errorf("write: %w", err)
	}
	logger.Info("wrote run log", "path", opts.Output+".log", "run_id", result.RunID)

	if strict {
		if err := strictError(result); err != nil {
			return result, err
		}
	}
	return result, nil
}

// Process smooths an already loaded residual with every mode in opts and
// returns the artifacts without writing them.
func (r *Runner) Process(ctx context.Context, tbl *timeseries.Table, opts Options) (*Result, error) {
	opts.SetSmoothDefaults()
	if err := opts.validateSmooth(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	logger := r.logger(opts)

	var buf bytes.Buffer
	if err := timeseries.WriteCSVTo(&buf, tbl, nil); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode residual")
	}
	result := &Result{
		RunID:     uuid.NewString(),
		Residual:  tbl,
		InputHash: cache.Hash(buf.Bytes()),
		Stats:     Stats{Rows: tbl.Len(), Columns: tbl.Width()},
	}

	engine := negflo.New(tbl, opts.FlowLimit,
		negflo.WithLogger(logger),
		negflo.WithWorkers(opts.Workers),
		negflo.WithName(opts.Name))

	smoothStart := time.Now()
	for _, mode := range opts.Modes {
		out, err := r.Smooth(ctx, engine, result.InputHash, mode, opts)
		if err != nil {
			return nil, fmt.Errorf("smooth %s: %w", mode, err)
		}
		result.Outputs = append(result.Outputs, out)
	}
	result.Stats.SmoothTime = time.Since(smoothStart)

	logger.Info("smoothed residual",
		"run_id", result.RunID,
		"modes", len(result.Outputs),
		"columns", result.Stats.Columns,
		"duration", result.Stats.SmoothTime)
	return result, nil
}

// Smooth produces the artifact of one mode, from the cache when possible.
func (r *Runner) Smooth(ctx context.Context, e *negflo.Engine, inputHash string, mode negflo.Mode, opts Options) (Output, error) {
	logger := r.logger(opts)
	keyOpts := opts.ArtifactKeyOpts(mode)
	artifactKey := r.Keyer.ArtifactKey(inputHash, keyOpts)
	reportKey := r.Keyer.ReportKey(inputHash, keyOpts)

	if !opts.Refresh {
		if out, ok := r.cached(ctx, artifactKey, reportKey, mode); ok {
			observability.Cache().OnCacheHit(ctx, "artifact")
			logger.Debug("cache hit", "mode", mode)
			for _, col := range out.Overflow.Unresolved() {
				logger.Warn("negative flow remaining after pass",
					"series", e.Name(),
					"column", col,
					"mode", mode,
					"leftover", out.Overflow[col])
			}
			return out, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	// Cached artifacts are keyed by input and mode alone, so every mode
	// starts from the raw residual.
	e.Reset()
	if err := e.Apply(ctx, mode); err != nil {
		return Output{}, err
	}
	var buf bytes.Buffer
	if err := e.Encode(&buf); err != nil {
		return Output{}, errors.Wrap(errors.ErrCodeInternal, err, "encode %s", mode)
	}
	out := Output{
		Mode:     mode,
		Data:     buf.Bytes(),
		Report:   e.Report(),
		Overflow: e.Overflow(),
	}

	if err := r.Cache.Set(ctx, artifactKey, out.Data, DefaultTTL); err != nil {
		logger.Warn("cache write failed", "mode", mode, "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "artifact", len(out.Data))
	}
	data, err := json.Marshal(out.Report)
	if err != nil {
		logger.Warn("encode report failed", "mode", mode, "error", err)
		return out, nil
	}
	if err := r.Cache.Set(ctx, reportKey, data, DefaultTTL); err != nil {
		logger.Warn("cache write failed", "mode", mode, "key", "report", "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, "report", len(data))
	}
	return out, nil
}

func (r *Runner) cached(ctx context.Context, artifactKey, reportKey string, mode negflo.Mode) (Output, bool) {
	data, hit, err := r.Cache.Get(ctx, artifactKey)
	if err != nil || !hit {
		return Output{}, false
	}
	raw, hit, err := r.Cache.Get(ctx, reportKey)
	if err != nil || !hit {
		return Output{}, false
	}
	var report negflo.Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return Output{}, false
	}
	return Output{
		Mode:     mode,
		Data:     data,
		Report:   &report,
		Overflow: report.Overflow(),
		CacheHit: true,
	}, true
}

// Write saves every artifact of result to its output path and fills in
// Output.Path.
func (r *Runner) Write(ctx context.Context, result *Result, opts Options) error {
	logger := r.logger(opts)
	name := opts.Name
	if name == "" {
		name = result.Residual.Name
	}
	if name == "" {
		name = negflo.DefaultName
	}

	for i := range result.Outputs {
		out := &result.Outputs[i]
		out.Path = outputPath(opts.Output, name, out.Mode, len(result.Outputs) > 1)
		if err := writeFile(ctx, out.Path, out.Data); err != nil {
			return err
		}
		if opts.Report {
			if err := out.Report.WriteFile(out.Path + ".json"); err != nil {
				return err
			}
		}
		logger.Info("wrote artifact", "mode", out.Mode, "path", out.Path, "cached", out.CacheHit)
	}
	return nil
}

func outputPath(output, name string, mode negflo.Mode, prefix bool) string {
	switch {
	case prefix:
		if output == "" {
			output = DefaultPrefix
		}
		return output + mode.Extension()
	case output == "":
		return name + mode.Extension()
	case filepath.Ext(output) == "":
		return output + mode.Extension()
	default:
		return output
	}
}

func writeFile(ctx context.Context, path string, data []byte) error {
	err := func() error {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errors.Wrap(errors.ErrCodeInvalidPath, err, "create directory %s", dir)
			}
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidPath, err, "write %s", path)
		}
		return nil
	}()
	observability.Pipeline().OnWriteComplete(ctx, path, len(data), err)
	return err
}

func strictError(result *Result) error {
	merged := make(map[string]float64)
	for _, out := range result.Unresolved() {
		for _, col := range out.Overflow.Unresolved() {
			merged[out.Mode.String()+"/"+col] = out.Overflow[col]
		}
	}
	if len(merged) == 0 {
		return nil
	}
	return &errors.OverflowError{Leftover: merged}
}

func (r *Runner) logger(opts Options) *log.Logger {
	if opts.Logger != nil {
		return opts.Logger
	}
	return r.Logger
}
