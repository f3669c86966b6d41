package pipeline

import (
	"context"
	"time"

	"github.com/hydrokit/negflo/pkg/errors"
	"github.com/hydrokit/negflo/pkg/observability"
	"github.com/hydrokit/negflo/pkg/timeseries"
)

// Load reads the residual described by opts: either a residual CSV or the
// difference of an observed and a modelled CSV, cropped to [Start, End].
func (r *Runner) Load(ctx context.Context, opts Options) (*timeseries.Table, error) {
	if err := opts.ValidateForLoad(); err != nil {
		return nil, err
	}
	source := opts.Residual
	if source == "" {
		source = opts.Observed
	}

	start := time.Now()
	observability.Pipeline().OnLoadStart(ctx, source)
	tbl, err := load(opts)
	rows := 0
	if tbl != nil {
		rows = tbl.Len()
	}
	observability.Pipeline().OnLoadComplete(ctx, source, rows, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	r.logger(opts).Info("loaded residual",
		"source", source,
		"rows", tbl.Len(),
		"columns", tbl.Width(),
		"duration", time.Since(start))
	return tbl, nil
}

func load(opts Options) (*timeseries.Table, error) {
	var (
		tbl *timeseries.Table
		err error
	)
	if opts.Residual != "" {
		tbl, err = timeseries.ReadCSV(opts.Residual, nil)
	} else {
		tbl, err = residual(opts.Observed, opts.Modelled)
	}
	if err != nil {
		return nil, err
	}

	tbl = tbl.Between(opts.Start, opts.End)
	if tbl.Len() == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no rows between %s and %s",
			formatDate(opts.Start, "start"), formatDate(opts.End, "end"))
	}
	if opts.Name != "" {
		tbl.Name = opts.Name
	}
	return tbl, nil
}

func residual(observedPath, modelledPath string) (*timeseries.Table, error) {
	observed, err := timeseries.ReadCSV(observedPath, nil)
	if err != nil {
		return nil, err
	}
	modelled, err := timeseries.ReadCSV(modelledPath, nil)
	if err != nil {
		return nil, err
	}
	return timeseries.Residual(observed, modelled)
}

func formatDate(t time.Time, open string) string {
	if t.IsZero() {
		return open
	}
	return t.Format(timeseries.DateFormat)
}
