package cli

import (
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/hydrokit/negflo/pkg/config"
	"github.com/hydrokit/negflo/pkg/errors"
	"github.com/hydrokit/negflo/pkg/negflo"
	"github.com/hydrokit/negflo/pkg/pipeline"
	"github.com/hydrokit/negflo/pkg/timeseries"
)

// inputFlags holds the flags shared by smooth and run-all.
type inputFlags struct {
	config    string
	observed  string
	modelled  string
	start     string
	end       string
	name      string
	flowLimit float64
	workers   int
	report    bool
	strict    bool
	noCache   bool
	refresh   bool
}

func (f *inputFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.config, "config", "c", "", "run file (.toml, .yaml, or legacy negflo input file)")
	flags.StringVar(&f.observed, "observed", "", "observed (gauged) series CSV")
	flags.StringVar(&f.modelled, "modelled", "", "modelled series CSV")
	flags.StringVar(&f.start, "start", "", "first date to smooth (YYYY-MM-DD)")
	flags.StringVar(&f.end, "end", "", "last date to smooth (YYYY-MM-DD)")
	flags.StringVar(&f.name, "name", "", "series name used for derived output names")
	flags.Float64VarP(&f.flowLimit, "flow-limit", "l", pipeline.DefaultFlowLimit, "minimum flow that may absorb negative volume")
	flags.IntVar(&f.workers, "workers", 0, "columns smoothed in parallel (default: number of CPUs)")
	flags.BoolVar(&f.report, "report", false, "also write a JSON report next to each output")
	flags.BoolVar(&f.strict, "strict", false, "fail when negative flow is left over")
	flags.BoolVar(&f.noCache, "no-cache", false, "disable caching")
	flags.BoolVar(&f.refresh, "refresh", false, "recompute even when a cached result exists")
}

// options builds pipeline options from the run file (if any), then applies
// every flag the user set explicitly. residual is the positional argument.
func (f *inputFlags) options(cmd *cobra.Command, residual string, logger *log.Logger) (pipeline.Options, error) {
	var opts pipeline.Options
	if f.config != "" {
		cfg, err := config.Load(f.config)
		if err != nil {
			return opts, err
		}
		if opts, err = pipeline.FromConfig(cfg); err != nil {
			return opts, err
		}
		logger.Debug("loaded run file", "path", f.config,
			"observed_type", cfg.ObservedType, "modelled_type", cfg.ModelledType)
		if len(cfg.Segments) > 0 {
			logger.Debug("ignoring segments: segmented smoothing is not implemented", "segments", len(cfg.Segments))
		}
	}

	changed := cmd.Flags().Changed
	if residual != "" {
		opts.Residual, opts.Observed, opts.Modelled = residual, "", ""
	}
	if changed("observed") {
		opts.Observed, opts.Residual = f.observed, ""
	}
	if changed("modelled") {
		opts.Modelled, opts.Residual = f.modelled, ""
	}
	if changed("start") {
		t, err := parseDateFlag("start", f.start)
		if err != nil {
			return opts, err
		}
		opts.Start = t
	}
	if changed("end") {
		t, err := parseDateFlag("end", f.end)
		if err != nil {
			return opts, err
		}
		opts.End = t
	}
	if changed("flow-limit") || f.config == "" {
		opts.FlowLimit = f.flowLimit
	}
	opts.Name = f.name
	opts.Workers = f.workers
	opts.Report = f.report
	opts.Strict = f.strict
	opts.Refresh = f.refresh
	return opts, nil
}

func parseDateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeseries.DateFormat, value)
	if err != nil {
		return time.Time{}, errors.Wrap(errors.ErrCodeConfiguration, err, "--%s must be YYYY-MM-DD", name)
	}
	return t, nil
}

// parseModes parses mode names from repeated or comma-separated flags.
func parseModes(values []string) ([]negflo.Mode, error) {
	var modes []negflo.Mode
	for _, v := range values {
		for _, s := range strings.Split(v, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			m, err := negflo.ParseMode(s)
			if err != nil {
				return nil, err
			}
			modes = append(modes, m)
		}
	}
	return modes, nil
}
