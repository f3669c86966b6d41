// Package config loads negflo run files.
//
// A run file names the inputs of one smoothing run: either an observed and a
// modelled series, whose difference is the residual, or a residual directly,
// plus the date window, flow limit, output location, and modes to run.
//
// Three formats are understood, chosen by extension:
//
//	.toml        TOML
//	.yaml, .yml  YAML
//	anything else the legacy line-oriented negflo input file
//
// The TOML and YAML formats share keys:
//
//	start = "1990-07-01"
//	end = "2020-06-30"
//	observed = "gauged.csv"
//	modelled = "model.csv"
//	output = "out/residual"
//	observed_type = "source_output"
//	flow_limit = 0.5
//	modes = ["sm2", "sm4"]
//
//	[[segments]]
//	start = "1990-07-01"
//	end = "2000-06-30"
//
// Relative paths are resolved against the directory of the run file.
package config

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/hydrokit/negflo/pkg/errors"
	"github.com/hydrokit/negflo/pkg/negflo"
	"github.com/hydrokit/negflo/pkg/timeseries"
)

// Format identifies a run file syntax.
type Format string

const (
	FormatTOML   Format = "toml"
	FormatYAML   Format = "yaml"
	FormatLegacy Format = "legacy"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatLegacy
	}
}

// Segment is a sub-period of the run window. Segments are carried for
// segmented smoothing, which is not implemented.
type Segment struct {
	Start time.Time
	End   time.Time
}

// Config is a parsed run file.
type Config struct {
	Start        time.Time
	End          time.Time
	Observed     string
	Modelled     string
	Residual     string
	Output       string
	ObservedType FileType
	ModelledType FileType
	FlowLimit    float64
	Modes        []string
	Segments     []Segment
}

// file mirrors the TOML/YAML layout. Dates are kept as strings so both
// decoders accept the same spellings.
type file struct {
	Start        string        `toml:"start" yaml:"start"`
	End          string        `toml:"end" yaml:"end"`
	Observed     string        `toml:"observed" yaml:"observed"`
	Modelled     string        `toml:"modelled" yaml:"modelled"`
	Residual     string        `toml:"residual" yaml:"residual"`
	Output       string        `toml:"output" yaml:"output"`
	ObservedType FileType      `toml:"observed_type" yaml:"observed_type"`
	ModelledType FileType      `toml:"modelled_type" yaml:"modelled_type"`
	FlowLimit    float64       `toml:"flow_limit" yaml:"flow_limit"`
	Modes        []string      `toml:"modes" yaml:"modes"`
	Segments     []fileSegment `toml:"segments" yaml:"segments"`
}

type fileSegment struct {
	Start string `toml:"start" yaml:"start"`
	End   string `toml:"end" yaml:"end"`
}

// Load reads and validates a run file. Relative input and output paths are
// resolved against the file's directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeConfiguration, err, "read config %s", path)
	}
	cfg, err := Parse(bytes.NewReader(data), FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.resolve(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes a run file in the given format and validates it.
func Parse(r io.Reader, format Format) (*Config, error) {
	var (
		cfg *Config
		err error
	)
	switch format {
	case FormatTOML:
		var f file
		if _, err := toml.NewDecoder(r).Decode(&f); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode toml")
		}
		cfg, err = f.config()
	case FormatYAML:
		var f file
		if err := yaml.NewDecoder(r).Decode(&f); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode yaml")
		}
		cfg, err = f.config()
	case FormatLegacy:
		cfg, err = ParseLegacy(r)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unknown config format %q", format)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *file) config() (*Config, error) {
	cfg := &Config{
		Observed:     f.Observed,
		Modelled:     f.Modelled,
		Residual:     f.Residual,
		Output:       f.Output,
		ObservedType: f.ObservedType,
		ModelledType: f.ModelledType,
		FlowLimit:    f.FlowLimit,
		Modes:        f.Modes,
	}
	var err error
	if cfg.Start, err = parseDate("start", f.Start); err != nil {
		return nil, err
	}
	if cfg.End, err = parseDate("end", f.End); err != nil {
		return nil, err
	}
	for i, s := range f.Segments {
		var seg Segment
		if seg.Start, err = parseDate("segment start", s.Start); err != nil {
			return nil, err
		}
		if seg.End, err = parseDate("segment end", s.End); err != nil {
			return nil, err
		}
		if seg.Start.IsZero() || seg.End.IsZero() {
			return nil, errors.New(errors.ErrCodeConfiguration, "segment %d needs a start and an end", i+1)
		}
		cfg.Segments = append(cfg.Segments, seg)
	}
	return cfg, nil
}

func parseDate(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{timeseries.DateFormat, time.RFC3339, "02/01/2006", "2 1 2006"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.New(errors.ErrCodeConfiguration, "%s: cannot parse date %q", field, s)
}

// Validate checks the run file invariants: a complete input pair or a
// residual, an ordered date window, and a usable flow limit.
func (c *Config) Validate() error {
	switch {
	case c.Residual != "" && (c.Observed != "" || c.Modelled != ""):
		return errors.New(errors.ErrCodeConfiguration, "give either a residual or observed and modelled series, not both")
	case c.Residual == "" && (c.Observed == "" || c.Modelled == ""):
		return errors.New(errors.ErrCodeConfiguration, "observed and modelled series are both required")
	}
	if !c.Start.IsZero() && !c.End.IsZero() && c.End.Before(c.Start) {
		return errors.New(errors.ErrCodeConfiguration, "end date %s is before start date %s",
			c.End.Format(timeseries.DateFormat), c.Start.Format(timeseries.DateFormat))
	}
	if math.IsNaN(c.FlowLimit) || math.IsInf(c.FlowLimit, 0) {
		return errors.New(errors.ErrCodeConfiguration, "flow limit must be a finite number")
	}
	for i, seg := range c.Segments {
		if seg.End.Before(seg.Start) {
			return errors.New(errors.ErrCodeConfiguration, "segment %d ends before it starts", i+1)
		}
	}
	if _, err := c.ParsedModes(); err != nil {
		return err
	}
	return nil
}

// ParsedModes returns the configured modes. An empty list means none were
// requested.
func (c *Config) ParsedModes() ([]negflo.Mode, error) {
	modes := make([]negflo.Mode, 0, len(c.Modes))
	for _, s := range c.Modes {
		m, err := negflo.ParseMode(s)
		if err != nil {
			return nil, err
		}
		modes = append(modes, m)
	}
	return modes, nil
}

func (c *Config) resolve(dir string) {
	for _, p := range []*string{&c.Observed, &c.Modelled, &c.Residual, &c.Output} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}
