package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrokit/negflo/pkg/errors"
	"github.com/hydrokit/negflo/pkg/negflo"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

const tomlConfig = `
start = "1990-07-01"
end = "2020-06-30"
observed = "gauged.csv"
modelled = "model.csv"
output = "out/residual"
observed_type = "source_output"
modelled_type = "iqqm"
flow_limit = 0.5
modes = ["sm2", "sm4"]

[[segments]]
start = "1990-07-01"
end = "2000-06-30"
`

const yamlConfig = `
start: "1990-07-01"
end: "2020-06-30"
observed: gauged.csv
modelled: model.csv
output: out/residual
observed_type: "3"
modelled_type: iqqm
flow_limit: 0.5
modes: [sm2, sm4]
segments:
  - start: "1990-07-01"
    end: "2000-06-30"
`

const legacyConfig = `01 07 1990 30 06 2020
gauged.csv
model.csv
out/residual
3
0
0.5
1
01 07 1990 30 06 2000
`

func TestParseFormats(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
	}{
		{"toml", FormatTOML, tomlConfig},
		{"yaml", FormatYAML, yamlConfig},
		{"legacy", FormatLegacy, legacyConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse(strings.NewReader(tt.input), tt.format)
			require.NoError(t, err)

			assert.Equal(t, date(1990, 7, 1), cfg.Start)
			assert.Equal(t, date(2020, 6, 30), cfg.End)
			assert.Equal(t, "gauged.csv", cfg.Observed)
			assert.Equal(t, "model.csv", cfg.Modelled)
			assert.Equal(t, "out/residual", cfg.Output)
			assert.Equal(t, FileTypeSourceOutput, cfg.ObservedType)
			assert.Equal(t, FileTypeIQQM, cfg.ModelledType)
			assert.Equal(t, 0.5, cfg.FlowLimit)
			require.Len(t, cfg.Segments, 1)
			assert.Equal(t, date(2000, 6, 30), cfg.Segments[0].End)
		})
	}
}

func TestParsedModes(t *testing.T) {
	cfg, err := Parse(strings.NewReader(tomlConfig), FormatTOML)
	require.NoError(t, err)
	modes, err := cfg.ParsedModes()
	require.NoError(t, err)
	assert.Equal(t, []negflo.Mode{negflo.ModeForward, negflo.ModeBackward}, modes)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		input  string
		code   errors.Code
	}{
		{
			name:   "end before start",
			format: FormatLegacy,
			input:  strings.Replace(legacyConfig, "01 07 1990 30 06 2020", "01 07 2020 30 06 1990", 1),
			code:   errors.ErrCodeConfiguration,
		},
		{
			name:   "bad date line",
			format: FormatLegacy,
			input:  strings.Replace(legacyConfig, "01 07 1990 30 06 2020", "1990-07-01", 1),
			code:   errors.ErrCodeInvalidFormat,
		},
		{
			name:   "too short",
			format: FormatLegacy,
			input:  "01 07 1990 30 06 2020\na.csv\n",
			code:   errors.ErrCodeInvalidFormat,
		},
		{
			name:   "bad file type",
			format: FormatLegacy,
			input:  strings.Replace(legacyConfig, "\n3\n0\n", "\n7\n0\n", 1),
			code:   errors.ErrCodeInvalidFormat,
		},
		{
			name:   "missing segment",
			format: FormatLegacy,
			input:  strings.Replace(legacyConfig, "\n1\n", "\n2\n", 1),
			code:   errors.ErrCodeInvalidFormat,
		},
		{
			name:   "residual and observed",
			format: FormatTOML,
			input:  "residual = \"r.csv\"\nobserved = \"o.csv\"\n",
			code:   errors.ErrCodeConfiguration,
		},
		{
			name:   "observed without modelled",
			format: FormatYAML,
			input:  "observed: o.csv\n",
			code:   errors.ErrCodeConfiguration,
		},
		{
			name:   "unknown mode",
			format: FormatTOML,
			input:  "residual = \"r.csv\"\nmodes = [\"sm9\"]\n",
			code:   errors.ErrCodeInvalidMode,
		},
		{
			name:   "bad date",
			format: FormatYAML,
			input:  "residual: r.csv\nstart: July\n",
			code:   errors.ErrCodeConfiguration,
		},
		{
			name:   "malformed toml",
			format: FormatTOML,
			input:  "residual = \n",
			code:   errors.ErrCodeInvalidFormat,
		},
		{
			name:   "unknown format",
			format: Format("ini"),
			input:  "",
			code:   errors.ErrCodeUnsupported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input), tt.format)
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err), err.Error())
		})
	}
}

func TestLegacyWithoutSegments(t *testing.T) {
	input := strings.Join(strings.Split(legacyConfig, "\n")[:7], "\n")
	cfg, err := Parse(strings.NewReader(input), FormatLegacy)
	require.NoError(t, err)
	assert.Empty(t, cfg.Segments)
	assert.Equal(t, 0.5, cfg.FlowLimit)
}

func TestLoadResolvesPaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run.toml")
	require.NoError(t, os.WriteFile(path, []byte(tomlConfig), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "gauged.csv"), cfg.Observed)
	assert.Equal(t, filepath.Join(dir, "out", "residual"), cfg.Output)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))
}

func TestFormatFor(t *testing.T) {
	assert.Equal(t, FormatTOML, FormatFor("run.TOML"))
	assert.Equal(t, FormatYAML, FormatFor("run.yml"))
	assert.Equal(t, FormatYAML, FormatFor("run.yaml"))
	assert.Equal(t, FormatLegacy, FormatFor("negflo.in"))
	assert.Equal(t, FormatLegacy, FormatFor("NEGFLO"))
}

func TestFileType(t *testing.T) {
	for _, tt := range []struct {
		in   string
		want FileType
	}{
		{"0", FileTypeIQQM},
		{"1", FileTypeIQQMGUI},
		{"iqqm-gui", FileTypeIQQMGUI},
		{"Source Input", FileTypeSourceInput},
		{" 3 ", FileTypeSourceOutput},
	} {
		got, err := ParseFileType(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseFileType("4")
	assert.True(t, errors.Is(err, errors.ErrCodeConfiguration))

	b, err := FileTypeSourceInput.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "source_input", string(b))
}
