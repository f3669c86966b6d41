package timeseries

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrokit/negflo/pkg/errors"
)

func TestReadCSVFrom(t *testing.T) {
	csvData := `Date,422001A,422002B
2000-01-03,3,-1.5
2000-01-01,1,
2000-01-02,2,NaN`

	tbl, err := ReadCSVFrom(strings.NewReader(csvData), nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"422001A", "422002B"}, tbl.Columns)
	require.Equal(t, 3, tbl.Len())
	assert.Equal(t, day(1), tbl.Dates[0])
	assert.Equal(t, []float64{1, 2, 3}, tbl.Values[0])
	assert.True(t, math.IsNaN(tbl.Values[1][0]))
	assert.True(t, math.IsNaN(tbl.Values[1][1]))
	assert.Equal(t, -1.5, tbl.Values[1][2])
}

func TestReadCSVFromDateColumnNotFirst(t *testing.T) {
	csvData := "a,date\n1,01/02/2000\n2,02/02/2000\n"

	tbl, err := ReadCSVFrom(strings.NewReader(csvData), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, tbl.Columns)
	assert.Equal(t, 2000, tbl.Dates[0].Year())
	assert.Equal(t, 1, tbl.Dates[0].Day())
	assert.Equal(t, 2, int(tbl.Dates[0].Month()))
}

func TestReadCSVFromErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"bad date", "Date,a\nnot-a-date,1\n"},
		{"bad value", "Date,a\n2000-01-01,abc\n"},
		{"duplicate date", "Date,a\n2000-01-01,1\n2000-01-01,2\n"},
		{"ragged row", "Date,a,b\n2000-01-01,1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSVFrom(strings.NewReader(tt.data), nil)
			require.Error(t, err)
			code := errors.GetCode(err)
			assert.Contains(t, []errors.Code{errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidInput}, code)
		})
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	tbl, err := NewTable(
		[]time.Time{day(1), day(2)},
		[]string{"a", "b"},
		[][]float64{{0.25, -1}, {Missing, 7}},
	)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSVTo(&buf, tbl, nil))
	assert.Equal(t, "Date,a,b\n2000-01-01,0.25,\n2000-01-02,-1,7\n", buf.String())

	back, err := ReadCSVFrom(&buf, nil)
	require.NoError(t, err)
	assert.Equal(t, tbl.Dates, back.Dates)
	assert.Equal(t, tbl.Values[0], back.Values[0])
	assert.True(t, math.IsNaN(back.Values[1][0]))
}

func TestReadCSVFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "422001A.obs.csv")

	tbl, _ := NewTable([]time.Time{day(1)}, []string{"flow"}, [][]float64{{4}})
	require.NoError(t, WriteCSV(tbl, path, nil))

	got, err := ReadCSV(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "422001A", got.Name)
	assert.Equal(t, []float64{4}, got.Values[0])

	_, err = ReadCSV(filepath.Join(dir, "missing.csv"), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeFileNotFound))

	_, statErr := os.Stat(path)
	assert.NoError(t, statErr)
}
