package timeseries

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hydrokit/negflo/pkg/errors"
)

// DateFormat is the canonical date layout used on output.
const DateFormat = "2006-01-02"

// dateLayouts are tried in order when parsing the date column.
var dateLayouts = []string{
	DateFormat,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02-Jan-2006",
}

// CSVOptions holds options for CSV reading and writing.
type CSVOptions struct {
	DateColumn string   // Column name for dates (default: "Date", falls back to the first column)
	DateFormat string   // Preferred date layout (default: DateFormat)
	Delimiter  rune     // Field delimiter (default: ',')
	NAValues   []string // Cells read as missing (default: "", "NA", "NaN", "nan", "null")
	Missing    string   // Text written for missing values (default: "")
	Name       string   // Table name (default: file base name without extensions)
}

// DefaultCSVOptions returns default options for CSV handling.
func DefaultCSVOptions() *CSVOptions {
	return &CSVOptions{
		DateColumn: "Date",
		DateFormat: DateFormat,
		Delimiter:  ',',
		NAValues:   []string{"", "NA", "NaN", "nan", "null"},
	}
}

func (o *CSVOptions) withDefaults() *CSVOptions {
	d := DefaultCSVOptions()
	if o == nil {
		return d
	}
	out := *o
	if out.DateColumn == "" {
		out.DateColumn = d.DateColumn
	}
	if out.DateFormat == "" {
		out.DateFormat = d.DateFormat
	}
	if out.Delimiter == 0 {
		out.Delimiter = d.Delimiter
	}
	if out.NAValues == nil {
		out.NAValues = d.NAValues
	}
	return &out
}

// ReadCSV loads a table from a CSV file.
func ReadCSV(path string, opts *CSVOptions) (*Table, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "series file %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	opts = opts.withDefaults()
	if opts.Name == "" {
		opts.Name = baseName(path)
	}
	t, err := ReadCSVFrom(f, opts)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// ReadCSVFrom loads a table from r. The first row is the header; the date
// column is located by name and every other column is numeric. Rows are
// sorted by date; duplicated dates are rejected.
func ReadCSVFrom(r io.Reader, opts *CSVOptions) (*Table, error) {
	opts = opts.withDefaults()

	reader := csv.NewReader(r)
	reader.Comma = opts.Delimiter
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "empty CSV")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.Trim(header[i], "\""))
	}

	dateIdx := 0
	for i, h := range header {
		if strings.EqualFold(h, opts.DateColumn) {
			dateIdx = i
			break
		}
	}

	var columns []string
	var colPos []int
	for i, h := range header {
		if i != dateIdx {
			columns = append(columns, h)
			colPos = append(colPos, i)
		}
	}

	na := make(map[string]bool, len(opts.NAValues))
	for _, v := range opts.NAValues {
		na[v] = true
	}

	type row struct {
		date   time.Time
		values []float64
	}
	var rows []row
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "line %d", line)
		}
		if len(record) != len(header) {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "line %d: %d fields, header has %d", line, len(record), len(header))
		}

		date, err := parseDate(strings.TrimSpace(record[dateIdx]), opts.DateFormat)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "line %d", line)
		}
		values := make([]float64, len(colPos))
		for c, pos := range colPos {
			cell := strings.TrimSpace(strings.Trim(record[pos], "\""))
			if na[cell] {
				values[c] = Missing
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "line %d column %q", line, columns[c])
			}
			values[c] = v
		}
		rows = append(rows, row{date: date, values: values})
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].date.Before(rows[j].date) })

	t := &Table{
		Name:    opts.Name,
		Dates:   make([]time.Time, len(rows)),
		Columns: columns,
		Values:  make([][]float64, len(columns)),
	}
	for c := range columns {
		t.Values[c] = make([]float64, len(rows))
	}
	for r, rw := range rows {
		t.Dates[r] = rw.date
		for c, v := range rw.values {
			t.Values[c][r] = v
		}
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// WriteCSV saves a table to a CSV file, creating parent directories.
func WriteCSV(t *Table, path string, opts *CSVOptions) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteCSVTo(f, t, opts); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// WriteCSVTo encodes a table as CSV to w.
func WriteCSVTo(w io.Writer, t *Table, opts *CSVOptions) error {
	opts = opts.withDefaults()

	cw := csv.NewWriter(w)
	cw.Comma = opts.Delimiter

	header := make([]string, 0, len(t.Columns)+1)
	header = append(header, opts.DateColumn)
	header = append(header, t.Columns...)
	if err := cw.Write(header); err != nil {
		return err
	}

	record := make([]string, len(t.Columns)+1)
	for r, d := range t.Dates {
		record[0] = d.Format(opts.DateFormat)
		for c := range t.Columns {
			v := t.Values[c][r]
			if IsMissing(v) {
				record[c+1] = opts.Missing
			} else {
				record[c+1] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func parseDate(s, preferred string) (time.Time, error) {
	if ts, err := time.Parse(preferred, s); err == nil {
		return ts, nil
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// baseName strips the directory and every extension from path, so
// "data/422001A.obs.csv" becomes "422001A".
func baseName(path string) string {
	name := filepath.Base(path)
	if i := strings.IndexByte(name, '.'); i > 0 {
		name = name[:i]
	}
	return name
}
