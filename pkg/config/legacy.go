package config

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/hydrokit/negflo/pkg/errors"
)

// legacyDate is the dd mm YYYY date spelling of the legacy format.
const legacyDate = "2 1 2006"

// ParseLegacy reads the line-oriented negflo input file:
//
//	1  start and end date      dd mm YYYY dd mm YYYY
//	2  observed file
//	3  modelled file
//	4  output file
//	5  observed file type      0-3
//	6  modelled file type      0-3
//	7  flow limit
//	8  segment count           optional
//	9  segment start and end   optional, dd mm YYYY dd mm YYYY
//
// The result is not validated.
func ParseLegacy(r io.Reader) (*Config, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines = append(lines, strings.TrimSpace(sc.Text()))
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "read legacy config")
	}
	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) < 7 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "legacy config needs at least 7 lines, got %d", len(lines))
	}

	cfg := &Config{
		Observed: lines[1],
		Modelled: lines[2],
		Output:   lines[3],
	}
	var err error
	if cfg.Start, cfg.End, err = parseDatePair(1, lines[0]); err != nil {
		return nil, err
	}
	if cfg.ObservedType, err = ParseFileType(lines[4]); err != nil {
		return nil, lineError(5, err)
	}
	if cfg.ModelledType, err = ParseFileType(lines[5]); err != nil {
		return nil, lineError(6, err)
	}
	if cfg.FlowLimit, err = strconv.ParseFloat(lines[6], 64); err != nil {
		return nil, lineError(7, err)
	}

	if len(lines) < 8 || lines[7] == "" {
		return cfg, nil
	}
	count, err := strconv.Atoi(lines[7])
	if err != nil || count < 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "line 8: invalid segment count %q", lines[7])
	}
	for i := 0; i < count; i++ {
		n := 8 + i
		if n >= len(lines) {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "expected %d segments, found %d", count, i)
		}
		start, end, err := parseDatePair(n+1, lines[n])
		if err != nil {
			return nil, err
		}
		cfg.Segments = append(cfg.Segments, Segment{Start: start, End: end})
	}
	return cfg, nil
}

func parseDatePair(line int, s string) (time.Time, time.Time, error) {
	fields := strings.Fields(s)
	if len(fields) != 6 {
		return time.Time{}, time.Time{}, errors.New(errors.ErrCodeInvalidFormat,
			"line %d: expected dd mm YYYY dd mm YYYY, got %q", line, s)
	}
	start, err := time.Parse(legacyDate, strings.Join(fields[:3], " "))
	if err != nil {
		return time.Time{}, time.Time{}, lineError(line, err)
	}
	end, err := time.Parse(legacyDate, strings.Join(fields[3:], " "))
	if err != nil {
		return time.Time{}, time.Time{}, lineError(line, err)
	}
	return start, end, nil
}

func lineError(line int, err error) error {
	return errors.Wrap(errors.ErrCodeInvalidFormat, err, "line %d", line)
}
