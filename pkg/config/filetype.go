package config

import (
	"strconv"
	"strings"

	"github.com/hydrokit/negflo/pkg/errors"
)

// FileType tags the producer of an input file. Numeric values match the
// legacy negflo input format.
type FileType int

const (
	FileTypeIQQM FileType = iota
	FileTypeIQQMGUI
	FileTypeSourceInput
	FileTypeSourceOutput
)

var fileTypeNames = []string{"iqqm", "iqqm_gui", "source_input", "source_output"}

func (f FileType) String() string {
	if f < 0 || int(f) >= len(fileTypeNames) {
		return "unknown"
	}
	return fileTypeNames[f]
}

// MarshalText implements encoding.TextMarshaler.
func (f FileType) MarshalText() ([]byte, error) {
	if f.String() == "unknown" {
		return nil, errors.New(errors.ErrCodeConfiguration, "unknown file type %d", int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText accepts a name ("source_output") or a legacy number ("3").
func (f *FileType) UnmarshalText(text []byte) error {
	parsed, err := ParseFileType(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// ParseFileType parses a file type name or number.
func ParseFileType(s string) (FileType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n >= len(fileTypeNames) {
			return 0, errors.New(errors.ErrCodeConfiguration, "unknown file type %d", n)
		}
		return FileType(n), nil
	}
	s = strings.NewReplacer("-", "_", " ", "_").Replace(s)
	for i, name := range fileTypeNames {
		if s == name {
			return FileType(i), nil
		}
	}
	return 0, errors.New(errors.ErrCodeConfiguration, "unknown file type %q", s)
}
