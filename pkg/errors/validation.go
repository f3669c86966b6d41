package errors

import (
	"math"
	"strings"
	"unicode"
)

// ValidateFlowLimit checks that a flow limit is a finite, non-negative number.
// Every smoothing mode except raw and clip requires this.
func ValidateFlowLimit(limit float64) error {
	if math.IsNaN(limit) || math.IsInf(limit, 0) {
		return New(ErrCodeConfiguration, "flow limit must be a finite number, got %g", limit)
	}
	if limit < 0 {
		return New(ErrCodeConfiguration, "flow limit must be non-negative, got %g", limit)
	}
	return nil
}

// ValidateSeriesName validates a series or column name that may end up in an
// output file name.
//
// The validation rules are intentionally conservative:
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
func ValidateSeriesName(name string) error {
	if strings.TrimSpace(name) == "" {
		return New(ErrCodeInvalidInput, "series name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "series name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "series name contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\", "\x00"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidInput, "series name contains invalid characters: %q", pattern)
		}
	}

	return nil
}

// ValidateOutputPath validates an output file path or prefix.
// Absolute and relative paths are both accepted; only empty paths and paths
// carrying control characters are rejected.
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}

	const maxPathLength = 1024
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "output path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "output path contains invalid characters")
		}
	}

	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, "\\") {
		return New(ErrCodeInvalidPath, "output path %q names a directory, not a file", path)
	}

	return nil
}
