package errors

import (
	"math"
	"strings"
	"testing"
)

func TestValidateFlowLimit(t *testing.T) {
	tests := []struct {
		name    string
		input   float64
		wantErr bool
	}{
		{"zero", 0, false},
		{"positive", 2.5, false},
		{"large", 1e9, false},

		{"negative", -0.5, true},
		{"NaN", math.NaN(), true},
		{"+Inf", math.Inf(1), true},
		{"-Inf", math.Inf(-1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFlowLimit(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateFlowLimit(%g) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeConfiguration) {
				t.Errorf("ValidateFlowLimit(%g) code = %v, want %v", tt.input, GetCode(err), ErrCodeConfiguration)
			}
		})
	}
}

func TestValidateSeriesName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid gauge id", "422001A", false},
		{"valid with space", "Condamine at Chinchilla", false},
		{"valid with dot", "gs.136007", false},

		{"empty", "", true},
		{"blank", "   ", true},
		{"too long", strings.Repeat("a", 300), true},
		{"slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"traversal", "..", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSeriesName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSeriesName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateOutputPath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative prefix", "./residual", false},
		{"absolute", "/tmp/out/residual.sm2", false},
		{"bare name", "residual", false},

		{"empty", "", true},
		{"directory", "out/", true},
		{"null byte", "out\x00.sm2", true},
		{"too long", strings.Repeat("a", 2000), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateOutputPath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateOutputPath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
