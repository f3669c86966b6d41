package negflo

import (
	"strconv"
	"strings"

	"github.com/hydrokit/negflo/pkg/errors"
)

// Mode selects a smoothing policy. The numeric values are stable and match
// the mode numbers used in output file extensions.
type Mode int

const (
	ModeRaw             Mode = -1 // rw1: unmodified residual
	ModeClip            Mode = 0  // cl1: negatives clipped to zero
	ModeGlobal          Mode = 1  // sm1: one redistribution over all donors
	ModeForward         Mode = 2  // sm2
	ModeForwardNoCarry  Mode = 3  // sm3
	ModeBackward        Mode = 4  // sm4
	ModeBackwardNoCarry Mode = 5  // sm5
	ModeSegmented       Mode = 6  // sm6: not implemented
	ModeBidirectional   Mode = 7  // sm7
)

type modeInfo struct {
	name        string
	description string
	policy      Policy
	carry       bool
	needsLimit  bool
}

var modes = map[Mode]modeInfo{
	ModeRaw:             {"rw1", "raw residual, negatives untouched", nil, false, false},
	ModeClip:            {"cl1", "negative values clipped to zero", Clip{}, false, false},
	ModeGlobal:          {"sm1", "one redistribution over every donor", Global{}, true, true},
	ModeForward:         {"sm2", "forward, deficit carried between blocks", Forward{}, true, true},
	ModeForwardNoCarry:  {"sm3", "forward, deficit dropped after each block", Forward{}, false, true},
	ModeBackward:        {"sm4", "backward, deficit carried between blocks", Backward{}, true, true},
	ModeBackwardNoCarry: {"sm5", "backward, deficit dropped after each block", Backward{}, false, true},
	ModeSegmented:       {"sm6", "segmented smoothing (not implemented)", nil, true, true},
	ModeBidirectional:   {"sm7", "bidirectional, larger flanking block absorbs", Bidirectional{}, true, true},
}

// String returns the mode's short name, e.g. "sm2".
func (m Mode) String() string {
	if info, ok := modes[m]; ok {
		return info.name
	}
	return "unknown"
}

// Extension returns the file extension used for the mode's output, e.g. ".sm2".
func (m Mode) Extension() string {
	return "." + m.String()
}

// Description returns a one-line human readable summary of the mode.
func (m Mode) Description() string {
	return modes[m].description
}

// Policy returns the smoothing policy behind the mode. Raw and Segmented
// have none.
func (m Mode) Policy() (Policy, bool) {
	info, ok := modes[m]
	if !ok || info.policy == nil {
		return nil, false
	}
	return info.policy, true
}

// Carry reports whether an unresolved deficit is carried to the next donor
// block.
func (m Mode) Carry() bool {
	return modes[m].carry
}

// RequiresNonNegativeLimit reports whether the mode rejects a negative flow
// limit.
func (m Mode) RequiresNonNegativeLimit() bool {
	return modes[m].needsLimit
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	_, ok := modes[m]
	return ok
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidMode, "unknown mode %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(text []byte) error {
	parsed, err := ParseMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ParseMode accepts a short name ("sm2", ".sm2", "SM2") or a mode number
// ("2", "-1").
func ParseMode(s string) (Mode, error) {
	key := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".")
	for _, m := range AllModes() {
		if m.String() == key {
			return m, nil
		}
	}
	for _, m := range AllModes() {
		if key == strconv.Itoa(int(m)) {
			return m, nil
		}
	}
	return ModeRaw, errors.New(errors.ErrCodeInvalidMode, "unknown mode %q", s)
}

// AllModes returns every mode in numeric order.
func AllModes() []Mode {
	return []Mode{
		ModeRaw, ModeClip, ModeGlobal,
		ModeForward, ModeForwardNoCarry,
		ModeBackward, ModeBackwardNoCarry,
		ModeSegmented, ModeBidirectional,
	}
}

// RunAllModes returns the modes emitted by [Engine.RunAll], in order.
// Segmented smoothing is listed but skipped until it is implemented.
func RunAllModes() []Mode {
	return AllModes()
}
