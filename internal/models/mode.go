package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Mode is the leaderboard category a record is segregated into.
type Mode int

const (
	// ModeGeneral is a regular team time-trial completion.
	ModeGeneral Mode = iota
	// ModeSolo is a completion with no teammates.
	ModeSolo
	// ModeCapping is the capping objective variant.
	ModeCapping
)

// Modes lists every mode in a stable order.
var Modes = []Mode{ModeGeneral, ModeSolo, ModeCapping}

func (m Mode) String() string {
	switch m {
	case ModeGeneral:
		return "general"
	case ModeSolo:
		return "solo"
	case ModeCapping:
		return "capping"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Valid reports whether m is one of the declared modes.
func (m Mode) Valid() bool {
	return m == ModeGeneral || m == ModeSolo || m == ModeCapping
}

// ParseMode parses a mode name case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "general", "team":
		return ModeGeneral, nil
	case "solo":
		return ModeSolo, nil
	case "capping":
		return ModeCapping, nil
	default:
		return ModeGeneral, fmt.Errorf("unknown mode %q", s)
	}
}

// ResolveMode folds the wire mode flags into exactly one Mode.
// An explicit mode name wins, but it must agree with any boolean flag that is set.
func ResolveMode(name string, isSolo, isCapping bool) (Mode, error) {
	if isSolo && isCapping {
		return ModeGeneral, NewValidationError(CodeAmbiguousMode, "record is flagged both solo and capping")
	}

	if name == "" {
		switch {
		case isSolo:
			return ModeSolo, nil
		case isCapping:
			return ModeCapping, nil
		default:
			return ModeGeneral, nil
		}
	}

	mode, err := ParseMode(name)
	if err != nil {
		return ModeGeneral, NewValidationError(CodeAmbiguousMode, err.Error())
	}
	if (isSolo && mode != ModeSolo) || (isCapping && mode != ModeCapping) {
		return ModeGeneral, NewValidationError(CodeAmbiguousMode,
			fmt.Sprintf("mode %q conflicts with flags solo=%t capping=%t", name, isSolo, isCapping))
	}
	return mode, nil
}

// MarshalJSON encodes the mode as its name.
func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a mode name.
func (m *Mode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseMode(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}
