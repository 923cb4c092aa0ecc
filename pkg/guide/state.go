// Package guide implements the framing guidance state machine. The active
// state decides which heavyweight detectors run on the next frame and which
// guidance message is shown.
//
//	Idle ──select──▶ ObjectSelected ──advance──▶ PositionGuide ──advance──▶ GuideComplete
//	  ▲                                                                         │
//	  └──────────────────────────── deselect (from any state) ─────────────────┘
package guide

import (
	"fmt"
	"strings"
)

// State is the coarse mode of the guidance workflow.
type State int

const (
	Idle State = iota
	ObjectSelected
	PositionGuide
	GuideComplete
)

var stateNames = [...]string{
	Idle:           "idle",
	ObjectSelected: "object_selected",
	PositionGuide:  "position_guide",
	GuideComplete:  "guide_complete",
}

// String returns the snake_case state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	parsed, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseState parses a state name, case-insensitively.
func ParseState(name string) (State, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range stateNames {
		if n == name {
			return State(i), nil
		}
	}
	return Idle, fmt.Errorf("%w: %q", ErrUnknownState, name)
}

// transitions lists the externally driven forward transitions. Select and
// Deselect are always allowed and are not listed here.
var transitions = map[State][]State{
	ObjectSelected: {PositionGuide},
	PositionGuide:  {GuideComplete},
}

// CanAdvance reports whether Advance(from → to) is in the transition table.
func CanAdvance(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
