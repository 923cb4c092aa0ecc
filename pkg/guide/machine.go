package guide

import (
	"fmt"
	"math"
)

// Config holds guidance tuning.
type Config struct {
	// TiltTolerance is the maximum device roll, in degrees, before the
	// position guide asks for an angle correction instead of a height change.
	TiltTolerance float64
}

// DefaultConfig returns the default guidance tuning.
func DefaultConfig() Config {
	return Config{TiltTolerance: 8}
}

// Orientation is the device attitude in degrees.
type Orientation struct {
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
}

// Plan is the detector dispatch decision for one frame.
type Plan struct {
	RunPose    bool // Run the secondary pose detector
	MirrorPose bool // Pose input comes from a front (mirrored) camera
}

// Machine is the guidance state machine. Exactly one state is active.
// It is not safe for concurrent use.
type Machine struct {
	config  Config
	state   State
	active  bool
	message MessageKey
}

// NewMachine creates a machine in Idle with messaging inactive.
func NewMachine(config Config) *Machine {
	return &Machine{config: config, state: Idle}
}

// State returns the active state.
func (m *Machine) State() State {
	return m.state
}

// Select enters ObjectSelected and activates messaging.
func (m *Machine) Select() {
	m.state = ObjectSelected
	m.active = true
}

// Deselect returns to Idle, deactivates messaging and clears the message.
func (m *Machine) Deselect() {
	m.state = Idle
	m.active = false
	m.message = MessageNone
}

// Advance applies an externally decided forward transition.
func (m *Machine) Advance(to State) error {
	if !CanAdvance(m.state, to) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, m.state, to)
	}
	m.state = to
	return nil
}

// Deactivate hides the guidance message without changing state.
func (m *Machine) Deactivate() {
	m.active = false
}

// SetActive sets message visibility.
func (m *Machine) SetActive(active bool) {
	m.active = active
}

// Active reports whether messaging is active.
func (m *Machine) Active() bool {
	return m.active
}

// Plan decides which detectors run this frame. Pose estimation only runs
// while an object is selected and being positioned.
func (m *Machine) Plan(frontFacing bool) Plan {
	switch m.state {
	case ObjectSelected, PositionGuide:
		return Plan{RunPose: true, MirrorPose: frontFacing}
	default:
		return Plan{}
	}
}

// Resolve derives the message from the active state and device orientation
// and returns it.
func (m *Machine) Resolve(o Orientation) Message {
	switch m.state {
	case ObjectSelected:
		m.message = MessageLocateToTarget
	case PositionGuide:
		if math.Abs(o.Roll) > m.config.TiltTolerance {
			m.message = MessageSetAngle
		} else {
			m.message = MessageLowerCamera
		}
	default:
		m.message = MessageNone
	}
	return m.Message()
}

// Message returns the last resolved message. It is visible only while
// messaging is active and the message is non-empty.
func (m *Machine) Message() Message {
	text := m.message.Text()
	return Message{
		Key:     m.message,
		Text:    text,
		Visible: m.active && text != "",
	}
}
