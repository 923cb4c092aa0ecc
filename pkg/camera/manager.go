package camera

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/teslashibe/go-framing/pkg/geom"
)

// State is the camera state exposed to the dashboard.
type State struct {
	Settings   Settings    `json:"settings"`
	Frame      FrameConfig `json:"frame"`
	Aspect     AspectRatio `json:"aspect"`
	FocusPoint *geom.Point `json:"focus_point,omitempty"`
}

// Manager holds the current camera settings and handles updates. It
// implements Control.
type Manager struct {
	state State
	mu    sync.RWMutex

	// Callback when settings change (for applying to the device)
	OnSettingsChange func(s Settings) error

	// Callback when the focus point changes
	OnFocus func(p geom.Point) error
}

// NewManager creates a camera manager with automatic settings and a 3:4 frame.
func NewManager() *Manager {
	return &Manager{
		state: State{
			Settings: DefaultSettings(),
			Frame:    DefaultFrameConfig(),
			Aspect:   Aspect4x3,
		},
	}
}

// State returns a copy of the current camera state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.state
	if s.FocusPoint != nil {
		p := *s.FocusPoint
		s.FocusPoint = &p
	}
	return s
}

// Settings returns the current capture settings.
func (m *Manager) Settings() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state.Settings
}

// SetSettings validates and applies new capture settings.
func (m *Manager) SetSettings(s Settings) error {
	if problems := s.Validate(); len(problems) > 0 {
		return validationError(problems)
	}

	m.mu.Lock()
	m.state.Settings = s
	callback := m.OnSettingsChange
	m.mu.Unlock()

	if callback != nil {
		if err := callback(s); err != nil {
			return fmt.Errorf("camera: apply settings: %w", err)
		}
	}
	return nil
}

// SetZoom clamps and applies a zoom ratio.
func (m *Manager) SetZoom(ratio float64) error {
	s := m.Settings()
	s.Zoom = ClampZoom(ratio)
	return m.SetSettings(s)
}

// SetExposure clamps and applies an exposure compensation value.
func (m *Manager) SetExposure(ev float64) error {
	s := m.Settings()
	s.ExposureCompensation = ClampExposure(ev)
	return m.SetSettings(s)
}

// SetFocusPoint records a metering point and forwards it to OnFocus.
func (m *Manager) SetFocusPoint(p geom.Point) error {
	m.mu.Lock()
	m.state.FocusPoint = &p
	callback := m.OnFocus
	m.mu.Unlock()

	if callback != nil {
		if err := callback(p); err != nil {
			return fmt.Errorf("camera: apply focus: %w", err)
		}
	}
	return nil
}

// SetAspect switches the capture aspect and returns the resulting frame config.
func (m *Manager) SetAspect(a AspectRatio) FrameConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.Aspect = a
	m.state.Frame = a.Apply(m.state.Frame)
	return m.state.Frame
}

// UpdateSettings updates specific fields of the settings.
// Accepts a map of field names to values, plus an optional "preset".
func (m *Manager) UpdateSettings(params map[string]any) error {
	s := m.Settings()

	// Check for preset first
	if presetName, ok := params["preset"].(string); ok {
		preset, err := GetPreset(presetName)
		if err != nil {
			return err
		}
		s = preset
	}

	for key, value := range params {
		switch key {
		case "iso":
			if v, ok := toInt(value); ok {
				s.ISO = v
			}
		case "shutter_ns":
			if v, ok := toInt(value); ok {
				s.ShutterNs = int64(v)
			}
		case "exposure_compensation":
			if v, ok := toFloat(value); ok {
				s.ExposureCompensation = ClampExposure(v)
			}
		case "focus_distance":
			if v, ok := toFloat(value); ok {
				s.FocusDistance = v
			}
		case "white_balance_k":
			if v, ok := toInt(value); ok {
				s.WhiteBalanceK = v
			}
		case "zoom":
			if v, ok := toFloat(value); ok {
				s.Zoom = ClampZoom(v)
			}
		}
	}

	return m.SetSettings(s)
}

// Helper functions for type conversion

func toInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case json.Number:
		i, err := val.Int64()
		if err == nil {
			return int(i), true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		if err == nil {
			return f, true
		}
	}
	return 0, false
}
