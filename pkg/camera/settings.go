package camera

import (
	"fmt"
	"strings"
)

// Sensor limits for manual capture controls.
const (
	MinExposureCompensation = -1.0
	MaxExposureCompensation = 1.0
	MinISO                  = 50
	MaxISO                  = 3200
	MaxShutterNs            = int64(1_000_000_000) // 1s
	MinZoom                 = 1.0
	MaxZoom                 = 8.0
	MinWhiteBalanceK        = 2000
	MaxWhiteBalanceK        = 10000
)

// Settings holds manual capture settings. Zero values mean automatic.
type Settings struct {
	ISO                  int     `json:"iso"`
	ShutterNs            int64   `json:"shutter_ns"`
	ExposureCompensation float64 `json:"exposure_compensation"`
	FocusDistance        float64 `json:"focus_distance"` // 0 = continuous autofocus
	WhiteBalanceK        int     `json:"white_balance_k"`
	Zoom                 float64 `json:"zoom"`
}

// DefaultSettings returns fully automatic settings with no zoom.
func DefaultSettings() Settings {
	return Settings{Zoom: 1.0}
}

// ClampExposure limits an exposure compensation value to the supported range.
func ClampExposure(ev float64) float64 {
	return clamp(ev, MinExposureCompensation, MaxExposureCompensation)
}

// ClampZoom limits a zoom ratio to the supported range.
func ClampZoom(z float64) float64 {
	return clamp(z, MinZoom, MaxZoom)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Validate checks settings against the sensor limits.
// Returns a list of validation errors, or nil if valid.
func (s Settings) Validate() []string {
	var errors []string

	if s.ISO != 0 && (s.ISO < MinISO || s.ISO > MaxISO) {
		errors = append(errors, fmt.Sprintf("iso must be 0 (auto) or between %d and %d", MinISO, MaxISO))
	}
	if s.ShutterNs < 0 || s.ShutterNs > MaxShutterNs {
		errors = append(errors, "shutter_ns must be 0 (auto) or at most 1s")
	}
	if s.ExposureCompensation < MinExposureCompensation || s.ExposureCompensation > MaxExposureCompensation {
		errors = append(errors, "exposure_compensation must be between -1.0 and 1.0")
	}
	if s.FocusDistance < 0 || s.FocusDistance > 1 {
		errors = append(errors, "focus_distance must be between 0 and 1")
	}
	if s.WhiteBalanceK != 0 && (s.WhiteBalanceK < MinWhiteBalanceK || s.WhiteBalanceK > MaxWhiteBalanceK) {
		errors = append(errors, "white_balance_k must be 0 (auto) or between 2000 and 10000")
	}
	if s.Zoom < MinZoom || s.Zoom > MaxZoom {
		errors = append(errors, "zoom must be between 1.0 and 8.0")
	}

	return errors
}

func validationError(problems []string) error {
	return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(problems, "; "))
}
