package camera

import "github.com/teslashibe/go-framing/pkg/geom"

// Control is the camera surface the orchestrator forwards user gestures and
// tracking to. Focus points are in source image pixels.
type Control interface {
	SetZoom(ratio float64) error
	SetFocusPoint(p geom.Point) error
	SetExposure(ev float64) error
}

// NopControl discards all camera commands.
type NopControl struct{}

// SetZoom does nothing.
func (NopControl) SetZoom(float64) error { return nil }

// SetFocusPoint does nothing.
func (NopControl) SetFocusPoint(geom.Point) error { return nil }

// SetExposure does nothing.
func (NopControl) SetExposure(float64) error { return nil }
