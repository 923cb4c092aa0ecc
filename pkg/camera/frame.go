// Package camera holds the camera-facing configuration of the framing
// pipeline: the preview frame proportions, manual capture settings and the
// control surface the orchestrator forwards zoom, focus and exposure to.
package camera

import (
	"fmt"
	"strings"
)

// FrameConfig is the preview frame proportion as width:height units in
// portrait orientation.
type FrameConfig struct {
	WidthRatio  int `json:"width_ratio"`
	HeightRatio int `json:"height_ratio"`
}

// DefaultFrameConfig returns the 3:4 portrait frame.
func DefaultFrameConfig() FrameConfig {
	return FrameConfig{WidthRatio: 3, HeightRatio: 4}
}

// Aspect returns width divided by height, or 0 for an unset config.
func (f FrameConfig) Aspect() float64 {
	if f.HeightRatio == 0 {
		return 0
	}
	return float64(f.WidthRatio) / float64(f.HeightRatio)
}

// AspectRatio is a user-selectable capture aspect.
type AspectRatio string

// Aspect ratios offered in the capture UI.
const (
	Aspect4x3  AspectRatio = "4:3"
	Aspect16x9 AspectRatio = "16:9"
	Aspect1x1  AspectRatio = "1:1"
	AspectFull AspectRatio = "full"
)

// AspectRatios returns the selectable aspect ratios in display order.
func AspectRatios() []AspectRatio {
	return []AspectRatio{Aspect4x3, Aspect16x9, Aspect1x1, AspectFull}
}

// ParseAspect parses an aspect ratio name such as "16:9".
func ParseAspect(s string) (AspectRatio, error) {
	a := AspectRatio(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AspectRatios() {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAspect, s)
}

// Apply returns the frame config selected by a. Square and full-sensor
// capture keep the current preview frame.
func (a AspectRatio) Apply(current FrameConfig) FrameConfig {
	switch a {
	case Aspect4x3:
		return FrameConfig{WidthRatio: 3, HeightRatio: 4}
	case Aspect16x9:
		return FrameConfig{WidthRatio: 9, HeightRatio: 16}
	default:
		return current
	}
}
