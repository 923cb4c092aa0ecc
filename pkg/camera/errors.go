package camera

import "errors"

var (
	// ErrUnknownAspect is returned when an aspect ratio name is not recognised.
	ErrUnknownAspect = errors.New("camera: unknown aspect ratio")

	// ErrUnknownPreset is returned when a settings preset name is not recognised.
	ErrUnknownPreset = errors.New("camera: unknown preset")

	// ErrInvalidSettings is returned when settings fail validation.
	ErrInvalidSettings = errors.New("camera: invalid settings")
)
