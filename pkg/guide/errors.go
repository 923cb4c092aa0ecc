package guide

import "errors"

var (
	// ErrInvalidTransition is returned by Advance for transitions outside the table.
	ErrInvalidTransition = errors.New("guide: invalid transition")

	// ErrUnknownState is returned when parsing an unknown state name.
	ErrUnknownState = errors.New("guide: unknown state")
)
