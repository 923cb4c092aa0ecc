package detection

import (
	"errors"
	"fmt"
)

// ErrBusy is returned when a dispatch is attempted while a previous call to
// the same detector is still in flight.
var ErrBusy = errors.New("detection: detector busy")

// PanicError wraps a panic recovered from a detector call.
type PanicError struct {
	Detector string
	Value    any
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("detection [%s]: detector panicked: %v", e.Detector, e.Value)
}
