// Package debug provides global debug logging flags
package debug

import (
	"fmt"

	"github.com/teslashibe/go-framing/internal/log"
)

// Enabled controls whether debug logging is active
var Enabled bool

// Frames controls whether per-frame logs are shown (hit tests, dispatch, staleness).
// Use --debug-frames to enable these very verbose logs
var Frames bool

// Log emits a formatted debug message only if debug mode is enabled
func Log(format string, args ...any) {
	if Enabled {
		log.Debug(fmt.Sprintf(format, args...))
	}
}

// FrameLog emits a structured debug message only if frame debugging is enabled
func FrameLog(msg string, args ...any) {
	if Frames {
		log.Debug(msg, args...)
	}
}
