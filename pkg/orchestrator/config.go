package orchestrator

import (
	"log/slog"
	"time"

	"github.com/teslashibe/go-framing/pkg/camera"
	"github.com/teslashibe/go-framing/pkg/guide"
	"github.com/teslashibe/go-framing/pkg/overlay"
	"github.com/teslashibe/go-framing/pkg/ratio"
	"github.com/teslashibe/go-framing/pkg/selection"
	"github.com/teslashibe/go-framing/pkg/transform"
)

// Config holds orchestrator configuration.
type Config struct {
	// View box the overlays are drawn into.
	ViewWidth  float64
	ViewHeight float64
	Mode       transform.Mode

	// StaleEvery is the frame interval between staleness checks. The
	// staleness deadline itself is Selection.StaleAfter.
	StaleEvery uint64

	// DetectorTimeout bounds a single detector call. Zero means no limit.
	DetectorTimeout time.Duration

	Selection selection.Config
	Guide     guide.Config
	Ratio     ratio.Config
	Compose   overlay.ComposeConfig
}

// DefaultConfig returns the default configuration for a 1080x1440 view.
func DefaultConfig() Config {
	return Config{
		ViewWidth:       1080,
		ViewHeight:      1440,
		Mode:            transform.ModeFill,
		StaleEvery:      15,
		DetectorTimeout: 2 * time.Second,
		Selection:       selection.DefaultConfig(),
		Guide:           guide.DefaultConfig(),
		Ratio:           ratio.DefaultConfig(),
		Compose:         overlay.DefaultComposeConfig(),
	}
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithCameraControl forwards zoom, focus and exposure to c.
func WithCameraControl(c camera.Control) Option {
	return func(o *Orchestrator) {
		o.control = c
	}
}

// WithStore publishes snapshots into s instead of a private store.
func WithStore(s *overlay.Store) Option {
	return func(o *Orchestrator) {
		o.store = s
	}
}
