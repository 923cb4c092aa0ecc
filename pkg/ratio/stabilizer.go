// Package ratio smooths a noisy per-frame ratio measurement into a stable,
// debounced value using a sliding window average and a hysteresis threshold.
package ratio

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// Config holds the stabilizer tuning.
type Config struct {
	WindowSize      int     // Number of recent samples averaged
	UpdateThreshold float64 // Stable value moves only when the average differs by more than this
	IdealThreshold  float64 // Stable values at or above this are classified ideal
}

// DefaultConfig returns the tuning used for the leg-to-torso body ratio.
func DefaultConfig() Config {
	return Config{
		WindowSize:      10,
		UpdateThreshold: 0.05,
		IdealThreshold:  1.54,
	}
}

// Stabilizer keeps a bounded FIFO of samples and the last stable value.
// It is not safe for concurrent use.
type Stabilizer struct {
	config  Config
	samples []float64
	stable  float64
}

// NewStabilizer creates a stabilizer. A non-positive window size falls back
// to the default.
func NewStabilizer(config Config) *Stabilizer {
	if config.WindowSize <= 0 {
		config.WindowSize = DefaultConfig().WindowSize
	}
	return &Stabilizer{
		config:  config,
		samples: make([]float64, 0, config.WindowSize+1),
	}
}

// Update appends a sample, evicting the oldest when the window is full, and
// returns the stable value. The stable value is replaced by the window mean
// only if the mean deviates from it by more than the update threshold.
// NaN and infinite samples are ignored.
func (s *Stabilizer) Update(sample float64) float64 {
	if math.IsNaN(sample) || math.IsInf(sample, 0) {
		return s.stable
	}

	s.samples = append(s.samples, sample)
	if len(s.samples) > s.config.WindowSize {
		s.samples = s.samples[1:]
	}

	mean := stat.Mean(s.samples, nil)
	if math.Abs(mean-s.stable) > s.config.UpdateThreshold {
		s.stable = mean
	}
	return s.stable
}

// UpdateLengths feeds numerator/denominator as a ratio. The update is skipped
// when the denominator is zero. ok reports whether a sample was recorded.
func (s *Stabilizer) UpdateLengths(numerator, denominator float64) (stable float64, ok bool) {
	if denominator == 0 {
		return s.stable, false
	}
	return s.Update(numerator / denominator), true
}

// Stable returns the last stable value.
func (s *Stabilizer) Stable() float64 {
	return s.stable
}

// IsIdeal reports whether the stable value meets the ideal threshold.
func (s *Stabilizer) IsIdeal() bool {
	return s.stable >= s.config.IdealThreshold
}

// Len returns the number of samples currently in the window.
func (s *Stabilizer) Len() int {
	return len(s.samples)
}

// Reset clears the window and the stable value.
func (s *Stabilizer) Reset() {
	s.samples = s.samples[:0]
	s.stable = 0
}
