package ratio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStabilizer_ConvergesAndHolds(t *testing.T) {
	s := NewStabilizer(DefaultConfig())

	for i := 0; i < 10; i++ {
		s.Update(1.6)
	}
	require.InDelta(t, 1.6, s.Stable(), 1e-9)

	for i := 0; i < 20; i++ {
		assert.InDelta(t, 1.6, s.Update(1.6), 1e-9)
	}
	assert.Equal(t, 10, s.Len())
	assert.True(t, s.IsIdeal())
}

func TestStabilizer_HysteresisHoldsSmallDrift(t *testing.T) {
	s := NewStabilizer(DefaultConfig())
	for i := 0; i < 10; i++ {
		s.Update(1.0)
	}
	require.InDelta(t, 1.0, s.Stable(), 1e-9)

	// Window mean moves to 1.003, well inside the 0.05 threshold.
	got := s.Update(1.03)
	assert.InDelta(t, 1.0, got, 1e-9)
}

func TestStabilizer_OutlierIsDamped(t *testing.T) {
	s := NewStabilizer(DefaultConfig())
	for i := 0; i < 10; i++ {
		s.Update(1.0)
	}
	before := s.Stable()

	got := s.Update(3.0)

	// Window mean is (9*1.0 + 3.0)/10 = 1.2: the stable value may move to the
	// mean but never to the outlier itself.
	windowShift := 0.2
	assert.LessOrEqual(t, math.Abs(got-before), windowShift+1e-9)
	assert.InDelta(t, 1.2, got, 1e-9)
}

func TestStabilizer_WindowEviction(t *testing.T) {
	s := NewStabilizer(Config{WindowSize: 3, UpdateThreshold: 0, IdealThreshold: 1.54})
	s.Update(1)
	s.Update(2)
	s.Update(3)
	assert.InDelta(t, 2.0, s.Stable(), 1e-9)

	s.Update(4) // evicts 1
	assert.InDelta(t, 3.0, s.Stable(), 1e-9)
	assert.Equal(t, 3, s.Len())
}

func TestStabilizer_IdealThreshold(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		ideal bool
	}{
		{"below", 1.5, false},
		{"exact", 1.54, true},
		{"above", 1.8, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStabilizer(DefaultConfig())
			s.Update(tt.value)
			assert.Equal(t, tt.ideal, s.IsIdeal())
		})
	}
}

func TestStabilizer_UpdateLengthsSkipsZeroDenominator(t *testing.T) {
	s := NewStabilizer(DefaultConfig())

	_, ok := s.UpdateLengths(0.5, 0)
	assert.False(t, ok)
	assert.Equal(t, 0, s.Len())

	stable, ok := s.UpdateLengths(0.6, 0.3)
	assert.True(t, ok)
	assert.InDelta(t, 2.0, stable, 1e-9)
}

func TestStabilizer_IgnoresNonFinite(t *testing.T) {
	s := NewStabilizer(DefaultConfig())
	s.Update(math.NaN())
	s.Update(math.Inf(1))
	assert.Equal(t, 0, s.Len())
	assert.Zero(t, s.Stable())
}

func TestStabilizer_Reset(t *testing.T) {
	s := NewStabilizer(DefaultConfig())
	s.Update(2)
	s.Reset()
	assert.Zero(t, s.Stable())
	assert.Zero(t, s.Len())
}
