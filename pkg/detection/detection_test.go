package detection

import (
	"testing"

	"github.com/teslashibe/go-framing/pkg/geom"
)

func TestFrame_Upright(t *testing.T) {
	tests := []struct {
		rotation int
		w, h     int
	}{
		{0, 640, 480},
		{90, 480, 640},
		{180, 640, 480},
		{270, 480, 640},
		{-90, 480, 640},
		{450, 480, 640},
	}

	for _, tt := range tests {
		f := Frame{Width: 640, Height: 480, RotationDegrees: tt.rotation}
		w, h := f.Upright()
		if w != tt.w || h != tt.h {
			t.Errorf("rotation %d: got %dx%d, want %dx%d", tt.rotation, w, h, tt.w, tt.h)
		}
	}
}

func TestDetectedObject_Identity(t *testing.T) {
	if _, ok := (DetectedObject{}).Identity(); ok {
		t.Error("nil ID should report no identity")
	}
	id, ok := DetectedObject{ID: ID(7)}.Identity()
	if !ok || id != 7 {
		t.Errorf("Identity: got (%d, %v), want (7, true)", id, ok)
	}
}

func TestDetectedObject_CloneIsDeep(t *testing.T) {
	orig := DetectedObject{
		ID:     ID(3),
		Box:    geom.R(0, 0, 10, 10),
		Labels: []Label{{Name: "person", Score: 0.9}},
	}
	c := orig.Clone()
	*c.ID = 99
	c.Labels[0].Name = "dog"

	if *orig.ID != 3 || orig.Labels[0].Name != "person" {
		t.Errorf("clone shares state with original: %+v", orig)
	}
}
