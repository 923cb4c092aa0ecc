// Package detection defines the per-frame detector model consumed by the
// framing core: detected objects, the frame they came from, the detector
// interfaces and an asynchronous dispatcher that publishes results for the
// next frame to pick up.
package detection

import (
	"context"
	"time"

	"github.com/teslashibe/go-framing/pkg/geom"
	"github.com/teslashibe/go-framing/pkg/pose"
)

// Label is a classification with its confidence.
type Label struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// DetectedObject is one object found in a frame. Box is in source image
// pixels. ID is the detector-assigned tracking identity and may be nil.
type DetectedObject struct {
	ID     *int      `json:"id,omitempty"`
	Box    geom.Rect `json:"box"`
	Labels []Label   `json:"labels,omitempty"`
}

// ID returns a pointer to n, for building DetectedObject literals.
func ID(n int) *int {
	return &n
}

// Identity returns the tracking identity, if any.
func (d DetectedObject) Identity() (int, bool) {
	if d.ID == nil {
		return 0, false
	}
	return *d.ID, true
}

// TopLabel returns the first (highest ranked) label.
func (d DetectedObject) TopLabel() (Label, bool) {
	if len(d.Labels) == 0 {
		return Label{}, false
	}
	return d.Labels[0], true
}

// Clone returns a deep copy so snapshots never share backing arrays.
func (d DetectedObject) Clone() DetectedObject {
	out := d
	if d.ID != nil {
		out.ID = ID(*d.ID)
	}
	if d.Labels != nil {
		out.Labels = append([]Label(nil), d.Labels...)
	}
	return out
}

// CloneAll deep-copies a detection list.
func CloneAll(dets []DetectedObject) []DetectedObject {
	if dets == nil {
		return nil
	}
	out := make([]DetectedObject, len(dets))
	for i, d := range dets {
		out[i] = d.Clone()
	}
	return out
}

// Frame is one camera frame as handed over by the capture pipeline.
// Width and Height are the raw buffer dimensions before rotation.
type Frame struct {
	Seq             uint64
	Width           int
	Height          int
	RotationDegrees int
	FrontFacing     bool
	Timestamp       time.Time
	JPEG            []byte
}

// Upright returns the frame dimensions after applying the sensor rotation.
// Quarter turns swap width and height.
func (f Frame) Upright() (width, height int) {
	switch ((f.RotationDegrees % 360) + 360) % 360 {
	case 90, 270:
		return f.Height, f.Width
	default:
		return f.Width, f.Height
	}
}

// ObjectDetector is the always-on lightweight detector.
type ObjectDetector interface {
	Detect(ctx context.Context, frame Frame) ([]DetectedObject, error)
}

// PoseDetector is the secondary detector, run only while guidance needs it.
type PoseDetector interface {
	DetectPose(ctx context.Context, frame Frame) (pose.Result, error)
}

// ObjectDetectorFunc adapts a function to ObjectDetector.
type ObjectDetectorFunc func(ctx context.Context, frame Frame) ([]DetectedObject, error)

// Detect calls f.
func (f ObjectDetectorFunc) Detect(ctx context.Context, frame Frame) ([]DetectedObject, error) {
	return f(ctx, frame)
}

// PoseDetectorFunc adapts a function to PoseDetector.
type PoseDetectorFunc func(ctx context.Context, frame Frame) (pose.Result, error)

// DetectPose calls f.
func (f PoseDetectorFunc) DetectPose(ctx context.Context, frame Frame) (pose.Result, error) {
	return f(ctx, frame)
}
