// Package overlay holds the immutable per-frame snapshot published by the
// orchestrator, the typed overlay drawables derived from it and the store
// renderers read the latest snapshot from.
package overlay

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/teslashibe/go-framing/pkg/camera"
	"github.com/teslashibe/go-framing/pkg/detection"
	"github.com/teslashibe/go-framing/pkg/geom"
	"github.com/teslashibe/go-framing/pkg/guide"
	"github.com/teslashibe/go-framing/pkg/pose"
	"github.com/teslashibe/go-framing/pkg/transform"
)

// State is one published overlay snapshot. A published State is never
// mutated; the next frame publishes a new one.
type State struct {
	ID          ulid.ULID `json:"id"`
	Seq         uint64    `json:"seq"`
	PublishedAt time.Time `json:"published_at"`

	// Transform for the frame: image dimensions, mirroring, scale and offsets.
	transform.Viewport

	Detections        []detection.DetectedObject `json:"detections"`
	ClickedPoint      *geom.Point                `json:"clicked_point,omitempty"`
	TrackedIdentities []int                      `json:"tracked_identities"`

	GuideState guide.State   `json:"guide_state"`
	Message    guide.Message `json:"message"`

	BodyRatio  float64 `json:"body_ratio"`
	IdealRatio bool    `json:"ideal_ratio"`

	Orientation guide.Orientation  `json:"orientation"`
	Zoom        float64            `json:"zoom"`
	FocusPoint  *geom.Point        `json:"focus_point,omitempty"` // View space
	FocusAt     time.Time          `json:"-"`
	Frame       camera.FrameConfig `json:"frame"`

	Pose *pose.Result `json:"pose,omitempty"`
	Mask *Mask        `json:"-"`

	Overlays List `json:"overlays"`
}

// IsTracked reports whether id is in the tracked set.
func (s *State) IsTracked(id int) bool {
	for _, t := range s.TrackedIdentities {
		if t == id {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no mutable slices or pointers with s,
// except the pose result and mask data, which are read-only once produced.
func (s *State) Clone() *State {
	out := *s
	out.Detections = detection.CloneAll(s.Detections)
	if s.TrackedIdentities != nil {
		out.TrackedIdentities = append([]int(nil), s.TrackedIdentities...)
	}
	if s.ClickedPoint != nil {
		p := *s.ClickedPoint
		out.ClickedPoint = &p
	}
	if s.FocusPoint != nil {
		p := *s.FocusPoint
		out.FocusPoint = &p
	}
	if s.Overlays != nil {
		out.Overlays = append(List(nil), s.Overlays...)
	}
	return &out
}
