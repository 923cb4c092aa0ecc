package overlay

import (
	"time"

	"github.com/teslashibe/go-framing/pkg/geom"
	"github.com/teslashibe/go-framing/pkg/pose"
	"github.com/teslashibe/go-framing/pkg/transform"
)

// ComposeConfig tunes overlay generation.
type ComposeConfig struct {
	FocusRingRadius float64       // View-space radius of the focus ring
	FocusRingTTL    time.Duration // How long the focus ring stays visible
	AllPeople       bool          // Draw every detected skeleton, not just the first
}

// DefaultComposeConfig returns the default overlay tuning.
func DefaultComposeConfig() ComposeConfig {
	return ComposeConfig{
		FocusRingRadius: 36,
		FocusRingTTL:    time.Second,
	}
}

// Compose derives the view-space overlays for s, back to front: mask,
// detection boxes, skeletons, focus ring.
func Compose(s *State, now time.Time, cfg ComposeConfig) List {
	var out List
	vp := s.Viewport

	if s.Mask != nil && !s.Mask.Empty() && vp.ImageWidth > 0 && vp.ImageHeight > 0 {
		out = append(out, SegmentationMask{
			Mask:    *s.Mask,
			Bounds:  vp.MapRect(geom.R(0, 0, float64(vp.ImageWidth), float64(vp.ImageHeight))),
			Flipped: vp.Flipped,
		})
	}

	for _, d := range s.Detections {
		box := ObjectBox{ID: d.ID, Box: vp.MapRect(d.Box)}
		if id, ok := d.Identity(); ok {
			box.Tracked = s.IsTracked(id)
		}
		if l, ok := d.TopLabel(); ok {
			box.Label, box.Score = l.Name, l.Score
		}
		out = append(out, box)
	}

	if s.Pose != nil {
		people := s.Pose.People
		if !cfg.AllPeople && len(people) > 1 {
			people = people[:1]
		}
		for _, p := range people {
			if sk, ok := skeleton(vp, p, s.Pose.LayoutOf(), s.Pose.Mirrored); ok {
				out = append(out, sk)
			}
		}
	}

	if s.FocusPoint != nil && cfg.FocusRingTTL > 0 {
		if age := now.Sub(s.FocusAt); age >= 0 && age < cfg.FocusRingTTL {
			out = append(out, FocusRing{
				Center: *s.FocusPoint,
				Radius: cfg.FocusRingRadius,
				Alpha:  1 - float64(age)/float64(cfg.FocusRingTTL),
			})
		}
	}

	return out
}

// skeleton maps a person's normalized landmarks into view space. Landmarks
// from a mirrored input are already in preview orientation, so they are not
// flipped again.
func skeleton(vp transform.Viewport, p pose.Person, layout *pose.Layout, mirrored bool) (PoseSkeleton, bool) {
	if mirrored {
		vp.Flipped = false
	}
	w := float64(vp.ImageWidth)
	h := float64(vp.ImageHeight)
	toView := func(n geom.Point) geom.Point {
		return vp.MapPoint(geom.Pt(n.X*w, n.Y*h))
	}

	joints, bones := pose.Skeleton(p, layout)
	if len(joints) == 0 {
		return PoseSkeleton{}, false
	}

	sk := PoseSkeleton{
		Joints: make([]geom.Point, len(joints)),
		Bones:  make([]Segment, len(bones)),
	}
	for i, j := range joints {
		sk.Joints[i] = toView(j)
	}
	for i, b := range bones {
		sk.Bones[i] = Segment{From: toView(b.From), To: toView(b.To)}
	}
	return sk, true
}
