package overlay

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/teslashibe/go-framing/pkg/geom"
)

// Kind tags an overlay variant.
type Kind string

// Overlay kinds.
const (
	KindObjectBox        Kind = "object_box"
	KindPoseSkeleton     Kind = "pose_skeleton"
	KindSegmentationMask Kind = "segmentation_mask"
	KindFocusRing        Kind = "focus_ring"
)

// Overlay is one drawable item in view space. The set of implementations is
// closed: ObjectBox, PoseSkeleton, SegmentationMask and FocusRing.
type Overlay interface {
	Kind() Kind
	overlay()
}

// ObjectBox outlines a detection. Tracked boxes are drawn emphasised.
type ObjectBox struct {
	ID      *int      `json:"id,omitempty"`
	Box     geom.Rect `json:"box"`
	Label   string    `json:"label,omitempty"`
	Score   float64   `json:"score,omitempty"`
	Tracked bool      `json:"tracked"`
}

// PoseSkeleton is one person's visible joints and bones.
type PoseSkeleton struct {
	Joints []geom.Point `json:"joints"`
	Bones  []Segment    `json:"bones"`
}

// Segment is a line between two view-space points.
type Segment struct {
	From geom.Point `json:"from"`
	To   geom.Point `json:"to"`
}

// SegmentationMask places a per-pixel mask over the image area.
type SegmentationMask struct {
	Mask    Mask      `json:"mask"`
	Bounds  geom.Rect `json:"bounds"`
	Flipped bool      `json:"flipped"`
}

// FocusRing marks a tap-to-focus point. Alpha fades from 1 to 0.
type FocusRing struct {
	Center geom.Point `json:"center"`
	Radius float64    `json:"radius"`
	Alpha  float64    `json:"alpha"`
}

// Kind implements Overlay.
func (ObjectBox) Kind() Kind { return KindObjectBox }

// Kind implements Overlay.
func (PoseSkeleton) Kind() Kind { return KindPoseSkeleton }

// Kind implements Overlay.
func (SegmentationMask) Kind() Kind { return KindSegmentationMask }

// Kind implements Overlay.
func (FocusRing) Kind() Kind { return KindFocusRing }

func (ObjectBox) overlay()        {}
func (PoseSkeleton) overlay()     {}
func (SegmentationMask) overlay() {}
func (FocusRing) overlay()        {}

// List is an ordered overlay set, drawn back to front.
type List []Overlay

type tagged struct {
	Kind Kind    `json:"kind"`
	Data Overlay `json:"data"`
}

// MarshalJSON encodes each overlay with its kind tag.
func (l List) MarshalJSON() ([]byte, error) {
	items := make([]tagged, len(l))
	for i, o := range l {
		items[i] = tagged{Kind: o.Kind(), Data: o}
	}
	return jsoniter.Marshal(items)
}

// Count returns the number of overlays of kind k.
func (l List) Count(k Kind) int {
	n := 0
	for _, o := range l {
		if o.Kind() == k {
			n++
		}
	}
	return n
}

// Mask is a row-major single-channel confidence mask (0-255).
type Mask struct {
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Data   []uint8 `json:"-"`
}

// Empty reports whether the mask has no pixels.
func (m Mask) Empty() bool {
	return m.Width <= 0 || m.Height <= 0 || len(m.Data) < m.Width*m.Height
}
