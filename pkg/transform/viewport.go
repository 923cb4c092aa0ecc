// Package transform maps detector-space coordinates (source image pixels)
// into view-space coordinates for overlay rendering.
//
// A Viewport caches the scale and offsets for the current image and view
// dimensions. The cache is invalidated whenever the source dimensions, the
// mirroring flag or the view box change, and is only recomputed on demand.
package transform

import "github.com/teslashibe/go-framing/pkg/geom"

// Mode selects how the source image is scaled into the view box.
type Mode int

const (
	// ModeFill scales so the image covers the view and centers the overflow.
	// The width binds when the view is wider than the image. This matches
	// a center-cropped camera preview, so overlays line up with the preview.
	ModeFill Mode = iota

	// ModeFit scales so the whole image fits inside the view (letterbox).
	ModeFit
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeFill:
		return "fill"
	case ModeFit:
		return "fit"
	default:
		return "unknown"
	}
}

// Viewport is the immutable transform state. Mutating methods return a copy.
type Viewport struct {
	ImageWidth  int  `json:"image_width"`
	ImageHeight int  `json:"image_height"`
	Flipped     bool `json:"is_image_flipped"`

	ViewWidth  float64 `json:"view_width"`
	ViewHeight float64 `json:"view_height"`
	Mode       Mode    `json:"mode"`

	ScaleFactor float64 `json:"scale_factor"`
	OffsetX     float64 `json:"offset_x"`
	OffsetY     float64 `json:"offset_y"`

	NeedsRecompute bool `json:"needs_transform_recompute"`
}

// New returns an identity viewport that needs a recompute.
func New(mode Mode) Viewport {
	return Viewport{Mode: mode, ScaleFactor: 1, NeedsRecompute: true}
}

// WithSource records the source image dimensions and mirroring flag.
// The cached transform is invalidated only if something changed.
func (v Viewport) WithSource(width, height int, flipped bool) Viewport {
	if v.ImageWidth == width && v.ImageHeight == height && v.Flipped == flipped {
		return v
	}
	v.ImageWidth = width
	v.ImageHeight = height
	v.Flipped = flipped
	v.NeedsRecompute = true
	return v
}

// WithMode switches the scaling mode and invalidates the cache on change.
func (v Viewport) WithMode(mode Mode) Viewport {
	if v.Mode == mode {
		return v
	}
	v.Mode = mode
	v.NeedsRecompute = true
	return v
}

// Recompute returns the viewport fitted to the given view box. When the cache
// is valid for that view box the receiver is returned unchanged.
//
// Non-positive image or view dimensions yield the identity transform and the
// viewport stays dirty so the next valid call computes it.
func (v Viewport) Recompute(viewWidth, viewHeight float64) Viewport {
	if !v.NeedsRecompute && v.ViewWidth == viewWidth && v.ViewHeight == viewHeight {
		return v
	}
	v.ViewWidth = viewWidth
	v.ViewHeight = viewHeight

	if v.ImageWidth <= 0 || v.ImageHeight <= 0 || viewWidth <= 0 || viewHeight <= 0 {
		v.ScaleFactor, v.OffsetX, v.OffsetY = 1, 0, 0
		v.NeedsRecompute = true
		return v
	}

	imgW := float64(v.ImageWidth)
	imgH := float64(v.ImageHeight)
	viewAspect := viewWidth / viewHeight
	imageAspect := imgW / imgH

	// Equal aspect ratios take the width-binding branch in both modes.
	var widthBinds bool
	switch v.Mode {
	case ModeFit:
		widthBinds = viewAspect <= imageAspect
	default:
		widthBinds = viewAspect >= imageAspect
	}

	if widthBinds {
		v.ScaleFactor = viewWidth / imgW
		v.OffsetX = 0
		v.OffsetY = (imgH*v.ScaleFactor - viewHeight) / 2
	} else {
		v.ScaleFactor = viewHeight / imgH
		v.OffsetX = (imgW*v.ScaleFactor - viewWidth) / 2
		v.OffsetY = 0
	}

	v.NeedsRecompute = false
	return v
}

// TranslateX maps a source x coordinate into view space, mirroring about the
// image's vertical axis when the source is flipped.
func (v Viewport) TranslateX(x float64) float64 {
	if v.Flipped {
		return v.ScaleFactor*(float64(v.ImageWidth)-x) - v.OffsetX
	}
	return v.ScaleFactor*x - v.OffsetX
}

// TranslateY maps a source y coordinate into view space. There is no
// vertical mirroring.
func (v Viewport) TranslateY(y float64) float64 {
	return v.ScaleFactor*y - v.OffsetY
}

// Scale converts a source-space length into view space.
func (v Viewport) Scale(length float64) float64 {
	return length * v.ScaleFactor
}

// MapPoint maps a source point into view space.
func (v Viewport) MapPoint(p geom.Point) geom.Point {
	return geom.Point{X: v.TranslateX(p.X), Y: v.TranslateY(p.Y)}
}

// MapRect maps a source box into view space. The result is normalized, so a
// mirrored box still has Left <= Right.
func (v Viewport) MapRect(r geom.Rect) geom.Rect {
	return geom.Rect{
		Left:   v.TranslateX(r.Left),
		Top:    v.TranslateY(r.Top),
		Right:  v.TranslateX(r.Right),
		Bottom: v.TranslateY(r.Bottom),
	}.Normalize()
}

// Invert maps a view-space point back into source image space.
// The identity is returned when the scale is degenerate.
func (v Viewport) Invert(p geom.Point) geom.Point {
	if v.ScaleFactor == 0 {
		return p
	}
	x := (p.X + v.OffsetX) / v.ScaleFactor
	if v.Flipped {
		x = float64(v.ImageWidth) - x
	}
	return geom.Point{X: x, Y: (p.Y + v.OffsetY) / v.ScaleFactor}
}
