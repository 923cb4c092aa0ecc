// Package render draws overlay snapshots onto camera frames with OpenCV.
// It backs the annotated debug stream on the dashboard.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/teslashibe/go-framing/pkg/overlay"
	"gocv.io/x/gocv"
)

// Style holds drawing colours and sizes.
type Style struct {
	Tracked   color.RGBA
	Untracked color.RGBA
	Skeleton  color.RGBA
	Joint     color.RGBA
	Focus     color.RGBA
	Mask      float64 // Mask blend weight
	Thickness int
	Corner    float64 // Tracked corner bracket length as a fraction of the shorter side
}

// DefaultStyle returns the dashboard drawing style.
func DefaultStyle() Style {
	return Style{
		Tracked:   color.RGBA{255, 214, 0, 255},
		Untracked: color.RGBA{200, 200, 200, 255},
		Skeleton:  color.RGBA{0, 230, 118, 255},
		Joint:     color.RGBA{255, 255, 255, 255},
		Focus:     color.RGBA{255, 255, 255, 255},
		Mask:      0.35,
		Thickness: 3,
		Corner:    0.25,
	}
}

// Canvas draws overlays onto a view-sized BGR Mat. It implements
// overlay.Renderer.
type Canvas struct {
	mat   *gocv.Mat
	style Style
}

// NewCanvas wraps mat for drawing.
func NewCanvas(mat *gocv.Mat, style Style) *Canvas {
	return &Canvas{mat: mat, style: style}
}

func pt(x, y float64) image.Point {
	return image.Pt(int(math.Round(x)), int(math.Round(y)))
}

func (c *Canvas) bounds() image.Rectangle {
	return image.Rect(0, 0, c.mat.Cols(), c.mat.Rows())
}

// ObjectBox draws a detection box. Tracked boxes get corner brackets.
func (c *Canvas) ObjectBox(b overlay.ObjectBox) {
	r := image.Rectangle{Min: pt(b.Box.Left, b.Box.Top), Max: pt(b.Box.Right, b.Box.Bottom)}

	if !b.Tracked {
		gocv.Rectangle(c.mat, r, c.style.Untracked, 1)
	} else {
		c.corners(r)
	}

	if b.Label != "" {
		text := fmt.Sprintf("%s %.0f%%", b.Label, b.Score*100)
		if b.ID != nil {
			text = fmt.Sprintf("#%d %s", *b.ID, text)
		}
		col := c.style.Untracked
		if b.Tracked {
			col = c.style.Tracked
		}
		gocv.PutText(c.mat, text, image.Pt(r.Min.X, r.Min.Y-6), gocv.FontHersheySimplex, 0.5, col, 1)
	}
}

func (c *Canvas) corners(r image.Rectangle) {
	side := r.Dx()
	if r.Dy() < side {
		side = r.Dy()
	}
	n := int(float64(side) * c.style.Corner)
	col, th := c.style.Tracked, c.style.Thickness

	for _, corner := range []struct {
		p      image.Point
		dx, dy int
	}{
		{r.Min, 1, 1},
		{image.Pt(r.Max.X, r.Min.Y), -1, 1},
		{image.Pt(r.Min.X, r.Max.Y), 1, -1},
		{r.Max, -1, -1},
	} {
		gocv.Line(c.mat, corner.p, image.Pt(corner.p.X+corner.dx*n, corner.p.Y), col, th)
		gocv.Line(c.mat, corner.p, image.Pt(corner.p.X, corner.p.Y+corner.dy*n), col, th)
	}
}

// PoseSkeleton draws bones and joints.
func (c *Canvas) PoseSkeleton(s overlay.PoseSkeleton) {
	for _, b := range s.Bones {
		gocv.Line(c.mat, pt(b.From.X, b.From.Y), pt(b.To.X, b.To.Y), c.style.Skeleton, c.style.Thickness)
	}
	for _, j := range s.Joints {
		gocv.Circle(c.mat, pt(j.X, j.Y), c.style.Thickness+1, c.style.Joint, -1)
	}
}

// SegmentationMask blends the mask over its bounds.
func (c *Canvas) SegmentationMask(m overlay.SegmentationMask) {
	if m.Mask.Empty() {
		return
	}
	dst := image.Rectangle{
		Min: pt(m.Bounds.Left, m.Bounds.Top),
		Max: pt(m.Bounds.Right, m.Bounds.Bottom),
	}
	if dst.Dx() <= 0 || dst.Dy() <= 0 {
		return
	}

	gray, err := gocv.NewMatFromBytes(m.Mask.Height, m.Mask.Width, gocv.MatTypeCV8U, m.Mask.Data[:m.Mask.Width*m.Mask.Height])
	if err != nil {
		return
	}
	defer gray.Close()

	// gray borrows the mask bytes, so only the resized copy is flipped.
	scaled := gocv.NewMat()
	defer scaled.Close()
	gocv.Resize(gray, &scaled, image.Pt(dst.Dx(), dst.Dy()), 0, 0, gocv.InterpolationLinear)
	if m.Flipped {
		gocv.Flip(scaled, &scaled, 1)
	}

	tint := gocv.NewMat()
	defer tint.Close()
	gocv.CvtColor(scaled, &tint, gocv.ColorGrayToBGR)

	// Only the on-canvas part of the mask is blended.
	visible := dst.Intersect(c.bounds())
	if visible.Empty() {
		return
	}
	src := tint.Region(visible.Sub(dst.Min))
	defer src.Close()
	roi := c.mat.Region(visible)
	defer roi.Close()
	gocv.AddWeighted(roi, 1, src, c.style.Mask, 0, &roi)
}

// FocusRing draws a fading ring.
func (c *Canvas) FocusRing(f overlay.FocusRing) {
	col := c.style.Focus
	col.A = uint8(255 * math.Max(0, math.Min(1, f.Alpha)))
	gocv.Circle(c.mat, pt(f.Center.X, f.Center.Y), int(f.Radius), col, 2)
}

// Caption writes a line of text at the bottom of the canvas.
func (c *Canvas) Caption(line int, text string, col color.RGBA) {
	y := c.mat.Rows() - 16 - line*28
	gocv.PutText(c.mat, text, image.Pt(16, y), gocv.FontHersheySimplex, 0.7, col, 2)
}
