package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/teslashibe/go-framing/pkg/detection"
	"github.com/teslashibe/go-framing/pkg/overlay"
	"gocv.io/x/gocv"
)

// ErrNoView is returned when the snapshot has no usable view box.
var ErrNoView = errors.New("render: snapshot has no view box")

// Annotator renders a snapshot over its camera frame, producing the view
// the user sees: the frame is rotated upright, mirrored for front cameras,
// scaled and cropped (or letterboxed) by the snapshot's transform.
type Annotator struct {
	Style   Style
	Quality int
}

// NewAnnotator returns an annotator with the default style.
func NewAnnotator() *Annotator {
	return &Annotator{Style: DefaultStyle(), Quality: 80}
}

// Annotate draws st over frame and returns the JPEG-encoded view.
func (a *Annotator) Annotate(frame detection.Frame, st *overlay.State) ([]byte, error) {
	viewW := int(math.Round(st.ViewWidth))
	viewH := int(math.Round(st.ViewHeight))
	if viewW <= 0 || viewH <= 0 {
		return nil, ErrNoView
	}

	img, err := gocv.IMDecode(frame.JPEG, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("render: decode: %w", err)
	}
	defer img.Close()
	if img.Empty() {
		return nil, errors.New("render: empty frame")
	}

	upright(&img, frame.RotationDegrees)
	if st.Flipped {
		gocv.Flip(img, &img, 1)
	}

	canvas := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), viewH, viewW, gocv.MatTypeCV8UC3)
	defer canvas.Close()
	a.place(img, &canvas, st)

	c := NewCanvas(&canvas, a.Style)
	overlay.Dispatch(c, st.Overlays)

	if st.Message.Visible {
		c.Caption(1, st.Message.Text, color.RGBA{255, 255, 255, 255})
	}
	if st.BodyRatio > 0 {
		col := c.style.Untracked
		if st.IdealRatio {
			col = c.style.Skeleton
		}
		c.Caption(0, fmt.Sprintf("ratio %.2f", st.BodyRatio), col)
	}

	quality := a.Quality
	if quality <= 0 || quality > 100 {
		quality = 80
	}
	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, canvas, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("render: encode: %w", err)
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}

// place scales img by the snapshot transform and copies the part that falls
// inside the view onto canvas.
func (a *Annotator) place(img gocv.Mat, canvas *gocv.Mat, st *overlay.State) {
	s := st.ScaleFactor
	if s <= 0 {
		return
	}
	scaledW := int(math.Round(float64(img.Cols()) * s))
	scaledH := int(math.Round(float64(img.Rows()) * s))
	if scaledW <= 0 || scaledH <= 0 {
		return
	}

	scaled := gocv.NewMat()
	defer scaled.Close()
	gocv.Resize(img, &scaled, image.Pt(scaledW, scaledH), 0, 0, gocv.InterpolationLinear)

	// The scaled image sits at (-offsetX, -offsetY) in view space.
	origin := image.Pt(int(math.Round(-st.OffsetX)), int(math.Round(-st.OffsetY)))
	placed := image.Rect(0, 0, scaledW, scaledH).Add(origin)
	visible := placed.Intersect(image.Rect(0, 0, canvas.Cols(), canvas.Rows()))
	if visible.Empty() {
		return
	}

	src := scaled.Region(visible.Sub(origin))
	defer src.Close()
	dst := canvas.Region(visible)
	defer dst.Close()
	src.CopyTo(&dst)
}

func upright(img *gocv.Mat, degrees int) {
	var code gocv.RotateFlag
	switch ((degrees % 360) + 360) % 360 {
	case 90:
		code = gocv.Rotate90Clockwise
	case 180:
		code = gocv.Rotate180Clockwise
	case 270:
		code = gocv.Rotate90CounterClockwise
	default:
		return
	}
	rotated := gocv.NewMat()
	gocv.Rotate(*img, &rotated, code)
	img.Close()
	*img = rotated
}
