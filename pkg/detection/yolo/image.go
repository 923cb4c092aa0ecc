package yolo

import (
	"fmt"

	"github.com/teslashibe/go-framing/pkg/detection"
	"gocv.io/x/gocv"
)

// decodeUpright decodes the frame JPEG, rotates it upright and optionally
// mirrors it horizontally. The caller owns the returned Mat.
func decodeUpright(frame detection.Frame, mirror bool) (gocv.Mat, error) {
	img, err := gocv.IMDecode(frame.JPEG, gocv.IMReadColor)
	if err != nil {
		return img, fmt.Errorf("decode image: %w", err)
	}
	if img.Empty() {
		img.Close()
		return gocv.NewMat(), ErrEmptyImage
	}

	var code gocv.RotateFlag
	rotate := true
	switch ((frame.RotationDegrees % 360) + 360) % 360 {
	case 90:
		code = gocv.Rotate90Clockwise
	case 180:
		code = gocv.Rotate180Clockwise
	case 270:
		code = gocv.Rotate90CounterClockwise
	default:
		rotate = false
	}
	if rotate {
		rotated := gocv.NewMat()
		gocv.Rotate(img, &rotated, code)
		img.Close()
		img = rotated
	}

	if mirror {
		gocv.Flip(img, &img, 1)
	}
	return img, nil
}
