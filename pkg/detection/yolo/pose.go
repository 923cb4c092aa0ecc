package yolo

import (
	"context"

	"github.com/teslashibe/go-framing/pkg/debug"
	"github.com/teslashibe/go-framing/pkg/detection"
	"github.com/teslashibe/go-framing/pkg/pose"
	"gocv.io/x/gocv"
)

// PoseDetector runs a YOLOv8-pose model and reports COCO 17-keypoint people
// in normalized image coordinates. It implements detection.PoseDetector.
//
// Front-facing frames are mirrored before inference so the landmarks line up
// with the mirrored preview.
type PoseDetector struct {
	model *model
}

// NewPoseDetector loads the pose model.
func NewPoseDetector(cfg Config) (*PoseDetector, error) {
	m, err := loadModel(cfg)
	if err != nil {
		return nil, err
	}
	return &PoseDetector{model: m}, nil
}

// DetectPose finds people in the frame, highest confidence first.
func (d *PoseDetector) DetectPose(ctx context.Context, frame detection.Frame) (pose.Result, error) {
	if err := ctx.Err(); err != nil {
		return pose.Result{}, err
	}

	img, err := decodeUpright(frame, frame.FrontFacing)
	if err != nil {
		return pose.Result{}, err
	}
	defer img.Close()

	t, sx, sy, err := d.model.forward(img)
	if err != nil {
		return pose.Result{}, err
	}

	res := pose.Result{
		InputWidth:  img.Cols(),
		InputHeight: img.Rows(),
		Layout:      pose.COCO17,
		Mirrored:    frame.FrontFacing,
	}

	cfg := d.model.config
	cands := poseCandidates(t, sx, sy, cfg.ConfidenceThresh)
	if len(cands) == 0 {
		return res, nil
	}

	boxes, scores := splitCandidates(cands)
	indices := gocv.NMSBoxes(boxes, scores, cfg.ConfidenceThresh, cfg.NMSThresh)

	w := float64(res.InputWidth)
	h := float64(res.InputHeight)
	for _, idx := range indices {
		kps := t.keypoints(cands[idx].row, sx, sy)
		person := make(pose.Person, len(kps))
		for k, kp := range kps {
			person[k] = pose.Landmark{
				X:          float64(kp[0]) / w,
				Y:          float64(kp[1]) / h,
				Visibility: float64(kp[2]),
			}
		}
		res.People = append(res.People, person)
	}

	debug.FrameLog("yolo pose", "frame", frame.Seq, "people", len(res.People))
	return res, nil
}

// Close releases the detector resources
func (d *PoseDetector) Close() error {
	return d.model.close()
}
