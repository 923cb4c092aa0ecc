package yolo

import (
	"context"

	"github.com/teslashibe/go-framing/pkg/debug"
	"github.com/teslashibe/go-framing/pkg/detection"
	"github.com/teslashibe/go-framing/pkg/geom"
	"gocv.io/x/gocv"
)

// ObjectDetector uses YOLOv8 for general object detection. It implements
// detection.ObjectDetector. Boxes are in upright image pixels and carry no
// identity; wrap it with detection.WithIdentities for tracking IDs.
type ObjectDetector struct {
	model   *model
	classes map[string]bool
}

// NewObjectDetector loads the object model.
func NewObjectDetector(cfg Config) (*ObjectDetector, error) {
	m, err := loadModel(cfg)
	if err != nil {
		return nil, err
	}
	d := &ObjectDetector{model: m}
	if len(cfg.Classes) > 0 {
		d.classes = make(map[string]bool, len(cfg.Classes))
		for _, c := range cfg.Classes {
			d.classes[c] = true
		}
	}
	return d, nil
}

// Detect finds objects in the frame.
func (d *ObjectDetector) Detect(ctx context.Context, frame detection.Frame) ([]detection.DetectedObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := decodeUpright(frame, false)
	if err != nil {
		return nil, err
	}
	defer img.Close()

	t, sx, sy, err := d.model.forward(img)
	if err != nil {
		return nil, err
	}

	cfg := d.model.config
	cands := classCandidates(t, sx, sy, cfg.ConfidenceThresh)
	if len(cands) == 0 {
		return nil, nil
	}

	boxes, scores := splitCandidates(cands)
	indices := gocv.NMSBoxes(boxes, scores, cfg.ConfidenceThresh, cfg.NMSThresh)

	var out []detection.DetectedObject
	for _, idx := range indices {
		c := cands[idx]
		name := ClassName(c.classID)
		if d.classes != nil && !d.classes[name] {
			continue
		}
		out = append(out, detection.DetectedObject{
			Box: geom.R(
				float64(c.box.Min.X), float64(c.box.Min.Y),
				float64(c.box.Max.X), float64(c.box.Max.Y),
			),
			Labels: []detection.Label{{Name: name, Score: float64(c.score)}},
		})
	}

	debug.FrameLog("yolo objects", "frame", frame.Seq, "count", len(out))
	return out, nil
}

// Close releases the detector resources
func (d *ObjectDetector) Close() error {
	return d.model.close()
}
