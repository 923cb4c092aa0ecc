// Package yolo adapts YOLOv8 ONNX models, run through OpenCV's DNN module,
// to the framing detector interfaces: a light object detector and a pose
// detector producing COCO keypoints.
package yolo

// Config holds detector configuration
type Config struct {
	ModelPath        string
	ConfidenceThresh float32
	NMSThresh        float32
	InputWidth       int
	InputHeight      int

	// Classes restricts object detections to these class names. Empty keeps all.
	Classes []string
}

// DefaultConfig returns production defaults for YOLOv8n object detection.
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/yolov8n.onnx",
		ConfidenceThresh: 0.5,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
	}
}

// DefaultPoseConfig returns production defaults for YOLOv8n-pose.
func DefaultPoseConfig() Config {
	cfg := DefaultConfig()
	cfg.ModelPath = "models/yolov8n-pose.onnx"
	cfg.ConfidenceThresh = 0.4
	return cfg
}
