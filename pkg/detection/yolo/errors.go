package yolo

import "errors"

var (
	// ErrModelNotFound is returned when the ONNX model file does not exist.
	ErrModelNotFound = errors.New("yolo: model file not found")

	// ErrModelLoad is returned when OpenCV cannot load the model.
	ErrModelLoad = errors.New("yolo: failed to load model")

	// ErrEmptyImage is returned when a frame decodes to an empty image.
	ErrEmptyImage = errors.New("yolo: empty image")

	// ErrOutputShape is returned when the network output has an unexpected shape.
	ErrOutputShape = errors.New("yolo: unexpected output shape")
)
