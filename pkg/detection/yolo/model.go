package yolo

import (
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// model wraps an OpenCV DNN network. Inference is serialised.
type model struct {
	net       gocv.Net
	config    Config
	mu        sync.Mutex
	inputSize image.Point
}

func loadModel(cfg Config) (*model, error) {
	if _, err := os.Stat(cfg.ModelPath); errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("%w: %s", ErrModelLoad, cfg.ModelPath)
	}

	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &model{
		net:       net,
		config:    cfg,
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
	}, nil
}

// forward runs one inference and copies the output into a tensor view, along
// with the input-to-image scale factors.
func (m *model) forward(img gocv.Mat) (t tensor, scaleX, scaleY float32, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	blob := gocv.BlobFromImage(img, 1.0/255.0, m.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	m.net.SetInput(blob, "")
	output := m.net.Forward("")
	defer output.Close()

	channels, anchors, ok := shapeOf(output.Size())
	if !ok {
		return tensor{}, 0, 0, fmt.Errorf("%w: %v", ErrOutputShape, output.Size())
	}
	data, err := output.DataPtrFloat32()
	if err != nil {
		return tensor{}, 0, 0, fmt.Errorf("read output: %w", err)
	}
	if len(data) < channels*anchors {
		return tensor{}, 0, 0, fmt.Errorf("%w: %d values for %dx%d", ErrOutputShape, len(data), channels, anchors)
	}

	// The output Mat is released on return, so keep a copy.
	t = tensor{
		data:     append([]float32(nil), data[:channels*anchors]...),
		channels: channels,
		anchors:  anchors,
	}
	scaleX = float32(img.Cols()) / float32(m.config.InputWidth)
	scaleY = float32(img.Rows()) / float32(m.config.InputHeight)
	return t, scaleX, scaleY, nil
}

func (m *model) close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.net.Close()
}
