// Package webcam captures frames from a local video device with OpenCV and
// hands them to the framing pipeline as JPEG-encoded detection frames.
package webcam

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/teslashibe/go-framing/internal/log"
	"github.com/teslashibe/go-framing/pkg/detection"
	"gocv.io/x/gocv"
)

// ErrClosed is returned when reading from a closed source.
var ErrClosed = errors.New("webcam: source closed")

// Config holds capture configuration.
type Config struct {
	Device          int
	Width           int
	Height          int
	Framerate       int
	Quality         int // JPEG quality 1-100
	RotationDegrees int // Sensor rotation reported with each frame
	FrontFacing     bool
}

// DefaultConfig returns 1280x720 at 30fps from device 0.
func DefaultConfig() Config {
	return Config{
		Width:     1280,
		Height:    720,
		Framerate: 30,
		Quality:   85,
	}
}

// Source reads frames from a video device.
type Source struct {
	cfg     Config
	capture *gocv.VideoCapture
	mat     gocv.Mat
	seq     uint64
	closed  bool
}

// Open opens the capture device.
func Open(cfg Config) (*Source, error) {
	capture, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("webcam: open device %d: %w", cfg.Device, err)
	}
	if cfg.Width > 0 {
		capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	}
	if cfg.Height > 0 {
		capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	if cfg.Framerate > 0 {
		capture.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	}
	if cfg.Quality <= 0 || cfg.Quality > 100 {
		cfg.Quality = DefaultConfig().Quality
	}

	log.Info("webcam opened",
		"device", cfg.Device,
		"width", capture.Get(gocv.VideoCaptureFrameWidth),
		"height", capture.Get(gocv.VideoCaptureFrameHeight),
	)

	return &Source{cfg: cfg, capture: capture, mat: gocv.NewMat()}, nil
}

// Read grabs the next frame and encodes it as JPEG.
func (s *Source) Read() (detection.Frame, error) {
	if s.closed {
		return detection.Frame{}, ErrClosed
	}
	if ok := s.capture.Read(&s.mat); !ok || s.mat.Empty() {
		return detection.Frame{}, fmt.Errorf("webcam: read device %d failed", s.cfg.Device)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, s.mat, []int{gocv.IMWriteJpegQuality, s.cfg.Quality})
	if err != nil {
		return detection.Frame{}, fmt.Errorf("webcam: encode: %w", err)
	}
	defer buf.Close()

	s.seq++
	return detection.Frame{
		Seq:             s.seq,
		Width:           s.mat.Cols(),
		Height:          s.mat.Rows(),
		RotationDegrees: s.cfg.RotationDegrees,
		FrontFacing:     s.cfg.FrontFacing,
		Timestamp:       time.Now(),
		JPEG:            append([]byte(nil), buf.GetBytes()...),
	}, nil
}

// Run reads frames until ctx is cancelled, passing each to sink. Read errors
// are logged and retried after a short pause.
func (s *Source) Run(ctx context.Context, sink func(detection.Frame)) error {
	interval := time.Second / 30
	if s.cfg.Framerate > 0 {
		interval = time.Second / time.Duration(s.cfg.Framerate)
	}

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		frame, err := s.Read()
		if errors.Is(err, ErrClosed) {
			return err
		}
		if err != nil {
			failures++
			if failures == 1 || failures%100 == 0 {
				log.Warn("webcam read failed", "error", err, "failures", failures)
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
			continue
		}
		failures = 0
		sink(frame)
	}
}

// Close releases the device.
func (s *Source) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.mat.Close()
	return s.capture.Close()
}
