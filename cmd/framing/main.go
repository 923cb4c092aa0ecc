// Framing - camera framing guidance with a live overlay dashboard
//
// Captures frames from a local camera, runs object and pose detection,
// drives the guidance workflow and serves overlays over HTTP/WebSocket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-framing/internal/config"
	"github.com/teslashibe/go-framing/internal/log"
	"github.com/teslashibe/go-framing/pkg/camera"
	"github.com/teslashibe/go-framing/pkg/camera/webcam"
	"github.com/teslashibe/go-framing/pkg/debug"
	"github.com/teslashibe/go-framing/pkg/detection"
	"github.com/teslashibe/go-framing/pkg/detection/yolo"
	"github.com/teslashibe/go-framing/pkg/geom"
	"github.com/teslashibe/go-framing/pkg/orchestrator"
	"github.com/teslashibe/go-framing/pkg/render"
	"github.com/teslashibe/go-framing/pkg/transform"
	"github.com/teslashibe/go-framing/pkg/web"
)

type flags struct {
	debug       bool
	debugFrames bool
	fit         bool
	noPose      bool
	rotation    int
	static      string
}

func main() {
	f := parseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		os.Exit(1)
	}
	if f.debug {
		cfg.LogLevel = "debug"
	}
	log.InitWithFile(cfg.LogLevel, log.FileOptions{Path: cfg.LogFile})
	debug.Enabled, debug.Frames = f.debug, f.debugFrames

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, f); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("framing stopped", "error", err)
		os.Exit(1)
	}
}

// parseFlags parses command line flags.
func parseFlags() flags {
	var f flags
	flag.BoolVar(&f.debug, "debug", false, "Enable verbose debug logging")
	flag.BoolVar(&f.debugFrames, "debug-frames", false, "Log per-frame dispatch and hit tests")
	flag.BoolVar(&f.fit, "fit", false, "Letterbox the image instead of filling the view")
	flag.BoolVar(&f.noPose, "no-pose", false, "Disable pose estimation")
	flag.IntVar(&f.rotation, "rotation", 0, "Sensor rotation in degrees (0, 90, 180, 270)")
	flag.StringVar(&f.static, "static", "", "Directory of static dashboard files")
	flag.Parse()
	return f
}

func run(ctx context.Context, cfg config.Config, f flags) error {
	logger := log.With("cmd", "framing")

	// Camera
	camCfg := webcam.DefaultConfig()
	camCfg.Device = cfg.CameraIndex
	camCfg.FrontFacing = cfg.FrontFacing
	camCfg.RotationDegrees = f.rotation
	src, err := webcam.Open(camCfg)
	if err != nil {
		return err
	}
	defer src.Close()

	manager := camera.NewManager()
	manager.OnSettingsChange = func(s camera.Settings) error {
		logger.Info("camera settings", "zoom", s.Zoom, "ev", s.ExposureCompensation, "iso", s.ISO)
		return nil
	}
	manager.OnFocus = func(p geom.Point) error {
		debug.Log("focus point %.0f,%.0f", p.X, p.Y)
		return nil
	}

	// Detectors
	objCfg := yolo.DefaultConfig()
	objCfg.ModelPath = cfg.ObjectModel
	objects, err := yolo.NewObjectDetector(objCfg)
	if err != nil {
		return err
	}
	defer objects.Close()

	detectors := orchestrator.Detectors{
		Object: detection.WithIdentities(objects, detection.NewAssociator(detection.DefaultAssociatorConfig())),
	}
	if !f.noPose && cfg.PoseModel != "" {
		poseCfg := yolo.DefaultPoseConfig()
		poseCfg.ModelPath = cfg.PoseModel
		poses, err := yolo.NewPoseDetector(poseCfg)
		if err != nil {
			logger.Warn("pose estimation disabled", "error", err)
		} else {
			defer poses.Close()
			detectors.Pose = poses
		}
	}

	// Orchestrator
	orchCfg := orchestrator.DefaultConfig()
	orchCfg.ViewWidth = float64(cfg.ViewWidth)
	orchCfg.ViewHeight = float64(cfg.ViewHeight)
	orchCfg.StaleEvery = uint64(cfg.StaleEvery)
	orchCfg.Selection.StaleAfter = cfg.StaleAfter
	if f.fit {
		orchCfg.Mode = transform.ModeFit
	}
	orch := orchestrator.New(orchCfg, detectors,
		orchestrator.WithLogger(log.L()),
		orchestrator.WithCameraControl(manager),
	)
	loop := orchestrator.NewLoop(orch)
	logger.Info("session started", "session", orch.SessionID(), "view", fmt.Sprintf("%dx%d", cfg.ViewWidth, cfg.ViewHeight))

	// Dashboard
	server := web.NewServer(web.Config{
		Port:        cfg.Port,
		BroadcastHz: cfg.BroadcastHz,
		StaticDir:   f.static,
	}, loop,
		web.WithLogger(log.L()),
		web.WithCameraManager(manager),
		web.WithAnnotator(render.NewAnnotator()),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 3)
	go func() { errCh <- loop.Run(ctx) }()
	go func() { errCh <- server.Start(ctx) }()
	go func() {
		errCh <- src.Run(ctx, func(frame detection.Frame) {
			loop.Submit(frame)
			server.SendCameraFrame(frame)
		})
	}()

	// First failure or cancellation stops everything.
	err = <-errCh
	cancel()
	for range 2 {
		if e := <-errCh; err == nil {
			err = e
		}
	}

	stats := orch.Stats()
	logger.Info("session ended",
		"frames", stats.Frames,
		"dropped", loop.Dropped(),
		"detector_errors", stats.DetectorErrors,
		"stale_deactivates", stats.StaleDeactivates,
	)
	return err
}
