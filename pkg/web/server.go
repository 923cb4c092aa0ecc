// Package web serves the framing dashboard: snapshot and guidance reads over
// HTTP, user commands that are handed to the orchestrator loop, and
// websocket streams of overlay snapshots and annotated camera frames.
package web

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	jsoniter "github.com/json-iterator/go"
	"golang.org/x/time/rate"

	"github.com/teslashibe/go-framing/pkg/camera"
	"github.com/teslashibe/go-framing/pkg/detection"
	"github.com/teslashibe/go-framing/pkg/hub"
	"github.com/teslashibe/go-framing/pkg/orchestrator"
	"github.com/teslashibe/go-framing/pkg/overlay"
)

// Config configures the dashboard server.
type Config struct {
	Port        string
	BroadcastHz float64       // Snapshot and camera stream rate
	StaticDir   string        // Optional static dashboard files
	EventWait   time.Duration // How long a command waits for the loop
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() Config {
	return Config{
		Port:        "8080",
		BroadcastHz: 15,
		EventWait:   2 * time.Second,
	}
}

// Annotator draws a snapshot's overlays onto a camera frame.
type Annotator interface {
	Annotate(frame detection.Frame, st *overlay.State) ([]byte, error)
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCameraManager exposes camera settings on /api/camera.
func WithCameraManager(m *camera.Manager) Option {
	return func(s *Server) { s.camera = m }
}

// WithAnnotator enables the annotated /ws/camera stream.
func WithAnnotator(a Annotator) Option {
	return func(s *Server) { s.annotator = a }
}

// Server is the web dashboard server
type Server struct {
	app      *fiber.App
	config   Config
	logger   *slog.Logger
	validate *validator.Validate

	loop      *orchestrator.Loop
	store     *overlay.Store
	camera    *camera.Manager
	annotator Annotator

	// Hubs for websocket broadcast
	overlayHub *hub.Hub
	cameraHub  *hub.Hub

	overlayLimiter *rate.Limiter
	cameraLimiter  *rate.Limiter
}

// NewServer creates a dashboard server around a running orchestrator loop.
func NewServer(cfg Config, loop *orchestrator.Loop, opts ...Option) *Server {
	def := DefaultConfig()
	if cfg.BroadcastHz <= 0 {
		cfg.BroadcastHz = def.BroadcastHz
	}
	if cfg.EventWait <= 0 {
		cfg.EventWait = def.EventWait
	}

	s := &Server{
		config:         cfg,
		logger:         slog.Default(),
		validate:       validator.New(),
		loop:           loop,
		store:          loop.Orchestrator().Store(),
		overlayLimiter: rate.NewLimiter(rate.Limit(cfg.BroadcastHz), 1),
		cameraLimiter:  rate.NewLimiter(rate.Limit(cfg.BroadcastHz), 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "web")

	s.overlayHub = hub.New("overlay", hub.WithLogger(s.logger), hub.WithReplay(), hub.WithHandler(s.handleCommand))
	s.cameraHub = hub.New("camera", hub.WithLogger(s.logger))

	app := fiber.New(fiber.Config{
		AppName:               "Framing Dashboard",
		DisableStartupMessage: true,
		JSONEncoder:           jsoniter.Marshal,
		JSONDecoder:           jsoniter.Unmarshal,
		ErrorHandler:          s.handleError,
	})

	// CORS for local development
	app.Use(cors.New())

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	api := app.Group("/api")
	api.Get("/overlay", s.handleOverlay)
	api.Get("/guide", s.handleGuide)
	api.Get("/ratio", s.handleRatio)
	api.Get("/status", s.handleStatus)
	api.Get("/camera", s.handleCamera)
	api.Put("/camera", s.handleUpdateCamera)
	api.Post("/camera/preset/:name", s.handlePreset)
	api.Post("/tap", s.handleTap)
	api.Post("/zoom", s.handleZoom)
	api.Post("/focus", s.handleFocus)
	api.Post("/aspect", s.handleAspect)
	api.Post("/exposure", s.handleExposure)
	api.Post("/guide/advance", s.handleAdvance)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	app.Get("/ws/overlay", websocket.New(func(c *websocket.Conn) {
		hub.NewClient(s.overlayHub, c).Run()
	}))
	app.Get("/ws/camera", websocket.New(func(c *websocket.Conn) {
		hub.NewClient(s.cameraHub, c).Run()
	}))

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Start runs the hubs and the snapshot publisher and serves until ctx is
// cancelled, then shuts the server down.
func (s *Server) Start(ctx context.Context) error {
	go s.overlayHub.Run(ctx)
	go s.cameraHub.Run(ctx)
	go s.publishSnapshots(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("web dashboard listening", "addr", "http://localhost:"+s.config.Port)
		errCh <- s.app.Listen(":" + s.config.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		if err := s.app.ShutdownWithTimeout(5 * time.Second); err != nil {
			return err
		}
		return nil
	}
}

// OverlayHub returns the snapshot hub.
func (s *Server) OverlayHub() *hub.Hub {
	return s.overlayHub
}

// CameraHub returns the camera frame hub.
func (s *Server) CameraHub() *hub.Hub {
	return s.cameraHub
}

// do runs fn on the orchestrator loop, bounded by the configured wait.
func (s *Server) do(ctx context.Context, fn func(*orchestrator.Orchestrator) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.EventWait)
	defer cancel()
	err := s.loop.Do(ctx, fn)
	switch {
	case errors.Is(err, orchestrator.ErrLoopStopped):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.NewError(fiber.StatusGatewayTimeout, "orchestrator busy")
	}
	return err
}
