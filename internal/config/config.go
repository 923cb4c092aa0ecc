// Package config loads process configuration for go-framing commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Defaults.
const (
	DefaultPort        = "8080"
	DefaultViewWidth   = 1080
	DefaultViewHeight  = 1440
	DefaultStaleAfter  = 500 * time.Millisecond
	DefaultStaleEvery  = 15
	DefaultBroadcastHz = 15.0
	DefaultObjectModel = "models/yolov8n.onnx"
	DefaultPoseModel   = "models/yolov8n-pose.onnx"
)

// ErrInvalid is returned when the loaded configuration fails validation.
var ErrInvalid = errors.New("config: invalid")

// Config is the process configuration for cmd/framing.
type Config struct {
	Port     string `validate:"required,numeric"`
	LogLevel string `validate:"oneof=debug info warn error"`
	LogFile  string

	CameraIndex int  `validate:"gte=0"`
	FrontFacing bool `validate:"-"`

	ViewWidth  int `validate:"gt=0"`
	ViewHeight int `validate:"gt=0"`

	ObjectModel string `validate:"required"`
	PoseModel   string

	StaleAfter  time.Duration `validate:"gt=0"`
	StaleEvery  int           `validate:"gt=0"`
	BroadcastHz float64       `validate:"gt=0,lte=60"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first if present; existing variables are not overridden.
func Load() (Config, error) {
	_ = godotenv.Load()
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from an arbitrary variable lookup.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:        get("FRAMING_PORT", DefaultPort),
		LogLevel:    get("LOG_LEVEL", "info"),
		LogFile:     get("LOG_FILE", ""),
		ObjectModel: get("FRAMING_OBJECT_MODEL", DefaultObjectModel),
		PoseModel:   get("FRAMING_POSE_MODEL", DefaultPoseModel),
	}

	var err error
	if cfg.CameraIndex, err = atoi(get("FRAMING_CAMERA", "0")); err != nil {
		return cfg, fmt.Errorf("FRAMING_CAMERA: %w", err)
	}
	if cfg.FrontFacing, err = strconv.ParseBool(get("FRAMING_FRONT_FACING", "false")); err != nil {
		return cfg, fmt.Errorf("FRAMING_FRONT_FACING: %w", err)
	}
	if cfg.ViewWidth, err = atoi(get("FRAMING_VIEW_WIDTH", strconv.Itoa(DefaultViewWidth))); err != nil {
		return cfg, fmt.Errorf("FRAMING_VIEW_WIDTH: %w", err)
	}
	if cfg.ViewHeight, err = atoi(get("FRAMING_VIEW_HEIGHT", strconv.Itoa(DefaultViewHeight))); err != nil {
		return cfg, fmt.Errorf("FRAMING_VIEW_HEIGHT: %w", err)
	}
	if cfg.StaleAfter, err = time.ParseDuration(get("FRAMING_STALE_AFTER", DefaultStaleAfter.String())); err != nil {
		return cfg, fmt.Errorf("FRAMING_STALE_AFTER: %w", err)
	}
	if cfg.StaleEvery, err = atoi(get("FRAMING_STALE_EVERY", strconv.Itoa(DefaultStaleEvery))); err != nil {
		return cfg, fmt.Errorf("FRAMING_STALE_EVERY: %w", err)
	}
	if cfg.BroadcastHz, err = strconv.ParseFloat(get("FRAMING_BROADCAST_HZ", "15"), 64); err != nil {
		return cfg, fmt.Errorf("FRAMING_BROADCAST_HZ: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return cfg, nil
}

func atoi(s string) (int, error) {
	return strconv.Atoi(s)
}
