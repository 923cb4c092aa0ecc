package web

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-framing/pkg/camera"
	"github.com/teslashibe/go-framing/pkg/geom"
	"github.com/teslashibe/go-framing/pkg/orchestrator"
	"github.com/teslashibe/go-framing/pkg/protocol"
)

// AspectRequest is the body of POST /api/aspect.
type AspectRequest struct {
	Ratio string `json:"ratio" validate:"required"`
}

// ExposureRequest is the body of POST /api/exposure.
type ExposureRequest struct {
	EV float64 `json:"ev" validate:"gte=-1,lte=1"`
}

// TapResponse reports the outcome of a tap.
type TapResponse struct {
	Hit     bool   `json:"hit"`
	ID      int    `json:"id,omitempty"`
	Tracked []int  `json:"tracked"`
	State   string `json:"state"`
}

// handleError renders every error as a JSON body.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// bind parses and validates a request body.
func (s *Server) bind(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, strings.ToLower(fe.Field())+" "+fe.Tag())
			}
			return fiber.NewError(fiber.StatusBadRequest, "validation failed: "+strings.Join(fields, ", "))
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// handleOverlay returns the latest snapshot
func (s *Server) handleOverlay(c *fiber.Ctx) error {
	return c.JSON(s.store.Load())
}

// handleGuide returns the current guidance message
func (s *Server) handleGuide(c *fiber.Ctx) error {
	return c.JSON(protocol.GuideFromState(s.store.Load()))
}

// handleRatio returns the stable body ratio
func (s *Server) handleRatio(c *fiber.Ctx) error {
	st := s.store.Load()
	return c.JSON(protocol.RatioData{Ratio: st.BodyRatio, Ideal: st.IdealRatio})
}

// handleStatus returns the session counters
func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.status())
}

func (s *Server) status() protocol.StatusData {
	stats := s.loop.Orchestrator().Stats()
	return protocol.StatusData{
		SessionID:      stats.SessionID,
		Frames:         stats.Frames,
		DroppedFrames:  s.loop.Dropped(),
		DetectorErrors: stats.DetectorErrors,
		Clients:        s.overlayHub.ClientCount() + s.cameraHub.ClientCount(),
	}
}

// handleCamera returns the camera state
func (s *Server) handleCamera(c *fiber.Ctx) error {
	if s.camera == nil {
		return fiber.NewError(fiber.StatusNotFound, "camera control not configured")
	}
	return c.JSON(s.camera.State())
}

// handleUpdateCamera applies a partial settings update
func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	if s.camera == nil {
		return fiber.NewError(fiber.StatusNotFound, "camera control not configured")
	}
	var params map[string]any
	if err := c.BodyParser(&params); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body: "+err.Error())
	}
	if err := s.camera.UpdateSettings(params); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(s.camera.State())
}

// handlePreset applies a named settings preset
func (s *Server) handlePreset(c *fiber.Ctx) error {
	if s.camera == nil {
		return fiber.NewError(fiber.StatusNotFound, "camera control not configured")
	}
	preset, err := camera.GetPreset(c.Params("name"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	if err := s.camera.SetSettings(preset); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(s.camera.State())
}

// handleTap selects or deselects the object under a view point
func (s *Server) handleTap(c *fiber.Ctx) error {
	var req protocol.PointData
	if err := s.bind(c, &req); err != nil {
		return err
	}
	resp, err := s.tap(c.UserContext(), req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}

// handleZoom applies a pinch zoom factor
func (s *Server) handleZoom(c *fiber.Ctx) error {
	var req protocol.ZoomData
	if err := s.bind(c, &req); err != nil {
		return err
	}
	if err := s.do(c.UserContext(), func(o *orchestrator.Orchestrator) error {
		o.OnUserPinchZoom(req.Factor)
		return nil
	}); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"zoom": s.store.Load().Zoom})
}

// handleFocus sets the focus point
func (s *Server) handleFocus(c *fiber.Ctx) error {
	var req protocol.PointData
	if err := s.bind(c, &req); err != nil {
		return err
	}
	if err := s.do(c.UserContext(), func(o *orchestrator.Orchestrator) error {
		o.OnUserDragFocus(geom.Point{X: req.X, Y: req.Y})
		return nil
	}); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleAspect switches the frame proportion
func (s *Server) handleAspect(c *fiber.Ctx) error {
	var req AspectRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	aspect, err := camera.ParseAspect(req.Ratio)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	var frame camera.FrameConfig
	if err := s.do(c.UserContext(), func(o *orchestrator.Orchestrator) error {
		frame = o.SetAspect(aspect)
		return nil
	}); err != nil {
		return err
	}
	return c.JSON(frame)
}

// handleExposure sets exposure compensation
func (s *Server) handleExposure(c *fiber.Ctx) error {
	var req ExposureRequest
	if err := s.bind(c, &req); err != nil {
		return err
	}
	if err := s.do(c.UserContext(), func(o *orchestrator.Orchestrator) error {
		o.SetExposure(req.EV)
		return nil
	}); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleAdvance applies an externally decided guidance transition
func (s *Server) handleAdvance(c *fiber.Ctx) error {
	var req protocol.AdvanceData
	if err := s.bind(c, &req); err != nil {
		return err
	}
	if err := s.advance(c.UserContext(), req); err != nil {
		return err
	}
	return c.JSON(protocol.GuideFromState(s.store.Load()))
}
