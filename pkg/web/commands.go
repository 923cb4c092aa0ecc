package web

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-framing/pkg/geom"
	"github.com/teslashibe/go-framing/pkg/guide"
	"github.com/teslashibe/go-framing/pkg/hub"
	"github.com/teslashibe/go-framing/pkg/orchestrator"
	"github.com/teslashibe/go-framing/pkg/protocol"
)

func (s *Server) tap(ctx context.Context, req protocol.PointData) (TapResponse, error) {
	var resp TapResponse
	err := s.do(ctx, func(o *orchestrator.Orchestrator) error {
		resp.ID, resp.Hit = o.OnUserTap(geom.Point{X: req.X, Y: req.Y})
		return nil
	})
	if err != nil {
		return resp, err
	}
	st := s.store.Load()
	resp.Tracked = st.TrackedIdentities
	if resp.Tracked == nil {
		resp.Tracked = []int{}
	}
	resp.State = st.GuideState.String()
	return resp, nil
}

func (s *Server) advance(ctx context.Context, req protocol.AdvanceData) error {
	to, err := guide.ParseState(req.State)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	err = s.do(ctx, func(o *orchestrator.Orchestrator) error {
		return o.Advance(to)
	})
	if errors.Is(err, guide.ErrInvalidTransition) {
		return fiber.NewError(fiber.StatusConflict, err.Error())
	}
	return err
}

// handleCommand dispatches a client → server message received on
// /ws/overlay. Failures are reported back to the sender only.
func (s *Server) handleCommand(c *hub.Client, data []byte) {
	msg, err := protocol.ParseMessage(data)
	if err != nil {
		s.reply(c, s.encode(protocol.NewErrorMessage("", err)))
		return
	}

	ctx := context.Background()
	switch msg.Type {
	case protocol.TypePing:
		ping, err := msg.GetPingData()
		if err != nil {
			s.reply(c, s.encode(protocol.NewErrorMessage(msg.Type, err)))
			return
		}
		now := time.Now().UnixMilli()
		pingTS := ping.Timestamp
		if pingTS == 0 {
			pingTS = msg.Timestamp
		}
		s.reply(c, s.encode(protocol.NewPongMessage(ping.ID, pingTS, now)))
		return

	case protocol.TypeTap:
		err = s.command(msg, &protocol.PointData{}, func(v any) error {
			_, err := s.tap(ctx, *v.(*protocol.PointData))
			return err
		})

	case protocol.TypeFocus:
		err = s.command(msg, &protocol.PointData{}, func(v any) error {
			p := v.(*protocol.PointData)
			return s.do(ctx, func(o *orchestrator.Orchestrator) error {
				o.OnUserDragFocus(geom.Point{X: p.X, Y: p.Y})
				return nil
			})
		})

	case protocol.TypeZoom:
		err = s.command(msg, &protocol.ZoomData{}, func(v any) error {
			factor := v.(*protocol.ZoomData).Factor
			return s.do(ctx, func(o *orchestrator.Orchestrator) error {
				o.OnUserPinchZoom(factor)
				return nil
			})
		})

	case protocol.TypeAdvance:
		err = s.command(msg, &protocol.AdvanceData{}, func(v any) error {
			return s.advance(ctx, *v.(*protocol.AdvanceData))
		})

	default:
		err = errors.New("unsupported message type " + string(msg.Type))
	}

	if err != nil {
		s.logger.Debug("websocket command rejected", "type", msg.Type, "error", err)
		s.reply(c, s.encode(protocol.NewErrorMessage(msg.Type, err)))
	}
	// Successful commands are answered by the next snapshot broadcast.
}

// command decodes and validates a message payload into v, then runs fn.
func (s *Server) command(msg *protocol.Message, v any, fn func(any) error) error {
	if err := msg.ParseData(v); err != nil {
		return err
	}
	if err := s.validate.Struct(v); err != nil {
		return err
	}
	return fn(v)
}

func (s *Server) reply(c *hub.Client, data []byte) {
	if data == nil {
		return
	}
	if !c.Reply(hub.NewJSONMessage(data)) {
		s.logger.Debug("reply dropped")
	}
}
