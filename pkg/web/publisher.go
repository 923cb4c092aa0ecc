package web

import (
	"context"

	"github.com/teslashibe/go-framing/pkg/detection"
	"github.com/teslashibe/go-framing/pkg/hub"
	"github.com/teslashibe/go-framing/pkg/protocol"
)

// publishSnapshots forwards store updates to the overlay hub at no more than
// the configured rate. Updates that arrive while throttled coalesce into the
// latest snapshot. Guide and ratio envelopes are sent only on change.
func (s *Server) publishSnapshots(ctx context.Context) {
	var (
		lastGuide protocol.GuideData
		lastRatio protocol.RatioData
		first     = true
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.store.Updated():
		}
		if err := s.overlayLimiter.Wait(ctx); err != nil {
			return
		}

		st := s.store.Load()
		s.broadcast(protocol.NewOverlayMessage(st))

		if g := protocol.GuideFromState(st); first || g != lastGuide {
			lastGuide = g
			s.broadcast(protocol.NewGuideMessage(st))
		}
		if r := (protocol.RatioData{Ratio: st.BodyRatio, Ideal: st.IdealRatio}); first || r != lastRatio {
			lastRatio = r
			s.broadcast(protocol.NewRatioMessage(st))
		}
		first = false
	}
}

func (s *Server) broadcast(msg *protocol.Message, err error) {
	if data := s.encode(msg, err); data != nil {
		s.overlayHub.Broadcast(hub.NewJSONMessage(data))
	}
}

// encode serialises a freshly built envelope, logging and returning nil on
// failure.
func (s *Server) encode(msg *protocol.Message, err error) []byte {
	if err == nil {
		var data []byte
		if data, err = msg.Bytes(); err == nil {
			return data
		}
	}
	s.logger.Warn("encode message failed", "error", err)
	return nil
}

// SendCameraFrame annotates a frame with the latest snapshot and broadcasts
// the JPEG to camera clients. Frames over the configured rate, or sent while
// nobody is watching, are skipped.
func (s *Server) SendCameraFrame(frame detection.Frame) {
	if s.annotator == nil || s.cameraHub.ClientCount() == 0 || !s.cameraLimiter.Allow() {
		return
	}
	st := s.store.Load()
	jpeg, err := s.annotator.Annotate(frame, st)
	if err != nil {
		s.logger.Debug("annotate failed", "frame", frame.Seq, "error", err)
		return
	}
	s.cameraHub.BroadcastBinary(jpeg)
}
