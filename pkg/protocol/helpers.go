package protocol

import (
	"encoding/base64"

	"github.com/teslashibe/go-framing/pkg/overlay"
)

// =============================================================================
// Helper functions for creating messages
// =============================================================================

// NewOverlayMessage wraps an overlay snapshot
func NewOverlayMessage(st *overlay.State) (*Message, error) {
	return NewMessage(TypeOverlay, st)
}

// GuideFromState extracts the guidance message from a snapshot
func GuideFromState(st *overlay.State) GuideData {
	return GuideData{
		State:   st.GuideState.String(),
		Key:     string(st.Message.Key),
		Text:    st.Message.Text,
		Visible: st.Message.Visible,
	}
}

// NewGuideMessage creates a guide message from a snapshot
func NewGuideMessage(st *overlay.State) (*Message, error) {
	return NewMessage(TypeGuide, GuideFromState(st))
}

// NewRatioMessage creates a ratio message from a snapshot
func NewRatioMessage(st *overlay.State) (*Message, error) {
	return NewMessage(TypeRatio, RatioData{Ratio: st.BodyRatio, Ideal: st.IdealRatio})
}

// NewStatusMessage creates a status message
func NewStatusMessage(status StatusData) (*Message, error) {
	return NewMessage(TypeStatus, status)
}

// NewFrameMessage creates a frame message from raw JPEG data
func NewFrameMessage(width, height int, jpegData []byte, frameID uint64) (*Message, error) {
	return NewMessage(TypeFrame, FrameData{
		Width:   width,
		Height:  height,
		Format:  "jpeg",
		Data:    base64.StdEncoding.EncodeToString(jpegData),
		FrameID: frameID,
	})
}

// NewErrorMessage reports a failed command
func NewErrorMessage(command MessageType, err error) (*Message, error) {
	return NewMessage(TypeError, ErrorData{Command: command, Error: err.Error()})
}

// NewTapMessage creates a tap command
func NewTapMessage(x, y float64) (*Message, error) {
	return NewMessage(TypeTap, PointData{X: x, Y: y})
}

// NewFocusMessage creates a focus command
func NewFocusMessage(x, y float64) (*Message, error) {
	return NewMessage(TypeFocus, PointData{X: x, Y: y})
}

// NewZoomMessage creates a zoom command
func NewZoomMessage(factor float64) (*Message, error) {
	return NewMessage(TypeZoom, ZoomData{Factor: factor})
}

// NewAdvanceMessage creates a guide advance command
func NewAdvanceMessage(state string) (*Message, error) {
	return NewMessage(TypeAdvance, AdvanceData{State: state})
}

// NewPingMessage creates a ping message
func NewPingMessage(id string) (*Message, error) {
	return NewMessage(TypePing, PingData{ID: id})
}

// NewPongMessage creates a pong response message
func NewPongMessage(id string, pingTS, pongTS int64) (*Message, error) {
	return NewMessage(TypePong, PongData{
		ID:        id,
		PingTS:    pingTS,
		PongTS:    pongTS,
		LatencyMs: pongTS - pingTS,
	})
}

// =============================================================================
// Helper functions for parsing messages
// =============================================================================

// GetFrameData extracts frame data from a message
func (m *Message) GetFrameData() (*FrameData, error) {
	var data FrameData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// DecodeFrameData decodes the base64 image data
func (f *FrameData) DecodeFrameData() ([]byte, error) {
	return base64.StdEncoding.DecodeString(f.Data)
}

// GetGuideData extracts guide data from a message
func (m *Message) GetGuideData() (*GuideData, error) {
	var data GuideData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetRatioData extracts ratio data from a message
func (m *Message) GetRatioData() (*RatioData, error) {
	var data RatioData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPointData extracts a tap or focus point from a message
func (m *Message) GetPointData() (*PointData, error) {
	var data PointData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetZoomData extracts zoom data from a message
func (m *Message) GetZoomData() (*ZoomData, error) {
	var data ZoomData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetAdvanceData extracts advance data from a message
func (m *Message) GetAdvanceData() (*AdvanceData, error) {
	var data AdvanceData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetPingData extracts ping data from a message
func (m *Message) GetPingData() (*PingData, error) {
	var data PingData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

// GetErrorData extracts error data from a message
func (m *Message) GetErrorData() (*ErrorData, error) {
	var data ErrorData
	if err := m.ParseData(&data); err != nil {
		return nil, err
	}
	return &data, nil
}
