// Package protocol defines the WebSocket message types exchanged between the
// framing dashboard server and its clients.
package protocol

import (
	stdjson "encoding/json"
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MessageType identifies the type of WebSocket message
type MessageType string

const (
	// Server → Client messages
	TypeOverlay MessageType = "overlay" // Overlay snapshot
	TypeGuide   MessageType = "guide"   // Guidance message change
	TypeRatio   MessageType = "ratio"   // Stable body ratio
	TypeStatus  MessageType = "status"  // Session counters
	TypeFrame   MessageType = "frame"   // Annotated frame (JSON clients)
	TypeError   MessageType = "error"   // Rejected client command

	// Client → Server messages
	TypeTap     MessageType = "tap"     // Select/deselect at a view point
	TypeZoom    MessageType = "zoom"    // Pinch zoom factor
	TypeFocus   MessageType = "focus"   // Drag-to-focus point
	TypeAdvance MessageType = "advance" // Externally decided guide transition

	// Bidirectional
	TypePing MessageType = "ping" // Health check
	TypePong MessageType = "pong" // Health check response
)

// Message is the base wrapper for all WebSocket messages
type Message struct {
	Type      MessageType        `json:"type"`
	Timestamp int64              `json:"ts,omitempty"` // Unix milliseconds
	Data      stdjson.RawMessage `json:"data,omitempty"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(msgType MessageType, data any) (*Message, error) {
	var rawData stdjson.RawMessage
	if data != nil {
		var err error
		rawData, err = json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal message data: %w", err)
		}
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
		Data:      rawData,
	}, nil
}

// ParseData unmarshals the message data into the provided struct
func (m *Message) ParseData(v any) error {
	if m.Data == nil {
		return nil
	}
	return json.Unmarshal(m.Data, v)
}

// Bytes returns the JSON-encoded message
func (m *Message) Bytes() ([]byte, error) {
	return json.Marshal(m)
}

// ParseMessage parses a JSON message from bytes
func ParseMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}
	return &msg, nil
}

// =============================================================================
// Server → Client Message Types
// =============================================================================

// GuideData is the guidance message shown to the user
type GuideData struct {
	State   string `json:"state"`
	Key     string `json:"key,omitempty"`
	Text    string `json:"text"`
	Visible bool   `json:"visible"`
}

// RatioData is the stabilised body ratio
type RatioData struct {
	Ratio float64 `json:"ratio"`
	Ideal bool    `json:"ideal"`
}

// StatusData contains session counters
type StatusData struct {
	SessionID      string `json:"session_id"`
	Frames         uint64 `json:"frames"`
	DroppedFrames  uint64 `json:"dropped_frames"`
	DetectorErrors uint64 `json:"detector_errors"`
	Clients        int    `json:"clients"`
}

// FrameData contains an annotated video frame
type FrameData struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Format  string `json:"format"` // "jpeg"
	Data    string `json:"data"`   // base64 encoded
	FrameID uint64 `json:"frame_id,omitempty"`
}

// ErrorData reports a rejected command
type ErrorData struct {
	Command MessageType `json:"command"`
	Error   string      `json:"error"`
}

// =============================================================================
// Client → Server Message Types
// =============================================================================

// PointData is a view-space point (tap, focus)
type PointData struct {
	X float64 `json:"x" validate:"gte=0"`
	Y float64 `json:"y" validate:"gte=0"`
}

// ZoomData contains a pinch zoom factor
type ZoomData struct {
	Factor float64 `json:"factor" validate:"gt=0"`
}

// AdvanceData names the target guide state
type AdvanceData struct {
	State string `json:"state" validate:"required"`
}

// =============================================================================
// Bidirectional Message Types
// =============================================================================

// PingData contains ping information
type PingData struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"ts"`
}

// PongData contains pong response
type PongData struct {
	ID        string `json:"id"`
	PingTS    int64  `json:"ping_ts"`
	PongTS    int64  `json:"pong_ts"`
	LatencyMs int64  `json:"latency_ms"`
}
