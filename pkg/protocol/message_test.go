package protocol

import (
	stdjson "encoding/json"
	"errors"
	"testing"

	"github.com/teslashibe/go-framing/pkg/guide"
	"github.com/teslashibe/go-framing/pkg/overlay"
	"github.com/teslashibe/go-framing/pkg/transform"
)

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		msgType MessageType
		data    any
		wantErr bool
	}{
		{
			name:    "frame message",
			msgType: TypeFrame,
			data:    FrameData{Width: 640, Height: 480, Format: "jpeg"},
		},
		{
			name:    "ratio message",
			msgType: TypeRatio,
			data:    RatioData{Ratio: 1.6, Ideal: true},
		},
		{
			name:    "nil data",
			msgType: TypePing,
			data:    nil,
		},
		{
			name:    "unmarshalable data",
			msgType: TypeStatus,
			data:    make(chan int),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.msgType, tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if msg.Type != tt.msgType {
				t.Errorf("NewMessage() type = %v, want %v", msg.Type, tt.msgType)
			}
			if msg.Timestamp == 0 {
				t.Error("NewMessage() timestamp should be set")
			}
			if tt.data == nil && msg.Data != nil {
				t.Errorf("NewMessage() data = %s, want nil", msg.Data)
			}
		})
	}
}

func TestFrameRoundTrip(t *testing.T) {
	msg, err := NewFrameMessage(1080, 1440, []byte("test image data"), 42)
	if err != nil {
		t.Fatalf("NewFrameMessage() error = %v", err)
	}

	raw, err := msg.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}

	parsed, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if parsed.Type != TypeFrame {
		t.Errorf("parsed type = %v, want %v", parsed.Type, TypeFrame)
	}

	frame, err := parsed.GetFrameData()
	if err != nil {
		t.Fatalf("GetFrameData() error = %v", err)
	}
	if frame.Width != 1080 || frame.Height != 1440 || frame.FrameID != 42 {
		t.Errorf("frame = %+v", frame)
	}
	data, err := frame.DecodeFrameData()
	if err != nil {
		t.Fatalf("DecodeFrameData() error = %v", err)
	}
	if string(data) != "test image data" {
		t.Errorf("decoded = %q", data)
	}
}

func TestCommandMessages(t *testing.T) {
	tap, _ := NewTapMessage(120, 340)
	p, err := tap.GetPointData()
	if err != nil {
		t.Fatalf("GetPointData() error = %v", err)
	}
	if p.X != 120 || p.Y != 340 {
		t.Errorf("tap = %+v", p)
	}

	zoom, _ := NewZoomMessage(1.5)
	z, err := zoom.GetZoomData()
	if err != nil {
		t.Fatalf("GetZoomData() error = %v", err)
	}
	if z.Factor != 1.5 {
		t.Errorf("zoom = %v", z.Factor)
	}

	adv, _ := NewAdvanceMessage("position_guide")
	a, err := adv.GetAdvanceData()
	if err != nil {
		t.Fatalf("GetAdvanceData() error = %v", err)
	}
	if a.State != "position_guide" {
		t.Errorf("advance = %q", a.State)
	}
}

func TestParseClientMessage(t *testing.T) {
	raw := []byte(`{"type":"focus","data":{"x":10.5,"y":20}}`)
	msg, err := ParseMessage(raw)
	if err != nil {
		t.Fatalf("ParseMessage() error = %v", err)
	}
	if msg.Type != TypeFocus {
		t.Errorf("type = %v", msg.Type)
	}
	p, err := msg.GetPointData()
	if err != nil {
		t.Fatalf("GetPointData() error = %v", err)
	}
	if p.X != 10.5 || p.Y != 20 {
		t.Errorf("focus = %+v", p)
	}

	if _, err := ParseMessage([]byte("not json")); err == nil {
		t.Error("ParseMessage() should reject invalid JSON")
	}
}

func TestGuideFromState(t *testing.T) {
	st := &overlay.State{
		GuideState: guide.PositionGuide,
		Message: guide.Message{
			Key:     guide.MessageSetAngle,
			Text:    guide.MessageSetAngle.Text(),
			Visible: true,
		},
	}
	got := GuideFromState(st)
	if got.State != "position_guide" || got.Key != "set_angle" || !got.Visible {
		t.Errorf("GuideFromState() = %+v", got)
	}
	if got.Text == "" {
		t.Error("GuideFromState() text should be set")
	}
}

func TestOverlayMessageFlatTransform(t *testing.T) {
	vp := transform.New(transform.ModeFill).WithSource(1920, 1080, false).Recompute(1080, 1440)
	st := &overlay.State{Viewport: vp, Zoom: 1, TrackedIdentities: []int{2}}

	msg, err := NewOverlayMessage(st)
	if err != nil {
		t.Fatalf("NewOverlayMessage() error = %v", err)
	}

	var data map[string]any
	if err := stdjson.Unmarshal(msg.Data, &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"image_width", "scale_factor", "offset_x", "tracked_identities", "guide_state"} {
		if _, ok := data[key]; !ok {
			t.Errorf("overlay data missing %q", key)
		}
	}
	if data["guide_state"] != "idle" {
		t.Errorf("guide_state = %v", data["guide_state"])
	}
}

func TestPongLatency(t *testing.T) {
	msg, _ := NewPongMessage("abc", 1000, 1025)
	var pong PongData
	if err := msg.ParseData(&pong); err != nil {
		t.Fatalf("ParseData() error = %v", err)
	}
	if pong.LatencyMs != 25 || pong.ID != "abc" {
		t.Errorf("pong = %+v", pong)
	}
}

func TestErrorMessage(t *testing.T) {
	msg, _ := NewErrorMessage(TypeAdvance, errors.New("guide: transition not allowed"))
	data, err := msg.GetErrorData()
	if err != nil {
		t.Fatalf("GetErrorData() error = %v", err)
	}
	if data.Command != TypeAdvance || data.Error == "" {
		t.Errorf("error data = %+v", data)
	}
}
