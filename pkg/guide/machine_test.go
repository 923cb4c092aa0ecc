package guide

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestMachine_InitialState(t *testing.T) {
	m := NewMachine(DefaultConfig())
	if m.State() != Idle {
		t.Errorf("initial state: got %v, want idle", m.State())
	}
	if m.Active() {
		t.Error("messaging should start inactive")
	}
	if p := m.Plan(false); p.RunPose {
		t.Error("idle must not run the pose detector")
	}
}

func TestMachine_SelectDeselect(t *testing.T) {
	m := NewMachine(DefaultConfig())

	m.Select()
	if m.State() != ObjectSelected || !m.Active() {
		t.Fatalf("after select: state=%v active=%v", m.State(), m.Active())
	}
	msg := m.Resolve(Orientation{})
	if msg.Key != MessageLocateToTarget || !msg.Visible {
		t.Errorf("object selected message: got %+v", msg)
	}

	m.Deselect()
	if m.State() != Idle || m.Active() {
		t.Errorf("after deselect: state=%v active=%v", m.State(), m.Active())
	}
	if msg := m.Message(); msg.Visible || msg.Text != "" {
		t.Errorf("idle message should be cleared, got %+v", msg)
	}
}

func TestMachine_Advance(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		to      State
		wantErr bool
	}{
		{"selected to position", ObjectSelected, PositionGuide, false},
		{"position to complete", PositionGuide, GuideComplete, false},
		{"idle to position", Idle, PositionGuide, true},
		{"selected to complete", ObjectSelected, GuideComplete, true},
		{"complete to selected", GuideComplete, ObjectSelected, true},
		{"position to idle", PositionGuide, Idle, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Machine{config: DefaultConfig(), state: tt.from}
			err := m.Advance(tt.to)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Errorf("got %v, want ErrInvalidTransition", err)
				}
				if m.State() != tt.from {
					t.Errorf("state changed on rejected transition: %v", m.State())
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if m.State() != tt.to {
				t.Errorf("state: got %v, want %v", m.State(), tt.to)
			}
		})
	}
}

func TestMachine_PlanByState(t *testing.T) {
	tests := []struct {
		state State
		pose  bool
	}{
		{Idle, false},
		{ObjectSelected, true},
		{PositionGuide, true},
		{GuideComplete, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			m := &Machine{state: tt.state}
			p := m.Plan(true)
			if p.RunPose != tt.pose {
				t.Errorf("RunPose: got %v, want %v", p.RunPose, tt.pose)
			}
			if p.RunPose && !p.MirrorPose {
				t.Error("front camera pose input should be mirrored")
			}
		})
	}
}

func TestMachine_ResolveMessages(t *testing.T) {
	tests := []struct {
		name  string
		state State
		o     Orientation
		want  MessageKey
	}{
		{"idle", Idle, Orientation{}, MessageNone},
		{"selected", ObjectSelected, Orientation{}, MessageLocateToTarget},
		{"position level", PositionGuide, Orientation{Roll: 2}, MessageLowerCamera},
		{"position tilted", PositionGuide, Orientation{Roll: -15}, MessageSetAngle},
		{"complete", GuideComplete, Orientation{}, MessageNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Machine{config: DefaultConfig(), state: tt.state, active: true}
			got := m.Resolve(tt.o)
			if got.Key != tt.want {
				t.Errorf("key: got %q, want %q", got.Key, tt.want)
			}
			if got.Visible != (tt.want != MessageNone) {
				t.Errorf("visible: got %v", got.Visible)
			}
		})
	}
}

func TestMachine_DeactivateKeepsState(t *testing.T) {
	m := NewMachine(DefaultConfig())
	m.Select()
	m.Deactivate()

	if m.State() != ObjectSelected {
		t.Errorf("state: got %v, want object_selected", m.State())
	}
	if msg := m.Resolve(Orientation{}); msg.Visible {
		t.Error("deactivated message must not be visible")
	}
}

func TestState_JSON(t *testing.T) {
	b, err := json.Marshal(PositionGuide)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"position_guide"` {
		t.Errorf("marshal: got %s", b)
	}

	var s State
	if err := json.Unmarshal([]byte(`"GUIDE_COMPLETE"`), &s); err != nil {
		t.Fatal(err)
	}
	if s != GuideComplete {
		t.Errorf("unmarshal: got %v", s)
	}

	if err := json.Unmarshal([]byte(`"dancing"`), &s); !errors.Is(err, ErrUnknownState) {
		t.Errorf("got %v, want ErrUnknownState", err)
	}
}
