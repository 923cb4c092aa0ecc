// Package selection decides which detected object the user has selected and
// keeps that choice alive across frames despite re-detection noise.
//
// Selection is by tap: the tap is hit-tested against the frame's detections
// in view space and the smallest containing box toggles its identity in the
// tracked set. Every frame that still shows a tracked identity confirms it;
// an identity that goes unconfirmed for longer than StaleAfter is stale.
package selection

import (
	"sort"
	"time"

	"github.com/teslashibe/go-framing/pkg/debug"
	"github.com/teslashibe/go-framing/pkg/detection"
	"github.com/teslashibe/go-framing/pkg/geom"
	"github.com/teslashibe/go-framing/pkg/transform"
)

// Config holds selection tuning.
type Config struct {
	StaleAfter time.Duration // Tracked identity is stale when unconfirmed for longer than this
}

// DefaultConfig returns the default selection tuning.
func DefaultConfig() Config {
	return Config{StaleAfter: 500 * time.Millisecond}
}

// Guide receives the side effects of a selection toggle.
type Guide interface {
	Select()   // An identity became tracked
	Deselect() // A tracked identity was released
}

// Memory is the liveness record of the last confirmed identity.
type Memory struct {
	LastID          *int      `json:"last_id,omitempty"`
	LastConfirmedAt time.Time `json:"last_confirmed_at,omitempty"`
}

// Selector holds the tracked identity set and tracking memory.
// It is not safe for concurrent use.
type Selector struct {
	config  Config
	tracked map[int]struct{}
	memory  Memory
	clicked *geom.Point
}

// New creates a selector with nothing tracked.
func New(config Config) *Selector {
	if config.StaleAfter <= 0 {
		config.StaleAfter = DefaultConfig().StaleAfter
	}
	return &Selector{
		config:  config,
		tracked: make(map[int]struct{}),
	}
}

// HitTest maps every identified detection into view space and returns the
// identity of the smallest box containing p. Equal areas keep the earlier
// detection. Detections without identity are not selectable.
func HitTest(dets []detection.DetectedObject, vp transform.Viewport, p geom.Point) (int, bool) {
	best := -1
	bestArea := 0.0

	for i, d := range dets {
		if d.ID == nil {
			continue
		}
		if !vp.MapRect(d.Box).Contains(p) {
			continue
		}
		area := d.Box.Area()
		if best < 0 || area < bestArea {
			best = i
			bestArea = area
		}
	}

	if best < 0 {
		return 0, false
	}
	return *dets[best].ID, true
}

// Toggle adds id to the tracked set if absent, otherwise removes it, and
// notifies g. The pending click point is cleared in both cases. It returns
// true when id is tracked afterwards.
func (s *Selector) Toggle(id int, g Guide) bool {
	s.clicked = nil

	if _, ok := s.tracked[id]; ok {
		delete(s.tracked, id)
		if len(s.tracked) == 0 {
			s.memory = Memory{}
		}
		if g != nil {
			g.Deselect()
		}
		debug.FrameLog("selection released", "id", id)
		return false
	}

	s.tracked[id] = struct{}{}
	if g != nil {
		g.Select()
	}
	debug.FrameLog("selection tracked", "id", id)
	return true
}

// Click records a tap in view space, hit-tests it against dets and toggles
// the matching identity. The click point is consumed whether or not
// anything was hit.
func (s *Selector) Click(p geom.Point, dets []detection.DetectedObject, vp transform.Viewport, g Guide) (id int, hit bool) {
	s.clicked = &p
	defer func() { s.clicked = nil }()

	id, hit = HitTest(dets, vp, p)
	if hit {
		s.Toggle(id, g)
	}
	return id, hit
}

// Confirm records that id was seen at now. This is the staleness heartbeat.
func (s *Selector) Confirm(id int, now time.Time) {
	s.memory = Memory{LastID: detection.ID(id), LastConfirmedAt: now}
}

// ConfirmVisible confirms every tracked identity present in dets and returns
// those detections.
func (s *Selector) ConfirmVisible(dets []detection.DetectedObject, now time.Time) []detection.DetectedObject {
	var seen []detection.DetectedObject
	for _, d := range dets {
		id, ok := d.Identity()
		if !ok || !s.IsTracked(id) {
			continue
		}
		s.Confirm(id, now)
		seen = append(seen, d)
	}
	return seen
}

// IsStale reports whether the last confirmation is older than StaleAfter.
// A selector that was never confirmed is stale.
func (s *Selector) IsStale(now time.Time) bool {
	if s.memory.LastConfirmedAt.IsZero() {
		return true
	}
	return now.Sub(s.memory.LastConfirmedAt) > s.config.StaleAfter
}

// IsTracked reports whether id is in the tracked set.
func (s *Selector) IsTracked(id int) bool {
	_, ok := s.tracked[id]
	return ok
}

// Tracked returns the tracked identities in ascending order.
func (s *Selector) Tracked() []int {
	ids := make([]int, 0, len(s.tracked))
	for id := range s.tracked {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Clear empties the tracked set and resets the memory without notifying
// guidance.
func (s *Selector) Clear() {
	clear(s.tracked)
	s.memory = Memory{}
}

// Memory returns a copy of the tracking memory.
func (s *Selector) Memory() Memory {
	m := s.memory
	if m.LastID != nil {
		m.LastID = detection.ID(*m.LastID)
	}
	return m
}

// ClickedPoint returns the pending click point, if any.
func (s *Selector) ClickedPoint() *geom.Point {
	if s.clicked == nil {
		return nil
	}
	p := *s.clicked
	return &p
}
