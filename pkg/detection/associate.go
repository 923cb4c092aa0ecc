package detection

import (
	"context"
	"sort"

	"github.com/teslashibe/go-framing/pkg/geom"
)

// AssociatorConfig tunes identity assignment for detectors that do not
// track objects themselves.
type AssociatorConfig struct {
	MinIoU    float64 // Minimum overlap to carry an identity forward
	MaxMisses int     // Frames an identity survives without a match
}

// DefaultAssociatorConfig returns defaults suited to ~15-30 fps input.
func DefaultAssociatorConfig() AssociatorConfig {
	return AssociatorConfig{
		MinIoU:    0.3,
		MaxMisses: 5,
	}
}

type track struct {
	id     int
	box    geom.Rect
	label  string
	misses int
}

// Associator assigns stable identities across frames by greedy IoU matching
// against the previous frame's boxes. It is not safe for concurrent use.
type Associator struct {
	config AssociatorConfig
	nextID int
	tracks []track
}

// NewAssociator creates an associator. Identities start at 1.
func NewAssociator(config AssociatorConfig) *Associator {
	return &Associator{config: config, nextID: 1}
}

// Assign fills in the ID of every detection that lacks one and returns the
// updated list. Detections that already carry an identity are left alone.
func (a *Associator) Assign(dets []DetectedObject) []DetectedObject {
	type pair struct {
		track, det int
		iou        float64
	}

	var pairs []pair
	for ti, t := range a.tracks {
		for di, d := range dets {
			if d.ID != nil {
				continue
			}
			if l, ok := d.TopLabel(); ok && t.label != "" && l.Name != t.label {
				continue
			}
			if iou := t.box.IoU(d.Box); iou >= a.config.MinIoU {
				pairs = append(pairs, pair{track: ti, det: di, iou: iou})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].iou > pairs[j].iou })

	trackUsed := make([]bool, len(a.tracks))
	detUsed := make([]bool, len(dets))
	for _, p := range pairs {
		if trackUsed[p.track] || detUsed[p.det] {
			continue
		}
		trackUsed[p.track] = true
		detUsed[p.det] = true
		t := &a.tracks[p.track]
		t.box = dets[p.det].Box
		t.misses = 0
		dets[p.det].ID = ID(t.id)
	}

	kept := a.tracks[:0]
	for i, t := range a.tracks {
		if !trackUsed[i] {
			t.misses++
			if t.misses > a.config.MaxMisses {
				continue
			}
		}
		kept = append(kept, t)
	}
	a.tracks = kept

	for i := range dets {
		if detUsed[i] || dets[i].ID != nil {
			continue
		}
		id := a.nextID
		a.nextID++
		label := ""
		if l, ok := dets[i].TopLabel(); ok {
			label = l.Name
		}
		a.tracks = append(a.tracks, track{id: id, box: dets[i].Box, label: label})
		dets[i].ID = ID(id)
	}

	return dets
}

// Len returns the number of live identities.
func (a *Associator) Len() int {
	return len(a.tracks)
}

// WithIdentities wraps an object detector so that its output carries stable
// identities from assoc. The wrapper is only safe for one caller at a time,
// which the Dispatcher guarantees.
func WithIdentities(inner ObjectDetector, assoc *Associator) ObjectDetector {
	return ObjectDetectorFunc(func(ctx context.Context, frame Frame) ([]DetectedObject, error) {
		dets, err := inner.Detect(ctx, frame)
		if err != nil {
			return nil, err
		}
		return assoc.Assign(dets), nil
	})
}
