// Package pose defines pose landmark results produced by the secondary
// detector and derives body measurements from them.
package pose

import "github.com/teslashibe/go-framing/pkg/geom"

// VisibilityThreshold is the minimum landmark visibility drawn in a skeleton.
const VisibilityThreshold = 0.5

// Landmark is a single body keypoint in normalized image coordinates (0-1).
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z,omitempty"`
	Visibility float64 `json:"visibility"`
}

// Point returns the landmark position.
func (l Landmark) Point() geom.Point {
	return geom.Point{X: l.X, Y: l.Y}
}

// InFrame reports whether the landmark lies inside the unit square.
func (l Landmark) InFrame() bool {
	return l.X >= 0 && l.X <= 1 && l.Y >= 0 && l.Y <= 1
}

// Visible reports whether the landmark is in frame and confidently visible.
func (l Landmark) Visible() bool {
	return l.InFrame() && l.Visibility > VisibilityThreshold
}

// Person is the ordered landmark list for one detected body.
type Person []Landmark

// Result is one secondary detector output.
type Result struct {
	People      []Person `json:"people"`
	InputWidth  int      `json:"input_width"`
	InputHeight int      `json:"input_height"`
	Layout      *Layout  `json:"-"`

	// Mirrored is set when the detector ran on a horizontally flipped image,
	// so landmarks are already in preview (mirrored) space.
	Mirrored bool `json:"mirrored,omitempty"`
}

// Empty reports whether no person was detected.
func (r Result) Empty() bool {
	return len(r.People) == 0
}

// Layout describes where the measured joints live in a landmark list and how
// landmarks connect into a skeleton.
type Layout struct {
	Name          string
	Size          int
	LeftShoulder  int
	RightShoulder int
	LeftHip       int
	RightHip      int
	LeftAnkle     int
	RightAnkle    int
	Connections   [][2]int
}

// MediaPipe33 is the 33-landmark BlazePose layout.
var MediaPipe33 = &Layout{
	Name:          "mediapipe33",
	Size:          33,
	LeftShoulder:  11,
	RightShoulder: 12,
	LeftHip:       23,
	RightHip:      24,
	LeftAnkle:     27,
	RightAnkle:    28,
	Connections: [][2]int{
		{0, 1}, {1, 2}, {2, 3}, {3, 7}, {0, 4}, {4, 5}, {5, 6}, {6, 8}, {9, 10},
		{11, 12}, {11, 13}, {13, 15}, {15, 17}, {15, 19}, {15, 21}, {17, 19},
		{12, 14}, {14, 16}, {16, 18}, {16, 20}, {16, 22}, {18, 20},
		{11, 23}, {12, 24}, {23, 24}, {23, 25}, {24, 26}, {25, 27}, {26, 28},
		{27, 29}, {28, 30}, {29, 31}, {30, 32}, {27, 31}, {28, 32},
	},
}

// COCO17 is the 17-keypoint COCO layout used by YOLO pose models.
var COCO17 = &Layout{
	Name:          "coco17",
	Size:          17,
	LeftShoulder:  5,
	RightShoulder: 6,
	LeftHip:       11,
	RightHip:      12,
	LeftAnkle:     15,
	RightAnkle:    16,
	Connections: [][2]int{
		{0, 1}, {0, 2}, {1, 3}, {2, 4},
		{5, 6}, {5, 7}, {7, 9}, {6, 8}, {8, 10},
		{5, 11}, {6, 12}, {11, 12},
		{11, 13}, {13, 15}, {12, 14}, {14, 16},
	},
}

// LayoutOf returns the result's layout, defaulting to MediaPipe33.
func (r Result) LayoutOf() *Layout {
	if r.Layout != nil {
		return r.Layout
	}
	return MediaPipe33
}
