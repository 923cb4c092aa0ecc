package pose

import "github.com/teslashibe/go-framing/pkg/geom"

// BodyMeasurement holds the torso and leg lengths in normalized units.
type BodyMeasurement struct {
	ShoulderToHip float64 `json:"shoulder_to_hip"`
	HipToAnkle    float64 `json:"hip_to_ankle"`
}

// Ratio returns leg length over torso length. ok is false when the torso
// length is zero.
func (m BodyMeasurement) Ratio() (ratio float64, ok bool) {
	if m.ShoulderToHip == 0 {
		return 0, false
	}
	return m.HipToAnkle / m.ShoulderToHip, true
}

// MeasureBody computes shoulder-to-hip and hip-to-ankle lengths from the
// midpoints of the paired joints. All six joints must be inside the frame.
func MeasureBody(p Person, layout *Layout) (BodyMeasurement, bool) {
	if layout == nil {
		layout = MediaPipe33
	}
	if len(p) < layout.Size {
		return BodyMeasurement{}, false
	}

	joints := []int{
		layout.LeftShoulder, layout.RightShoulder,
		layout.LeftHip, layout.RightHip,
		layout.LeftAnkle, layout.RightAnkle,
	}
	for _, j := range joints {
		if !p[j].InFrame() {
			return BodyMeasurement{}, false
		}
	}

	shoulders := p[layout.LeftShoulder].Point().Mid(p[layout.RightShoulder].Point())
	hips := p[layout.LeftHip].Point().Mid(p[layout.RightHip].Point())
	ankles := p[layout.LeftAnkle].Point().Mid(p[layout.RightAnkle].Point())

	return BodyMeasurement{
		ShoulderToHip: shoulders.Dist(hips),
		HipToAnkle:    hips.Dist(ankles),
	}, true
}

// Bone is a visible skeleton segment in normalized coordinates.
type Bone struct {
	From geom.Point `json:"from"`
	To   geom.Point `json:"to"`
}

// Skeleton returns the visible joints and bones of a person.
func Skeleton(p Person, layout *Layout) (joints []geom.Point, bones []Bone) {
	if layout == nil {
		layout = MediaPipe33
	}
	for _, l := range p {
		if l.Visible() {
			joints = append(joints, l.Point())
		}
	}
	for _, c := range layout.Connections {
		if c[0] >= len(p) || c[1] >= len(p) {
			continue
		}
		a, b := p[c[0]], p[c[1]]
		if a.Visible() && b.Visible() {
			bones = append(bones, Bone{From: a.Point(), To: b.Point()})
		}
	}
	return joints, bones
}
