package yolo

import (
	"image"
	"testing"
)

// channelMajor builds a tensor from per-anchor rows.
func channelMajor(rows [][]float32) tensor {
	anchors := len(rows)
	channels := len(rows[0])
	data := make([]float32, channels*anchors)
	for a, row := range rows {
		for c, v := range row {
			data[c*anchors+a] = v
		}
	}
	return tensor{data: data, channels: channels, anchors: anchors}
}

func TestShapeOf(t *testing.T) {
	tests := []struct {
		name     string
		dims     []int
		channels int
		anchors  int
		ok       bool
	}{
		{"batched", []int{1, 84, 8400}, 84, 8400, true},
		{"unbatched", []int{56, 8400}, 56, 8400, true},
		{"too few channels", []int{1, 4, 8400}, 0, 0, false},
		{"flat", []int{8400}, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, a, ok := shapeOf(tt.dims)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && (c != tt.channels || a != tt.anchors) {
				t.Errorf("shape = %dx%d, want %dx%d", c, a, tt.channels, tt.anchors)
			}
		})
	}
}

func TestClassCandidates(t *testing.T) {
	tn := channelMajor([][]float32{
		{320, 320, 64, 128, 0.9, 0.1},
		{100, 100, 10, 10, 0.2, 0.3},
		{200, 400, 40, 40, 0.1, 0.7},
	})

	cands := classCandidates(tn, 0.5, 1, 0.5)
	if len(cands) != 2 {
		t.Fatalf("got %d candidates, want 2", len(cands))
	}

	first := cands[0]
	if first.classID != 0 || first.score != 0.9 || first.row != 0 {
		t.Errorf("first = %+v", first)
	}
	if want := image.Rect(144, 256, 176, 384); first.box != want {
		t.Errorf("first box = %v, want %v", first.box, want)
	}
	if cands[1].classID != 1 || cands[1].row != 2 {
		t.Errorf("second = %+v", cands[1])
	}
}

func TestPoseCandidatesAndKeypoints(t *testing.T) {
	// 4 box + score + 2 keypoints
	tn := channelMajor([][]float32{
		{100, 100, 20, 40, 0.8, 10, 20, 0.9, 30, 40, 0.2},
		{100, 100, 20, 40, 0.1, 0, 0, 0, 0, 0, 0},
	})

	cands := poseCandidates(tn, 2, 2, 0.4)
	if len(cands) != 1 || cands[0].row != 0 {
		t.Fatalf("candidates = %+v", cands)
	}

	kps := tn.keypoints(0, 2, 2)
	want := [][3]float32{{20, 40, 0.9}, {60, 80, 0.2}}
	if len(kps) != len(want) {
		t.Fatalf("got %d keypoints, want %d", len(kps), len(want))
	}
	for i := range want {
		if kps[i] != want[i] {
			t.Errorf("keypoint %d = %v, want %v", i, kps[i], want[i])
		}
	}
}

func TestClassName(t *testing.T) {
	if got := ClassName(0); got != "person" {
		t.Errorf("ClassName(0) = %q", got)
	}
	if got := ClassName(80); got != "unknown" {
		t.Errorf("ClassName(80) = %q", got)
	}
}
