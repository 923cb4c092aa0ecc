package yolo

import (
	"image"
)

// candidate is one pre-NMS row of a YOLOv8 output tensor, already scaled to
// image pixels.
type candidate struct {
	box     image.Rectangle
	score   float32
	classID int
	row     int
}

// tensor is a [channels x anchors] view of a YOLOv8 output, stored channel-major
// as the network emits it.
type tensor struct {
	data     []float32
	channels int
	anchors  int
}

func (t tensor) at(channel, anchor int) float32 {
	return t.data[channel*t.anchors+anchor]
}

// shapeOf extracts channels and anchors from a [1, C, N] output shape.
func shapeOf(dims []int) (channels, anchors int, ok bool) {
	switch len(dims) {
	case 3:
		return dims[1], dims[2], dims[1] >= 5 && dims[2] > 0
	case 2:
		return dims[0], dims[1], dims[0] >= 5 && dims[1] > 0
	default:
		return 0, 0, false
	}
}

// boxAt converts the anchor's centre/size box from network input space into
// image pixels.
func (t tensor) boxAt(anchor int, scaleX, scaleY float32) image.Rectangle {
	cx := t.at(0, anchor)
	cy := t.at(1, anchor)
	w := t.at(2, anchor)
	h := t.at(3, anchor)
	return image.Rect(
		int((cx-w/2)*scaleX),
		int((cy-h/2)*scaleY),
		int((cx+w/2)*scaleX),
		int((cy+h/2)*scaleY),
	)
}

// classCandidates scans an object-detection tensor (4 box + N class scores)
// and keeps rows whose best class clears thresh.
func classCandidates(t tensor, scaleX, scaleY, thresh float32) []candidate {
	var out []candidate
	for i := 0; i < t.anchors; i++ {
		maxScore := float32(0)
		maxClassID := 0
		for c := 4; c < t.channels; c++ {
			if score := t.at(c, i); score > maxScore {
				maxScore = score
				maxClassID = c - 4
			}
		}
		if maxScore < thresh {
			continue
		}
		out = append(out, candidate{
			box:     t.boxAt(i, scaleX, scaleY),
			score:   maxScore,
			classID: maxClassID,
			row:     i,
		})
	}
	return out
}

// poseCandidates scans a pose tensor (4 box + 1 person score + keypoints).
func poseCandidates(t tensor, scaleX, scaleY, thresh float32) []candidate {
	var out []candidate
	for i := 0; i < t.anchors; i++ {
		score := t.at(4, i)
		if score < thresh {
			continue
		}
		out = append(out, candidate{
			box:   t.boxAt(i, scaleX, scaleY),
			score: score,
			row:   i,
		})
	}
	return out
}

// keypoints reads the (x, y, confidence) triples for one anchor, scaled to
// image pixels.
func (t tensor) keypoints(anchor int, scaleX, scaleY float32) [][3]float32 {
	n := (t.channels - 5) / 3
	kps := make([][3]float32, n)
	for k := 0; k < n; k++ {
		base := 5 + k*3
		kps[k] = [3]float32{
			t.at(base, anchor) * scaleX,
			t.at(base+1, anchor) * scaleY,
			t.at(base+2, anchor),
		}
	}
	return kps
}

func splitCandidates(cands []candidate) ([]image.Rectangle, []float32) {
	boxes := make([]image.Rectangle, len(cands))
	scores := make([]float32, len(cands))
	for i, c := range cands {
		boxes[i] = c.box
		scores[i] = c.score
	}
	return boxes, scores
}
