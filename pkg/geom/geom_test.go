package geom

import (
	"math"
	"testing"
)

func TestRect_Area(t *testing.T) {
	tests := []struct {
		name string
		r    Rect
		want float64
	}{
		{"unit", R(0, 0, 1, 1), 1},
		{"wide", R(10, 10, 30, 15), 100},
		{"degenerate", R(5, 5, 5, 20), 0},
		{"inverted", R(10, 10, 0, 0), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Area(); got != tt.want {
				t.Errorf("Area: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRect_Normalize(t *testing.T) {
	got := R(30, 40, 10, 20).Normalize()
	want := R(10, 20, 30, 40)
	if got != want {
		t.Errorf("Normalize: got %+v, want %+v", got, want)
	}
}

func TestRect_ContainsEdges(t *testing.T) {
	r := R(0, 0, 10, 10)
	for _, p := range []Point{Pt(0, 0), Pt(10, 10), Pt(5, 0), Pt(10, 5)} {
		if !r.Contains(p) {
			t.Errorf("edge point %+v should be contained", p)
		}
	}
	for _, p := range []Point{Pt(-0.01, 5), Pt(5, 10.01)} {
		if r.Contains(p) {
			t.Errorf("point %+v should not be contained", p)
		}
	}
}

func TestRect_IoU(t *testing.T) {
	a := R(0, 0, 10, 10)
	if got := a.IoU(a); got != 1 {
		t.Errorf("self IoU: got %v, want 1", got)
	}
	if got := a.IoU(R(20, 20, 30, 30)); got != 0 {
		t.Errorf("disjoint IoU: got %v, want 0", got)
	}
	// 5x10 overlap, union 150
	if got := a.IoU(R(5, 0, 15, 10)); math.Abs(got-50.0/150.0) > 1e-9 {
		t.Errorf("half overlap IoU: got %v, want %v", got, 50.0/150.0)
	}
}

func TestPoint_DistMid(t *testing.T) {
	if got := Pt(0, 0).Dist(Pt(3, 4)); got != 5 {
		t.Errorf("Dist: got %v, want 5", got)
	}
	if got := Pt(0, 0).Mid(Pt(2, 4)); got != Pt(1, 2) {
		t.Errorf("Mid: got %+v, want (1,2)", got)
	}
}
