package geom

import (
	"image"
	"math"
	"testing"
)

func TestRectContainsRect(t *testing.T) {
	b := Rect{X: 50, Y: 50, Width: 200, Height: 300}
	tests := []struct {
		name string
		r    Rect
		want bool
	}{
		{"inside", Rect{60, 60, 100, 100}, true},
		{"same", b, true},
		{"float drift", Rect{50 - 1e-9, 50, 200, 300}, true},
		{"overflow right", Rect{100, 60, 200, 10}, false},
		{"above", Rect{60, 40, 10, 10}, false},
	}
	for _, tt := range tests {
		if got := b.ContainsRect(tt.r); got != tt.want {
			t.Errorf("%s: ContainsRect = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestRectIntersect(t *testing.T) {
	a := Rect{0, 0, 100, 100}
	got := a.Intersect(Rect{50, 80, 100, 100})
	want := Rect{50, 80, 50, 20}
	if got != want {
		t.Errorf("Intersect = %+v, want %+v", got, want)
	}
	if !a.Intersect(Rect{200, 200, 10, 10}).Empty() {
		t.Error("disjoint rects should intersect to empty")
	}
}

func TestPointFinite(t *testing.T) {
	tests := []struct {
		p    Point
		want bool
	}{
		{Point{1, -2}, true},
		{Point{math.NaN(), 0}, false},
		{Point{0, math.Inf(1)}, false},
		{Point{math.Inf(-1), math.NaN()}, false},
	}
	for _, tt := range tests {
		if got := tt.p.Finite(); got != tt.want {
			t.Errorf("%+v.Finite() = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	if Clamp(-5, 0, 10) != 0 || Clamp(15, 0, 10) != 10 || Clamp(5, 0, 10) != 5 {
		t.Error("Clamp out of range")
	}
	// An inverted range pins to lo.
	if Clamp(5, 10, 0) != 10 {
		t.Error("Clamp with hi < lo should return lo")
	}
}

func TestRectImage(t *testing.T) {
	r := Rect{X: 10.4, Y: 9.6, Width: 20.2, Height: 5}
	if got := r.Image(); got != image.Rect(10, 10, 30, 15) {
		t.Errorf("Image() = %v", got)
	}
	if RectFromImage(image.Rect(1, 2, 4, 8)) != (Rect{1, 2, 3, 6}) {
		t.Error("RectFromImage mismatch")
	}
}
