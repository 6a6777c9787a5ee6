// Package geom holds the float geometry shared by the editor and compositor.
package geom

import (
	"image"
	"math"
)

// Epsilon absorbs float drift when comparing edges.
const Epsilon = 1e-6

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Finite reports whether neither coordinate is NaN or infinite.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Min returns the smaller side.
func (s Size) Min() float64 { return math.Min(s.Width, s.Height) }

func (s Size) Empty() bool { return s.Width <= 0 || s.Height <= 0 }

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64 { return r.X + r.Width }

func (r Rect) Bottom() float64 { return r.Y + r.Height }

func (r Rect) Size() Size { return Size{r.Width, r.Height} }

func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// ContainsRect reports whether o lies inside r, within Epsilon.
func (r Rect) ContainsRect(o Rect) bool {
	return o.X >= r.X-Epsilon &&
		o.Y >= r.Y-Epsilon &&
		o.Right() <= r.Right()+Epsilon &&
		o.Bottom() <= r.Bottom()+Epsilon
}

// Intersect returns the overlap of r and o; the result is empty when they
// do not overlap.
func (r Rect) Intersect(o Rect) Rect {
	x0 := math.Max(r.X, o.X)
	y0 := math.Max(r.Y, o.Y)
	x1 := math.Min(r.Right(), o.Right())
	y1 := math.Min(r.Bottom(), o.Bottom())
	if x1 <= x0 || y1 <= y0 {
		return Rect{X: x0, Y: y0}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Image rounds r to pixel coordinates.
func (r Rect) Image() image.Rectangle {
	x0 := int(math.Round(r.X))
	y0 := int(math.Round(r.Y))
	return image.Rect(x0, y0, x0+int(math.Round(r.Width)), y0+int(math.Round(r.Height)))
}

func RectFromImage(b image.Rectangle) Rect {
	return Rect{
		X:      float64(b.Min.X),
		Y:      float64(b.Min.Y),
		Width:  float64(b.Dx()),
		Height: float64(b.Dy()),
	}
}

func Clamp(v, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
