package decal

import "math"

// Vec3 is a 3-component vector (value type).
type Vec3 [3]float64

func (a Vec3) Add(b Vec3) Vec3 {
	return Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func (a Vec3) Sub(b Vec3) Vec3 {
	return Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func (v Vec3) Scale(s float64) Vec3 {
	return Vec3{v[0] * s, v[1] * s, v[2] * s}
}

func (v Vec3) X() float64 { return v[0] }
func (v Vec3) Y() float64 { return v[1] }
func (v Vec3) Z() float64 { return v[2] }

// Box3 is an axis-aligned bounding box.
type Box3 struct {
	Min Vec3 `json:"min"`
	Max Vec3 `json:"max"`
}

// BoundsOf returns the bounding box of vertices. An empty slice yields the
// zero box.
func BoundsOf(vertices []Vec3) Box3 {
	if len(vertices) == 0 {
		return Box3{}
	}
	b := Box3{Min: vertices[0], Max: vertices[0]}
	for _, v := range vertices[1:] {
		for i := 0; i < 3; i++ {
			b.Min[i] = math.Min(b.Min[i], v[i])
			b.Max[i] = math.Max(b.Max[i], v[i])
		}
	}
	return b
}

func (b Box3) Size() Vec3 { return b.Max.Sub(b.Min) }

func (b Box3) Center() Vec3 { return b.Min.Add(b.Max).Scale(0.5) }
