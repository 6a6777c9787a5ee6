// Package decal places a user image on a 3D gift mesh, such as a mug, as a
// projected decal, and flattens it into the printable wrap texture.
package decal

import (
	"math"

	apperrors "github.com/leeforge/giftstudio/errors"
)

// Placement limits relative to the mesh.
const (
	MaxWidthOfRadius  = 1.5
	MaxHeightOfHeight = 0.6
	LiftOfHeight      = 0.1
)

// MeshInfo describes a roughly cylindrical mesh standing on the Y axis.
type MeshInfo struct {
	Center Vec3    `json:"center"`
	Radius float64 `json:"radius"`
	Height float64 `json:"height"`
}

// MeshInfoFromBounds derives mesh dimensions from a bounding box: the radius
// is half the larger horizontal extent.
func MeshInfoFromBounds(b Box3) MeshInfo {
	s := b.Size()
	return MeshInfo{
		Center: b.Center(),
		Radius: math.Max(s.X(), s.Z()) / 2,
		Height: s.Y(),
	}
}

// Top is the Y coordinate of the mesh's upper rim.
func (m MeshInfo) Top() float64 { return m.Center.Y() + m.Height/2 }

// Placement is where and how large a decal is projected.
type Placement struct {
	Position Vec3    `json:"position"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Depth    float64 `json:"depth"`
}

// Scale returns the decal's width and height.
func (p Placement) Scale() [2]float64 { return [2]float64{p.Width, p.Height} }

// Place sizes a decal for an image of imageW x imageH pixels. The decal keeps
// the image's aspect ratio and is as large as allowed without exceeding
// MaxWidthOfRadius*radius across or MaxHeightOfHeight*height up. It sits on the
// front (+Z) surface, centred laterally and lifted by LiftOfHeight*height.
func Place(mesh MeshInfo, imageW, imageH int) (Placement, error) {
	if imageW <= 0 || imageH <= 0 {
		return Placement{}, apperrors.NewInvalid("image size", [2]int{imageW, imageH}, "image has no pixels")
	}
	if mesh.Radius <= 0 || mesh.Height <= 0 {
		return Placement{}, apperrors.NewInvalid("mesh", mesh, "mesh must have a positive radius and height")
	}

	aspect := float64(imageW) / float64(imageH)
	maxW := mesh.Radius * MaxWidthOfRadius
	maxH := mesh.Height * MaxHeightOfHeight

	w, h := maxW, maxW/aspect
	if h > maxH {
		h = maxH
		w = h * aspect
	}

	c := mesh.Center
	return Placement{
		Position: Vec3{c.X(), c.Y() + mesh.Height*LiftOfHeight, c.Z() + mesh.Radius},
		Width:    w,
		Height:   h,
		Depth:    mesh.Radius,
	}, nil
}
