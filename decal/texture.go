package decal

import (
	"image"
	"math"

	"golang.org/x/image/draw"

	apperrors "github.com/leeforge/giftstudio/errors"
)

// PrintTexture flattens a placed decal into a w x h wrap texture covering the
// whole mesh side. U runs once around the circumference with the front (+Z)
// at the horizontal centre; V runs from the rim (top) to the base.
func PrintTexture(img image.Image, mesh MeshInfo, p Placement, w, h int) (*image.NRGBA, error) {
	if img == nil {
		return nil, apperrors.NewRequired("image")
	}
	if w <= 0 || h <= 0 {
		return nil, apperrors.NewInvalid("texture size", [2]int{w, h}, "must be positive")
	}
	if mesh.Radius <= 0 || mesh.Height <= 0 {
		return nil, apperrors.NewInvalid("mesh", mesh, "mesh must have a positive radius and height")
	}

	pxPerU := float64(w) / (2 * math.Pi * mesh.Radius)
	pxPerV := float64(h) / mesh.Height

	dw := p.Width * pxPerU
	dh := p.Height * pxPerV
	left := float64(w)/2 - dw/2
	top := (mesh.Top() - (p.Position.Y() + p.Height/2)) * pxPerV

	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	dr := image.Rect(
		int(math.Round(left)), int(math.Round(top)),
		int(math.Round(left+dw)), int(math.Round(top+dh)),
	)
	draw.CatmullRom.Scale(dst, dr, img, img.Bounds(), draw.Over, nil)
	return dst, nil
}
