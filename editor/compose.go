package editor

import (
	"image"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	apperrors "github.com/leeforge/giftstudio/errors"
	"github.com/leeforge/giftstudio/geom"
)

// Compose flattens the base image, stretched to the canvas, and the overlay
// drawn through its placement into one canvas-sized bitmap. Both images must
// be loaded and readable.
func (it *Interaction) Compose() (*image.NRGBA, error) {
	if it.base == nil || it.src == nil {
		return nil, apperrors.NewNotReady("base image and overlay must both be loaded")
	}
	if it.base.Tainted {
		return nil, apperrors.NewPixelAccess(it.base.Origin)
	}
	if it.src.Tainted {
		return nil, apperrors.NewPixelAccess(it.src.Origin)
	}

	w := int(math.Round(it.opts.Canvas.Width))
	h := int(math.Round(it.opts.Canvas.Height))
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))

	draw.CatmullRom.Scale(dst, dst.Bounds(), it.base.Image, it.base.Image.Bounds(), draw.Src, nil)
	drawPlaced(dst, it.src.Image, it.placement, geom.Point{})
	return dst, nil
}

// placementMatrix maps source pixels to canvas pixels: translate, then
// rotate, then scale.
func placementMatrix(p Placement, offset geom.Point) f64.Aff3 {
	rad := p.Rotation * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return f64.Aff3{
		cos * p.ScaleX, -sin * p.ScaleY, p.X + offset.X,
		sin * p.ScaleX, cos * p.ScaleY, p.Y + offset.Y,
	}
}

func drawPlaced(dst draw.Image, src image.Image, p Placement, offset geom.Point) {
	m := placementMatrix(p, offset)
	draw.CatmullRom.Transform(dst, m, src, src.Bounds(), draw.Over, nil)
}
