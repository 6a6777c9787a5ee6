package editor

import (
	"image"
	"math"

	apperrors "github.com/leeforge/giftstudio/errors"
	"github.com/leeforge/giftstudio/geom"
)

// StartCrop enters crop mode with the region set to the overlay's bounding
// box, limited to the Boundary when one is set.
func (it *Interaction) StartCrop() error {
	if it.src == nil {
		return apperrors.NewNotReady("no image uploaded")
	}
	r := it.Bounds()
	if b := it.opts.Boundary; b != nil {
		r = r.Intersect(*b)
	}
	r.Width = math.Max(r.Width, it.opts.MinCropSize)
	r.Height = math.Max(r.Height, it.opts.MinCropSize)
	it.crop = r
	it.cropping = true
	return nil
}

func (it *Interaction) CancelCrop() {
	it.cropping = false
	it.crop = geom.Rect{}
}

func (it *Interaction) Cropping() bool { return it.cropping }

// CropRegion returns the current crop rectangle; ok is false outside crop mode.
func (it *Interaction) CropRegion() (geom.Rect, bool) {
	return it.crop, it.cropping
}

// SetCropRegion moves the edges of the crop region named by h to pointer. The
// region never shrinks below MinCropSize and stays inside the Boundary when
// one is set.
func (it *Interaction) SetCropRegion(h Handle, pointer geom.Point) error {
	if !h.Valid() {
		return apperrors.NewInvalid("handle", h, "unknown handle")
	}
	if !pointer.Finite() {
		return apperrors.NewInvalid("pointer", pointer, "not a finite number")
	}
	if !it.cropping {
		return apperrors.NewNotReady("crop mode is not active")
	}

	floor := it.opts.MinCropSize
	left, top := it.crop.X, it.crop.Y
	right, bottom := it.crop.Right(), it.crop.Bottom()

	loX, hiX := math.Inf(-1), math.Inf(1)
	loY, hiY := math.Inf(-1), math.Inf(1)
	if b := it.opts.Boundary; b != nil {
		loX, hiX = b.X, b.Right()
		loY, hiY = b.Y, b.Bottom()
	}

	switch {
	case h.movesLeft():
		left = geom.Clamp(pointer.X, loX, right-floor)
	case h.movesRight():
		right = geom.Clamp(pointer.X, left+floor, hiX)
	}
	switch {
	case h.movesTop():
		top = geom.Clamp(pointer.Y, loY, bottom-floor)
	case h.movesBottom():
		bottom = geom.Clamp(pointer.Y, top+floor, hiY)
	}

	it.crop = geom.Rect{X: left, Y: top, Width: right - left, Height: bottom - top}
	return nil
}

// ApplyCrop replaces the overlay with the pixels visible inside the crop
// region under the current placement, then places the result unscaled and
// unrotated where the region was. A tainted overlay leaves all state as is.
func (it *Interaction) ApplyCrop() error {
	if it.src == nil {
		return apperrors.NewNotReady("no image uploaded")
	}
	if !it.cropping {
		return apperrors.NewNotReady("crop mode is not active")
	}
	if it.src.Tainted {
		return apperrors.NewPixelAccess(it.src.Origin)
	}

	c := it.crop
	r := c.Image()
	if r.Dx() < 1 || r.Dy() < 1 {
		return apperrors.NewInvalid("crop", c, "crop region has no pixels")
	}
	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	drawPlaced(dst, it.src.Image, it.placement, geom.Point{X: -c.X, Y: -c.Y})

	it.src = &Source{Image: dst, Origin: it.src.Origin}
	it.placement = Placement{X: c.X, Y: c.Y, ScaleX: 1, ScaleY: 1}
	it.cropping = false
	it.crop = geom.Rect{}
	return nil
}
