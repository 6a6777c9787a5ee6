// Package editor implements the overlay transform interaction: placing an
// uploaded image over a product, resizing it from handles, cropping it and
// flattening the result into a single bitmap.
//
// An Interaction is not safe for concurrent use; Registry serialises access
// per session.
package editor

import (
	"math"

	apperrors "github.com/leeforge/giftstudio/errors"
	"github.com/leeforge/giftstudio/geom"
)

type Interaction struct {
	opts Options

	base      *Source
	src       *Source
	placement Placement

	cropping bool
	crop     geom.Rect
}

func New(opts Options) *Interaction {
	return &Interaction{opts: opts.withDefaults()}
}

func (it *Interaction) Options() Options { return it.opts }

// SetBase sets the product image the overlay is composed onto.
func (it *Interaction) SetBase(src *Source) error {
	if src == nil || src.Image == nil {
		return apperrors.NewRequired("base image")
	}
	it.base = src
	return nil
}

// Upload installs a new overlay image. The initial scale keeps the larger side
// within InitialFitRatio of the smaller canvas side and within the Boundary,
// never enlarging the image. The result is centred in the Boundary when set,
// otherwise in the canvas. Any crop in progress is discarded.
func (it *Interaction) Upload(src *Source) error {
	if src == nil || src.Image == nil {
		return apperrors.NewRequired("image")
	}
	size := src.size()
	if size.Empty() {
		return apperrors.NewInvalid("image", "0x0", "image has no pixels")
	}

	limit := it.opts.Canvas.Min() * it.opts.InitialFitRatio
	scale := math.Min(1, limit/math.Max(size.Width, size.Height))

	area := geom.Rect{Width: it.opts.Canvas.Width, Height: it.opts.Canvas.Height}
	if b := it.opts.Boundary; b != nil {
		scale = math.Min(scale, math.Min(b.Width/size.Width, b.Height/size.Height))
		area = *b
	}

	c := area.Center()
	it.src = src
	it.placement = Placement{
		X:      c.X - size.Width*scale/2,
		Y:      c.Y - size.Height*scale/2,
		ScaleX: scale,
		ScaleY: scale,
	}
	it.cropping = false
	it.crop = geom.Rect{}
	return nil
}

// SetPlacement applies a drag delta, keeping the scaled image inside the
// Boundary when one is set.
func (it *Interaction) SetPlacement(delta geom.Point) error {
	if it.src == nil {
		return apperrors.NewNotReady("no image uploaded")
	}
	next := geom.Point{X: it.placement.X, Y: it.placement.Y}.Add(delta)
	if !delta.Finite() || !next.Finite() {
		return apperrors.NewInvalid("delta", delta, "not a finite number")
	}
	it.placement.X, it.placement.Y = next.X, next.Y
	it.clampPosition()
	return nil
}

// SetScaleFromHandle resizes the overlay by dragging handle to pointer with the
// opposite edge or corner held in place. Sizes under MinHandleSize snap to the
// minimum; sizes larger than the Boundary are capped to it.
func (it *Interaction) SetScaleFromHandle(h Handle, pointer geom.Point) error {
	if !h.Valid() {
		return apperrors.NewInvalid("handle", h, "unknown handle")
	}
	if !pointer.Finite() {
		return apperrors.NewInvalid("pointer", pointer, "not a finite number")
	}
	if it.src == nil {
		return apperrors.NewNotReady("no image uploaded")
	}

	natural := it.src.size()
	r := it.placement.Bounds(natural)
	w, hgt := r.Width, r.Height

	switch {
	case h.movesLeft():
		w = r.Right() - pointer.X
	case h.movesRight():
		w = pointer.X - r.X
	}
	switch {
	case h.movesTop():
		hgt = r.Bottom() - pointer.Y
	case h.movesBottom():
		hgt = pointer.Y - r.Y
	}

	w = math.Max(w, it.opts.MinHandleSize)
	hgt = math.Max(hgt, it.opts.MinHandleSize)
	if b := it.opts.Boundary; b != nil {
		w = math.Min(w, b.Width)
		hgt = math.Min(hgt, b.Height)
	}

	if h.movesLeft() {
		it.placement.X = r.Right() - w
	}
	if h.movesTop() {
		it.placement.Y = r.Bottom() - hgt
	}
	it.placement.ScaleX = w / natural.Width
	it.placement.ScaleY = hgt / natural.Height
	it.clampPosition()
	return nil
}

// SetRotation sets the overlay rotation in degrees. Rotation is not taken into
// account when clamping.
func (it *Interaction) SetRotation(degrees float64) error {
	if it.src == nil {
		return apperrors.NewNotReady("no image uploaded")
	}
	if math.IsNaN(degrees) || math.IsInf(degrees, 0) {
		return apperrors.NewInvalid("rotation", degrees, "not a finite number")
	}
	it.placement.Rotation = normaliseDegrees(degrees)
	return nil
}

func (it *Interaction) Placement() Placement { return it.placement }

func (it *Interaction) Bounds() geom.Rect {
	return it.placement.Bounds(it.src.size())
}

func (it *Interaction) State() State {
	st := State{
		Canvas:    it.opts.Canvas,
		Boundary:  it.opts.Boundary,
		Placement: it.placement,
		ImageSize: it.src.size(),
		BaseSize:  it.base.size(),
		Cropping:  it.cropping,
		Ready:     it.src != nil && it.base != nil,
	}
	if it.src != nil {
		st.Bounds = it.Bounds()
		st.Tainted = it.src.Tainted
	}
	if it.base != nil && it.base.Tainted {
		st.Tainted = true
	}
	if it.cropping {
		c := it.crop
		st.Crop = &c
	}
	return st
}

func (it *Interaction) clampPosition() {
	b := it.opts.Boundary
	if b == nil {
		return
	}
	r := it.Bounds()
	it.placement.X = geom.Clamp(r.X, b.X, b.Right()-r.Width)
	it.placement.Y = geom.Clamp(r.Y, b.Y, b.Bottom()-r.Height)
}
