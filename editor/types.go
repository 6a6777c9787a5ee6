package editor

import (
	"image"
	"math"

	"github.com/leeforge/giftstudio/geom"
)

// Placement is the affine transform applied to the overlay before it is
// drawn: X/Y is the top-left of the scaled image, Rotation is in degrees
// around that point.
type Placement struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	ScaleX   float64 `json:"scaleX"`
	ScaleY   float64 `json:"scaleY"`
	Rotation float64 `json:"rotation"`
}

// Bounds returns the unrotated bounding box of an image of the given natural
// size under p.
func (p Placement) Bounds(natural geom.Size) geom.Rect {
	return geom.Rect{
		X:      p.X,
		Y:      p.Y,
		Width:  natural.Width * p.ScaleX,
		Height: natural.Height * p.ScaleY,
	}
}

// Handle names one of the eight resize anchors of a transformer box.
type Handle string

const (
	HandleTopLeft     Handle = "top-left"
	HandleTop         Handle = "top"
	HandleTopRight    Handle = "top-right"
	HandleRight       Handle = "right"
	HandleBottomRight Handle = "bottom-right"
	HandleBottom      Handle = "bottom"
	HandleBottomLeft  Handle = "bottom-left"
	HandleLeft        Handle = "left"
)

// Valid reports whether h is one of the eight known handles.
func (h Handle) Valid() bool {
	switch h {
	case HandleTopLeft, HandleTop, HandleTopRight, HandleRight,
		HandleBottomRight, HandleBottom, HandleBottomLeft, HandleLeft:
		return true
	}
	return false
}

func (h Handle) movesLeft() bool {
	return h == HandleTopLeft || h == HandleLeft || h == HandleBottomLeft
}

func (h Handle) movesRight() bool {
	return h == HandleTopRight || h == HandleRight || h == HandleBottomRight
}

func (h Handle) movesTop() bool {
	return h == HandleTopLeft || h == HandleTop || h == HandleTopRight
}

func (h Handle) movesBottom() bool {
	return h == HandleBottomLeft || h == HandleBottom || h == HandleBottomRight
}

// Source is a decoded image together with where it came from. Tainted images
// may be displayed but their pixels must never be read back.
type Source struct {
	Image   *image.NRGBA
	Origin  string
	Tainted bool
}

func (s *Source) size() geom.Size {
	if s == nil || s.Image == nil {
		return geom.Size{}
	}
	b := s.Image.Bounds()
	return geom.Size{Width: float64(b.Dx()), Height: float64(b.Dy())}
}

const (
	DefaultMinCropSize     = 20
	DefaultMinHandleSize   = 20
	DefaultInitialFitRatio = 0.5
	DefaultCanvasSize      = 500
)

// Options configures an Interaction. Zero values fall back to the defaults
// above; Boundary is optional.
type Options struct {
	Canvas          geom.Size
	Boundary        *geom.Rect
	MinCropSize     float64
	MinHandleSize   float64
	InitialFitRatio float64
}

func (o Options) withDefaults() Options {
	if o.Canvas.Width <= 0 {
		o.Canvas.Width = DefaultCanvasSize
	}
	if o.Canvas.Height <= 0 {
		o.Canvas.Height = DefaultCanvasSize
	}
	if o.MinCropSize <= 0 {
		o.MinCropSize = DefaultMinCropSize
	}
	if o.MinHandleSize <= 0 {
		o.MinHandleSize = DefaultMinHandleSize
	}
	if o.InitialFitRatio <= 0 || o.InitialFitRatio > 1 {
		o.InitialFitRatio = DefaultInitialFitRatio
	}
	if o.Boundary != nil {
		b := *o.Boundary
		o.Boundary = &b
	}
	return o
}

// State is a read-only snapshot handed to renderers.
type State struct {
	Canvas    geom.Size  `json:"canvas"`
	Boundary  *geom.Rect `json:"boundary,omitempty"`
	Placement Placement  `json:"placement"`
	Bounds    geom.Rect  `json:"bounds"`
	ImageSize geom.Size  `json:"imageSize"`
	BaseSize  geom.Size  `json:"baseSize"`
	Cropping  bool       `json:"cropping"`
	Crop      *geom.Rect `json:"crop,omitempty"`
	Tainted   bool       `json:"tainted"`
	Ready     bool       `json:"ready"`
}

func normaliseDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d <= -180 {
		d += 360
	} else if d > 180 {
		d -= 360
	}
	return d
}
