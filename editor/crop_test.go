package editor

import (
	"image"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/leeforge/giftstudio/errors"
	"github.com/leeforge/giftstudio/geom"
)

// halves returns a w x h image whose left half is red and right half blue.
func halves(w, h int) *Source {
	src := solid(w, h, red)
	for y := 0; y < h; y++ {
		for x := w / 2; x < w; x++ {
			src.Image.SetNRGBA(x, y, blue)
		}
	}
	return src
}

func cropping(t *testing.T, opts Options) *Interaction {
	t.Helper()
	it := New(opts)
	require.NoError(t, it.Upload(halves(100, 100)))
	require.NoError(t, it.StartCrop())
	return it
}

func TestStartCropUsesBoundsWithinBoundary(t *testing.T) {
	it := New(Options{Boundary: boundary(0, 0, 500, 500)})
	require.NoError(t, it.Upload(solid(100, 100, red)))
	require.NoError(t, it.SetPlacement(geom.Point{X: 1000, Y: 1000}))
	require.NoError(t, it.StartCrop())

	crop, ok := it.CropRegion()
	require.True(t, ok)
	assert.Equal(t, geom.Rect{X: 400, Y: 400, Width: 100, Height: 100}, crop)
}

func TestCropHandleIntoFloorLeavesMinimum(t *testing.T) {
	it := cropping(t, Options{})
	crop, _ := it.CropRegion()
	require.Equal(t, geom.Rect{X: 200, Y: 200, Width: 100, Height: 100}, crop)

	require.NoError(t, it.SetCropRegion(HandleBottomRight, geom.Point{X: 205, Y: 203}))
	crop, _ = it.CropRegion()
	assert.Equal(t, geom.Rect{X: 200, Y: 200, Width: 20, Height: 20}, crop)

	// Dragging past the opposite corner keeps the floor too.
	require.NoError(t, it.SetCropRegion(HandleTopLeft, geom.Point{X: 400, Y: 400}))
	crop, _ = it.CropRegion()
	assert.Equal(t, geom.Rect{X: 200, Y: 200, Width: 20, Height: 20}, crop)
}

func TestCropRegionNeverBelowMinimum(t *testing.T) {
	b := boundary(100, 100, 250, 250)
	it := cropping(t, Options{Boundary: b, MinCropSize: 30})

	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 2000; i++ {
		h := handles[rng.Intn(len(handles))]
		p := geom.Point{X: rng.Float64()*700 - 100, Y: rng.Float64()*700 - 100}
		require.NoError(t, it.SetCropRegion(h, p))

		crop, _ := it.CropRegion()
		if crop.Width < 30-geom.Epsilon || crop.Height < 30-geom.Epsilon {
			t.Fatalf("step %d: crop %+v below minimum", i, crop)
		}
		if !b.ContainsRect(crop) {
			t.Fatalf("step %d: crop %+v escaped boundary", i, crop)
		}
	}
}

func TestCropClampedToBoundary(t *testing.T) {
	it := cropping(t, Options{Boundary: boundary(150, 150, 300, 300)})
	require.NoError(t, it.SetCropRegion(HandleLeft, geom.Point{X: 0, Y: 0}))
	require.NoError(t, it.SetCropRegion(HandleBottom, geom.Point{X: 0, Y: 900}))

	crop, _ := it.CropRegion()
	assert.Equal(t, 150.0, crop.X)
	assert.Equal(t, 450.0, crop.Bottom())
}

func TestSetCropRegionRejectsNonFinite(t *testing.T) {
	it := cropping(t, Options{Boundary: boundary(0, 0, 500, 500)})
	before, _ := it.CropRegion()

	for _, p := range []geom.Point{{X: math.NaN(), Y: 10}, {X: 10, Y: math.Inf(-1)}} {
		err := it.SetCropRegion(HandleTopLeft, p)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalid), "pointer %+v: %v", p, err)
	}
	crop, ok := it.CropRegion()
	require.True(t, ok)
	assert.Equal(t, before, crop)
}

func TestSetCropRegionOutsideCropMode(t *testing.T) {
	it := New(Options{})
	require.NoError(t, it.Upload(solid(10, 10, red)))
	err := it.SetCropRegion(HandleTop, geom.Point{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotReady))
}

func TestApplyCropKeepsVisiblePixels(t *testing.T) {
	it := cropping(t, Options{})
	// Right half of the overlay, which is blue.
	require.NoError(t, it.SetCropRegion(HandleLeft, geom.Point{X: 250, Y: 0}))
	require.NoError(t, it.ApplyCrop())

	assert.False(t, it.Cropping())
	assert.Equal(t, Placement{X: 250, Y: 200, ScaleX: 1, ScaleY: 1}, it.Placement())
	assert.Equal(t, geom.Size{Width: 50, Height: 100}, it.State().ImageSize)

	c := it.src.Image.NRGBAAt(25, 50)
	assert.Equal(t, blue, c)
}

func TestApplyCropFollowsPlacement(t *testing.T) {
	it := New(Options{})
	require.NoError(t, it.Upload(halves(100, 100)))
	it.placement = Placement{X: 100, Y: 100, ScaleX: 2, ScaleY: 2, Rotation: 180}
	// Rotated 180 degrees the image occupies [-100,100]x[-100,100] and its
	// blue half lands on the left.
	require.NoError(t, it.StartCrop())
	it.crop = geom.Rect{X: -90, Y: -90, Width: 80, Height: 80}
	require.NoError(t, it.ApplyCrop())

	assert.Equal(t, blue, it.src.Image.NRGBAAt(40, 40))
	assert.Equal(t, geom.Size{Width: 80, Height: 80}, it.State().ImageSize)
}

func TestApplyCropTaintedLeavesStateUntouched(t *testing.T) {
	it := New(Options{})
	src := halves(100, 100)
	src.Tainted = true
	src.Origin = "https://images.example.org"
	require.NoError(t, it.Upload(src))
	require.NoError(t, it.StartCrop())
	require.NoError(t, it.SetCropRegion(HandleRight, geom.Point{X: 240}))

	before := it.State()
	err := it.ApplyCrop()
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypePixelAccess))
	assert.Equal(t, before, it.State())
	assert.Same(t, src, it.src)
}

func TestCancelCrop(t *testing.T) {
	it := cropping(t, Options{})
	it.CancelCrop()
	_, ok := it.CropRegion()
	assert.False(t, ok)
	assert.True(t, apperrors.IsType(it.ApplyCrop(), apperrors.ErrorTypeNotReady))
}

func TestApplyCropOutputIsOriginAnchored(t *testing.T) {
	it := cropping(t, Options{})
	require.NoError(t, it.ApplyCrop())
	assert.Equal(t, image.Pt(0, 0), it.src.Image.Bounds().Min)
}
