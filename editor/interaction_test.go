package editor

import (
	"image"
	"image/color"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/leeforge/giftstudio/errors"
	"github.com/leeforge/giftstudio/geom"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

func solid(w, h int, c color.NRGBA) *Source {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return &Source{Image: img}
}

func boundary(x, y, w, h float64) *geom.Rect {
	return &geom.Rect{X: x, Y: y, Width: w, Height: h}
}

func TestUploadInitialFit(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		w, h     int
		want     Placement
		contains *geom.Rect
	}{
		{
			name: "centred in boundary",
			opts: Options{Canvas: geom.Size{Width: 500, Height: 500}, Boundary: boundary(50, 50, 200, 300)},
			w:    400, h: 400,
			want: Placement{X: 50, Y: 100, ScaleX: 0.5, ScaleY: 0.5},
		},
		{
			name: "small image is not enlarged",
			opts: Options{Canvas: geom.Size{Width: 600, Height: 400}},
			w:    100, h: 50,
			want: Placement{X: 250, Y: 175, ScaleX: 1, ScaleY: 1},
		},
		{
			name: "fit to half the smaller canvas side",
			opts: Options{Canvas: geom.Size{Width: 500, Height: 500}},
			w:    1000, h: 500,
			want: Placement{X: 125, Y: 187.5, ScaleX: 0.25, ScaleY: 0.25},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := New(tt.opts)
			require.NoError(t, it.Upload(solid(tt.w, tt.h, red)))

			got := it.Placement()
			assert.InDelta(t, tt.want.X, got.X, 1e-9)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-9)
			assert.InDelta(t, tt.want.ScaleX, got.ScaleX, 1e-9)
			assert.InDelta(t, tt.want.ScaleY, got.ScaleY, 1e-9)

			b := it.Bounds()
			limit := it.Options().Canvas.Min() * DefaultInitialFitRatio
			assert.LessOrEqual(t, b.Width, limit+geom.Epsilon)
			assert.LessOrEqual(t, b.Height, limit+geom.Epsilon)
			if tt.opts.Boundary != nil {
				assert.True(t, tt.opts.Boundary.ContainsRect(b))
			}
		})
	}
}

func TestUploadRejectsMissingImage(t *testing.T) {
	it := New(Options{})
	err := it.Upload(nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRequired))
	err = it.SetPlacement(geom.Point{X: 1})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotReady))
}

var handles = []Handle{
	HandleTopLeft, HandleTop, HandleTopRight, HandleRight,
	HandleBottomRight, HandleBottom, HandleBottomLeft, HandleLeft,
}

func TestGesturesStayInsideBoundary(t *testing.T) {
	b := boundary(50, 50, 200, 300)
	it := New(Options{Canvas: geom.Size{Width: 500, Height: 500}, Boundary: b})
	require.NoError(t, it.Upload(solid(400, 300, red)))

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		if rng.Intn(2) == 0 {
			d := geom.Point{X: rng.Float64()*800 - 400, Y: rng.Float64()*800 - 400}
			require.NoError(t, it.SetPlacement(d))
		} else {
			h := handles[rng.Intn(len(handles))]
			p := geom.Point{X: rng.Float64()*900 - 200, Y: rng.Float64()*900 - 200}
			require.NoError(t, it.SetScaleFromHandle(h, p))
		}
		if !b.ContainsRect(it.Bounds()) {
			t.Fatalf("step %d: bounds %+v escaped boundary %+v", i, it.Bounds(), *b)
		}
	}
}

func TestDragWithoutBoundaryIsUnconstrained(t *testing.T) {
	it := New(Options{})
	require.NoError(t, it.Upload(solid(100, 100, red)))
	start := it.Placement()

	require.NoError(t, it.SetPlacement(geom.Point{X: -1000, Y: 40}))
	assert.Equal(t, start.X-1000, it.Placement().X)
	assert.Equal(t, start.Y+40, it.Placement().Y)
}

func TestScaleFromHandle(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		handle  Handle
		pointer geom.Point
		want    geom.Rect
	}{
		{
			name:    "top-left anchors bottom-right",
			handle:  HandleTopLeft,
			pointer: geom.Point{X: 150, Y: 170},
			want:    geom.Rect{X: 150, Y: 170, Width: 150, Height: 130},
		},
		{
			name:    "right side only changes width",
			handle:  HandleRight,
			pointer: geom.Point{X: 260, Y: 0},
			want:    geom.Rect{X: 200, Y: 200, Width: 60, Height: 100},
		},
		{
			name:    "dragging past the anchor snaps to minimum",
			handle:  HandleRight,
			pointer: geom.Point{X: 50, Y: 0},
			want:    geom.Rect{X: 200, Y: 200, Width: DefaultMinHandleSize, Height: 100},
		},
		{
			name:    "left handle collapse keeps right edge",
			handle:  HandleLeft,
			pointer: geom.Point{X: 299, Y: 0},
			want:    geom.Rect{X: 300 - DefaultMinHandleSize, Y: 200, Width: DefaultMinHandleSize, Height: 100},
		},
		{
			name:    "capped to boundary then re-clamped",
			opts:    Options{Boundary: boundary(150, 150, 200, 180)},
			handle:  HandleBottom,
			pointer: geom.Point{X: 0, Y: 1000},
			want:    geom.Rect{X: 200, Y: 150, Width: 100, Height: 180},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			it := New(tt.opts)
			require.NoError(t, it.Upload(solid(100, 100, red)))
			// 500x500 default canvas centres a 100x100 image at 200,200.
			if tt.opts.Boundary == nil {
				require.Equal(t, geom.Rect{X: 200, Y: 200, Width: 100, Height: 100}, it.Bounds())
			} else {
				it.placement = Placement{X: 200, Y: 200, ScaleX: 1, ScaleY: 1}
			}

			require.NoError(t, it.SetScaleFromHandle(tt.handle, tt.pointer))
			got := it.Bounds()
			assert.InDelta(t, tt.want.X, got.X, 1e-9)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-9)
			assert.InDelta(t, tt.want.Width, got.Width, 1e-9)
			assert.InDelta(t, tt.want.Height, got.Height, 1e-9)
		})
	}
}

func TestScaleFromHandleRejectsUnknownHandle(t *testing.T) {
	it := New(Options{})
	require.NoError(t, it.Upload(solid(10, 10, red)))
	err := it.SetScaleFromHandle(Handle("middle"), geom.Point{})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalid))
}

func TestGesturesRejectNonFinite(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	bad := []geom.Point{{X: nan}, {Y: inf}, {X: -inf, Y: nan}}

	for _, b := range []*geom.Rect{nil, boundary(0, 0, 500, 500)} {
		it := New(Options{Boundary: b})
		require.NoError(t, it.Upload(solid(100, 100, red)))
		before := it.Placement()

		for _, p := range bad {
			err := it.SetPlacement(p)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalid), "drag %+v: %v", p, err)
			err = it.SetScaleFromHandle(HandleBottomRight, p)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalid), "scale %+v: %v", p, err)
		}
		assert.True(t, apperrors.IsType(it.SetRotation(nan), apperrors.ErrorTypeInvalid))
		assert.Equal(t, before, it.Placement(), "rejected input must not change the placement")
	}

	// A finite delta that overflows the position is rejected too.
	it := New(Options{})
	require.NoError(t, it.Upload(solid(10, 10, red)))
	require.NoError(t, it.SetPlacement(geom.Point{X: math.MaxFloat64}))
	err := it.SetPlacement(geom.Point{X: math.MaxFloat64})
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalid))
	assert.False(t, math.IsInf(it.Placement().X, 0))
}

func TestSetRotationNormalises(t *testing.T) {
	it := New(Options{})
	require.NoError(t, it.Upload(solid(10, 10, red)))

	for in, want := range map[float64]float64{270: -90, 540: 180, -180: 180, 45: 45, -725: -5} {
		require.NoError(t, it.SetRotation(in))
		assert.InDelta(t, want, it.Placement().Rotation, 1e-9, "rotation %v", in)
	}
}

func TestStateSnapshot(t *testing.T) {
	it := New(Options{Boundary: boundary(0, 0, 300, 300)})
	st := it.State()
	assert.False(t, st.Ready)
	assert.Nil(t, st.Crop)

	require.NoError(t, it.SetBase(solid(40, 30, white)))
	require.NoError(t, it.Upload(solid(10, 10, red)))
	require.NoError(t, it.StartCrop())

	st = it.State()
	assert.True(t, st.Ready)
	assert.True(t, st.Cropping)
	require.NotNil(t, st.Crop)
	assert.Equal(t, geom.Size{Width: 40, Height: 30}, st.BaseSize)
	assert.Equal(t, geom.Size{Width: 10, Height: 10}, st.ImageSize)
}
