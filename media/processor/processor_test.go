package processor

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"

	apperrors "github.com/leeforge/giftstudio/errors"
)

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeFormat(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"JPG", FormatJPEG, true},
		{".jpeg", FormatJPEG, true},
		{"", FormatPNG, true},
		{"webp", FormatWebP, true},
		{"gif", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeFormat(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
}

func TestDecodeNormalisesToOrigin(t *testing.T) {
	src := image.NewGray(image.Rect(10, 10, 30, 20))
	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, src))

	img, format, err := Decode(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "bmp", format)
	assert.Equal(t, image.Rect(0, 0, 20, 10), img.Bounds())

	shifted := image.NewNRGBA(image.Rect(5, 5, 8, 8))
	assert.Equal(t, image.Pt(0, 0), ToNRGBA(shifted).Bounds().Min)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, _, err := Decode([]byte("not an image"))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
}

func TestEncodeRoundTrip(t *testing.T) {
	img := gradient(16, 12)
	for _, f := range []string{FormatPNG, FormatJPEG, FormatWebP} {
		t.Run(f, func(t *testing.T) {
			data, err := EncodeBytes(img, f, 80)
			require.NoError(t, err)
			w, h, format, err := GetImageInfo(data)
			require.NoError(t, err)
			assert.Equal(t, f, format)
			assert.Equal(t, 16, w)
			assert.Equal(t, 12, h)
		})
	}

	_, err := EncodeBytes(img, "gif", 0)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalid))
}

func TestDownscale(t *testing.T) {
	img := gradient(200, 100)
	assert.Same(t, img, Downscale(img, 500))
	assert.Same(t, img, Downscale(img, 0))

	small := Downscale(img, 50)
	assert.Equal(t, 50, small.Bounds().Dx())
	assert.Equal(t, 25, small.Bounds().Dy())
}

func TestCrop(t *testing.T) {
	img := gradient(40, 40)
	out := Crop(img, image.Rect(10, 5, 30, 50))
	assert.Equal(t, image.Rect(0, 0, 20, 35), out.Bounds())
	assert.Equal(t, img.NRGBAAt(10, 5), out.NRGBAAt(0, 0))
}

func TestPipeline(t *testing.T) {
	data := pngBytes(t, gradient(300, 150))

	out, err := NewProcessingPipeline(Options{MaxDimension: 100, Format: "jpg", Quality: 70}).
		Process(context.Background(), data)
	require.NoError(t, err)

	w, h, format, err := GetImageInfo(out)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, w)
	assert.Equal(t, 50, h)
}

func TestPipelineValidation(t *testing.T) {
	ctx := context.Background()
	data := pngBytes(t, gradient(10, 10))

	_, err := NewProcessingPipeline(Options{MaxBytes: 10}).Process(ctx, data)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalid))

	_, err = NewProcessingPipeline(Options{}).Process(ctx, nil)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRequired))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewProcessingPipeline(Options{}).Process(cancelled, data)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessorLoad(t *testing.T) {
	p := NewProcessor(Options{MaxBytes: 1 << 20, MaxDimension: 64, Format: "webp"})
	img, err := p.LoadFromReader(context.Background(), bytes.NewReader(pngBytes(t, gradient(128, 32))))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 64, 16), img.Bounds())

	out, format, err := p.Output(img)
	require.NoError(t, err)
	assert.Equal(t, FormatWebP, format)
	assert.Equal(t, "image/webp", ContentType(format))
	assert.NotEmpty(t, out)
}

// tgaBytes builds an uncompressed 32-bit true-colour TGA, top-left origin.
func tgaBytes(w, h int, c color.NRGBA) []byte {
	header := make([]byte, 18)
	header[2] = 2 // uncompressed true-colour
	binary.LittleEndian.PutUint16(header[12:], uint16(w))
	binary.LittleEndian.PutUint16(header[14:], uint16(h))
	header[16] = 32
	header[17] = 0x28 // 8 alpha bits, top-left origin
	data := header
	for i := 0; i < w*h; i++ {
		data = append(data, c.B, c.G, c.R, c.A)
	}
	return data
}

func TestProcessorLoadFormats(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	solid := image.NewNRGBA(image.Rect(0, 0, 6, 4))
	for i := 0; i < len(solid.Pix); i += 4 {
		copy(solid.Pix[i:], []uint8{red.R, red.G, red.B, red.A})
	}

	tests := []struct {
		name   string
		data   []byte
		format string
	}{
		{"png", pngBytes(t, solid), "png"},
		{"tga", tgaBytes(6, 4, red), "tga"},
	}
	p := NewProcessor(Options{MaxBytes: 1 << 20, MaxPixels: 1000})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, format, err := GetImageInfo(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.format, format)
			assert.Equal(t, [2]int{6, 4}, [2]int{w, h})

			img, err := p.Load(context.Background(), tt.data)
			require.NoError(t, err)
			assert.Equal(t, image.Rect(0, 0, 6, 4), img.Bounds())
			assert.Equal(t, red, img.NRGBAAt(5, 3))
		})
	}
}

// withDimensions rewrites the IHDR chunk of a PNG so that it claims w x h.
func withDimensions(data []byte, w, h uint32) []byte {
	out := append([]byte(nil), data...)
	binary.BigEndian.PutUint32(out[16:], w)
	binary.BigEndian.PutUint32(out[20:], h)
	binary.BigEndian.PutUint32(out[29:], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestValidateRejectsTooManyPixels(t *testing.T) {
	ctx := context.Background()
	bomb := withDimensions(pngBytes(t, gradient(1, 1)), 16000, 16000)

	w, h, _, err := GetImageInfo(bomb)
	require.NoError(t, err)
	require.Equal(t, 16000, w)
	require.Equal(t, 16000, h)

	p := NewProcessor(Options{MaxBytes: 1 << 20, MaxPixels: 40_000_000})
	_, err = p.Load(ctx, bomb)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalid))
	assert.Equal(t, 413, apperrors.FromError(err).Status())

	_, err = NewProcessingPipeline(Options{MaxPixels: 99}).Process(ctx, pngBytes(t, gradient(10, 10)))
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeInvalid))

	_, err = NewProcessingPipeline(Options{MaxPixels: 100}).Process(ctx, pngBytes(t, gradient(10, 10)))
	assert.NoError(t, err)
}

func TestThumbnailPipeline(t *testing.T) {
	out, err := NewThumbnailPipeline(1<<20, 0, AdminThumbnail).
		Process(context.Background(), pngBytes(t, gradient(490, 200)))
	require.NoError(t, err)

	w, h, format, err := GetImageInfo(out)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 245, w)
	assert.LessOrEqual(t, h, 156)
}
