package processor

import (
	"bytes"
	"errors"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/disintegration/imaging"
	"github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	apperrors "github.com/leeforge/giftstudio/errors"
)

// 可解码的格式（由 image.RegisterFormat 注册的名称）
var decodable = map[string]bool{
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
	"bmp":  true,
	"tiff": true,
	formatTGA: true,
}

// NormalizeFormat maps aliases and file extensions to an output format.
// ok is false for formats that cannot be encoded.
func NormalizeFormat(format string) (string, bool) {
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "jpg", "jpeg":
		return FormatJPEG, true
	case "png", "":
		return FormatPNG, true
	case "webp":
		return FormatWebP, true
	}
	return "", false
}

// ContentType returns the MIME type of an output format.
func ContentType(format string) string {
	switch format {
	case FormatJPEG:
		return "image/jpeg"
	case FormatWebP:
		return "image/webp"
	}
	return "image/png"
}

// TGA has no magic number, so it is not registered with the image package
// (an empty magic would match every input). It is tried only after every
// registered format has declined the data.
const formatTGA = "tga"

// Decode decodes data into an NRGBA image anchored at the origin.
func Decode(data []byte) (*image.NRGBA, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		img, err = tga.Decode(bytes.NewReader(data))
		format = formatTGA
	}
	if err != nil {
		return nil, "", apperrors.NewValidation("invalid image").WithInnerError(err)
	}
	return ToNRGBA(img), format, nil
}

// ToNRGBA converts img to NRGBA with bounds starting at (0,0).
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	return imaging.Clone(img)
}

// Encode writes img in the given format. quality only applies to JPEG.
func Encode(w io.Writer, img image.Image, format string, quality int) error {
	f, ok := NormalizeFormat(format)
	if !ok {
		return apperrors.NewInvalid("format", format, "unsupported output format")
	}
	if quality <= 0 || quality > 100 {
		quality = 90
	}

	var err error
	switch f {
	case FormatJPEG:
		err = jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case FormatWebP:
		err = nativewebp.Encode(w, img, nil)
	default:
		err = png.Encode(w, img)
	}
	if err != nil {
		return apperrors.WrapWithType(err, apperrors.ErrorTypeInternal, "encode "+f)
	}
	return nil
}

// EncodeBytes is Encode into a fresh buffer.
func EncodeBytes(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, format, quality); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GetImageInfo 获取图片信息
func GetImageInfo(data []byte) (width, height int, format string, err error) {
	config, format, err := image.DecodeConfig(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) {
		config, err = tga.DecodeConfig(bytes.NewReader(data))
		format = formatTGA
	}
	if err != nil {
		return 0, 0, "", apperrors.NewValidation("invalid image").WithInnerError(err)
	}
	return config.Width, config.Height, format, nil
}
