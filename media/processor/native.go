package processor

import (
	"image"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// Downscale shrinks img so neither side exceeds maxDimension, keeping the
// aspect ratio. Images already within the limit are returned unchanged.
// Lanczos3 is used for quality; it is pure Go so no cgo (libvips) is needed.
func Downscale(img *image.NRGBA, maxDimension uint) *image.NRGBA {
	if maxDimension == 0 {
		return img
	}
	b := img.Bounds()
	if uint(b.Dx()) <= maxDimension && uint(b.Dy()) <= maxDimension {
		return img
	}
	return ToNRGBA(resize.Thumbnail(maxDimension, maxDimension, img, resize.Lanczos3))
}

// Thumbnail fits img into the box described by opts.
func Thumbnail(img image.Image, opts ResizeOptions) *image.NRGBA {
	return ToNRGBA(resize.Thumbnail(opts.Width, opts.Height, img, resize.Lanczos3))
}

// Crop returns the pixels of img inside r, clipped to the image.
func Crop(img image.Image, r image.Rectangle) *image.NRGBA {
	return imaging.Crop(img, r)
}
