package processor

// Options controls upload normalisation and output encoding.
type Options struct {
	MaxBytes     int64  `json:"max_bytes" mapstructure:"max_bytes" default:"20971520"`
	MaxDimension uint   `json:"max_dimension" mapstructure:"max_dimension" default:"4096"`
	// MaxPixels caps width*height read from the header, before decoding.
	MaxPixels int64 `json:"max_pixels" mapstructure:"max_pixels" default:"40000000"`
	Format       string `json:"format" mapstructure:"format" default:"png"` // png, jpeg, webp
	Quality      int    `json:"quality" mapstructure:"quality" default:"90"` // 1-100, jpeg only
}

// ResizeOptions defines a thumbnail box
type ResizeOptions struct {
	Width   uint
	Height  uint
	Quality int
	Format  string
}

// Standard sizes
var (
	// CartPreview is the preview attached to a cart line.
	CartPreview = ResizeOptions{Width: 480, Height: 480, Quality: 85, Format: FormatJPEG}
	// AdminThumbnail is the catalog list thumbnail.
	AdminThumbnail = ResizeOptions{Width: 245, Height: 156, Quality: 80, Format: FormatJPEG}
)

const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatWebP = "webp"
)
