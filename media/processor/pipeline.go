package processor

import (
	"context"
	"fmt"
	"image"
	"io"
	"net/http"

	apperrors "github.com/leeforge/giftstudio/errors"
)

// ProcessingPipeline 处理管道
type ProcessingPipeline struct {
	steps []ProcessingStep
}

// ProcessingStep 处理步骤接口
type ProcessingStep interface {
	Process(ctx context.Context, image []byte) ([]byte, error)
}

// ValidateStep 验证步骤：大小、格式与像素数
type ValidateStep struct {
	maxBytes  int64
	maxPixels int64
}

// DownscaleStep 缩小步骤，超出 maxDimension 时按比例缩小
type DownscaleStep struct {
	maxDimension uint
}

// EncodeStep 格式转换步骤
type EncodeStep struct {
	format  string
	quality int
}

// NewProcessingPipeline 创建处理管道: validate → downscale → encode.
func NewProcessingPipeline(opts Options) *ProcessingPipeline {
	steps := []ProcessingStep{ValidateStep{maxBytes: opts.MaxBytes, maxPixels: opts.MaxPixels}}

	if opts.MaxDimension > 0 {
		steps = append(steps, DownscaleStep{maxDimension: opts.MaxDimension})
	}
	if opts.Format != "" {
		steps = append(steps, EncodeStep{format: opts.Format, quality: opts.Quality})
	}

	return &ProcessingPipeline{steps: steps}
}

// ThumbnailStep 缩略图步骤：缩放到 opts 的尺寸框内并编码
type ThumbnailStep struct {
	opts ResizeOptions
}

// NewThumbnailPipeline validates an image and fits it into the box described
// by opts, encoded in opts.Format.
func NewThumbnailPipeline(maxBytes, maxPixels int64, opts ResizeOptions) *ProcessingPipeline {
	return &ProcessingPipeline{steps: []ProcessingStep{
		ValidateStep{maxBytes: maxBytes, maxPixels: maxPixels},
		ThumbnailStep{opts: opts},
	}}
}

// Process 处理图片
func (p *ProcessingPipeline) Process(ctx context.Context, input []byte) ([]byte, error) {
	data := input
	for _, step := range p.steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		data, err = step.Process(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("step failed: %w", err)
		}
	}
	return data, nil
}

// ValidateStep 实现
func (s ValidateStep) Process(ctx context.Context, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, apperrors.NewRequired("image")
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, apperrors.NewInvalid("image", len(data), fmt.Sprintf("larger than %d bytes", s.maxBytes))
	}

	w, h, format, err := GetImageInfo(data)
	if err != nil {
		return nil, err
	}
	if !decodable[format] {
		return nil, apperrors.NewInvalid("image", format, "unsupported format")
	}
	if w == 0 || h == 0 {
		return nil, apperrors.NewInvalid("image", fmt.Sprintf("%dx%d", w, h), "image has no pixels")
	}
	// 解码前拒绝超大图片，避免压缩炸弹
	if s.maxPixels > 0 && int64(w)*int64(h) > s.maxPixels {
		return nil, apperrors.NewInvalid("image", fmt.Sprintf("%dx%d", w, h),
			fmt.Sprintf("more than %d pixels", s.maxPixels)).WithHTTPStatus(http.StatusRequestEntityTooLarge)
	}
	return data, nil
}

// DownscaleStep 实现。未缩小时原样返回；缩小后以 PNG 无损编码
func (s DownscaleStep) Process(ctx context.Context, data []byte) ([]byte, error) {
	w, h, _, err := GetImageInfo(data)
	if err != nil {
		return nil, err
	}
	if uint(w) <= s.maxDimension && uint(h) <= s.maxDimension {
		return data, nil
	}

	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return EncodeBytes(Downscale(img, s.maxDimension), FormatPNG, 0)
}

// ThumbnailStep 实现
func (s ThumbnailStep) Process(ctx context.Context, data []byte) ([]byte, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return EncodeBytes(Thumbnail(img, s.opts), s.opts.Format, s.opts.Quality)
}

// EncodeStep 实现
func (s EncodeStep) Process(ctx context.Context, data []byte) ([]byte, error) {
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return EncodeBytes(img, s.format, s.quality)
}

// Processor loads user images for the editor: read, validate, decode, then
// downscale when larger than the configured limit. Each step waits for the
// previous one.
type Processor struct {
	opts Options
}

func NewProcessor(opts Options) *Processor {
	return &Processor{opts: opts}
}

// Load decodes an upload into an editor-ready image.
func (p *Processor) Load(ctx context.Context, data []byte) (*image.NRGBA, error) {
	if _, err := (ValidateStep{maxBytes: p.opts.MaxBytes, maxPixels: p.opts.MaxPixels}).Process(ctx, data); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, _, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Downscale(img, p.opts.MaxDimension), nil
}

// LoadFromReader 从 Reader 读取，最多读取 MaxBytes+1 字节
func (p *Processor) LoadFromReader(ctx context.Context, r io.Reader) (*image.NRGBA, error) {
	if p.opts.MaxBytes > 0 {
		r = io.LimitReader(r, p.opts.MaxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, apperrors.WrapWithType(err, apperrors.ErrorTypeInvalid, "read image").WithHTTPStatus(http.StatusBadRequest)
	}
	return p.Load(ctx, data)
}

// MaxBytes is the largest accepted upload.
func (p *Processor) MaxBytes() int64 { return p.opts.MaxBytes }

// Output encodes a composed bitmap with the configured format and quality.
func (p *Processor) Output(img image.Image) ([]byte, string, error) {
	return p.OutputAs(img, "")
}

// OutputAs encodes img as format; an empty format means the configured one.
func (p *Processor) OutputAs(img image.Image, format string) ([]byte, string, error) {
	if format == "" {
		format = p.opts.Format
	}
	normalized, ok := NormalizeFormat(format)
	if !ok {
		return nil, "", apperrors.NewInvalid("format", format, "unsupported output format")
	}
	data, err := EncodeBytes(img, normalized, p.opts.Quality)
	return data, normalized, err
}
