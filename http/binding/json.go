package binding

import (
	"io"

	"github.com/leeforge/giftstudio/json"
)

// DecodeOptions JSON 解码选项配置
type DecodeOptions struct {
	// UseNumber 将 JSON 数字解析为 Number 类型而不是 float64
	useNumber bool
	// DisallowUnknownFields 不允许 JSON 中包含未知字段
	disallowUnknownFields bool
}

// Option 解码选项函数类型
type Option func(*DecodeOptions)

// WithUseNumber 使用 json.Number 来解析数字，而不是 float64
func WithUseNumber() Option {
	return func(opts *DecodeOptions) {
		opts.useNumber = true
	}
}

// WithDisallowUnknownFields 不允许 JSON 中包含结构体未定义的字段
func WithDisallowUnknownFields() Option {
	return func(opts *DecodeOptions) {
		opts.disallowUnknownFields = true
	}
}

func applyDecodeOptions(opts ...Option) *DecodeOptions {
	options := &DecodeOptions{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// decodeJson 解码 JSON 数据到目标对象
func decodeJson(r io.Reader, v any, opts ...Option) error {
	options := applyDecodeOptions(opts...)

	decoder := json.NewDecoder(r)
	if options.useNumber {
		decoder.Decoder.UseNumber()
	}
	if options.disallowUnknownFields {
		decoder.Decoder.DisallowUnknownFields()
	}

	return decoder.Decode(v)
}
