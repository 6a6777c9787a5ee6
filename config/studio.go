package config

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/leeforge/giftstudio/editor"
	"github.com/leeforge/giftstudio/geom"
	"github.com/leeforge/giftstudio/http/middleware"
	"github.com/leeforge/giftstudio/logging"
	"github.com/leeforge/giftstudio/media/processor"
	"github.com/leeforge/giftstudio/media/storage"
	"github.com/leeforge/giftstudio/tokenstore"
)

// StudioConfig is the complete configuration of the studio service.
type StudioConfig struct {
	Server    ServerConfig      `mapstructure:"server" json:"server" yaml:"server"`
	Catalog   CatalogConfig     `mapstructure:"catalog" json:"catalog" yaml:"catalog"`
	Editor    EditorConfig      `mapstructure:"editor" json:"editor" yaml:"editor"`
	Output    processor.Options `mapstructure:"output" json:"output" yaml:"output"`
	Storage   storage.Config    `mapstructure:"storage" json:"storage" yaml:"storage"`
	Tokens    TokensConfig      `mapstructure:"tokens" json:"tokens" yaml:"tokens"`
	RateLimit RateLimitConfig   `mapstructure:"rate-limit" json:"rateLimit" yaml:"rate-limit"`
	Metrics   MetricsConfig     `mapstructure:"metrics" json:"metrics" yaml:"metrics"`
	Logging   logging.Config    `mapstructure:"logging" json:"logging" yaml:"logging"`
}

type ServerConfig struct {
	Addr            string                `mapstructure:"addr" json:"addr" yaml:"addr" default:":8080" validate:"required"`
	ReadTimeout     time.Duration         `mapstructure:"read-timeout" json:"readTimeout" yaml:"read-timeout" default:"30s"`
	WriteTimeout    time.Duration         `mapstructure:"write-timeout" json:"writeTimeout" yaml:"write-timeout" default:"60s"`
	ShutdownTimeout time.Duration         `mapstructure:"shutdown-timeout" json:"shutdownTimeout" yaml:"shutdown-timeout" default:"10s"`
	CORS            middleware.CORSConfig `mapstructure:"cors" json:"cors" yaml:"cors"`
}

type CatalogConfig struct {
	BaseURL   string        `mapstructure:"base-url" json:"baseUrl" yaml:"base-url" default:"http://localhost:8000/api" validate:"required,url"`
	Timeout   time.Duration `mapstructure:"timeout" json:"timeout" yaml:"timeout" default:"15s"`
	UserAgent string        `mapstructure:"user-agent" json:"userAgent" yaml:"user-agent" default:"giftstudio"`
}

// BoundaryConfig is the printable area inside the canvas. A zero width or
// height means the overlay is unconstrained.
type BoundaryConfig struct {
	X      float64 `mapstructure:"x" json:"x" yaml:"x"`
	Y      float64 `mapstructure:"y" json:"y" yaml:"y"`
	Width  float64 `mapstructure:"width" json:"width" yaml:"width" validate:"gte=0"`
	Height float64 `mapstructure:"height" json:"height" yaml:"height" validate:"gte=0"`
}

func (b BoundaryConfig) Rect() *geom.Rect {
	if b.Width <= 0 || b.Height <= 0 {
		return nil
	}
	return &geom.Rect{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

type EditorConfig struct {
	CanvasWidth     float64        `mapstructure:"canvas-width" json:"canvasWidth" yaml:"canvas-width" default:"500" validate:"gt=0"`
	CanvasHeight    float64        `mapstructure:"canvas-height" json:"canvasHeight" yaml:"canvas-height" default:"500" validate:"gt=0"`
	Boundary        BoundaryConfig `mapstructure:"boundary" json:"boundary" yaml:"boundary"`
	MinCropSize     float64        `mapstructure:"min-crop-size" json:"minCropSize" yaml:"min-crop-size" default:"20" validate:"gt=0"`
	MinHandleSize   float64        `mapstructure:"min-handle-size" json:"minHandleSize" yaml:"min-handle-size" default:"20" validate:"gt=0"`
	InitialFitRatio float64        `mapstructure:"initial-fit-ratio" json:"initialFitRatio" yaml:"initial-fit-ratio" default:"0.5" validate:"gt=0,lte=1"`
	SessionTTL      time.Duration  `mapstructure:"session-ttl" json:"sessionTtl" yaml:"session-ttl" default:"30m"`
	// MaxSessions caps live editing sessions. Zero disables the cap.
	MaxSessions int `mapstructure:"max-sessions" json:"maxSessions" yaml:"max-sessions" default:"1000" validate:"gte=0"`
	// AllowedOrigins lists remote origins whose pixels may be read. "*" allows any.
	AllowedOrigins []string `mapstructure:"allowed-origins" json:"allowedOrigins" yaml:"allowed-origins"`
	// ImageCacheSize is the number of decoded product photos kept in memory.
	// Zero disables the cache.
	ImageCacheSize int           `mapstructure:"image-cache-size" json:"imageCacheSize" yaml:"image-cache-size" default:"64" validate:"gte=0"`
	ImageCacheTTL  time.Duration `mapstructure:"image-cache-ttl" json:"imageCacheTtl" yaml:"image-cache-ttl" default:"10m"`
}

// Options converts the section into editor options.
func (e EditorConfig) Options() editor.Options {
	return editor.Options{
		Canvas:          geom.Size{Width: e.CanvasWidth, Height: e.CanvasHeight},
		Boundary:        e.Boundary.Rect(),
		MinCropSize:     e.MinCropSize,
		MinHandleSize:   e.MinHandleSize,
		InitialFitRatio: e.InitialFitRatio,
	}
}

type TokensConfig struct {
	Backend   string                 `mapstructure:"backend" json:"backend" yaml:"backend" default:"memory" validate:"oneof=memory redis"`
	MemoryTTL time.Duration          `mapstructure:"memory-ttl" json:"memoryTtl" yaml:"memory-ttl" default:"24h"`
	Redis     tokenstore.RedisConfig `mapstructure:"redis" json:"redis" yaml:"redis"`
}

// RateLimitConfig bounds upload and compose requests per client address.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps" json:"rps" yaml:"rps" default:"5" validate:"gte=0"`
	Burst int     `mapstructure:"burst" json:"burst" yaml:"burst" default:"10" validate:"gte=0"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled" default:"true"`
	Path    string `mapstructure:"path" json:"path" yaml:"path" default:"/metrics"`
}

var validate = validator.New()

// Validate checks the `validate` tags of every section.
func (c *StudioConfig) Validate() error {
	return validate.Struct(c)
}

// Load reads, defaults and validates a StudioConfig.
func Load(opts ...ConfigOptions) (*StudioConfig, *Config, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, nil, err
	}

	var sc StudioConfig
	if err := cfg.BindWithDefaults(&sc); err != nil {
		return nil, nil, err
	}
	return &sc, cfg, nil
}
