package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	apperrors "github.com/leeforge/giftstudio/errors"
)

// Provider 存储提供者接口。key 为相对对象路径，使用正斜杠
type Provider interface {
	Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	URL(ctx context.Context, key string) (string, error)
	SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Name() string
}

// Config 提供者配置
type Config struct {
	Type   string      `mapstructure:"type" json:"type" yaml:"type" default:"local"` // local, oss
	Prefix string      `mapstructure:"prefix" json:"prefix" yaml:"prefix" default:"designs"`
	Local  LocalConfig `mapstructure:"local" json:"local" yaml:"local"`
	OSS    OSSConfig   `mapstructure:"oss" json:"oss" yaml:"oss"`

	// SignedURLTTL, when positive, hands out expiring URLs instead of public
	// ones (private OSS buckets).
	SignedURLTTL time.Duration `mapstructure:"signed_url_ttl" json:"signed_url_ttl" yaml:"signed_url_ttl"`
}

type LocalConfig struct {
	BasePath string `mapstructure:"base_path" json:"base_path" yaml:"base_path" default:"./storage"`
	BaseURL  string `mapstructure:"base_url" json:"base_url" yaml:"base_url" default:"/media"`
}

type OSSConfig struct {
	Endpoint        string `mapstructure:"endpoint" json:"endpoint" yaml:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id" json:"access_key_id" yaml:"access_key_id"`
	AccessKeySecret string `mapstructure:"access_key_secret" json:"-" yaml:"access_key_secret"`
	Bucket          string `mapstructure:"bucket" json:"bucket" yaml:"bucket"`
	Domain          string `mapstructure:"domain" json:"domain" yaml:"domain"` // custom or CDN domain
}

// NewFromConfig 从配置创建提供者
func NewFromConfig(cfg Config) (Provider, error) {
	switch cfg.Type {
	case "local", "":
		if cfg.Local.BasePath == "" {
			return nil, apperrors.NewRequired("storage.local.base_path")
		}
		baseURL := cfg.Local.BaseURL
		if baseURL == "" {
			baseURL = "/media" // 默认值
		}
		return NewLocalProvider(cfg.Local.BasePath, baseURL)

	case "oss":
		o := cfg.OSS
		if o.Endpoint == "" || o.Bucket == "" {
			return nil, apperrors.NewRequired("storage.oss.endpoint and storage.oss.bucket")
		}
		return NewOSSProvider(o.Endpoint, o.AccessKeyID, o.AccessKeySecret, o.Bucket, o.Domain)

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Type)
	}
}
