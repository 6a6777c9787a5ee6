package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// OSSProvider implements Provider for Aliyun OSS
type OSSProvider struct {
	bucket *oss.Bucket
	domain string // Custom domain or CDN domain
}

// NewOSSProvider creates a new OSS storage provider
// Endpoint: oss-cn-hangzhou.aliyuncs.com
func NewOSSProvider(endpoint, accessKeyID, accessKeySecret, bucketName, domain string) (*OSSProvider, error) {
	client, err := oss.New(endpoint, accessKeyID, accessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create OSS client: %w", err)
	}

	bucket, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket %s: %w", bucketName, err)
	}

	return &OSSProvider{
		bucket: bucket,
		domain: ossDomain(endpoint, bucketName, domain),
	}, nil
}

// ossDomain uses the bucket domain when no custom domain is configured.
func ossDomain(endpoint, bucketName, domain string) string {
	if domain == "" {
		endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://")
		return fmt.Sprintf("https://%s.%s", bucketName, endpoint)
	}
	if !strings.HasPrefix(domain, "http") {
		domain = "https://" + domain
	}
	return strings.TrimSuffix(domain, "/")
}

// Upload saves a file to OSS
func (p *OSSProvider) Upload(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	objectKey, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	opts := []oss.Option{oss.WithContext(ctx)}
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}
	if err := p.bucket.PutObject(objectKey, r, opts...); err != nil {
		return "", fmt.Errorf("failed to upload to OSS: %w", err)
	}

	return p.domain + "/" + objectKey, nil
}

// Delete removes a file from OSS
func (p *OSSProvider) Delete(ctx context.Context, key string) error {
	objectKey, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := p.bucket.DeleteObject(objectKey, oss.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to delete from OSS: %w", err)
	}
	return nil
}

func (p *OSSProvider) URL(ctx context.Context, key string) (string, error) {
	objectKey, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return p.domain + "/" + objectKey, nil
}

// SignedURL generates a signed URL for private object access
func (p *OSSProvider) SignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	objectKey, err := cleanKey(key)
	if err != nil {
		return "", err
	}

	expirySec := int64(expiry.Seconds())
	if expirySec <= 0 {
		expirySec = 3600 // Default 1 hour
	}

	url, err := p.bucket.SignURL(objectKey, oss.HTTPGet, expirySec)
	if err != nil {
		return "", fmt.Errorf("failed to sign URL: %w", err)
	}
	return url, nil
}

// Exists checks if a file exists in OSS
func (p *OSSProvider) Exists(ctx context.Context, key string) (bool, error) {
	objectKey, err := cleanKey(key)
	if err != nil {
		return false, err
	}
	return p.bucket.IsObjectExist(objectKey, oss.WithContext(ctx))
}

func (p *OSSProvider) Name() string {
	return "oss"
}
