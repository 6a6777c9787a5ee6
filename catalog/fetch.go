package catalog

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/leeforge/giftstudio/editor"
	apperrors "github.com/leeforge/giftstudio/errors"
)

// FetchedImage is a remote image body and the origin it was served from.
type FetchedImage struct {
	Data        []byte
	ContentType string
	Origin      string
	// URL is the final URL after redirects.
	URL string
}

const maxRedirects = 5

// FetchImage downloads a product image. rawURL may be absolute or relative to
// the base URL. Only the catalog's own origin and the origins allowed by
// extra are contacted, redirects included; anything else is refused before a
// connection is made. No bearer token is sent because images are public and
// may be served from another origin.
func (c *Client) FetchImage(ctx context.Context, rawURL string, maxBytes int64, extra *editor.OriginPolicy) (*FetchedImage, error) {
	if rawURL == "" {
		return nil, apperrors.NewRequired("url")
	}
	if _, ok := editor.Origin(rawURL); !ok {
		rawURL = c.baseURL + "/" + trimLeadingSlash(rawURL)
	}
	if err := c.checkImageURL(rawURL, extra); err != nil {
		return nil, err
	}

	client := *c.httpClient
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return apperrors.NewExternal("image download failed").WithDetail("reason", "too many redirects")
		}
		return c.checkImageURL(req.URL.String(), extra)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apperrors.NewInvalid("url", rawURL, err.Error())
	}
	req.Header.Set("Accept", "image/*")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		c.observe(http.MethodGet, 0, time.Since(start))
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, transportError(ctx, err)
	}
	defer resp.Body.Close()
	c.observe(http.MethodGet, resp.StatusCode, time.Since(start))

	if resp.StatusCode == http.StatusNotFound {
		return nil, apperrors.NewNotFound("image", rawURL)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, apperrors.NewExternal("image download failed").WithDetail("status", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, apperrors.NewExternal("image download failed").WithInnerError(err)
	}
	if int64(len(data)) > maxBytes {
		return nil, apperrors.NewInvalid("image", rawURL, "image too large").
			WithHTTPStatus(http.StatusRequestEntityTooLarge)
	}

	final := resp.Request.URL.String()
	origin, _ := editor.Origin(final)
	return &FetchedImage{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
		Origin:      origin,
		URL:         final,
	}, nil
}

// checkImageURL permits http(s) URLs on the catalog origin or on an origin
// extra allows.
func (c *Client) checkImageURL(rawURL string, extra *editor.OriginPolicy) error {
	origin, ok := editor.Origin(rawURL)
	if !ok || !(strings.HasPrefix(origin, "http://") || strings.HasPrefix(origin, "https://")) {
		return apperrors.NewInvalid("url", rawURL, "not an absolute http(s) URL")
	}
	if origin == c.origin || extra.Allowed(rawURL) {
		return nil
	}
	return apperrors.NewForbidden("image origin is not allowed").WithDetail("origin", origin)
}

func trimLeadingSlash(s string) string {
	for len(s) > 0 && s[0] == '/' {
		s = s[1:]
	}
	return s
}
