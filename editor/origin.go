package editor

import (
	"net/url"
	"strings"
)

// OriginPolicy decides whether pixels of an image fetched from a URL may be
// read back. Images from origins outside the allow list can still be placed
// and previewed, but crop and compose refuse them.
type OriginPolicy struct {
	allowed map[string]struct{}
	any     bool
}

// NewOriginPolicy builds a policy from origins such as
// "https://cdn.example.com". A single "*" allows every origin.
func NewOriginPolicy(origins ...string) *OriginPolicy {
	p := &OriginPolicy{allowed: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if o == "*" {
			p.any = true
			continue
		}
		if n, ok := Origin(o); ok {
			p.allowed[n] = struct{}{}
		}
	}
	return p
}

// Allowed reports whether rawURL belongs to a permitted origin. Unparseable
// URLs are never allowed.
func (p *OriginPolicy) Allowed(rawURL string) bool {
	origin, ok := Origin(rawURL)
	if !ok {
		return false
	}
	if p == nil {
		return false
	}
	if p.any {
		return true
	}
	_, ok = p.allowed[origin]
	return ok
}

// Mark stamps img fetched from rawURL, marking it tainted when its origin is
// not permitted.
func (p *OriginPolicy) Mark(img *Source, rawURL string) *Source {
	origin, _ := Origin(rawURL)
	img.Origin = origin
	img.Tainted = !p.Allowed(rawURL)
	return img
}

// Origin returns the scheme://host[:port] of rawURL, lower-cased, with default
// ports removed.
func Origin(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}
	if port != "" {
		host += ":" + port
	}
	return scheme + "://" + host, true
}
