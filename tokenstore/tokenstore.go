// Package tokenstore keeps the bearer credentials issued by the catalog
// service, keyed by studio session.
package tokenstore

import (
	"context"
	"time"

	apperrors "github.com/leeforge/giftstudio/errors"
)

// Tokens is an access/refresh token pair.
type Tokens struct {
	Access    string    `json:"access"`
	Refresh   string    `json:"refresh"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

func (t Tokens) Empty() bool { return t.Access == "" && t.Refresh == "" }

// Store persists Tokens by key. Load returns a not_found AppError when
// nothing is stored.
type Store interface {
	Load(ctx context.Context, key string) (Tokens, error)
	Save(ctx context.Context, key string, t Tokens) error
	Clear(ctx context.Context, key string) error
}

func errNotFound(key string) error {
	return apperrors.NewNotFound("tokens", key)
}

// Bound is a Store fixed to one key.
type Bound struct {
	store Store
	key   string
}

// Bind returns the token source for key.
func Bind(store Store, key string) *Bound {
	return &Bound{store: store, key: key}
}

// Tokens returns the stored tokens; a missing entry yields empty Tokens.
func (b *Bound) Tokens(ctx context.Context) (Tokens, error) {
	t, err := b.store.Load(ctx, b.key)
	if apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		return Tokens{}, nil
	}
	return t, err
}

func (b *Bound) SetTokens(ctx context.Context, t Tokens) error {
	return b.store.Save(ctx, b.key, t)
}

func (b *Bound) ClearTokens(ctx context.Context) error {
	return b.store.Clear(ctx, b.key)
}
