package handler

import (
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leeforge/giftstudio/catalog"
	apperrors "github.com/leeforge/giftstudio/errors"
	"github.com/leeforge/giftstudio/http/binding"
	"github.com/leeforge/giftstudio/http/responder"
	"github.com/leeforge/giftstudio/logging"
	"github.com/leeforge/giftstudio/tokenstore"
)

// AuthCookie holds the key under which a browser's catalog tokens are
// stored. The tokens themselves never leave the server.
const AuthCookie = "studio_auth"

type loginResponse struct {
	ExpiresIn int `json:"expiresIn,omitempty"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var creds catalog.Credentials
	if err := binding.JSON(r, &creds); err != nil {
		h.fail(w, r, err)
		return
	}
	if h.Catalog == nil || h.Tokens == nil {
		h.fail(w, r, apperrors.NewNotReady("catalog login is not configured"))
		return
	}

	key := uuid.NewString()
	pair, err := h.Catalog.WithTokens(tokenstore.Bind(h.Tokens, key)).Login(r.Context(), creds)
	if err != nil {
		logging.FromContext(r.Context()).Warn("catalog login failed",
			zap.String("username", creds.Username), zap.Error(err))
		h.fail(w, r, err)
		return
	}

	http.SetCookie(w, h.authCookie(key, 0))
	responder.OK(w, r, loginResponse{ExpiresIn: pair.ExpiresIn}, took(r))
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if client, err := h.userClient(r); err == nil {
		if err := client.Logout(r.Context()); err != nil {
			logging.FromContext(r.Context()).Warn("catalog logout failed", zap.Error(err))
		}
	}
	http.SetCookie(w, h.authCookie("", -1))
	responder.NoContent(w, r)
}

// userClient returns a catalog client bound to the caller's stored tokens.
func (h *Handler) userClient(r *http.Request) (*catalog.Client, error) {
	if h.Catalog == nil || h.Tokens == nil {
		return nil, apperrors.NewNotReady("catalog is not configured")
	}
	c, err := r.Cookie(AuthCookie)
	if err != nil || c.Value == "" {
		return nil, apperrors.NewUnauthorized("login required")
	}
	return h.Catalog.WithTokens(tokenstore.Bind(h.Tokens, c.Value)), nil
}

func (h *Handler) authCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     AuthCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
}
