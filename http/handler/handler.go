// Package handler exposes the studio over HTTP.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/leeforge/giftstudio/cache"
	"github.com/leeforge/giftstudio/catalog"
	"github.com/leeforge/giftstudio/editor"
	apperrors "github.com/leeforge/giftstudio/errors"
	"github.com/leeforge/giftstudio/http/middleware"
	"github.com/leeforge/giftstudio/http/responder"
	"github.com/leeforge/giftstudio/logging"
	"github.com/leeforge/giftstudio/media/processor"
	"github.com/leeforge/giftstudio/media/storage"
	"github.com/leeforge/giftstudio/metrics"
	"github.com/leeforge/giftstudio/tokenstore"
)

// Deps are the collaborators of a Handler. Metrics, Limiter and ImageCache
// are optional.
type Deps struct {
	Registry      *editor.Registry
	Origins       *editor.OriginPolicy
	Processor     *processor.Processor
	Storage       storage.Provider
	StoragePrefix string
	// SignedURLTTL makes submit return expiring storage URLs when positive.
	SignedURLTTL  time.Duration
	Catalog       *catalog.Client
	ImageCache    *cache.Cache[RemoteImage]
	Tokens        tokenstore.Store
	Metrics       *metrics.Collector
	MetricsPath   string
	Limiter       *middleware.RateLimiter
	Logger        logging.Logger
	CORS          middleware.CORSConfig
	// SecureCookies marks the auth cookie Secure and turns on HSTS.
	SecureCookies bool
}

type Handler struct {
	Deps
	now func() time.Time
}

func New(deps Deps) *Handler {
	if deps.Logger == nil {
		deps.Logger = logging.Nop()
	}
	if deps.MetricsPath == "" {
		deps.MetricsPath = "/metrics"
	}
	return &Handler{Deps: deps, now: time.Now}
}

// Routes builds the chi router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.TimingMiddleware())
	r.Use(logging.HTTPMiddleware(h.Logger))
	r.Use(middleware.RecoveryMiddleware(h.Logger))
	r.Use(middleware.SecurityHeadersMiddleware(h.SecureCookies))
	r.Use(middleware.CORSMiddleware(h.CORS))
	if h.Metrics != nil {
		r.Use(h.Metrics.Middleware)
		r.Method(http.MethodGet, h.MetricsPath, h.Metrics.Handler())
	}

	r.NotFound(responder.NotFound)
	r.MethodNotAllowed(responder.MethodNotAllowed)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		responder.OK(w, r, map[string]any{"status": "ok", "sessions": h.Registry.Len()})
	})

	limited := func(next http.Handler) http.Handler { return next }
	if h.Limiter != nil {
		limited = h.Limiter.Handler
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", h.login)
		r.Post("/auth/logout", h.logout)
		r.Post("/decal", h.placeDecal)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", h.createSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.getSession)
				r.Delete("/", h.deleteSession)

				r.Post("/drag", h.drag)
				r.Post("/scale", h.scale)
				r.Post("/rotate", h.rotate)
				r.Post("/crop/start", h.startCrop)
				r.Post("/crop/region", h.cropRegion)
				r.Post("/crop/apply", h.applyCrop)
				r.Post("/crop/cancel", h.cancelCrop)

				r.Group(func(r chi.Router) {
					r.Use(limited)
					r.Post("/base", h.setBase)
					r.Post("/image", h.upload)
					r.Get("/compose", h.compose)
					r.Post("/submit", h.submit)
				})
			})
		})
	})
	return r
}

func (h *Handler) record(op string, err error) {
	if h.Metrics == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = string(apperrors.FromError(err).Type)
	}
	h.Metrics.RecordOperation(op, result)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	appErr := apperrors.FromError(err)
	if appErr.Status() >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).Error("request failed",
			zap.String("type", string(appErr.Type)),
			zap.Error(err),
		)
	}
	responder.Fail(w, r, err)
}

func took(r *http.Request) responder.Option {
	return responder.WithTook(middleware.GetRequestDuration(r.Context()))
}
