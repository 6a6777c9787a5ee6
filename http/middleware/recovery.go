package middleware

import (
	"net/http"

	"go.uber.org/zap"

	apperrors "github.com/leeforge/giftstudio/errors"
	"github.com/leeforge/giftstudio/http/responder"
	"github.com/leeforge/giftstudio/logging"
)

// RecoveryMiddleware turns a handler panic into a 500 envelope and logs it
// with its stack.
func RecoveryMiddleware(logger logging.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				err := apperrors.ErrorRecover(rec)
				appErr := apperrors.FromError(err)
				logging.WithContext(logger, r.Context()).Error("panic recovered",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Error(appErr.InnerError),
					zap.Strings("stack", appErr.Stack),
				)
				responder.Fail(w, r, err)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
