// Package responder writes the {data,error,meta} JSON envelope.
package responder

import (
	"net/http"

	apperrors "github.com/leeforge/giftstudio/errors"
	"github.com/leeforge/giftstudio/json"
	"github.com/leeforge/giftstudio/logging"
)

// writeJSON is the internal helper for all global functions
func writeJSON(w http.ResponseWriter, status int, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		fallback := []byte("{\"error\":{\"code\":5000,\"message\":\"encode failed\"}}")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(fallback)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(raw)
}

// meta fills the trace id from the request context unless an option sets it.
func meta(r *http.Request, opts []Option) Meta {
	m := NewMeta(opts...)
	if m.TraceId == "" && r != nil {
		m.TraceId = logging.GetTraceID(r.Context())
	}
	return *m
}

// Write sends a success response with data
func Write(w http.ResponseWriter, r *http.Request, status int, data any, opts ...Option) {
	writeJSON(w, status, &Response{
		Data: data,
		Meta: meta(r, opts),
	})
}

// WriteError sends an error response
func WriteError(w http.ResponseWriter, r *http.Request, status int, err Error, opts ...Option) {
	writeJSON(w, status, &Response{
		Error: &err,
		Meta:  meta(r, opts),
	})
}

// OK responds with 200 OK and data
func OK(w http.ResponseWriter, r *http.Request, data any, opts ...Option) {
	Write(w, r, http.StatusOK, data, opts...)
}

// Created responds with 201 Created and data
func Created(w http.ResponseWriter, r *http.Request, data any, opts ...Option) {
	Write(w, r, http.StatusCreated, data, opts...)
}

// NoContent responds with 204 No Content
func NoContent(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// Blob writes a binary body such as an encoded bitmap.
func Blob(w http.ResponseWriter, status int, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// Fail translates err into an error envelope. AppErrors keep their status,
// type, message and details; internal failures hide their message.
func Fail(w http.ResponseWriter, r *http.Request, err error, opts ...Option) {
	appErr := apperrors.FromError(err)
	status := appErr.Status()

	body := Error{
		Code:    CodeFor(appErr.Type),
		Type:    string(appErr.Type),
		Message: appErr.Message,
	}
	if len(appErr.Details) > 0 {
		body.Details = appErr.Details
	}
	if status >= http.StatusInternalServerError &&
		(appErr.Type == apperrors.ErrorTypeInternal || appErr.Type == apperrors.ErrorTypeUnknown) {
		body.Message = GetErrorMessage(body.Code)
		body.Details = nil
	}
	if body.Message == "" {
		body.Message = GetErrorMessage(body.Code)
	}

	WriteError(w, r, status, body, opts...)
}

// NotFound responds with 404 for unmatched routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusNotFound, NewError(ErrCodeRouteNotFound, ""))
}

// MethodNotAllowed responds with 405.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteError(w, r, http.StatusMethodNotAllowed, NewError(ErrCodeBadRequest, "Method Not Allowed"))
}

// TooManyRequests responds with 429 Too Many Requests
func TooManyRequests(w http.ResponseWriter, r *http.Request, message string) {
	WriteError(w, r, http.StatusTooManyRequests, NewError(ErrCodeTooManyRequests, message))
}
