package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestFromErrorFindsWrappedAppError(t *testing.T) {
	inner := NewForbidden("admin role required")
	wrapped := fmt.Errorf("update frame: %w", inner)

	got := FromError(wrapped)
	if got != inner {
		t.Fatalf("FromError returned %+v, want the wrapped AppError", got)
	}
	if got.Status() != http.StatusForbidden {
		t.Errorf("Status() = %d, want 403", got.Status())
	}
}

func TestFromErrorPlainError(t *testing.T) {
	got := FromError(stderrors.New("boom"))
	if got.Type != ErrorTypeUnknown {
		t.Errorf("Type = %q, want unknown", got.Type)
	}
	if got.Status() != http.StatusInternalServerError {
		t.Errorf("Status() = %d, want 500", got.Status())
	}
	if FromError(nil) != nil {
		t.Error("FromError(nil) should be nil")
	}
}

func TestIsMatchesByType(t *testing.T) {
	err := fmt.Errorf("compose: %w", NewPixelAccess("https://cdn.example.net"))
	if !stderrors.Is(err, New(ErrorTypePixelAccess, "")) {
		t.Error("errors.Is should match on type")
	}
	if stderrors.Is(err, New(ErrorTypeNotReady, "")) {
		t.Error("errors.Is matched a different type")
	}
	if !IsType(err, ErrorTypePixelAccess) {
		t.Error("IsType should match")
	}
}

func TestConstructorsStatus(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{NewValidation("bad"), http.StatusBadRequest},
		{NewRequired("quantity"), http.StatusBadRequest},
		{NewInvalid("rotation", 400, "out of range"), http.StatusBadRequest},
		{NewNotFound("session", "abc"), http.StatusNotFound},
		{NewUnauthorized("login"), http.StatusUnauthorized},
		{NewPixelAccess("x"), http.StatusUnprocessableEntity},
		{NewNotReady("no base image"), http.StatusConflict},
		{NewExternal("upstream"), http.StatusBadGateway},
		{New(ErrorTypeInternal, "no status"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := tt.err.Status(); got != tt.want {
			t.Errorf("%s: Status() = %d, want %d", tt.err.Type, got, tt.want)
		}
	}
}

func TestFormatter(t *testing.T) {
	err := NewRequired("title").WithInnerError(stderrors.New("empty form"))
	out := NewErrorFormatter(false, true).Format(err)
	for _, want := range []string{"[required] title is required", "field=title", "caused_by: empty form"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() = %q, missing %q", out, want)
		}
	}
}

func TestErrorRecover(t *testing.T) {
	err := func() (err error) {
		defer func() { err = ErrorRecover(recover()) }()
		panic("nil image")
	}()
	if !IsType(err, ErrorTypeInternal) {
		t.Fatalf("recovered error = %v", err)
	}
	if len(FromError(err).Stack) == 0 {
		t.Error("expected a captured stack")
	}
}
