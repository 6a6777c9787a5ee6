// Package binding decodes request bodies into structs and validates them.
package binding

import (
	"io"
	"net/http"

	apperrors "github.com/leeforge/giftstudio/errors"
)

// MaxJSONBody caps JSON request bodies. Image payloads travel as multipart.
const MaxJSONBody = 1 << 20

// JSON decodes the request body into v and validates it. Every failure is
// a validation AppError.
func JSON(r *http.Request, v any, opts ...Option) error {
	if r == nil || r.Body == nil || r.Body == http.NoBody {
		return apperrors.NewValidation("request body is empty")
	}
	defer r.Body.Close()

	if err := decodeJson(io.LimitReader(r.Body, MaxJSONBody), v, opts...); err != nil {
		if err == io.EOF {
			return apperrors.NewValidation("request body is empty")
		}
		return apperrors.NewValidation("failed to unmarshal JSON: " + err.Error()).WithInnerError(err)
	}

	return Validate(v)
}

// MultipartFile parses a multipart form and returns the named file's bytes.
func MultipartFile(r *http.Request, field string, maxBytes int64) ([]byte, string, error) {
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		return nil, "", apperrors.NewValidation("invalid multipart form").WithInnerError(err)
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", apperrors.NewRequired(field)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, "", apperrors.NewValidation("failed to read upload").WithInnerError(err)
	}
	if int64(len(data)) > maxBytes {
		return nil, "", apperrors.NewInvalid(field, header.Size, "file too large").
			WithHTTPStatus(http.StatusRequestEntityTooLarge)
	}
	return data, header.Filename, nil
}
