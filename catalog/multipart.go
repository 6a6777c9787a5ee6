package catalog

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"sort"

	apperrors "github.com/leeforge/giftstudio/errors"
	"github.com/leeforge/giftstudio/json"
)

// multipartBody encodes fields plus an optional file part. Scalar fields are
// written as text, anything else as JSON.
func multipartBody(fields map[string]any, fileField string, f *File) (*body, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v, err := formValue(fields[k])
		if err != nil {
			return nil, apperrors.NewInternal("encode form field").WithDetail("field", k).WithInnerError(err)
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, apperrors.NewInternal("encode form field").WithInnerError(err)
		}
	}

	if !f.empty() {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, fileField, f.Name))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h.Set("Content-Type", contentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, apperrors.NewInternal("encode file part").WithInnerError(err)
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, apperrors.NewInternal("encode file part").WithInnerError(err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, apperrors.NewInternal("encode multipart body").WithInnerError(err)
	}
	return &body{data: buf.Bytes(), contentType: w.FormDataContentType()}, nil
}

func formValue(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case bool, int, int64, float64, float32, uint, uint64:
		return fmt.Sprint(t), nil
	default:
		data, err := json.Marshal(t)
		return string(data), err
	}
}

// requestBody picks multipart when a file is attached and JSON otherwise.
func requestBody(fields map[string]any, fileField string, f *File) (*body, error) {
	if f.empty() {
		return jsonBody(fields)
	}
	return multipartBody(fields, fileField, f)
}
