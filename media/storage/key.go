package storage

import (
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	apperrors "github.com/leeforge/giftstudio/errors"
)

// SanitizeName folds name to lower-case ASCII letters, digits, dots and
// dashes. Accents are stripped ("Café" becomes "cafe"); other runs become a
// single dash.
func SanitizeName(name string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, name)
	if err != nil {
		folded = name
	}

	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.Trim(b.String(), "-.")
}

// ObjectKey builds prefix/yyyy/mm/dd/<uuid>-<name>.<ext> for an upload made
// at t.
func ObjectKey(prefix, name, ext string, t time.Time) string {
	base := uuid.NewString()
	if s := SanitizeName(name); s != "" {
		base += "-" + s
	}
	if ext = SanitizeName(ext); ext != "" {
		base += "." + ext
	}
	return path.Join(strings.Trim(prefix, "/"), t.UTC().Format("2006/01/02"), base)
}

// cleanKey rejects keys that escape the storage root.
func cleanKey(key string) (string, error) {
	k := path.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	k = strings.TrimPrefix(k, "/")
	if k == "" || k == "." {
		return "", apperrors.NewInvalid("key", key, "empty object key")
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", apperrors.NewInvalid("key", key, "object key escapes the storage root")
		}
	}
	return k, nil
}
