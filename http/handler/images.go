package handler

import (
	"context"
	"image"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/leeforge/giftstudio/editor"
	apperrors "github.com/leeforge/giftstudio/errors"
	"github.com/leeforge/giftstudio/http/binding"
	"github.com/leeforge/giftstudio/http/responder"
	"github.com/leeforge/giftstudio/logging"
	"github.com/leeforge/giftstudio/media/processor"
)

type imageURLRequest struct {
	URL string `json:"url" validate:"required"`
}

// loadSource reads an image from a multipart "file" field or from a JSON
// {"url": ...} body. Decoding happens before the session is locked. Local
// uploads are never tainted; remote images are checked against the origin
// policy.
func (h *Handler) loadSource(r *http.Request) (*editor.Source, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	maxBytes := h.Processor.MaxBytes()

	if strings.HasPrefix(mediaType, "multipart/") {
		data, name, err := binding.MultipartFile(r, "file", maxBytes)
		if err != nil {
			return nil, err
		}
		img, err := h.Processor.Load(r.Context(), data)
		if err != nil {
			return nil, err
		}
		logging.FromContext(r.Context()).Debug("image uploaded",
			zap.String("name", name), zap.Int("bytes", len(data)))
		return &editor.Source{Image: img}, nil
	}

	var req imageURLRequest
	if err := binding.JSON(r, &req); err != nil {
		return nil, err
	}
	if h.Catalog == nil {
		return nil, apperrors.NewNotReady("remote images are not available")
	}
	remote, err := h.fetchRemote(r.Context(), req.URL)
	if err != nil {
		return nil, err
	}
	src := h.Origins.Mark(&editor.Source{Image: remote.Image}, remote.URL)
	if src.Tainted {
		logging.FromContext(r.Context()).Info("remote image tainted",
			zap.String("origin", src.Origin))
	}
	return src, nil
}

// RemoteImage is a decoded remote photo and the URL it was finally served
// from. Cached images are shared between sessions and must not be modified.
type RemoteImage struct {
	Image *image.NRGBA
	URL   string
}

func (h *Handler) fetchRemote(ctx context.Context, rawURL string) (RemoteImage, error) {
	load := func(ctx context.Context) (RemoteImage, error) {
		fetched, err := h.Catalog.FetchImage(ctx, rawURL, h.Processor.MaxBytes(), h.Origins)
		if err != nil {
			return RemoteImage{}, err
		}
		img, err := h.Processor.Load(ctx, fetched.Data)
		if err != nil {
			return RemoteImage{}, err
		}
		return RemoteImage{Image: img, URL: fetched.URL}, nil
	}
	if h.ImageCache == nil {
		return load(ctx)
	}
	return h.ImageCache.GetOrLoad(ctx, rawURL, load)
}

func (h *Handler) setBase(w http.ResponseWriter, r *http.Request) {
	src, err := h.loadSource(r)
	if err != nil {
		h.record("base", err)
		h.fail(w, r, err)
		return
	}
	h.mutate(w, r, "base", func(it *editor.Interaction) error {
		return it.SetBase(src)
	})
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	src, err := h.loadSource(r)
	if err != nil {
		h.record("upload", err)
		h.fail(w, r, err)
		return
	}
	h.mutate(w, r, "upload", func(it *editor.Interaction) error {
		return it.Upload(src)
	})
}

// compose responds with the flattened bitmap. ?format= overrides the
// configured output format.
func (h *Handler) compose(w http.ResponseWriter, r *http.Request) {
	img, _, err := h.composeSession(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	data, format, err := h.Processor.OutputAs(img, r.URL.Query().Get("format"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	responder.Blob(w, http.StatusOK, processor.ContentType(format), data)
}

// composeSession flattens the session under its lock and returns the bitmap
// with the state it was composed from.
func (h *Handler) composeSession(r *http.Request) (*image.NRGBA, editor.State, error) {
	var (
		img   *image.NRGBA
		state editor.State
	)
	start := time.Now()
	err := h.Registry.Do(chi.URLParam(r, "id"), func(it *editor.Interaction) error {
		var err error
		if img, err = it.Compose(); err != nil {
			return err
		}
		state = it.State()
		return nil
	})
	h.record("compose", err)
	if err != nil {
		return nil, state, err
	}
	if h.Metrics != nil {
		h.Metrics.ObserveCompose(time.Since(start))
	}
	return img, state, nil
}
