package handler

import (
	"bytes"
	"context"
	"image"
	"math"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/leeforge/giftstudio/catalog"
	"github.com/leeforge/giftstudio/editor"
	apperrors "github.com/leeforge/giftstudio/errors"
	"github.com/leeforge/giftstudio/geom"
	"github.com/leeforge/giftstudio/http/binding"
	"github.com/leeforge/giftstudio/http/responder"
	"github.com/leeforge/giftstudio/logging"
	"github.com/leeforge/giftstudio/media/processor"
	"github.com/leeforge/giftstudio/media/storage"
)

type submitRequest struct {
	ProductID int `json:"productId" validate:"required,gt=0"`
	VariantID int `json:"variantId" validate:"gte=0"`
	Quantity  int `json:"quantity" validate:"omitempty,gte=1,lte=100"`
}

type submitResponse struct {
	Item *catalog.CartItem `json:"item"`
	URL  string            `json:"url"`
}

// submit flattens the design, stores the printable area and adds the product
// to the caller's cart with a thumbnail of the whole canvas. The session is closed only when the cart accepted
// the item; on failure the stored file is removed and the user may retry.
func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := binding.JSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	client, err := h.userClient(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if h.Storage == nil {
		h.fail(w, r, apperrors.NewNotReady("storage is not configured"))
		return
	}

	img, state, err := h.composeSession(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	// 打印文件：按边界裁剪的原尺寸图；预览：整张画布的缩略图
	data, format, err := h.Processor.Output(printArea(img, state.Boundary))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	preview := processor.CartPreview
	previewData, err := processor.EncodeBytes(processor.Thumbnail(img, preview), preview.Format, preview.Quality)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	id := chi.URLParam(r, "id")
	ctx := r.Context()
	log := logging.FromContext(ctx).With(zap.String("session", id))
	contentType := processor.ContentType(format)

	key := storage.ObjectKey(h.StoragePrefix, "design-"+id, format, h.now())
	url, err := h.Storage.Upload(ctx, key, bytes.NewReader(data), contentType)
	if err == nil && h.SignedURLTTL > 0 {
		url, err = h.Storage.SignedURL(ctx, key, h.SignedURLTTL)
		if err != nil {
			_ = h.Storage.Delete(context.WithoutCancel(ctx), key)
		}
	}
	if err != nil {
		h.record("submit", err)
		h.fail(w, r, apperrors.WrapWithType(err, apperrors.ErrorTypeExternal, "store design"))
		return
	}

	placement := state.Placement
	cartReq := catalog.AddToCartRequest{
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
		Placement: &placement,
		Preview: &catalog.File{
			Name:        "preview.jpg",
			ContentType: processor.ContentType(preview.Format),
			Data:        previewData,
		},
	}
	if _, ok := editor.Origin(url); ok {
		cartReq.PrintURL = url
	}

	item, err := client.AddToCart(ctx, cartReq)
	h.record("submit", err)
	if err != nil {
		// detach from the request so a cancelled client still cleans up
		if derr := h.Storage.Delete(context.WithoutCancel(ctx), key); derr != nil {
			log.Warn("remove orphaned design", zap.String("key", key), zap.Error(derr))
		}
		h.fail(w, r, err)
		return
	}

	h.Registry.Delete(id)
	log.Info("design submitted",
		zap.Int("product", req.ProductID),
		zap.Int("item", item.ID),
		zap.String("key", key),
	)
	responder.Created(w, r, submitResponse{Item: item, URL: url}, took(r))
}

// printArea crops the composed canvas to the printable boundary, if any.
func printArea(img *image.NRGBA, boundary *geom.Rect) image.Image {
	if boundary == nil {
		return img
	}
	rect := image.Rect(
		int(math.Round(boundary.X)),
		int(math.Round(boundary.Y)),
		int(math.Round(boundary.X+boundary.Width)),
		int(math.Round(boundary.Y+boundary.Height)),
	).Intersect(img.Bounds())
	if rect.Empty() {
		return img
	}
	return processor.Crop(img, rect)
}
