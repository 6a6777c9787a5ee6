package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leeforge/giftstudio/editor"
	apperrors "github.com/leeforge/giftstudio/errors"
	"github.com/leeforge/giftstudio/geom"
	"github.com/leeforge/giftstudio/http/binding"
	"github.com/leeforge/giftstudio/http/responder"
	"github.com/leeforge/giftstudio/logging"
)

type createSessionRequest struct {
	// Boundary overrides the configured printable area.
	Boundary *geom.Rect `json:"boundary"`
}

type sessionResponse struct {
	ID    string       `json:"id"`
	State editor.State `json:"state"`
}

type dragRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type handleRequest struct {
	Handle editor.Handle `json:"handle" validate:"required"`
	X      float64       `json:"x"`
	Y      float64       `json:"y"`
}

func (req handleRequest) check() error {
	if !req.Handle.Valid() {
		return apperrors.NewInvalid("handle", req.Handle, "unknown handle")
	}
	return nil
}

type rotateRequest struct {
	Degrees float64 `json:"degrees"`
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := binding.JSON(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	if b := req.Boundary; b != nil && (b.Width <= 0 || b.Height <= 0) {
		h.fail(w, r, apperrors.NewInvalid("boundary", *b, "width and height must be positive"))
		return
	}

	id, state, err := h.Registry.Create(req.Boundary)
	if err != nil {
		h.record("create", err)
		h.fail(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("session created")
	h.record("create", nil)
	responder.Created(w, r, sessionResponse{ID: id, State: state}, took(r))
}

func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "", func(*editor.Interaction) error { return nil })
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	h.Registry.Delete(chi.URLParam(r, "id"))
	h.record("delete", nil)
	responder.NoContent(w, r)
}

func (h *Handler) drag(w http.ResponseWriter, r *http.Request) {
	var req dragRequest
	if err := binding.JSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	h.mutate(w, r, "drag", func(it *editor.Interaction) error {
		return it.SetPlacement(geom.Point{X: req.DX, Y: req.DY})
	})
}

func (h *Handler) scale(w http.ResponseWriter, r *http.Request) {
	var req handleRequest
	if err := bindHandle(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	h.mutate(w, r, "scale", func(it *editor.Interaction) error {
		return it.SetScaleFromHandle(req.Handle, geom.Point{X: req.X, Y: req.Y})
	})
}

func (h *Handler) rotate(w http.ResponseWriter, r *http.Request) {
	var req rotateRequest
	if err := binding.JSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	h.mutate(w, r, "rotate", func(it *editor.Interaction) error {
		return it.SetRotation(req.Degrees)
	})
}

func (h *Handler) startCrop(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "crop_start", func(it *editor.Interaction) error {
		return it.StartCrop()
	})
}

func (h *Handler) cropRegion(w http.ResponseWriter, r *http.Request) {
	var req handleRequest
	if err := bindHandle(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	h.mutate(w, r, "crop_region", func(it *editor.Interaction) error {
		return it.SetCropRegion(req.Handle, geom.Point{X: req.X, Y: req.Y})
	})
}

func (h *Handler) applyCrop(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "crop_apply", func(it *editor.Interaction) error {
		return it.ApplyCrop()
	})
}

func (h *Handler) cancelCrop(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, "crop_cancel", func(it *editor.Interaction) error {
		it.CancelCrop()
		return nil
	})
}

// mutate runs fn on the session named by the {id} parameter and responds
// with the resulting state. An empty op is a read and is not counted.
func (h *Handler) mutate(w http.ResponseWriter, r *http.Request, op string, fn func(*editor.Interaction) error) {
	id := chi.URLParam(r, "id")
	var state editor.State
	err := h.Registry.Do(id, func(it *editor.Interaction) error {
		if err := fn(it); err != nil {
			return err
		}
		state = it.State()
		return nil
	})
	if op != "" {
		h.record(op, err)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}
	responder.OK(w, r, sessionResponse{ID: id, State: state}, took(r))
}

func bindHandle(r *http.Request, req *handleRequest) error {
	if err := binding.JSON(r, req); err != nil {
		return err
	}
	return req.check()
}
