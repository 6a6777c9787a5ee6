package handler

import (
	"net/http"

	"github.com/leeforge/giftstudio/decal"
	apperrors "github.com/leeforge/giftstudio/errors"
	"github.com/leeforge/giftstudio/http/binding"
	"github.com/leeforge/giftstudio/http/responder"
)

// decalRequest describes the mesh either directly or by its bounding box.
type decalRequest struct {
	Mesh        *decal.MeshInfo `json:"mesh"`
	Bounds      *decal.Box3     `json:"bounds"`
	ImageWidth  int             `json:"imageWidth" validate:"required,gt=0"`
	ImageHeight int             `json:"imageHeight" validate:"required,gt=0"`
}

type decalResponse struct {
	Mesh      decal.MeshInfo  `json:"mesh"`
	Placement decal.Placement `json:"placement"`
	Scale     [2]float64      `json:"scale"`
}

func (h *Handler) placeDecal(w http.ResponseWriter, r *http.Request) {
	var req decalRequest
	if err := binding.JSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	var mesh decal.MeshInfo
	switch {
	case req.Mesh != nil:
		mesh = *req.Mesh
	case req.Bounds != nil:
		mesh = decal.MeshInfoFromBounds(*req.Bounds)
	default:
		h.fail(w, r, apperrors.NewRequired("mesh or bounds"))
		return
	}

	p, err := decal.Place(mesh, req.ImageWidth, req.ImageHeight)
	h.record("decal", err)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	responder.OK(w, r, decalResponse{Mesh: mesh, Placement: p, Scale: p.Scale()}, took(r))
}
