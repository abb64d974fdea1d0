package handlers

import (
	"net/http"

	"github.com/reacthost/console/api/internal/core/services"
)

type ViewHandler struct {
	View *services.ViewState
}

func NewViewHandler(view *services.ViewState) *ViewHandler {
	return &ViewHandler{View: view}
}

// Get handles GET /api/v1/view
func (h *ViewHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.View.Snapshot())
}

// Update handles PUT /api/v1/view. Omitted fields are left unchanged.
func (h *ViewHandler) Update(w http.ResponseWriter, r *http.Request) {
	var patch services.ViewPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	view, err := h.View.Apply(patch)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
