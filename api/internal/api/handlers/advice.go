package handlers

import (
	"net/http"

	"github.com/reacthost/console/api/internal/core/domain"
	"github.com/reacthost/console/api/internal/core/services"
)

type AdviceRequest struct {
	Query     string `json:"query" validate:"required,max=2000"`
	ProjectID string `json:"project_id,omitempty" validate:"omitempty,max=64"`
}

type AdviceResponse struct {
	Answer string `json:"answer"`
}

type AdviceHandler struct {
	Service *services.AdviceService
	Store   *services.ProjectStore
}

func NewAdviceHandler(service *services.AdviceService, store *services.ProjectStore) *AdviceHandler {
	return &AdviceHandler{Service: service, Store: store}
}

// Ask handles POST /api/v1/advice. The advisor never fails the request; an
// unreachable model is reported in the answer text.
func (h *AdviceHandler) Ask(w http.ResponseWriter, r *http.Request) {
	var req AdviceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		HandleError(w, r, err)
		return
	}

	var scope *domain.ProjectContext
	if req.ProjectID != "" {
		if p, err := h.Store.Get(req.ProjectID); err == nil {
			scope = p.Context()
		}
	}

	answer := h.Service.GetAdvice(r.Context(), req.Query, scope)
	writeJSON(w, http.StatusOK, AdviceResponse{Answer: answer})
}
