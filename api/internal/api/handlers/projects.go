package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/reacthost/console/api/internal/core/domain"
	"github.com/reacthost/console/api/internal/core/services"
)

// ==============================================================================
// 1. Request Payloads (Input Validation)
// ==============================================================================

type EnvVarPayload struct {
	ID    string `json:"id" validate:"omitempty,max=64"`
	Key   string `json:"key" validate:"required,max=100"`
	Value string `json:"value" validate:"max=5000"`
}

type ReplaceEnvRequest struct {
	Env []EnvVarPayload `json:"env" validate:"required,max=200,dive"`
}

type AddEnvRequest struct {
	Key   string `json:"key" validate:"required,max=100"`
	Value string `json:"value" validate:"required,max=5000"`
}

// ==============================================================================
// 2. The Handler Struct (Dependency Injection)
// ==============================================================================

type ProjectHandler struct {
	Store  *services.ProjectStore
	View   *services.ViewState
	Logger *slog.Logger
}

func NewProjectHandler(store *services.ProjectStore, view *services.ViewState, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{Store: store, View: view, Logger: logger}
}

// ==============================================================================
// 3. HTTP Methods
// ==============================================================================

// List handles GET /api/v1/projects
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects := h.Store.List()
	if masked(r) {
		for i := range projects {
			projects[i].Env = services.Mask(projects[i].Env)
		}
	}
	writeJSON(w, http.StatusOK, projects)
}

// Get handles GET /api/v1/projects/{id}
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	project, err := h.Store.Get(chi.URLParam(r, "id"))
	if err != nil {
		HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.present(r, project))
}

// Delete handles DELETE /api/v1/projects/{id}. Unknown ids still succeed.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Store.Remove(r.Context(), id); err != nil {
		HandleError(w, r, err)
		return
	}
	h.View.Forget(id)
	w.WriteHeader(http.StatusNoContent)
}

// ReplaceEnv handles PUT /api/v1/projects/{id}/env
func (h *ProjectHandler) ReplaceEnv(w http.ResponseWriter, r *http.Request) {
	var req ReplaceEnvRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		HandleError(w, r, err)
		return
	}

	vars := make([]domain.EnvVar, len(req.Env))
	for i, v := range req.Env {
		vars[i] = domain.EnvVar{ID: v.ID, Key: v.Key, Value: v.Value}
	}

	project, err := h.Store.UpdateEnv(r.Context(), chi.URLParam(r, "id"), vars)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.present(r, project))
}

// AddEnv handles POST /api/v1/projects/{id}/env
func (h *ProjectHandler) AddEnv(w http.ResponseWriter, r *http.Request) {
	var req AddEnvRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validate.Struct(req); err != nil {
		HandleError(w, r, err)
		return
	}

	v, err := h.Store.AddEnvVar(r.Context(), chi.URLParam(r, "id"), req.Key, req.Value)
	if err != nil {
		HandleError(w, r, err)
		return
	}
	if masked(r) {
		v = services.Mask([]domain.EnvVar{v})[0]
	}
	writeJSON(w, http.StatusCreated, v)
}

// DeleteEnv handles DELETE /api/v1/projects/{id}/env/{envID}
func (h *ProjectHandler) DeleteEnv(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Store.RemoveEnvVar(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "envID")); err != nil {
		HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProjectHandler) present(r *http.Request, p domain.Project) domain.Project {
	if masked(r) {
		p.Env = services.Mask(p.Env)
	}
	return p
}

func masked(r *http.Request) bool {
	v, _ := strconv.ParseBool(r.URL.Query().Get("masked"))
	return v
}
