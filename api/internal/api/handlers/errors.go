package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/reacthost/console/api/internal/core/domain"
)

// Use a single instance of Validate, it caches struct info
var validate = validator.New(validator.WithRequiredStructEnabled())

type errorResponse struct {
	Message string       `json:"message"`
	Fields  []fieldError `json:"fields,omitempty"`
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// HandleError maps domain and validation errors onto HTTP responses. Anything
// unrecognised is logged and reported as a generic 500.
func HandleError(w http.ResponseWriter, r *http.Request, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		fields := make([]fieldError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fieldError{Field: fe.Field(), Rule: fe.Tag()})
		}
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Message: "Validation failed", Fields: fields})

	case errors.Is(err, domain.ErrProjectNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: err.Error()})

	case errors.Is(err, domain.ErrEnvVarInvalid):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Message: err.Error()})

	case errors.Is(err, domain.ErrInvalidPhase),
		errors.Is(err, domain.ErrNameRequired),
		errors.Is(err, domain.ErrProvisioningInFlight):
		writeJSON(w, http.StatusConflict, errorResponse{Message: err.Error()})

	default:
		slog.Error("Unhandled request error",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("path", r.URL.Path),
			slog.Any("error", err),
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "Internal server error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeJSON rejects unknown fields and trailing garbage.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid JSON payload"})
		return false
	}
	if dec.More() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid JSON payload"})
		return false
	}
	return true
}
