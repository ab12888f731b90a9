package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/amarinov1974/cmms-system-sub000/models"
)

func decodeJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	OK        bool   `json:"ok"`
	ErrorKind string `json:"error_kind"`
	Message   string `json:"message"`
}

// writeDomainError maps the domain error kinds to HTTP status codes:
// NotFound → 404, TransitionDenied → 403, Validation → 400, Conflict → 409.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{ErrorKind: "NotFound", Message: err.Error()})
	case errors.Is(err, models.ErrTransitionDenied):
		writeJSON(w, http.StatusForbidden, errorResponse{ErrorKind: "TransitionDenied", Message: models.ErrTransitionDenied.Error()})
	case errors.Is(err, models.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{ErrorKind: "ValidationError", Message: err.Error()})
	case errors.Is(err, models.ErrConflict):
		writeJSON(w, http.StatusConflict, errorResponse{ErrorKind: "ConflictError", Message: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{ErrorKind: "Internal", Message: "internal error"})
	}
}
