package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gatewarden/gatewarden/internal/models"
	pkghttp "github.com/gatewarden/gatewarden/pkg/http"
)

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// writeServiceError maps the service-layer sentinel errors onto HTTP
// responses. Everything unrecognized is reported as an internal error without
// detail.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Not found")
	case errors.Is(err, models.ErrPermissionDenied):
		pkghttp.WritePermissionDenied(w)
	case errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, "Already exists")
	case errors.Is(err, models.ErrBadRequest):
		pkghttp.WriteBadRequest(w, "Invalid request")
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Unauthorized")
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}
