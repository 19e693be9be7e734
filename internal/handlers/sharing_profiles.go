package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/models"
	"github.com/gatewarden/gatewarden/internal/services"
	pkghttp "github.com/gatewarden/gatewarden/pkg/http"
	"github.com/go-chi/chi/v5"
)

// SharingProfileHandler handles sharing profile directory HTTP requests
type SharingProfileHandler struct {
	directory *services.Directory[*models.SharingProfile]
}

// NewSharingProfileHandler creates a new SharingProfileHandler
func NewSharingProfileHandler(directory *services.Directory[*models.SharingProfile]) *SharingProfileHandler {
	return &SharingProfileHandler{directory: directory}
}

// SharingProfileRequest represents the request body for creating or updating
// a sharing profile
type SharingProfileRequest struct {
	Name                string `json:"name" validate:"required,min=1,max=128"`
	PrimaryConnectionID string `json:"primary_connection_id" validate:"required"`
}

// SharingProfileResponse represents a sharing profile in the HTTP response
type SharingProfileResponse struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	PrimaryConnectionID string `json:"primary_connection_id"`
	CreatedAt           string `json:"created_at"`
	UpdatedAt           string `json:"updated_at"`
}

func sharingProfileModelToResponse(profile *models.SharingProfile) *SharingProfileResponse {
	return &SharingProfileResponse{
		ID:                  profile.ID,
		Name:                profile.Name,
		PrimaryConnectionID: profile.PrimaryConnectionID,
		CreatedAt:           profile.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           profile.UpdatedAt.Format(time.RFC3339),
	}
}

// ListSharingProfiles lists the profile identifiers visible to the caller.
func (h *SharingProfileHandler) ListSharingProfiles(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)

	identifiers, err := h.directory.Identifiers(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &ListIdentifiersResponse{Identifiers: identifiers, Total: len(identifiers)})
}

// GetSharingProfile retrieves one profile visible to the caller.
func (h *SharingProfileHandler) GetSharingProfile(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)
	id := chi.URLParam(r, "id")

	profile, err := h.directory.Get(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sharingProfileModelToResponse(profile))
}

// CreateSharingProfile creates a new sharing profile.
func (h *SharingProfileHandler) CreateSharingProfile(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)

	var req SharingProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	profile := &models.SharingProfile{
		Name:                req.Name,
		PrimaryConnectionID: req.PrimaryConnectionID,
	}

	created, err := h.directory.Add(r.Context(), actor, profile)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, sharingProfileModelToResponse(created))
}

// UpdateSharingProfile modifies an existing sharing profile.
func (h *SharingProfileHandler) UpdateSharingProfile(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)
	id := chi.URLParam(r, "id")

	var req SharingProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	profile := &models.SharingProfile{
		ID:                  id,
		Name:                req.Name,
		PrimaryConnectionID: req.PrimaryConnectionID,
	}

	updated, err := h.directory.Update(r.Context(), actor, profile)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, sharingProfileModelToResponse(updated))
}

// DeleteSharingProfile removes a sharing profile.
func (h *SharingProfileHandler) DeleteSharingProfile(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)
	id := chi.URLParam(r, "id")

	if err := h.directory.Remove(r.Context(), actor, id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
