package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/models"
	"github.com/gatewarden/gatewarden/internal/services"
	pkghttp "github.com/gatewarden/gatewarden/pkg/http"
	"github.com/go-chi/chi/v5"
)

// PermissionHandler exposes a user's permission sets over HTTP.
type PermissionHandler struct {
	service *services.PermissionService
}

// NewPermissionHandler creates a new PermissionHandler
func NewPermissionHandler(service *services.PermissionService) *PermissionHandler {
	return &PermissionHandler{service: service}
}

// ObjectPermissionDTO is one grant over one object
type ObjectPermissionDTO struct {
	Type       string `json:"type"`
	Identifier string `json:"identifier"`
}

// PermissionsResponse is the complete grant state of one subject
type PermissionsResponse struct {
	System  []string                         `json:"system"`
	Objects map[string][]ObjectPermissionDTO `json:"objects"`
}

// PatchSystemPermissionsRequest adds and removes system grants in one batch
type PatchSystemPermissionsRequest struct {
	Add    []string `json:"add"`
	Remove []string `json:"remove"`
}

// PatchObjectPermissionsRequest adds and removes object grants in one batch
type PatchObjectPermissionsRequest struct {
	Add    []ObjectPermissionDTO `json:"add"`
	Remove []ObjectPermissionDTO `json:"remove"`
}

var directoryKinds = []models.ObjectKind{
	models.KindUser,
	models.KindConnection,
	models.KindConnectionGroup,
	models.KindSharingProfile,
	models.KindActiveConnection,
}

func parseKind(raw string) (models.ObjectKind, bool) {
	for _, kind := range directoryKinds {
		if raw == string(kind) {
			return kind, true
		}
	}
	return "", false
}

// GetPermissions returns every grant held by the subject. Readable by the
// subject themselves and by administrators.
func (h *PermissionHandler) GetPermissions(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)
	subject := chi.URLParam(r, "username")
	ctx := r.Context()

	systemPermissions, err := h.service.SystemPermissions(actor, subject).Permissions(ctx)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := &PermissionsResponse{
		System:  make([]string, 0, len(systemPermissions)),
		Objects: make(map[string][]ObjectPermissionDTO),
	}
	for _, permission := range systemPermissions {
		resp.System = append(resp.System, string(permission))
	}

	for _, kind := range directoryKinds {
		objectPermissions, err := h.service.ObjectPermissions(actor, subject, kind).Permissions(ctx)
		if err != nil {
			writeServiceError(w, err)
			return
		}

		grants := make([]ObjectPermissionDTO, 0, len(objectPermissions))
		for _, permission := range objectPermissions {
			grants = append(grants, ObjectPermissionDTO{
				Type:       string(permission.Type),
				Identifier: permission.Identifier,
			})
		}
		resp.Objects[string(kind)] = grants
	}

	writeJSON(w, http.StatusOK, resp)
}

// PatchSystemPermissions grants and revokes system permissions for the
// subject. Each direction is applied as one atomic batch.
func (h *PermissionHandler) PatchSystemPermissions(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)
	subject := chi.URLParam(r, "username")

	var req PatchSystemPermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	set := h.service.SystemPermissions(actor, subject)

	if len(req.Add) > 0 {
		add := make([]models.SystemPermissionType, len(req.Add))
		for i, raw := range req.Add {
			add[i] = models.SystemPermissionType(raw)
		}
		if err := set.AddPermissions(r.Context(), add...); err != nil {
			writeServiceError(w, err)
			return
		}
	}

	if len(req.Remove) > 0 {
		remove := make([]models.SystemPermissionType, len(req.Remove))
		for i, raw := range req.Remove {
			remove[i] = models.SystemPermissionType(raw)
		}
		if err := set.RemovePermissions(r.Context(), remove...); err != nil {
			writeServiceError(w, err)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// PatchObjectPermissions grants and revokes object permissions for the
// subject within one object category.
func (h *PermissionHandler) PatchObjectPermissions(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)
	subject := chi.URLParam(r, "username")

	kind, ok := parseKind(chi.URLParam(r, "kind"))
	if !ok {
		pkghttp.WriteBadRequest(w, "Unknown object kind")
		return
	}

	var req PatchObjectPermissionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	set := h.service.ObjectPermissions(actor, subject, kind)

	if len(req.Add) > 0 {
		add := make([]models.ObjectPermission, len(req.Add))
		for i, dto := range req.Add {
			add[i] = models.ObjectPermission{
				Type:       models.ObjectPermissionType(dto.Type),
				Identifier: dto.Identifier,
			}
		}
		if err := set.AddPermissions(r.Context(), add...); err != nil {
			writeServiceError(w, err)
			return
		}
	}

	if len(req.Remove) > 0 {
		remove := make([]models.ObjectPermission, len(req.Remove))
		for i, dto := range req.Remove {
			remove[i] = models.ObjectPermission{
				Type:       models.ObjectPermissionType(dto.Type),
				Identifier: dto.Identifier,
			}
		}
		if err := set.RemovePermissions(r.Context(), remove...); err != nil {
			writeServiceError(w, err)
			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}
