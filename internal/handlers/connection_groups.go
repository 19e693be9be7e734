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

// ConnectionGroupHandler handles connection group directory HTTP requests
type ConnectionGroupHandler struct {
	directory *services.Directory[*models.ConnectionGroup]
}

// NewConnectionGroupHandler creates a new ConnectionGroupHandler
func NewConnectionGroupHandler(directory *services.Directory[*models.ConnectionGroup]) *ConnectionGroupHandler {
	return &ConnectionGroupHandler{directory: directory}
}

// ConnectionGroupRequest represents the request body for creating or updating
// a connection group
type ConnectionGroupRequest struct {
	Name                  string  `json:"name" validate:"required,min=1,max=128"`
	Type                  string  `json:"type" validate:"omitempty,oneof=ORGANIZATIONAL BALANCING"`
	ParentGroupID         *string `json:"parent_group_id"`
	MaxConnections        *int    `json:"max_connections" validate:"omitempty,gte=0"`
	MaxConnectionsPerUser *int    `json:"max_connections_per_user" validate:"omitempty,gte=0"`
}

// ConnectionGroupResponse represents a connection group in the HTTP response
type ConnectionGroupResponse struct {
	ID                    string  `json:"id"`
	Name                  string  `json:"name"`
	Type                  string  `json:"type"`
	ParentGroupID         *string `json:"parent_group_id,omitempty"`
	MaxConnections        *int    `json:"max_connections,omitempty"`
	MaxConnectionsPerUser *int    `json:"max_connections_per_user,omitempty"`
	CreatedAt             string  `json:"created_at"`
	UpdatedAt             string  `json:"updated_at"`
}

func connectionGroupModelToResponse(group *models.ConnectionGroup) *ConnectionGroupResponse {
	return &ConnectionGroupResponse{
		ID:                    group.ID,
		Name:                  group.Name,
		Type:                  string(group.Type),
		ParentGroupID:         group.ParentGroupID,
		MaxConnections:        group.MaxConnections,
		MaxConnectionsPerUser: group.MaxConnectionsPerUser,
		CreatedAt:             group.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             group.UpdatedAt.Format(time.RFC3339),
	}
}

// ListConnectionGroups lists the group identifiers visible to the caller.
func (h *ConnectionGroupHandler) ListConnectionGroups(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)

	identifiers, err := h.directory.Identifiers(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &ListIdentifiersResponse{Identifiers: identifiers, Total: len(identifiers)})
}

// GetConnectionGroup retrieves one group visible to the caller.
func (h *ConnectionGroupHandler) GetConnectionGroup(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)
	id := chi.URLParam(r, "id")

	group, err := h.directory.Get(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, connectionGroupModelToResponse(group))
}

// CreateConnectionGroup creates a new connection group.
func (h *ConnectionGroupHandler) CreateConnectionGroup(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)

	var req ConnectionGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	group := &models.ConnectionGroup{
		Name:                  req.Name,
		Type:                  models.ConnectionGroupType(req.Type),
		ParentGroupID:         req.ParentGroupID,
		MaxConnections:        req.MaxConnections,
		MaxConnectionsPerUser: req.MaxConnectionsPerUser,
	}

	created, err := h.directory.Add(r.Context(), actor, group)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, connectionGroupModelToResponse(created))
}

// UpdateConnectionGroup modifies an existing connection group.
func (h *ConnectionGroupHandler) UpdateConnectionGroup(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)
	id := chi.URLParam(r, "id")

	var req ConnectionGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	group := &models.ConnectionGroup{
		ID:                    id,
		Name:                  req.Name,
		Type:                  models.ConnectionGroupType(req.Type),
		ParentGroupID:         req.ParentGroupID,
		MaxConnections:        req.MaxConnections,
		MaxConnectionsPerUser: req.MaxConnectionsPerUser,
	}

	updated, err := h.directory.Update(r.Context(), actor, group)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, connectionGroupModelToResponse(updated))
}

// DeleteConnectionGroup removes a connection group.
func (h *ConnectionGroupHandler) DeleteConnectionGroup(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)
	id := chi.URLParam(r, "id")

	if err := h.directory.Remove(r.Context(), actor, id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
