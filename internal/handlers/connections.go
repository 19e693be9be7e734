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

// ConnectionHandler handles connection directory HTTP requests
type ConnectionHandler struct {
	directory *services.Directory[*models.Connection]
}

// NewConnectionHandler creates a new ConnectionHandler
func NewConnectionHandler(directory *services.Directory[*models.Connection]) *ConnectionHandler {
	return &ConnectionHandler{directory: directory}
}

// ConnectionRequest represents the request body for creating or updating a
// connection
type ConnectionRequest struct {
	Name                  string  `json:"name" validate:"required,min=1,max=128"`
	Protocol              string  `json:"protocol" validate:"required,min=1,max=32"`
	ParentGroupID         *string `json:"parent_group_id"`
	MaxConnections        *int    `json:"max_connections" validate:"omitempty,gte=0"`
	MaxConnectionsPerUser *int    `json:"max_connections_per_user" validate:"omitempty,gte=0"`
}

// ConnectionResponse represents a connection in the HTTP response
type ConnectionResponse struct {
	ID                    string  `json:"id"`
	Name                  string  `json:"name"`
	Protocol              string  `json:"protocol"`
	ParentGroupID         *string `json:"parent_group_id,omitempty"`
	MaxConnections        *int    `json:"max_connections,omitempty"`
	MaxConnectionsPerUser *int    `json:"max_connections_per_user,omitempty"`
	CreatedAt             string  `json:"created_at"`
	UpdatedAt             string  `json:"updated_at"`
}

// ListIdentifiersResponse lists the identifiers visible to the caller
type ListIdentifiersResponse struct {
	Identifiers []string `json:"identifiers"`
	Total       int      `json:"total"`
}

func connectionModelToResponse(connection *models.Connection) *ConnectionResponse {
	return &ConnectionResponse{
		ID:                    connection.ID,
		Name:                  connection.Name,
		Protocol:              connection.Protocol,
		ParentGroupID:         connection.ParentGroupID,
		MaxConnections:        connection.MaxConnections,
		MaxConnectionsPerUser: connection.MaxConnectionsPerUser,
		CreatedAt:             connection.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             connection.UpdatedAt.Format(time.RFC3339),
	}
}

// ListConnections lists the connection identifiers visible to the caller.
func (h *ConnectionHandler) ListConnections(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)

	identifiers, err := h.directory.Identifiers(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &ListIdentifiersResponse{Identifiers: identifiers, Total: len(identifiers)})
}

// GetConnection retrieves one connection visible to the caller.
func (h *ConnectionHandler) GetConnection(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)
	id := chi.URLParam(r, "id")

	connection, err := h.directory.Get(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, connectionModelToResponse(connection))
}

// CreateConnection creates a new connection.
func (h *ConnectionHandler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)

	var req ConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	connection := &models.Connection{
		Name:                  req.Name,
		Protocol:              req.Protocol,
		ParentGroupID:         req.ParentGroupID,
		MaxConnections:        req.MaxConnections,
		MaxConnectionsPerUser: req.MaxConnectionsPerUser,
	}

	created, err := h.directory.Add(r.Context(), actor, connection)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, connectionModelToResponse(created))
}

// UpdateConnection modifies an existing connection.
func (h *ConnectionHandler) UpdateConnection(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)
	id := chi.URLParam(r, "id")

	var req ConnectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	connection := &models.Connection{
		ID:                    id,
		Name:                  req.Name,
		Protocol:              req.Protocol,
		ParentGroupID:         req.ParentGroupID,
		MaxConnections:        req.MaxConnections,
		MaxConnectionsPerUser: req.MaxConnectionsPerUser,
	}

	updated, err := h.directory.Update(r.Context(), actor, connection)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, connectionModelToResponse(updated))
}

// DeleteConnection removes a connection.
func (h *ConnectionHandler) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)
	id := chi.URLParam(r, "id")

	if err := h.directory.Remove(r.Context(), actor, id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
