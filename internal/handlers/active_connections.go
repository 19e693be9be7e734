package handlers

import (
	"net/http"
	"time"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/models"
	"github.com/gatewarden/gatewarden/internal/services"
	"github.com/go-chi/chi/v5"
)

// ActiveConnectionHandler exposes in-progress sessions. Sessions can be
// observed and terminated, never created or edited through this surface.
type ActiveConnectionHandler struct {
	directory *services.Directory[*models.ActiveConnection]
}

// NewActiveConnectionHandler creates a new ActiveConnectionHandler
func NewActiveConnectionHandler(directory *services.Directory[*models.ActiveConnection]) *ActiveConnectionHandler {
	return &ActiveConnectionHandler{directory: directory}
}

// ActiveConnectionResponse represents an in-progress session in the HTTP
// response
type ActiveConnectionResponse struct {
	ID           string `json:"id"`
	ConnectionID string `json:"connection_id"`
	Username     string `json:"username"`
	RemoteHost   string `json:"remote_host,omitempty"`
	StartedAt    string `json:"started_at"`
}

func activeConnectionModelToResponse(active *models.ActiveConnection) *ActiveConnectionResponse {
	return &ActiveConnectionResponse{
		ID:           active.ID,
		ConnectionID: active.ConnectionID,
		Username:     active.Username,
		RemoteHost:   active.RemoteHost,
		StartedAt:    active.StartedAt.Format(time.RFC3339),
	}
}

// ListActiveConnections lists the session identifiers visible to the caller.
func (h *ActiveConnectionHandler) ListActiveConnections(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)

	identifiers, err := h.directory.Identifiers(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &ListIdentifiersResponse{Identifiers: identifiers, Total: len(identifiers)})
}

// GetActiveConnection retrieves one session visible to the caller.
func (h *ActiveConnectionHandler) GetActiveConnection(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)
	id := chi.URLParam(r, "id")

	active, err := h.directory.Get(r.Context(), actor, id)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, activeConnectionModelToResponse(active))
}

// DeleteActiveConnection terminates a session.
func (h *ActiveConnectionHandler) DeleteActiveConnection(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)
	id := chi.URLParam(r, "id")

	if err := h.directory.Remove(r.Context(), actor, id); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
