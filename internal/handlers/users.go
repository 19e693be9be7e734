package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/models"
	"github.com/gatewarden/gatewarden/internal/services"
	pkghttp "github.com/gatewarden/gatewarden/pkg/http"
	"github.com/go-chi/chi/v5"
)

// UserHandler handles user directory HTTP requests
type UserHandler struct {
	service       *services.UserService
	authenticator services.Authenticator
	logger        *slog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(service *services.UserService, authenticator services.Authenticator, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service:       service,
		authenticator: authenticator,
		logger:        logger,
	}
}

// CreateUserRequest represents the request body for creating a user. A nil
// password creates an account that cannot log in until one is assigned.
type CreateUserRequest struct {
	Username   string            `json:"username" validate:"required,min=1,max=128"`
	Password   *string           `json:"password"`
	Attributes map[string]string `json:"attributes"`
}

// UpdateUserRequest carries the complete restriction attribute state for an
// account; attributes not present are cleared.
type UpdateUserRequest struct {
	Attributes map[string]string `json:"attributes"`
}

// ChangePasswordRequest represents the request body for password changes
type ChangePasswordRequest struct {
	OldPassword string  `json:"old_password"`
	NewPassword *string `json:"new_password"`
}

// UserResponse represents a user in the HTTP response
type UserResponse struct {
	Username   string            `json:"username"`
	Attributes map[string]string `json:"attributes"`
	CreatedAt  string            `json:"created_at"`
	UpdatedAt  string            `json:"updated_at"`
}

// ListUsersResponse represents the visible portion of the user directory
type ListUsersResponse struct {
	Usernames []string `json:"usernames"`
	Total     int      `json:"total"`
}

func userModelToResponse(user *models.User) *UserResponse {
	return &UserResponse{
		Username:   user.Username,
		Attributes: user.Attributes(),
		CreatedAt:  user.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  user.UpdatedAt.Format(time.RFC3339),
	}
}

// ListUsers lists the usernames visible to the caller.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)

	usernames, err := h.service.Usernames(r.Context(), actor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &ListUsersResponse{Usernames: usernames, Total: len(usernames)})
}

// GetUser retrieves one account visible to the caller.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)
	username := chi.URLParam(r, "username")

	user, err := h.service.GetUser(r.Context(), actor, username)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userModelToResponse(user))
}

// CreateUser creates a new account.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)

	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	user := &models.User{Username: strings.TrimSpace(req.Username)}
	user.ApplyAttributes(req.Attributes, h.logger)

	created, err := h.service.CreateUser(r.Context(), actor, user, req.Password)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, userModelToResponse(created))
}

// UpdateUser replaces an account's restriction attributes.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)
	username := chi.URLParam(r, "username")

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	updated, err := h.service.UpdateUserAttributes(r.Context(), actor, username, req.Attributes)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userModelToResponse(updated))
}

// DeleteUser removes an account.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)
	username := chi.URLParam(r, "username")

	if err := h.service.DeleteUser(r.Context(), actor, username); err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword rotates a password. Against the caller's own account the
// old password must verify; against another account this is an
// administrative reset gated on UPDATE rights and no old password is needed.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor := auth.CurrentUsername(r)
	username := chi.URLParam(r, "username")

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	var err error
	if actor == username {
		err = h.service.ChangePassword(r.Context(), h.authenticator, username, req.OldPassword, req.NewPassword)
	} else {
		err = h.service.ResetPassword(r.Context(), actor, username, req.NewPassword)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
