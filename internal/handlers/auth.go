package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gatewarden/gatewarden/internal/services"
	pkghttp "github.com/gatewarden/gatewarden/pkg/http"
)

// AuthLoginService defines the authentication operations the handler needs.
type AuthLoginService interface {
	Login(ctx context.Context, username, password string) (*services.AuthResponse, error)
}

// AuthHandler handles authentication HTTP requests
type AuthHandler struct {
	service AuthLoginService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(service AuthLoginService) *AuthHandler {
	return &AuthHandler{service: service}
}

// LoginRequest represents the request body for login
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=128"`
	Password string `json:"password" validate:"required"`
}

// Login authenticates a user and returns an access token. Every failure is
// reported identically; the reason lands only in the audit log.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	resp, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		pkghttp.WriteUnauthorized(w, "Invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
