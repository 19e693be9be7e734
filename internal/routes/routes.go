package routes

import (
	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/handlers"
	"github.com/gatewarden/gatewarden/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Auth              *handlers.AuthHandler
	Users             *handlers.UserHandler
	Permissions       *handlers.PermissionHandler
	Connections       *handlers.ConnectionHandler
	ConnectionGroups  *handlers.ConnectionGroupHandler
	SharingProfiles   *handlers.SharingProfileHandler
	ActiveConnections *handlers.ActiveConnectionHandler
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, h Handlers, tokenManager *auth.TokenManager) {
	// Rate limiting config for credential-bearing endpoints
	rateLimitConfig := middleware.DefaultAuthRateLimit()

	// Public routes - no authentication required
	router.With(middleware.RateLimitByIP(rateLimitConfig)).Post("/auth/login", h.Auth.Login)

	// Protected routes - authentication required. Authorization happens in
	// the service layer against the caller's own grants.
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(tokenManager))

		r.Route("/users", func(r chi.Router) {
			r.Get("/", h.Users.ListUsers)
			r.Post("/", h.Users.CreateUser)
			r.Get("/{username}", h.Users.GetUser)
			r.Put("/{username}", h.Users.UpdateUser)
			r.Delete("/{username}", h.Users.DeleteUser)
			r.With(middleware.RateLimitByIP(rateLimitConfig)).
				Put("/{username}/password", h.Users.ChangePassword)

			r.Get("/{username}/permissions", h.Permissions.GetPermissions)
			r.Patch("/{username}/permissions/system", h.Permissions.PatchSystemPermissions)
			r.Patch("/{username}/permissions/{kind}", h.Permissions.PatchObjectPermissions)
		})

		r.Route("/connections", func(r chi.Router) {
			r.Get("/", h.Connections.ListConnections)
			r.Post("/", h.Connections.CreateConnection)
			r.Get("/{id}", h.Connections.GetConnection)
			r.Put("/{id}", h.Connections.UpdateConnection)
			r.Delete("/{id}", h.Connections.DeleteConnection)
		})

		r.Route("/connection-groups", func(r chi.Router) {
			r.Get("/", h.ConnectionGroups.ListConnectionGroups)
			r.Post("/", h.ConnectionGroups.CreateConnectionGroup)
			r.Get("/{id}", h.ConnectionGroups.GetConnectionGroup)
			r.Put("/{id}", h.ConnectionGroups.UpdateConnectionGroup)
			r.Delete("/{id}", h.ConnectionGroups.DeleteConnectionGroup)
		})

		r.Route("/sharing-profiles", func(r chi.Router) {
			r.Get("/", h.SharingProfiles.ListSharingProfiles)
			r.Post("/", h.SharingProfiles.CreateSharingProfile)
			r.Get("/{id}", h.SharingProfiles.GetSharingProfile)
			r.Put("/{id}", h.SharingProfiles.UpdateSharingProfile)
			r.Delete("/{id}", h.SharingProfiles.DeleteSharingProfile)
		})

		r.Route("/active-connections", func(r chi.Router) {
			r.Get("/", h.ActiveConnections.ListActiveConnections)
			r.Get("/{id}", h.ActiveConnections.GetActiveConnection)
			r.Delete("/{id}", h.ActiveConnections.DeleteActiveConnection)
		})
	})
}
