package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/config"
	"github.com/gatewarden/gatewarden/internal/database"
	"github.com/gatewarden/gatewarden/internal/handlers"
	middlewareCustom "github.com/gatewarden/gatewarden/internal/middleware"
	"github.com/gatewarden/gatewarden/internal/models"
	"github.com/gatewarden/gatewarden/internal/repositories"
	"github.com/gatewarden/gatewarden/internal/routes"
	"github.com/gatewarden/gatewarden/internal/services"
	pkgauth "github.com/gatewarden/gatewarden/pkg/auth"
	pkglogger "github.com/gatewarden/gatewarden/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("configuration loaded", slog.String("env", cfg.Server.Env))

	// Apply schema migrations before opening the pool
	if err := database.Migrate(cfg.Database.DSN(), logger); err != nil {
		logger.Error("failed to run migrations", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize database
	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	systemPermissionRepo := repositories.NewSystemPermissionRepository(db)
	objectPermissionRepo := repositories.NewObjectPermissionRepository(db)
	connectionRepo := repositories.NewConnectionRepository(db)
	connectionGroupRepo := repositories.NewConnectionGroupRepository(db)
	sharingProfileRepo := repositories.NewSharingProfileRepository(db)
	activeConnectionRepo := repositories.NewActiveConnectionRepository(db)

	// Initialize token manager
	tokenManager := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry)

	auditLogger := pkglogger.NewAuditLogger(logger)

	// Initialize services
	permissionService := services.NewPermissionService(systemPermissionRepo, objectPermissionRepo, logger, auditLogger)
	credentialService := services.NewCredentialService(userRepo, logger, auditLogger)
	userService := services.NewUserService(userRepo, permissionService, credentialService, logger, auditLogger)
	authService := services.NewAuthService(userRepo, tokenManager, logger, auditLogger)

	connectionDirectory := services.NewConnectionDirectory(connectionRepo, permissionService, logger, auditLogger)
	connectionGroupDirectory := services.NewConnectionGroupDirectory(connectionGroupRepo, permissionService, logger, auditLogger)
	sharingProfileDirectory := services.NewSharingProfileDirectory(sharingProfileRepo, permissionService, logger, auditLogger)
	activeConnectionDirectory := services.NewActiveConnectionDirectory(activeConnectionRepo, permissionService, logger, auditLogger)

	// Initialize handlers
	handlerSet := routes.Handlers{
		Auth:              handlers.NewAuthHandler(authService),
		Users:             handlers.NewUserHandler(userService, authService, logger),
		Permissions:       handlers.NewPermissionHandler(permissionService),
		Connections:       handlers.NewConnectionHandler(connectionDirectory),
		ConnectionGroups:  handlers.NewConnectionGroupHandler(connectionGroupDirectory),
		SharingProfiles:   handlers.NewSharingProfileHandler(sharingProfileDirectory),
		ActiveConnections: handlers.NewActiveConnectionHandler(activeConnectionDirectory),
	}

	// Bootstrap first administrator if configured
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ensureAdminUser(ctx, userRepo, systemPermissionRepo, logger); err != nil {
		logger.Error("failed to ensure admin user", slog.Any("error", err))
	}
	cancel()

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// Register routes
	routes.RegisterRoutes(router, handlerSet, tokenManager)

	// Health check with database
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		if err := db.HealthCheck(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"unhealthy","database":"down"}`))
			return
		}

		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy","database":"up"}`))
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("server stopped gracefully")
}

// ensureAdminUser creates the first administrator if ADMIN_USERNAME and
// ADMIN_PASSWORD are set and no such account exists yet.
func ensureAdminUser(ctx context.Context, userRepo *repositories.UserRepository, systemPermissionRepo *repositories.SystemPermissionRepository, logger *slog.Logger) error {
	adminUsername := os.Getenv("ADMIN_USERNAME")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminUsername == "" || adminPassword == "" {
		logger.Info("no ADMIN_USERNAME or ADMIN_PASSWORD set, skipping admin user creation")
		return nil
	}

	_, err := userRepo.GetByUsername(ctx, adminUsername)
	if err == nil {
		logger.Info("admin user already exists")
		return nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("failed to check if admin exists: %w", err)
	}

	salt, err := pkgauth.GenerateSalt()
	if err != nil {
		return fmt.Errorf("failed to generate admin salt: %w", err)
	}

	admin := &models.User{
		Username:     adminUsername,
		PasswordSalt: salt,
		PasswordHash: pkgauth.HashPassword(adminPassword, salt),
		PasswordDate: time.Now(),
	}

	if _, err := userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	if err := systemPermissionRepo.Insert(ctx, adminUsername, []models.SystemPermissionType{models.SystemAdminister}); err != nil {
		return fmt.Errorf("failed to grant admin permissions: %w", err)
	}

	logger.Info("admin user created", slog.String("username", pkglogger.SanitizedUsername(adminUsername)))
	return nil
}
