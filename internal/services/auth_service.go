package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/models"
	pkgauth "github.com/gatewarden/gatewarden/pkg/auth"
	pkglogger "github.com/gatewarden/gatewarden/pkg/logger"
)

// AuthService authenticates presented credentials against the user directory
// and issues access tokens.
type AuthService struct {
	repo        UserRepository
	tm          *auth.TokenManager
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(repo UserRepository, tm *auth.TokenManager, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		repo:        repo,
		tm:          tm,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// AuthResponse represents the response from a successful login
type AuthResponse struct {
	AccessToken string `json:"access_token"`
	Username    string `json:"username"`
}

// dummySalt keeps the password derivation running even when no account
// matches, so "unknown user" and "wrong password" take similar time.
var dummySalt = make([]byte, pkgauth.SaltLength)

// AuthenticateUser validates the presented credentials and returns the
// matching account. Unknown users, wrong passwords, disabled accounts,
// accounts outside their validity dates and accounts outside their daily
// access window all fail with the same ErrUnauthorized; only the audit log
// records which check failed. An account whose password is marked expired
// fails with ErrPasswordExpired so the caller can demand a reset.
func (s *AuthService) AuthenticateUser(ctx context.Context, credentials Credentials) (*models.User, error) {
	username := strings.TrimSpace(credentials.Username)
	if username == "" {
		s.logger.Warn("authentication attempt with empty username")
		return nil, models.ErrUnauthorized
	}

	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkgauth.HashPassword(credentials.Password, dummySalt)
			s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
				EventType:     "login_failed",
				FailureReason: "invalid_credentials",
				Success:       false,
			})
			return nil, models.ErrUnauthorized
		}
		s.logger.Error("failed to get user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if !pkgauth.VerifyPassword(credentials.Password, user.PasswordSalt, user.PasswordHash) {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			Username:      username,
			FailureReason: "invalid_credentials",
			Success:       false,
		})
		return nil, models.ErrUnauthorized
	}

	if user.Disabled {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			Username:      username,
			FailureReason: "account_disabled",
			Success:       false,
		})
		return nil, models.ErrAccountDisabled
	}

	if !user.IsAccountValid() {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			Username:      username,
			FailureReason: "outside_validity_dates",
			Success:       false,
		})
		return nil, models.ErrAccountInvalid
	}

	if !user.IsAccountAccessible() {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			Username:      username,
			FailureReason: "outside_access_window",
			Success:       false,
		})
		return nil, models.ErrAccountInaccessible
	}

	if user.Expired {
		s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
			EventType:     "login_failed",
			Username:      username,
			FailureReason: "password_expired",
			Success:       false,
		})
		// The credentials themselves were verified. The user is returned
		// alongside the sentinel so the password rotation flow can proceed.
		return user, models.ErrPasswordExpired
	}

	s.auditLogger.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login_success",
		Username:  username,
		Success:   true,
	})
	return user, nil
}

// Login authenticates a user and returns an access token. All account-state
// failures collapse to ErrUnauthorized here; the transport layer must not be
// able to tell a wrong password from a disabled account.
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResponse, error) {
	user, err := s.AuthenticateUser(ctx, Credentials{Username: username, Password: password})
	if err != nil {
		if errors.Is(err, models.ErrInternalServer) {
			return nil, err
		}
		return nil, models.ErrUnauthorized
	}

	token, err := s.tm.GenerateAccessToken(user.Username)
	if err != nil {
		s.logger.Error("failed to generate access token", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return &AuthResponse{AccessToken: token, Username: user.Username}, nil
}
