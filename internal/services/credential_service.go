package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gatewarden/gatewarden/internal/models"
	pkgauth "github.com/gatewarden/gatewarden/pkg/auth"
	pkglogger "github.com/gatewarden/gatewarden/pkg/logger"
)

// UserRepository defines the data access contract for user accounts.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetMultiple(ctx context.Context, usernames []string) ([]*models.User, error)
	List(ctx context.Context) ([]string, error)
	Create(ctx context.Context, user *models.User) (*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	UpdatePassword(ctx context.Context, username string, salt, hash []byte, passwordDate time.Time) error
	Delete(ctx context.Context, username string) error
}

// Credentials carries a plaintext username/password pair presented for
// authentication. The plaintext never outlives the request.
type Credentials struct {
	Username string
	Password string
}

// Authenticator validates presented credentials against some account source.
type Authenticator interface {
	AuthenticateUser(ctx context.Context, credentials Credentials) (*models.User, error)
}

// CredentialService owns every credential write: it is the only component
// that produces salts and digests, so hashing policy lives in exactly one
// place.
type CredentialService struct {
	userRepo    UserRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewCredentialService creates a new CredentialService
func NewCredentialService(userRepo UserRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *CredentialService {
	return &CredentialService{
		userRepo:    userRepo,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// AssignPassword sets the credential fields of the given user model, without
// persisting. A nil password clears the credential: the account keeps a fresh
// random salt and a random digest that no plaintext hashes to, so it can
// never authenticate until a real password is assigned.
func (s *CredentialService) AssignPassword(user *models.User, password *string) error {
	salt, err := pkgauth.GenerateSalt()
	if err != nil {
		s.logger.Error("failed to generate salt", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if password == nil {
		digest, err := pkgauth.GenerateSalt()
		if err != nil {
			s.logger.Error("failed to generate random digest", slog.Any("error", err))
			return models.ErrInternalServer
		}
		user.PasswordSalt = salt
		user.PasswordHash = digest
	} else {
		user.PasswordSalt = salt
		user.PasswordHash = pkgauth.HashPassword(*password, salt)
	}
	user.PasswordDate = time.Now()

	return nil
}

// SetPassword replaces the stored credential of an existing account. Salt,
// digest and password date change together in one unit.
func (s *CredentialService) SetPassword(ctx context.Context, username string, password *string) error {
	user := &models.User{Username: username}
	if err := s.AssignPassword(user, password); err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(ctx, username, user.PasswordSalt, user.PasswordHash, user.PasswordDate); err != nil {
		s.logger.Error("failed to update password",
			slog.String("username", username), slog.Any("error", err))
		return err
	}

	return nil
}

// ChangePassword rotates a user's own password after re-verifying the old
// one through the given authenticator. Every failure mode of the old-password
// check, wrong password, disabled account, outside the access window, is
// reported as the same ErrPermissionDenied so the response reveals nothing
// about which check failed.
func (s *CredentialService) ChangePassword(ctx context.Context, authenticator Authenticator, username, oldPassword string, newPassword *string) error {
	user, err := authenticator.AuthenticateUser(ctx, Credentials{Username: username, Password: oldPassword})
	if err != nil && !errors.Is(err, models.ErrPasswordExpired) {
		s.auditLogger.LogPasswordChange(username, false)
		return models.ErrPermissionDenied
	}
	if user == nil {
		s.auditLogger.LogPasswordChange(username, false)
		return models.ErrPermissionDenied
	}

	if err := s.SetPassword(ctx, username, newPassword); err != nil {
		s.auditLogger.LogPasswordChange(username, false)
		return err
	}

	// Rotating the password satisfies a pending forced reset.
	if user.Expired {
		user.Expired = false
		if _, err := s.userRepo.Update(ctx, user); err != nil {
			s.logger.Error("failed to clear expired flag",
				slog.String("username", username), slog.Any("error", err))
			return models.ErrInternalServer
		}
	}

	s.auditLogger.LogPasswordChange(username, true)
	return nil
}
