package services

import (
	"context"
	"log/slog"

	"github.com/gatewarden/gatewarden/internal/models"
	pkglogger "github.com/gatewarden/gatewarden/pkg/logger"
)

// UserService composes the user directory with credential handling. It exists
// because user creation and password administration cross two concerns that
// neither the directory nor the credential service owns alone.
type UserService struct {
	directory   *Directory[*models.User]
	credentials *CredentialService
	logger      *slog.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo UserRepository, permissions *PermissionService, credentials *CredentialService, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *UserService {
	return &UserService{
		directory:   NewDirectory(models.KindUser, ObjectStore[*models.User](userStore{repo: userRepo}), permissions, logger, auditLogger),
		credentials: credentials,
		logger:      logger,
	}
}

// Directory exposes the permission-gated user directory.
func (s *UserService) Directory() *Directory[*models.User] {
	return s.directory
}

// CreateUser creates a new account. A nil password leaves the account with an
// unguessable random credential, so it cannot log in until a password is set.
func (s *UserService) CreateUser(ctx context.Context, actor string, user *models.User, password *string) (*models.User, error) {
	if err := s.credentials.AssignPassword(user, password); err != nil {
		return nil, err
	}
	return s.directory.Add(ctx, actor, user)
}

// GetUser retrieves one account visible to the actor.
func (s *UserService) GetUser(ctx context.Context, actor, username string) (*models.User, error) {
	return s.directory.Get(ctx, actor, username)
}

// Usernames lists the usernames the actor can see.
func (s *UserService) Usernames(ctx context.Context, actor string) ([]string, error) {
	return s.directory.Identifiers(ctx, actor)
}

// UpdateUserAttributes replaces an account's restriction attributes with the
// given complete attribute state. The actor cannot target their own account
// through this path.
func (s *UserService) UpdateUserAttributes(ctx context.Context, actor, username string, attrs map[string]string) (*models.User, error) {
	user, err := s.directory.Get(ctx, actor, username)
	if err != nil {
		return nil, err
	}

	user.ApplyAttributes(attrs, s.logger)
	return s.directory.Update(ctx, actor, user)
}

// DeleteUser removes an account and all grants it held.
func (s *UserService) DeleteUser(ctx context.Context, actor, username string) error {
	return s.directory.Remove(ctx, actor, username)
}

// ResetPassword administratively replaces another account's password. The
// actor needs UPDATE over the target; their own account is off limits here,
// self-service rotation goes through ChangePassword instead.
func (s *UserService) ResetPassword(ctx context.Context, actor, username string, password *string) error {
	if actor == username {
		return models.ErrPermissionDenied
	}

	visible, err := s.directory.canSee(ctx, actor, username)
	if err != nil {
		return err
	}
	if !visible {
		return models.ErrNotFound
	}

	allowed, err := s.directory.hasObjectPermission(ctx, actor, models.ObjectUpdate, username)
	if err != nil {
		return err
	}
	if !allowed {
		return models.ErrPermissionDenied
	}

	return s.credentials.SetPassword(ctx, username, password)
}

// ChangePassword rotates the actor's own password after re-verifying the old
// one.
func (s *UserService) ChangePassword(ctx context.Context, authenticator Authenticator, username, oldPassword string, newPassword *string) error {
	return s.credentials.ChangePassword(ctx, authenticator, username, oldPassword, newPassword)
}
