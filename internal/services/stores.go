package services

import (
	"context"
	"log/slog"

	"github.com/gatewarden/gatewarden/internal/models"
	"github.com/gatewarden/gatewarden/internal/repositories"
	pkglogger "github.com/gatewarden/gatewarden/pkg/logger"
)

// userStore adapts the user repository, keyed by username, to the identifier
// based store contract the directory expects.
type userStore struct {
	repo UserRepository
}

func (s userStore) GetByID(ctx context.Context, identifier string) (*models.User, error) {
	return s.repo.GetByUsername(ctx, identifier)
}

func (s userStore) GetMultiple(ctx context.Context, identifiers []string) ([]*models.User, error) {
	return s.repo.GetMultiple(ctx, identifiers)
}

func (s userStore) List(ctx context.Context) ([]string, error) {
	return s.repo.List(ctx)
}

func (s userStore) Create(ctx context.Context, user *models.User) (*models.User, error) {
	return s.repo.Create(ctx, user)
}

func (s userStore) Update(ctx context.Context, user *models.User) (*models.User, error) {
	return s.repo.Update(ctx, user)
}

func (s userStore) Delete(ctx context.Context, identifier string) error {
	return s.repo.Delete(ctx, identifier)
}

// activeConnectionStore exposes active sessions to the directory as a
// read-and-delete view. Sessions come into existence through the tunnel
// layer, never through directory writes.
type activeConnectionStore struct {
	repo *repositories.ActiveConnectionRepository
}

func (s activeConnectionStore) GetByID(ctx context.Context, identifier string) (*models.ActiveConnection, error) {
	return s.repo.GetByID(ctx, identifier)
}

func (s activeConnectionStore) GetMultiple(ctx context.Context, identifiers []string) ([]*models.ActiveConnection, error) {
	return s.repo.GetMultiple(ctx, identifiers)
}

func (s activeConnectionStore) List(ctx context.Context) ([]string, error) {
	return s.repo.List(ctx)
}

func (s activeConnectionStore) Create(ctx context.Context, active *models.ActiveConnection) (*models.ActiveConnection, error) {
	return nil, models.ErrPermissionDenied
}

func (s activeConnectionStore) Update(ctx context.Context, active *models.ActiveConnection) (*models.ActiveConnection, error) {
	return nil, models.ErrPermissionDenied
}

func (s activeConnectionStore) Delete(ctx context.Context, identifier string) error {
	return s.repo.Delete(ctx, identifier)
}

// NewConnectionDirectory builds the permission-gated directory of connections.
func NewConnectionDirectory(repo *repositories.ConnectionRepository, permissions *PermissionService, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *Directory[*models.Connection] {
	return NewDirectory(models.KindConnection, ObjectStore[*models.Connection](repo), permissions, logger, auditLogger)
}

// NewConnectionGroupDirectory builds the permission-gated directory of
// connection groups.
func NewConnectionGroupDirectory(repo *repositories.ConnectionGroupRepository, permissions *PermissionService, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *Directory[*models.ConnectionGroup] {
	return NewDirectory(models.KindConnectionGroup, ObjectStore[*models.ConnectionGroup](repo), permissions, logger, auditLogger)
}

// NewSharingProfileDirectory builds the permission-gated directory of sharing
// profiles.
func NewSharingProfileDirectory(repo *repositories.SharingProfileRepository, permissions *PermissionService, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *Directory[*models.SharingProfile] {
	return NewDirectory(models.KindSharingProfile, ObjectStore[*models.SharingProfile](repo), permissions, logger, auditLogger)
}

// NewActiveConnectionDirectory builds the directory of in-progress sessions.
// It supports observation and termination only.
func NewActiveConnectionDirectory(repo *repositories.ActiveConnectionRepository, permissions *PermissionService, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *Directory[*models.ActiveConnection] {
	return NewDirectory(models.KindActiveConnection, ObjectStore[*models.ActiveConnection](activeConnectionStore{repo: repo}), permissions, logger, auditLogger)
}
