package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/gatewarden/gatewarden/internal/models"
	pkglogger "github.com/gatewarden/gatewarden/pkg/logger"
)

// SystemPermissionRepository defines the data access contract for system-wide
// permission grants.
type SystemPermissionRepository interface {
	SelectAll(ctx context.Context, username string) ([]models.SystemPermissionType, error)
	SelectOne(ctx context.Context, username string, permission models.SystemPermissionType) (bool, error)
	Insert(ctx context.Context, username string, permissions []models.SystemPermissionType) error
	Delete(ctx context.Context, username string, permissions []models.SystemPermissionType) error
}

// ObjectPermissionRepository defines the data access contract for per-object
// permission grants.
type ObjectPermissionRepository interface {
	SelectAll(ctx context.Context, username string, kind models.ObjectKind) ([]models.ObjectPermission, error)
	SelectOne(ctx context.Context, username string, kind models.ObjectKind, permission models.ObjectPermissionType, identifier string) (bool, error)
	SelectAccessibleIdentifiers(ctx context.Context, username string, kind models.ObjectKind, permissions []models.ObjectPermissionType, identifiers []string) ([]string, error)
	Insert(ctx context.Context, username string, kind models.ObjectKind, permissions []models.ObjectPermission) error
	Delete(ctx context.Context, username string, kind models.ObjectKind, permissions []models.ObjectPermission) error
	DeleteForObject(ctx context.Context, kind models.ObjectKind, identifier string) error
}

// PermissionService mediates every read and mutation of permission grants.
// All operations are performed in the authorization context of an actor, the
// caller whose own rights gate what can be seen or changed.
type PermissionService struct {
	systemRepo  SystemPermissionRepository
	objectRepo  ObjectPermissionRepository
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewPermissionService creates a new PermissionService
func NewPermissionService(systemRepo SystemPermissionRepository, objectRepo ObjectPermissionRepository, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *PermissionService {
	return &PermissionService{
		systemRepo:  systemRepo,
		objectRepo:  objectRepo,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// IsAdministrator reports whether the given user holds system ADMINISTER,
// which supersedes all object-scoped checks.
func (s *PermissionService) IsAdministrator(ctx context.Context, username string) (bool, error) {
	admin, err := s.systemRepo.SelectOne(ctx, username, models.SystemAdminister)
	if err != nil {
		s.logger.Error("failed to check administrator status",
			slog.String("username", username), slog.Any("error", err))
		return false, models.ErrInternalServer
	}
	return admin, nil
}

// canReadPermissions enforces who may inspect a subject's grants: the subject
// themselves, or an administrator. Anything else is a hard ErrPermissionDenied
// rather than an empty result, so "no grants" and "not allowed to look" stay
// distinguishable.
func (s *PermissionService) canReadPermissions(ctx context.Context, actor, subject string) error {
	if actor == subject {
		return nil
	}

	admin, err := s.IsAdministrator(ctx, actor)
	if err != nil {
		return err
	}
	if !admin {
		return models.ErrPermissionDenied
	}
	return nil
}

// canAlterPermissions enforces who may grant or revoke: administrators only.
func (s *PermissionService) canAlterPermissions(ctx context.Context, actor string) error {
	admin, err := s.IsAdministrator(ctx, actor)
	if err != nil {
		return err
	}
	if !admin {
		return models.ErrPermissionDenied
	}
	return nil
}

// SystemPermissions returns the live view of the subject's system-wide grants,
// scoped to the given actor.
func (s *PermissionService) SystemPermissions(actor, subject string) *SystemPermissionSet {
	return &SystemPermissionSet{service: s, actor: actor, subject: subject}
}

// ObjectPermissions returns the live view of the subject's grants over one
// object category, scoped to the given actor.
func (s *PermissionService) ObjectPermissions(actor, subject string, kind models.ObjectKind) *ObjectPermissionSet {
	return &ObjectPermissionSet{service: s, actor: actor, subject: subject, kind: kind}
}

// SystemPermissionSet is a live, per-query view of the system-wide grants
// held by one subject. It is not persisted itself; every call queries the
// underlying store in the authorization context of the actor.
type SystemPermissionSet struct {
	service *PermissionService
	actor   string
	subject string
}

// Permissions lists all system permissions held by the subject.
func (ps *SystemPermissionSet) Permissions(ctx context.Context) ([]models.SystemPermissionType, error) {
	if err := ps.service.canReadPermissions(ctx, ps.actor, ps.subject); err != nil {
		return nil, err
	}

	permissions, err := ps.service.systemRepo.SelectAll(ctx, ps.subject)
	if err != nil {
		ps.service.logger.Error("failed to list system permissions",
			slog.String("subject", ps.subject), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return permissions, nil
}

// HasPermission reports whether the subject holds the given system permission.
func (ps *SystemPermissionSet) HasPermission(ctx context.Context, permission models.SystemPermissionType) (bool, error) {
	if err := ps.service.canReadPermissions(ctx, ps.actor, ps.subject); err != nil {
		return false, err
	}

	held, err := ps.service.systemRepo.SelectOne(ctx, ps.subject, permission)
	if err != nil {
		ps.service.logger.Error("failed to check system permission",
			slog.String("subject", ps.subject), slog.Any("error", err))
		return false, models.ErrInternalServer
	}
	return held, nil
}

// AddPermissions grants the given system permissions as one atomic batch.
func (ps *SystemPermissionSet) AddPermissions(ctx context.Context, permissions ...models.SystemPermissionType) error {
	if err := ps.service.canAlterPermissions(ctx, ps.actor); err != nil {
		return err
	}

	for _, permission := range permissions {
		if !permission.Valid() {
			return fmt.Errorf("unknown system permission %q: %w", permission, models.ErrBadRequest)
		}
	}

	if err := ps.service.systemRepo.Insert(ctx, ps.subject, permissions); err != nil {
		ps.service.logger.Error("failed to grant system permissions",
			slog.String("subject", ps.subject), slog.Any("error", err))
		return models.ErrInternalServer
	}

	ps.service.auditLogger.LogPermissionChange("system_permissions_granted", ps.actor, ps.subject, map[string]string{
		"count": fmt.Sprintf("%d", len(permissions)),
	})
	return nil
}

// RemovePermissions revokes the given system permissions as one atomic batch.
func (ps *SystemPermissionSet) RemovePermissions(ctx context.Context, permissions ...models.SystemPermissionType) error {
	if err := ps.service.canAlterPermissions(ctx, ps.actor); err != nil {
		return err
	}

	if err := ps.service.systemRepo.Delete(ctx, ps.subject, permissions); err != nil {
		ps.service.logger.Error("failed to revoke system permissions",
			slog.String("subject", ps.subject), slog.Any("error", err))
		return models.ErrInternalServer
	}

	ps.service.auditLogger.LogPermissionChange("system_permissions_revoked", ps.actor, ps.subject, map[string]string{
		"count": fmt.Sprintf("%d", len(permissions)),
	})
	return nil
}

// ObjectPermissionSet is a live, per-query view of the grants one subject
// holds over a single object category.
type ObjectPermissionSet struct {
	service *PermissionService
	actor   string
	subject string
	kind    models.ObjectKind
}

// Permissions lists all grants the subject holds over this object category.
func (ps *ObjectPermissionSet) Permissions(ctx context.Context) ([]models.ObjectPermission, error) {
	if err := ps.service.canReadPermissions(ctx, ps.actor, ps.subject); err != nil {
		return nil, err
	}

	permissions, err := ps.service.objectRepo.SelectAll(ctx, ps.subject, ps.kind)
	if err != nil {
		ps.service.logger.Error("failed to list object permissions",
			slog.String("subject", ps.subject), slog.String("kind", string(ps.kind)), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return permissions, nil
}

// HasPermission reports whether the subject holds the given permission over
// the identified object. An identifier that matches no object simply has no
// grant rows, so the result is false rather than an error.
func (ps *ObjectPermissionSet) HasPermission(ctx context.Context, permission models.ObjectPermissionType, identifier string) (bool, error) {
	if err := ps.service.canReadPermissions(ctx, ps.actor, ps.subject); err != nil {
		return false, err
	}

	held, err := ps.service.objectRepo.SelectOne(ctx, ps.subject, ps.kind, permission, identifier)
	if err != nil {
		ps.service.logger.Error("failed to check object permission",
			slog.String("subject", ps.subject), slog.String("kind", string(ps.kind)), slog.Any("error", err))
		return false, models.ErrInternalServer
	}
	return held, nil
}

// AccessibleIdentifiers returns the subset of the candidate identifiers for
// which the subject holds at least one of the given permission types. For an
// administrator the result is the candidate set unchanged.
func (ps *ObjectPermissionSet) AccessibleIdentifiers(ctx context.Context, identifiers []string, permissions ...models.ObjectPermissionType) ([]string, error) {
	if err := ps.service.canReadPermissions(ctx, ps.actor, ps.subject); err != nil {
		return nil, err
	}

	admin, err := ps.service.IsAdministrator(ctx, ps.subject)
	if err != nil {
		return nil, err
	}
	if admin {
		accessible := make([]string, len(identifiers))
		copy(accessible, identifiers)
		return accessible, nil
	}

	accessible, err := ps.service.objectRepo.SelectAccessibleIdentifiers(ctx, ps.subject, ps.kind, permissions, identifiers)
	if err != nil {
		ps.service.logger.Error("failed to select accessible identifiers",
			slog.String("subject", ps.subject), slog.String("kind", string(ps.kind)), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return accessible, nil
}

// AddPermissions grants the given object permissions as one atomic batch.
func (ps *ObjectPermissionSet) AddPermissions(ctx context.Context, permissions ...models.ObjectPermission) error {
	if err := ps.service.canAlterPermissions(ctx, ps.actor); err != nil {
		return err
	}

	for _, permission := range permissions {
		if !permission.Type.Valid() {
			return fmt.Errorf("unknown object permission %q: %w", permission.Type, models.ErrBadRequest)
		}
	}

	if err := ps.service.objectRepo.Insert(ctx, ps.subject, ps.kind, permissions); err != nil {
		ps.service.logger.Error("failed to grant object permissions",
			slog.String("subject", ps.subject), slog.String("kind", string(ps.kind)), slog.Any("error", err))
		return models.ErrInternalServer
	}

	ps.service.auditLogger.LogPermissionChange("object_permissions_granted", ps.actor, ps.subject, map[string]string{
		"kind":  string(ps.kind),
		"count": fmt.Sprintf("%d", len(permissions)),
	})
	return nil
}

// RemovePermissions revokes the given object permissions as one atomic batch.
func (ps *ObjectPermissionSet) RemovePermissions(ctx context.Context, permissions ...models.ObjectPermission) error {
	if err := ps.service.canAlterPermissions(ctx, ps.actor); err != nil {
		return err
	}

	if err := ps.service.objectRepo.Delete(ctx, ps.subject, ps.kind, permissions); err != nil {
		ps.service.logger.Error("failed to revoke object permissions",
			slog.String("subject", ps.subject), slog.String("kind", string(ps.kind)), slog.Any("error", err))
		return models.ErrInternalServer
	}

	ps.service.auditLogger.LogPermissionChange("object_permissions_revoked", ps.actor, ps.subject, map[string]string{
		"kind":  string(ps.kind),
		"count": fmt.Sprintf("%d", len(permissions)),
	})
	return nil
}
