package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gatewarden/gatewarden/internal/models"
	pkglogger "github.com/gatewarden/gatewarden/pkg/logger"
)

// ObjectStore is the persistence contract a Directory mediates access to.
// Implementations perform no authorization of their own.
type ObjectStore[T models.DirectoryObject] interface {
	GetByID(ctx context.Context, identifier string) (T, error)
	GetMultiple(ctx context.Context, identifiers []string) ([]T, error)
	List(ctx context.Context) ([]string, error)
	Create(ctx context.Context, object T) (T, error)
	Update(ctx context.Context, object T) (T, error)
	Delete(ctx context.Context, identifier string) error
}

// Directory is a permission-gated view over one category of objects. Every
// operation runs in the authorization context of an actor username; objects
// the actor cannot READ behave exactly as if they did not exist.
type Directory[T models.DirectoryObject] struct {
	kind        models.ObjectKind
	store       ObjectStore[T]
	permissions *PermissionService
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger

	// guardSelf refuses updates where the actor is the object. The user
	// directory sets this so account self-modification can only happen
	// through the dedicated password change flow.
	guardSelf bool
}

// NewDirectory creates a Directory over the given store.
func NewDirectory[T models.DirectoryObject](kind models.ObjectKind, store ObjectStore[T], permissions *PermissionService, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *Directory[T] {
	return &Directory[T]{
		kind:        kind,
		store:       store,
		permissions: permissions,
		logger:      logger,
		auditLogger: auditLogger,
		guardSelf:   kind == models.KindUser,
	}
}

// canSee reports whether the actor may observe the identified object at all:
// administrators see everything, others need a READ grant.
func (d *Directory[T]) canSee(ctx context.Context, actor, identifier string) (bool, error) {
	admin, err := d.permissions.IsAdministrator(ctx, actor)
	if err != nil {
		return false, err
	}
	if admin {
		return true, nil
	}

	held, err := d.permissions.objectRepo.SelectOne(ctx, actor, d.kind, models.ObjectRead, identifier)
	if err != nil {
		d.logger.Error("failed to check read permission",
			slog.String("kind", string(d.kind)), slog.Any("error", err))
		return false, models.ErrInternalServer
	}
	return held, nil
}

// hasObjectPermission reports whether the actor holds the given permission
// over the identified object, with the administrator bypass applied.
func (d *Directory[T]) hasObjectPermission(ctx context.Context, actor string, permission models.ObjectPermissionType, identifier string) (bool, error) {
	admin, err := d.permissions.IsAdministrator(ctx, actor)
	if err != nil {
		return false, err
	}
	if admin {
		return true, nil
	}

	held, err := d.permissions.objectRepo.SelectOne(ctx, actor, d.kind, permission, identifier)
	if err != nil {
		d.logger.Error("failed to check object permission",
			slog.String("kind", string(d.kind)), slog.Any("error", err))
		return false, models.ErrInternalServer
	}
	return held, nil
}

// Get retrieves one object by identifier. A missing object and an object the
// actor cannot READ are indistinguishable: both return ErrNotFound.
func (d *Directory[T]) Get(ctx context.Context, actor, identifier string) (T, error) {
	var zero T

	visible, err := d.canSee(ctx, actor, identifier)
	if err != nil {
		return zero, err
	}
	if !visible {
		return zero, models.ErrNotFound
	}

	object, err := d.store.GetByID(ctx, identifier)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return zero, models.ErrNotFound
		}
		d.logger.Error("failed to get object",
			slog.String("kind", string(d.kind)), slog.Any("error", err))
		return zero, models.ErrInternalServer
	}
	return object, nil
}

// GetMultiple retrieves the objects the actor can READ out of the requested
// identifiers. Identifiers that are inaccessible or nonexistent are silently
// omitted.
func (d *Directory[T]) GetMultiple(ctx context.Context, actor string, identifiers []string) ([]T, error) {
	visible, err := d.permissions.ObjectPermissions(actor, actor, d.kind).
		AccessibleIdentifiers(ctx, identifiers, models.ObjectRead)
	if err != nil {
		return nil, err
	}

	objects, err := d.store.GetMultiple(ctx, visible)
	if err != nil {
		d.logger.Error("failed to get objects",
			slog.String("kind", string(d.kind)), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return objects, nil
}

// Identifiers lists the identifiers of every object the actor can READ.
func (d *Directory[T]) Identifiers(ctx context.Context, actor string) ([]string, error) {
	identifiers, err := d.store.List(ctx)
	if err != nil {
		d.logger.Error("failed to list identifiers",
			slog.String("kind", string(d.kind)), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	return d.permissions.ObjectPermissions(actor, actor, d.kind).
		AccessibleIdentifiers(ctx, identifiers, models.ObjectRead)
}

// Add creates a new object. The actor must hold the category's creation
// permission (or system ADMINISTER); the creator is then granted full rights
// over the new object so they can see and manage what they just made.
func (d *Directory[T]) Add(ctx context.Context, actor string, object T) (T, error) {
	var zero T

	createPermission, creatable := d.kind.CreatePermission()
	if !creatable {
		return zero, models.ErrPermissionDenied
	}

	admin, err := d.permissions.IsAdministrator(ctx, actor)
	if err != nil {
		return zero, err
	}
	if !admin {
		held, err := d.permissions.systemRepo.SelectOne(ctx, actor, createPermission)
		if err != nil {
			d.logger.Error("failed to check create permission",
				slog.String("kind", string(d.kind)), slog.Any("error", err))
			return zero, models.ErrInternalServer
		}
		if !held {
			return zero, models.ErrPermissionDenied
		}
	}

	created, err := d.store.Create(ctx, object)
	if err != nil {
		if errors.Is(err, models.ErrConflict) || errors.Is(err, models.ErrBadRequest) {
			return zero, err
		}
		d.logger.Error("failed to create object",
			slog.String("kind", string(d.kind)), slog.Any("error", err))
		return zero, models.ErrInternalServer
	}

	identifier := created.ObjectIdentifier()
	grants := []models.ObjectPermission{
		{Type: models.ObjectRead, Identifier: identifier},
		{Type: models.ObjectUpdate, Identifier: identifier},
		{Type: models.ObjectDelete, Identifier: identifier},
		{Type: models.ObjectAdminister, Identifier: identifier},
	}
	if err := d.permissions.objectRepo.Insert(ctx, actor, d.kind, grants); err != nil {
		d.logger.Error("failed to grant creator permissions",
			slog.String("kind", string(d.kind)), slog.String("identifier", identifier), slog.Any("error", err))
		return zero, models.ErrInternalServer
	}

	d.auditLogger.LogDirectoryAction("object_created", actor, string(d.kind), identifier)
	return created, nil
}

// Update modifies an existing object. The actor needs UPDATE over it; an
// object the actor cannot READ yields ErrNotFound, keeping its existence
// hidden.
func (d *Directory[T]) Update(ctx context.Context, actor string, object T) (T, error) {
	var zero T
	identifier := object.ObjectIdentifier()

	if d.guardSelf && actor == identifier {
		return zero, models.ErrPermissionDenied
	}

	visible, err := d.canSee(ctx, actor, identifier)
	if err != nil {
		return zero, err
	}
	if !visible {
		return zero, models.ErrNotFound
	}

	allowed, err := d.hasObjectPermission(ctx, actor, models.ObjectUpdate, identifier)
	if err != nil {
		return zero, err
	}
	if !allowed {
		return zero, models.ErrPermissionDenied
	}

	updated, err := d.store.Update(ctx, object)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrConflict) ||
			errors.Is(err, models.ErrBadRequest) || errors.Is(err, models.ErrPermissionDenied) {
			return zero, err
		}
		d.logger.Error("failed to update object",
			slog.String("kind", string(d.kind)), slog.String("identifier", identifier), slog.Any("error", err))
		return zero, models.ErrInternalServer
	}

	d.auditLogger.LogDirectoryAction("object_updated", actor, string(d.kind), identifier)
	return updated, nil
}

// Remove deletes an object and revokes every grant over it. The actor needs
// DELETE; an object the actor cannot READ yields ErrNotFound.
func (d *Directory[T]) Remove(ctx context.Context, actor, identifier string) error {
	visible, err := d.canSee(ctx, actor, identifier)
	if err != nil {
		return err
	}
	if !visible {
		return models.ErrNotFound
	}

	allowed, err := d.hasObjectPermission(ctx, actor, models.ObjectDelete, identifier)
	if err != nil {
		return err
	}
	if !allowed {
		return models.ErrPermissionDenied
	}

	if err := d.store.Delete(ctx, identifier); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		d.logger.Error("failed to delete object",
			slog.String("kind", string(d.kind)), slog.String("identifier", identifier), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := d.permissions.objectRepo.DeleteForObject(ctx, d.kind, identifier); err != nil {
		d.logger.Error("failed to revoke grants for deleted object",
			slog.String("kind", string(d.kind)), slog.String("identifier", identifier), slog.Any("error", err))
		return models.ErrInternalServer
	}

	d.auditLogger.LogDirectoryAction("object_deleted", actor, string(d.kind), identifier)
	return nil
}
