package repositories

import (
	"context"
	"fmt"

	"github.com/gatewarden/gatewarden/internal/database"
	"github.com/gatewarden/gatewarden/internal/models"
	"github.com/jackc/pgx/v5"
)

// SystemPermissionRepository provides row-level access to system-wide
// permission grants.
type SystemPermissionRepository struct {
	db *database.DB
}

func NewSystemPermissionRepository(db *database.DB) *SystemPermissionRepository {
	return &SystemPermissionRepository{db: db}
}

func (r *SystemPermissionRepository) SelectAll(ctx context.Context, username string) ([]models.SystemPermissionType, error) {
	query := `SELECT permission FROM system_permissions WHERE username = $1`

	rows, err := r.db.Pool.Query(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("failed to query system permissions: %w", err)
	}
	defer rows.Close()

	permissions := make([]models.SystemPermissionType, 0)
	for rows.Next() {
		var permission models.SystemPermissionType
		if err := rows.Scan(&permission); err != nil {
			return nil, fmt.Errorf("failed to scan system permission: %w", err)
		}
		permissions = append(permissions, permission)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return permissions, nil
}

func (r *SystemPermissionRepository) SelectOne(ctx context.Context, username string, permission models.SystemPermissionType) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM system_permissions WHERE username = $1 AND permission = $2
	)`

	var exists bool
	if err := r.db.Pool.QueryRow(ctx, query, username, string(permission)).Scan(&exists); err != nil {
		return false, database.MapPostgresError(err)
	}

	return exists, nil
}

// Insert grants the given permissions as one atomic batch. Grants that
// already exist are left untouched.
func (r *SystemPermissionRepository) Insert(ctx context.Context, username string, permissions []models.SystemPermissionType) error {
	if len(permissions) == 0 {
		return nil
	}

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, permission := range permissions {
			_, err := tx.Exec(ctx,
				`INSERT INTO system_permissions (username, permission) VALUES ($1, $2)
				 ON CONFLICT DO NOTHING`,
				username, string(permission),
			)
			if err != nil {
				return database.MapPostgresError(err)
			}
		}
		return nil
	})
}

// Delete revokes the given permissions as one atomic batch.
func (r *SystemPermissionRepository) Delete(ctx context.Context, username string, permissions []models.SystemPermissionType) error {
	if len(permissions) == 0 {
		return nil
	}

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, permission := range permissions {
			_, err := tx.Exec(ctx,
				`DELETE FROM system_permissions WHERE username = $1 AND permission = $2`,
				username, string(permission),
			)
			if err != nil {
				return database.MapPostgresError(err)
			}
		}
		return nil
	})
}

// ObjectPermissionRepository provides row-level access to per-object
// permission grants, across all object kinds.
type ObjectPermissionRepository struct {
	db *database.DB
}

func NewObjectPermissionRepository(db *database.DB) *ObjectPermissionRepository {
	return &ObjectPermissionRepository{db: db}
}

func (r *ObjectPermissionRepository) SelectAll(ctx context.Context, username string, kind models.ObjectKind) ([]models.ObjectPermission, error) {
	query := `SELECT permission, identifier FROM object_permissions
		WHERE username = $1 AND kind = $2`

	rows, err := r.db.Pool.Query(ctx, query, username, string(kind))
	if err != nil {
		return nil, fmt.Errorf("failed to query object permissions: %w", err)
	}
	defer rows.Close()

	permissions := make([]models.ObjectPermission, 0)
	for rows.Next() {
		var permission models.ObjectPermission
		if err := rows.Scan(&permission.Type, &permission.Identifier); err != nil {
			return nil, fmt.Errorf("failed to scan object permission: %w", err)
		}
		permissions = append(permissions, permission)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return permissions, nil
}

// SelectOne reports whether the user holds the given permission over the
// given object. A nonexistent object simply has no grant rows, so the result
// is false rather than an error.
func (r *ObjectPermissionRepository) SelectOne(ctx context.Context, username string, kind models.ObjectKind, permission models.ObjectPermissionType, identifier string) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM object_permissions
		WHERE username = $1 AND kind = $2 AND permission = $3 AND identifier = $4
	)`

	var exists bool
	err := r.db.Pool.QueryRow(ctx, query, username, string(kind), string(permission), identifier).Scan(&exists)
	if err != nil {
		return false, database.MapPostgresError(err)
	}

	return exists, nil
}

// SelectAccessibleIdentifiers returns the subset of the given identifiers for
// which the user holds at least one of the given permissions.
func (r *ObjectPermissionRepository) SelectAccessibleIdentifiers(ctx context.Context, username string, kind models.ObjectKind, permissions []models.ObjectPermissionType, identifiers []string) ([]string, error) {
	if len(permissions) == 0 || len(identifiers) == 0 {
		return []string{}, nil
	}

	permissionNames := make([]string, len(permissions))
	for i, permission := range permissions {
		permissionNames[i] = string(permission)
	}

	query := `SELECT DISTINCT identifier FROM object_permissions
		WHERE username = $1 AND kind = $2 AND permission = ANY($3) AND identifier = ANY($4)`

	rows, err := r.db.Pool.Query(ctx, query, username, string(kind), permissionNames, identifiers)
	if err != nil {
		return nil, fmt.Errorf("failed to query accessible identifiers: %w", err)
	}
	defer rows.Close()

	accessible := make([]string, 0)
	for rows.Next() {
		var identifier string
		if err := rows.Scan(&identifier); err != nil {
			return nil, fmt.Errorf("failed to scan identifier: %w", err)
		}
		accessible = append(accessible, identifier)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return accessible, nil
}

// Insert grants the given permissions as one atomic batch.
func (r *ObjectPermissionRepository) Insert(ctx context.Context, username string, kind models.ObjectKind, permissions []models.ObjectPermission) error {
	if len(permissions) == 0 {
		return nil
	}

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, permission := range permissions {
			_, err := tx.Exec(ctx,
				`INSERT INTO object_permissions (username, kind, identifier, permission)
				 VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`,
				username, string(kind), permission.Identifier, string(permission.Type),
			)
			if err != nil {
				return database.MapPostgresError(err)
			}
		}
		return nil
	})
}

// Delete revokes the given permissions as one atomic batch.
func (r *ObjectPermissionRepository) Delete(ctx context.Context, username string, kind models.ObjectKind, permissions []models.ObjectPermission) error {
	if len(permissions) == 0 {
		return nil
	}

	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, permission := range permissions {
			_, err := tx.Exec(ctx,
				`DELETE FROM object_permissions
				 WHERE username = $1 AND kind = $2 AND identifier = $3 AND permission = $4`,
				username, string(kind), permission.Identifier, string(permission.Type),
			)
			if err != nil {
				return database.MapPostgresError(err)
			}
		}
		return nil
	})
}

// DeleteForObject removes every grant over one object, across all users. Used
// when the object itself is removed from its directory.
func (r *ObjectPermissionRepository) DeleteForObject(ctx context.Context, kind models.ObjectKind, identifier string) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM object_permissions WHERE kind = $1 AND identifier = $2`,
		string(kind), identifier,
	)
	if err != nil {
		return database.MapPostgresError(err)
	}
	return nil
}
