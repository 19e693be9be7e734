package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/gatewarden/gatewarden/internal/database"
	"github.com/gatewarden/gatewarden/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const connectionGroupColumns = `id, name, group_type, parent_group_id,
		max_connections, max_connections_per_user, created_at, updated_at`

type ConnectionGroupRepository struct {
	db *database.DB
}

func NewConnectionGroupRepository(db *database.DB) *ConnectionGroupRepository {
	return &ConnectionGroupRepository{db: db}
}

func scanConnectionGroupRow(scanner rowScanner) (*models.ConnectionGroup, error) {
	var group models.ConnectionGroup

	err := scanner.Scan(
		&group.ID, &group.Name, &group.Type, &group.ParentGroupID,
		&group.MaxConnections, &group.MaxConnectionsPerUser,
		&group.CreatedAt, &group.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &group, nil
}

func scanConnectionGroupRows(rows pgx.Rows) ([]*models.ConnectionGroup, error) {
	defer rows.Close()

	groups := make([]*models.ConnectionGroup, 0)
	for rows.Next() {
		group, err := scanConnectionGroupRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection group: %w", err)
		}
		groups = append(groups, group)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return groups, nil
}

func (r *ConnectionGroupRepository) GetByID(ctx context.Context, id string) (*models.ConnectionGroup, error) {
	query := `SELECT ` + connectionGroupColumns + ` FROM connection_groups WHERE id = $1`
	return scanConnectionGroupRow(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *ConnectionGroupRepository) GetMultiple(ctx context.Context, ids []string) ([]*models.ConnectionGroup, error) {
	if len(ids) == 0 {
		return []*models.ConnectionGroup{}, nil
	}

	query := `SELECT ` + connectionGroupColumns + ` FROM connection_groups WHERE id = ANY($1)`

	rows, err := r.db.Pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query connection groups: %w", err)
	}

	return scanConnectionGroupRows(rows)
}

func (r *ConnectionGroupRepository) List(ctx context.Context) ([]string, error) {
	return listIdentifiers(ctx, r.db, `SELECT id FROM connection_groups ORDER BY name`)
}

func (r *ConnectionGroupRepository) Create(ctx context.Context, group *models.ConnectionGroup) (*models.ConnectionGroup, error) {
	group.ID = uuid.New().String()

	if group.Type == "" {
		group.Type = models.GroupOrganizational
	}

	now := time.Now()
	group.CreatedAt = now
	group.UpdatedAt = now

	query := `
		INSERT INTO connection_groups (` + connectionGroupColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + connectionGroupColumns

	return scanConnectionGroupRow(r.db.Pool.QueryRow(ctx, query,
		group.ID, group.Name, string(group.Type), group.ParentGroupID,
		group.MaxConnections, group.MaxConnectionsPerUser,
		group.CreatedAt, group.UpdatedAt,
	))
}

func (r *ConnectionGroupRepository) Update(ctx context.Context, group *models.ConnectionGroup) (*models.ConnectionGroup, error) {
	group.UpdatedAt = time.Now()

	query := `
		UPDATE connection_groups SET name = $1, group_type = $2, parent_group_id = $3,
			max_connections = $4, max_connections_per_user = $5, updated_at = $6
		WHERE id = $7
		RETURNING ` + connectionGroupColumns

	return scanConnectionGroupRow(r.db.Pool.QueryRow(ctx, query,
		group.Name, string(group.Type), group.ParentGroupID,
		group.MaxConnections, group.MaxConnectionsPerUser, group.UpdatedAt, group.ID,
	))
}

func (r *ConnectionGroupRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, `DELETE FROM connection_groups WHERE id = $1`, id)
}
