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

const connectionColumns = `id, name, protocol, parent_group_id,
		max_connections, max_connections_per_user, created_at, updated_at`

type ConnectionRepository struct {
	db *database.DB
}

func NewConnectionRepository(db *database.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

func scanConnectionRow(scanner rowScanner) (*models.Connection, error) {
	var conn models.Connection

	err := scanner.Scan(
		&conn.ID, &conn.Name, &conn.Protocol, &conn.ParentGroupID,
		&conn.MaxConnections, &conn.MaxConnectionsPerUser,
		&conn.CreatedAt, &conn.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &conn, nil
}

func scanConnectionRows(rows pgx.Rows) ([]*models.Connection, error) {
	defer rows.Close()

	conns := make([]*models.Connection, 0)
	for rows.Next() {
		conn, err := scanConnectionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}
		conns = append(conns, conn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return conns, nil
}

func (r *ConnectionRepository) GetByID(ctx context.Context, id string) (*models.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE id = $1`
	return scanConnectionRow(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *ConnectionRepository) GetMultiple(ctx context.Context, ids []string) ([]*models.Connection, error) {
	if len(ids) == 0 {
		return []*models.Connection{}, nil
	}

	query := `SELECT ` + connectionColumns + ` FROM connections WHERE id = ANY($1)`

	rows, err := r.db.Pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query connections: %w", err)
	}

	return scanConnectionRows(rows)
}

func (r *ConnectionRepository) List(ctx context.Context) ([]string, error) {
	return listIdentifiers(ctx, r.db, `SELECT id FROM connections ORDER BY name`)
}

func (r *ConnectionRepository) Create(ctx context.Context, conn *models.Connection) (*models.Connection, error) {
	conn.ID = uuid.New().String()

	now := time.Now()
	conn.CreatedAt = now
	conn.UpdatedAt = now

	query := `
		INSERT INTO connections (` + connectionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + connectionColumns

	return scanConnectionRow(r.db.Pool.QueryRow(ctx, query,
		conn.ID, conn.Name, conn.Protocol, conn.ParentGroupID,
		conn.MaxConnections, conn.MaxConnectionsPerUser,
		conn.CreatedAt, conn.UpdatedAt,
	))
}

func (r *ConnectionRepository) Update(ctx context.Context, conn *models.Connection) (*models.Connection, error) {
	conn.UpdatedAt = time.Now()

	query := `
		UPDATE connections SET name = $1, protocol = $2, parent_group_id = $3,
			max_connections = $4, max_connections_per_user = $5, updated_at = $6
		WHERE id = $7
		RETURNING ` + connectionColumns

	return scanConnectionRow(r.db.Pool.QueryRow(ctx, query,
		conn.Name, conn.Protocol, conn.ParentGroupID,
		conn.MaxConnections, conn.MaxConnectionsPerUser, conn.UpdatedAt, conn.ID,
	))
}

func (r *ConnectionRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, `DELETE FROM connections WHERE id = $1`, id)
}

// listIdentifiers runs a single-column identifier query shared by the
// resource repositories.
func listIdentifiers(ctx context.Context, db *database.DB, query string) ([]string, error) {
	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query identifiers: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan identifier: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return ids, nil
}

func deleteByID(ctx context.Context, db *database.DB, query, id string) error {
	result, err := db.Pool.Exec(ctx, query, id)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
