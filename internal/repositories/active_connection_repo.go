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

const activeConnectionColumns = `id, connection_id, username, remote_host, started_at`

// ActiveConnectionRepository tracks in-progress sessions. Rows are created by
// the tunnel layer when a session is established and removed when it ends or
// is forcibly terminated through the directory.
type ActiveConnectionRepository struct {
	db *database.DB
}

func NewActiveConnectionRepository(db *database.DB) *ActiveConnectionRepository {
	return &ActiveConnectionRepository{db: db}
}

func scanActiveConnectionRow(scanner rowScanner) (*models.ActiveConnection, error) {
	var active models.ActiveConnection

	err := scanner.Scan(
		&active.ID, &active.ConnectionID, &active.Username,
		&active.RemoteHost, &active.StartedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &active, nil
}

func scanActiveConnectionRows(rows pgx.Rows) ([]*models.ActiveConnection, error) {
	defer rows.Close()

	actives := make([]*models.ActiveConnection, 0)
	for rows.Next() {
		active, err := scanActiveConnectionRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan active connection: %w", err)
		}
		actives = append(actives, active)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return actives, nil
}

func (r *ActiveConnectionRepository) GetByID(ctx context.Context, id string) (*models.ActiveConnection, error) {
	query := `SELECT ` + activeConnectionColumns + ` FROM active_connections WHERE id = $1`
	return scanActiveConnectionRow(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *ActiveConnectionRepository) GetMultiple(ctx context.Context, ids []string) ([]*models.ActiveConnection, error) {
	if len(ids) == 0 {
		return []*models.ActiveConnection{}, nil
	}

	query := `SELECT ` + activeConnectionColumns + ` FROM active_connections WHERE id = ANY($1)`

	rows, err := r.db.Pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query active connections: %w", err)
	}

	return scanActiveConnectionRows(rows)
}

func (r *ActiveConnectionRepository) List(ctx context.Context) ([]string, error) {
	return listIdentifiers(ctx, r.db, `SELECT id FROM active_connections ORDER BY started_at`)
}

func (r *ActiveConnectionRepository) Create(ctx context.Context, active *models.ActiveConnection) (*models.ActiveConnection, error) {
	active.ID = uuid.New().String()
	if active.StartedAt.IsZero() {
		active.StartedAt = time.Now()
	}

	query := `
		INSERT INTO active_connections (` + activeConnectionColumns + `)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + activeConnectionColumns

	return scanActiveConnectionRow(r.db.Pool.QueryRow(ctx, query,
		active.ID, active.ConnectionID, active.Username,
		active.RemoteHost, active.StartedAt,
	))
}

func (r *ActiveConnectionRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, `DELETE FROM active_connections WHERE id = $1`, id)
}
