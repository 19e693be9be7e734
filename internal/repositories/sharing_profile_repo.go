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

const sharingProfileColumns = `id, name, primary_connection_id, created_at, updated_at`

type SharingProfileRepository struct {
	db *database.DB
}

func NewSharingProfileRepository(db *database.DB) *SharingProfileRepository {
	return &SharingProfileRepository{db: db}
}

func scanSharingProfileRow(scanner rowScanner) (*models.SharingProfile, error) {
	var profile models.SharingProfile

	err := scanner.Scan(
		&profile.ID, &profile.Name, &profile.PrimaryConnectionID,
		&profile.CreatedAt, &profile.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	return &profile, nil
}

func scanSharingProfileRows(rows pgx.Rows) ([]*models.SharingProfile, error) {
	defer rows.Close()

	profiles := make([]*models.SharingProfile, 0)
	for rows.Next() {
		profile, err := scanSharingProfileRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sharing profile: %w", err)
		}
		profiles = append(profiles, profile)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return profiles, nil
}

func (r *SharingProfileRepository) GetByID(ctx context.Context, id string) (*models.SharingProfile, error) {
	query := `SELECT ` + sharingProfileColumns + ` FROM sharing_profiles WHERE id = $1`
	return scanSharingProfileRow(r.db.Pool.QueryRow(ctx, query, id))
}

func (r *SharingProfileRepository) GetMultiple(ctx context.Context, ids []string) ([]*models.SharingProfile, error) {
	if len(ids) == 0 {
		return []*models.SharingProfile{}, nil
	}

	query := `SELECT ` + sharingProfileColumns + ` FROM sharing_profiles WHERE id = ANY($1)`

	rows, err := r.db.Pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query sharing profiles: %w", err)
	}

	return scanSharingProfileRows(rows)
}

func (r *SharingProfileRepository) List(ctx context.Context) ([]string, error) {
	return listIdentifiers(ctx, r.db, `SELECT id FROM sharing_profiles ORDER BY name`)
}

func (r *SharingProfileRepository) Create(ctx context.Context, profile *models.SharingProfile) (*models.SharingProfile, error) {
	profile.ID = uuid.New().String()

	now := time.Now()
	profile.CreatedAt = now
	profile.UpdatedAt = now

	query := `
		INSERT INTO sharing_profiles (` + sharingProfileColumns + `)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + sharingProfileColumns

	return scanSharingProfileRow(r.db.Pool.QueryRow(ctx, query,
		profile.ID, profile.Name, profile.PrimaryConnectionID,
		profile.CreatedAt, profile.UpdatedAt,
	))
}

func (r *SharingProfileRepository) Update(ctx context.Context, profile *models.SharingProfile) (*models.SharingProfile, error) {
	profile.UpdatedAt = time.Now()

	query := `
		UPDATE sharing_profiles SET name = $1, primary_connection_id = $2, updated_at = $3
		WHERE id = $4
		RETURNING ` + sharingProfileColumns

	return scanSharingProfileRow(r.db.Pool.QueryRow(ctx, query,
		profile.Name, profile.PrimaryConnectionID, profile.UpdatedAt, profile.ID,
	))
}

func (r *SharingProfileRepository) Delete(ctx context.Context, id string) error {
	return deleteByID(ctx, r.db, `DELETE FROM sharing_profiles WHERE id = $1`, id)
}
