package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/gatewarden/gatewarden/internal/database"
	"github.com/gatewarden/gatewarden/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `username, password_salt, password_hash, password_date,
		disabled, expired, access_window_start, access_window_end,
		valid_from, valid_until, timezone, created_at, updated_at`

type UserRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// rowScanner interface for scanning user rows (supports both single row and multiple rows)
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanUserRow handles nullable fields and populates a User model from a database row
func scanUserRow(scanner rowScanner) (*models.User, error) {
	var user models.User
	var windowStart, windowEnd pgtype.Time
	var validFrom, validUntil pgtype.Date
	var timeZone *string

	err := scanner.Scan(
		&user.Username, &user.PasswordSalt, &user.PasswordHash, &user.PasswordDate,
		&user.Disabled, &user.Expired, &windowStart, &windowEnd,
		&validFrom, &validUntil, &timeZone,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}

	user.AccessWindowStart = timeOfDayFromColumn(windowStart)
	user.AccessWindowEnd = timeOfDayFromColumn(windowEnd)
	user.ValidFrom = dateFromColumn(validFrom)
	user.ValidUntil = dateFromColumn(validUntil)
	user.TimeZone = timeZone

	return &user, nil
}

// scanUserRows iterates through rows and scans each into User models
func scanUserRows(rows pgx.Rows) ([]*models.User, error) {
	defer rows.Close()

	users := make([]*models.User, 0)

	for rows.Next() {
		user, err := scanUserRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return users, nil
}

func timeOfDayFromColumn(t pgtype.Time) *models.TimeOfDay {
	if !t.Valid {
		return nil
	}
	secs := t.Microseconds / 1_000_000
	return &models.TimeOfDay{
		Hour:   int(secs / 3600),
		Minute: int(secs / 60 % 60),
		Second: int(secs % 60),
	}
}

func timeOfDayColumn(t *models.TimeOfDay) pgtype.Time {
	if t == nil {
		return pgtype.Time{}
	}
	return pgtype.Time{
		Microseconds: int64(t.Hour*3600+t.Minute*60+t.Second) * 1_000_000,
		Valid:        true,
	}
}

func dateFromColumn(d pgtype.Date) *models.Date {
	if !d.Valid {
		return nil
	}
	return &models.Date{Year: d.Time.Year(), Month: d.Time.Month(), Day: d.Time.Day()}
}

func dateColumn(d *models.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC), Valid: true}
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUserRow(r.db.Pool.QueryRow(ctx, query, username))
	if err != nil {
		return nil, err
	}

	return user, nil
}

// GetMultiple returns the users matching the given usernames. Usernames with
// no matching row are omitted from the result.
func (r *UserRepository) GetMultiple(ctx context.Context, usernames []string) ([]*models.User, error) {
	if len(usernames) == 0 {
		return []*models.User{}, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE username = ANY($1)`

	rows, err := r.db.Pool.Query(ctx, query, usernames)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}

	return scanUserRows(rows)
}

func (r *UserRepository) List(ctx context.Context) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT username FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("failed to query usernames: %w", err)
	}
	defer rows.Close()

	usernames := make([]string, 0)
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("failed to scan username: %w", err)
		}
		usernames = append(usernames, username)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return usernames, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + userColumns

	createdUser, err := scanUserRow(r.db.Pool.QueryRow(ctx, query,
		user.Username, user.PasswordSalt, user.PasswordHash, user.PasswordDate,
		user.Disabled, user.Expired,
		timeOfDayColumn(user.AccessWindowStart), timeOfDayColumn(user.AccessWindowEnd),
		dateColumn(user.ValidFrom), dateColumn(user.ValidUntil), user.TimeZone,
		user.CreatedAt, user.UpdatedAt,
	))
	if err != nil {
		return nil, err
	}

	return createdUser, nil
}

// Update persists the restriction attributes of the given user. Password
// columns are deliberately excluded; they change only through UpdatePassword.
func (r *UserRepository) Update(ctx context.Context, user *models.User) (*models.User, error) {
	user.UpdatedAt = time.Now()

	query := `
		UPDATE users SET disabled = $1, expired = $2, access_window_start = $3,
			access_window_end = $4, valid_from = $5, valid_until = $6,
			timezone = $7, updated_at = $8
		WHERE username = $9
		RETURNING ` + userColumns

	updatedUser, err := scanUserRow(r.db.Pool.QueryRow(ctx, query,
		user.Disabled, user.Expired,
		timeOfDayColumn(user.AccessWindowStart), timeOfDayColumn(user.AccessWindowEnd),
		dateColumn(user.ValidFrom), dateColumn(user.ValidUntil), user.TimeZone,
		user.UpdatedAt, user.Username,
	))
	if err != nil {
		return nil, err
	}

	return updatedUser, nil
}

// UpdatePassword replaces the stored credential record in a single statement.
func (r *UserRepository) UpdatePassword(ctx context.Context, username string, salt, hash []byte, passwordDate time.Time) error {
	query := `
		UPDATE users SET password_salt = $1, password_hash = $2, password_date = $3, updated_at = $4
		WHERE username = $5
	`

	result, err := r.db.Pool.Exec(ctx, query, salt, hash, passwordDate, time.Now(), username)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}

// Delete removes the user row. Permission grants held by the user cascade via
// foreign keys, so grant revocation and row removal are one atomic unit.
func (r *UserRepository) Delete(ctx context.Context, username string) error {
	query := `DELETE FROM users WHERE username = $1`

	result, err := r.db.Pool.Exec(ctx, query, username)
	if err != nil {
		return database.MapPostgresError(err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrNotFound
	}

	return nil
}
