package database

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/gatewarden/gatewarden/migrations"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Migrate applies any pending schema migrations. Migration runs through
// database/sql rather than the pgx pool because goose requires the standard
// driver interface.
func Migrate(dsn string, logger *slog.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("unable to open migration connection: %w", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("unable to set migration dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}

	logger.Info("database migrations applied")
	return nil
}
