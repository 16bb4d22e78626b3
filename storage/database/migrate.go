package database

import (
	"database/sql"
	"embed"

	"github.com/pkg/errors"
	"github.com/trezcool/goose"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate runs all pending migrations.
func Migrate(db *sql.DB) error {
	if err := goose.RunFS("up", db, migrationsFS, "migrations"); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// RunMigrationCommand exposes the full goose command set to the admin CLI.
func RunMigrationCommand(command string, db *sql.DB, args ...string) error {
	return goose.RunFS(command, db, migrationsFS, "migrations", args...)
}
