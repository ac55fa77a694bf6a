package db

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

// DevMode switches migration sourcing to the on-disk directory so that
// schema edits do not require a rebuild between runs.
var DevMode bool

const devMigrationsDir = "internal/db/migrations"

// getMigrationsFS returns the migration files with the .sql files at the
// root of the returned filesystem.
func getMigrationsFS() (fs.FS, error) {
	if DevMode {
		if _, err := os.Stat(devMigrationsDir); err != nil {
			return nil, fmt.Errorf("dev migrations directory unavailable: %w", err)
		}
		return os.DirFS(devMigrationsDir), nil
	}

	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	return sub, nil
}

// MigrationsFS exposes the active migration source for callers outside
// the package, such as the migrate subcommand.
func MigrationsFS() (fs.FS, error) {
	return getMigrationsFS()
}
