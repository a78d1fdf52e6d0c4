//go:build !embed_migrations

package main

import (
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

const defaultMigrationsPath = "db/migrations"

// createMigrateInstance reads migrations from BOUNCER_MIGRATIONS_PATH, or
// db/migrations relative to the working directory.
func createMigrateInstance(dbURL string) (*migrate.Migrate, error) {
	path := os.Getenv("BOUNCER_MIGRATIONS_PATH")
	if path == "" {
		path = defaultMigrationsPath
	}
	return migrate.New("file://"+path, dbURL)
}
