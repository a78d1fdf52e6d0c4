package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/db"
)

func newDBCmd() *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the database",
		Long:  `Manage the database schema and migrations.`,
		RunE:  requireSubcommand,
	}

	dbCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create and/or upgrade the database schema",
		Long: `Create and/or upgrade the database schema.

This command runs all pending database migrations to bring the schema
up to date.

Example:
  bouncerctl db migrate`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrations(cmd)
		},
	})

	dbCmd.AddCommand(&cobra.Command{
		Use:   "down [steps]",
		Short: "Rollback database migrations",
		Long: `Rollback database migrations.

This command rolls back the specified number of migrations (default: 1).

Example:
  bouncerctl db down      # Rollback 1 migration
  bouncerctl db down 3    # Rollback 3 migrations`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) > 0 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 1 {
					return fmt.Errorf("invalid number of steps: %q", args[0])
				}
				steps = n
			}
			return runMigrationsDown(cmd, steps)
		},
	})

	dbCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show current migration version",
		Long:  `Show the current database migration version.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return showMigrationStatus(cmd)
		},
	})

	return dbCmd
}

func openMigrate() (*migrate.Migrate, error) {
	dbURL := db.URL()
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required")
	}
	m, err := createMigrateInstance(dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

func runMigrations(cmd *cobra.Command) error {
	m, err := openMigrate()
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	out := cmd.OutOrStdout()
	version, dirty, _ := m.Version()
	fmt.Fprintf(out, "Current version: %d (dirty: %v)\n", version, dirty)

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Fprintln(out, "No migrations to run - database is up to date")
			return nil
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	newVersion, _, _ := m.Version()
	fmt.Fprintf(out, "Migrated to version: %d\n", newVersion)
	return nil
}

func runMigrationsDown(cmd *cobra.Command, steps int) error {
	m, err := openMigrate()
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Rolling back %d migration(s)...\n", steps)

	if err := m.Steps(-steps); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	version, _, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		fmt.Fprintln(out, "Rolled back all migrations")
		return nil
	}
	fmt.Fprintf(out, "Rolled back to version: %d\n", version)
	return nil
}

func showMigrationStatus(cmd *cobra.Command) error {
	m, err := openMigrate()
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	out := cmd.OutOrStdout()
	version, dirty, err := m.Version()
	if err != nil {
		if errors.Is(err, migrate.ErrNilVersion) {
			fmt.Fprintln(out, "No migrations have been applied yet")
			return nil
		}
		return err
	}

	fmt.Fprintf(out, "Current version: %d\n", version)
	if dirty {
		fmt.Fprintln(out, "Warning: Database is in a dirty state")
	}
	return nil
}
