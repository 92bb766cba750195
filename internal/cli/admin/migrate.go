package admin

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cloo-solutions/docindex/internal/config"
	"github.com/cloo-solutions/docindex/internal/logging"
)

const defaultMigrationsDir = "migrations"

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate [up|down]",
		Short: "Apply or roll back database migrations",
		Long:  "Apply all pending migrations (up, the default) or roll back the given number of steps (down)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMigrate,
	}

	cmd.Flags().String("dir", defaultMigrationsDir, "Directory holding the migration files")
	cmd.Flags().Int("steps", 1, "Number of migrations to roll back with down")

	return cmd
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.Setup(cfg.Debug)

	dir, _ := cmd.Flags().GetString("dir")
	direction := "up"
	if len(args) == 1 {
		direction = args[0]
	}

	switch direction {
	case "up":
		return runMigrations(cfg.DatabaseURL, dir, logger)
	case "down":
		steps, _ := cmd.Flags().GetInt("steps")
		if steps <= 0 {
			return fmt.Errorf("--steps must be positive")
		}
		return rollbackMigrations(cfg.DatabaseURL, dir, steps, logger)
	default:
		return fmt.Errorf("unknown direction %q (expected up or down)", direction)
	}
}

func newMigrate(databaseURL, dir string) (*migrate.Migrate, func(), error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database for migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, func() { db.Close() }, nil
}

func runMigrations(databaseURL, dir string, logger zerolog.Logger) error {
	m, closeDB, err := newMigrate(databaseURL, dir)
	if err != nil {
		return err
	}
	defer closeDB()

	upErr := m.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", upErr)
	}

	version, dirty, err := m.Version()
	switch {
	case errors.Is(err, migrate.ErrNilVersion):
		logger.Info().Msg("migrations: no migrations applied")
	case err != nil:
		return fmt.Errorf("failed to get migration version: %w", err)
	case dirty:
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	case errors.Is(upErr, migrate.ErrNoChange):
		logger.Info().Uint("version", version).Msg("migrations: database is up to date")
	default:
		logger.Info().Uint("version", version).Msg("migrations: applied successfully")
	}
	return nil
}

func rollbackMigrations(databaseURL, dir string, steps int, logger zerolog.Logger) error {
	m, closeDB, err := newMigrate(databaseURL, dir)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to roll back migrations: %w", err)
	}
	logger.Info().Int("steps", steps).Msg("migrations: rolled back")
	return nil
}
