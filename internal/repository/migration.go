package repository

import (
	"database/sql"
	"errors"
	"fmt"

	"mediashelf/internal/db/migrations"
	"mediashelf/internal/logging"

	"github.com/pressly/goose/v3"
)

const migrationsDir = "."

func configureGoose() error {
	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	return goose.SetDialect("sqlite3")
}

// MigrateUp applies every pending migration.
func (s *Repository) MigrateUp() error {
	if err := configureGoose(); err != nil {
		return err
	}
	return goose.Up(s.DB, migrationsDir)
}

// MigrateDown rolls the schema back by one version.
func (s *Repository) MigrateDown() error {
	if err := configureGoose(); err != nil {
		return err
	}
	return goose.Down(s.DB, migrationsDir)
}

// MigrationStatus logs the state of every migration.
func (s *Repository) MigrationStatus() error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	goose.SetLogger(logging.Log)
	return goose.Status(s.DB, migrationsDir)
}

// EnsureSchemaBootstrapped migrates a brand new database to the latest version.
// A database that already carries a goose version table is left alone so
// upgrades stay an explicit "migrate up".
func (s *Repository) EnsureSchemaBootstrapped() error {
	var name string
	err := s.DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='goose_db_version'").Scan(&name)
	if err == nil {
		logging.Log.Debug("Database already initialized, skipping bootstrap.")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to inspect database: %w", err)
	}

	logging.Log.Info("Fresh database detected, applying migrations...")
	if err := s.MigrateUp(); err != nil {
		return fmt.Errorf("failed to bootstrap schema: %w", err)
	}
	return nil
}

// ValidateSchema fails when the database is behind the embedded migrations.
func (s *Repository) ValidateSchema() error {
	if err := configureGoose(); err != nil {
		return err
	}

	current, err := goose.GetDBVersion(s.DB)
	if err != nil {
		return fmt.Errorf("database schema is outdated: %w", err)
	}

	all, err := goose.CollectMigrations(migrationsDir, 0, goose.MaxVersion)
	if err != nil {
		return fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	latest, err := all.Last()
	if err != nil {
		return fmt.Errorf("failed to read embedded migrations: %w", err)
	}

	if current < latest.Version {
		return fmt.Errorf("database schema is outdated (version %d, expected %d): run 'mediashelf migrate up'", current, latest.Version)
	}
	return nil
}
