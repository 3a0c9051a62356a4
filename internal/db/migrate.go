package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/diewo77/go-intake/internal/models"
	migrate "github.com/golang-migrate/migrate/v4"
	// Registers the postgres driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate runs AutoMigrate for all models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// Auth & Authorization
		&models.Permission{},
		&models.Profile{},
		&models.User{},
		// Intake
		&models.Case{},
		&models.Attachment{},
		&models.Payment{},
	)
}

// MigrateSQL applies the embedded SQL migrations to a postgres database
// given in URL form.
func MigrateSQL(databaseURL string) error {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return err
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("init sql migrations: %w", err)
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sql migrations: %w", err)
	}
	return nil
}

// Seed initializes the database with required seed data.
// Should be called after Migrate.
func Seed(db *gorm.DB) error {
	return SeedProfiles(db)
}
