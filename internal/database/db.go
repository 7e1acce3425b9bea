package database

import (
	"context"
	"fmt"
	"log/slog"

	"assistix/internal/config"
	"assistix/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewConnection opens the store selected by cfg.DBDriver and migrates the schema
func NewConnection(cfg *config.Config) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBDriver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.PostgresDSN())
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.SQLiteDSN())
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate auto-migrates core models
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Request{},
		&model.Admin{},
		&model.TaskType{},
		&model.AuditLog{},
	); err != nil {
		return fmt.Errorf("failed to auto-migrate models: %w", err)
	}
	return nil
}

// SeedTaskTypes fills an empty catalog with the default labels.
func SeedTaskTypes(ctx context.Context, db *gorm.DB, log *slog.Logger) error {
	var count int64
	if err := db.WithContext(ctx).Model(&model.TaskType{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	rows := make([]model.TaskType, 0, len(model.DefaultTaskTypes))
	for i, label := range model.DefaultTaskTypes {
		rows = append(rows, model.TaskType{Label: label, Position: i})
	}
	if err := db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to seed task types: %w", err)
	}
	log.Info("seeded task-type catalog", slog.Int("count", len(rows)))
	return nil
}
