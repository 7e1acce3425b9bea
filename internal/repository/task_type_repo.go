package repository

import (
	"context"

	"assistix/internal/model"

	"gorm.io/gorm"
)

type TaskTypeRepository interface {
	List(ctx context.Context) ([]string, error)
	Replace(ctx context.Context, labels []string) error
}

type taskTypeRepository struct {
	db *gorm.DB
}

func NewTaskTypeRepository(db *gorm.DB) TaskTypeRepository {
	return &taskTypeRepository{db: db}
}

// List returns the catalog in display order.
func (r *taskTypeRepository) List(ctx context.Context) ([]string, error) {
	var labels []string
	if err := GetDB(ctx, r.db).Model(&model.TaskType{}).Order("position ASC, id ASC").Pluck("label", &labels).Error; err != nil {
		return nil, err
	}
	return labels, nil
}

// Replace discards the whole catalog and inserts labels in order. Duplicate
// labels keep their first position. Callers wanting atomicity with other
// writes pass a transaction context; on its own it opens one.
func (r *taskTypeRepository) Replace(ctx context.Context, labels []string) error {
	rows := make([]model.TaskType, 0, len(labels))
	seen := make(map[string]bool, len(labels))
	for _, label := range labels {
		if seen[label] {
			continue
		}
		seen[label] = true
		rows = append(rows, model.TaskType{Label: label, Position: len(rows)})
	}

	return GetDB(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.TaskType{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	})
}
