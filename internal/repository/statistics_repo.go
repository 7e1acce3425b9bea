package repository

import (
	"context"

	"assistix/internal/model"

	"gorm.io/gorm"
)

// StatusTally is one GROUP BY row; Status is whatever is stored.
type StatusTally struct {
	Status model.RequestStatus
	Count  int
}

type StatisticsRepository interface {
	CountByStatus(ctx context.Context) ([]StatusTally, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) CountByStatus(ctx context.Context) ([]StatusTally, error) {
	var rows []StatusTally
	err := GetDB(ctx, r.db).Model(&model.Request{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	return rows, err
}
