package repository

import (
	"context"

	"assistix/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AdminRepository stores the runtime-managed part of the admin allow-list
type AdminRepository interface {
	Add(ctx context.Context, id int64) error
	Remove(ctx context.Context, id int64) error
	List(ctx context.Context) ([]int64, error)
}

type adminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) AdminRepository {
	return &adminRepository{db: db}
}

// Add inserts id; inserting an existing id is a no-op.
func (r *adminRepository) Add(ctx context.Context, id int64) error {
	return GetDB(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(&model.Admin{ID: id}).Error
}

func (r *adminRepository) Remove(ctx context.Context, id int64) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Admin{}).Error
}

func (r *adminRepository) List(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := GetDB(ctx, r.db).Model(&model.Admin{}).Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
