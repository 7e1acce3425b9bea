package repository

import (
	"context"
	"fmt"

	"assistix/internal/model"

	"gorm.io/gorm"
)

// RequestRepository is the persistent store for Request rows. It carries no
// business rules beyond the row-level invariant that a cancelled request is frozen.
type RequestRepository interface {
	Create(ctx context.Context, req *model.Request) error
	FindByID(ctx context.Context, id int64) (*model.Request, error)
	ListAll(ctx context.Context, limit int) ([]model.Request, error)
	ListByStatus(ctx context.Context, status model.RequestStatus, limit int) ([]model.Request, error)
	ListBySubmitter(ctx context.Context, submitterID int64) ([]model.Request, error)
	List(ctx context.Context, status model.RequestStatus, offset, limit int) ([]model.Request, int64, error)
	DistinctSubmitters(ctx context.Context) ([]int64, error)
	SetStatus(ctx context.Context, id int64, status model.RequestStatus) (bool, error)
	SetPermission(ctx context.Context, id int64, canMessage bool) (bool, error)
	SetComment(ctx context.Context, id int64, comment string) (bool, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *model.Request) error {
	if !req.Status.Valid() {
		return fmt.Errorf("invalid status %q", req.Status)
	}
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id int64) (*model.Request, error) {
	var req model.Request
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// ListAll returns the most recent requests first; limit <= 0 means no limit.
func (r *requestRepository) ListAll(ctx context.Context, limit int) ([]model.Request, error) {
	return r.find(GetDB(ctx, r.db), limit)
}

func (r *requestRepository) ListByStatus(ctx context.Context, status model.RequestStatus, limit int) ([]model.Request, error) {
	return r.find(GetDB(ctx, r.db).Where("status = ?", status), limit)
}

func (r *requestRepository) ListBySubmitter(ctx context.Context, submitterID int64) ([]model.Request, error) {
	return r.find(GetDB(ctx, r.db).Where("submitter_id = ?", submitterID), 0)
}

func (r *requestRepository) find(query *gorm.DB, limit int) ([]model.Request, error) {
	var requests []model.Request
	query = query.Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

// List is the paginated variant used by the REST surface.
func (r *requestRepository) List(ctx context.Context, status model.RequestStatus, offset, limit int) ([]model.Request, int64, error) {
	var requests []model.Request
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Request{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	fetchQuery := db
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("id DESC").Offset(offset).Limit(limit).Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *requestRepository) DistinctSubmitters(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := GetDB(ctx, r.db).Model(&model.Request{}).Distinct("submitter_id").Pluck("submitter_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// SetStatus, SetPermission and SetComment are single guarded UPDATEs. They
// report whether a mutable row matched: false means the id is absent or the
// request is cancelled. Repeating a call with the same value is harmless.
func (r *requestRepository) SetStatus(ctx context.Context, id int64, status model.RequestStatus) (bool, error) {
	if !status.Valid() {
		return false, fmt.Errorf("invalid status %q", status)
	}
	return r.update(ctx, id, "status", status)
}

func (r *requestRepository) SetPermission(ctx context.Context, id int64, canMessage bool) (bool, error) {
	return r.update(ctx, id, "can_message", canMessage)
}

func (r *requestRepository) SetComment(ctx context.Context, id int64, comment string) (bool, error) {
	return r.update(ctx, id, "comment", comment)
}

func (r *requestRepository) update(ctx context.Context, id int64, column string, value interface{}) (bool, error) {
	res := GetDB(ctx, r.db).Model(&model.Request{}).
		Where("id = ? AND status <> ?", id, model.StatusCancelled).
		Update(column, value)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
