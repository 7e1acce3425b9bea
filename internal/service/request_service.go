package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"assistix/internal/model"
	"assistix/internal/observability"
	"assistix/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type SubmitRequestDTO struct {
	SubmitterID int64
	DisplayName string
	TaskType    string
	Comment     string
	MediaKey    string
}

// --- Interface ---

// RequestService is the request lifecycle manager. Admin actions move a
// request freely between the non-terminal statuses; the submitter may only
// cancel, and nothing leaves cancelled.
type RequestService interface {
	Submit(ctx context.Context, dto SubmitRequestDTO) (*model.Request, error)
	Get(ctx context.Context, id int64) (*model.Request, error)
	GetOwned(ctx context.Context, id, submitterID int64) (*model.Request, error)
	ListAll(ctx context.Context, limit int) ([]model.Request, error)
	ListWaiting(ctx context.Context, limit int) ([]model.Request, error)
	ListBySubmitter(ctx context.Context, submitterID int64) ([]model.Request, error)
	ListActiveBySubmitter(ctx context.Context, submitterID int64) ([]model.Request, error)
	List(ctx context.Context, status model.RequestStatus, offset, limit int) ([]model.Request, int64, error)
	Submitters(ctx context.Context) ([]int64, error)
	ChangeStatus(ctx context.Context, actorID, id int64, status model.RequestStatus) (*model.Request, error)
	Cancel(ctx context.Context, submitterID, id int64) error
	TogglePermission(ctx context.Context, actorID, id int64) (bool, error)
	EditComment(ctx context.Context, submitterID, id int64, comment string) error
	Summary(ctx context.Context) (model.SummaryReport, error)
}

type requestService struct {
	requests  repository.RequestRepository
	taskTypes repository.TaskTypeRepository
	stats     repository.StatisticsRepository
	audit     repository.AuditRepository
	txm       repository.TransactionManager
}

func NewRequestService(
	requests repository.RequestRepository,
	taskTypes repository.TaskTypeRepository,
	stats repository.StatisticsRepository,
	audit repository.AuditRepository,
	txm repository.TransactionManager,
) RequestService {
	return &requestService{requests: requests, taskTypes: taskTypes, stats: stats, audit: audit, txm: txm}
}

// --- Implementation ---

func (s *requestService) Submit(ctx context.Context, dto SubmitRequestDTO) (*model.Request, error) {
	comment := strings.TrimSpace(dto.Comment)
	if comment == "" {
		return nil, ErrEmptyComment
	}

	catalog, err := s.taskTypes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load task types: %w", err)
	}
	if !slices.Contains(catalog, dto.TaskType) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTaskType, dto.TaskType)
	}

	req := &model.Request{
		SubmitterID: dto.SubmitterID,
		DisplayName: dto.DisplayName,
		TaskType:    dto.TaskType,
		Comment:     comment,
		MediaKey:    dto.MediaKey,
		Status:      model.StatusWaiting,
		CanMessage:  false,
	}

	err = s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.requests.Create(txCtx, req); err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		return s.log(txCtx, dto.SubmitterID, model.ActionCreateRequest, req.ID, map[string]interface{}{
			"task_type": req.TaskType,
			"has_media": req.MediaKey != "",
		})
	})
	if err != nil {
		return nil, err
	}

	observability.RequestsCreated.Inc()
	return req, nil
}

func (s *requestService) Get(ctx context.Context, id int64) (*model.Request, error) {
	req, err := s.requests.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	return req, nil
}

// GetOwned reports a request owned by someone else exactly like a missing one.
func (s *requestService) GetOwned(ctx context.Context, id, submitterID int64) (*model.Request, error) {
	req, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.SubmitterID != submitterID {
		return nil, ErrRequestNotFound
	}
	return req, nil
}

func (s *requestService) ListAll(ctx context.Context, limit int) ([]model.Request, error) {
	return s.requests.ListAll(ctx, limit)
}

func (s *requestService) ListWaiting(ctx context.Context, limit int) ([]model.Request, error) {
	return s.requests.ListByStatus(ctx, model.StatusWaiting, limit)
}

func (s *requestService) ListBySubmitter(ctx context.Context, submitterID int64) ([]model.Request, error) {
	return s.requests.ListBySubmitter(ctx, submitterID)
}

func (s *requestService) ListActiveBySubmitter(ctx context.Context, submitterID int64) ([]model.Request, error) {
	rows, err := s.requests.ListBySubmitter(ctx, submitterID)
	if err != nil {
		return nil, err
	}
	active := rows[:0]
	for _, r := range rows {
		if r.Status.Active() {
			active = append(active, r)
		}
	}
	return active, nil
}

func (s *requestService) List(ctx context.Context, status model.RequestStatus, offset, limit int) ([]model.Request, int64, error) {
	if status != "" && !status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	return s.requests.List(ctx, status, offset, limit)
}

func (s *requestService) Submitters(ctx context.Context) ([]int64, error) {
	return s.requests.DistinctSubmitters(ctx)
}

func (s *requestService) ChangeStatus(ctx context.Context, actorID, id int64, status model.RequestStatus) (*model.Request, error) {
	if !status.AdminSettable() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	var updated *model.Request
	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		ok, err := s.requests.SetStatus(txCtx, id, status)
		if err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}
		if !ok {
			return s.explainRejected(txCtx, id)
		}
		if err := s.log(txCtx, actorID, model.ActionChangeStatus, id, map[string]interface{}{"status": status}); err != nil {
			return err
		}
		updated, err = s.requests.FindByID(txCtx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.StatusTransitions.WithLabelValues(string(status)).Inc()
	return updated, nil
}

func (s *requestService) Cancel(ctx context.Context, submitterID, id int64) error {
	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.ownedMutable(txCtx, id, submitterID); err != nil {
			return err
		}
		ok, err := s.requests.SetStatus(txCtx, id, model.StatusCancelled)
		if err != nil {
			return fmt.Errorf("failed to cancel request: %w", err)
		}
		if !ok {
			return s.explainRejected(txCtx, id)
		}
		return s.log(txCtx, submitterID, model.ActionCancelRequest, id, nil)
	})
	if err != nil {
		return err
	}

	observability.StatusTransitions.WithLabelValues(string(model.StatusCancelled)).Inc()
	return nil
}

// TogglePermission flips the flag as currently stored, not as last seen by the caller.
func (s *requestService) TogglePermission(ctx context.Context, actorID, id int64) (bool, error) {
	var next bool
	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		req, err := s.requests.FindByID(txCtx, id)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRequestNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to load request: %w", err)
		}
		if req.Status.Terminal() {
			return ErrRequestCancelled
		}

		next = !req.CanMessage
		ok, err := s.requests.SetPermission(txCtx, id, next)
		if err != nil {
			return fmt.Errorf("failed to update permission: %w", err)
		}
		if !ok {
			return s.explainRejected(txCtx, id)
		}
		return s.log(txCtx, actorID, model.ActionTogglePermission, id, map[string]interface{}{"can_message": next})
	})
	return next, err
}

func (s *requestService) EditComment(ctx context.Context, submitterID, id int64, comment string) error {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return ErrEmptyComment
	}

	return s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.ownedMutable(txCtx, id, submitterID); err != nil {
			return err
		}
		ok, err := s.requests.SetComment(txCtx, id, comment)
		if err != nil {
			return fmt.Errorf("failed to update comment: %w", err)
		}
		if !ok {
			return s.explainRejected(txCtx, id)
		}
		return s.log(txCtx, submitterID, model.ActionEditComment, id, nil)
	})
}

// Summary tallies requests per status. Unknown stored statuses count as waiting.
func (s *requestService) Summary(ctx context.Context) (model.SummaryReport, error) {
	tallies, err := s.stats.CountByStatus(ctx)
	if err != nil {
		return model.SummaryReport{}, fmt.Errorf("failed to count requests: %w", err)
	}

	total := 0
	counts := make(map[model.RequestStatus]int, len(model.AllStatuses))
	for _, t := range tallies {
		status := t.Status
		if !status.Valid() {
			status = model.StatusWaiting
		}
		counts[status] += t.Count
		total += t.Count
	}
	return buildSummary(total, counts), nil
}

func buildSummary(total int, counts map[model.RequestStatus]int) model.SummaryReport {
	report := model.SummaryReport{Total: total, ByStatus: make([]model.StatusCount, 0, len(model.AllStatuses))}
	hundred := decimal.NewFromInt(100)
	for _, status := range model.AllStatuses {
		share := decimal.Zero
		if total > 0 {
			share = decimal.NewFromInt(int64(counts[status])).Mul(hundred).Div(decimal.NewFromInt(int64(total))).Round(2)
		}
		report.ByStatus = append(report.ByStatus, model.StatusCount{Status: status, Count: counts[status], Share: share})
	}
	return report
}

func (s *requestService) ownedMutable(ctx context.Context, id, submitterID int64) (*model.Request, error) {
	req, err := s.requests.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRequestNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load request: %w", err)
	}
	if req.SubmitterID != submitterID {
		return nil, ErrRequestNotFound
	}
	if req.Status.Terminal() {
		return nil, ErrRequestCancelled
	}
	return req, nil
}

// explainRejected turns a guarded update that matched nothing into the reason.
func (s *requestService) explainRejected(ctx context.Context, id int64) error {
	req, err := s.requests.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrRequestNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load request: %w", err)
	}
	if req.Status.Terminal() {
		return ErrRequestCancelled
	}
	return fmt.Errorf("request %d was not updated", id)
}

func (s *requestService) log(ctx context.Context, actorID int64, action string, requestID int64, details map[string]interface{}) error {
	payload := "{}"
	if details != nil {
		raw, _ := json.Marshal(details)
		payload = string(raw)
	}
	entry := model.AuditLog{
		ActorID:  actorID,
		Action:   action,
		EntityID: strconv.FormatInt(requestID, 10),
		Details:  payload,
	}
	if err := s.audit.Log(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}
