package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"assistix/internal/cache"
	"assistix/internal/model"
	"assistix/internal/repository"
)

// Access is the capability level of an account in the admin flow.
type Access int

const (
	AccessNone Access = iota
	AccessAdmin
	AccessPrimary
)

func (a Access) String() string {
	switch a {
	case AccessPrimary:
		return "primary"
	case AccessAdmin:
		return "admin"
	default:
		return "none"
	}
}

// AdminService owns the allow-list and the task-type catalog.
type AdminService interface {
	Access(ctx context.Context, accountID int64) (Access, error)
	AdminIDs(ctx context.Context) ([]int64, error)
	StoreAdmins(ctx context.Context) ([]int64, error)
	AddAdmin(ctx context.Context, actorID, id int64) error
	RemoveAdmin(ctx context.Context, actorID, id int64) error
	TaskTypes(ctx context.Context) ([]string, error)
	ReplaceTaskTypes(ctx context.Context, actorID int64, raw string) ([]string, error)
}

type adminService struct {
	primaryID int64
	static    []int64
	admins    repository.AdminRepository
	taskTypes repository.TaskTypeRepository
	audit     repository.AuditRepository
	txm       repository.TransactionManager
	cache     *cache.AdminCache
	log       *slog.Logger
}

// NewAdminService wires the allow-list. primaryID and static come from
// configuration and are members regardless of what the store holds.
func NewAdminService(
	primaryID int64,
	static []int64,
	admins repository.AdminRepository,
	taskTypes repository.TaskTypeRepository,
	audit repository.AuditRepository,
	txm repository.TransactionManager,
	adminCache *cache.AdminCache,
	log *slog.Logger,
) AdminService {
	return &adminService{
		primaryID: primaryID,
		static:    slices.Clone(static),
		admins:    admins,
		taskTypes: taskTypes,
		audit:     audit,
		txm:       txm,
		cache:     adminCache,
		log:       log,
	}
}

func (s *adminService) Access(ctx context.Context, accountID int64) (Access, error) {
	if accountID == s.primaryID {
		return AccessPrimary, nil
	}
	if slices.Contains(s.static, accountID) {
		return AccessAdmin, nil
	}
	stored, err := s.StoreAdmins(ctx)
	if err != nil {
		return AccessNone, err
	}
	if slices.Contains(stored, accountID) {
		return AccessAdmin, nil
	}
	return AccessNone, nil
}

// AdminIDs is the full allow-list, primary first, without duplicates.
func (s *adminService) AdminIDs(ctx context.Context) ([]int64, error) {
	stored, err := s.StoreAdmins(ctx)
	if err != nil {
		return nil, err
	}
	ids := []int64{s.primaryID}
	for _, id := range slices.Concat(s.static, stored) {
		if !slices.Contains(ids, id) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (s *adminService) StoreAdmins(ctx context.Context) ([]int64, error) {
	if ids, ok := s.cache.Get(ctx); ok {
		return ids, nil
	}
	gen, genErr := s.cache.Generation(ctx)
	ids, err := s.admins.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list admins: %w", err)
	}
	if genErr != nil {
		s.log.Warn("admin cache unavailable", slog.String("error", genErr.Error()))
		return ids, nil
	}
	err = s.cache.Set(ctx, gen, ids)
	switch {
	case errors.Is(err, cache.ErrStale):
		s.log.Debug("admin set changed while loading, not cached")
	case err != nil:
		s.log.Warn("admin cache write failed", slog.String("error", err.Error()))
	}
	return ids, nil
}

func (s *adminService) AddAdmin(ctx context.Context, actorID, id int64) error {
	return s.changeAdmins(ctx, actorID, id, model.ActionAddAdmin, s.admins.Add)
}

func (s *adminService) RemoveAdmin(ctx context.Context, actorID, id int64) error {
	return s.changeAdmins(ctx, actorID, id, model.ActionRemoveAdmin, s.admins.Remove)
}

func (s *adminService) changeAdmins(ctx context.Context, actorID, id int64, action string, apply func(context.Context, int64) error) error {
	if actorID != s.primaryID {
		return ErrForbidden
	}

	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := apply(txCtx, id); err != nil {
			return fmt.Errorf("failed to update admins: %w", err)
		}
		return s.audit.Log(txCtx, &model.AuditLog{
			ActorID:  actorID,
			Action:   action,
			EntityID: strconv.FormatInt(id, 10),
			Details:  "{}",
		})
	})
	if err != nil {
		return err
	}

	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("admin cache invalidation failed", slog.String("error", err.Error()))
	}
	return nil
}

func (s *adminService) TaskTypes(ctx context.Context) ([]string, error) {
	return s.taskTypes.List(ctx)
}

// ReplaceTaskTypes swaps the whole catalog for the comma-separated labels in raw.
func (s *adminService) ReplaceTaskTypes(ctx context.Context, actorID int64, raw string) ([]string, error) {
	if actorID != s.primaryID {
		return nil, ErrForbidden
	}
	labels := ParseTaskTypes(raw)
	if len(labels) == 0 {
		return nil, ErrEmptyCatalog
	}

	err := s.txm.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.taskTypes.Replace(txCtx, labels); err != nil {
			return fmt.Errorf("failed to replace task types: %w", err)
		}
		details, _ := json.Marshal(map[string]interface{}{"labels": labels})
		return s.audit.Log(txCtx, &model.AuditLog{
			ActorID:  actorID,
			Action:   model.ActionReplaceTaskTypes,
			EntityID: "catalog",
			Details:  string(details),
		})
	})
	if err != nil {
		return nil, err
	}
	return s.taskTypes.List(ctx)
}

// ParseTaskTypes splits on commas, trims each entry and drops blanks.
func ParseTaskTypes(raw string) []string {
	var labels []string
	for _, part := range strings.Split(raw, ",") {
		if label := strings.TrimSpace(part); label != "" {
			labels = append(labels, label)
		}
	}
	return labels
}
