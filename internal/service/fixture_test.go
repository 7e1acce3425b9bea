package service

import (
	"context"
	"testing"

	"assistix/internal/cache"
	"assistix/internal/database"
	"assistix/internal/observability"
	"assistix/internal/repository"
	"assistix/internal/testutil"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	primaryAdmin = int64(1000)
	staticAdmin  = int64(2000)
)

type fixture struct {
	db        *gorm.DB
	requests  RequestService
	admins    AdminService
	notifier  Notifier
	messenger *testutil.Messenger
	audit     repository.AuditRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	log := observability.Discard()
	require.NoError(t, database.SeedTaskTypes(context.Background(), db, log))

	txm := repository.NewTransactionManager(db)
	audit := repository.NewAuditRepository(db)
	taskTypes := repository.NewTaskTypeRepository(db)

	requests := NewRequestService(repository.NewRequestRepository(db), taskTypes, repository.NewStatisticsRepository(db), audit, txm)
	admins := NewAdminService(primaryAdmin, []int64{staticAdmin}, repository.NewAdminRepository(db), taskTypes, audit, txm, cache.NewAdminCache(nil, 0), log)
	messenger := testutil.NewMessenger()

	return &fixture{
		db:        db,
		requests:  requests,
		admins:    admins,
		notifier:  NewNotifier(messenger, requests, admins, log),
		messenger: messenger,
		audit:     audit,
	}
}

func (f *fixture) submit(t *testing.T, submitter int64, comment string) int64 {
	t.Helper()
	req, err := f.requests.Submit(context.Background(), SubmitRequestDTO{
		SubmitterID: submitter,
		DisplayName: "user",
		TaskType:    "Write Paper",
		Comment:     comment,
	})
	require.NoError(t, err)
	return req.ID
}
