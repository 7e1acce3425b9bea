package repository

import (
	"context"
	"errors"
	"testing"

	"assistix/internal/model"
	"assistix/internal/testutil"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newRequest(submitter int64, comment string) *model.Request {
	return &model.Request{
		SubmitterID: submitter,
		DisplayName: "user",
		TaskType:    "Write Paper",
		Comment:     comment,
		Status:      model.StatusWaiting,
	}
}

func TestRequestRepository_CreateAndFind(t *testing.T) {
	repo := NewRequestRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	req := newRequest(10, "Need 5 pages on X")
	require.NoError(t, repo.Create(ctx, req))
	assert.NotZero(t, req.ID)

	got, err := repo.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "Need 5 pages on X", got.Comment)
	assert.Equal(t, "Write Paper", got.TaskType)
	assert.Equal(t, int64(10), got.SubmitterID)
	assert.Equal(t, model.StatusWaiting, got.Status)
	assert.False(t, got.CanMessage)
	assert.False(t, got.CreatedAt.IsZero())

	_, err = repo.FindByID(ctx, req.ID+100)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRequestRepository_CreateRejectsUnknownStatus(t *testing.T) {
	repo := NewRequestRepository(testutil.NewTestDB(t))
	req := newRequest(1, "x")
	req.Status = "archived"
	assert.Error(t, repo.Create(context.Background(), req))
}

func TestRequestRepository_IDsIncrease(t *testing.T) {
	repo := NewRequestRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	var last int64
	for i := 0; i < 5; i++ {
		req := newRequest(1, gofakeit.Sentence(5))
		require.NoError(t, repo.Create(ctx, req))
		assert.Greater(t, req.ID, last)
		last = req.ID
	}
}

func TestRequestRepository_ListBySubmitter(t *testing.T) {
	repo := NewRequestRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	owned := map[int64][]int64{}
	for i := 0; i < 30; i++ {
		submitter := int64(gofakeit.Number(1, 4))
		req := newRequest(submitter, gofakeit.Sentence(6))
		require.NoError(t, repo.Create(ctx, req))
		owned[submitter] = append(owned[submitter], req.ID)
	}

	for submitter, ids := range owned {
		rows, err := repo.ListBySubmitter(ctx, submitter)
		require.NoError(t, err)
		require.Len(t, rows, len(ids))
		for i, row := range rows {
			assert.Equal(t, submitter, row.SubmitterID)
			// most recent first
			assert.Equal(t, ids[len(ids)-1-i], row.ID)
		}
	}
}

func TestRequestRepository_ListAllAndWaiting(t *testing.T) {
	repo := NewRequestRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		require.NoError(t, repo.Create(ctx, newRequest(int64(i%3), gofakeit.Word())))
	}
	_, err := repo.SetStatus(ctx, 25, model.StatusAccepted)
	require.NoError(t, err)
	_, err = repo.SetStatus(ctx, 24, model.StatusDone)
	require.NoError(t, err)

	all, err := repo.ListAll(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 25)
	assert.Equal(t, int64(25), all[0].ID)

	limited, err := repo.ListAll(ctx, 20)
	require.NoError(t, err)
	assert.Len(t, limited, 20)

	waiting, err := repo.ListByStatus(ctx, model.StatusWaiting, 0)
	require.NoError(t, err)
	assert.Len(t, waiting, 23)
	assert.Equal(t, int64(23), waiting[0].ID)

	page, total, err := repo.List(ctx, model.StatusWaiting, 20, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(23), total)
	assert.Len(t, page, 3)

	submitters, err := repo.DistinctSubmitters(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{0, 1, 2}, submitters)
}

func TestRequestRepository_MutationsInPlace(t *testing.T) {
	repo := NewRequestRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	req := newRequest(7, "first")
	require.NoError(t, repo.Create(ctx, req))

	ok, err := repo.SetComment(ctx, req.ID, "second")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.SetPermission(ctx, req.ID, true)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.SetStatus(ctx, req.ID, model.StatusAccepted)
	require.NoError(t, err)
	assert.True(t, ok)
	// repeating is idempotent
	ok, err = repo.SetStatus(ctx, req.ID, model.StatusAccepted)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "second", got.Comment)
	assert.True(t, got.CanMessage)
	assert.Equal(t, model.StatusAccepted, got.Status)
	assert.Equal(t, req.ID, got.ID)
	assert.Equal(t, req.SubmitterID, got.SubmitterID)
	assert.True(t, req.CreatedAt.Equal(got.CreatedAt))

	ok, err = repo.SetComment(ctx, 999, "nobody")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.SetStatus(ctx, req.ID, "archived")
	assert.Error(t, err)
}

func TestRequestRepository_CancelledRowIsFrozen(t *testing.T) {
	repo := NewRequestRepository(testutil.NewTestDB(t))
	ctx := context.Background()

	req := newRequest(7, "keep me")
	require.NoError(t, repo.Create(ctx, req))
	ok, err := repo.SetStatus(ctx, req.ID, model.StatusCancelled)
	require.NoError(t, err)
	require.True(t, ok)

	for _, mutate := range []func() (bool, error){
		func() (bool, error) { return repo.SetStatus(ctx, req.ID, model.StatusAccepted) },
		func() (bool, error) { return repo.SetPermission(ctx, req.ID, true) },
		func() (bool, error) { return repo.SetComment(ctx, req.ID, "changed") },
	} {
		ok, err := mutate()
		require.NoError(t, err)
		assert.False(t, ok)
	}

	got, err := repo.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, got.Status)
	assert.Equal(t, "keep me", got.Comment)
	assert.False(t, got.CanMessage)
}
