package conversation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"assistix/internal/blob"
	"assistix/internal/cache"
	"assistix/internal/chat"
	"assistix/internal/database"
	"assistix/internal/observability"
	"assistix/internal/repository"
	"assistix/internal/service"
	"assistix/internal/testutil"

	"github.com/stretchr/testify/require"
)

const (
	primaryAdmin = int64(1000)
	staticAdmin  = int64(2000)
)

type harness struct {
	bot      *Bot
	out      *testutil.Messenger
	requests service.RequestService
	admins   service.AdminService
	blobs    *blob.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db := testutil.NewTestDB(t)
	log := observability.Discard()
	require.NoError(t, database.SeedTaskTypes(context.Background(), db, log))

	txm := repository.NewTransactionManager(db)
	audit := repository.NewAuditRepository(db)
	taskTypes := repository.NewTaskTypeRepository(db)
	requests := service.NewRequestService(repository.NewRequestRepository(db), taskTypes, repository.NewStatisticsRepository(db), audit, txm)
	admins := service.NewAdminService(primaryAdmin, []int64{staticAdmin}, repository.NewAdminRepository(db),
		taskTypes, audit, txm, cache.NewAdminCache(nil, 0), log)

	blobs, err := blob.NewStore(t.TempDir())
	require.NoError(t, err)

	out := testutil.NewMessenger()
	notifier := service.NewNotifier(out, requests, admins, log)

	return &harness{
		bot:      NewBot(out, requests, admins, notifier, blobs, log),
		out:      out,
		requests: requests,
		admins:   admins,
		blobs:    blobs,
	}
}

func sender(id int64) chat.Sender {
	return chat.Sender{ID: id, Username: fmt.Sprintf("user%d", id)}
}

func (h *harness) command(id int64, cmd string) {
	h.bot.Handle(context.Background(), chat.Event{ChatID: id, From: sender(id), Kind: chat.EventCommand, Command: cmd})
}

func (h *harness) press(id int64, data string) {
	h.bot.Handle(context.Background(), chat.Event{ChatID: id, From: sender(id), Kind: chat.EventButton, Data: data})
}

func (h *harness) text(id int64, text string) {
	h.bot.Handle(context.Background(), chat.Event{ChatID: id, From: sender(id), Kind: chat.EventText, Text: text})
}

func (h *harness) upload(id int64, kind chat.MediaKind, filename string, content []byte) {
	h.bot.Handle(context.Background(), chat.Event{
		ChatID: id,
		From:   sender(id),
		Kind:   chat.EventMedia,
		Media: &chat.Media{
			Kind:     kind,
			Filename: filename,
			Open: func(context.Context) (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader(content)), nil
			},
		},
	})
}

func (h *harness) uploadBroken(id int64) {
	h.bot.Handle(context.Background(), chat.Event{
		ChatID: id,
		From:   sender(id),
		Kind:   chat.EventMedia,
		Media: &chat.Media{
			Kind: chat.MediaPhoto,
			Open: func(context.Context) (io.ReadCloser, error) {
				return nil, errors.New("download failed")
			},
		},
	})
}

func (h *harness) state(id int64) State {
	return h.bot.snapshot(id).State
}

func (h *harness) lastText(id int64) string {
	return h.out.Last(id).Text
}

// submitRequest drives the user flow through a full submission and returns the new id.
func (h *harness) submitRequest(t *testing.T, user int64, taskType, comment string) int64 {
	t.Helper()
	h.command(user, "start")
	h.press(user, btnNewRequest)
	h.press(user, typePrefix+taskType)
	h.text(user, comment)
	h.text(user, "skip")
	h.press(user, btnSubmit)

	rows, err := h.requests.ListBySubmitter(context.Background(), user)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	require.Equal(t, comment, rows[0].Comment)
	return rows[0].ID
}

func hasButton(kb chat.Keyboard, data string) bool {
	for _, r := range kb {
		for _, b := range r {
			if b.Data == data {
				return true
			}
		}
	}
	return false
}
