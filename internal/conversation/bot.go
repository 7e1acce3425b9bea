// Package conversation runs the user and admin chat flows on top of the
// request lifecycle services.
package conversation

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"assistix/internal/chat"
	"assistix/internal/observability"
	"assistix/internal/service"
)

// MediaStore is the subset of the blob store the flows need.
type MediaStore interface {
	Put(ctx context.Context, src io.Reader, ext string) (string, error)
	Exists(key string) bool
}

// Bot dispatches chat events to the flow active in each chat.
type Bot struct {
	out      chat.Messenger
	requests service.RequestService
	admins   service.AdminService
	notifier service.Notifier
	media    MediaStore
	log      *slog.Logger
	sessions *sessionStore
}

func NewBot(
	out chat.Messenger,
	requests service.RequestService,
	admins service.AdminService,
	notifier service.Notifier,
	media MediaStore,
	log *slog.Logger,
) *Bot {
	return &Bot{
		out:      out,
		requests: requests,
		admins:   admins,
		notifier: notifier,
		media:    media,
		log:      log,
		sessions: newSessionStore(),
	}
}

// Handle processes one inbound event. Events of the same chat are handled one
// at a time in arrival order.
func (b *Bot) Handle(ctx context.Context, ev chat.Event) {
	observability.ChatEvents.WithLabelValues(string(ev.Kind)).Inc()

	sl := b.sessions.get(ev.ChatID)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sess := &sl.sess

	b.log.Debug("chat event",
		slog.Int64("chat_id", ev.ChatID),
		slog.String("kind", string(ev.Kind)),
		slog.String("flow", sess.Flow.String()),
		slog.String("state", sess.State.String()),
	)

	if ev.Kind == chat.EventCommand {
		switch strings.ToLower(strings.TrimPrefix(ev.Command, "/")) {
		case "start":
			b.startUser(ctx, sess, ev.ChatID)
		case "admin", "madmin":
			b.startAdmin(ctx, sess, ev)
		default:
			b.reply(ctx, ev.ChatID, "❓ Unknown command. Send /start to begin.", nil)
		}
		return
	}

	switch sess.Flow {
	case FlowUser:
		b.handleUser(ctx, sess, ev)
	case FlowAdmin:
		b.handleAdmin(ctx, sess, ev)
	default:
		b.reply(ctx, ev.ChatID, "👋 Send /start to begin.", nil)
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string, kb chat.Keyboard) {
	if err := b.out.SendText(ctx, chatID, text, kb); err != nil {
		b.log.Warn("reply failed", slog.Int64("chat_id", chatID), slog.String("error", err.Error()))
	}
}

func (b *Bot) internalError(ctx context.Context, chatID int64, op string, err error) {
	b.log.Error("conversation step failed",
		slog.Int64("chat_id", chatID),
		slog.String("op", op),
		slog.String("error", err.Error()),
	)
	b.reply(ctx, chatID, "⚠️ Something went wrong. Please try again.", nil)
}

// parseID accepts a positive decimal id and nothing else.
func parseID(text string) (int64, bool) {
	text = strings.TrimSpace(text)
	if text == "" || strings.IndexFunc(text, func(r rune) bool { return r < '0' || r > '9' }) >= 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
