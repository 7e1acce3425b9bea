package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"assistix/internal/chat"
	"assistix/internal/observability"

	"golang.org/x/sync/errgroup"
)

const broadcastConcurrency = 8

// Notifier relays free text between users and admins over the chat transport.
type Notifier interface {
	MessageAdmins(ctx context.Context, from chat.Sender, requestID int64, text string) error
	Broadcast(ctx context.Context, text string) (sent, failed int, err error)
	DirectMessage(ctx context.Context, userID int64, text string) error
}

type notifier struct {
	messenger chat.Messenger
	requests  RequestService
	admins    AdminService
	log       *slog.Logger
}

func NewNotifier(messenger chat.Messenger, requests RequestService, admins AdminService, log *slog.Logger) Notifier {
	return &notifier{messenger: messenger, requests: requests, admins: admins, log: log}
}

// MessageAdmins re-reads the request before relaying so a permission revoked
// or a cancel made since selection is honoured.
func (n *notifier) MessageAdmins(ctx context.Context, from chat.Sender, requestID int64, text string) error {
	req, err := n.requests.GetOwned(ctx, requestID, from.ID)
	if err != nil {
		return err
	}
	if req.Status.Terminal() {
		return ErrRequestCancelled
	}
	if !req.MessagingAllowed() {
		return ErrMessagingBlocked
	}

	ids, err := n.admins.AdminIDs(ctx)
	if err != nil {
		return err
	}

	body := fmt.Sprintf("📨 Message from %s (Request #%d):\n%s", from.Handle(), req.ID, text)
	for _, id := range ids {
		n.deliver(ctx, id, body)
	}
	return nil
}

// Broadcast sends to every submitter ever seen. Individual failures are counted
// and never stop the fan-out.
func (n *notifier) Broadcast(ctx context.Context, text string) (int, int, error) {
	recipients, err := n.requests.Submitters(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list recipients: %w", err)
	}

	body := "📢 Announcement:\n\n" + text
	var sent, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(broadcastConcurrency)
	for _, id := range recipients {
		g.Go(func() error {
			if n.deliver(gctx, id, body) {
				sent.Add(1)
			} else {
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	n.log.Info("broadcast finished",
		slog.Int("recipients", len(recipients)),
		slog.Int64("sent", sent.Load()),
		slog.Int64("failed", failed.Load()),
	)
	return int(sent.Load()), int(failed.Load()), nil
}

func (n *notifier) DirectMessage(ctx context.Context, userID int64, text string) error {
	body := "📩 Admin Message:\n" + text
	if err := n.messenger.SendText(ctx, userID, body, nil); err != nil {
		observability.Deliveries.WithLabelValues(observability.DeliveryFailed).Inc()
		n.log.Warn("direct message failed", slog.Int64("chat_id", userID), slog.String("error", err.Error()))
		return err
	}
	observability.Deliveries.WithLabelValues(observability.DeliveryOK).Inc()
	return nil
}

func (n *notifier) deliver(ctx context.Context, chatID int64, text string) bool {
	if err := n.messenger.SendText(ctx, chatID, text, nil); err != nil {
		observability.Deliveries.WithLabelValues(observability.DeliveryFailed).Inc()
		n.log.Warn("delivery failed", slog.Int64("chat_id", chatID), slog.String("error", err.Error()))
		return false
	}
	observability.Deliveries.WithLabelValues(observability.DeliveryOK).Inc()
	return true
}
