package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"assistix/internal/chat"
	"assistix/internal/service"
)

func (b *Bot) startUser(ctx context.Context, sess *Session, chatID int64) {
	sess.reset(FlowUser, StateSelectAction)
	b.reply(ctx, chatID, welcomeMessage, mainMenuKeyboard())
}

func (b *Bot) handleUser(ctx context.Context, sess *Session, ev chat.Event) {
	switch sess.State {
	case StateSelectAction:
		b.userSelectAction(ctx, sess, ev)
	case StateSelectType:
		b.userSelectType(ctx, sess, ev)
	case StateComment:
		b.userComment(ctx, sess, ev)
	case StateMedia:
		b.userMedia(ctx, sess, ev)
	case StateConfirm:
		b.userConfirm(ctx, sess, ev)
	case StateCheckAction:
		b.userCheckAction(ctx, sess, ev)
	case StateSelectByID:
		b.userSelectByID(ctx, sess, ev)
	case StateFollowup:
		b.userFollowup(ctx, sess, ev)
	case StateEditComment:
		b.userEditComment(ctx, sess, ev)
	default:
		b.startUser(ctx, sess, ev.ChatID)
	}
}

func (b *Bot) chooseOption(ctx context.Context, chatID int64) {
	b.reply(ctx, chatID, "👆 Please choose one of the options above.", nil)
}

func (b *Bot) userSelectAction(ctx context.Context, sess *Session, ev chat.Event) {
	if ev.Kind != chat.EventButton {
		b.chooseOption(ctx, ev.ChatID)
		return
	}
	switch ev.Data {
	case btnNewRequest:
		b.offerTaskTypes(ctx, sess, ev.ChatID)
	case btnCheckRequest:
		sess.State = StateCheckAction
		b.reply(ctx, ev.ChatID, "📂 Choose option:", checkKeyboard())
	default:
		b.chooseOption(ctx, ev.ChatID)
	}
}

func (b *Bot) offerTaskTypes(ctx context.Context, sess *Session, chatID int64) {
	labels, err := b.admins.TaskTypes(ctx)
	if err != nil {
		b.internalError(ctx, chatID, "list task types", err)
		return
	}
	sess.Draft = Draft{}
	sess.State = StateSelectType
	b.reply(ctx, chatID, "📝 Choose request type:", taskTypeKeyboard(labels))
}

func (b *Bot) userSelectType(ctx context.Context, sess *Session, ev chat.Event) {
	if ev.Kind != chat.EventButton {
		b.chooseOption(ctx, ev.ChatID)
		return
	}
	if ev.Data == btnBackMain {
		b.startUser(ctx, sess, ev.ChatID)
		return
	}

	label, ok := strings.CutPrefix(ev.Data, typePrefix)
	if !ok {
		b.chooseOption(ctx, ev.ChatID)
		return
	}
	// the catalog may have been replaced since the buttons were sent
	labels, err := b.admins.TaskTypes(ctx)
	if err != nil {
		b.internalError(ctx, ev.ChatID, "list task types", err)
		return
	}
	if !slices.Contains(labels, label) {
		b.reply(ctx, ev.ChatID, "❗ That task type is no longer offered. Choose request type:", taskTypeKeyboard(labels))
		return
	}

	sess.Draft.TaskType = label
	sess.State = StateComment
	b.reply(ctx, ev.ChatID, "✍️ Please write your comment:", nil)
}

func (b *Bot) userComment(ctx context.Context, sess *Session, ev chat.Event) {
	text := strings.TrimSpace(ev.Text)
	if ev.Kind != chat.EventText || text == "" {
		b.reply(ctx, ev.ChatID, "✍️ Please write your comment as text:", nil)
		return
	}
	sess.Draft.Comment = text

	if sess.Draft.MediaChosen {
		b.showConfirm(ctx, sess, ev.ChatID)
		return
	}
	sess.State = StateMedia
	b.reply(ctx, ev.ChatID, "📎 Upload media (or type 'skip'):", mediaKeyboard())
}

func (b *Bot) userMedia(ctx context.Context, sess *Session, ev chat.Event) {
	switch {
	case ev.Kind == chat.EventMedia && ev.Media.Supported():
		key, err := b.storeMedia(ctx, ev.Media)
		if err != nil {
			b.log.Error("media ingest failed", slog.Int64("chat_id", ev.ChatID), slog.String("error", err.Error()))
			b.reply(ctx, ev.ChatID, "❗ Could not save the file. Try again or type 'skip'.", mediaKeyboard())
			return
		}
		sess.Draft.MediaKey = key
	case ev.Kind == chat.EventText && strings.EqualFold(strings.TrimSpace(ev.Text), skipKeyword),
		ev.Kind == chat.EventButton && ev.Data == btnSkip:
		sess.Draft.MediaKey = ""
	default:
		b.reply(ctx, ev.ChatID, "❗ Unsupported file. Try again or type 'skip'.", mediaKeyboard())
		return
	}
	sess.Draft.MediaChosen = true
	b.showConfirm(ctx, sess, ev.ChatID)
}

func (b *Bot) storeMedia(ctx context.Context, m *chat.Media) (string, error) {
	src, err := m.Open(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch attachment: %w", err)
	}
	defer src.Close()
	return b.media.Put(ctx, src, m.Ext())
}

func (b *Bot) showConfirm(ctx context.Context, sess *Session, chatID int64) {
	sess.State = StateConfirm
	b.reply(ctx, chatID, "📤 What do you want to do?", confirmKeyboard())
}

func (b *Bot) userConfirm(ctx context.Context, sess *Session, ev chat.Event) {
	if ev.Kind != chat.EventButton {
		b.chooseOption(ctx, ev.ChatID)
		return
	}
	switch ev.Data {
	case btnSubmit:
		d := sess.Draft
		req, err := b.requests.Submit(ctx, service.SubmitRequestDTO{
			SubmitterID: ev.From.ID,
			DisplayName: ev.From.DisplayName(),
			TaskType:    d.TaskType,
			Comment:     d.Comment,
			MediaKey:    d.MediaKey,
		})
		if errors.Is(err, service.ErrUnknownTaskType) {
			b.reply(ctx, ev.ChatID, "❗ That task type is no longer offered. Please start again.", nil)
			b.startUser(ctx, sess, ev.ChatID)
			return
		}
		if err != nil {
			b.internalError(ctx, ev.ChatID, "submit request", err)
			return
		}
		b.reply(ctx, ev.ChatID, fmt.Sprintf("✅ Submitted! Your request ID is #%d.\n\n📝 Type: %s\n📎 Media: %s",
			req.ID, req.TaskType, attached(req.MediaKey)), nil)
		b.startUser(ctx, sess, ev.ChatID)
	case btnEdit:
		sess.Draft.Comment = ""
		sess.State = StateComment
		b.reply(ctx, ev.ChatID, "✏️ Enter your updated comment:", nil)
	case btnCancel:
		b.reply(ctx, ev.ChatID, "❌ Request canceled.", nil)
		b.startUser(ctx, sess, ev.ChatID)
	default:
		b.chooseOption(ctx, ev.ChatID)
	}
}

func (b *Bot) userCheckAction(ctx context.Context, sess *Session, ev chat.Event) {
	if ev.Kind != chat.EventButton {
		b.chooseOption(ctx, ev.ChatID)
		return
	}

	var title string
	switch ev.Data {
	case btnBackMain:
		b.startUser(ctx, sess, ev.ChatID)
		return
	case btnByID:
		sess.State = StateSelectByID
		b.reply(ctx, ev.ChatID, "🔍 Send the request ID:", nil)
		return
	case btnHistory:
		title = "📜 Request History"
	case btnActive:
		title = "🕒 Active Requests"
	default:
		b.chooseOption(ctx, ev.ChatID)
		return
	}

	list := b.requests.ListBySubmitter
	if ev.Data == btnActive {
		list = b.requests.ListActiveBySubmitter
	}
	rows, err := list(ctx, ev.From.ID)
	if err != nil {
		b.internalError(ctx, ev.ChatID, "list own requests", err)
		return
	}
	if len(rows) == 0 {
		b.reply(ctx, ev.ChatID, "📭 No requests found.", checkKeyboard())
		return
	}
	sess.State = StateSelectByID
	b.reply(ctx, ev.ChatID, userList(title, rows), nil)
}

func (b *Bot) userSelectByID(ctx context.Context, sess *Session, ev chat.Event) {
	id, ok := parseID(ev.Text)
	if ev.Kind != chat.EventText || !ok {
		b.reply(ctx, ev.ChatID, "❗ Please send a valid request ID.", nil)
		return
	}
	b.openOwnRequest(ctx, sess, ev.ChatID, ev.From.ID, id)
}

// openOwnRequest shows the followup menu for one of the user's requests.
func (b *Bot) openOwnRequest(ctx context.Context, sess *Session, chatID, userID, id int64) {
	req, err := b.requests.GetOwned(ctx, id, userID)
	if errors.Is(err, service.ErrRequestNotFound) {
		b.reply(ctx, chatID, "❌ Request not found or not yours.", nil)
		return
	}
	if err != nil {
		b.internalError(ctx, chatID, "load request", err)
		return
	}
	if req.Status.Terminal() {
		b.reply(ctx, chatID, "🚫 You cannot view or edit cancelled requests.", nil)
		b.startUser(ctx, sess, chatID)
		return
	}

	sess.Selected = req.ID
	sess.State = StateFollowup
	b.reply(ctx, chatID, userDetail(req), followupKeyboard(req))
}

func (b *Bot) refuseCancelled(ctx context.Context, sess *Session, chatID int64) {
	b.reply(ctx, chatID, "🚫 This request is cancelled and cannot be modified.", nil)
	b.startUser(ctx, sess, chatID)
}

func (b *Bot) userFollowup(ctx context.Context, sess *Session, ev chat.Event) {
	switch ev.Kind {
	case chat.EventText:
		b.relayToAdmins(ctx, sess, ev)
		return
	case chat.EventButton:
	default:
		b.chooseOption(ctx, ev.ChatID)
		return
	}

	if ev.Data == btnBackMain {
		b.startUser(ctx, sess, ev.ChatID)
		return
	}

	req, err := b.requests.GetOwned(ctx, sess.Selected, ev.From.ID)
	if err != nil {
		if errors.Is(err, service.ErrRequestNotFound) {
			b.reply(ctx, ev.ChatID, "⚠️ No request selected.", nil)
			b.startUser(ctx, sess, ev.ChatID)
			return
		}
		b.internalError(ctx, ev.ChatID, "load request", err)
		return
	}
	if req.Status.Terminal() {
		b.refuseCancelled(ctx, sess, ev.ChatID)
		return
	}

	switch ev.Data {
	case btnEditComment:
		sess.State = StateEditComment
		b.reply(ctx, ev.ChatID, "✏️ Send your updated comment:", nil)
	case btnCancelReq:
		err := b.requests.Cancel(ctx, ev.From.ID, req.ID)
		if errors.Is(err, service.ErrRequestCancelled) {
			b.refuseCancelled(ctx, sess, ev.ChatID)
			return
		}
		if err != nil {
			b.internalError(ctx, ev.ChatID, "cancel request", err)
			return
		}
		b.reply(ctx, ev.ChatID, "❌ Request has been cancelled.", nil)
		b.startUser(ctx, sess, ev.ChatID)
	case btnSendMessage:
		if !req.MessagingAllowed() {
			b.reply(ctx, ev.ChatID, "🚫 Messaging is not enabled for this request.", followupKeyboard(req))
			return
		}
		b.reply(ctx, ev.ChatID, "💬 Type your message to send to the admin:", nil)
	default:
		b.chooseOption(ctx, ev.ChatID)
	}
}

func (b *Bot) relayToAdmins(ctx context.Context, sess *Session, ev chat.Event) {
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return
	}
	err := b.notifier.MessageAdmins(ctx, ev.From, sess.Selected, text)
	switch {
	case errors.Is(err, service.ErrMessagingBlocked):
		b.reply(ctx, ev.ChatID, "🚫 Messaging is not enabled for this request.", nil)
	case errors.Is(err, service.ErrRequestCancelled):
		b.refuseCancelled(ctx, sess, ev.ChatID)
	case errors.Is(err, service.ErrRequestNotFound):
		b.reply(ctx, ev.ChatID, "⚠️ No request selected.", nil)
		b.startUser(ctx, sess, ev.ChatID)
	case err != nil:
		b.internalError(ctx, ev.ChatID, "relay to admins", err)
	default:
		b.reply(ctx, ev.ChatID, "✅ Message sent to admin.", nil)
	}
}

func (b *Bot) userEditComment(ctx context.Context, sess *Session, ev chat.Event) {
	if ev.Kind != chat.EventText {
		b.reply(ctx, ev.ChatID, "✏️ Send your updated comment as text:", nil)
		return
	}
	err := b.requests.EditComment(ctx, ev.From.ID, sess.Selected, ev.Text)
	switch {
	case errors.Is(err, service.ErrEmptyComment):
		b.reply(ctx, ev.ChatID, "✏️ The comment cannot be empty. Send your updated comment:", nil)
		return
	case errors.Is(err, service.ErrRequestCancelled):
		b.refuseCancelled(ctx, sess, ev.ChatID)
		return
	case errors.Is(err, service.ErrRequestNotFound):
		b.reply(ctx, ev.ChatID, "⚠️ No request selected.", nil)
		b.startUser(ctx, sess, ev.ChatID)
		return
	case err != nil:
		b.internalError(ctx, ev.ChatID, "edit comment", err)
		return
	}

	b.reply(ctx, ev.ChatID, "✅ Comment updated.", nil)
	b.openOwnRequest(ctx, sess, ev.ChatID, ev.From.ID, sess.Selected)
}
