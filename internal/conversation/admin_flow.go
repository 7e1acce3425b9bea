package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"assistix/internal/chat"
	"assistix/internal/model"
	"assistix/internal/service"
)

func (b *Bot) startAdmin(ctx context.Context, sess *Session, ev chat.Event) {
	access, err := b.admins.Access(ctx, ev.From.ID)
	if err != nil {
		sess.reset(FlowNone, StateIdle)
		b.internalError(ctx, ev.ChatID, "resolve access", err)
		return
	}
	if access == service.AccessNone {
		sess.reset(FlowNone, StateIdle)
		b.log.Warn("admin panel refused", slog.Int64("account_id", ev.From.ID))
		b.reply(ctx, ev.ChatID, "🚫 You are not authorized to use the admin panel.", nil)
		return
	}

	sess.reset(FlowAdmin, StateAdminMenu)
	sess.Access = access
	b.reply(ctx, ev.ChatID, "🛠 Admin Panel:", adminMenuKeyboard(access))
}

// toMenu ends an admin action with text and the menu buttons attached.
func (b *Bot) toMenu(ctx context.Context, sess *Session, chatID int64, text string) {
	sess.State = StateAdminMenu
	sess.Selected = 0
	b.reply(ctx, chatID, text, adminMenuKeyboard(sess.Access))
}

func (b *Bot) handleAdmin(ctx context.Context, sess *Session, ev chat.Event) {
	// membership can change while the panel is open
	access, err := b.admins.Access(ctx, ev.From.ID)
	if err != nil {
		b.internalError(ctx, ev.ChatID, "resolve access", err)
		return
	}
	if access == service.AccessNone {
		sess.reset(FlowNone, StateIdle)
		b.log.Warn("admin session revoked", slog.Int64("account_id", ev.From.ID))
		b.reply(ctx, ev.ChatID, "🚫 You are no longer an admin.", nil)
		return
	}
	sess.Access = access

	switch sess.State {
	case StateAdminMenu:
		b.adminMenu(ctx, sess, ev)
	case StateBroadcast:
		b.adminBroadcast(ctx, sess, ev)
	case StateSelectRequest:
		b.adminSelectRequest(ctx, sess, ev)
	case StateSearchUser:
		b.adminSearchUser(ctx, sess, ev)
	case StateRequestAction:
		b.adminRequestAction(ctx, sess, ev)
	case StateChangeStatus:
		b.adminChangeStatus(ctx, sess, ev)
	case StateMessageUser:
		b.adminMessageUser(ctx, sess, ev)
	case StateAddAdmin, StateRemoveAdmin:
		b.adminChangeAdmins(ctx, sess, ev)
	case StateSetTaskTypes:
		b.adminSetTaskTypes(ctx, sess, ev)
	default:
		b.toMenu(ctx, sess, ev.ChatID, "🛠 Admin Panel:")
	}
}

func (b *Bot) adminMenu(ctx context.Context, sess *Session, ev chat.Event) {
	if ev.Kind != chat.EventButton {
		b.chooseOption(ctx, ev.ChatID)
		return
	}

	switch ev.Data {
	case btnAddAdmin, btnRemove, btnShowAdmins, btnSetTasks:
		if sess.Access != service.AccessPrimary {
			b.reply(ctx, ev.ChatID, "🚫 Only the primary admin can do that.", nil)
			return
		}
	}

	switch ev.Data {
	case btnBroadcast:
		sess.State = StateBroadcast
		b.reply(ctx, ev.ChatID, "📢 Type the announcement to send to all users:", nil)
	case btnViewAll:
		b.adminList(ctx, sess, ev.ChatID, b.requests.ListAll)
	case btnViewActive:
		b.adminList(ctx, sess, ev.ChatID, b.requests.ListWaiting)
	case btnSearchReq:
		sess.State = StateSelectRequest
		b.reply(ctx, ev.ChatID, "🔍 Enter Request ID:", nil)
	case btnSearchUser:
		sess.State = StateSearchUser
		b.reply(ctx, ev.ChatID, "🔍 Enter User ID:", nil)
	case btnReport:
		report, err := b.requests.Summary(ctx)
		if err != nil {
			b.internalError(ctx, ev.ChatID, "summary report", err)
			return
		}
		b.reply(ctx, ev.ChatID, summaryText(report), nil)
	case btnAddAdmin:
		sess.State = StateAddAdmin
		b.reply(ctx, ev.ChatID, "👤 Send User ID to add as admin:", nil)
	case btnRemove:
		sess.State = StateRemoveAdmin
		b.reply(ctx, ev.ChatID, "👤 Send Admin ID to remove:", nil)
	case btnShowAdmins:
		ids, err := b.admins.AdminIDs(ctx)
		if err != nil {
			b.internalError(ctx, ev.ChatID, "list admins", err)
			return
		}
		lines := make([]string, 0, len(ids))
		for i, id := range ids {
			line := fmt.Sprintf("%d", id)
			if i == 0 {
				line += " (primary)"
			}
			lines = append(lines, line)
		}
		b.reply(ctx, ev.ChatID, "👥 Admin List:\n"+strings.Join(lines, "\n"), nil)
	case btnSetTasks:
		current, err := b.admins.TaskTypes(ctx)
		if err != nil {
			b.internalError(ctx, ev.ChatID, "list task types", err)
			return
		}
		sess.State = StateSetTaskTypes
		b.reply(ctx, ev.ChatID, "⚙️ Current Tasks:\n"+strings.Join(current, "\n")+"\n\nSend new task types (comma separated):", nil)
	default:
		b.chooseOption(ctx, ev.ChatID)
	}
}

func (b *Bot) adminList(ctx context.Context, sess *Session, chatID int64, list func(context.Context, int) ([]model.Request, error)) {
	rows, err := list(ctx, listLimit)
	if err != nil {
		b.internalError(ctx, chatID, "list requests", err)
		return
	}
	b.showRequestList(ctx, sess, chatID, rows)
}

func (b *Bot) showRequestList(ctx context.Context, sess *Session, chatID int64, rows []model.Request) {
	if len(rows) == 0 {
		b.toMenu(ctx, sess, chatID, "📭 No requests found.")
		return
	}
	sess.State = StateSelectRequest
	b.reply(ctx, chatID, adminList(rows), nil)
}

func (b *Bot) adminBroadcast(ctx context.Context, sess *Session, ev chat.Event) {
	text := strings.TrimSpace(ev.Text)
	if ev.Kind != chat.EventText || text == "" {
		b.reply(ctx, ev.ChatID, "📢 Type the announcement as text:", nil)
		return
	}
	if _, _, err := b.notifier.Broadcast(ctx, text); err != nil {
		b.internalError(ctx, ev.ChatID, "broadcast", err)
		return
	}
	b.toMenu(ctx, sess, ev.ChatID, "✅ Sent to all users.")
}

func (b *Bot) adminSelectRequest(ctx context.Context, sess *Session, ev chat.Event) {
	id, ok := parseID(ev.Text)
	if ev.Kind != chat.EventText || !ok {
		b.reply(ctx, ev.ChatID, "❗ Invalid request ID.", nil)
		return
	}
	req, err := b.requests.Get(ctx, id)
	if errors.Is(err, service.ErrRequestNotFound) {
		b.reply(ctx, ev.ChatID, "❌ Not found.", nil)
		return
	}
	if err != nil {
		b.internalError(ctx, ev.ChatID, "load request", err)
		return
	}
	sess.Selected = req.ID
	sess.State = StateRequestAction
	b.reply(ctx, ev.ChatID, adminDetail(req), requestActionKeyboard())
}

func (b *Bot) adminSearchUser(ctx context.Context, sess *Session, ev chat.Event) {
	userID, ok := parseID(ev.Text)
	if ev.Kind != chat.EventText || !ok {
		b.reply(ctx, ev.ChatID, "❗ Invalid user ID.", nil)
		return
	}
	rows, err := b.requests.ListBySubmitter(ctx, userID)
	if err != nil {
		b.internalError(ctx, ev.ChatID, "list user requests", err)
		return
	}
	b.showRequestList(ctx, sess, ev.ChatID, rows)
}

// selected re-reads the request the admin is working on.
func (b *Bot) selected(ctx context.Context, sess *Session, chatID int64) (*model.Request, bool) {
	req, err := b.requests.Get(ctx, sess.Selected)
	if errors.Is(err, service.ErrRequestNotFound) {
		b.toMenu(ctx, sess, chatID, "❗ No request selected.")
		return nil, false
	}
	if err != nil {
		b.internalError(ctx, chatID, "load request", err)
		return nil, false
	}
	return req, true
}

func (b *Bot) adminRequestAction(ctx context.Context, sess *Session, ev chat.Event) {
	if ev.Kind != chat.EventButton {
		b.chooseOption(ctx, ev.ChatID)
		return
	}
	if ev.Data == btnBackAdmin {
		b.toMenu(ctx, sess, ev.ChatID, "🛠 Admin Panel:")
		return
	}

	req, ok := b.selected(ctx, sess, ev.ChatID)
	if !ok {
		return
	}

	switch ev.Data {
	case btnViewFull:
		b.reply(ctx, ev.ChatID, "💬 Comment:\n"+req.Comment, nil)
		if req.MediaKey != "" && b.media.Exists(req.MediaKey) {
			if err := b.out.SendFile(ctx, ev.ChatID, req.MediaKey); err != nil {
				b.log.Warn("send file failed", slog.Int64("chat_id", ev.ChatID), slog.String("error", err.Error()))
			}
		}
	case btnChangeStat:
		sess.State = StateChangeStatus
		b.reply(ctx, ev.ChatID, "Select new status:", statusKeyboard())
	case btnMsgUser:
		sess.State = StateMessageUser
		b.reply(ctx, ev.ChatID, "💬 Type message to user:", nil)
	case btnToggle:
		next, err := b.requests.TogglePermission(ctx, ev.From.ID, req.ID)
		if errors.Is(err, service.ErrRequestCancelled) {
			b.toMenu(ctx, sess, ev.ChatID, fmt.Sprintf("🚫 Request #%d is cancelled and cannot be modified.", req.ID))
			return
		}
		if err != nil {
			b.internalError(ctx, ev.ChatID, "toggle permission", err)
			return
		}
		b.toMenu(ctx, sess, ev.ChatID, fmt.Sprintf("🔒 Message permission for #%d is now %s.", req.ID, flag(next)))
	default:
		b.chooseOption(ctx, ev.ChatID)
	}
}

func (b *Bot) adminChangeStatus(ctx context.Context, sess *Session, ev chat.Event) {
	raw, ok := strings.CutPrefix(ev.Data, statusPrefix)
	if ev.Kind != chat.EventButton || !ok {
		b.reply(ctx, ev.ChatID, "Select new status:", statusKeyboard())
		return
	}

	status := model.RequestStatus(raw)
	req, err := b.requests.ChangeStatus(ctx, ev.From.ID, sess.Selected, status)
	switch {
	case errors.Is(err, service.ErrInvalidStatus):
		b.reply(ctx, ev.ChatID, "Select new status:", statusKeyboard())
	case errors.Is(err, service.ErrRequestCancelled):
		b.toMenu(ctx, sess, ev.ChatID, fmt.Sprintf("🚫 Request #%d is cancelled and cannot be modified.", sess.Selected))
	case errors.Is(err, service.ErrRequestNotFound):
		b.toMenu(ctx, sess, ev.ChatID, "❗ No request selected.")
	case err != nil:
		b.internalError(ctx, ev.ChatID, "change status", err)
	default:
		b.toMenu(ctx, sess, ev.ChatID, fmt.Sprintf("✅ Status of #%d updated to %s", req.ID, req.Status))
	}
}

func (b *Bot) adminMessageUser(ctx context.Context, sess *Session, ev chat.Event) {
	text := strings.TrimSpace(ev.Text)
	if ev.Kind != chat.EventText || text == "" {
		b.reply(ctx, ev.ChatID, "💬 Type message to user:", nil)
		return
	}
	req, ok := b.selected(ctx, sess, ev.ChatID)
	if !ok {
		return
	}
	if err := b.notifier.DirectMessage(ctx, req.SubmitterID, text); err != nil {
		b.toMenu(ctx, sess, ev.ChatID, "⚠️ Could not deliver the message to the user.")
		return
	}
	b.toMenu(ctx, sess, ev.ChatID, "✅ Message sent to user.")
}

func (b *Bot) adminChangeAdmins(ctx context.Context, sess *Session, ev chat.Event) {
	id, ok := parseID(ev.Text)
	if ev.Kind != chat.EventText || !ok {
		b.reply(ctx, ev.ChatID, "❗ Invalid user ID.", nil)
		return
	}

	apply, done := b.admins.AddAdmin, "✅ Admin added."
	if sess.State == StateRemoveAdmin {
		apply, done = b.admins.RemoveAdmin, "✅ Admin removed."
	}
	err := apply(ctx, ev.From.ID, id)
	if errors.Is(err, service.ErrForbidden) {
		b.toMenu(ctx, sess, ev.ChatID, "🚫 Only the primary admin can do that.")
		return
	}
	if err != nil {
		b.internalError(ctx, ev.ChatID, "update admins", err)
		return
	}
	b.toMenu(ctx, sess, ev.ChatID, done)
}

func (b *Bot) adminSetTaskTypes(ctx context.Context, sess *Session, ev chat.Event) {
	if ev.Kind != chat.EventText {
		b.reply(ctx, ev.ChatID, "Send new task types (comma separated):", nil)
		return
	}
	_, err := b.admins.ReplaceTaskTypes(ctx, ev.From.ID, ev.Text)
	switch {
	case errors.Is(err, service.ErrEmptyCatalog):
		b.reply(ctx, ev.ChatID, "❗ Send at least one task type (comma separated):", nil)
	case errors.Is(err, service.ErrForbidden):
		b.toMenu(ctx, sess, ev.ChatID, "🚫 Only the primary admin can do that.")
	case err != nil:
		b.internalError(ctx, ev.ChatID, "replace task types", err)
	default:
		b.toMenu(ctx, sess, ev.ChatID, "✅ Task types updated.")
	}
}
