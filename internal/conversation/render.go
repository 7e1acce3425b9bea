package conversation

import (
	"fmt"
	"strings"

	"assistix/internal/chat"
	"assistix/internal/model"
	"assistix/internal/service"
)

// Button tags.
const (
	btnNewRequest   = "new_request"
	btnCheckRequest = "check_request"
	btnBackMain     = "back_main"
	btnSkip         = "skip"
	btnSubmit       = "submit"
	btnEdit         = "edit"
	btnCancel       = "cancel"
	btnHistory      = "history"
	btnActive       = "active"
	btnByID         = "by_id"
	btnEditComment  = "edit_comment"
	btnCancelReq    = "cancel_request"
	btnSendMessage  = "send_message"

	btnBroadcast  = "broadcast"
	btnViewAll    = "view_all"
	btnViewActive = "view_active"
	btnSearchReq  = "search_req"
	btnSearchUser = "search_user"
	btnReport     = "report"
	btnAddAdmin   = "add_admin"
	btnRemove     = "remove_admin"
	btnShowAdmins = "show_admins"
	btnSetTasks   = "set_tasks"
	btnViewFull   = "view_full"
	btnChangeStat = "change_status"
	btnMsgUser    = "send_msg"
	btnToggle     = "toggle_msg"
	btnBackAdmin  = "back_admin"

	typePrefix   = "type:"
	statusPrefix = "status:"
)

const (
	listLimit      = 20
	previewLength  = 20
	skipKeyword    = "skip"
	welcomeMessage = "👋 Welcome to ZU Assistix! How can I help you?"
)

func row(label, data string) []chat.Button {
	return []chat.Button{{Label: label, Data: data}}
}

func mainMenuKeyboard() chat.Keyboard {
	return chat.Keyboard{
		row("➕ New Request", btnNewRequest),
		row("📂 Check Request", btnCheckRequest),
	}
}

func taskTypeKeyboard(labels []string) chat.Keyboard {
	kb := make(chat.Keyboard, 0, len(labels)+1)
	for _, l := range labels {
		kb = append(kb, row(l, typePrefix+l))
	}
	return append(kb, row("🔙 Go Back", btnBackMain))
}

func mediaKeyboard() chat.Keyboard {
	return chat.Keyboard{row("⏭ Skip", btnSkip)}
}

func confirmKeyboard() chat.Keyboard {
	return chat.Keyboard{{
		{Label: "✅ Submit", Data: btnSubmit},
		{Label: "✏️ Edit", Data: btnEdit},
		{Label: "❌ Cancel", Data: btnCancel},
	}}
}

func checkKeyboard() chat.Keyboard {
	return chat.Keyboard{
		row("📜 Request History", btnHistory),
		row("📌 Active Requests", btnActive),
		row("🔍 Check by ID", btnByID),
		row("🔙 Go Back", btnBackMain),
	}
}

func followupKeyboard(req *model.Request) chat.Keyboard {
	kb := chat.Keyboard{
		row("✏️ Edit Comment", btnEditComment),
		row("❌ Cancel Request", btnCancelReq),
	}
	if req.MessagingAllowed() {
		kb = append(kb, row("💬 Send Message to Admin", btnSendMessage))
	}
	return append(kb, row("🔙 Go Back", btnBackMain))
}

// adminMenuKeyboard omits the allow-list and catalog items below AccessPrimary.
func adminMenuKeyboard(access service.Access) chat.Keyboard {
	kb := chat.Keyboard{
		row("📢 Send Announcement", btnBroadcast),
		row("📂 View All Requests", btnViewAll),
		row("🕒 Active Requests", btnViewActive),
		row("🔍 Search by Request ID", btnSearchReq),
		row("🔍 Search by User ID", btnSearchUser),
		row("📈 Summary Report", btnReport),
	}
	if access == service.AccessPrimary {
		kb = append(kb,
			row("➕ Add Admin", btnAddAdmin),
			row("➖ Remove Admin", btnRemove),
			row("📋 Show Admins", btnShowAdmins),
			row("⚙️ Task Types", btnSetTasks),
		)
	}
	return kb
}

func requestActionKeyboard() chat.Keyboard {
	return chat.Keyboard{
		row("👁 View Full", btnViewFull),
		row("🔁 Change Status", btnChangeStat),
		row("💬 Message User", btnMsgUser),
		row("🔒 Toggle Permission", btnToggle),
		row("🔙 Back", btnBackAdmin),
	}
}

func statusKeyboard() chat.Keyboard {
	return chat.Keyboard{
		row("✅ Accept", statusPrefix+string(model.StatusAccepted)),
		row("❌ Deny", statusPrefix+string(model.StatusDenied)),
		row("⏳ Waiting", statusPrefix+string(model.StatusWaiting)),
		row("✅ Done", statusPrefix+string(model.StatusDone)),
	}
}

// Preview cuts s to the first 20 characters and marks the cut with "...".
func Preview(s string) string {
	r := []rune(s)
	if len(r) <= previewLength {
		return s
	}
	return string(r[:previewLength]) + "..."
}

func flag(on bool) string {
	if on {
		return "✅"
	}
	return "🚫"
}

// CompactRow is the one-line listing used by both flows.
func CompactRow(r *model.Request) string {
	return fmt.Sprintf("#%d | %s | %s | %s | %s", r.ID, r.TaskType, r.Status, Preview(r.Comment), flag(r.MessagingAllowed()))
}

func userList(title string, rows []model.Request) string {
	var b strings.Builder
	b.WriteString(title + ":\n\n")
	b.WriteString("ID | Task | Status | Comment (preview) | Msg?\n")
	for i := range rows {
		b.WriteString(CompactRow(&rows[i]) + "\n")
	}
	b.WriteString("\n🔍 To view/edit/cancel, send the request ID (e.g., 3)")
	return b.String()
}

func adminList(rows []model.Request) string {
	if len(rows) > listLimit {
		rows = rows[:listLimit]
	}
	var b strings.Builder
	b.WriteString("📄 Requests:\n\n")
	for i := range rows {
		b.WriteString(CompactRow(&rows[i]) + "\n")
	}
	b.WriteString("\nSend request ID to manage:")
	return b.String()
}

func attached(key string) string {
	if key != "" {
		return "Attached"
	}
	return "None"
}

func userDetail(r *model.Request) string {
	return fmt.Sprintf("📄 Request #%d\n📝 Type: %s\n📌 Status: %s\n💬 Comment: %s\n📎 Media: %s\n📨 Can message admin: %s",
		r.ID, r.TaskType, r.Status, r.Comment, attached(r.MediaKey), flag(r.MessagingAllowed()))
}

func adminDetail(r *model.Request) string {
	return fmt.Sprintf("📄 Request #%d\nUser ID: %d\nFrom: %s\nTask: %s\nStatus: %s\nComment: %s\nMedia: %s\nCan message admin: %s",
		r.ID, r.SubmitterID, r.DisplayName, r.TaskType, r.Status, Preview(r.Comment), attached(r.MediaKey), flag(r.MessagingAllowed()))
}

func summaryText(report model.SummaryReport) string {
	labels := map[model.RequestStatus]string{
		model.StatusWaiting:   "⏳ Waiting",
		model.StatusAccepted:  "✅ Accepted",
		model.StatusDenied:    "🚫 Denied",
		model.StatusDone:      "✅ Done",
		model.StatusCancelled: "❌ Cancelled",
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📊 Summary:\nTotal: %d", report.Total)
	for _, sc := range report.ByStatus {
		fmt.Fprintf(&b, "\n%s: %d (%s%%)", labels[sc.Status], sc.Count, sc.Share.String())
	}
	return b.String()
}
