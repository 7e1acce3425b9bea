package conversation

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"assistix/internal/chat"
	"assistix/internal/model"
	"assistix/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) openAsAdmin(admin, id int64) {
	h.command(admin, "admin")
	h.press(admin, btnSearchReq)
	h.text(admin, fmt.Sprint(id))
}

func TestAdminFlow_Gate(t *testing.T) {
	h := newHarness(t)

	h.command(4242, "admin")
	assert.Equal(t, "🚫 You are not authorized to use the admin panel.", h.lastText(4242))
	assert.Equal(t, FlowNone, h.bot.snapshot(4242).Flow)

	h.command(staticAdmin, "admin")
	snap := h.bot.snapshot(staticAdmin)
	assert.Equal(t, FlowAdmin, snap.Flow)
	assert.Equal(t, service.AccessAdmin, snap.Access)
	kb := h.out.Last(staticAdmin).Keyboard
	assert.True(t, hasButton(kb, btnReport))
	assert.False(t, hasButton(kb, btnAddAdmin))
	assert.False(t, hasButton(kb, btnSetTasks))

	// hidden items stay unreachable even when pressed directly
	h.press(staticAdmin, btnAddAdmin)
	assert.Equal(t, StateAdminMenu, h.state(staticAdmin))
	assert.Contains(t, h.lastText(staticAdmin), "Only the primary admin")

	h.command(primaryAdmin, "madmin")
	snap = h.bot.snapshot(primaryAdmin)
	assert.Equal(t, service.AccessPrimary, snap.Access)
	kb = h.out.Last(primaryAdmin).Keyboard
	for _, data := range []string{btnAddAdmin, btnRemove, btnShowAdmins, btnSetTasks} {
		assert.True(t, hasButton(kb, data), data)
	}
}

func TestAdminFlow_RemovedAdminLosesOpenPanel(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	const managed = int64(3000)
	require.NoError(t, h.admins.AddAdmin(ctx, primaryAdmin, managed))

	h.command(managed, "admin")
	require.Equal(t, StateAdminMenu, h.state(managed))

	require.NoError(t, h.admins.RemoveAdmin(ctx, primaryAdmin, managed))
	h.press(managed, btnViewAll)

	assert.Equal(t, "🚫 You are no longer an admin.", h.lastText(managed))
	snap := h.bot.snapshot(managed)
	assert.Equal(t, FlowNone, snap.Flow)
	assert.Equal(t, service.AccessNone, snap.Access)
}

func TestAdminFlow_ChangeStatusScenario(t *testing.T) {
	h := newHarness(t)
	id := h.submitRequest(t, user, "Write Paper", "Need 5 pages on X")
	before, err := h.requests.Get(context.Background(), id)
	require.NoError(t, err)

	h.openAsAdmin(staticAdmin, id)
	assert.Equal(t, StateRequestAction, h.state(staticAdmin))
	assert.Contains(t, h.lastText(staticAdmin), fmt.Sprintf("Request #%d", id))

	h.press(staticAdmin, btnChangeStat)
	assert.Equal(t, StateChangeStatus, h.state(staticAdmin))
	h.press(staticAdmin, statusPrefix+"cancelled")
	assert.Equal(t, StateChangeStatus, h.state(staticAdmin))
	h.press(staticAdmin, statusPrefix+string(model.StatusAccepted))
	assert.Equal(t, StateAdminMenu, h.state(staticAdmin))

	after, err := h.requests.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusAccepted, after.Status)
	assert.Equal(t, before.Comment, after.Comment)
	assert.Equal(t, before.TaskType, after.TaskType)
	assert.Equal(t, before.SubmitterID, after.SubmitterID)
	assert.Equal(t, before.CanMessage, after.CanMessage)
}

func TestAdminFlow_CancelledRequestIsFrozen(t *testing.T) {
	h := newHarness(t)
	id := h.submitRequest(t, user, "Other", "x")
	require.NoError(t, h.requests.Cancel(context.Background(), user, id))

	h.openAsAdmin(primaryAdmin, id)
	h.press(primaryAdmin, btnToggle)
	assert.Contains(t, h.lastText(primaryAdmin), "cancelled and cannot be modified")

	h.openAsAdmin(primaryAdmin, id)
	h.press(primaryAdmin, btnChangeStat)
	h.press(primaryAdmin, statusPrefix+string(model.StatusDone))
	assert.Contains(t, h.lastText(primaryAdmin), "cancelled and cannot be modified")

	req, err := h.requests.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, req.Status)
	assert.False(t, req.CanMessage)
	assert.False(t, req.MessagingAllowed())
}

func TestAdminFlow_TogglePermissionReadsFreshValue(t *testing.T) {
	h := newHarness(t)
	id := h.submitRequest(t, user, "Other", "x")

	h.openAsAdmin(primaryAdmin, id)
	// another admin flips it while this detail view is open
	_, err := h.requests.TogglePermission(context.Background(), staticAdmin, id)
	require.NoError(t, err)

	h.press(primaryAdmin, btnToggle)
	assert.Contains(t, h.lastText(primaryAdmin), "is now 🚫")

	req, err := h.requests.Get(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, req.CanMessage)
}

func TestAdminFlow_ListsAndSearch(t *testing.T) {
	h := newHarness(t)
	var ids []int64
	for i := 0; i < 22; i++ {
		ids = append(ids, h.submitRequest(t, int64(100+i%3), "Other", fmt.Sprintf("request %d", i)))
	}
	_, err := h.requests.ChangeStatus(context.Background(), primaryAdmin, ids[21], model.StatusDone)
	require.NoError(t, err)

	h.command(staticAdmin, "admin")
	h.press(staticAdmin, btnViewAll)
	all := h.lastText(staticAdmin)
	assert.Equal(t, StateSelectRequest, h.state(staticAdmin))
	assert.Equal(t, 20, strings.Count(all, "\n#"))
	assert.Contains(t, all, fmt.Sprintf("#%d |", ids[21]))
	assert.NotContains(t, all, fmt.Sprintf("#%d |", ids[0]))

	h.command(staticAdmin, "admin")
	h.press(staticAdmin, btnViewActive)
	active := h.lastText(staticAdmin)
	assert.NotContains(t, active, fmt.Sprintf("#%d |", ids[21]))
	assert.Contains(t, active, fmt.Sprintf("#%d |", ids[20]))

	h.text(staticAdmin, "nope")
	assert.Equal(t, "❗ Invalid request ID.", h.lastText(staticAdmin))
	h.text(staticAdmin, "9999")
	assert.Equal(t, "❌ Not found.", h.lastText(staticAdmin))
	assert.Equal(t, StateSelectRequest, h.state(staticAdmin))

	h.command(staticAdmin, "admin")
	h.press(staticAdmin, btnSearchUser)
	h.text(staticAdmin, "x")
	assert.Equal(t, StateSearchUser, h.state(staticAdmin))
	h.text(staticAdmin, "101")
	byUser := h.lastText(staticAdmin)
	assert.Equal(t, StateSelectRequest, h.state(staticAdmin))
	assert.Contains(t, byUser, fmt.Sprintf("#%d |", ids[1]))
	assert.NotContains(t, byUser, fmt.Sprintf("#%d |", ids[0]))

	h.text(staticAdmin, fmt.Sprint(ids[1]))
	assert.Equal(t, StateRequestAction, h.state(staticAdmin))
	assert.Equal(t, ids[1], h.bot.snapshot(staticAdmin).Selected)
}

func TestAdminFlow_ViewFullMedia(t *testing.T) {
	h := newHarness(t)

	h.command(user, "start")
	h.press(user, btnNewRequest)
	h.press(user, typePrefix+"Other")
	h.text(user, "see attachment")
	h.upload(user, chat.MediaVoice, "", []byte("ogg"))
	h.press(user, btnSubmit)
	rows, err := h.requests.ListBySubmitter(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	h.openAsAdmin(primaryAdmin, rows[0].ID)
	h.press(primaryAdmin, btnViewFull)
	msgs := h.out.To(primaryAdmin)
	assert.Equal(t, "💬 Comment:\nsee attachment", msgs[len(msgs)-2].Text)
	assert.Equal(t, rows[0].MediaKey, msgs[len(msgs)-1].FileKey)
	assert.Equal(t, StateRequestAction, h.state(primaryAdmin))
}

func TestAdminFlow_ViewFullSkipsMissingMedia(t *testing.T) {
	h := newHarness(t)
	_, err := h.requests.Submit(context.Background(), service.SubmitRequestDTO{
		SubmitterID: user, TaskType: "Other", Comment: "lost file", MediaKey: "gone.jpg",
	})
	require.NoError(t, err)

	h.openAsAdmin(primaryAdmin, 1)
	h.press(primaryAdmin, btnViewFull)
	last := h.out.Last(primaryAdmin)
	assert.Equal(t, "💬 Comment:\nlost file", last.Text)
	assert.Empty(t, last.FileKey)
}

func TestAdminFlow_MessageUserFailsSoft(t *testing.T) {
	h := newHarness(t)
	id := h.submitRequest(t, user, "Other", "x")

	h.openAsAdmin(primaryAdmin, id)
	h.press(primaryAdmin, btnMsgUser)
	h.text(primaryAdmin, "your paper is ready")
	assert.Equal(t, "✅ Message sent to user.", h.lastText(primaryAdmin))
	assert.Equal(t, "📩 Admin Message:\nyour paper is ready", h.lastText(user))

	h.out.Offline[user] = true
	h.openAsAdmin(primaryAdmin, id)
	h.press(primaryAdmin, btnMsgUser)
	h.text(primaryAdmin, "hello?")
	assert.Equal(t, "⚠️ Could not deliver the message to the user.", h.lastText(primaryAdmin))
	assert.Equal(t, StateAdminMenu, h.state(primaryAdmin))
}

func TestAdminFlow_Broadcast(t *testing.T) {
	h := newHarness(t)
	for _, u := range []int64{11, 12, 13} {
		h.submitRequest(t, u, "Other", "x")
	}
	h.out.Offline[12] = true
	h.out.Reset()

	h.command(staticAdmin, "admin")
	h.press(staticAdmin, btnBroadcast)
	h.text(staticAdmin, "office closed friday")
	assert.Equal(t, "✅ Sent to all users.", h.lastText(staticAdmin))

	for _, u := range []int64{11, 13} {
		assert.Equal(t, "📢 Announcement:\n\noffice closed friday", h.lastText(u))
	}
	assert.Empty(t, h.out.To(12))
}

func TestAdminFlow_SummaryReport(t *testing.T) {
	h := newHarness(t)
	a := h.submitRequest(t, user, "Other", "a")
	h.submitRequest(t, user, "Other", "b")
	_, err := h.requests.ChangeStatus(context.Background(), primaryAdmin, a, model.StatusDenied)
	require.NoError(t, err)

	h.command(staticAdmin, "admin")
	h.press(staticAdmin, btnReport)
	report := h.lastText(staticAdmin)
	assert.Contains(t, report, "Total: 2")
	assert.Contains(t, report, "⏳ Waiting: 1 (50%)")
	assert.Contains(t, report, "🚫 Denied: 1 (50%)")
	assert.Contains(t, report, "❌ Cancelled: 0 (0%)")
	assert.Equal(t, StateAdminMenu, h.state(staticAdmin))
}

func TestAdminFlow_ManageAdmins(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.command(primaryAdmin, "admin")
	h.press(primaryAdmin, btnAddAdmin)
	h.text(primaryAdmin, "abc")
	assert.Equal(t, StateAddAdmin, h.state(primaryAdmin))
	h.text(primaryAdmin, "3000")
	assert.Equal(t, "✅ Admin added.", h.lastText(primaryAdmin))

	access, err := h.admins.Access(ctx, 3000)
	require.NoError(t, err)
	assert.Equal(t, service.AccessAdmin, access)

	h.press(primaryAdmin, btnShowAdmins)
	list := h.lastText(primaryAdmin)
	assert.Contains(t, list, fmt.Sprintf("%d (primary)", primaryAdmin))
	assert.Contains(t, list, "3000")

	h.press(primaryAdmin, btnRemove)
	h.text(primaryAdmin, "3000")
	assert.Equal(t, "✅ Admin removed.", h.lastText(primaryAdmin))
	access, err = h.admins.Access(ctx, 3000)
	require.NoError(t, err)
	assert.Equal(t, service.AccessNone, access)
}

func TestAdminFlow_SetTaskTypes(t *testing.T) {
	h := newHarness(t)

	h.command(primaryAdmin, "admin")
	h.press(primaryAdmin, btnSetTasks)
	assert.Contains(t, h.lastText(primaryAdmin), "Software Task")
	h.text(primaryAdmin, " , ")
	assert.Equal(t, StateSetTaskTypes, h.state(primaryAdmin))
	h.text(primaryAdmin, " Essay ,  Slides ,,")
	assert.Equal(t, "✅ Task types updated.", h.lastText(primaryAdmin))

	labels, err := h.admins.TaskTypes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Essay", "Slides"}, labels)
}
