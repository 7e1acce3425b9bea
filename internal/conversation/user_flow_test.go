package conversation

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"assistix/internal/chat"
	"assistix/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const user = int64(7)

func TestUserFlow_SubmitWithoutMedia(t *testing.T) {
	h := newHarness(t)

	h.command(user, "start")
	assert.Equal(t, StateSelectAction, h.state(user))
	assert.True(t, hasButton(h.out.Last(user).Keyboard, btnNewRequest))

	h.press(user, btnNewRequest)
	assert.Equal(t, StateSelectType, h.state(user))
	kb := h.out.Last(user).Keyboard
	for _, label := range model.DefaultTaskTypes {
		assert.True(t, hasButton(kb, typePrefix+label), label)
	}

	h.press(user, typePrefix+"Write Paper")
	assert.Equal(t, StateComment, h.state(user))
	h.text(user, "Need 5 pages on X")
	assert.Equal(t, StateMedia, h.state(user))
	h.text(user, "SKIP")
	assert.Equal(t, StateConfirm, h.state(user))

	h.press(user, btnSubmit)
	msgs := h.out.To(user)
	require.GreaterOrEqual(t, len(msgs), 2)
	assert.Contains(t, msgs[len(msgs)-2].Text, "Your request ID is #1")
	assert.Contains(t, msgs[len(msgs)-2].Text, "Media: None")
	assert.Equal(t, welcomeMessage, h.lastText(user))
	assert.Equal(t, StateSelectAction, h.state(user))

	req, err := h.requests.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Write Paper", req.TaskType)
	assert.Equal(t, "Need 5 pages on X", req.Comment)
	assert.Equal(t, model.StatusWaiting, req.Status)
	assert.False(t, req.CanMessage)
	assert.Equal(t, "user7", req.DisplayName)
}

func TestUserFlow_MediaStep(t *testing.T) {
	h := newHarness(t)
	h.command(user, "start")
	h.press(user, btnNewRequest)
	h.press(user, typePrefix+"Software Task")
	h.text(user, "fix my build")

	h.text(user, "here is no file")
	assert.Equal(t, StateMedia, h.state(user))
	assert.Contains(t, h.lastText(user), "Unsupported file")

	h.upload(user, "sticker", "", []byte("x"))
	assert.Equal(t, StateMedia, h.state(user))

	h.uploadBroken(user)
	assert.Equal(t, StateMedia, h.state(user))
	assert.Contains(t, h.lastText(user), "Could not save the file")

	h.upload(user, chat.MediaDocument, "trace.LOG", []byte("panic: boom"))
	assert.Equal(t, StateConfirm, h.state(user))
	key := h.bot.snapshot(user).Draft.MediaKey
	require.NotEmpty(t, key)
	assert.True(t, strings.HasSuffix(key, ".log"))
	assert.True(t, h.blobs.Exists(key))

	h.press(user, btnSubmit)
	rows, err := h.requests.ListBySubmitter(context.Background(), user)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, key, rows[0].MediaKey)
}

func TestUserFlow_EditKeepsTypeAndMedia(t *testing.T) {
	h := newHarness(t)
	h.command(user, "start")
	h.press(user, btnNewRequest)
	h.press(user, typePrefix+"Make Presentation")
	h.text(user, "ten slides")
	h.upload(user, chat.MediaPhoto, "", []byte("jpeg"))
	key := h.bot.snapshot(user).Draft.MediaKey
	require.NotEmpty(t, key)

	h.press(user, btnEdit)
	assert.Equal(t, StateComment, h.state(user))
	assert.Empty(t, h.bot.snapshot(user).Draft.Comment)

	h.text(user, "twelve slides")
	assert.Equal(t, StateConfirm, h.state(user))
	d := h.bot.snapshot(user).Draft
	assert.Equal(t, "Make Presentation", d.TaskType)
	assert.Equal(t, key, d.MediaKey)
	assert.Equal(t, "twelve slides", d.Comment)

	h.press(user, btnCancel)
	assert.Equal(t, StateSelectAction, h.state(user))
	rows, err := h.requests.ListBySubmitter(context.Background(), user)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestUserFlow_GoBack(t *testing.T) {
	h := newHarness(t)
	h.command(user, "start")
	h.press(user, btnNewRequest)
	h.press(user, btnBackMain)
	assert.Equal(t, StateSelectAction, h.state(user))

	h.press(user, btnCheckRequest)
	assert.Equal(t, StateCheckAction, h.state(user))
	h.press(user, btnBackMain)
	assert.Equal(t, StateSelectAction, h.state(user))
}

func TestUserFlow_HistoryAndActive(t *testing.T) {
	h := newHarness(t)
	first := h.submitRequest(t, user, "Other", "a comment that is definitely longer than twenty")
	second := h.submitRequest(t, user, "Other", "short")
	h.submitRequest(t, 8, "Other", "someone else")
	_, err := h.requests.ChangeStatus(context.Background(), primaryAdmin, first, model.StatusDone)
	require.NoError(t, err)

	h.command(user, "start")
	h.press(user, btnCheckRequest)
	h.press(user, btnHistory)
	history := h.lastText(user)
	assert.Equal(t, StateSelectByID, h.state(user))
	assert.Contains(t, history, fmt.Sprintf("#%d | Other | done | a comment that is de... | 🚫", first))
	assert.Contains(t, history, fmt.Sprintf("#%d | Other | waiting | short | 🚫", second))
	assert.NotContains(t, history, "someone else")

	h.command(user, "start")
	h.press(user, btnCheckRequest)
	h.press(user, btnActive)
	active := h.lastText(user)
	assert.NotContains(t, active, fmt.Sprintf("#%d |", first))
	assert.Contains(t, active, fmt.Sprintf("#%d |", second))
}

func TestUserFlow_EmptyHistoryStaysInCheckMenu(t *testing.T) {
	h := newHarness(t)
	h.command(user, "start")
	h.press(user, btnCheckRequest)
	h.press(user, btnHistory)
	assert.Equal(t, "📭 No requests found.", h.lastText(user))
	assert.Equal(t, StateCheckAction, h.state(user))
}

func TestUserFlow_LookupValidation(t *testing.T) {
	h := newHarness(t)
	mine := h.submitRequest(t, user, "Other", "mine")
	theirs := h.submitRequest(t, 8, "Other", "theirs")

	h.command(user, "start")
	h.press(user, btnCheckRequest)
	h.press(user, btnByID)

	h.text(user, "abc")
	assert.Equal(t, "❗ Please send a valid request ID.", h.lastText(user))
	assert.Equal(t, StateSelectByID, h.state(user))

	h.text(user, fmt.Sprint(theirs))
	notYours := h.lastText(user)
	h.text(user, "999")
	missing := h.lastText(user)
	assert.Equal(t, notYours, missing)
	assert.Equal(t, StateSelectByID, h.state(user))

	h.text(user, fmt.Sprint(mine))
	assert.Equal(t, StateFollowup, h.state(user))
	assert.Equal(t, mine, h.bot.snapshot(user).Selected)
	last := h.out.Last(user)
	assert.Contains(t, last.Text, "💬 Comment: mine")
	assert.False(t, hasButton(last.Keyboard, btnSendMessage))
}

func TestUserFlow_FollowupEditComment(t *testing.T) {
	h := newHarness(t)
	id := h.submitRequest(t, user, "Other", "before")
	created, err := h.requests.Get(context.Background(), id)
	require.NoError(t, err)

	h.command(user, "start")
	h.press(user, btnCheckRequest)
	h.press(user, btnByID)
	h.text(user, fmt.Sprint(id))
	h.press(user, btnEditComment)
	assert.Equal(t, StateEditComment, h.state(user))
	h.text(user, "after")
	assert.Equal(t, StateFollowup, h.state(user))

	req, err := h.requests.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "after", req.Comment)
	assert.Equal(t, created.TaskType, req.TaskType)
	assert.True(t, created.CreatedAt.Equal(req.CreatedAt))
}

func TestUserFlow_CancelledRequestIsRefused(t *testing.T) {
	h := newHarness(t)
	id := h.submitRequest(t, user, "Other", "x")

	h.command(user, "start")
	h.press(user, btnCheckRequest)
	h.press(user, btnByID)
	h.text(user, fmt.Sprint(id))
	h.press(user, btnCancelReq)
	assert.Equal(t, StateSelectAction, h.state(user))

	req, err := h.requests.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCancelled, req.Status)

	h.press(user, btnCheckRequest)
	h.press(user, btnByID)
	h.text(user, fmt.Sprint(id))
	assert.Equal(t, StateSelectAction, h.state(user))
	msgs := h.out.To(user)
	assert.Equal(t, "🚫 You cannot view or edit cancelled requests.", msgs[len(msgs)-2].Text)
}

func TestUserFlow_FollowupActsOnCurrentState(t *testing.T) {
	h := newHarness(t)
	id := h.submitRequest(t, user, "Other", "x")

	h.command(user, "start")
	h.press(user, btnCheckRequest)
	h.press(user, btnByID)
	h.text(user, fmt.Sprint(id))

	// cancelled elsewhere after selection
	require.NoError(t, h.requests.Cancel(context.Background(), user, id))
	h.press(user, btnEditComment)
	assert.Equal(t, StateSelectAction, h.state(user))
}

func TestUserFlow_FollowupTextAfterCancelResetsSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.submitRequest(t, user, "Other", "x")
	_, err := h.requests.TogglePermission(ctx, primaryAdmin, id)
	require.NoError(t, err)

	h.command(user, "start")
	h.press(user, btnCheckRequest)
	h.press(user, btnByID)
	h.text(user, fmt.Sprint(id))
	require.Equal(t, StateFollowup, h.state(user))

	require.NoError(t, h.requests.Cancel(ctx, user, id))
	h.text(user, "still there?")

	assert.Equal(t, StateSelectAction, h.state(user))
	msgs := h.out.To(user)
	assert.Equal(t, "🚫 This request is cancelled and cannot be modified.", msgs[len(msgs)-2].Text)
	assert.Empty(t, h.out.To(primaryAdmin))
}

func TestUserFlow_MessageAdminsWhenPermitted(t *testing.T) {
	h := newHarness(t)
	id := h.submitRequest(t, user, "Write Paper", "Need 5 pages on X")
	require.NoError(t, h.admins.AddAdmin(context.Background(), primaryAdmin, 3000))

	h.command(user, "start")
	h.press(user, btnCheckRequest)
	h.press(user, btnByID)
	h.text(user, fmt.Sprint(id))
	h.text(user, "any news?")
	assert.Equal(t, "🚫 Messaging is not enabled for this request.", h.lastText(user))
	assert.Empty(t, h.out.To(primaryAdmin))

	next, err := h.requests.TogglePermission(context.Background(), primaryAdmin, id)
	require.NoError(t, err)
	require.True(t, next)

	h.press(user, btnSendMessage)
	assert.Equal(t, StateFollowup, h.state(user))
	h.text(user, "any news?")
	assert.Equal(t, "✅ Message sent to admin.", h.lastText(user))

	for _, admin := range []int64{primaryAdmin, staticAdmin, 3000} {
		relay := h.lastText(admin)
		assert.Contains(t, relay, fmt.Sprintf("Request #%d", id))
		assert.Contains(t, relay, "any news?")
		assert.Contains(t, relay, "@user7")
	}
}

func TestUserFlow_CatalogReplacement(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	_, err := h.admins.ReplaceTaskTypes(ctx, primaryAdmin, "A,B")
	require.NoError(t, err)
	old := h.submitRequest(t, user, "A", "legacy")

	_, err = h.admins.ReplaceTaskTypes(ctx, primaryAdmin, "C")
	require.NoError(t, err)

	h.command(user, "start")
	h.press(user, btnNewRequest)
	kb := h.out.Last(user).Keyboard
	assert.True(t, hasButton(kb, typePrefix+"C"))
	assert.False(t, hasButton(kb, typePrefix+"A"))
	assert.False(t, hasButton(kb, typePrefix+"B"))

	// a stale button from an earlier keyboard is refused
	h.press(user, typePrefix+"A")
	assert.Equal(t, StateSelectType, h.state(user))

	req, err := h.requests.Get(ctx, old)
	require.NoError(t, err)
	assert.Equal(t, "A", req.TaskType)
}

func TestBot_NoActiveFlow(t *testing.T) {
	h := newHarness(t)
	h.text(user, "hello")
	assert.Equal(t, "👋 Send /start to begin.", h.lastText(user))
	h.command(user, "/help")
	assert.Contains(t, h.lastText(user), "Unknown command")
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short"))
	assert.Equal(t, "exactly twenty chars", Preview("exactly twenty chars"))
	assert.Equal(t, "exactly twenty chars...", Preview("exactly twenty chars!"))
	assert.Equal(t, strings.Repeat("é", 20)+"...", Preview(strings.Repeat("é", 25)))
}
