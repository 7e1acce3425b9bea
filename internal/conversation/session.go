package conversation

import (
	"sync"

	"assistix/internal/service"
)

// Flow is the conversation a session is currently in.
type Flow int

const (
	FlowNone Flow = iota
	FlowUser
	FlowAdmin
)

func (f Flow) String() string {
	switch f {
	case FlowUser:
		return "user"
	case FlowAdmin:
		return "admin"
	default:
		return "none"
	}
}

// State is the prompt a session is waiting on.
type State int

const (
	StateIdle State = iota

	// user flow
	StateSelectAction
	StateSelectType
	StateComment
	StateMedia
	StateConfirm
	StateCheckAction
	StateSelectByID
	StateFollowup
	StateEditComment

	// admin flow
	StateAdminMenu
	StateBroadcast
	StateSelectRequest
	StateSearchUser
	StateRequestAction
	StateChangeStatus
	StateMessageUser
	StateAddAdmin
	StateRemoveAdmin
	StateSetTaskTypes
)

var stateNames = map[State]string{
	StateIdle:          "idle",
	StateSelectAction:  "select_action",
	StateSelectType:    "select_type",
	StateComment:       "comment",
	StateMedia:         "media",
	StateConfirm:       "confirm",
	StateCheckAction:   "check_action",
	StateSelectByID:    "select_by_id",
	StateFollowup:      "followup",
	StateEditComment:   "edit_comment",
	StateAdminMenu:     "admin_menu",
	StateBroadcast:     "broadcast",
	StateSelectRequest: "select_request",
	StateSearchUser:    "search_user",
	StateRequestAction: "request_action",
	StateChangeStatus:  "change_status",
	StateMessageUser:   "message_user",
	StateAddAdmin:      "add_admin",
	StateRemoveAdmin:   "remove_admin",
	StateSetTaskTypes:  "set_task_types",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Draft holds a new request while the user flow collects it.
type Draft struct {
	TaskType    string
	Comment     string
	MediaKey    string
	MediaChosen bool // media step answered, kept across comment edits
}

// Session is the in-memory state of one chat. Selected is a request id only;
// the request itself is always re-read before acting on it.
type Session struct {
	Flow     Flow
	State    State
	Draft    Draft
	Selected int64
	Access   service.Access
}

func (s *Session) reset(flow Flow, state State) {
	s.Flow = flow
	s.State = state
	s.Draft = Draft{}
	s.Selected = 0
	if flow != FlowAdmin {
		s.Access = service.AccessNone
	}
}

// slot serializes the events of one chat.
type slot struct {
	mu   sync.Mutex
	sess Session
}

type sessionStore struct {
	mu     sync.Mutex
	byChat map[int64]*slot
}

func newSessionStore() *sessionStore {
	return &sessionStore{byChat: make(map[int64]*slot)}
}

func (s *sessionStore) get(chatID int64) *slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	sl, ok := s.byChat[chatID]
	if !ok {
		sl = &slot{}
		s.byChat[chatID] = sl
	}
	return sl
}

// snapshot returns a copy of the session for chatID.
func (b *Bot) snapshot(chatID int64) Session {
	sl := b.sessions.get(chatID)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.sess
}
