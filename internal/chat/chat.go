// Package chat defines the transport-neutral event and messaging types shared
// by the conversation flows and the transports that carry them.
package chat

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strconv"
)

// ErrRecipientOffline is returned by a Messenger that cannot reach the chat.
var ErrRecipientOffline = errors.New("recipient not reachable")

type EventKind string

const (
	EventCommand EventKind = "command"
	EventButton  EventKind = "button"
	EventText    EventKind = "text"
	EventMedia   EventKind = "media"
)

type MediaKind string

const (
	MediaPhoto    MediaKind = "photo"
	MediaDocument MediaKind = "document"
	MediaVoice    MediaKind = "voice"
)

// Sender identifies the account an event came from.
type Sender struct {
	ID        int64
	Username  string
	FirstName string
}

// Handle renders the sender for relayed messages.
func (s Sender) Handle() string {
	switch {
	case s.Username != "":
		return "@" + s.Username
	case s.FirstName != "":
		return s.FirstName
	default:
		return strconv.FormatInt(s.ID, 10)
	}
}

// DisplayName is what gets stored on a new request.
func (s Sender) DisplayName() string {
	if s.Username != "" {
		return s.Username
	}
	return s.FirstName
}

// Media is an attachment whose content is fetched on demand.
type Media struct {
	Kind     MediaKind
	Filename string
	Open     func(ctx context.Context) (io.ReadCloser, error)
}

// Supported reports whether the flows accept this kind of attachment.
func (m *Media) Supported() bool {
	if m == nil || m.Open == nil {
		return false
	}
	switch m.Kind {
	case MediaPhoto, MediaDocument, MediaVoice:
		return true
	}
	return false
}

// Ext is the extension the stored blob keeps.
func (m *Media) Ext() string {
	switch m.Kind {
	case MediaPhoto:
		return ".jpg"
	case MediaVoice:
		return ".ogg"
	}
	if ext := filepath.Ext(m.Filename); ext != "" {
		return ext
	}
	return ".bin"
}

// Event is one inbound transport event. ChatID is the private chat with the
// sender, which is the sender's account id.
type Event struct {
	ChatID  int64
	From    Sender
	Kind    EventKind
	Command string
	Data    string
	Text    string
	Media   *Media
}

type Button struct {
	Label string `json:"label"`
	Data  string `json:"data"`
}

// Keyboard is rows of buttons attached to a text message.
type Keyboard [][]Button

// Messenger is the outbound side of a transport.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string, kb Keyboard) error
	SendFile(ctx context.Context, chatID int64, key string) error
}
