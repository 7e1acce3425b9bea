package testutil

import (
	"context"
	"sync"

	"assistix/internal/chat"
)

// SentMessage is one outbound call captured by Messenger.
type SentMessage struct {
	ChatID   int64
	Text     string
	Keyboard chat.Keyboard
	FileKey  string
}

// Messenger records every send. Chats listed in Offline fail with
// chat.ErrRecipientOffline.
type Messenger struct {
	mu      sync.Mutex
	sent    []SentMessage
	Offline map[int64]bool
}

func NewMessenger() *Messenger {
	return &Messenger{Offline: map[int64]bool{}}
}

func (m *Messenger) SendText(_ context.Context, chatID int64, text string, kb chat.Keyboard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Offline[chatID] {
		return chat.ErrRecipientOffline
	}
	m.sent = append(m.sent, SentMessage{ChatID: chatID, Text: text, Keyboard: kb})
	return nil
}

func (m *Messenger) SendFile(_ context.Context, chatID int64, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Offline[chatID] {
		return chat.ErrRecipientOffline
	}
	m.sent = append(m.sent, SentMessage{ChatID: chatID, FileKey: key})
	return nil
}

// To returns what chatID received, in order.
func (m *Messenger) To(chatID int64) []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []SentMessage
	for _, s := range m.sent {
		if s.ChatID == chatID {
			out = append(out, s)
		}
	}
	return out
}

// Last returns the latest message sent to chatID.
func (m *Messenger) Last(chatID int64) SentMessage {
	msgs := m.To(chatID)
	if len(msgs) == 0 {
		return SentMessage{}
	}
	return msgs[len(msgs)-1]
}

func (m *Messenger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}
