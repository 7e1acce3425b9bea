package websocket

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"assistix/internal/chat"
)

const (
	frameText  = "text"
	frameFile  = "file"
	frameError = "error"
)

var errBadFrame = errors.New("malformed frame")

type inboundFrame struct {
	Type    string      `json:"type"`
	Command string      `json:"command,omitempty"`
	Data    string      `json:"data,omitempty"`
	Text    string      `json:"text,omitempty"`
	Media   *mediaFrame `json:"media,omitempty"`
}

type mediaFrame struct {
	Kind     string `json:"kind"`
	Filename string `json:"filename,omitempty"`
	Data     string `json:"data"` // base64
}

type outboundFrame struct {
	Type    string        `json:"type"`
	Text    string        `json:"text,omitempty"`
	Buttons chat.Keyboard `json:"buttons,omitempty"`
	Key     string        `json:"key,omitempty"`
	URL     string        `json:"url,omitempty"`
}

// decodeEvent turns one client frame into an event from account. Chats are
// private, so the chat id is the account id.
func decodeEvent(account chat.Sender, raw []byte) (chat.Event, error) {
	var f inboundFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return chat.Event{}, fmt.Errorf("%w: %v", errBadFrame, err)
	}

	ev := chat.Event{ChatID: account.ID, From: account, Kind: chat.EventKind(f.Type)}
	switch ev.Kind {
	case chat.EventCommand:
		ev.Command = strings.TrimPrefix(strings.TrimSpace(f.Command), "/")
		if ev.Command == "" {
			return chat.Event{}, fmt.Errorf("%w: empty command", errBadFrame)
		}
	case chat.EventButton:
		if f.Data == "" {
			return chat.Event{}, fmt.Errorf("%w: empty button data", errBadFrame)
		}
		ev.Data = f.Data
	case chat.EventText:
		// a text that looks like a command is one
		if cmd, ok := strings.CutPrefix(strings.TrimSpace(f.Text), "/"); ok && cmd != "" && !strings.ContainsAny(cmd, " \n") {
			ev.Kind = chat.EventCommand
			ev.Command = cmd
			break
		}
		ev.Text = f.Text
	case chat.EventMedia:
		if f.Media == nil {
			return chat.Event{}, fmt.Errorf("%w: media frame without media", errBadFrame)
		}
		content, err := base64.StdEncoding.DecodeString(f.Media.Data)
		if err != nil {
			return chat.Event{}, fmt.Errorf("%w: media data: %v", errBadFrame, err)
		}
		ev.Media = &chat.Media{
			Kind:     chat.MediaKind(f.Media.Kind),
			Filename: f.Media.Filename,
			Open: func(context.Context) (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader(content)), nil
			},
		}
	default:
		return chat.Event{}, fmt.Errorf("%w: unknown type %q", errBadFrame, f.Type)
	}
	return ev, nil
}
