// Package websocket carries chat events between browser clients and the bot.
package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"assistix/internal/chat"
	"assistix/internal/middleware"
	"assistix/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxFrameBytes  = 16 << 20
	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS layer and the token
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// EventHandler consumes decoded inbound events.
type EventHandler interface {
	Handle(ctx context.Context, ev chat.Event)
}

// Client is one live connection of an account.
type Client struct {
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	Account chat.Sender
}

// Hub tracks live connections by account and implements chat.Messenger over them.
type Hub struct {
	clients    map[int64]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	handler    EventHandler
	log        *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[int64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
	}
}

// SetHandler installs the consumer of inbound events. It must be called
// before the first connection is served.
func (h *Hub) SetHandler(handler EventHandler) {
	h.handler = handler
}

// Run owns registration until ctx is done, then closes every connection.
// It must be called once.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()
	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			h.mu.Lock()
			conns, ok := h.clients[client.Account.ID]
			if !ok {
				conns = make(map[*Client]bool)
				h.clients[client.Account.ID] = conns
			}
			conns[client] = true
			h.mu.Unlock()
			observability.WebSocketConnections.Inc()
			h.log.Info("chat client connected", slog.Int64("account_id", client.Account.ID))
		case client := <-h.unregister:
			h.mu.Lock()
			h.drop(client)
			h.mu.Unlock()
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	close(h.done)
	for _, conns := range h.clients {
		for client := range conns {
			h.drop(client)
		}
	}
}

// drop removes a client; callers hold h.mu.
func (h *Hub) drop(client *Client) {
	conns := h.clients[client.Account.ID]
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	if len(conns) == 0 {
		delete(h.clients, client.Account.ID)
	}
	close(client.Send)
	observability.WebSocketConnections.Dec()
	h.log.Info("chat client disconnected", slog.Int64("account_id", client.Account.ID))
}

// online reports whether the account has a live connection.
func (h *Hub) online(accountID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[accountID]) > 0
}

func (h *Hub) SendText(_ context.Context, chatID int64, text string, kb chat.Keyboard) error {
	return h.deliver(chatID, outboundFrame{Type: frameText, Text: text, Buttons: kb})
}

func (h *Hub) SendFile(_ context.Context, chatID int64, key string) error {
	return h.deliver(chatID, outboundFrame{Type: frameFile, Key: key, URL: "/api/media/" + key})
}

// deliver queues the frame on every connection of the account. A client whose
// buffer is full is disconnected.
func (h *Hub) deliver(accountID int64, frame outboundFrame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	delivered := false
	for client := range h.clients[accountID] {
		select {
		case client.Send <- payload:
			delivered = true
		default:
			h.drop(client)
		}
	}
	if !delivered {
		return chat.ErrRecipientOffline
	}
	return nil
}

// writePump writes queued frames to the connection, one JSON document per frame.
func (c *Client) writePump() {
	defer func() {
		_ = c.Conn.Close()
	}()
	for message := range c.Send {
		_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// readPump decodes frames and hands them to the handler in arrival order.
func (c *Client) readPump(ctx context.Context) {
	defer func() {
		select {
		case c.Hub.unregister <- c:
		case <-c.Hub.done:
		}
		_ = c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxFrameBytes)

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.Hub.log.Warn("chat connection error", slog.Int64("account_id", c.Account.ID), slog.String("error", err.Error()))
			}
			return
		}

		ev, err := decodeEvent(c.Account, message)
		if err != nil {
			c.Hub.log.Debug("rejected frame", slog.Int64("account_id", c.Account.ID), slog.String("error", err.Error()))
			c.reject(err)
			continue
		}
		c.Hub.handler.Handle(ctx, ev)
	}
}

func (c *Client) reject(cause error) {
	payload, _ := json.Marshal(outboundFrame{Type: frameError, Text: cause.Error()})
	c.Hub.mu.RLock()
	defer c.Hub.mu.RUnlock()
	if c.Hub.clients[c.Account.ID][c] {
		select {
		case c.Send <- payload:
		default:
		}
	}
}

// ServeWs authenticates the token query parameter and upgrades the connection.
func ServeWs(hub *Hub, c *gin.Context, secret []byte) {
	select {
	case <-hub.done:
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	default:
	}

	tokenString := c.Query("token")
	if tokenString == "" {
		hub.log.Warn("websocket connection rejected: missing token")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	account, err := middleware.ParseAccountToken(secret, tokenString)
	if err != nil {
		hub.log.Warn("websocket connection rejected", slog.String("error", err.Error()))
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		hub.log.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	client := &Client{Hub: hub, Conn: conn, Send: make(chan []byte, sendBufferSize), Account: account}
	select {
	case hub.register <- client:
	case <-hub.done:
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
		return
	}

	ctx := context.WithoutCancel(c.Request.Context())
	go client.writePump()
	go client.readPump(ctx)
}
