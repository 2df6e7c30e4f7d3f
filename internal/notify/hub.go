// Package notify pushes activity to users over websockets.
package notify

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mmynk/expensemate/internal/api"
)

const writeTimeout = 10 * time.Second

// Message is the envelope for every pushed event.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// client serializes writes to one websocket connection.
type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Hub tracks one websocket connection per user.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	logger  *slog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*client),
		logger:  logger,
	}
}

// Register stores conn for userID, closing any previous connection.
func (h *Hub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.clients[userID]; ok {
		existing.conn.Close()
	}
	h.clients[userID] = &client{conn: conn}
	h.logger.Info("WebSocket connection registered", "user_id", userID)
}

// Unregister removes conn for userID. A newer connection for the same user is
// left in place.
func (h *Hub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c, ok := h.clients[userID]; ok && c.conn == conn {
		delete(h.clients, userID)
		h.logger.Info("WebSocket connection unregistered", "user_id", userID)
	}
	conn.Close()
}

// IsOnline reports whether userID has a live connection.
func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}

// SendToUser writes msg to userID's connection.
func (h *Hub) SendToUser(userID string, msg Message) error {
	h.mu.RLock()
	c, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("user %s is not connected", userID)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := c.write(data); err != nil {
		h.Unregister(userID, c.conn)
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// PublishActivity sends an activity message to every online recipient.
func (h *Hub) PublishActivity(userIDs []string, log api.AuditLog) {
	msg := Message{Type: "activity", Data: log}
	for _, id := range userIDs {
		if !h.IsOnline(id) {
			continue
		}
		if err := h.SendToUser(id, msg); err != nil {
			h.logger.Warn("Failed to push activity", "user_id", id, "error", err)
		}
	}
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, c := range h.clients {
		c.conn.Close()
		delete(h.clients, id)
	}
}
