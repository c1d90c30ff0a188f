package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/adi-253/parley/backend/internal/models"
)

// Frame types
const (
	FrameNotification = "notification"
	FrameAck          = "ack"
)

// Frame is the envelope of every WebSocket message in either direction
type Frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// NotificationPayload is pushed to the recipient when a message arrives
type NotificationPayload struct {
	NotificationID uint      `json:"notification_id"`
	MessageID      string    `json:"message_id"`
	ConversationID string    `json:"conversation"`
	SenderID       string    `json:"sender"`
	Body           string    `json:"message_body"`
	SentAt         time.Time `json:"sent_at"`
}

// AckPayload is sent by clients to mark a notification read
type AckPayload struct {
	NotificationID uint `json:"notification_id"`
}

// Acker marks notifications read on behalf of a connected user
type Acker interface {
	MarkRead(ctx context.Context, userID string, id uint) error
}

// userFrame is a frame addressed to every connection of one user
type userFrame struct {
	UserID string
	Frame  []byte
}

// Hub maintains the set of active clients grouped by user and pushes
// notifications to them.
type Hub struct {
	// users maps userID to the set of that user's connections
	users map[string]map[*Client]bool

	// register requests from clients
	register chan *Client

	// unregister requests from clients
	unregister chan *Client

	// deliver sends a frame to all connections of a user
	deliver chan *userFrame

	// mutex for thread-safe user map operations
	mu sync.RWMutex

	acker Acker
}

// NewHub creates a new Hub instance
func NewHub(acker Acker) *Hub {
	return &Hub{
		users:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan *userFrame, 256),
		acker:      acker,
	}
}

// Run starts the hub's main event loop
// This should be called in a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case f := <-h.deliver:
			h.deliverToUser(f)
		}
	}
}

func (h *Hub) Name() string { return "websocket" }

// PublishNotification queues a notification frame for its recipient. Users
// without an open connection simply miss the push; the record stays unread.
func (h *Hub) PublishNotification(ctx context.Context, n models.Notification, msg models.Message) error {
	payload, err := json.Marshal(NotificationPayload{
		NotificationID: n.ID,
		MessageID:      msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Body:           msg.Body,
		SentAt:         msg.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	frame, err := json.Marshal(Frame{Type: FrameNotification, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	select {
	case h.deliver <- &userFrame{UserID: n.UserID, Frame: frame}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// registerClient adds a client to its user's set
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.users[client.UserID] == nil {
		h.users[client.UserID] = make(map[*Client]bool)
	}

	h.users[client.UserID][client] = true
	log.Printf("[WebSocket] %s connected (connections: %d)", client.Username, len(h.users[client.UserID]))
}

// unregisterClient removes a client from its user's set
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.users[client.UserID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			close(client.send)

			log.Printf("[WebSocket] %s disconnected (remaining: %d)", client.Username, len(clients))

			if len(clients) == 0 {
				delete(h.users, client.UserID)
			}
		}
	}
}

// deliverToUser sends a frame to every connection of a user
func (h *Hub) deliverToUser(f *userFrame) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.users[f.UserID] {
		select {
		case client.send <- f.Frame:
		default:
			// Client's buffer is full, drop the connection
			delete(h.users[f.UserID], client)
			close(client.send)
		}
	}
	if len(h.users[f.UserID]) == 0 {
		delete(h.users, f.UserID)
	}
}

// ConnectionCount returns the number of open connections of a user
func (h *Hub) ConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}
