package websocket

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer; clients only send acks
	maxMessageSize = 4 * 1024
)

// Client represents a single WebSocket connection of an authenticated user
type Client struct {
	hub *Hub

	// WebSocket connection
	conn *websocket.Conn

	// Buffered channel of outbound frames
	send chan []byte

	// UserID is the user this connection delivers notifications to
	UserID   string
	Username string
}

// NewClient creates a new Client instance
func NewClient(hub *Hub, conn *websocket.Conn, userID, username string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		UserID:   userID,
		Username: username,
	}
}

// ReadPump reads acknowledgements from the WebSocket connection.
// This runs in its own goroutine per client
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WebSocket] Read error from %s: %v", c.UserID, err)
			}
			break
		}
		c.handleFrame(message)
	}
}

// handleFrame processes a client frame. Only acks are understood.
func (c *Client) handleFrame(raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		log.Printf("[WebSocket] Ignoring malformed frame from %s: %v", c.UserID, err)
		return
	}
	if frame.Type != FrameAck {
		return
	}

	var ack AckPayload
	if err := json.Unmarshal(frame.Payload, &ack); err != nil || ack.NotificationID == 0 {
		log.Printf("[WebSocket] Ignoring malformed ack from %s", c.UserID)
		return
	}
	if c.hub.acker == nil {
		return
	}
	if err := c.hub.acker.MarkRead(context.Background(), c.UserID, ack.NotificationID); err != nil {
		log.Printf("[WebSocket] Ack of notification %d by %s failed: %v", ack.NotificationID, c.UserID, err)
	}
}

// WritePump pumps frames from the hub to the WebSocket connection
// This runs in its own goroutine per client
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// Send each frame separately so clients can parse them as JSON
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			n := len(c.send)
			for i := 0; i < n; i++ {
				if err := c.conn.WriteMessage(websocket.TextMessage, <-c.send); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
