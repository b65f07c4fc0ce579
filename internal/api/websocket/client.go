package websocket

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/fortuna/clueboard/internal/publisher"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512

	sendBufferSize = 256
)

// Client is one live-feed subscriber.
type Client struct {
	ID   string
	Send chan ServerMessage

	conn   *websocket.Conn
	hub    *Hub
	season string
	logger *slog.Logger
}

// NewClient creates a client. A non-empty season restricts delivery to
// that season's events.
func NewClient(conn *websocket.Conn, hub *Hub, season string) *Client {
	id := uuid.NewString()
	return &Client{
		ID:     id,
		Send:   make(chan ServerMessage, sendBufferSize),
		conn:   conn,
		hub:    hub,
		season: season,
		logger: hub.logger.With("client", id),
	}
}

// Matches reports whether the client subscribed to event.
func (c *Client) Matches(event publisher.TranscriptEvent) bool {
	return c.season == "" || c.season == event.SeasonID
}

// TrySend queues msg without blocking. It reports false when the client's
// buffer is full.
func (c *Client) TrySend(msg ServerMessage) bool {
	select {
	case c.Send <- msg:
		return true
	default:
		return false
	}
}

// readPump drains the connection so control frames are processed and
// unregisters the client once the peer goes away.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Warn("unexpected close", "err", err)
			}
			return
		}
	}
}

// writePump forwards queued messages to the connection and keeps it alive
// with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Warn("write error", "err", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
