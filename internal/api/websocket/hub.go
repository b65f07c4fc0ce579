package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/fortuna/clueboard/internal/publisher"
)

// MessageTypeTranscript tags messages announcing a new artifact.
const MessageTypeTranscript = "transcript"

// ServerMessage is the envelope written to every client.
type ServerMessage struct {
	Type      string                    `json:"type"`
	Payload   publisher.TranscriptEvent `json:"payload"`
	Timestamp time.Time                 `json:"timestamp"`
}

// Hub maintains the set of active clients and broadcasts messages to them
type Hub struct {
	clients   map[*Client]bool
	clientsMu sync.RWMutex

	// Inbound events from the stream feed
	broadcast chan publisher.TranscriptEvent

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	totalConnections int64
	totalMessages    int64
	metricsMu        sync.Mutex

	logger *slog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan publisher.TranscriptEvent, 1000),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.With("component", "ws_hub"),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("hub started")

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case c := <-h.register:
			h.registerClient(c)

		case c := <-h.unregister:
			h.unregisterClient(c)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

// Register adds a client to the hub
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		close(c.Send)
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Broadcast queues an event for every subscribed client. Events are dropped
// when the queue is full.
func (h *Hub) Broadcast(event publisher.TranscriptEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast buffer full, dropping event", "season", event.SeasonID, "game", event.GameID)
	}
}

func (h *Hub) registerClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.clients[c] = true
	h.incrementTotalConnections()

	h.logger.Info("client connected", "client", c.ID, "total", len(h.clients))
}

func (h *Hub) unregisterClient(c *Client) {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.Send)
		h.logger.Info("client disconnected", "client", c.ID, "total", len(h.clients))
	}
}

func (h *Hub) broadcastEvent(event publisher.TranscriptEvent) {
	h.clientsMu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.clientsMu.RUnlock()

	message := ServerMessage{
		Type:      MessageTypeTranscript,
		Payload:   event,
		Timestamp: time.Now().UTC(),
	}

	sent := 0
	for _, c := range clients {
		if !c.Matches(event) {
			continue
		}

		if c.TrySend(message) {
			sent++
			continue
		}

		// Slow consumer
		h.logger.Warn("client buffer full, disconnecting", "client", c.ID)
		go h.Unregister(c)
	}

	if sent > 0 {
		h.incrementTotalMessages()
	}
}

// Metrics returns hub counters
func (h *Hub) Metrics() map[string]interface{} {
	active := h.ClientCount()

	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()

	return map[string]interface{}{
		"active_clients":     active,
		"total_connections":  h.totalConnections,
		"total_messages":     h.totalMessages,
		"broadcast_capacity": cap(h.broadcast),
		"broadcast_usage":    len(h.broadcast),
	}
}

// ClientCount returns the number of active clients
func (h *Hub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

func (h *Hub) shutdown() {
	h.clientsMu.Lock()
	defer h.clientsMu.Unlock()

	h.logger.Info("shutting down hub", "clients", len(h.clients))
	close(h.done)

	for c := range h.clients {
		close(c.Send)
		delete(h.clients, c)
	}
}

func (h *Hub) incrementTotalConnections() {
	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()
	h.totalConnections++
}

func (h *Hub) incrementTotalMessages() {
	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()
	h.totalMessages++
}
