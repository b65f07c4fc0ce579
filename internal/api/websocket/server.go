package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server represents the WebSocket server
type Server struct {
	port   string
	server *http.Server
	hub    *Hub
}

// NewServer creates a new WebSocket server around hub. The hub must be run
// separately.
func NewServer(port string, hub *Hub) *Server {
	s := &Server{port: port, hub: hub}

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/transcripts", s.handleTranscripts)
	mux.HandleFunc("/ws/health", s.handleHealth)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%s", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler serving the WebSocket routes.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the WebSocket server
func (s *Server) Start() error {
	s.hub.logger.Info("websocket server listening", "port", s.port)
	return s.server.ListenAndServe()
}

// handleTranscripts upgrades the connection and subscribes it to new
// transcripts, optionally filtered by ?season=<id>.
func (s *Server) handleTranscripts(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.hub.logger.Warn("failed to upgrade connection", "err", err)
		return
	}

	client := NewClient(conn, s.hub, r.URL.Query().Get("season"))
	s.hub.Register(client)

	go client.writePump()
	go client.readPump()
}

// handleHealth returns WebSocket server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "healthy",
		"metrics": s.hub.Metrics(),
	})
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
