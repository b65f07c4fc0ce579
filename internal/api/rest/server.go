package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// Server represents the REST API server
type Server struct {
	port   string
	server *http.Server
	router *mux.Router
}

// NewServer creates a new REST API server
func NewServer(port string, opts Options) *Server {
	handler := NewHandler(opts)
	backfillHandler := NewBackfillHandler(opts.Backfill)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware)
	router.Use(LoggingMiddleware)
	router.Use(CORSMiddleware)

	// CORS preflight
	router.PathPrefix("/").Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	// Health check
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Artifact store
	api.HandleFunc("/seasons", handler.ListSeasons).Methods("GET")
	api.HandleFunc("/seasons/{seasonID}/games", handler.ListGames).Methods("GET")
	api.HandleFunc("/seasons/{seasonID}/games/{gameID}", handler.GetTranscript).Methods("GET")

	// Index
	api.HandleFunc("/index/seasons", handler.GetSeasonSummaries).Methods("GET")
	api.HandleFunc("/index/seasons/{seasonID}/games", handler.GetIndexedGames).Methods("GET")

	// Backfill operations
	api.HandleFunc("/backfill", backfillHandler.HandleBackfillRequest).Methods("POST")
	api.HandleFunc("/backfill/status", backfillHandler.HandleBackfillStatus).Methods("GET")

	return &Server{
		port:   port,
		router: router,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the routed handler, middleware included.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
