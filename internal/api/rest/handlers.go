package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/fortuna/clueboard/internal/artifact"
	"github.com/fortuna/clueboard/internal/backfill"
	"github.com/fortuna/clueboard/internal/store"
)

// HealthChecker is anything that can report its own liveness.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// GameIndex is the read side of the artifact index.
type GameIndex interface {
	SeasonSummaries(ctx context.Context) ([]store.SeasonSummary, error)
	ListBySeason(ctx context.Context, seasonID string) ([]*store.GameRecord, error)
}

// BackfillService queues and reports backfill jobs.
type BackfillService interface {
	Enqueue(ctx context.Context, req backfill.Request) (*backfill.Job, error)
	Status(ctx context.Context) (*backfill.StatusSummary, error)
}

// Options wires the API to its collaborators. Index, Backfill and Checks
// are optional; endpoints depending on a missing one answer 503.
type Options struct {
	DataDir  string
	Index    GameIndex
	Backfill BackfillService
	Checks   map[string]HealthChecker
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	artifacts *artifact.Writer
	index     GameIndex
	checks    map[string]HealthChecker
}

// NewHandler creates a new handler
func NewHandler(opts Options) *Handler {
	return &Handler{
		artifacts: artifact.NewWriter(opts.DataDir),
		index:     opts.Index,
		checks:    opts.Checks,
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := map[string]string{}
	for name, check := range h.checks {
		if err := check.HealthCheck(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "degraded"
	}

	respondJSON(w, status, map[string]interface{}{
		"status":       state,
		"service":      "clueboard",
		"dependencies": deps,
	})
}

// ListSeasons returns the season ids present in the artifact store
func (h *Handler) ListSeasons(w http.ResponseWriter, r *http.Request) {
	seasons, err := artifact.Seasons(h.artifacts.Root())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list seasons", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"seasons": seasons,
		"count":   len(seasons),
	})
}

// ListGames returns the game ids stored for a season
func (h *Handler) ListGames(w http.ResponseWriter, r *http.Request) {
	seasonID := mux.Vars(r)["seasonID"]

	games, err := artifact.Games(h.artifacts.Root(), seasonID)
	switch {
	case errors.Is(err, artifact.ErrInvalidID):
		respondError(w, http.StatusBadRequest, "Invalid season ID", err)
		return
	case err != nil:
		respondError(w, http.StatusNotFound, "Season not found", nil)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"season_id": seasonID,
		"games":     games,
		"count":     len(games),
	})
}

// GetTranscript returns one stored transcript exactly as it was written
func (h *Handler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	seasonID, gameID := vars["seasonID"], vars["gameID"]

	result := h.artifacts.Load(seasonID, gameID)
	switch {
	case result.OK():
	case errors.Is(result.Reason, artifact.ErrInvalidID):
		respondError(w, http.StatusBadRequest, "Invalid season or game ID", result.Reason)
		return
	case result.IsNotExist():
		respondError(w, http.StatusNotFound, "Transcript not found", nil)
		return
	case result.Status == artifact.StatusMalformed:
		slog.WarnContext(r.Context(), "malformed artifact", "path", result.Path, "err", result.Reason)
		respondError(w, http.StatusUnprocessableEntity, "Transcript is malformed", result.Reason)
		return
	default:
		respondError(w, http.StatusInternalServerError, "Failed to read transcript", result.Reason)
		return
	}

	data, err := artifact.Encode(result.Transcript)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to encode transcript", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// GetSeasonSummaries returns per-season totals from the index
func (h *Handler) GetSeasonSummaries(w http.ResponseWriter, r *http.Request) {
	if h.index == nil {
		respondError(w, http.StatusServiceUnavailable, "Index database is not configured", nil)
		return
	}

	summaries, err := h.index.SeasonSummaries(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch season summaries", err)
		return
	}

	respondJSON(w, http.StatusOK, summaries)
}

// GetIndexedGames returns the index rows for one season
func (h *Handler) GetIndexedGames(w http.ResponseWriter, r *http.Request) {
	if h.index == nil {
		respondError(w, http.StatusServiceUnavailable, "Index database is not configured", nil)
		return
	}

	games, err := h.index.ListBySeason(r.Context(), mux.Vars(r)["seasonID"])
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch indexed games", err)
		return
	}

	respondJSON(w, http.StatusOK, games)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	respondJSON(w, status, response)
}
