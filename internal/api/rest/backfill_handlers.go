package rest

import (
	"encoding/json"
	"net/http"

	"github.com/fortuna/clueboard/internal/backfill"
)

// BackfillHandler proxies API calls to the backfill service.
type BackfillHandler struct {
	service BackfillService
}

// NewBackfillHandler wires the REST layer to the backfill service.
func NewBackfillHandler(service BackfillService) *BackfillHandler {
	return &BackfillHandler{service: service}
}

type apiBackfillRequest struct {
	All       bool     `json:"all"`
	SeasonID  string   `json:"season_id"`
	SeasonIDs []string `json:"season_ids"`
	Games     []string `json:"games"`
	Limit     int      `json:"limit"`
	DryRun    bool     `json:"dry_run"`
}

// HandleBackfillRequest handles POST /api/v1/backfill
func (h *BackfillHandler) HandleBackfillRequest(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		respondError(w, http.StatusServiceUnavailable, "Backfill service is not configured", nil)
		return
	}

	var req apiBackfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	backfillReq := backfill.Request{
		All:    req.All,
		Limit:  req.Limit,
		DryRun: req.DryRun,
	}

	backfillReq.SeasonIDs = append(backfillReq.SeasonIDs, req.SeasonIDs...)
	if req.SeasonID != "" {
		backfillReq.SeasonIDs = append(backfillReq.SeasonIDs, req.SeasonID)
	}

	for _, raw := range req.Games {
		ref, err := backfill.ParseGameRef(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid game reference", err)
			return
		}
		backfillReq.Games = append(backfillReq.Games, ref)
	}

	if err := backfillReq.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid backfill request", err)
		return
	}

	job, err := h.service.Enqueue(r.Context(), backfillReq)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to enqueue backfill job", err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job": jobPayload(job),
	})
}

// HandleBackfillStatus handles GET /api/v1/backfill/status
func (h *BackfillHandler) HandleBackfillStatus(w http.ResponseWriter, r *http.Request) {
	if h.service == nil {
		respondError(w, http.StatusServiceUnavailable, "Backfill service is not configured", nil)
		return
	}

	summary, err := h.service.Status(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch status", err)
		return
	}

	respondJSON(w, http.StatusOK, buildStatusPayload(summary))
}

func buildStatusPayload(summary *backfill.StatusSummary) map[string]interface{} {
	response := map[string]interface{}{
		"status":  "idle",
		"message": "No active jobs",
		"history": []map[string]interface{}{},
	}

	if summary.ActiveJob != nil {
		response["status"] = summary.ActiveJob.Status
		if summary.ActiveJob.StatusMessage.Valid {
			response["message"] = summary.ActiveJob.StatusMessage.String
		}
		response["active_job"] = jobPayload(summary.ActiveJob)
	}

	history := make([]map[string]interface{}, 0, len(summary.History))
	for _, job := range summary.History {
		history = append(history, jobPayload(job))
	}

	response["history"] = history
	return response
}

func jobPayload(job *backfill.Job) map[string]interface{} {
	if job == nil {
		return nil
	}

	payload := map[string]interface{}{
		"job_id":           job.JobID,
		"job_type":         job.JobType,
		"status":           job.Status,
		"dry_run":          job.DryRun,
		"progress_current": job.ProgressCurrent,
		"progress_total":   job.ProgressTotal,
		"created_at":       job.CreatedAt,
		"updated_at":       job.UpdatedAt,
	}

	if job.StatusMessage.Valid {
		payload["status_message"] = job.StatusMessage.String
	}
	if len(job.SeasonIDs) > 0 {
		payload["season_ids"] = []string(job.SeasonIDs)
	}
	if len(job.GameRefs) > 0 {
		payload["games"] = []string(job.GameRefs)
	}
	if job.Limit > 0 {
		payload["limit"] = job.Limit
	}
	if job.StartedAt.Valid {
		payload["started_at"] = job.StartedAt.Time
	}
	if job.CompletedAt.Valid {
		payload["completed_at"] = job.CompletedAt.Time
	}
	if job.LastError.Valid {
		payload["last_error"] = job.LastError.String
	}

	return payload
}
