package backfill

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
)

// JobType enumerates the supported backfill job variants.
type JobType string

const (
	// JobTypeAll walks the archive index and every season it links.
	JobTypeAll    JobType = "all"
	JobTypeSeason JobType = "season"
	JobTypeGame   JobType = "game"
)

// JobStatus represents the lifecycle state for a job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusCancelled JobStatus = "cancelled"
)

// GameRef names one game by its season and game ids.
type GameRef struct {
	SeasonID string `json:"season_id"`
	GameID   string `json:"game_id"`
}

func (g GameRef) String() string {
	return g.SeasonID + "/" + g.GameID
}

// ParseGameRef parses the "<season>/<game>" form produced by String.
func ParseGameRef(s string) (GameRef, error) {
	season, game, ok := strings.Cut(s, "/")
	if !ok || season == "" || game == "" || strings.Contains(game, "/") {
		return GameRef{}, fmt.Errorf("invalid game reference %q, want <season>/<game>", s)
	}
	return GameRef{SeasonID: season, GameID: game}, nil
}

// Job models the database representation of a backfill job.
type Job struct {
	JobID           string         `json:"job_id"`
	JobType         JobType        `json:"job_type"`
	SeasonIDs       pq.StringArray `json:"season_ids"`
	GameRefs        pq.StringArray `json:"game_refs"`
	Limit           int            `json:"limit"`
	DryRun          bool           `json:"dry_run"`
	Status          JobStatus      `json:"status"`
	StatusMessage   sql.NullString `json:"status_message"`
	ProgressCurrent int            `json:"progress_current"`
	ProgressTotal   int            `json:"progress_total"`
	LastError       sql.NullString `json:"last_error"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	StartedAt       sql.NullTime   `json:"started_at"`
	CompletedAt     sql.NullTime   `json:"completed_at"`
}

// Copy returns a shallow copy to prevent external mutation.
func (j *Job) Copy() *Job {
	if j == nil {
		return nil
	}
	cpy := *j
	return &cpy
}

// JobSpec describes the work to be performed by the runner.
type JobSpec struct {
	Type      JobType
	SeasonIDs []string
	Games     []GameRef
	// Limit caps the number of games processed; zero means no cap.
	Limit  int
	DryRun bool
}

// GameResult describes one processed game.
type GameResult struct {
	SeasonID       string
	GameID         string
	URL            string
	Path           string
	Rounds         int
	Clues          int
	TripleStumpers int
	DryRun         bool
}

// Reporter receives lifecycle callbacks from the runner.
type Reporter interface {
	OnJobStart(spec JobSpec)
	OnSeasonStart(seasonID string, index int, total int)
	OnGameProcessed(result GameResult)
	OnProgress(message string, current int, total int)
	OnJobComplete()
	OnJobError(err error)
}

// StatusSummary is returned to API callers.
type StatusSummary struct {
	ActiveJob *Job   `json:"active_job,omitempty"`
	History   []*Job `json:"recent_jobs,omitempty"`
}

type nopReporter struct{}

func (nopReporter) OnJobStart(JobSpec) {}
func (nopReporter) OnSeasonStart(string, int, int) {}
func (nopReporter) OnGameProcessed(GameResult) {}
func (nopReporter) OnProgress(string, int, int) {}
func (nopReporter) OnJobComplete() {}
func (nopReporter) OnJobError(error) {}
