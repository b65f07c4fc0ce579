package backfill

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fortuna/clueboard/internal/store"
)

// Request represents a backfill invocation request.
type Request struct {
	All       bool      `json:"all"`
	SeasonIDs []string  `json:"season_ids"`
	Games     []GameRef `json:"games"`
	Limit     int       `json:"limit"`
	DryRun    bool      `json:"dry_run"`
}

// DeriveType infers the job type based on populated fields.
func (r Request) DeriveType() (JobType, error) {
	switch {
	case len(r.Games) > 0:
		return JobTypeGame, nil
	case len(r.SeasonIDs) > 0:
		return JobTypeSeason, nil
	case r.All:
		return JobTypeAll, nil
	}
	return "", errors.New("unable to determine job type from request")
}

// Validate rejects requests the runner could not execute.
func (r Request) Validate() error {
	if _, err := r.DeriveType(); err != nil {
		return err
	}
	if r.Limit < 0 {
		return errors.New("limit must not be negative")
	}
	for _, g := range r.Games {
		if g.SeasonID == "" || g.GameID == "" {
			return fmt.Errorf("game reference %q needs both season_id and game_id", g)
		}
	}
	return nil
}

// Service coordinates job persistence, execution, and status reporting.
type Service struct {
	repo   *Repository
	runner *Runner

	historyLimit int
	pollInterval time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger *slog.Logger
}

// NewService constructs a Service. Call Start to launch the worker.
func NewService(db *store.Database, runner *Runner, logger *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	if logger == nil {
		logger = slog.Default()
	}

	return &Service{
		repo:         NewRepository(db),
		runner:       runner,
		historyLimit: 10,
		pollInterval: 3 * time.Second,
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger.With("component", "backfill_service"),
	}
}

// Start launches the background worker loop.
func (s *Service) Start() {
	if err := s.repo.ResetStuckJobs(s.ctx); err != nil {
		s.logger.Error("failed to reset jobs", "err", err)
	}

	s.wg.Add(1)
	go s.worker()
}

// Shutdown stops the worker and waits for it to finish.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.wg.Wait()
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

// Enqueue creates a new job from the provided request.
func (s *Service) Enqueue(ctx context.Context, req Request) (*Job, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	job := newJob(req)

	stored, err := s.repo.CreateJob(ctx, job)
	if err != nil {
		return nil, err
	}

	if err := s.repo.AppendEvent(ctx, stored.JobID, "queued", "Job queued"); err != nil {
		s.logger.Warn("failed to record job event", "job", stored.JobID, "err", err)
	}

	s.logger.Info("job queued", "job", stored.JobID, "type", stored.JobType)
	return stored, nil
}

// Status returns the currently running job plus recent history.
func (s *Service) Status(ctx context.Context) (*StatusSummary, error) {
	active, err := s.repo.GetActiveJob(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.repo.ListRecentJobs(ctx, s.historyLimit)
	if err != nil {
		return nil, err
	}

	return &StatusSummary{
		ActiveJob: active,
		History:   history,
	}, nil
}

func (s *Service) worker() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		job, err := s.repo.MarkNextJobRunning(s.ctx)
		if err != nil {
			if s.ctx.Err() != nil {
				return
			}
			s.logger.Error("claim job error", "err", err)
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				continue
			}
		}

		s.executeJob(job)
	}
}

func (s *Service) executeJob(job *Job) {
	logger := s.logger.With("job", job.JobID)

	spec, err := buildSpec(job)
	if err != nil {
		logger.Error("invalid job spec", "err", err)
		_ = s.repo.UpdateStatus(s.ctx, job.JobID, JobStatusFailed, "Invalid job specification", err)
		return
	}

	reporter := &jobReporter{
		ctx:    s.ctx,
		repo:   s.repo,
		jobID:  job.JobID,
		total:  job.ProgressTotal,
		logger: logger,
	}

	if err := s.runner.Run(s.ctx, spec, reporter); err != nil {
		status, message := JobStatusFailed, "Job failed"
		if errors.Is(err, context.Canceled) {
			status, message = JobStatusCancelled, "Job cancelled by shutdown"
		}
		// The service context may already be cancelled here.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.repo.UpdateStatus(ctx, job.JobID, status, message, err)
		logger.Error("job failed", "err", err)
		return
	}

	_ = s.repo.UpdateStatus(s.ctx, job.JobID, JobStatusCompleted, "Job completed", nil)
}

func newJob(req Request) *Job {
	jobType, _ := req.DeriveType()

	job := &Job{
		JobType:       jobType,
		SeasonIDs:     append([]string{}, req.SeasonIDs...),
		GameRefs:      []string{},
		Limit:         req.Limit,
		DryRun:        req.DryRun,
		Status:        JobStatusQueued,
		StatusMessage: sql.NullString{String: "Queued", Valid: true},
	}
	for _, g := range req.Games {
		job.GameRefs = append(job.GameRefs, g.String())
	}

	switch jobType {
	case JobTypeGame:
		job.ProgressTotal = len(job.GameRefs)
		if req.Limit > 0 && req.Limit < job.ProgressTotal {
			job.ProgressTotal = req.Limit
		}
	case JobTypeSeason:
		job.ProgressTotal = len(job.SeasonIDs)
	}

	return job
}

func buildSpec(job *Job) (JobSpec, error) {
	spec := JobSpec{
		Type:   job.JobType,
		Limit:  job.Limit,
		DryRun: job.DryRun,
	}

	switch job.JobType {
	case JobTypeGame:
		if len(job.GameRefs) == 0 {
			return spec, errors.New("game job missing game_refs")
		}
		for _, raw := range job.GameRefs {
			ref, err := ParseGameRef(raw)
			if err != nil {
				return spec, err
			}
			spec.Games = append(spec.Games, ref)
		}
	case JobTypeSeason:
		if len(job.SeasonIDs) == 0 {
			return spec, errors.New("season job missing season_ids")
		}
		spec.SeasonIDs = append([]string{}, job.SeasonIDs...)
	case JobTypeAll:
	default:
		return spec, fmt.Errorf("unknown job type %s", job.JobType)
	}

	return spec, nil
}

type jobReporter struct {
	ctx    context.Context
	repo   *Repository
	jobID  string
	total  int
	logger *slog.Logger

	games int
}

func (r *jobReporter) OnJobStart(spec JobSpec) {
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, 0, r.total, "Job starting")
}

func (r *jobReporter) OnSeasonStart(seasonID string, index int, total int) {
	msg := fmt.Sprintf("Processing season %s (%d/%d)", seasonID, index+1, total)
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, index, total, msg)
	_ = r.repo.AppendEvent(r.ctx, r.jobID, "season", msg)
}

func (r *jobReporter) OnGameProcessed(result GameResult) {
	r.games++
	_ = r.repo.AppendEvent(r.ctx, r.jobID, "game", fmt.Sprintf("Game %s/%s extracted (%d clues)", result.SeasonID, result.GameID, result.Clues))
}

func (r *jobReporter) OnProgress(message string, current int, total int) {
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, current, valueOr(total, r.total), message)
}

func (r *jobReporter) OnJobComplete() {
	_ = r.repo.UpdateProgress(r.ctx, r.jobID, valueOr(r.total, r.games), valueOr(r.total, r.games), "Job complete")
	r.logger.Info("job complete", "games", r.games)
}

func (r *jobReporter) OnJobError(err error) {
	_ = r.repo.AppendEvent(r.ctx, r.jobID, "error", err.Error())
}

func valueOr(val, fallback int) int {
	if val > 0 {
		return val
	}
	return fallback
}
