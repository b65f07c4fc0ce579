package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fortuna/clueboard/internal/backfill"
)

// Enqueuer accepts backfill requests.
type Enqueuer interface {
	Enqueue(ctx context.Context, req backfill.Request) (*backfill.Job, error)
}

// Config holds scheduler configuration
type Config struct {
	DailyHour  int      // Default: 3 (3 AM)
	SeasonIDs  []string // seasons re-scraped every day
	MaxRetries int      // Default: 3
	RetryDelay time.Duration
}

// DefaultConfig returns default scheduler configuration
func DefaultConfig() Config {
	return Config{
		DailyHour:  3,
		MaxRetries: 3,
		RetryDelay: 5 * time.Second,
	}
}

// Scheduler queues a season refresh once a day so newly aired games get
// picked up without a manual backfill.
type Scheduler struct {
	jobs   Enqueuer
	config Config
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	lastRun time.Time
	lastJob string
	lastErr error
}

// New creates a scheduler. Nothing runs until Run is called.
func New(jobs Enqueuer, config Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxRetries < 1 {
		config.MaxRetries = 1
	}
	return &Scheduler{
		jobs:   jobs,
		config: config,
		logger: logger.With("component", "scheduler"),
		now:    time.Now,
	}
}

// Run blocks until ctx is cancelled, queueing a refresh at DailyHour.
func (s *Scheduler) Run(ctx context.Context) {
	s.logger.Info("daily refresh scheduled", "hour", s.config.DailyHour, "seasons", s.config.SeasonIDs)

	for {
		next := nextRun(s.now(), s.config.DailyHour)
		wait := next.Sub(s.now())
		s.logger.Debug("next refresh", "at", next.Format("2006-01-02 15:04:05"), "in", wait.Round(time.Second))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logger.Info("scheduler stopped")
			return
		case <-timer.C:
			if err := s.Trigger(ctx); err != nil {
				s.logger.Error("daily refresh failed", "err", err)
			}
		}
	}
}

// Trigger queues a refresh immediately, retrying failed enqueues.
func (s *Scheduler) Trigger(ctx context.Context) error {
	if len(s.config.SeasonIDs) == 0 {
		return fmt.Errorf("no seasons configured")
	}

	req := backfill.Request{SeasonIDs: s.config.SeasonIDs}

	var (
		job *backfill.Job
		err error
	)
retry:
	for attempt := 1; attempt <= s.config.MaxRetries; attempt++ {
		job, err = s.jobs.Enqueue(ctx, req)
		if err == nil {
			break
		}

		s.logger.Warn("enqueue attempt failed", "attempt", attempt, "max", s.config.MaxRetries, "err", err)
		if attempt < s.config.MaxRetries {
			select {
			case <-ctx.Done():
				err = ctx.Err()
				break retry
			case <-time.After(s.config.RetryDelay):
			}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun = s.now()
	s.lastErr = err
	if err != nil {
		return fmt.Errorf("enqueue refresh: %w", err)
	}
	s.lastJob = job.JobID
	s.logger.Info("daily refresh queued", "job", job.JobID, "seasons", s.config.SeasonIDs)
	return nil
}

// Status returns current scheduler status
func (s *Scheduler) Status() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"daily_hour": s.config.DailyHour,
		"seasons":    s.config.SeasonIDs,
		"next_run":   nextRun(s.now(), s.config.DailyHour),
	}
	if !s.lastRun.IsZero() {
		status["last_run"] = s.lastRun
		status["last_job"] = s.lastJob
	}
	if s.lastErr != nil {
		status["last_error"] = s.lastErr.Error()
	}
	return status
}

// nextRun returns the first time at hour:00 strictly after now.
func nextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
