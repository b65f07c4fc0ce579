package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fortuna/clueboard/internal/backfill"
)

type fakeEnqueuer struct {
	failures int
	requests []backfill.Request
}

func (f *fakeEnqueuer) Enqueue(_ context.Context, req backfill.Request) (*backfill.Job, error) {
	f.requests = append(f.requests, req)
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("database unavailable")
	}
	return &backfill.Job{JobID: "12", Status: backfill.JobStatusQueued}, nil
}

func TestNextRun(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "later today",
			now:  time.Date(2026, 3, 4, 1, 30, 0, 0, time.UTC),
			want: time.Date(2026, 3, 4, 3, 0, 0, 0, time.UTC),
		},
		{
			name: "already passed",
			now:  time.Date(2026, 3, 4, 5, 0, 0, 0, time.UTC),
			want: time.Date(2026, 3, 5, 3, 0, 0, 0, time.UTC),
		},
		{
			name: "exactly on the hour",
			now:  time.Date(2026, 3, 4, 3, 0, 0, 0, time.UTC),
			want: time.Date(2026, 3, 5, 3, 0, 0, 0, time.UTC),
		},
		{
			name: "month rollover",
			now:  time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC),
			want: time.Date(2026, 2, 1, 3, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, nextRun(tt.now, 3))
		})
	}
}

func TestTriggerRetries(t *testing.T) {
	jobs := &fakeEnqueuer{failures: 2}
	s := New(jobs, Config{DailyHour: 3, SeasonIDs: []string{"42"}, MaxRetries: 3}, nil)

	require.NoError(t, s.Trigger(context.Background()))
	require.Len(t, jobs.requests, 3)
	require.Equal(t, []string{"42"}, jobs.requests[0].SeasonIDs)

	status := s.Status()
	require.Equal(t, "12", status["last_job"])
	require.NotContains(t, status, "last_error")
}

func TestTriggerGivesUp(t *testing.T) {
	jobs := &fakeEnqueuer{failures: 5}
	s := New(jobs, Config{SeasonIDs: []string{"42"}, MaxRetries: 2}, nil)

	err := s.Trigger(context.Background())
	require.Error(t, err)
	require.Len(t, jobs.requests, 2)
	require.Equal(t, "database unavailable", s.Status()["last_error"])
}

func TestTriggerNeedsSeasons(t *testing.T) {
	s := New(&fakeEnqueuer{}, DefaultConfig(), nil)
	require.Error(t, s.Trigger(context.Background()))
}

func TestRunStopsOnCancel(t *testing.T) {
	s := New(&fakeEnqueuer{}, Config{DailyHour: 3, SeasonIDs: []string{"42"}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	require.Eventually(t, func() bool {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}, time.Second, 10*time.Millisecond)
}
