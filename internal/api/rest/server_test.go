package rest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fortuna/clueboard/internal/archive"
	"github.com/fortuna/clueboard/internal/artifact"
	"github.com/fortuna/clueboard/internal/backfill"
	"github.com/fortuna/clueboard/internal/store"
)

type fakeIndex struct {
	summaries []store.SeasonSummary
	games     []*store.GameRecord
	err       error
}

func (f *fakeIndex) SeasonSummaries(context.Context) ([]store.SeasonSummary, error) {
	return f.summaries, f.err
}

func (f *fakeIndex) ListBySeason(_ context.Context, seasonID string) ([]*store.GameRecord, error) {
	return f.games, f.err
}

type fakeBackfill struct {
	requests []backfill.Request
	status   *backfill.StatusSummary
}

func (f *fakeBackfill) Enqueue(_ context.Context, req backfill.Request) (*backfill.Job, error) {
	f.requests = append(f.requests, req)
	jobType, err := req.DeriveType()
	if err != nil {
		return nil, err
	}
	return &backfill.Job{
		JobID:         "7",
		JobType:       jobType,
		Status:        backfill.JobStatusQueued,
		StatusMessage: sql.NullString{String: "Queued", Valid: true},
		CreatedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}, nil
}

func (f *fakeBackfill) Status(context.Context) (*backfill.StatusSummary, error) {
	if f.status == nil {
		return &backfill.StatusSummary{}, nil
	}
	return f.status, nil
}

type failingCheck struct{}

func (failingCheck) HealthCheck(context.Context) error { return errors.New("connection refused") }

func seedArtifacts(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	w := artifact.NewWriter(root)
	_, err := w.Write(archive.Transcript{
		URL: "https://j-archive.com/showgame.php?game_id=9000",
		Rounds: []archive.Round{{
			Kind: archive.FinalRound,
			Categories: []archive.Category{{
				Name:  "AUTHORS",
				Clues: []archive.Clue{{Text: "He wrote \"Moby-Dick\"", Answer: "Herman Melville"}},
			}},
		}},
	}, "41", "9000")
	require.NoError(t, err)
	_, err = w.Write(archive.Transcript{URL: "u"}, "40", "8000")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "41", "9001.json"), []byte(`{"url":`), 0o644))
	return root
}

func serve(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestArtifactEndpoints(t *testing.T) {
	root := seedArtifacts(t)
	h := NewServer("0", Options{DataDir: root}).Handler()

	rec := serve(t, h, http.MethodGet, "/api/v1/seasons", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []interface{}{"40", "41"}, decode(t, rec)["seasons"])

	rec = serve(t, h, http.MethodGet, "/api/v1/seasons/41/games", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []interface{}{"9000", "9001"}, decode(t, rec)["games"])

	rec = serve(t, h, http.MethodGet, "/api/v1/seasons/99/games", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetTranscript(t *testing.T) {
	root := seedArtifacts(t)
	h := NewServer("0", Options{DataDir: root}).Handler()

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{name: "stored", path: "/api/v1/seasons/41/games/9000", status: http.StatusOK},
		{name: "missing", path: "/api/v1/seasons/41/games/1", status: http.StatusNotFound},
		{name: "malformed", path: "/api/v1/seasons/41/games/9001", status: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, h, http.MethodGet, tt.path, "")
			require.Equal(t, tt.status, rec.Code)
			require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}

	rec := serve(t, h, http.MethodGet, "/api/v1/seasons/41/games/9000", "")
	onDisk, err := os.ReadFile(filepath.Join(root, "41", "9000.json"))
	require.NoError(t, err)
	require.Equal(t, string(onDisk), rec.Body.String())
}

func TestIndexEndpoints(t *testing.T) {
	h := NewServer("0", Options{DataDir: t.TempDir()}).Handler()
	require.Equal(t, http.StatusServiceUnavailable, serve(t, h, http.MethodGet, "/api/v1/index/seasons", "").Code)

	idx := &fakeIndex{
		summaries: []store.SeasonSummary{{SeasonID: "41", Games: 2, Clues: 120}},
		games:     []*store.GameRecord{{SeasonID: "41", GameID: "9000", Clues: 61}},
	}
	h = NewServer("0", Options{DataDir: t.TempDir(), Index: idx}).Handler()

	rec := serve(t, h, http.MethodGet, "/api/v1/index/seasons", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summaries []store.SeasonSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Equal(t, idx.summaries[0].Clues, summaries[0].Clues)

	rec = serve(t, h, http.MethodGet, "/api/v1/index/seasons/41/games", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"game_id":"9000"`)

	idx.err = errors.New("boom")
	require.Equal(t, http.StatusInternalServerError, serve(t, h, http.MethodGet, "/api/v1/index/seasons", "").Code)
}

func TestBackfillEndpoints(t *testing.T) {
	h := NewServer("0", Options{}).Handler()
	require.Equal(t, http.StatusServiceUnavailable, serve(t, h, http.MethodPost, "/api/v1/backfill", `{"all":true}`).Code)
	require.Equal(t, http.StatusServiceUnavailable, serve(t, h, http.MethodGet, "/api/v1/backfill/status", "").Code)

	svc := &fakeBackfill{}
	h = NewServer("0", Options{Backfill: svc}).Handler()

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "all", body: `{"all":true,"limit":5}`, status: http.StatusAccepted},
		{name: "seasons", body: `{"season_id":"41","season_ids":["40"]}`, status: http.StatusAccepted},
		{name: "games", body: `{"games":["41/9000"],"dry_run":true}`, status: http.StatusAccepted},
		{name: "bad json", body: `{`, status: http.StatusBadRequest},
		{name: "bad game ref", body: `{"games":["9000"]}`, status: http.StatusBadRequest},
		{name: "nothing to do", body: `{}`, status: http.StatusBadRequest},
		{name: "negative limit", body: `{"all":true,"limit":-1}`, status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, h, http.MethodPost, "/api/v1/backfill", tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	require.Len(t, svc.requests, 3)
	require.Equal(t, []string{"40", "41"}, svc.requests[1].SeasonIDs)
	require.Equal(t, []backfill.GameRef{{SeasonID: "41", GameID: "9000"}}, svc.requests[2].Games)
	require.True(t, svc.requests[2].DryRun)

	rec := serve(t, h, http.MethodGet, "/api/v1/backfill/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "idle", body["status"])
	require.Equal(t, []interface{}{}, body["history"])
}

func TestBackfillStatusWithActiveJob(t *testing.T) {
	active := &backfill.Job{
		JobID:           "3",
		JobType:         backfill.JobTypeSeason,
		SeasonIDs:       []string{"41"},
		Status:          backfill.JobStatusRunning,
		StatusMessage:   sql.NullString{String: "Processing season 41 (1/1)", Valid: true},
		ProgressCurrent: 12,
		ProgressTotal:   230,
	}
	h := NewServer("0", Options{Backfill: &fakeBackfill{status: &backfill.StatusSummary{
		ActiveJob: active,
		History:   []*backfill.Job{active},
	}}}).Handler()

	body := decode(t, serve(t, h, http.MethodGet, "/api/v1/backfill/status", ""))
	require.Equal(t, "running", body["status"])
	require.Equal(t, "Processing season 41 (1/1)", body["message"])
	require.Len(t, body["history"], 1)

	job := body["active_job"].(map[string]interface{})
	require.Equal(t, []interface{}{"41"}, job["season_ids"])
	require.EqualValues(t, 12, job["progress_current"])
}

func TestHealthCheck(t *testing.T) {
	h := NewServer("0", Options{}).Handler()
	rec := serve(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "healthy", decode(t, rec)["status"])

	h = NewServer("0", Options{Checks: map[string]HealthChecker{"redis": failingCheck{}}}).Handler()
	rec = serve(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	require.Equal(t, "degraded", body["status"])
	require.Equal(t, "connection refused", body["dependencies"].(map[string]interface{})["redis"])
}

func TestMiddleware(t *testing.T) {
	panicky := RecoveryMiddleware(LoggingMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	})))
	rec := serve(t, panicky, http.MethodGet, "/", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "kaboom", decode(t, rec)["details"])

	h := NewServer("0", Options{}).Handler()
	rec = serve(t, h, http.MethodOptions, "/api/v1/backfill", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
