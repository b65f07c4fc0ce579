package backfill

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fortuna/clueboard/internal/archive"
	"github.com/fortuna/clueboard/internal/artifact"
	"github.com/fortuna/clueboard/internal/ingest"
	"github.com/fortuna/clueboard/internal/publisher"
	"github.com/fortuna/clueboard/internal/store"
)

// errLimitReached stops a run early once JobSpec.Limit games are done.
var errLimitReached = errors.New("game limit reached")

// Indexer records written artifacts.
type Indexer interface {
	Upsert(ctx context.Context, rec store.GameRecord) error
}

// EventPublisher announces written artifacts.
type EventPublisher interface {
	PublishTranscript(ctx context.Context, event publisher.TranscriptEvent) error
}

// Runner executes backfill specs one page at a time: index, seasons, games.
type Runner struct {
	extractor *archive.Extractor
	ingester  *ingest.Ingester
	writer    *artifact.Writer
	index     Indexer
	events    EventPublisher
	logger    *slog.Logger
	now       func() time.Time
}

// RunnerOption configures optional collaborators.
type RunnerOption func(*Runner)

// WithIndex upserts every written artifact into idx.
func WithIndex(idx Indexer) RunnerOption {
	return func(r *Runner) { r.index = idx }
}

// WithPublisher publishes an event for every written artifact.
func WithPublisher(p EventPublisher) RunnerOption {
	return func(r *Runner) { r.events = p }
}

// WithLogger sets the runner logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// NewRunner constructs a runner reading pages from source and writing
// artifacts through writer.
func NewRunner(extractor *archive.Extractor, source ingest.Source, writer *artifact.Writer, opts ...RunnerOption) *Runner {
	r := &Runner{
		extractor: extractor,
		ingester:  ingest.NewIngester(source),
		writer:    writer,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "backfill")
	return r
}

type run struct {
	spec      JobSpec
	reporter  Reporter
	processed int
}

func (s *run) limitReached() bool {
	return s.spec.Limit > 0 && s.processed >= s.spec.Limit
}

// Run executes the job spec, reporting progress via the Reporter if
// provided. The first fetch, parse or write failure aborts the run.
func (r *Runner) Run(ctx context.Context, spec JobSpec, reporter Reporter) error {
	if reporter == nil {
		reporter = nopReporter{}
	}
	state := &run{spec: spec, reporter: reporter}

	reporter.OnJobStart(spec)
	if spec.DryRun {
		reporter.OnProgress("Dry-run mode: no artifacts will be written", 0, 0)
	}

	err := r.dispatch(ctx, state)
	if errors.Is(err, errLimitReached) {
		reporter.OnProgress(fmt.Sprintf("Limit of %d games reached", spec.Limit), state.processed, spec.Limit)
		err = nil
	}
	if err != nil {
		reporter.OnJobError(err)
		return err
	}

	r.logger.InfoContext(ctx, "backfill complete", "type", spec.Type, "games", state.processed, "dry_run", spec.DryRun)
	reporter.OnJobComplete()
	return nil
}

func (r *Runner) dispatch(ctx context.Context, state *run) error {
	cfg := r.extractor.Config()

	switch state.spec.Type {
	case JobTypeAll:
		doc, err := r.ingester.Document(ctx, cfg.BaseURL)
		if err != nil {
			return fmt.Errorf("index page: %w", err)
		}
		return r.processSeasons(ctx, state, r.extractor.SeasonLinks(doc))
	case JobTypeSeason:
		if len(state.spec.SeasonIDs) == 0 {
			return errors.New("no season IDs provided for job type 'season'")
		}
		urls := make([]string, 0, len(state.spec.SeasonIDs))
		for _, id := range state.spec.SeasonIDs {
			urls = append(urls, cfg.SeasonURL(id))
		}
		return r.processSeasons(ctx, state, urls)
	case JobTypeGame:
		if len(state.spec.Games) == 0 {
			return errors.New("no games provided for job type 'game'")
		}
		total := len(state.spec.Games)
		for idx, ref := range state.spec.Games {
			state.reporter.OnProgress(fmt.Sprintf("Processing game %s (%d/%d)", ref, idx+1, total), idx, total)
			if err := r.processGame(ctx, state, ref.SeasonID, cfg.GameURL(ref.GameID)); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported job type %q", state.spec.Type)
	}
}

func (r *Runner) processSeasons(ctx context.Context, state *run, seasonURLs []string) error {
	total := len(seasonURLs)
	if total == 0 {
		state.reporter.OnProgress("No seasons to process", 0, 0)
		return nil
	}

	for idx, seasonURL := range seasonURLs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if state.limitReached() {
			return errLimitReached
		}

		seasonID := archive.TrailingID(seasonURL)
		state.reporter.OnSeasonStart(seasonID, idx, total)
		r.logger.InfoContext(ctx, "processing season", "season", seasonID, "index", idx+1, "total", total)

		doc, err := r.ingester.Document(ctx, seasonURL)
		if err != nil {
			return fmt.Errorf("season %s: %w", seasonID, err)
		}

		gameURLs := r.extractor.GameLinks(doc)
		for gidx, gameURL := range gameURLs {
			if err := r.processGame(ctx, state, seasonID, gameURL); err != nil {
				return err
			}
			state.reporter.OnProgress(fmt.Sprintf("Season %s: %d/%d games", seasonID, gidx+1, len(gameURLs)), gidx+1, len(gameURLs))
		}
	}

	return nil
}

func (r *Runner) processGame(ctx context.Context, state *run, seasonID, gameURL string) error {
	if state.limitReached() {
		return errLimitReached
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	gameID := archive.TrailingID(gameURL)
	doc, err := r.ingester.Document(ctx, gameURL)
	if err != nil {
		return fmt.Errorf("game %s/%s: %w", seasonID, gameID, err)
	}

	transcript := r.extractor.ExtractGame(doc, gameURL)
	result := GameResult{
		SeasonID:       seasonID,
		GameID:         gameID,
		URL:            gameURL,
		Rounds:         len(transcript.Rounds),
		Clues:          transcript.ClueCount(),
		TripleStumpers: transcript.TripleStumpers(),
		DryRun:         state.spec.DryRun,
	}

	if !state.spec.DryRun {
		if err := r.persist(ctx, transcript, &result); err != nil {
			return err
		}
	}

	state.processed++
	r.logger.DebugContext(ctx, "game processed",
		"season", seasonID,
		"game", gameID,
		"rounds", result.Rounds,
		"clues", result.Clues,
		"path", result.Path,
	)
	state.reporter.OnGameProcessed(result)
	return nil
}

func (r *Runner) persist(ctx context.Context, transcript archive.Transcript, result *GameResult) error {
	path, err := r.writer.Write(transcript, result.SeasonID, result.GameID)
	if err != nil {
		return fmt.Errorf("write %s/%s: %w", result.SeasonID, result.GameID, err)
	}
	result.Path = path
	scrapedAt := r.now().UTC()

	if r.index != nil {
		data, err := artifact.Encode(transcript)
		if err != nil {
			return err
		}
		rec := store.GameRecord{
			SeasonID:       result.SeasonID,
			GameID:         result.GameID,
			URL:            result.URL,
			Path:           path,
			Rounds:         result.Rounds,
			Clues:          result.Clues,
			TripleStumpers: result.TripleStumpers,
			Checksum:       store.Checksum(data),
			ScrapedAt:      scrapedAt,
		}
		if err := r.index.Upsert(ctx, rec); err != nil {
			return fmt.Errorf("index %s/%s: %w", result.SeasonID, result.GameID, err)
		}
	}

	if r.events != nil {
		event := publisher.TranscriptEvent{
			SeasonID:       result.SeasonID,
			GameID:         result.GameID,
			URL:            result.URL,
			Path:           path,
			Rounds:         result.Rounds,
			Clues:          result.Clues,
			TripleStumpers: result.TripleStumpers,
			ExtractedAt:    scrapedAt,
		}
		if err := r.events.PublishTranscript(ctx, event); err != nil {
			r.logger.WarnContext(ctx, "failed to publish transcript event", "season", result.SeasonID, "game", result.GameID, "err", err)
		}
	}

	return nil
}
