package backfill

import (
	"log/slog"
)

// LogReporter writes runner callbacks to a structured logger and keeps
// simple totals for the caller.
type LogReporter struct {
	logger *slog.Logger

	Games          int
	Clues          int
	TripleStumpers int
}

// NewLogReporter creates a reporter logging through logger.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogReporter{logger: logger}
}

func (r *LogReporter) OnJobStart(spec JobSpec) {
	r.logger.Info("job started",
		"type", spec.Type,
		"seasons", spec.SeasonIDs,
		"games", len(spec.Games),
		"limit", spec.Limit,
		"dry_run", spec.DryRun,
	)
}

func (r *LogReporter) OnSeasonStart(seasonID string, index int, total int) {
	r.logger.Info("season started", "season", seasonID, "index", index+1, "total", total)
}

func (r *LogReporter) OnGameProcessed(result GameResult) {
	r.Games++
	r.Clues += result.Clues
	r.TripleStumpers += result.TripleStumpers

	r.logger.Info("game extracted",
		"season", result.SeasonID,
		"game", result.GameID,
		"rounds", result.Rounds,
		"clues", result.Clues,
		"path", result.Path,
	)
}

func (r *LogReporter) OnProgress(message string, current int, total int) {
	r.logger.Debug(message, "current", current, "total", total)
}

func (r *LogReporter) OnJobComplete() {
	r.logger.Info("job complete", "games", r.Games, "clues", r.Clues, "triple_stumpers", r.TripleStumpers)
}

func (r *LogReporter) OnJobError(err error) {
	r.logger.Error("job failed", "err", err, "games", r.Games)
}
