package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/fortuna/clueboard/internal/archive"
	"github.com/fortuna/clueboard/internal/artifact"
	"github.com/fortuna/clueboard/internal/backfill"
	"github.com/fortuna/clueboard/internal/cache"
	"github.com/fortuna/clueboard/internal/ingest"
	"github.com/fortuna/clueboard/internal/publisher"
	"github.com/fortuna/clueboard/internal/store"
	"github.com/fortuna/clueboard/internal/store/repository"
)

type runOptions struct {
	seasons  []string
	games    []string
	limit    int
	dataDir  string
	baseURL  string
	browser  bool
	redisURL string
	dsn      string
	dryRun   bool
}

var runOpts runOptions

func init() {
	flags := runCmd.Flags()
	flags.StringSliceVar(&runOpts.seasons, "season", nil, "Season id to backfill; repeatable.")
	flags.StringSliceVar(&runOpts.games, "game", nil, "Game to backfill as <season>/<game>; repeatable.")
	flags.IntVar(&runOpts.limit, "limit", 0, "Stop after this many games (0 means no limit).")
	flags.StringVar(&runOpts.dataDir, "data", getEnv("DATA_DIR", artifact.DefaultRoot), "Directory artifacts are written to.")
	flags.StringVar(&runOpts.baseURL, "base-url", getEnv("ARCHIVE_BASE_URL", archive.BaseURL), "Archive root URL.")
	flags.BoolVar(&runOpts.browser, "browser", false, "Render pages in headless Chrome instead of plain HTTP.")
	flags.StringVar(&runOpts.redisURL, "redis", getEnv("REDIS_URL", ""), "Redis URL for the page cache and transcript events.")
	flags.StringVar(&runOpts.dsn, "dsn", getEnv("DATABASE_URL", ""), "Postgres DSN for the artifact index.")
	flags.BoolVar(&runOpts.dryRun, "dry-run", false, "Fetch and extract without writing artifacts.")
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [--season <id>]... [--game <season>/<game>]... [--limit <n>]",
	Short: "Fetches games and writes one transcript per game. With no --season or --game, every season is backfilled.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		spec, err := runOpts.spec()
		if err != nil {
			return err
		}

		cfg := archive.DefaultConfig()
		cfg.BaseURL = runOpts.baseURL
		extractor, err := archive.NewExtractor(cfg)
		if err != nil {
			return fmt.Errorf("archive config: %w", err)
		}

		var source ingest.Source = ingest.NewHTTPSource()
		if runOpts.browser {
			browser := ingest.NewBrowserSource()
			defer browser.Close()
			source = browser
		}

		var opts []backfill.RunnerOption
		if runOpts.redisURL != "" {
			rc, err := cache.NewRedisCache(runOpts.redisURL)
			if err != nil {
				return err
			}
			defer rc.Close()

			source = ingest.NewCachedSource(source, rc, ingest.DefaultCacheTTL, slog.Default())
			opts = append(opts, backfill.WithPublisher(publisher.NewRedisStreamPublisher(rc.Client())))
		}

		if runOpts.dsn != "" {
			db, err := store.NewDatabase(ctx, runOpts.dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(ctx); err != nil {
				return err
			}
			opts = append(opts, backfill.WithIndex(repository.NewGameRepository(db)))
		}

		runner := backfill.NewRunner(extractor, source, artifact.NewWriter(runOpts.dataDir), opts...)
		reporter := backfill.NewLogReporter(slog.Default())

		if err := runner.Run(ctx, spec, reporter); err != nil {
			return fmt.Errorf("backfill failed: %w", err)
		}

		slog.Info("backfill finished", "games", reporter.Games, "clues", reporter.Clues, "triple_stumpers", reporter.TripleStumpers)
		return nil
	},
}

// spec converts the flags into a runner spec.
func (o runOptions) spec() (backfill.JobSpec, error) {
	req := backfill.Request{
		All:       len(o.seasons) == 0 && len(o.games) == 0,
		SeasonIDs: o.seasons,
		Limit:     o.limit,
		DryRun:    o.dryRun,
	}
	for _, raw := range o.games {
		ref, err := backfill.ParseGameRef(raw)
		if err != nil {
			return backfill.JobSpec{}, err
		}
		req.Games = append(req.Games, ref)
	}

	if err := req.Validate(); err != nil {
		return backfill.JobSpec{}, err
	}
	jobType, err := req.DeriveType()
	if err != nil {
		return backfill.JobSpec{}, err
	}

	return backfill.JobSpec{
		Type:      jobType,
		SeasonIDs: req.SeasonIDs,
		Games:     req.Games,
		Limit:     req.Limit,
		DryRun:    req.DryRun,
	}, nil
}
