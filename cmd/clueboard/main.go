package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fortuna/clueboard/internal/api/rest"
	"github.com/fortuna/clueboard/internal/api/websocket"
	"github.com/fortuna/clueboard/internal/archive"
	"github.com/fortuna/clueboard/internal/artifact"
	"github.com/fortuna/clueboard/internal/backfill"
	"github.com/fortuna/clueboard/internal/cache"
	"github.com/fortuna/clueboard/internal/ingest"
	"github.com/fortuna/clueboard/internal/logging"
	"github.com/fortuna/clueboard/internal/publisher"
	"github.com/fortuna/clueboard/internal/scheduler"
	"github.com/fortuna/clueboard/internal/store"
	"github.com/fortuna/clueboard/internal/store/repository"
)

const (
	serviceName    = "clueboard"
	serviceVersion = "1.0.0"
)

func main() {
	_ = godotenv.Load()

	config := loadConfig()
	logger := logging.Setup(os.Stderr, config.LogLevel)
	logger.Info("starting", "service", serviceName, "version", serviceVersion)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg := archive.DefaultConfig()
	cfg.BaseURL = config.ArchiveBaseURL
	extractor, err := archive.NewExtractor(cfg)
	if err != nil {
		fatal(logger, "invalid archive config", err)
	}

	var source ingest.Source = ingest.NewHTTPSource()
	if config.UseBrowser {
		browser := ingest.NewBrowserSource()
		defer browser.Close()
		source = browser
	}

	writer := artifact.NewWriter(config.DataDir)
	runnerOpts := []backfill.RunnerOption{backfill.WithLogger(logger)}
	restOpts := rest.Options{
		DataDir: writer.Root(),
		Checks:  map[string]rest.HealthChecker{},
	}

	var redisCache *cache.RedisCache
	if config.RedisURL != "" {
		redisCache, err = connectRedis(ctx, logger, config.RedisURL)
		if err != nil {
			fatal(logger, "failed to connect to redis", err)
		}
		defer redisCache.Close()

		source = ingest.NewCachedSource(source, redisCache, ingest.DefaultCacheTTL, logger)
		runnerOpts = append(runnerOpts, backfill.WithPublisher(publisher.NewRedisStreamPublisher(redisCache.Client())))
		restOpts.Checks["redis"] = redisCache
		logger.Info("connected to redis")
	}

	var db *store.Database
	if config.DatabaseURL != "" {
		db, err = store.NewDatabase(ctx, config.DatabaseURL)
		if err != nil {
			fatal(logger, "failed to connect to database", err)
		}
		defer db.Close()

		if err := db.Migrate(ctx); err != nil {
			fatal(logger, "failed to run database migrations", err)
		}

		games := repository.NewGameRepository(db)
		runnerOpts = append(runnerOpts, backfill.WithIndex(games))
		restOpts.Index = games
		restOpts.Checks["postgres"] = db
		logger.Info("connected to database")
	}

	runner := backfill.NewRunner(extractor, source, writer, runnerOpts...)

	var backfillService *backfill.Service
	if db != nil {
		backfillService = backfill.NewService(db, runner, logger)
		backfillService.Start()
		restOpts.Backfill = backfillService
		logger.Info("backfill service started")

		if len(config.RefreshSeasons) > 0 {
			schedConfig := scheduler.DefaultConfig()
			schedConfig.SeasonIDs = config.RefreshSeasons
			schedConfig.DailyHour = config.RefreshHour
			go scheduler.New(backfillService, schedConfig, logger).Run(ctx)
		}
	} else {
		logger.Warn("DATABASE_URL not set, backfill queue and index disabled")
	}

	restServer := rest.NewServer(config.RESTPort, restOpts)
	go func() {
		if err := restServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("rest server error", "err", err)
			cancel()
		}
	}()

	hub := websocket.NewHub(logger)
	go hub.Run(ctx)
	if redisCache != nil {
		go websocket.NewFeed(redisCache.Client(), hub, logger).Run(ctx)
	}

	wsServer := websocket.NewServer(config.WSPort, hub)
	go func() {
		if err := wsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("websocket server error", "err", err)
			cancel()
		}
	}()

	logger.Info("started",
		"rest", "http://0.0.0.0:"+config.RESTPort,
		"websocket", "ws://0.0.0.0:"+config.WSPort,
		"data", writer.Root(),
	)

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("rest server shutdown error", "err", err)
	}
	if err := wsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("websocket server shutdown error", "err", err)
	}
	if backfillService != nil {
		if err := backfillService.Shutdown(shutdownCtx); err != nil {
			logger.Error("backfill service shutdown error", "err", err)
		}
	}

	logger.Info("stopped")
}

// connectRedis retries while redis comes up alongside the service.
func connectRedis(ctx context.Context, logger *slog.Logger, url string) (*cache.RedisCache, error) {
	const (
		maxRetries = 30
		retryDelay = 2 * time.Second
	)

	var lastErr error
	for i := 0; i < maxRetries; i++ {
		rc, err := cache.NewRedisCache(url)
		if err == nil {
			return rc, nil
		}
		lastErr = err
		logger.Warn("redis connection attempt failed", "attempt", i+1, "max", maxRetries, "err", err)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
	return nil, lastErr
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "err", err)
	os.Exit(1)
}

type Config struct {
	DataDir        string
	DatabaseURL    string
	RedisURL       string
	RESTPort       string
	WSPort         string
	ArchiveBaseURL string
	UseBrowser     bool
	RefreshSeasons []string
	RefreshHour    int
	LogLevel       string
}

func loadConfig() Config {
	return Config{
		DataDir:        getEnv("DATA_DIR", artifact.DefaultRoot),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		RedisURL:       getEnv("REDIS_URL", ""),
		RESTPort:       getEnv("REST_PORT", "8080"),
		WSPort:         getEnv("WS_PORT", "8081"),
		ArchiveBaseURL: getEnv("ARCHIVE_BASE_URL", archive.BaseURL),
		UseBrowser:     getEnv("USE_BROWSER", "false") == "true",
		RefreshSeasons: splitList(getEnv("REFRESH_SEASONS", "")),
		RefreshHour:    getEnvInt("REFRESH_HOUR", 3),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
