package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// DefaultCacheTTL is how long fetched pages stay cached.
const DefaultCacheTTL = 24 * time.Hour

// ErrCacheMiss is returned by a PageCache that holds no entry for a URL.
// Implementations may wrap it.
var ErrCacheMiss = errors.New("page not cached")

// PageCache stores raw page bodies by URL.
type PageCache interface {
	GetPage(ctx context.Context, url string) ([]byte, error)
	SetPage(ctx context.Context, url string, body []byte, ttl time.Duration) error
}

// CachedSource serves pages from a cache and falls back to an upstream
// Source. Cache failures are logged and never fail a fetch.
type CachedSource struct {
	upstream Source
	cache    PageCache
	ttl      time.Duration
	logger   *slog.Logger
}

// NewCachedSource wraps upstream with cache. A non-positive ttl selects
// DefaultCacheTTL.
func NewCachedSource(upstream Source, cache PageCache, ttl time.Duration, logger *slog.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedSource{
		upstream: upstream,
		cache:    cache,
		ttl:      ttl,
		logger:   logger.With("component", "page_cache"),
	}
}

func (s *CachedSource) Fetch(ctx context.Context, url string) ([]byte, error) {
	body, err := s.cache.GetPage(ctx, url)
	switch {
	case err == nil:
		s.logger.DebugContext(ctx, "cache hit", "url", url)
		return body, nil
	case !errors.Is(err, ErrCacheMiss):
		s.logger.WarnContext(ctx, "cache read failed", "url", url, "err", err)
	}

	body, err = s.upstream.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetPage(ctx, url, body, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "cache write failed", "url", url, "err", err)
	}

	return body, nil
}
