package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPSourceFetch(t *testing.T) {
	var gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent = r.Header.Get("User-Agent")
		switch r.URL.Path {
		case "/showgame.php":
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body><div id="jeopardy_round"></div></body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	src := NewHTTPSource(WithTimeout(5*time.Second), WithUserAgent("clueboard-test"))

	body, err := src.Fetch(context.Background(), srv.URL+"/showgame.php?game_id=1")
	require.NoError(t, err)
	require.Contains(t, string(body), "jeopardy_round")
	require.Equal(t, "clueboard-test", gotAgent)

	_, err = src.Fetch(context.Background(), srv.URL+"/missing")
	require.Error(t, err)
	require.Contains(t, err.Error(), "404")
}

func TestHTTPSourceHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPSource().Fetch(ctx, srv.URL)
	require.Error(t, err)
}

type stubSource struct {
	mu    sync.Mutex
	pages map[string]string
	calls map[string]int
}

func newStubSource(pages map[string]string) *stubSource {
	return &stubSource{pages: pages, calls: map[string]int{}}
}

func (s *stubSource) Fetch(_ context.Context, url string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls[url]++
	page, ok := s.pages[url]
	if !ok {
		return nil, errors.New("no such page")
	}
	return []byte(page), nil
}

type memoryCache struct {
	pages   map[string][]byte
	ttls    map[string]time.Duration
	readErr error
	setErr  error
}

func newMemoryCache() *memoryCache {
	return &memoryCache{pages: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCache) GetPage(_ context.Context, url string) ([]byte, error) {
	if m.readErr != nil {
		return nil, m.readErr
	}
	body, ok := m.pages[url]
	if !ok {
		return nil, ErrCacheMiss
	}
	return body, nil
}

func (m *memoryCache) SetPage(_ context.Context, url string, body []byte, ttl time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.pages[url] = body
	m.ttls[url] = ttl
	return nil
}

func TestCachedSource(t *testing.T) {
	upstream := newStubSource(map[string]string{"u": "<p>hi</p>"})
	cache := newMemoryCache()
	src := NewCachedSource(upstream, cache, 0, nil)

	for range 3 {
		body, err := src.Fetch(context.Background(), "u")
		require.NoError(t, err)
		require.Equal(t, "<p>hi</p>", string(body))
	}

	require.Equal(t, 1, upstream.calls["u"])
	require.Equal(t, DefaultCacheTTL, cache.ttls["u"])

	_, err := src.Fetch(context.Background(), "missing")
	require.Error(t, err)
	require.NotContains(t, cache.pages, "missing")
}

func TestCachedSourceIgnoresCacheFailures(t *testing.T) {
	upstream := newStubSource(map[string]string{"u": "body"})
	cache := newMemoryCache()
	cache.readErr = errors.New("connection refused")
	cache.setErr = errors.New("connection refused")

	src := NewCachedSource(upstream, cache, time.Minute, nil)

	body, err := src.Fetch(context.Background(), "u")
	require.NoError(t, err)
	require.Equal(t, "body", string(body))

	_, err = src.Fetch(context.Background(), "u")
	require.NoError(t, err)
	require.Equal(t, 2, upstream.calls["u"])
}

func TestIngesterDocument(t *testing.T) {
	src := newStubSource(map[string]string{
		"game": `<html><body><h2 class="category_name">HISTORY</h2></body></html>`,
	})
	ing := NewIngester(src)

	doc, err := ing.Document(context.Background(), "game")
	require.NoError(t, err)
	require.Equal(t, "HISTORY", doc.Find("h2.category_name").Text())

	_, err = ing.Document(context.Background(), "elsewhere")
	require.Error(t, err)
	require.Contains(t, err.Error(), "fetch elsewhere")
}
