package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// UserAgent sent with every page request.
	UserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 30 * time.Second
)

// Source retrieves the raw bytes of a page.
type Source interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPSource fetches pages with a plain HTTP GET.
type HTTPSource struct {
	client *resty.Client
}

// HTTPOption customises an HTTPSource.
type HTTPOption func(*resty.Client)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(c *resty.Client) {
		c.SetTimeout(d)
	}
}

// WithUserAgent overrides UserAgent.
func WithUserAgent(ua string) HTTPOption {
	return func(c *resty.Client) {
		c.SetHeader("User-Agent", ua)
	}
}

// NewHTTPSource creates an HTTP page source.
func NewHTTPSource(opts ...HTTPOption) *HTTPSource {
	client := resty.New()
	client.SetHeader("User-Agent", UserAgent)
	client.SetHeader("Accept", "text/html,application/xhtml+xml")
	client.SetTimeout(DefaultTimeout)

	for _, opt := range opts {
		opt(client)
	}

	return &HTTPSource{client: client}
}

// Fetch performs a GET and returns the response body. Any non-2xx status
// is an error.
func (s *HTTPSource) Fetch(ctx context.Context, url string) ([]byte, error) {
	res, err := s.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("get %s: unexpected status %s", url, res.Status())
	}

	return res.Body(), nil
}
