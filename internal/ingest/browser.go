package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserSource renders pages in a headless Chrome instance and returns the
// resulting document. Use it for pages that only fill in after scripts run.
type BrowserSource struct {
	allocCtx context.Context
	cancel   context.CancelFunc
	timeout  time.Duration
	settle   time.Duration
}

// NewBrowserSource starts a Chrome allocator. Close releases it.
func NewBrowserSource() *BrowserSource {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(UserAgent),
	)

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &BrowserSource{
		allocCtx: allocCtx,
		cancel:   cancel,
		timeout:  DefaultTimeout,
		settle:   500 * time.Millisecond,
	}
}

// Close shuts the browser down.
func (b *BrowserSource) Close() {
	if b.cancel != nil {
		b.cancel()
	}
}

// Fetch navigates to url and returns the outer HTML of the document.
func (b *BrowserSource) Fetch(ctx context.Context, url string) ([]byte, error) {
	browserCtx, cancel := chromedp.NewContext(b.allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, b.timeout)
	defer cancel()

	// Stop the tab if the caller gives up first.
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady(`body`, chromedp.ByQuery),
		chromedp.Sleep(b.settle),
		chromedp.OuterHTML(`html`, &html, chromedp.ByQuery),
	)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("render %s: %w", url, err)
	}

	if html == "" {
		return nil, errors.New("empty HTML content returned")
	}

	return []byte(html), nil
}
