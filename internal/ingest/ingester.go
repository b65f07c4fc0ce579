package ingest

import (
	"bytes"
	"context"
	"fmt"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTML converts raw HTML to a goquery Document for extraction.
func ParseHTML(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// Ingester turns page URLs into parsed documents.
type Ingester struct {
	source Source
}

// NewIngester creates an ingester reading from source.
func NewIngester(source Source) *Ingester {
	return &Ingester{source: source}
}

// Document fetches and parses the page at url.
func (i *Ingester) Document(ctx context.Context, url string) (*goquery.Document, error) {
	body, err := i.source.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	doc, err := ParseHTML(body)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}

	return doc, nil
}
