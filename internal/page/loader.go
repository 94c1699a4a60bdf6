package page

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"livefind/internal/dom"
)

// Loader fetches pages from disk or over HTTP
type Loader struct {
	client *http.Client
}

// NewLoader creates a loader with a bounded HTTP client
func NewLoader() *Loader {
	return &Loader{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Load reads source, a file path or http(s) URL, and returns the parsed
// document with the location it should be shown at.
func (l *Loader) Load(ctx context.Context, source string) (*dom.Document, string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return l.fetch(ctx, source)
	}
	return l.open(source)
}

func (l *Loader) fetch(ctx context.Context, rawURL string) (*dom.Document, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("page returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse page: %w", err)
	}
	return dom.FromGoquery(doc), resp.Request.URL.String(), nil
}

func (l *Loader) open(path string) (*dom.Document, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve path: %w", err)
	}
	f, err := os.Open(abs)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, "", fmt.Errorf("failed to parse page: %w", err)
	}
	return dom.FromGoquery(doc), "file://" + filepath.ToSlash(abs), nil
}
