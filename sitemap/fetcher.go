package sitemap

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// StatusError reports a terminal non-2xx response, after any transport-level
// retries were exhausted.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch sitemap %s: unexpected status %d", e.URL, e.StatusCode)
}

// RequestObserver receives the wall-clock duration of every HTTP request the
// fetcher issues, successful or not.
type RequestObserver interface {
	ObserveRequest(d time.Duration)
}

// Fetcher retrieves and decodes sitemap documents over a shared HTTP client.
// The client's transport is expected to handle transient-failure retries
// (see NewRetryTransport); the fetcher itself issues one logical GET.
type Fetcher struct {
	client    *http.Client
	userAgent string
	observer  RequestObserver
}

// NewFetcher builds a Fetcher. observer may be nil.
func NewFetcher(client *http.Client, userAgent string, observer RequestObserver) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{
		client:    client,
		userAgent: userAgent,
		observer:  observer,
	}
}

// Index fetches and parses a root sitemap index.
func (f *Fetcher) Index(ctx context.Context, url string) (*Index, error) {
	body, err := f.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	var idx Index
	if err := xml.Unmarshal(body, &idx); err != nil {
		return nil, fmt.Errorf("parse sitemap index %s: %w", url, err)
	}
	return &idx, nil
}

// URLSet fetches and parses a second-level sitemap.
func (f *Fetcher) URLSet(ctx context.Context, url string) (*URLSet, error) {
	body, err := f.fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	var set URLSet
	if err := xml.Unmarshal(body, &set); err != nil {
		return nil, fmt.Errorf("parse sitemap %s: %w", url, err)
	}
	return &set, nil
}

func (f *Fetcher) fetch(ctx context.Context, url string) ([]byte, error) {
	slog.Debug("fetching sitemap", slog.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	f.observe(time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("fetch sitemap %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read sitemap %s: %w", url, err)
	}
	return body, nil
}

func (f *Fetcher) observe(d time.Duration) {
	if f.observer != nil {
		f.observer.ObserveRequest(d)
	}
}
