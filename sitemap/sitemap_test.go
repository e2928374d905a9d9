package sitemap

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
)

const (
	indexURL = "https://chromewebstore.google.com/sitemap"
	shardURL = "https://chromewebstore.google.com/sitemap?shard=0"
)

const indexXML = `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>https://chromewebstore.google.com/sitemap?shard=0</loc></sitemap>
  <sitemap><loc>https://chromewebstore.google.com/sitemap?shard=1</loc></sitemap>
  <sitemap><loc>https://chromewebstore.google.com/sitemap-collections</loc></sitemap>
</sitemapindex>`

const urlsetXML = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>https://chromewebstore.google.com/detail/foo/abcdefghijklmnopqrstuvwxyzabcdef</loc></url>
  <url><loc>https://chromewebstore.google.com/detail/bar/aaaabbbbccccddddeeeeffffgggghhhh</loc></url>
</urlset>`

type recordingObserver struct {
	mu        sync.Mutex
	durations []time.Duration
}

func (r *recordingObserver) ObserveRequest(d time.Duration) {
	r.mu.Lock()
	r.durations = append(r.durations, d)
	r.mu.Unlock()
}

func (r *recordingObserver) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.durations)
}

func newTestFetcher(transport http.RoundTripper, observer RequestObserver) *Fetcher {
	return NewFetcher(&http.Client{Transport: transport}, "test-agent", observer)
}

func TestIndexShardURLs(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", indexURL, httpmock.NewStringResponder(200, indexXML))

	f := newTestFetcher(transport, nil)
	idx, err := f.Index(context.Background(), indexURL)
	if err != nil {
		t.Fatalf("fetch index: %v", err)
	}
	if len(idx.Sitemaps) != 3 {
		t.Fatalf("sitemap entries = %d, want 3", len(idx.Sitemaps))
	}

	shards := idx.ShardURLs()
	if len(shards) != 2 {
		t.Fatalf("shard URLs = %d, want 2 (%v)", len(shards), shards)
	}
	if shards[0] != "https://chromewebstore.google.com/sitemap?shard=0" {
		t.Fatalf("unexpected first shard %q", shards[0])
	}
}

func TestURLSet(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", shardURL, httpmock.NewStringResponder(200, urlsetXML))

	f := newTestFetcher(transport, nil)
	set, err := f.URLSet(context.Background(), shardURL)
	if err != nil {
		t.Fatalf("fetch urlset: %v", err)
	}
	if len(set.URLs) != 2 {
		t.Fatalf("url entries = %d, want 2", len(set.URLs))
	}
}

func TestFetcherParseFailure(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", indexURL, httpmock.NewStringResponder(200, "not xml at all"))

	f := newTestFetcher(transport, nil)
	if _, err := f.Index(context.Background(), indexURL); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestFetcherRejectsWrongRootElement(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", indexURL, httpmock.NewStringResponder(200, urlsetXML))

	f := newTestFetcher(transport, nil)
	if _, err := f.Index(context.Background(), indexURL); err == nil {
		t.Fatalf("expected error parsing urlset as index")
	}
}

func TestFetcherStatusError(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", indexURL, httpmock.NewStringResponder(404, "gone"))

	f := newTestFetcher(transport, nil)
	_, err := f.Index(context.Background(), indexURL)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != 404 {
		t.Fatalf("status = %d, want 404", statusErr.StatusCode)
	}
}

func TestFetcherObservesFailedRequests(t *testing.T) {
	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", indexURL, httpmock.NewStringResponder(500, ""))

	observer := &recordingObserver{}
	f := newTestFetcher(transport, observer)

	if _, err := f.Index(context.Background(), indexURL); err == nil {
		t.Fatalf("expected status error")
	}
	if observer.count() != 1 {
		t.Fatalf("observed requests = %d, want 1", observer.count())
	}
}

func TestRetryTransportRetriesTransientStatus(t *testing.T) {
	transport := httpmock.NewMockTransport()
	calls := 0
	transport.RegisterResponder("GET", indexURL, func(req *http.Request) (*http.Response, error) {
		calls++
		if calls < 3 {
			return httpmock.NewStringResponse(503, "busy"), nil
		}
		return httpmock.NewStringResponse(200, indexXML), nil
	})

	retrying := NewRetryTransport(transport, RetryPolicy{
		MaxAttempts: 3,
		Backoff:     time.Millisecond,
		BackoffMax:  5 * time.Millisecond,
	})

	f := newTestFetcher(retrying, nil)
	idx, err := f.Index(context.Background(), indexURL)
	if err != nil {
		t.Fatalf("fetch with retries: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
	if len(idx.Sitemaps) != 3 {
		t.Fatalf("sitemap entries = %d, want 3", len(idx.Sitemaps))
	}
}

func TestRetryTransportExhaustsBudget(t *testing.T) {
	transport := httpmock.NewMockTransport()
	calls := 0
	transport.RegisterResponder("GET", indexURL, func(req *http.Request) (*http.Response, error) {
		calls++
		return httpmock.NewStringResponse(503, "busy"), nil
	})

	retrying := NewRetryTransport(transport, RetryPolicy{
		MaxAttempts: 2,
		Backoff:     time.Millisecond,
	})

	f := newTestFetcher(retrying, nil)
	_, err := f.Index(context.Background(), indexURL)

	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != 503 {
		t.Fatalf("expected terminal 503, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3 (initial + 2 retries)", calls)
	}
}

func TestRetryTransportDoesNotRetryTerminalStatus(t *testing.T) {
	transport := httpmock.NewMockTransport()
	calls := 0
	transport.RegisterResponder("GET", indexURL, func(req *http.Request) (*http.Response, error) {
		calls++
		return httpmock.NewStringResponse(404, "gone"), nil
	})

	retrying := NewRetryTransport(transport, RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond})

	f := newTestFetcher(retrying, nil)
	if _, err := f.Index(context.Background(), indexURL); err == nil {
		t.Fatalf("expected status error")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestRetryTransportSkipsNonIdempotentMethods(t *testing.T) {
	transport := httpmock.NewMockTransport()
	calls := 0
	transport.RegisterResponder("POST", indexURL, func(req *http.Request) (*http.Response, error) {
		calls++
		return httpmock.NewStringResponse(503, "busy"), nil
	})

	retrying := NewRetryTransport(transport, RetryPolicy{MaxAttempts: 3, Backoff: time.Millisecond})
	client := &http.Client{Transport: retrying}

	resp, err := client.Post(indexURL, "text/plain", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestRetryBackoffCapped(t *testing.T) {
	rt := &retryTransport{policy: RetryPolicy{
		Backoff:    200 * time.Millisecond,
		BackoffMax: 500 * time.Millisecond,
	}}

	if delay := rt.backoff(4); delay > 500*time.Millisecond {
		t.Fatalf("delay %v exceeds max", delay)
	}
	if delay := rt.backoff(1); delay != 200*time.Millisecond {
		t.Fatalf("first delay = %v, want 200ms", delay)
	}
	if delay := rt.backoff(2); delay != 400*time.Millisecond {
		t.Fatalf("second delay = %v, want 400ms", delay)
	}
}
