package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
)

func newTestTitleFetcher(transport *httpmock.MockTransport) *PageTitleFetcher {
	return NewPageTitleFetcher("test-agent", 5*time.Second, transport)
}

func TestPageTitleFetcher(t *testing.T) {
	pageURL := detailURL("my-extension", testID)
	page := `<html><head><title>My Extension - Chrome Web Store</title></head><body></body></html>`

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", pageURL, htmlResponder(page))

	f := newTestTitleFetcher(transport)
	title, err := f.Title(context.Background(), pageURL)
	if err != nil {
		t.Fatalf("title: %v", err)
	}
	if title != "My Extension - Chrome Web Store" {
		t.Fatalf("title = %q", title)
	}
}

func TestPageTitleFetcherNoTitle(t *testing.T) {
	pageURL := detailURL("untitled-extension", testID)

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", pageURL, htmlResponder("<html><body>nothing</body></html>"))

	f := newTestTitleFetcher(transport)
	if _, err := f.Title(context.Background(), pageURL); !errors.Is(err, ErrNoTitle) {
		t.Fatalf("err = %v, want ErrNoTitle", err)
	}
}

func TestPageTitleFetcherHTTPError(t *testing.T) {
	pageURL := detailURL("missing-extension", testID)

	transport := httpmock.NewMockTransport()
	transport.RegisterResponder("GET", pageURL, httpmock.NewStringResponder(404, "not found"))

	f := newTestTitleFetcher(transport)
	if _, err := f.Title(context.Background(), pageURL); err == nil {
		t.Fatalf("expected error for 404 response")
	}
}

func TestPageTitleFetcherCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := newTestTitleFetcher(httpmock.NewMockTransport())
	if _, err := f.Title(ctx, detailURL("any-extension", testID)); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestPageTitleFetcherConcurrentCalls(t *testing.T) {
	transport := httpmock.NewMockTransport()
	urls := make([]string, 0, 4)
	for i, slug := range []string{"one", "two", "three", "four"} {
		id := []string{testID, otherTestID, "ccccddddeeeeffffgggghhhhiiiijjjj", "ddddeeeeffffgggghhhhiiiijjjjkkkk"}[i]
		u := detailURL(slug, id)
		urls = append(urls, u)
		transport.RegisterResponder("GET", u,
			htmlResponder("<html><head><title>"+slug+" - Chrome Web Store</title></head></html>"))
	}

	f := newTestTitleFetcher(transport)
	results := make(chan string, len(urls))
	for _, u := range urls {
		go func(u string) {
			title, err := f.Title(context.Background(), u)
			if err != nil {
				results <- "error: " + err.Error()
				return
			}
			results <- title
		}(u)
	}

	seen := make(map[string]bool)
	for range urls {
		seen[<-results] = true
	}
	for _, slug := range []string{"one", "two", "three", "four"} {
		if !seen[slug+" - Chrome Web Store"] {
			t.Fatalf("missing title for %q, saw %v", slug, seen)
		}
	}
}

func htmlResponder(body string) httpmock.Responder {
	resp := httpmock.NewStringResponse(200, body)
	resp.Header.Set("Content-Type", "text/html")
	return httpmock.ResponderFromResponse(resp)
}
