package collector

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-webstore-lister/parser"
)

// ErrNoTitle is returned when a fetched page carries no usable <title>.
var ErrNoTitle = errors.New("page has no title element")

// TitleFetcher resolves a detail page's title. A failure is an explicit
// result, not an exception; callers choose the fallback.
type TitleFetcher interface {
	Title(ctx context.Context, url string) (string, error)
}

// PageTitleFetcher fetches page titles with a colly collector. The base
// collector is cloned per request so concurrent callers never share handler
// state.
type PageTitleFetcher struct {
	base    *colly.Collector
	timeout time.Duration
}

// NewPageTitleFetcher builds a title fetcher. transport may be nil to use
// the default.
func NewPageTitleFetcher(userAgent string, timeout time.Duration, transport http.RoundTripper) *PageTitleFetcher {
	c := colly.NewCollector(
		colly.UserAgent(userAgent),
		colly.AllowedDomains(parser.StoreHost),
	)
	c.SetRequestTimeout(timeout)
	if transport != nil {
		c.WithTransport(transport)
	}

	return &PageTitleFetcher{
		base:    c,
		timeout: timeout,
	}
}

// Title fetches url and returns the text of its first <title> element.
func (f *PageTitleFetcher) Title(ctx context.Context, url string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	c := f.base.Clone()
	c.SetRequestTimeout(f.timeout)

	var (
		title string
		found bool
	)
	c.OnHTML("title", func(e *colly.HTMLElement) {
		if !found {
			title = strings.TrimSpace(e.Text)
			found = true
		}
	})

	if err := c.Visit(url); err != nil {
		return "", err
	}
	c.Wait()

	if !found || title == "" {
		return "", ErrNoTitle
	}
	return title, nil
}
