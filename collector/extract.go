package collector

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-webstore-lister/models"
	"github.com/aluiziolira/go-webstore-lister/parser"
)

// downloadURLFormat derives an item's installable package URL from its id.
const downloadURLFormat = "https://clients2.google.com/service/update2/crx?response=redirect&prodversion=138&acceptformat=crx2,crx3&x=id%%3D%s%%26uc"

// DownloadURL returns the package download URL for an item id.
func DownloadURL(id string) string {
	return fmt.Sprintf(downloadURLFormat, url.QueryEscape(id))
}

// Extractor turns validated detail-page URLs into item records. Page titles
// give nicer display names when available; the URL slug is the fallback.
// Resolved titles are memoized so duplicate URLs across shards are fetched
// once.
type Extractor struct {
	titles  TitleFetcher
	cache   *lru.Cache[string, string]
	metrics *Metrics
}

// NewExtractor builds an Extractor. metrics may be nil.
func NewExtractor(titles TitleFetcher, cacheSize int, metrics *Metrics) (*Extractor, error) {
	cache, err := lru.New[string, string](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create title cache: %w", err)
	}
	return &Extractor{
		titles:  titles,
		cache:   cache,
		metrics: metrics,
	}, nil
}

// Extract derives a fully validated item record from a detail-page URL.
// It reports false when the URL does not match the detail shape or the
// assembled record fails sanitization; partial records are never returned.
func (e *Extractor) Extract(ctx context.Context, pageURL string) (models.Item, bool) {
	if !parser.IsStoreDetailURL(pageURL) {
		return models.Item{}, false
	}

	slug, id, ok := parser.SplitDetailPath(pageURL)
	if !ok {
		return models.Item{}, false
	}

	item := models.Item{
		ID:   id,
		Name: e.resolveName(ctx, pageURL, slug),
		Page: pageURL,
		File: DownloadURL(id),
	}

	sanitized, err := parser.SanitizeItem(item)
	if err != nil {
		slog.Debug("rejected item", slog.String("url", pageURL), slog.Any("error", err))
		return models.Item{}, false
	}
	return sanitized, true
}

// resolveName prefers the page title, stripped of the store brand suffix,
// and falls back to the URL slug when the title is unavailable.
func (e *Extractor) resolveName(ctx context.Context, pageURL, slug string) string {
	if cached, ok := e.cache.Get(pageURL); ok {
		return cached
	}

	title, err := e.titles.Title(ctx, pageURL)
	if err == nil && strings.HasSuffix(title, parser.BrandSuffix) {
		name := strings.TrimSpace(strings.TrimSuffix(title, parser.BrandSuffix))
		if name != "" {
			e.cache.Add(pageURL, name)
			e.metrics.IncTitle("title")
			return name
		}
	}
	if err != nil {
		slog.Debug("title unavailable", slog.String("url", pageURL), slog.Any("error", err))
	}

	e.metrics.IncTitle("fallback")
	return slugName(slug)
}

func slugName(slug string) string {
	if decoded, err := url.PathUnescape(slug); err == nil {
		slug = decoded
	}
	return strings.ReplaceAll(slug, "-", " ")
}
