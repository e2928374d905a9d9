// Package collector implements the concurrent shard-fetch-and-extract
// pipeline: root sitemap traversal, a bounded worker pool over shard
// sitemaps, per-item extraction, statistics aggregation, and id-based
// deduplication.
package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aluiziolira/go-webstore-lister/config"
	"github.com/aluiziolira/go-webstore-lister/models"
	"github.com/aluiziolira/go-webstore-lister/parser"
	"github.com/aluiziolira/go-webstore-lister/sitemap"
)

// ErrNoShards is returned when the root sitemap lists no shard sitemaps.
var ErrNoShards = errors.New("no shard URLs in sitemap index")

// Collector orchestrates a full collection run. Workers return values and
// never touch shared state; all merging happens on the Run goroutine.
type Collector struct {
	cfg       *config.Config
	fetcher   *sitemap.Fetcher
	extractor *Extractor

	Metrics     *Metrics
	Performance *Performance

	stats models.RunStats
}

// shardOutcome carries one shard's result back to the reducer.
type shardOutcome struct {
	url    string
	result models.ShardResult
	err    error
}

// New builds a Collector from validated configuration.
func New(cfg *config.Config) (*Collector, error) {
	metrics := NewMetrics()

	c := &Collector{
		cfg:         cfg,
		Metrics:     metrics,
		Performance: NewPerformance(),
	}

	base := newHTTPTransport(cfg.Timeout)
	retrying := sitemap.NewRetryTransport(base, sitemap.RetryPolicy{
		MaxAttempts: cfg.RetryAttempts,
		Backoff:     cfg.RetryBackoff,
		BackoffMax:  cfg.RetryBackoffMax,
	})
	client := &http.Client{
		Transport: retrying,
		Timeout:   cfg.Timeout,
	}
	c.fetcher = sitemap.NewFetcher(client, cfg.UserAgent, c)

	titles := NewPageTitleFetcher(cfg.UserAgent, cfg.Timeout, base)
	extractor, err := NewExtractor(titles, cfg.TitleCacheSize, metrics)
	if err != nil {
		return nil, err
	}
	c.extractor = extractor

	return c, nil
}

// Stats returns a copy of the run statistics accumulated so far.
func (c *Collector) Stats() models.RunStats {
	return c.stats
}

// ObserveRequest feeds request durations to both the performance tracker and
// the Prometheus histogram.
func (c *Collector) ObserveRequest(d time.Duration) {
	c.Performance.ObserveRequest(d)
	c.Metrics.ObserveDuration(d)
}

// Run fetches the root sitemap, processes every shard under the worker pool,
// and returns the deduplicated item list. A root-sitemap failure or an index
// without shards aborts the run with an error and no items.
func (c *Collector) Run(ctx context.Context) ([]models.Item, error) {
	slog.Info("starting item collection", slog.String("sitemap", c.cfg.SitemapURL))

	index, err := c.fetcher.Index(ctx, c.cfg.SitemapURL)
	if err != nil {
		c.Metrics.IncFetch("failure")
		c.Metrics.IncError(errorTypeLabel(classifyError(err)))
		slog.Error("failed to fetch root sitemap", slog.Any("error", err))
		return nil, fmt.Errorf("fetch root sitemap: %w", err)
	}
	c.Metrics.IncFetch("success")

	shards := index.ShardURLs()
	if len(shards) == 0 {
		slog.Error("no shard URLs found in root sitemap")
		return nil, ErrNoShards
	}
	slog.Info("found shard URLs", slog.Int("count", len(shards)))

	c.stats.TotalShards = len(shards)

	jobs := make(chan string)
	results := make(chan shardOutcome)

	var wg sync.WaitGroup
	for i := 0; i < c.cfg.MaxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for shardURL := range jobs {
				result, err := c.processShard(ctx, shardURL)
				results <- shardOutcome{url: shardURL, result: result, err: err}
			}
		}()
	}

	// Stop feeding shards once the context is cancelled; in-flight shards
	// drain through the results channel.
	go func() {
		defer close(jobs)
		for _, shardURL := range shards {
			select {
			case <-ctx.Done():
				return
			case jobs <- shardURL:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	all := c.merge(results, len(shards))

	if err := ctx.Err(); err != nil {
		slog.Warn("collection interrupted", slog.Any("error", err))
		return nil, err
	}

	unique := c.dedupe(all)
	c.logStatistics()

	return unique, nil
}

// merge folds shard outcomes into the global list and counters, in
// completion order, on the calling goroutine only.
func (c *Collector) merge(results <-chan shardOutcome, total int) []models.Item {
	var all []models.Item
	processed := 0

	for outcome := range results {
		processed++
		slog.Info("processing shard",
			slog.Int("current", processed),
			slog.Int("total", total),
		)

		if outcome.err != nil {
			c.stats.FailedShards++
			c.Metrics.IncShard("failed")
			slog.Error("shard failed",
				slog.String("url", outcome.url),
				slog.Any("error", outcome.err),
			)
			continue
		}
		c.Metrics.IncShard("ok")

		stats := outcome.result.Stats
		all = append(all, outcome.result.Items...)
		c.stats.TotalURLs += stats.TotalURLs
		c.stats.InvalidURLs += stats.InvalidURLs
		c.stats.FailedExtracts += stats.FailedExtractions
		c.stats.ValidItems += stats.ValidItems

		slog.Debug("shard processed",
			slog.String("url", outcome.url),
			slog.Int("items", len(outcome.result.Items)),
			slog.Int("urls", stats.TotalURLs),
			slog.Int("invalid", stats.InvalidURLs),
			slog.Int("failed_extractions", stats.FailedExtractions),
		)
	}

	return all
}

// processShard fetches one shard sitemap and extracts every listed detail
// URL. A fetch failure is absorbed: the shard contributes zero counters and
// no error. A panic is returned as an error so the reducer can count the
// shard as failed without merging partial output.
func (c *Collector) processShard(ctx context.Context, shardURL string) (result models.ShardResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("shard %s: panic: %v", shardURL, r)
		}
	}()

	set, fetchErr := c.fetcher.URLSet(ctx, shardURL)
	if fetchErr != nil {
		c.Metrics.IncFetch("failure")
		c.Metrics.IncError(errorTypeLabel(classifyError(fetchErr)))
		slog.Warn("failed to fetch shard",
			slog.String("url", shardURL),
			slog.Any("error", fetchErr),
		)
	} else {
		c.Metrics.IncFetch("success")
		for _, entry := range set.URLs {
			loc := strings.TrimSpace(entry.Loc)
			if loc == "" {
				continue
			}
			result.Stats.TotalURLs++

			if !parser.IsStoreDetailURL(loc) {
				result.Stats.InvalidURLs++
				c.Metrics.IncURL("invalid")
				continue
			}

			item, ok := c.extractor.Extract(ctx, loc)
			if !ok {
				result.Stats.FailedExtractions++
				c.Metrics.IncURL("failed_extraction")
				continue
			}
			result.Items = append(result.Items, item)
			result.Stats.ValidItems++
			c.Metrics.IncURL("valid")
		}
	}

	// Courtesy delay between shard requests, applied whether or not the
	// fetch succeeded.
	c.sleep(ctx)
	return result, nil
}

func (c *Collector) sleep(ctx context.Context) {
	if c.cfg.Delay <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(c.cfg.Delay):
	}
}

// dedupe drops repeated ids. An item keeps the list position of the first
// occurrence of its id, while a later occurrence overwrites the stored
// record; which duplicate wins depends on shard completion order.
func (c *Collector) dedupe(all []models.Item) []models.Item {
	unique := make([]models.Item, 0, len(all))
	position := make(map[string]int, len(all))

	for _, item := range all {
		if at, seen := position[item.ID]; seen {
			unique[at] = item
			continue
		}
		position[item.ID] = len(unique)
		unique = append(unique, item)
	}

	c.stats.DuplicateItems = len(all) - len(unique)
	c.stats.UniqueItems = len(unique)
	c.Metrics.AddDuplicates(c.stats.DuplicateItems)

	return unique
}

func (c *Collector) logStatistics() {
	slog.Info("collection statistics",
		slog.Int("total_shards", c.stats.TotalShards),
		slog.Int("failed_shards", c.stats.FailedShards),
		slog.String("success_rate", fmt.Sprintf("%.1f%%", c.stats.SuccessRate())),
		slog.Int("total_urls", c.stats.TotalURLs),
		slog.Int("invalid_urls", c.stats.InvalidURLs),
		slog.Int("failed_extractions", c.stats.FailedExtracts),
		slog.Int("valid_items", c.stats.ValidItems),
		slog.Int("duplicate_items", c.stats.DuplicateItems),
		slog.Int("unique_items", c.stats.UniqueItems),
	)
}

func newHTTPTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}
