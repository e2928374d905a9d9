package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aluiziolira/go-webstore-lister/collector"
	"github.com/aluiziolira/go-webstore-lister/config"
	"github.com/aluiziolira/go-webstore-lister/models"
	"github.com/aluiziolira/go-webstore-lister/pipeline"
)

const appVersion = "1.0.0"

func main() {
	defaults := config.DefaultConfig()

	outputDefault := defaults.OutputFile
	if value, ok := config.EnvString("OUTPUT_FILE"); ok {
		outputDefault = value
	}
	timeoutDefault := int(defaults.Timeout / time.Second)
	if value, ok, err := config.EnvInt("REQUEST_TIMEOUT"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid REQUEST_TIMEOUT: %v\n", err)
		os.Exit(1)
	} else if ok {
		timeoutDefault = value
	}
	delayDefault := defaults.Delay
	if value, ok, err := config.EnvSeconds("REQUEST_DELAY"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid REQUEST_DELAY: %v\n", err)
		os.Exit(1)
	} else if ok {
		delayDefault = value
	}
	workersDefault := defaults.MaxWorkers
	if value, ok, err := config.EnvInt("MAX_WORKERS"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid MAX_WORKERS: %v\n", err)
		os.Exit(1)
	} else if ok {
		workersDefault = value
	}
	retriesDefault := defaults.RetryAttempts
	if value, ok, err := config.EnvInt("RETRY_ATTEMPTS"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid RETRY_ATTEMPTS: %v\n", err)
		os.Exit(1)
	} else if ok {
		retriesDefault = value
	}
	metricsDefault := defaults.MetricsAddr
	if value, ok := config.EnvString("METRICS_ADDR"); ok {
		metricsDefault = value
	}

	outputFile := flag.String("output", outputDefault, "Output JSON file path")
	timeoutSec := flag.Int("timeout", timeoutDefault, "HTTP request timeout in seconds")
	delaySec := flag.Float64("delay", delayDefault.Seconds(), "Delay between shard requests in seconds")
	maxWorkers := flag.Int("max-workers", workersDefault, "Maximum number of concurrent workers")
	retryAttempts := flag.Int("retry-attempts", retriesDefault, "Number of retry attempts for failed requests")
	sitemapURL := flag.String("sitemap-url", defaults.SitemapURL, "Root sitemap index URL")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")
	showVersion := flag.Bool("version", false, "Print version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("webstore-lister %s\n", appVersion)
		return
	}

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := defaults
	cfg.SitemapURL = *sitemapURL
	cfg.OutputFile = sanitizeOutputPath(*outputFile)
	cfg.Timeout = time.Duration(*timeoutSec) * time.Second
	cfg.Delay = time.Duration(*delaySec * float64(time.Second))
	cfg.MaxWorkers = *maxWorkers
	cfg.RetryAttempts = *retryAttempts
	cfg.MetricsAddr = *metricsAddr
	cfg.Verbose = *verbose

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	slog.Info("starting collection",
		slog.String("sitemap", cfg.SitemapURL),
		slog.String("output", cfg.OutputFile),
		slog.Int("workers", cfg.MaxWorkers),
		slog.Duration("timeout", cfg.Timeout),
	)

	col, err := collector.New(cfg)
	if err != nil {
		slog.Error("initialising collector", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received, waiting for in-flight shards to finish")
	}()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(col.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	startTime := time.Now()
	items, err := col.Run(ctx)

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
		cancel()
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		slog.Info("collection interrupted by user")
		col.Performance.LogSummary()
		os.Exit(1)
	}

	if err != nil || len(items) == 0 {
		slog.Warn("no items collected")
		if config.EnvBool("GITHUB_ACTIONS") {
			fmt.Println("::warning::No items were collected from the store sitemap")
		}
		col.Performance.LogSummary()
		return
	}

	if err := saveItems(cfg.OutputFile, items); err != nil {
		slog.Error("failed to save items",
			slog.String("output", cfg.OutputFile),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
	slog.Info("saved items",
		slog.Int("count", len(items)),
		slog.String("output", cfg.OutputFile),
	)

	if config.EnvBool("GITHUB_ACTIONS") {
		if githubOutput, ok := config.EnvString("GITHUB_OUTPUT"); ok {
			if err := pipeline.AppendGitHubOutputs(githubOutput, cfg.OutputFile, len(items), col.Stats()); err != nil {
				slog.Error("failed to write github outputs", slog.Any("error", err))
			}
		}
	}

	col.Performance.LogSummary()
	printSummary(col.Stats(), len(items), time.Since(startTime), cfg.OutputFile)
}

func saveItems(path string, items []models.Item) error {
	writer, err := pipeline.NewJSONWriter(path)
	if err != nil {
		return err
	}
	if err := writer.Write(items); err != nil {
		writer.Close()
		return err
	}
	if err := writer.Validate(); err != nil {
		writer.Close()
		return err
	}
	return writer.Close()
}

// sanitizeOutputPath reduces the configured path to a safe filename: base
// name only, invalid and control characters replaced, bounded length, and a
// forced .json suffix.
func sanitizeOutputPath(value string) string {
	name := filepath.Base(value)
	if name == "." || name == string(filepath.Separator) {
		name = ""
	}

	var builder strings.Builder
	for _, r := range name {
		switch {
		case r < 32:
		case strings.ContainsRune(`<>:"/\|?*`, r):
			builder.WriteRune('_')
		default:
			builder.WriteRune(r)
		}
	}
	name = builder.String()

	if runes := []rune(name); len(runes) > 255 {
		name = string(runes[:255])
	}
	name = strings.TrimSpace(name)
	if name == "" {
		name = "output"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".json") {
		name += ".json"
	}
	return name
}

func printSummary(stats models.RunStats, itemCount int, duration time.Duration, outputFile string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Collection complete")
	fmt.Printf("  Unique items:  %d\n", itemCount)
	fmt.Printf("  Shards:        %d (%d failed)\n", stats.TotalShards, stats.FailedShards)
	fmt.Printf("  Success rate:  %.1f%%\n", stats.SuccessRate())
	fmt.Printf("  URLs seen:     %d\n", stats.TotalURLs)
	fmt.Printf("  Invalid URLs:  %d\n", stats.InvalidURLs)
	fmt.Printf("  Failed:        %d\n", stats.FailedExtracts)
	fmt.Printf("  Duplicates:    %d\n", stats.DuplicateItems)
	fmt.Printf("  Duration:      %v\n", duration.Round(10*time.Millisecond))
	fmt.Printf("  Output file:   %s\n", outputFile)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
	if raw, ok := config.EnvString("LOG_LEVEL"); ok {
		var parsed slog.Level
		if err := parsed.UnmarshalText([]byte(raw)); err == nil {
			level.Set(parsed)
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch {
	case config.EnvBool("GITHUB_ACTIONS"):
		// Plain text keeps CI logs readable.
		handler = slog.NewTextHandler(os.Stdout, opts)
	case isTerminal(os.Stdout):
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
