package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds lister configuration.
type Config struct {
	SitemapURL      string
	OutputFile      string
	Timeout         time.Duration
	Delay           time.Duration
	MaxWorkers      int
	RetryAttempts   int
	RetryBackoff    time.Duration
	RetryBackoffMax time.Duration
	TitleCacheSize  int
	UserAgent       string
	MetricsAddr     string
	Verbose         bool
}

// DefaultConfig returns the defaults for the Chrome Web Store target.
func DefaultConfig() *Config {
	return &Config{
		SitemapURL:      "https://chromewebstore.google.com/sitemap",
		OutputFile:      "data.json",
		Timeout:         30 * time.Second,
		Delay:           100 * time.Millisecond,
		MaxWorkers:      10,
		RetryAttempts:   3,
		RetryBackoff:    1 * time.Second,
		RetryBackoffMax: 30 * time.Second,
		TitleCacheSize:  4096,
		UserAgent:       "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36",
		MetricsAddr:     "",
		Verbose:         false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.SitemapURL == "" {
		return fmt.Errorf("sitemap URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.SitemapURL)
	if err != nil {
		return fmt.Errorf("invalid sitemap URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("sitemap URL must include a host")
	}

	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Delay < 0 {
		return fmt.Errorf("delay cannot be negative")
	}
	if c.MaxWorkers <= 0 {
		return fmt.Errorf("max workers must be positive")
	}
	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.TitleCacheSize <= 0 {
		return fmt.Errorf("title cache size must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}
